// Package nav holds the native side of the content-page navigation
// protocol: the state mirrored from the document's discovered controls
// and the command operations the footer UI calls.
package nav

import (
	"context"
	"sync"

	"github.com/quillcart/bridge/bridge"
	"github.com/quillcart/bridge/messages"
)

// StateMachine mirrors the document's paging-control state. Each inbound
// state message replaces the whole state — no partial merges — and the
// zero value (invisible, nothing enabled) stands until the first message
// arrives. Commands are gated here; the document side does not need to
// validate them.
type StateMachine struct {
	post bridge.Poster
	log  bridge.Logger

	mu       sync.Mutex
	state    messages.ContentPageNavigationState
	onChange func(messages.ContentPageNavigationState)
}

// NewStateMachine creates a state machine posting commands over the channel.
func NewStateMachine(post bridge.Poster, log bridge.Logger) *StateMachine {
	if log == nil {
		log = bridge.NewSlogLogger(nil)
	}
	return &StateMachine{post: post, log: log}
}

// OnChange registers the footer's refresh callback, invoked with the new
// state after every replacement, outside the lock.
func (m *StateMachine) OnChange(fn func(messages.ContentPageNavigationState)) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// HandlerSpec returns the registration consuming the document's state reports.
func (m *StateMachine) HandlerSpec() messages.MessageSpec {
	return messages.Message[messages.ContentPageNavigationState](
		messages.TypeContentPageNavigationState,
		func(ctx context.Context, s *messages.ContentPageNavigationState) error {
			m.apply(*s)
			return nil
		})
}

func (m *StateMachine) apply(s messages.ContentPageNavigationState) {
	m.mu.Lock()
	m.state = s
	fn := m.onChange
	m.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

// State returns the current navigation state.
func (m *StateMachine) State() messages.ContentPageNavigationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// GoPrevious issues a goPrevious command when the state allows it.
func (m *StateMachine) GoPrevious() {
	if !m.State().CanGoPrevious {
		return
	}
	m.command(messages.ActionGoPrevious)
}

// GoNext issues a goNext command when the state allows it.
func (m *StateMachine) GoNext() {
	if !m.State().CanGoNext {
		return
	}
	m.command(messages.ActionGoNext)
}

// OpenTableOfContents issues an openTableOfContents command when the
// document reported such a control.
func (m *StateMachine) OpenTableOfContents() {
	if !m.State().HasTableOfContents {
		return
	}
	m.command(messages.ActionOpenTableOfContents)
}

func (m *StateMachine) command(action messages.Action) {
	cmd := messages.NavigationCommand{Action: action}
	if err := m.post.Post(messages.TypeContentPageNavigationCommand, cmd); err != nil {
		m.log.Debug("navigation command post failed", "action", action, "err", err)
	}
}
