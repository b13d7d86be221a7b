package webdoc

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/quillcart/bridge/bridge"
	"github.com/quillcart/bridge/messages"
)

// Document-scoped markers. The install marker keeps a re-injected script
// from installing twice on the same page; the hide marker keeps the
// discovered container from being re-hidden in a mutation loop.
const (
	attrInstallMarker = "data-qc-nav-bridge"
	attrHiddenMarker  = "data-qc-nav-hidden"
)

// NavConfig carries the timing knobs of the in-page navigation component.
// The values encode a responsiveness/chattiness trade-off and may need
// host-specific tuning; zero delays mean synchronous recomputation.
type NavConfig struct {
	// Debounce batches bursts of DOM mutations into one recomputation.
	Debounce time.Duration
	// CommandRecompute is the pause between a synthesized click and the
	// follow-up state recomputation.
	CommandRecompute time.Duration
	// Settle schedules one extra recomputation after installation to
	// catch late-loading content.
	Settle time.Duration
}

// DefaultNavConfig returns the empirically tuned production delays.
func DefaultNavConfig() NavConfig {
	return NavConfig{
		Debounce:         60 * time.Millisecond,
		CommandRecompute: 150 * time.Millisecond,
		Settle:           400 * time.Millisecond,
	}
}

// controls is one discovery result. Any field may be nil.
type controls struct {
	prev      *html.Node
	next      *html.Node
	toc       *html.Node
	container *html.Node
}

// NavScript makes an arbitrary, not-explicitly-cooperating page's paging
// controls drivable from native code and reports their state back over
// the channel. One instance serves one document lifetime; nothing is
// shared across installations.
//
// All errors raised while inspecting the document are swallowed locally:
// an exception escaping the injected layer could abort script execution
// for the rest of the document's lifetime.
type NavScript struct {
	dom  DOM
	post bridge.Poster
	log  bridge.Logger
	cfg  NavConfig

	mu             sync.Mutex
	installed      bool
	stopped        bool
	lastSerialized string
	debounceTimer  *time.Timer
	pending        []*time.Timer
}

// NewNavScript creates a navigation component for one document.
func NewNavScript(dom DOM, post bridge.Poster, log bridge.Logger, cfg NavConfig) *NavScript {
	if log == nil {
		log = bridge.NewSlogLogger(nil)
	}
	return &NavScript{dom: dom, post: post, log: log, cfg: cfg}
}

// Install activates the component: it marks the document, emits the
// initial state, and schedules the settle-delay recomputation. Repeated
// installation on the same document is a no-op, so script re-injection on
// reload cannot stack listeners.
func (s *NavScript) Install() bool {
	s.mu.Lock()
	if s.installed || s.stopped {
		s.mu.Unlock()
		return false
	}
	docEl := documentElement(s.dom.Root())
	if docEl == nil || hasAttr(docEl, attrInstallMarker) {
		s.mu.Unlock()
		return false
	}
	setAttr(docEl, attrInstallMarker, "1")
	s.installed = true
	s.mu.Unlock()

	s.recompute()
	s.after(s.cfg.Settle, s.recompute)
	return true
}

// Spec returns the registration routing inbound paging commands to this
// component, for the document side's own dispatcher.
func (s *NavScript) Spec() messages.MessageSpec {
	return messages.Message[messages.NavigationCommand](
		messages.TypeContentPageNavigationCommand,
		func(ctx context.Context, cmd *messages.NavigationCommand) error {
			s.HandleCommand(cmd.Action)
			return nil
		})
}

// HandleCommand looks up fresh control references (the page may have
// re-rendered since discovery) and synthesizes a click on the matching
// element. Unknown actions are a no-op. After the configured delay the
// state is recomputed, since clicking may change page content.
func (s *NavScript) HandleCommand(action messages.Action) {
	if !action.Valid() {
		return
	}
	defer s.recoverInspection("command")

	c := s.discover()
	var target *html.Node
	switch action {
	case messages.ActionGoPrevious:
		target = c.prev
	case messages.ActionGoNext:
		target = c.next
	case messages.ActionOpenTableOfContents:
		target = c.toc
	}
	if target != nil {
		s.dom.Click(target)
	}
	s.after(s.cfg.CommandRecompute, s.recompute)
}

// NotifyMutation is the host's MutationObserver feed. Bursts of calls
// collapse into one recomputation per debounce window.
func (s *NavScript) NotifyMutation() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if s.cfg.Debounce <= 0 {
		s.mu.Unlock()
		s.recompute()
		return
	}
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.debounceTimer = time.AfterFunc(s.cfg.Debounce, s.recompute)
	s.mu.Unlock()
}

// Stop releases every pending timer. Posting to a destroyed channel after
// teardown would leak messages into a dead document.
func (s *NavScript) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
		s.debounceTimer = nil
	}
	for _, t := range s.pending {
		t.Stop()
	}
	s.pending = nil
}

// after schedules fn, running it synchronously for zero delays. Fired
// timers remove themselves from pending so a long-lived document does not
// accumulate handles.
func (s *NavScript) after(d time.Duration, fn func()) {
	if d <= 0 {
		fn()
		return
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		s.dropPending(t)
		fn()
	})
	s.pending = append(s.pending, t)
	s.mu.Unlock()
}

func (s *NavScript) dropPending(t *time.Timer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.pending {
		if p == t {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

// recompute rebuilds the navigation state from the document and emits it
// when it differs from the last serialized value. Repeated calls with an
// unchanged DOM produce no channel traffic.
func (s *NavScript) recompute() {
	defer s.recoverInspection("recompute")

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	c := s.discover()
	s.hideContainer(c)

	state := messages.ContentPageNavigationState{
		IsVisible:          c.prev != nil || c.next != nil || c.toc != nil,
		HasTableOfContents: c.toc != nil,
		CanGoPrevious:      c.prev != nil && !isDisabled(c.prev),
		CanGoNext:          c.next != nil && !isDisabled(c.next),
	}

	serialized, err := json.Marshal(state)
	if err != nil {
		return
	}

	// Stop may have landed while the document was being inspected; the
	// stopped re-check and the post share one critical section so nothing
	// leaks into a torn-down channel.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || string(serialized) == s.lastSerialized {
		return
	}
	s.lastSerialized = string(serialized)

	if err := s.post.Post(messages.TypeContentPageNavigationState, state); err != nil {
		s.log.Debug("navigation state post failed", "err", err)
	}
}

// discover runs the control heuristics against the current document.
//
// Every (previous-candidate, next-candidate) pair is scored by the number
// of clickable elements under their nearest common ancestor; the smallest
// container is most likely the genuine, minimal paging widget rather than
// two unrelated controls sharing a page-level ancestor. Strict less-than
// keeps the first pair in document order on ties. The table-of-contents
// control is any other clickable in the winning container whose text
// carries neither keyword.
func (s *NavScript) discover() controls {
	all := clickables(s.dom.Root())

	var prevCands, nextCands []*html.Node
	texts := make(map[*html.Node]string, len(all))
	for _, el := range all {
		txt := nodeText(el)
		texts[el] = txt
		if strings.Contains(txt, "previous") {
			prevCands = append(prevCands, el)
		}
		if strings.Contains(txt, "next") {
			nextCands = append(nextCands, el)
		}
	}

	var c controls
	bestScore := -1
	for _, p := range prevCands {
		for _, n := range nextCands {
			if p == n {
				continue
			}
			ca := commonAncestor(p, n)
			if ca == nil {
				continue
			}
			score := countClickables(ca)
			if bestScore < 0 || score < bestScore {
				bestScore = score
				c.prev, c.next, c.container = p, n, ca
			}
		}
	}

	if c.container != nil {
		for _, el := range clickables(c.container) {
			if el == c.prev || el == c.next {
				continue
			}
			txt := texts[el]
			if strings.Contains(txt, "previous") || strings.Contains(txt, "next") {
				continue
			}
			c.toc = el
			break
		}
	}

	return c
}

// hideContainer hides the discovered widget once so the page's own
// controls do not visually duplicate the native footer. The marker
// attribute prevents a hide/mutate/hide loop.
func (s *NavScript) hideContainer(c controls) {
	if c.container == nil || hasAttr(c.container, attrHiddenMarker) {
		return
	}
	setAttr(c.container, attrHiddenMarker, "1")
	hide(c.container)
}

// recoverInspection converts a panic from document inspection into a log
// line. The injected layer must never throw back into the page.
func (s *NavScript) recoverInspection(op string) {
	if r := recover(); r != nil {
		s.log.Debug("suppressed document inspection failure", "op", op, "panic", r)
	}
}
