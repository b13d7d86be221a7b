package toc

import (
	"context"
	"sync"

	"github.com/quillcart/bridge/bridge"
	"github.com/quillcart/bridge/messages"
)

// Bridge is the native side of the legacy protocol: it mirrors the page
// set announced by the document and drives navigation through gated
// prev/next/jump operations. The footer consuming it renders nothing for
// page sets smaller than two entries.
type Bridge struct {
	post bridge.Poster
	log  bridge.Logger

	mu       sync.Mutex
	pages    []messages.TocPage
	current  int
	onChange func()
}

// NewBridge creates the native legacy bridge posting over the channel.
func NewBridge(post bridge.Poster, log bridge.Logger) *Bridge {
	if log == nil {
		log = bridge.NewSlogLogger(nil)
	}
	return &Bridge{post: post, log: log}
}

// OnChange registers the footer's refresh callback. It fires after every
// state replacement, outside the bridge lock.
func (b *Bridge) OnChange(fn func()) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// HandlerSpecs returns the registrations for both inbound legacy messages.
func (b *Bridge) HandlerSpecs() []messages.MessageSpec {
	return []messages.MessageSpec{
		messages.Message[messages.TocPagesPayload](messages.TypeTocPages,
			func(ctx context.Context, p *messages.TocPagesPayload) error {
				b.setPages(p.Pages, p.CurrentPageIndex)
				return nil
			}),
		messages.Message[messages.TocPageChangedPayload](messages.TypeTocPageChanged,
			func(ctx context.Context, p *messages.TocPageChangedPayload) error {
				b.setCurrent(p.CurrentPageIndex)
				return nil
			}),
	}
}

func (b *Bridge) setPages(pages []messages.TocPage, current int) {
	b.mu.Lock()
	b.pages = pages
	b.current = clampIndex(current, len(pages))
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

func (b *Bridge) setCurrent(current int) {
	b.mu.Lock()
	b.current = clampIndex(current, len(b.pages))
	fn := b.onChange
	b.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Pages returns a copy of the current page set.
func (b *Bridge) Pages() []messages.TocPage {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]messages.TocPage, len(b.pages))
	copy(out, b.pages)
	return out
}

// CurrentIndex returns the index the document last reported.
func (b *Bridge) CurrentIndex() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Visible reports whether the navigation footer should render at all.
// Single-page (or empty) sets show no controls whatsoever.
func (b *Bridge) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pages) > 1
}

// CanGoPrevious reports whether a previous page exists.
func (b *Bridge) CanGoPrevious() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pages) > 1 && b.current > 0
}

// CanGoNext reports whether a next page exists.
func (b *Bridge) CanGoNext() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pages) > 1 && b.current < len(b.pages)-1
}

// GoPrevious navigates to the page before the current one. Pressing the
// control at the first page produces no command.
func (b *Bridge) GoPrevious() {
	if !b.CanGoPrevious() {
		return
	}
	b.NavigateToPage(b.CurrentIndex() - 1)
}

// GoNext navigates to the page after the current one. Pressing the
// control at the last page produces no command.
func (b *Bridge) GoNext() {
	if !b.CanGoNext() {
		return
	}
	b.NavigateToPage(b.CurrentIndex() + 1)
}

// NavigateToPage posts a navigateToPage command for the page at index.
// Out-of-range indices are ignored.
func (b *Bridge) NavigateToPage(index int) {
	b.mu.Lock()
	if index < 0 || index >= len(b.pages) {
		b.mu.Unlock()
		return
	}
	pageID := b.pages[index].ID
	b.mu.Unlock()

	if err := b.post.Post(messages.TypeNavigateToPage, messages.NavigateToPagePayload{PageID: pageID}); err != nil {
		b.log.Debug("navigate command post failed", "err", err)
	}
}

func clampIndex(i, n int) int {
	if n == 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
