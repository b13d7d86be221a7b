package toc

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/quillcart/bridge/bridge"
	"github.com/quillcart/bridge/messages"
	"github.com/quillcart/bridge/webdoc"
)

// PageScript is the document side of the legacy protocol. It announces
// the extracted page set once, reports in-page navigation, and executes
// navigateToPage commands from native.
type PageScript struct {
	dom  webdoc.DOM
	post bridge.Poster
	log  bridge.Logger

	mu        sync.Mutex
	announced bool
	pages     []messages.TocPage
}

// NewPageScript creates the legacy document component for one page.
func NewPageScript(dom webdoc.DOM, post bridge.Poster, log bridge.Logger) *PageScript {
	if log == nil {
		log = bridge.NewSlogLogger(nil)
	}
	return &PageScript{dom: dom, post: post, log: log}
}

// Announce extracts the page set and posts it with the current index.
// The announcement happens at most once per document.
func (p *PageScript) Announce() {
	p.mu.Lock()
	if p.announced {
		p.mu.Unlock()
		return
	}
	p.announced = true
	p.pages = Extract(p.dom.Root())
	pages := p.pages
	p.mu.Unlock()

	payload := messages.TocPagesPayload{
		Pages:            pages,
		CurrentPageIndex: CurrentIndex(p.dom.Location(), pages),
	}
	if err := p.post.Post(messages.TypeTocPages, payload); err != nil {
		p.log.Debug("toc pages post failed", "err", err)
	}
}

// NotifyNavigated reports the page the document landed on after an
// in-page navigation.
func (p *PageScript) NotifyNavigated() {
	p.mu.Lock()
	pages := p.pages
	p.mu.Unlock()

	payload := messages.TocPageChangedPayload{
		CurrentPageIndex: CurrentIndex(p.dom.Location(), pages),
	}
	if err := p.post.Post(messages.TypeTocPageChanged, payload); err != nil {
		p.log.Debug("toc page change post failed", "err", err)
	}
}

// Spec returns the registration routing navigateToPage commands to this
// component.
func (p *PageScript) Spec() messages.MessageSpec {
	return messages.Message[messages.NavigateToPagePayload](
		messages.TypeNavigateToPage,
		func(ctx context.Context, cmd *messages.NavigateToPagePayload) error {
			p.HandleNavigateToPage(cmd.PageID)
			return nil
		})
}

// HandleNavigateToPage clicks the first anchor whose href contains the
// page id, falling back to a full navigation when no such anchor exists.
func (p *PageScript) HandleNavigateToPage(pageID string) {
	if pageID == "" {
		return
	}
	if anchor := findAnchor(p.dom.Root(), pageID); anchor != nil {
		p.dom.Click(anchor)
		p.NotifyNavigated()
		return
	}
	p.dom.Navigate(pageID)
	p.NotifyNavigated()
}

// findAnchor is the querySelector('[href*=pageId]') equivalent.
func findAnchor(root *html.Node, pageID string) *html.Node {
	var found *html.Node
	walkNodes(root, func(n *html.Node) {
		if found != nil || n.Type != html.ElementNode || n.Data != "a" {
			return
		}
		if strings.Contains(attrVal(n, "href"), pageID) {
			found = n
		}
	})
	return found
}
