// Package toc implements the older table-of-contents protocol kept for
// the paginated post surface: link scraping instead of button heuristics,
// with explicit page lists pushed to native.
package toc

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/quillcart/bridge/messages"
)

// Extract pulls the page set out of a document. Strategies run in
// fallback order — anchor scraping, data attributes, embedded script
// JSON — and the first one yielding at least one page wins.
func Extract(root *html.Node) []messages.TocPage {
	if pages := fromAnchors(root); len(pages) > 0 {
		return pages
	}
	if pages := fromDataAttributes(root); len(pages) > 0 {
		return pages
	}
	return fromScriptJSON(root)
}

// CurrentIndex resolves the page the document is on by substring-matching
// the location against each page id. Unmatched locations default to 0.
func CurrentIndex(location string, pages []messages.TocPage) int {
	for i, p := range pages {
		if p.ID != "" && strings.Contains(location, p.ID) {
			return i
		}
	}
	return 0
}

// fromAnchors scrapes hyperlinks. Hrefs are the page ids; duplicates and
// fragment-only links are skipped. Link text names the page, falling back
// to a positional placeholder.
func fromAnchors(root *html.Node) []messages.TocPage {
	var pages []messages.TocPage
	seen := make(map[string]bool)
	walkNodes(root, func(n *html.Node) {
		if n.Type != html.ElementNode || n.Data != "a" {
			return
		}
		href := attrVal(n, "href")
		if href == "" || href == "#" || strings.HasPrefix(href, "javascript:") {
			return
		}
		if seen[href] {
			return
		}
		seen[href] = true
		pages = append(pages, messages.TocPage{
			ID:   href,
			Name: pageName(textOf(n), len(pages)),
		})
	})
	return pages
}

// fromDataAttributes collects elements annotated with data-page-id.
func fromDataAttributes(root *html.Node) []messages.TocPage {
	var pages []messages.TocPage
	seen := make(map[string]bool)
	walkNodes(root, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		id := attrVal(n, "data-page-id")
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		name := attrVal(n, "data-page-name")
		if name == "" {
			name = textOf(n)
		}
		pages = append(pages, messages.TocPage{
			ID:   id,
			Name: pageName(name, len(pages)),
		})
	})
	return pages
}

// fromScriptJSON tries embedded JSON blobs: every script tag of type
// application/json is decoded as either {"pages": [...]} or a bare page
// array; the first blob carrying at least one page with an id wins.
func fromScriptJSON(root *html.Node) []messages.TocPage {
	var pages []messages.TocPage
	walkNodes(root, func(n *html.Node) {
		if pages != nil {
			return
		}
		if n.Type != html.ElementNode || n.Data != "script" {
			return
		}
		if attrVal(n, "type") != "application/json" {
			return
		}
		var raw strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				raw.WriteString(c.Data)
			}
		}
		pages = decodePageJSON(raw.String())
	})
	return pages
}

func decodePageJSON(raw string) []messages.TocPage {
	var wrapper struct {
		Pages []messages.TocPage `json:"pages"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapper); err == nil && len(wrapper.Pages) > 0 {
		return sanitize(wrapper.Pages)
	}
	var bare []messages.TocPage
	if err := json.Unmarshal([]byte(raw), &bare); err == nil && len(bare) > 0 {
		return sanitize(bare)
	}
	return nil
}

// sanitize drops id-less entries and fills placeholder names.
func sanitize(in []messages.TocPage) []messages.TocPage {
	var out []messages.TocPage
	for _, p := range in {
		if p.ID == "" {
			continue
		}
		p.Name = pageName(p.Name, len(out))
		out = append(out, p)
	}
	return out
}

func pageName(name string, index int) string {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return fmt.Sprintf("Page %d", index+1)
	}
	return name
}

func walkNodes(n *html.Node, fn func(*html.Node)) {
	if n == nil {
		return
	}
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkNodes(c, fn)
	}
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	walkNodes(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
			sb.WriteByte(' ')
		}
	})
	return strings.Join(strings.Fields(sb.String()), " ")
}
