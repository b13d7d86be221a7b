// Package webdoc implements the document side of the content bridge: the
// components that, in the hosted web application, live inside the embedded
// page. They operate on a parsed DOM behind the DOM interface so the
// heuristics stay testable and replaceable without touching the native
// state machines.
package webdoc

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// DOM abstracts the embedded document. Click and Navigate carry the
// behavioral side of the page; the host (or a test) decides what a click
// does to the tree. Components only ever write marker and style
// attributes, never structure.
type DOM interface {
	Root() *html.Node
	Click(el *html.Node)
	Location() string
	Navigate(url string)
}

var disabledClassPattern = regexp.MustCompile(`(?i)\bdisabled\b`)

// clickables returns all clickable-role elements under root in document
// order: button, a, and anything carrying role=button.
func clickables(root *html.Node) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) {
		if isClickable(n) {
			out = append(out, n)
		}
	})
	return out
}

func isClickable(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if n.Data == "button" || n.Data == "a" {
		return true
	}
	role, _ := attr(n, "role")
	return role == "button"
}

// walk visits every node of the subtree in depth-first pre-order.
func walk(n *html.Node, fn func(*html.Node)) {
	if n == nil {
		return
	}
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

// nodeText returns the element's text content lowercased with whitespace
// collapsed, the normalization used for all keyword matching.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
			sb.WriteByte(' ')
		}
	})
	return strings.Join(strings.Fields(strings.ToLower(sb.String())), " ")
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := attr(n, key)
	return ok
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// isDisabled reports whether an element is disabled: a disabled attribute,
// aria-disabled="true", or a class list containing the word "disabled".
func isDisabled(n *html.Node) bool {
	if hasAttr(n, "disabled") {
		return true
	}
	if v, ok := attr(n, "aria-disabled"); ok && v == "true" {
		return true
	}
	if cls, ok := attr(n, "class"); ok && disabledClassPattern.MatchString(cls) {
		return true
	}
	return false
}

// commonAncestor returns the nearest node containing both a and b
// (possibly one of the two themselves).
func commonAncestor(a, b *html.Node) *html.Node {
	seen := make(map[*html.Node]bool)
	for n := a; n != nil; n = n.Parent {
		seen[n] = true
	}
	for n := b; n != nil; n = n.Parent {
		if seen[n] {
			return n
		}
	}
	return nil
}

// countClickables counts clickable-role elements in the subtree, the
// scoring metric for candidate navigation containers.
func countClickables(root *html.Node) int {
	count := 0
	walk(root, func(n *html.Node) {
		if isClickable(n) {
			count++
		}
	})
	return count
}

// hide forces the element's inline display off, preserving any existing
// inline style.
func hide(n *html.Node) {
	if style, ok := attr(n, "style"); ok && style != "" {
		setAttr(n, "style", strings.TrimRight(style, "; ")+"; display: none")
		return
	}
	setAttr(n, "style", "display: none")
}

// documentElement finds the top element node of a parsed document, the
// carrier for document-scoped marker attributes.
func documentElement(root *html.Node) *html.Node {
	var el *html.Node
	walk(root, func(n *html.Node) {
		if el == nil && n.Type == html.ElementNode {
			el = n
		}
	})
	return el
}
