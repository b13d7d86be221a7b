package webdoc

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

// fakeDOM is the test double for an embedded document. Click behavior is
// supplied per test so clicks can mutate the tree like a real page would.
type fakeDOM struct {
	root     *html.Node
	location string
	clicked  []*html.Node
	onClick  func(el *html.Node)
}

func (d *fakeDOM) Root() *html.Node { return d.root }

func (d *fakeDOM) Click(el *html.Node) {
	d.clicked = append(d.clicked, el)
	if d.onClick != nil {
		d.onClick(el)
	}
}

func (d *fakeDOM) Location() string     { return d.location }
func (d *fakeDOM) Navigate(url string)  { d.location = url }

func parseDoc(t *testing.T, src string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return root
}

// findByID walks the tree for the element with the given id attribute.
func findByID(t *testing.T, root *html.Node, id string) *html.Node {
	t.Helper()
	var found *html.Node
	walk(root, func(n *html.Node) {
		if v, ok := attr(n, "id"); ok && v == id {
			found = n
		}
	})
	if found == nil {
		t.Fatalf("no element with id %q", id)
	}
	return found
}

func TestNodeText(t *testing.T) {
	root := parseDoc(t, `<button>  Go to
		NEXT   page </button>`)
	btns := clickables(root)
	if len(btns) != 1 {
		t.Fatalf("expected 1 clickable, got %d", len(btns))
	}
	if got := nodeText(btns[0]); got != "go to next page" {
		t.Errorf("expected normalized text, got %q", got)
	}
}

func TestClickables(t *testing.T) {
	root := parseDoc(t, `<div>
		<button>a</button>
		<a href="#">b</a>
		<span role="button">c</span>
		<span>not clickable</span>
		<input type="button" value="also not counted">
	</div>`)
	els := clickables(root)
	if len(els) != 3 {
		t.Fatalf("expected 3 clickables, got %d", len(els))
	}
	// Document order.
	order := []string{nodeText(els[0]), nodeText(els[1]), nodeText(els[2])}
	want := []string{"a", "b", "c"}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], order[i])
		}
	}
}

func TestIsDisabled(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"disabled attribute", `<button id="x" disabled>Next</button>`, true},
		{"aria-disabled true", `<button id="x" aria-disabled="true">Next</button>`, true},
		{"aria-disabled false", `<button id="x" aria-disabled="false">Next</button>`, false},
		{"disabled class word", `<button id="x" class="btn disabled">Next</button>`, true},
		{"hyphenated disabled class", `<button id="x" class="btn-disabled">Next</button>`, true},
		{"disabled inside word", `<button id="x" class="notdisabledbtn">Next</button>`, false},
		{"enabled", `<button id="x" class="btn primary">Next</button>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := parseDoc(t, tt.src)
			el := findByID(t, root, "x")
			if got := isDisabled(el); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCommonAncestor(t *testing.T) {
	root := parseDoc(t, `<div id="outer"><div id="inner"><button id="p">Previous</button><button id="n">Next</button></div><a id="far" href="#">far</a></div>`)
	p := findByID(t, root, "p")
	n := findByID(t, root, "n")
	far := findByID(t, root, "far")

	ca := commonAncestor(p, n)
	if v, _ := attr(ca, "id"); v != "inner" {
		t.Errorf("expected inner container, got %q", v)
	}
	ca = commonAncestor(p, far)
	if v, _ := attr(ca, "id"); v != "outer" {
		t.Errorf("expected outer container, got %q", v)
	}
	if got := commonAncestor(p, p); got != p {
		t.Error("expected a node to be its own ancestor")
	}
}

func TestHidePreservesInlineStyle(t *testing.T) {
	root := parseDoc(t, `<div id="x" style="color: red">hi</div>`)
	el := findByID(t, root, "x")
	hide(el)
	style, _ := attr(el, "style")
	if !strings.Contains(style, "color: red") || !strings.Contains(style, "display: none") {
		t.Errorf("unexpected style: %q", style)
	}
}
