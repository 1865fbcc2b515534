// internal/browser/dom/html.go
package dom

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/bugtrap/internal/capture"
)

// HTMLNode adapts a parsed x/net/html node to capture.Node.
type HTMLNode struct {
	n *html.Node
}

// FromHTML wraps n. A nil node yields a nil interface, never a typed nil, so the
// sibling walk in the selector terminates.
func FromHTML(n *html.Node) capture.Node {
	if n == nil {
		return nil
	}
	return &HTMLNode{n: n}
}

// Unwrap returns the underlying parse tree node.
func (h *HTMLNode) Unwrap() *html.Node { return h.n }

func (h *HTMLNode) NodeType() capture.NodeType {
	switch h.n.Type {
	case html.ElementNode:
		return capture.ElementNode
	case html.TextNode:
		return capture.TextNode
	case html.CommentNode:
		return capture.CommentNode
	case html.DocumentNode:
		return capture.DocumentNode
	case html.DoctypeNode:
		return capture.DocumentTypeNode
	}
	return 0
}

func (h *HTMLNode) isElement() bool { return h.n.Type == html.ElementNode }

// LocalName is the lowercase tag name; non-elements have none.
func (h *HTMLNode) LocalName() string {
	if !h.isElement() {
		return ""
	}
	return strings.ToLower(h.n.Data)
}

func (h *HTMLNode) TagName() string {
	if !h.isElement() {
		return ""
	}
	return strings.ToUpper(h.n.Data)
}

func (h *HTMLNode) ID() string        { return h.Attr("id") }
func (h *HTMLNode) ClassName() string { return h.Attr("class") }

// OuterHTML renders the element with its subtree. Void elements render in the
// self-closing form produced by html.Render.
func (h *HTMLNode) OuterHTML() string {
	if !h.isElement() {
		return ""
	}
	return htmlquery.OutputHTML(h.n, true)
}

func (h *HTMLNode) PreviousSibling() capture.Node {
	return FromHTML(h.n.PrevSibling)
}

func (h *HTMLNode) Attr(name string) string {
	if !h.isElement() {
		return ""
	}
	return htmlquery.SelectAttr(h.n, name)
}

// ComposedPath returns the dispatch path of an event fired at n: the node itself
// followed by each ancestor up to and including the document.
func ComposedPath(n *html.Node) []capture.Node {
	var path []capture.Node
	for cur := n; cur != nil; cur = cur.Parent {
		path = append(path, FromHTML(cur))
	}
	return path
}

// ResourceEvents builds one resource failure event per element matched by the
// XPath expression, as the browser would dispatch them if each element's
// resource failed to load.
func ResourceEvents(doc *html.Node, expr string, timeStamp float64) ([]*capture.ErrorEvent, error) {
	nodes, err := htmlquery.QueryAll(doc, expr)
	if err != nil {
		return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
	}

	events := make([]*capture.ErrorEvent, 0, len(nodes))
	for _, n := range nodes {
		if n.Type != html.ElementNode {
			continue
		}
		events = append(events, &capture.ErrorEvent{
			Target:    FromHTML(n),
			Path:      ComposedPath(n),
			TimeStamp: timeStamp,
		})
	}
	return events, nil
}
