// internal/capture/selector.go
package capture

import (
	"fmt"
	"strings"
)

// selectorSeparator joins the per-node fragments of a selector.
const selectorSeparator = " > "

// BuildSelector derives a CSS-like selector for target from the event's composed
// path. The path is given in dispatch order (target first, root last) and is read
// in reverse without being modified.
//
// Positioning is approximate: the :nth-child suffix is attached to every path
// node whose outer markup equals the target's, so duplicated markup along the
// path can receive the suffix as well.
func BuildSelector(target Node, path []Node) string {
	if target == nil {
		return ""
	}

	index := siblingIndex(target)
	targetHTML := target.OuterHTML()

	fragments := make([]string, 0, len(path))
	for i := len(path) - 1; i >= 0; i-- {
		node := path[i]
		if node == nil {
			continue
		}
		if fragment := selectorFragment(node, targetHTML, index); fragment != "" {
			fragments = append(fragments, fragment)
		}
	}
	return strings.Join(fragments, selectorSeparator)
}

// siblingIndex counts the element siblings preceding n, so a first child is 0.
// Text, comment and doctype siblings are skipped.
func siblingIndex(n Node) int {
	index := 0
	for prev := n.PreviousSibling(); prev != nil; prev = prev.PreviousSibling() {
		if isElement(prev) {
			index++
		}
	}
	return index
}

func selectorFragment(node Node, targetHTML string, index int) string {
	var b strings.Builder
	b.WriteString(node.LocalName())
	if id := node.ID(); id != "" {
		b.WriteString("#" + id)
	}
	if class := node.ClassName(); class != "" {
		b.WriteString("." + class)
	}
	// Nodes without markup (window, document) never match an element's markup.
	if html := node.OuterHTML(); html != "" && html == targetHTML {
		b.WriteString(fmt.Sprintf(":nth-child(%d)", index))
	}
	return b.String()
}
