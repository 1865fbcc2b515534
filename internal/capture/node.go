// internal/capture/node.go
package capture

// NodeType mirrors the DOM nodeType constants.
type NodeType int

const (
	ElementNode      NodeType = 1
	TextNode         NodeType = 3
	CommentNode      NodeType = 8
	DocumentNode     NodeType = 9
	DocumentTypeNode NodeType = 10
)

// Node is the slice of the DOM the classifier needs to describe a failed
// resource element and compute its selector. Implementations exist for parsed
// HTML trees and for snapshots serialized by the in-page hook.
//
// PreviousSibling must return a nil interface (not a typed nil) when there is
// no sibling.
type Node interface {
	NodeType() NodeType
	// LocalName is the lowercase element name, empty for non-elements.
	LocalName() string
	// TagName is the element name as the DOM reports it (uppercase for HTML).
	TagName() string
	ID() string
	ClassName() string
	OuterHTML() string
	PreviousSibling() Node
	// Attr returns a named property of the element ("src", "name", "type"),
	// or the empty string when absent.
	Attr(name string) string
}

// isElement reports whether n is an element (doctype nodes never are).
func isElement(n Node) bool {
	return n != nil && n.NodeType() == ElementNode
}
