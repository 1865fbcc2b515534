// internal/browser/dom/snapshot.go
package dom

import (
	"github.com/xkilldash9x/bugtrap/internal/capture"
)

// Snapshot is a serialized DOM node as captured by the in-page hook. The hook
// records the node types of the previous siblings (nearest first) instead of the
// siblings themselves; that is all the selector needs to compute positions.
type Snapshot struct {
	Kind   int    `json:"nodeType"`
	Local  string `json:"localName"`
	Tag    string `json:"tagName"`
	Ident  string `json:"id"`
	Class  string `json:"className"`
	Markup string `json:"outerHTML"`
	Src    string `json:"src"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Prev   []int  `json:"prev"`
}

// AsNode returns s as a capture.Node, mapping a nil snapshot to a nil interface.
func (s *Snapshot) AsNode() capture.Node {
	if s == nil {
		return nil
	}
	return s
}

func (s *Snapshot) NodeType() capture.NodeType { return capture.NodeType(s.Kind) }
func (s *Snapshot) LocalName() string          { return s.Local }
func (s *Snapshot) TagName() string            { return s.Tag }
func (s *Snapshot) ID() string                 { return s.Ident }
func (s *Snapshot) ClassName() string          { return s.Class }
func (s *Snapshot) OuterHTML() string          { return s.Markup }

func (s *Snapshot) Attr(name string) string {
	switch name {
	case "src":
		return s.Src
	case "name":
		return s.Name
	case "type":
		return s.Type
	case "id":
		return s.Ident
	case "class":
		return s.Class
	}
	return ""
}

func (s *Snapshot) PreviousSibling() capture.Node {
	return siblingAt(s.Prev, 0)
}

// sibling stands in for a previous sibling of a snapshot. Only its node type is
// known.
type sibling struct {
	types []int
	index int
}

func siblingAt(types []int, index int) capture.Node {
	if index >= len(types) {
		return nil
	}
	return &sibling{types: types, index: index}
}

func (s *sibling) NodeType() capture.NodeType   { return capture.NodeType(s.types[s.index]) }
func (s *sibling) LocalName() string            { return "" }
func (s *sibling) TagName() string              { return "" }
func (s *sibling) ID() string                   { return "" }
func (s *sibling) ClassName() string            { return "" }
func (s *sibling) OuterHTML() string            { return "" }
func (s *sibling) Attr(string) string           { return "" }
func (s *sibling) PreviousSibling() capture.Node { return siblingAt(s.types, s.index+1) }
