// Package dom is a small arena-backed document model.
//
// A Document owns all of its nodes. Node values are handles (document + arena
// index); parent, sibling and child relations are indices into the same arena,
// so a handle never owns anything and copying it is free.
package dom

import (
	"iter"
	"strings"
)

type NodeType uint8

const (
	DocumentNode NodeType = iota + 1
	ElementNode
	TextNode
	CommentNode
	DoctypeNode
)

// Attribute is a single name/value pair of an element. Bare attributes were
// written without a value (`<input disabled>`); their value is absent rather
// than empty.
type Attribute struct {
	Name  string
	Value string
	Bare  bool
}

type node struct {
	typ      NodeType
	data     string
	attrs    []Attribute
	parent   int
	index    int
	children []int
}

type Document struct {
	nodes []node
}

type Node struct {
	doc *Document
	id  int
}

func New() *Document {
	return &Document{nodes: []node{{typ: DocumentNode, parent: -1}}}
}

// Root returns the document node. Searching from it covers the whole document.
func (d *Document) Root() Node { return Node{d, 0} }

// Element returns the first element child of the document node (usually <html>).
func (d *Document) Element() (Node, bool) {
	for c := range d.Root().Children() {
		if c.IsElement() {
			return c, true
		}
	}
	return Node{}, false
}

func (d *Document) add(n node) Node {
	n.parent = -1
	d.nodes = append(d.nodes, n)
	return Node{d, len(d.nodes) - 1}
}

func (n Node) Valid() bool    { return n.doc != nil && n.id >= 0 && n.id < len(n.doc.nodes) }
func (n Node) node() *node    { return &n.doc.nodes[n.id] }
func (n Node) ID() int        { return n.id }
func (n Node) Type() NodeType { return n.node().typ }
func (n Node) IsElement() bool {
	return n.Valid() && n.node().typ == ElementNode
}

func (n Node) Document() *Document { return n.doc }

// Tag returns the lower-cased tag name of an element and "" for other nodes.
func (n Node) Tag() string {
	if nd := n.node(); nd.typ == ElementNode {
		return nd.data
	}
	return ""
}

// Data returns the character data of text, comment and doctype nodes.
func (n Node) Data() string {
	if nd := n.node(); nd.typ != ElementNode {
		return nd.data
	}
	return ""
}

// Attr looks up an attribute by name, ignoring case.
func (n Node) Attr(name string) (Attribute, bool) {
	for _, a := range n.node().attrs {
		if strings.EqualFold(a.Name, name) {
			return a, true
		}
	}
	return Attribute{}, false
}

// AttrValue returns the value of the named attribute. ok is false when the
// attribute is missing or bare.
func (n Node) AttrValue(name string) (value string, ok bool) {
	a, found := n.Attr(name)
	if !found || a.Bare {
		return "", false
	}
	return a.Value, true
}

func (n Node) Attributes() []Attribute {
	return append([]Attribute(nil), n.node().attrs...)
}

func (n Node) Parent() (Node, bool) {
	if p := n.node().parent; p >= 0 {
		return Node{n.doc, p}, true
	}
	return Node{}, false
}

func (n Node) ChildCount() int { return len(n.node().children) }

func (n Node) Child(i int) Node {
	return Node{n.doc, n.node().children[i]}
}

func (n Node) Children() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		for _, c := range n.node().children {
			if !yield(Node{n.doc, c}) {
				return
			}
		}
	}
}

func (n Node) sibling(delta int) (Node, bool) {
	nd := n.node()
	if nd.parent < 0 {
		return Node{}, false
	}
	cs := n.doc.nodes[nd.parent].children
	if i := nd.index + delta; i >= 0 && i < len(cs) {
		return Node{n.doc, cs[i]}, true
	}
	return Node{}, false
}

func (n Node) PrevSibling() (Node, bool) { return n.sibling(-1) }
func (n Node) NextSibling() (Node, bool) { return n.sibling(1) }

func (n Node) PrevElementSibling() (Node, bool) {
	s, ok := n.PrevSibling()
	for ok && !s.IsElement() {
		s, ok = s.PrevSibling()
	}
	return s, ok
}

func (n Node) NextElementSibling() (Node, bool) {
	s, ok := n.NextSibling()
	for ok && !s.IsElement() {
		s, ok = s.NextSibling()
	}
	return s, ok
}

// Attached reports whether the node is reachable from its document node.
func (n Node) Attached() bool {
	if !n.Valid() {
		return false
	}
	for id := n.id; ; id = n.doc.nodes[id].parent {
		if id == 0 {
			return true
		} else if id < 0 {
			return false
		}
	}
}

// Contains reports whether m is a strict descendant of n.
func (n Node) Contains(m Node) bool {
	if n.doc != m.doc || !m.Valid() {
		return false
	}
	for id := m.node().parent; id >= 0; id = n.doc.nodes[id].parent {
		if id == n.id {
			return true
		}
	}
	return false
}

// Descendants yields all descendants of n in document order (pre-order,
// depth-first). Breaking out of the loop stops the walk.
func (n Node) Descendants() iter.Seq[Node] {
	return func(yield func(Node) bool) {
		stack := []int{}
		push := func(id int) {
			cs := n.doc.nodes[id].children
			for i := len(cs) - 1; i >= 0; i-- {
				stack = append(stack, cs[i])
			}
		}
		push(n.id)
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(Node{n.doc, id}) {
				return
			}
			push(id)
		}
	}
}

// Text returns the concatenated text of all descendant text nodes.
func (n Node) Text() string {
	if n.Type() == TextNode {
		return n.Data()
	}
	var out strings.Builder
	for d := range n.Descendants() {
		if d.Type() == TextNode {
			out.WriteString(d.Data())
		}
	}
	return out.String()
}
