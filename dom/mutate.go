package dom

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

var ErrHierarchy = errors.New("dom: hierarchy request error")

func (d *Document) CreateElement(tag string, attrs ...Attribute) Node {
	n := node{typ: ElementNode, data: strings.ToLower(tag)}
	for _, a := range attrs {
		a.Name = strings.ToLower(a.Name)
		n.attrs = append(n.attrs, a)
	}
	return d.add(n)
}

func (d *Document) CreateText(text string) Node { return d.add(node{typ: TextNode, data: text}) }

func (d *Document) CreateComment(text string) Node {
	return d.add(node{typ: CommentNode, data: text})
}

func (n Node) AppendChild(c Node) error { return n.InsertChild(n.ChildCount(), c) }

// InsertChild inserts the detached node c as the i-th child of n.
func (n Node) InsertChild(i int, c Node) error {
	switch {
	case !n.Valid() || !c.Valid() || n.doc != c.doc:
		return fmt.Errorf("%w: nodes of different documents", ErrHierarchy)
	case n.Type() != ElementNode && n.Type() != DocumentNode:
		return fmt.Errorf("%w: %d nodes cannot have children", ErrHierarchy, n.Type())
	case c.node().parent >= 0 || c.id == 0:
		return fmt.Errorf("%w: node is already attached", ErrHierarchy)
	case c.id == n.id || c.Contains(n):
		return fmt.Errorf("%w: node would contain itself", ErrHierarchy)
	case i < 0 || i > n.ChildCount():
		return fmt.Errorf("%w: index %d out of range", ErrHierarchy, i)
	}
	n.doc.link(n.id, c.id, i)
	return nil
}

// Remove detaches n from its parent. The node and its subtree stay valid but
// are no longer reachable from the document node.
func (n Node) Remove() {
	nd := n.node()
	if nd.parent < 0 {
		return
	}
	p := &n.doc.nodes[nd.parent]
	p.children = slices.Delete(p.children, nd.index, nd.index+1)
	n.doc.reindex(nd.parent, nd.index)
	nd.parent, nd.index = -1, 0
}

func (n Node) SetAttr(name, value string) {
	nd, name := n.node(), strings.ToLower(name)
	if i := slices.IndexFunc(nd.attrs, func(a Attribute) bool { return a.Name == name }); i >= 0 {
		nd.attrs[i] = Attribute{Name: name, Value: value}
		return
	}
	nd.attrs = append(nd.attrs, Attribute{Name: name, Value: value})
}

func (n Node) RemoveAttr(name string) {
	nd, name := n.node(), strings.ToLower(name)
	nd.attrs = slices.DeleteFunc(nd.attrs, func(a Attribute) bool { return a.Name == name })
}

func (d *Document) link(parent, child, i int) {
	p := &d.nodes[parent]
	p.children = slices.Insert(p.children, i, child)
	d.nodes[child].parent = parent
	d.reindex(parent, i)
}

func (d *Document) reindex(parent, from int) {
	for i, c := range d.nodes[parent].children[from:] {
		d.nodes[c].index = from + i
	}
}
