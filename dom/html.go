package dom

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return FromHTML(root), nil
}

func MustParse(r io.Reader) *Document {
	d, err := Parse(r)
	if err != nil {
		panic(err)
	}
	return d
}

func ParseString(s string) (*Document, error) { return Parse(strings.NewReader(s)) }

// FromHTML copies a net/html tree into a new Document. Node ids are assigned
// in document order.
func FromHTML(root *html.Node) *Document {
	d := New()
	if root.Type == html.DocumentNode {
		for c := root.FirstChild; c != nil; c = c.NextSibling {
			d.fromHTML(0, c)
		}
	} else {
		d.fromHTML(0, root)
	}
	return d
}

func (d *Document) fromHTML(parent int, h *html.Node) {
	n := node{data: h.Data}
	switch h.Type {
	case html.ElementNode:
		n.typ, n.data = ElementNode, strings.ToLower(h.Data)
		for _, a := range h.Attr {
			if a.Namespace != "" {
				a.Key = a.Namespace + ":" + a.Key
			}
			n.attrs = append(n.attrs, Attribute{Name: strings.ToLower(a.Key), Value: a.Val})
		}
	case html.TextNode:
		n.typ = TextNode
	case html.CommentNode:
		n.typ = CommentNode
	case html.DoctypeNode:
		n.typ = DoctypeNode
		for _, a := range h.Attr {
			n.attrs = append(n.attrs, Attribute{Name: a.Key, Value: a.Val})
		}
	default:
		return
	}
	c := d.add(n)
	d.link(parent, c.id, len(d.nodes[parent].children))
	for hc := h.FirstChild; hc != nil; hc = hc.NextSibling {
		d.fromHTML(c.id, hc)
	}
}

// HTML converts the subtree rooted at n into a fresh net/html tree.
func (n Node) HTML() *html.Node {
	nd, h := n.node(), &html.Node{}
	switch nd.typ {
	case DocumentNode:
		h.Type = html.DocumentNode
	case ElementNode:
		h.Type, h.Data = html.ElementNode, nd.data
		for _, a := range nd.attrs {
			h.Attr = append(h.Attr, html.Attribute{Key: a.Name, Val: a.Value})
		}
	case TextNode:
		h.Type, h.Data = html.TextNode, nd.data
	case CommentNode:
		h.Type, h.Data = html.CommentNode, nd.data
	case DoctypeNode:
		h.Type, h.Data = html.DoctypeNode, nd.data
		for _, a := range nd.attrs {
			h.Attr = append(h.Attr, html.Attribute{Key: a.Name, Val: a.Value})
		}
	default:
		panic(fmt.Sprintf("dom: bad node type %d", nd.typ))
	}
	for c := range n.Children() {
		h.AppendChild(c.HTML())
	}
	return h
}

func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.Root().HTML())
}

func (n Node) OuterHTML() string {
	var out strings.Builder
	if err := html.Render(&out, n.HTML()); err != nil {
		panic(fmt.Sprintf("could not render html: %s", err))
	}
	return out.String()
}

func (n Node) InnerHTML() string {
	var out strings.Builder
	for c := range n.Children() {
		if err := html.Render(&out, c.HTML()); err != nil {
			panic(fmt.Sprintf("could not render html: %s", err))
		}
	}
	return out.String()
}
