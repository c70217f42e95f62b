// Package css compiles CSS selectors and finds the matching elements of a dom.Document.
package css

import (
	"iter"

	"github.com/nw0220/Jumony/dom"
)

// Compile parses selector text into a SelectorGroup. Malformed text yields a
// *ParseError, valid but unsupported constructs an *UnsupportedSelectorError.
func Compile(selector string) (*SelectorGroup, error) {
	return compile(selector, 0)
}

func MustCompile(selector string) *SelectorGroup {
	g, err := Compile(selector)
	if err != nil {
		panic(err)
	}
	return g
}

// Find returns the elements below scope matching g in document order. scope
// is either a document node or an element; neither the scope nor its
// ancestors take part in matching. The returned sequence walks the tree anew
// on every iteration and may be abandoned at any time.
func Find(scope dom.Node, g *SelectorGroup) (iter.Seq[dom.Node], error) {
	if err := checkScope(scope); err != nil {
		return nil, err
	}
	return func(yield func(dom.Node) bool) {
		for n := range scope.Descendants() {
			if n.IsElement() && g.match(n, scope) && !yield(n) {
				return
			}
		}
	}, nil
}

func All(scope dom.Node, g *SelectorGroup) ([]dom.Node, error) {
	seq, err := Find(scope, g)
	if err != nil {
		return nil, err
	}
	ns := []dom.Node{}
	for n := range seq {
		ns = append(ns, n)
	}
	return ns, nil
}

func First(scope dom.Node, g *SelectorGroup) (dom.Node, bool, error) {
	seq, err := Find(scope, g)
	if err != nil {
		return dom.Node{}, false, err
	}
	for n := range seq {
		return n, true, nil
	}
	return dom.Node{}, false, nil
}

// Merge joins groups into one; an element matches the result if it matches
// any of the groups.
func Merge(gs ...*SelectorGroup) *SelectorGroup {
	m := &SelectorGroup{}
	for _, g := range gs {
		m.Selectors = append(m.Selectors, g.Selectors...)
	}
	return m
}

func checkScope(scope dom.Node) error {
	switch {
	case !scope.Valid():
		return &InvalidScopeError{"node does not belong to a document"}
	case scope.Type() != dom.DocumentNode && scope.Type() != dom.ElementNode:
		return &InvalidScopeError{"scope must be a document or an element"}
	case !scope.Attached():
		return &InvalidScopeError{"node is detached from its document"}
	}
	return nil
}
