package css

import (
	"fmt"
	"strings"

	"github.com/nw0220/Jumony/dom"
	"golang.org/x/exp/slices"
)

// SimpleSelector is a single test against one element.
type SimpleSelector interface {
	Match(dom.Node) bool
	String() string
}

// SelectorGroup is a comma separated list of selectors. An element matches
// the group if it matches any of its members. Compiled groups are immutable
// and can be shared between goroutines.
type SelectorGroup struct {
	Selectors []*Selector
}

// Selector is a chain of compound selectors. The last compound applies to the
// candidate element; each compound's Combinator relates it to the compound
// on its left.
type Selector struct {
	Compounds []*CompoundSelector
}

type CompoundSelector struct {
	Combinator Combinator
	Selectors  []SimpleSelector
}

type Combinator uint8

const (
	None Combinator = iota
	Descendant
	Child
	AdjacentSibling
	GeneralSibling
)

type Comparator uint8

const (
	Exists Comparator = iota
	Equals
	NotEquals
	Prefix
	Suffix
	Contains
	Includes
)

type TypeSelector struct{ Name string }

type UniversalSelector struct{}

type IDSelector struct{ ID string }

type ClassSelector struct{ Class string }

// AttributeSelector tests an attribute. With the Exists comparator only the
// presence of the attribute counts; other comparators compare Operand with
// the attribute value.
type AttributeSelector struct {
	Name       string
	Comparator Comparator
	Operand    string
}

func (g *SelectorGroup) Match(n dom.Node) bool { return g.match(n, dom.Node{}) }

func (g *SelectorGroup) match(n, top dom.Node) bool {
	for _, s := range g.Selectors {
		if s.match(n, top) {
			return true
		}
	}
	return false
}

func (s *Selector) Match(n dom.Node) bool { return s.match(n, dom.Node{}) }

// match tests n against the chain. Relations never leave the subtree below
// top; the zero Node means no boundary.
func (s *Selector) match(n, top dom.Node) bool {
	return s.matchFrom(len(s.Compounds)-1, n, top)
}

func (s *Selector) matchFrom(i int, n, top dom.Node) bool {
	c := s.Compounds[i]
	if !c.Match(n) {
		return false
	} else if i == 0 {
		return true
	}
	switch c.Combinator {
	case Descendant:
		for p, ok := parent(n, top); ok; p, ok = parent(p, top) {
			if s.matchFrom(i-1, p, top) {
				return true
			}
		}
		return false
	case Child:
		p, ok := parent(n, top)
		return ok && s.matchFrom(i-1, p, top)
	case AdjacentSibling:
		p, ok := n.PrevElementSibling()
		return ok && s.matchFrom(i-1, p, top)
	case GeneralSibling:
		for p, ok := n.PrevElementSibling(); ok; p, ok = p.PrevElementSibling() {
			if s.matchFrom(i-1, p, top) {
				return true
			}
		}
		return false
	default:
		panic(fmt.Sprintf("css: bad combinator %d", c.Combinator))
	}
}

func parent(n, top dom.Node) (dom.Node, bool) {
	p, ok := n.Parent()
	if !ok || p == top || !p.IsElement() {
		return dom.Node{}, false
	}
	return p, true
}

func (c *CompoundSelector) Match(n dom.Node) bool {
	if !n.IsElement() {
		return false
	}
	for _, s := range c.Selectors {
		if !s.Match(n) {
			return false
		}
	}
	return true
}

func (s *UniversalSelector) Match(n dom.Node) bool { return true }
func (s *TypeSelector) Match(n dom.Node) bool      { return strings.EqualFold(n.Tag(), s.Name) }

func (s *IDSelector) Match(n dom.Node) bool {
	v, ok := n.AttrValue("id")
	return Equals.Compare(s.ID, v, ok)
}

func (s *ClassSelector) Match(n dom.Node) bool {
	v, ok := n.AttrValue("class")
	return Includes.Compare(s.Class, v, ok)
}

func (s *AttributeSelector) Match(n dom.Node) bool {
	if s.Comparator == Exists {
		_, ok := n.Attr(s.Name)
		return ok
	}
	v, ok := n.AttrValue(s.Name)
	return s.Comparator.Compare(s.Operand, v, ok)
}

// Compare applies the comparator to an operand and an attribute value. ok is
// false when the attribute has no value, i.e. the value is null.
func (c Comparator) Compare(operand, value string, ok bool) bool {
	switch c {
	case Equals:
		return ok && value == operand
	case NotEquals:
		return !ok || value != operand
	case Prefix:
		return ok && strings.HasPrefix(value, operand)
	case Suffix:
		return ok && strings.HasSuffix(value, operand)
	case Contains:
		return ok && strings.Contains(value, operand)
	case Includes:
		return ok && slices.Contains(strings.Fields(value), operand)
	case Exists:
		panic("css: Exists does not compare values")
	default:
		panic(fmt.Sprintf("css: bad comparator %d", c))
	}
}

func (c Comparator) String() string {
	switch c {
	case Exists:
		return ""
	case Equals:
		return "="
	case NotEquals:
		return "!="
	case Prefix:
		return "^="
	case Suffix:
		return "$="
	case Contains:
		return "*="
	case Includes:
		return "~="
	default:
		panic(fmt.Sprintf("css: bad comparator %d", c))
	}
}

func (c Combinator) String() string {
	switch c {
	case None:
		return ""
	case Descendant:
		return " "
	case Child:
		return " > "
	case AdjacentSibling:
		return " + "
	case GeneralSibling:
		return " ~ "
	default:
		panic(fmt.Sprintf("css: bad combinator %d", c))
	}
}

func (g *SelectorGroup) String() string {
	ss := make([]string, len(g.Selectors))
	for i, s := range g.Selectors {
		ss[i] = s.String()
	}
	return strings.Join(ss, ", ")
}

func (s *Selector) String() string {
	var out strings.Builder
	for i, c := range s.Compounds {
		if i > 0 {
			out.WriteString(c.Combinator.String())
		}
		out.WriteString(c.String())
	}
	return out.String()
}

func (c *CompoundSelector) String() string {
	if len(c.Selectors) == 0 {
		return "*"
	}
	var out strings.Builder
	for _, s := range c.Selectors {
		out.WriteString(s.String())
	}
	return out.String()
}

func (s *UniversalSelector) String() string { return "*" }
func (s *TypeSelector) String() string      { return EscapeIdentifier(s.Name) }
func (s *IDSelector) String() string        { return "#" + EscapeIdentifier(s.ID) }
func (s *ClassSelector) String() string     { return "." + EscapeIdentifier(s.Class) }

func (s *AttributeSelector) String() string {
	if s.Comparator == Exists {
		return fmt.Sprintf("[%s]", EscapeIdentifier(s.Name))
	}
	return fmt.Sprintf("[%s%s'%s']", EscapeIdentifier(s.Name), s.Comparator, EscapeString(s.Operand))
}
