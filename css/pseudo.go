package css

import (
	"fmt"

	"github.com/nw0220/Jumony/dom"
)

type PseudoKind uint8

const (
	Root PseudoKind = iota + 1
	Empty
	FirstChild
	LastChild
	OnlyChild
	FirstOfType
	LastOfType
	OnlyOfType
	NthChild
	NthLastChild
	NthOfType
	NthLastOfType
	Not
	Checked
	Disabled
	Enabled
	Required
	Optional
	ReadOnly
	ReadWrite
)

// PseudoClassSelector tests an element against its position among its
// siblings, its contents or its form state. Not holds a nested group.
type PseudoClassSelector struct {
	Kind PseudoKind
	Args string
	a, b int
	not  *SelectorGroup
}

var pseudoClasses = map[string]PseudoKind{}

var pseudoNames = map[PseudoKind]string{
	Root:          "root",
	Empty:         "empty",
	FirstChild:    "first-child",
	LastChild:     "last-child",
	OnlyChild:     "only-child",
	FirstOfType:   "first-of-type",
	LastOfType:    "last-of-type",
	OnlyOfType:    "only-of-type",
	NthChild:      "nth-child",
	NthLastChild:  "nth-last-child",
	NthOfType:     "nth-of-type",
	NthLastOfType: "nth-last-of-type",
	Not:           "not",
	Checked:       "checked",
	Disabled:      "disabled",
	Enabled:       "enabled",
	Required:      "required",
	Optional:      "optional",
	ReadOnly:      "read-only",
	ReadWrite:     "read-write",
}

func init() {
	for k, name := range pseudoNames {
		pseudoClasses[name] = k
	}
}

func (k PseudoKind) String() string { return pseudoNames[k] }

func (k PseudoKind) function() bool {
	switch k {
	case NthChild, NthLastChild, NthOfType, NthLastOfType, Not:
		return true
	}
	return false
}

func (s *PseudoClassSelector) Match(n dom.Node) bool {
	switch s.Kind {
	case Root:
		p, ok := n.Parent()
		return ok && p.Type() == dom.DocumentNode
	case Empty:
		return isEmpty(n)
	case FirstChild:
		return nth(n, prev, false) == 1
	case LastChild:
		return nth(n, next, false) == 1
	case OnlyChild:
		return nth(n, prev, false) == 1 && nth(n, next, false) == 1
	case FirstOfType:
		return nth(n, prev, true) == 1
	case LastOfType:
		return nth(n, next, true) == 1
	case OnlyOfType:
		return nth(n, prev, true) == 1 && nth(n, next, true) == 1
	case NthChild:
		return isNth(s.a, s.b, nth(n, prev, false))
	case NthLastChild:
		return isNth(s.a, s.b, nth(n, next, false))
	case NthOfType:
		return isNth(s.a, s.b, nth(n, prev, true))
	case NthLastOfType:
		return isNth(s.a, s.b, nth(n, next, true))
	case Not:
		return !s.not.Match(n)
	case Checked:
		return isInput(n) && hasAttribute(n, "checked") || n.Tag() == "option" && hasAttribute(n, "selected")
	case Disabled:
		return isInput(n) && hasAttribute(n, "disabled")
	case Enabled:
		return isInput(n) && !hasAttribute(n, "disabled")
	case Required:
		return isInput(n) && hasAttribute(n, "required")
	case Optional:
		return isInput(n) && !hasAttribute(n, "required")
	case ReadOnly:
		return isInput(n) && hasAttribute(n, "readonly")
	case ReadWrite:
		return isInput(n) && !hasAttribute(n, "readonly")
	default:
		panic(fmt.Sprintf("css: bad pseudo-class %d", s.Kind))
	}
}

func (s *PseudoClassSelector) String() string {
	switch {
	case s.Kind == Not:
		return fmt.Sprintf(":not(%s)", s.not)
	case s.Kind.function():
		return fmt.Sprintf(":%s(%s)", s.Kind, s.Args)
	default:
		return ":" + s.Kind.String()
	}
}

func prev(n dom.Node) (dom.Node, bool) { return n.PrevElementSibling() }
func next(n dom.Node) (dom.Node, bool) { return n.NextElementSibling() }

// nth returns the 1-based position of n among its element siblings, counting
// in the direction of step.
func nth(n dom.Node, step func(dom.Node) (dom.Node, bool), ofType bool) int {
	i := 1
	for s, ok := step(n); ok; s, ok = step(s) {
		if !ofType || s.Tag() == n.Tag() {
			i++
		}
	}
	return i
}

// isNth checks whether y is a valid result for the given a and b.
// The formula is y = (a*n+b) with n being any non-negative integer.
// If a is 0 a*n is 0 and y must be b - otherwise a must fit into y-b n times
// without any remainder.
func isNth(a, b, y int) bool {
	an := y - b
	return (a == 0 && b == y) || (a != 0 && an/a >= 0 && an%a == 0)
}

func isEmpty(n dom.Node) bool {
	for c := range n.Children() {
		if c.IsElement() || c.Type() == dom.TextNode {
			return false
		}
	}
	return true
}

func isInput(n dom.Node) bool {
	switch n.Tag() {
	case "input", "textarea", "select", "button":
		return true
	}
	return false
}

func hasAttribute(n dom.Node, name string) bool {
	_, ok := n.Attr(name)
	return ok
}
