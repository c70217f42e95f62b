package css

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

type parser struct {
	tokens []token
	index  int
}

var (
	nthRegexp    = regexp.MustCompile(`^([+-]?\d*)n(?:\s*([+-])\s*(\d+))?$`)
	nthIntRegexp = regexp.MustCompile(`^[+-]?\d+$`)
)

func (p *parser) next() token {
	if p.index == len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	t := p.tokens[p.index]
	p.index++
	return t
}

func (p *parser) peek() token {
	if p.index == len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.index]
}

func (p *parser) skipSpace() bool {
	space := false
	for p.peek().category == tokenSpace {
		p.next()
		space = true
	}
	return space
}

func compile(text string, offset int) (*SelectorGroup, error) {
	tokens, err := lex(text, offset)
	if err != nil {
		return nil, err
	}
	return parse(tokens)
}

func parse(tokens []token) (*SelectorGroup, error) {
	p, g := &parser{tokens: tokens}, &SelectorGroup{}
	for {
		p.skipSpace()
		s, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		g.Selectors = append(g.Selectors, s)
		switch t := p.next(); t.category {
		case tokenEOF:
			return g, nil
		case tokenComma:
		case tokenBracketClose:
			return nil, parseErrorf(t.index, "unbalanced brackets")
		default:
			return nil, parseErrorf(t.index, "unexpected %q", t.string)
		}
	}
}

func (p *parser) parseSelector() (*Selector, error) {
	start := p.peek()
	c, err := p.parseCompound()
	if err != nil {
		return nil, err
	} else if c == nil {
		switch start.category {
		case tokenCombinator:
			return nil, parseErrorf(start.index, "dangling combinator %q", start.string)
		case tokenEOF, tokenComma:
			return nil, parseErrorf(start.index, "empty selector")
		case tokenBracketClose:
			return nil, parseErrorf(start.index, "unbalanced brackets")
		default:
			return nil, parseErrorf(start.index, "unexpected %q", start.string)
		}
	}
	s := &Selector{Compounds: []*CompoundSelector{c}}
	for {
		combinator, t, ok := p.parseCombinator()
		if !ok {
			return s, nil
		}
		c, err := p.parseCompound()
		if err != nil {
			return nil, err
		} else if c == nil {
			if next := p.peek(); next.category == tokenCombinator {
				return nil, parseErrorf(next.index, "unexpected combinator %q", next.string)
			}
			return nil, parseErrorf(t.index, "dangling combinator %q", combinator)
		}
		c.Combinator = combinator
		s.Compounds = append(s.Compounds, c)
	}
}

// parseCombinator consumes whitespace and an optional combinator symbol.
// ok is false when no further compound selector follows.
func (p *parser) parseCombinator() (Combinator, token, bool) {
	t := p.peek()
	space := p.skipSpace()
	switch next := p.peek(); {
	case next.category == tokenCombinator:
		p.next()
		p.skipSpace()
		switch next.string {
		case ">":
			return Child, next, true
		case "+":
			return AdjacentSibling, next, true
		case "~":
			return GeneralSibling, next, true
		}
		panic("css: bad combinator token " + next.string)
	case next.category == tokenEOF, next.category == tokenComma:
		return 0, t, false
	case space:
		return Descendant, t, true
	default:
		return 0, t, false
	}
}

// parseCompound returns nil if no simple selector could be read.
func (p *parser) parseCompound() (*CompoundSelector, error) {
	c := &CompoundSelector{}
	switch t := p.peek(); t.category {
	case tokenIdent:
		c.Selectors = append(c.Selectors, &TypeSelector{strings.ToLower(p.next().string)})
	case tokenUniversal:
		p.next()
		c.Selectors = append(c.Selectors, &UniversalSelector{})
	}
	for {
		switch t := p.peek(); t.category {
		case tokenClass:
			c.Selectors = append(c.Selectors, &ClassSelector{p.next().string})
		case tokenID:
			c.Selectors = append(c.Selectors, &IDSelector{p.next().string})
		case tokenBracketOpen:
			s, err := p.parseAttributeSelector()
			if err != nil {
				return nil, err
			}
			c.Selectors = append(c.Selectors, s)
		case tokenPseudoClass, tokenPseudoFunction:
			s, err := p.parsePseudoClassSelector()
			if err != nil {
				return nil, err
			}
			c.Selectors = append(c.Selectors, s)
		case tokenIdent, tokenUniversal:
			return nil, parseErrorf(t.index, "type selector %q must start the compound selector", t.string)
		default:
			if len(c.Selectors) == 0 {
				return nil, nil
			}
			return c, nil
		}
	}
}

func (p *parser) parseAttributeSelector() (SimpleSelector, error) {
	open := p.next()
	name := p.next()
	if name.category != tokenIdent {
		return nil, parseErrorf(name.index, "invalid attribute selector: expected name")
	}
	s := &AttributeSelector{Name: strings.ToLower(name.string)}
	switch t := p.next(); t.category {
	case tokenBracketClose:
		return s, nil
	case tokenComparator:
		comparator, err := parseComparator(t)
		if err != nil {
			return nil, err
		}
		value := p.next()
		if value.category != tokenString && value.category != tokenValue {
			return nil, parseErrorf(value.index, "missing attribute value")
		} else if t := p.next(); t.category != tokenBracketClose {
			return nil, parseErrorf(open.index, "unbalanced brackets")
		}
		s.Comparator, s.Operand = comparator, value.string
		return s, nil
	default:
		return nil, parseErrorf(open.index, "unbalanced brackets")
	}
}

func parseComparator(t token) (Comparator, error) {
	switch t.string {
	case "=":
		return Equals, nil
	case "!=":
		return NotEquals, nil
	case "^=":
		return Prefix, nil
	case "$=":
		return Suffix, nil
	case "*=":
		return Contains, nil
	case "~=":
		return Includes, nil
	case "|=":
		return 0, unsupported(t.index, "attribute comparator |=")
	case "|":
		return 0, unsupported(t.index, "namespace prefix")
	default:
		return 0, parseErrorf(t.index, "unknown comparator %q", t.string)
	}
}

func (p *parser) parsePseudoClassSelector() (SimpleSelector, error) {
	t := p.next()
	name := strings.ToLower(t.string)
	kind, ok := pseudoClasses[name]
	if !ok {
		return nil, unsupported(t.index-1, ":"+name)
	}
	if t.category == tokenPseudoClass {
		if kind.function() {
			return nil, parseErrorf(t.index, "missing arguments for :%s", name)
		}
		return &PseudoClassSelector{Kind: kind}, nil
	}
	args := p.next()
	if !kind.function() {
		return nil, parseErrorf(args.index, ":%s does not take arguments", name)
	}
	s := &PseudoClassSelector{Kind: kind, Args: strings.TrimSpace(args.string)}
	if kind == Not {
		g, err := compile(args.string, args.index)
		if err != nil {
			return nil, err
		}
		s.not, s.Args = g, g.String()
		return s, nil
	}
	a, b, err := parseNth(s.Args)
	if err != nil {
		return nil, parseErrorf(args.index, "%s", err)
	}
	s.a, s.b = a, b
	return s, nil
}

// parseNth parses the an+b notation of the :nth-* pseudo-classes.
func parseNth(args string) (a, b int, err error) {
	args = strings.ToLower(args)
	switch {
	case args == "odd":
		return 2, 1, nil
	case args == "even":
		return 2, 0, nil
	case nthIntRegexp.MatchString(args):
		b, err = strconv.Atoi(args)
		return 0, b, err
	}
	m := nthRegexp.FindStringSubmatch(args)
	if m == nil {
		return 0, 0, errors.New("bad nth arguments: " + strconv.Quote(args))
	}
	switch m[1] {
	case "", "+":
		a = 1
	case "-":
		a = -1
	default:
		if a, err = strconv.Atoi(m[1]); err != nil {
			return 0, 0, err
		}
	}
	if m[3] != "" {
		if b, err = strconv.Atoi(m[3]); err != nil {
			return 0, 0, err
		} else if m[2] == "-" {
			b = -b
		}
	}
	return a, b, nil
}
