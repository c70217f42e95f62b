/*
https://www.w3.org/TR/2018/CR-selectors-3-20180130/#w3cselgrammar
*/
package css

import (
	"strings"
	"unicode/utf8"
)

type token struct {
	category tokenCategory
	string   string
	index    int
}

type tokenCategory int

const (
	tokenEOF tokenCategory = iota
	tokenSpace
	tokenUniversal
	tokenIdent
	tokenClass
	tokenID
	tokenPseudoClass
	tokenPseudoFunction
	tokenFunctionArguments
	tokenComparator
	tokenString
	tokenValue
	tokenCombinator
	tokenComma
	tokenBracketOpen
	tokenBracketClose
)

const eof = -1

type stateFn func(*lexer) stateFn

type lexer struct {
	input  string
	offset int
	index  int
	start  int
	width  int
	tokens []token
	error  error
}

// lex splits input into tokens. offset is added to all reported positions so
// nested selectors (:not) report positions relative to the outer text.
func lex(input string, offset int) ([]token, error) {
	l := &lexer{input: input, offset: offset}
	for state := lexSpace; state != nil; state = state(l) {
	}
	return l.tokens, l.error
}

func (l *lexer) next() rune {
	if l.index >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.index:])
	l.width = w
	l.index += l.width
	return r
}

func (l *lexer) peek() rune {
	if l.index >= len(l.input) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.index:])
	return r
}

func (l *lexer) backup() {
	l.index -= l.width
}

func (l *lexer) emit(c tokenCategory) {
	switch c {
	case tokenClass, tokenIdent, tokenID, tokenPseudoClass, tokenPseudoFunction, tokenValue:
		l.emitString(c, Unescape(l.input[l.start:l.index]))
	default:
		l.emitString(c, l.input[l.start:l.index])
	}
}

func (l *lexer) emitString(c tokenCategory, s string) {
	l.tokens = append(l.tokens, token{c, s, l.offset + l.start})
	l.start = l.index
}

func (l *lexer) ignore() {
	l.start = l.index
}

func (l *lexer) acceptRun(f func(rune) bool) {
	for f(l.next()) {
	}
	l.backup()
}

func (l *lexer) skipSpace() {
	l.acceptRun(isWhitespace)
	l.ignore()
}

func (l *lexer) errorf(index int, format string, args ...any) stateFn {
	l.error = parseErrorf(l.offset+index, format, args...)
	return nil
}

func (l *lexer) unsupported(index int, construct string) stateFn {
	l.error = unsupported(l.offset+index, construct)
	return nil
}

func lexSpace(l *lexer) stateFn {
	if isWhitespace(l.peek()) {
		l.acceptRun(isWhitespace)
		l.emit(tokenSpace)
	}
	switch r := l.next(); {
	case r == eof:
		l.emit(tokenEOF)
		return nil
	case isCombinatorChar(r):
		l.emit(tokenCombinator)
		return lexSpace
	case r == ',':
		l.emit(tokenComma)
		return lexSpace
	case r == '[':
		l.emit(tokenBracketOpen)
		return lexAttribute
	case r == ']':
		l.emit(tokenBracketClose)
		return lexSpace
	case r == '*':
		l.emit(tokenUniversal)
		return lexSpace
	case r == '|':
		return l.unsupported(l.start, "namespace prefix")
	case r == '.':
		l.ignore()
		return lexClass
	case r == '#':
		l.ignore()
		return lexID
	case r == ':':
		return lexPseudo
	default:
		l.backup()
		return lexIdent
	}
}

// isNameStart checks whether rune r is a valid character as the start of a name
// [_a-z]|{nonascii}|{escape}
func isNameStart(r rune) bool {
	return 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || r == '_' || r == '\\' || r > 127
}

// isNameChar checks whether rune r is a valid character as a part of a name
// [_a-z0-9-]|{nonascii}|{escape}
func isNameChar(r rune) bool {
	return isNameStart(r) || isDigit(r) || r == '-'
}

func isHexDigit(r rune) bool {
	return 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F' || '0' <= r && r <= '9'
}

func isWhitespace(r rune) bool     { return r != eof && strings.ContainsRune(" \t\f\r\n", r) }
func isDigit(r rune) bool          { return '0' <= r && r <= '9' }
func isCombinatorChar(r rune) bool { return r == '>' || r == '+' || r == '~' }
func isQuote(r rune) bool          { return r == '\'' || r == '"' }

func isComparatorChar(r rune) bool {
	return r != eof && !isWhitespace(r) && !isNameChar(r) && !isQuote(r) && r != ']' && r != '['
}

func isValueChar(r rune) bool {
	return r != eof && !isWhitespace(r) && !isQuote(r) && r != ']' && r != '['
}

func acceptNameChars(l *lexer) {
	for {
		switch r := l.next(); {
		case r == '\\':
			if l.peek() == eof {
				return
			} else if !isHexDigit(l.peek()) {
				l.next()
				continue
			}
			for i := 0; i < 6 && isHexDigit(l.peek()); i++ {
				l.next()
			}
			if isWhitespace(l.peek()) {
				l.next()
			}
		case isNameChar(r):
		default:
			l.backup()
			return
		}
	}
}

func acceptIdentifier(l *lexer) bool {
	if l.peek() == '-' {
		l.next()
	}
	if !isNameStart(l.peek()) && l.peek() != '-' {
		return false
	}
	acceptNameChars(l)
	return true
}

// acceptString consumes a quoted string and returns its unescaped contents.
func acceptString(l *lexer) (string, bool) {
	quote, start := l.next(), l.index
	for r := l.next(); r != quote; r = l.next() {
		switch {
		case r == eof, r == '\n', r == '\r', r == '\f':
			return "", false
		case r == '\\':
			if l.next() == eof {
				return "", false
			}
		}
	}
	return Unescape(l.input[start : l.index-1]), true
}

func lexClass(l *lexer) stateFn {
	if !acceptIdentifier(l) {
		return l.errorf(l.start-1, "invalid class name")
	}
	l.emit(tokenClass)
	return lexSpace
}

func lexID(l *lexer) stateFn {
	if !isNameChar(l.peek()) {
		return l.errorf(l.start-1, "invalid id")
	}
	acceptNameChars(l)
	l.emit(tokenID)
	return lexSpace
}

func lexPseudo(l *lexer) stateFn {
	if l.peek() == ':' {
		return l.unsupported(l.start, "pseudo-element")
	}
	l.ignore()
	if !acceptIdentifier(l) {
		return l.errorf(l.start-1, "invalid pseudo-class name")
	}
	if l.peek() != '(' {
		l.emit(tokenPseudoClass)
		return lexSpace
	}
	l.emit(tokenPseudoFunction)
	return lexFunctionArguments
}

func lexIdent(l *lexer) stateFn {
	if !acceptIdentifier(l) || l.start == l.index {
		return l.errorf(l.start, "unexpected character %q", l.peek())
	}
	l.emit(tokenIdent)
	return lexSpace
}

func lexFunctionArguments(l *lexer) stateFn {
	open := l.index
	l.next()
	l.ignore()
	for lvl := 1; ; {
		switch r := l.next(); r {
		case eof:
			return l.errorf(open, "unbalanced parentheses")
		case '(':
			lvl++
		case ')':
			if lvl--; lvl == 0 {
				l.backup()
				l.emitString(tokenFunctionArguments, l.input[l.start:l.index])
				l.next()
				l.ignore()
				return lexSpace
			}
		case '"', '\'':
			l.backup()
			if _, ok := acceptString(l); !ok {
				return l.errorf(l.index, "unterminated string")
			}
		case '\\':
			l.next()
		}
	}
}

// lexAttribute lexes the contents of [...]: name, then optionally a
// comparator and a quoted or bare value.
func lexAttribute(l *lexer) stateFn {
	open := l.start - 1
	l.skipSpace()
	if !acceptIdentifier(l) || l.start == l.index {
		if l.peek() == eof {
			return l.errorf(open, "unbalanced brackets")
		}
		return l.errorf(l.start, "invalid attribute name")
	}
	l.emit(tokenIdent)
	l.skipSpace()
	if l.peek() != ']' && l.peek() != eof {
		l.acceptRun(isComparatorChar)
		if l.start == l.index {
			return l.errorf(l.start, "unexpected character %q in attribute selector", l.peek())
		}
		l.emit(tokenComparator)
		l.skipSpace()
		switch r := l.peek(); {
		case isQuote(r):
			start := l.index
			s, ok := acceptString(l)
			if !ok {
				return l.errorf(start, "unterminated string")
			}
			l.emitString(tokenString, s)
		case isValueChar(r):
			for r := l.next(); isValueChar(r); r = l.next() {
				if r == '\\' {
					l.next()
				}
			}
			l.backup()
			l.emit(tokenValue)
		case r == eof:
			return l.errorf(open, "unbalanced brackets")
		default:
			return l.errorf(l.index, "missing attribute value")
		}
		l.skipSpace()
	}
	switch l.next() {
	case ']':
		l.emit(tokenBracketClose)
		return lexSpace
	case eof:
		return l.errorf(open, "unbalanced brackets")
	default:
		l.backup()
		return l.errorf(l.index, "expected ] but got %q", l.peek())
	}
}
