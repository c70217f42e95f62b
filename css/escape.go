// https://drafts.csswg.org/cssom/#common-serializing-idioms
package css

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

func EscapeIdentifier(unescaped string) string {
	var out strings.Builder
	for i, r := range unescaped {
		switch {
		case r == '\u0000':
			out.WriteString(`\0 `)
		case r >= '\u0001' && r <= '\u001F', r == '\u007F',
			i == 0 && isDigit(r),
			i == 1 && isDigit(r) && unescaped[0] == '-':
			fmt.Fprintf(&out, `\%x `, r)
		case i == 0 && len(unescaped) == 1 && r == '-':
			out.WriteString(`\-`)
		case r == '-' || r == '_' || r >= '\u0080' || isDigit(r) ||
			'A' <= r && r <= 'Z' || 'a' <= r && r <= 'z':
			out.WriteRune(r)
		default:
			out.WriteByte('\\')
			out.WriteRune(r)
		}
	}
	return out.String()
}

// EscapeString escapes a value for use inside a single or double quoted
// string.
func EscapeString(unescaped string) string {
	var out strings.Builder
	for _, r := range unescaped {
		switch {
		case r == '\u0000', r >= '\u0001' && r <= '\u001F', r == '\u007F':
			fmt.Fprintf(&out, `\%x `, r)
		case r == '"', r == '\'', r == '\\':
			out.WriteByte('\\')
			out.WriteRune(r)
		default:
			out.WriteRune(r)
		}
	}
	return out.String()
}

func Unescape(escaped string) string {
	if !strings.ContainsRune(escaped, '\\') {
		return escaped
	}
	var out strings.Builder
	for i := 0; i < len(escaped); {
		r, w := utf8.DecodeRuneInString(escaped[i:])
		i += w
		switch {
		case r != '\\' || i == len(escaped):
			out.WriteRune(r)
		case !isHexDigit(rune(escaped[i])):
			r, w := utf8.DecodeRuneInString(escaped[i:])
			out.WriteRune(r)
			i += w
		default:
			j := i
			for ; j < i+6 && j < len(escaped) && isHexDigit(rune(escaped[j])); j++ {
			}
			v, err := strconv.ParseUint(escaped[i:j], 16, 32)
			if err != nil || v > unicode.MaxRune || v >= 0xD800 && v <= 0xDFFF {
				v = unicode.ReplacementChar
			}
			out.WriteRune(rune(v))
			if i = j; i < len(escaped) && isWhitespace(rune(escaped[i])) {
				i++
			}
		}
	}
	return out.String()
}
