package markdown

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ShouldPreserveSpace reports whether a whitespace run between last and next
// must survive collapsing as a single space. Each clause is an explicit
// boundary rule; there is no fallback heuristic.
func ShouldPreserveSpace(last, next rune) bool {
	switch {
	case last == 0 || next == 0:
		return false
	// digit or percentage then a word: "100 px", "50% off"
	case (isDigit(last) || last == '%') && unicode.IsLetter(next):
		return true
	// a percentage then a number: "100% 2"
	case last == '%' && isDigit(next):
		return true
	// a word then a number or hash: "page 2", "issue #4"
	case unicode.IsLetter(last) && (isDigit(next) || next == '#'):
		return true
	// a closing paren then a value: "(a) 5", "(see) here"
	case last == ')' && (isDigit(next) || unicode.IsLetter(next)):
		return true
	// a number or comma then a hash: "0 #fff", ", #2"
	case (isDigit(last) || last == ',') && next == '#':
		return true
	// anything word-like then a dot: "a .b", ") ."
	case (isAlnum(last) || last == ']' || last == ')') && next == '.':
		return true
	// before a minus that may start a negative number: "5 -3", "from -1"
	case (isDigit(last) || last == '%' || unicode.IsLetter(last)) && next == '-':
		return true
	case isAlnum(last) && isAlnum(next):
		return true
	}
	return false
}

// tightBoundary reports whether whitespace between last and next is
// redundant: just inside an opening bracket or before closing punctuation.
func tightBoundary(last, next rune) bool {
	return strings.ContainsRune("([", last) || strings.ContainsRune(")],;:!?.", next)
}

// CollapseWhitespace squeezes every run of spaces and tabs in s to a single
// space, or removes it when the boundary is tight and no preserve rule
// applies. Leading and trailing runs are removed. Text inside backtick code
// spans is left untouched.
func CollapseWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var last rune
	pending := false
	for i := 0; i < len(s); {
		if s[i] == '`' {
			if end, ok := codeSpanEnd(s, i); ok {
				if pending && b.Len() > 0 {
					b.WriteByte(' ')
				}
				pending = false
				b.WriteString(s[i:end])
				last = '`'
				i = end
				continue
			}
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		if r == ' ' || r == '\t' {
			pending = true
			i += size
			continue
		}
		if pending && b.Len() > 0 && (ShouldPreserveSpace(last, r) || !tightBoundary(last, r)) {
			b.WriteByte(' ')
		}
		pending = false
		b.WriteRune(r)
		last = r
		i += size
	}
	return b.String()
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isAlnum(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }
