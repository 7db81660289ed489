package markdown

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Inline emphasis rules:
//   - the leftmost valid opener wins and pairs with the nearest valid closer
//     of the same delimiter string;
//   - "**" and "__" are tried before "*" and "_";
//   - a single-character search steps over double runs as a unit;
//   - code spans bind tighter than everything else, so delimiters inside
//     backticks never open or close emphasis;
//   - "_" does not open or close inside a word, so snake_case stays literal.
//
// Raw HTML is passed through. Only code span contents are escaped.

// codeSpanEnd returns the index just past the backtick run closing the code
// span that opens at i.
func codeSpanEnd(s string, i int) (int, bool) {
	n := runLength(s, i, '`')
	fence := s[i : i+n]
	for j := i + n; j < len(s); {
		k := strings.Index(s[j:], fence)
		if k < 0 {
			return 0, false
		}
		k += j
		if runLength(s, k, '`') == n {
			return k + n, true
		}
		j = k + runLength(s, k, '`')
	}
	return 0, false
}

func runLength(s string, i int, c byte) int {
	n := 0
	for i+n < len(s) && s[i+n] == c {
		n++
	}
	return n
}

func renderInline(s string) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/4)
	writeInline(&b, s)
	return b.String()
}

func writeInline(b *strings.Builder, s string) {
	for i := 0; i < len(s); {
		c := s[i]
		switch c {
		case '\\':
			if i+1 < len(s) && isEscapable(s[i+1]) {
				b.WriteByte(s[i+1])
				i += 2
				continue
			}
		case '`':
			if end, ok := codeSpanEnd(s, i); ok {
				n := runLength(s, i, '`')
				code := s[i+n : end-n]
				if len(code) > 2 && code[0] == ' ' && code[len(code)-1] == ' ' {
					code = code[1 : len(code)-1]
				}
				b.WriteString("<code>")
				b.WriteString(html.EscapeString(code))
				b.WriteString("</code>")
				i = end
				continue
			}
			n := runLength(s, i, '`')
			b.WriteString(s[i : i+n])
			i += n
			continue
		case '!':
			if i+1 < len(s) && s[i+1] == '[' {
				if text, dest, end, ok := parseLink(s, i+1); ok {
					b.WriteString(`<img src="`)
					b.WriteString(html.EscapeString(dest))
					b.WriteString(`" alt="`)
					b.WriteString(html.EscapeString(text))
					b.WriteString(`" />`)
					i = end
					continue
				}
			}
		case '[':
			if text, dest, end, ok := parseLink(s, i); ok {
				b.WriteString(`<a href="`)
				b.WriteString(html.EscapeString(dest))
				b.WriteString(`">`)
				writeInline(b, text)
				b.WriteString("</a>")
				i = end
				continue
			}
		case '*', '_':
			if end, ok := writeEmphasis(b, s, i); ok {
				i = end
				continue
			}
			n := runLength(s, i, c)
			b.WriteString(s[i : i+n])
			i += n
			continue
		}
		b.WriteByte(c)
		i++
	}
}

// writeEmphasis renders the emphasis span opening at i, if there is one.
func writeEmphasis(b *strings.Builder, s string, i int) (int, bool) {
	c := s[i]
	run := runLength(s, i, c)
	for _, width := range []int{2, 1} {
		if run < width {
			continue
		}
		if !canOpen(s, i, width, c) {
			continue
		}
		closer, ok := findCloser(s, i+width, c, width)
		if !ok {
			continue
		}
		tag := "em"
		if width == 2 {
			tag = "strong"
		}
		b.WriteString("<" + tag + ">")
		writeInline(b, s[i+width:closer])
		b.WriteString("</" + tag + ">")
		return closer + width, true
	}
	return 0, false
}

func canOpen(s string, i, width int, c byte) bool {
	after := i + width
	if after >= len(s) {
		return false
	}
	next, _ := utf8.DecodeRuneInString(s[after:])
	if unicode.IsSpace(next) {
		return false
	}
	if c == '_' && i > 0 {
		prev, _ := utf8.DecodeLastRuneInString(s[:i])
		if isAlnum(prev) {
			return false
		}
	}
	return true
}

func canClose(s string, at, width int, c byte) bool {
	if at == 0 {
		return false
	}
	prev, _ := utf8.DecodeLastRuneInString(s[:at])
	if unicode.IsSpace(prev) {
		return false
	}
	if c == '_' && at+width < len(s) {
		next, _ := utf8.DecodeRuneInString(s[at+width:])
		if isAlnum(next) {
			return false
		}
	}
	return true
}

// findCloser locates the nearest closing delimiter of the given width.
// When a longer run closes, its trailing characters are used so that the
// leftover delimiters stay with the inner text.
func findCloser(s string, from int, c byte, width int) (int, bool) {
	for j := from; j < len(s); {
		switch s[j] {
		case '\\':
			j += 2
			continue
		case '`':
			if end, ok := codeSpanEnd(s, j); ok {
				j = end
				continue
			}
			j += runLength(s, j, '`')
			continue
		case c:
			run := runLength(s, j, c)
			switch {
			case width == 1 && run == 2:
			case run >= width:
				at := j + run - width
				if j > from && canClose(s, at, width, c) {
					return at, true
				}
			}
			j += run
			continue
		}
		j++
	}
	return 0, false
}

// parseLink parses "[text](dest)" starting at the opening bracket.
func parseLink(s string, open int) (text, dest string, end int, ok bool) {
	depth := 0
	closeBracket := -1
	for j := open; j < len(s) && closeBracket < 0; j++ {
		switch s[j] {
		case '\\':
			j++
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				closeBracket = j
			}
		}
	}
	if closeBracket < 0 || closeBracket+1 >= len(s) || s[closeBracket+1] != '(' {
		return "", "", 0, false
	}
	closeParen := strings.IndexByte(s[closeBracket+2:], ')')
	if closeParen < 0 {
		return "", "", 0, false
	}
	closeParen += closeBracket + 2
	dest = strings.TrimSpace(s[closeBracket+2 : closeParen])
	if dest == "" || strings.ContainsAny(dest, " \t") {
		return "", "", 0, false
	}
	return s[open+1 : closeBracket], dest, closeParen + 1, true
}

func isEscapable(c byte) bool {
	return strings.IndexByte("\\`*_{}[]()#+-.!<>|", c) >= 0
}
