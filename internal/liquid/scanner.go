// Package liquid expands the Liquid-style tags quire understands: if/unless,
// for, assign and render/include, plus {{ path }} interpolation. Tags are
// located directly in the raw text; there is no separate token stream.
package liquid

import (
	"fmt"
	"strings"

	"github.com/conneroisu/quire/internal/errors"
)

const (
	tagOpen  = "{%"
	tagClose = "%}"
)

// Tag is one {% ... %} occurrence.
type Tag struct {
	Name  string // first word, e.g. "if" or "endfor"
	Args  string // everything after the name, trimmed
	Start int    // offset of "{%"
	End   int    // offset just past "%}"
}

// String reproduces the tag in canonical form.
func (t Tag) String() string {
	if t.Args == "" {
		return "{% " + t.Name + " %}"
	}
	return "{% " + t.Name + " " + t.Args + " %}"
}

// Block is a matched opening tag, its closing tag and any branch markers
// (else/elsif) that belong to it rather than to a nested block.
type Block struct {
	Open     Tag
	Close    Tag
	Branches []Tag
}

// Start is the offset of the opening tag.
func (b Block) Start() int { return b.Open.Start }

// End is the offset just past the closing tag.
func (b Block) End() int { return b.Close.End }

// Body returns the text between the opening and closing tags.
func (b Block) Body(text string) string {
	return text[b.Open.End:b.Close.Start]
}

// Segment is one branch of a block: the tag that introduced it and its text.
type Segment struct {
	Tag  Tag
	Text string
}

// Segments splits the body at each branch marker. The first segment is
// introduced by the opening tag.
func (b Block) Segments(text string) []Segment {
	segs := make([]Segment, 0, len(b.Branches)+1)
	introducer := b.Open
	start := b.Open.End
	for _, br := range b.Branches {
		segs = append(segs, Segment{Tag: introducer, Text: text[start:br.Start]})
		introducer = br
		start = br.End
	}
	segs = append(segs, Segment{Tag: introducer, Text: text[start:b.Close.Start]})
	return segs
}

// blockClosers maps each block opener to its closing tag name.
var blockClosers = map[string]string{
	"if":     "endif",
	"unless": "endunless",
	"for":    "endfor",
}

// branchTags lists the markers each block kind accepts.
var branchTags = map[string]map[string]bool{
	"if":     {"else": true, "elsif": true},
	"unless": {"else": true},
	"for":    {"else": true},
}

func isCloser(name string) bool {
	return strings.HasPrefix(name, "end") && len(name) > 3
}

// NextTag finds the first tag at or after from. Quotes inside the tag are
// honoured so a quoted "%}" does not end it. ok is false when no further
// "{%" exists.
func NextTag(text string, from int) (tag Tag, ok bool, err error) {
	if from >= len(text) {
		return Tag{}, false, nil
	}
	rel := strings.Index(text[from:], tagOpen)
	if rel < 0 {
		return Tag{}, false, nil
	}
	start := from + rel
	i := start + len(tagOpen)

	var quote byte
	for ; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			continue
		}
		if c == '%' && i+1 < len(text) && text[i+1] == '}' {
			inner := strings.TrimSpace(text[start+len(tagOpen) : i])
			inner = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(inner, "-"), "-"))
			name, args := splitTagContent(inner)
			return Tag{Name: name, Args: args, Start: start, End: i + len(tagClose)}, true, nil
		}
	}

	return Tag{}, false, errors.NewTemplateSyntaxError(errors.ErrCodeUnclosedTag,
		fmt.Sprintf("unclosed tag at offset %d: missing %%}", start)).
		WithContext("offset", start)
}

func splitTagContent(inner string) (string, string) {
	if idx := strings.IndexAny(inner, " \t\r\n"); idx >= 0 {
		return inner[:idx], strings.TrimSpace(inner[idx+1:])
	}
	return inner, ""
}

// MatchBlock finds the closing tag for open, which must be a block opener.
// Nested blocks of every kind are tracked on a stack so that branch markers
// and closers are attributed to the innermost open block. A missing closer is
// a TemplateSyntaxError.
func MatchBlock(text string, open Tag) (Block, error) {
	closer, ok := blockClosers[open.Name]
	if !ok {
		return Block{}, errors.NewTemplateSyntaxError(errors.ErrCodeMalformedTag,
			fmt.Sprintf("%s is not a block tag", open.Name))
	}

	block := Block{Open: open}
	var stack []string
	pos := open.End
	for {
		tag, found, err := NextTag(text, pos)
		if err != nil {
			return Block{}, err
		}
		if !found {
			return Block{}, errors.NewTemplateSyntaxError(errors.ErrCodeUnterminatedBlock,
				"unterminated block: "+open.Name).WithContext("offset", open.Start)
		}
		pos = tag.End

		switch {
		case blockClosers[tag.Name] != "":
			stack = append(stack, tag.Name)
		case isCloser(tag.Name):
			if len(stack) == 0 {
				if tag.Name != closer {
					return Block{}, errors.NewTemplateSyntaxError(errors.ErrCodeMalformedTag,
						fmt.Sprintf("unexpected %s inside %s block", tag.Name, open.Name))
				}
				block.Close = tag
				return block, nil
			}
			top := stack[len(stack)-1]
			if blockClosers[top] != tag.Name {
				return Block{}, errors.NewTemplateSyntaxError(errors.ErrCodeMalformedTag,
					fmt.Sprintf("unexpected %s, expected %s", tag.Name, blockClosers[top]))
			}
			stack = stack[:len(stack)-1]
		case len(stack) == 0 && branchTags[open.Name][tag.Name]:
			block.Branches = append(block.Branches, tag)
		}
	}
}

// splitArgs splits tag arguments on whitespace, keeping quoted strings
// (with their quotes) intact.
func splitArgs(args string) []string {
	var out []string
	var cur strings.Builder
	var quote byte
	flush := func() {
		if cur.Len() > 0 {
			out = append(out, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(args); i++ {
		c := args[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			cur.WriteByte(c)
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out
}

// isQuoted reports whether s is wrapped in matching single or double quotes.
func isQuoted(s string) bool {
	return len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0]
}

// unquote strips one layer of matching quotes.
func unquote(s string) string {
	if isQuoted(s) {
		return s[1 : len(s)-1]
	}
	return s
}

// indexOutsideQuotes finds the first sep outside quoted strings.
func indexOutsideQuotes(s string, sep byte) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			continue
		}
		if c == sep {
			return i
		}
	}
	return -1
}

// splitOutsideQuotes splits s on any byte in seps that is not quoted.
func splitOutsideQuotes(s, seps string) []string {
	var out []string
	start := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		if c == '"' || c == '\'' {
			quote = c
			continue
		}
		if strings.IndexByte(seps, c) >= 0 {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return append(out, s[start:])
}

// isIdentifier reports whether s is a valid variable name.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '_' || isAlpha(c) || (i > 0 && isDigit(c)) {
			continue
		}
		return false
	}
	return true
}

// isPath reports whether s is a dotted variable path: the first character is
// a letter or underscore, the rest letters, digits, underscores or dots.
func isPath(s string) bool {
	if s == "" || !(isAlpha(s[0]) || s[0] == '_') {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !(isAlpha(c) || isDigit(c) || c == '_' || c == '.') {
			return false
		}
	}
	return true
}

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
