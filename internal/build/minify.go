package build

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// blockElements may have the whitespace that follows them dropped without
// changing how the page renders.
var blockElements = map[string]bool{
	"html": true, "head": true, "body": true, "title": true, "meta": true, "link": true,
	"div": true, "p": true, "ul": true, "ol": true, "li": true, "nav": true,
	"header": true, "footer": true, "main": true, "section": true, "article": true,
	"aside": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "hr": true, "br": true, "table": true, "thead": true, "tbody": true,
	"tr": true, "td": true, "th": true, "figure": true, "figcaption": true, "form": true,
	"script": true, "style": true, "pre": true,
}

// verbatimElements keep their content untouched.
var verbatimElements = map[string]bool{
	"pre": true, "textarea": true, "script": true, "style": true,
}

// MinifyHTML collapses insignificant whitespace and drops comments. Content
// of pre, textarea, script and style elements is copied as is, as are
// conditional comments.
func MinifyHTML(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var out bytes.Buffer
	out.Grow(len(src))

	verbatim := 0
	afterBlock := true

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return strings.TrimSpace(out.String())

		case html.TextToken:
			raw := z.Raw()
			if verbatim > 0 {
				out.Write(raw)
				continue
			}
			text := collapseSpaces(raw)
			if afterBlock {
				text = strings.TrimPrefix(text, " ")
			}
			if text == "" {
				continue
			}
			out.WriteString(text)
			afterBlock = false

		case html.CommentToken:
			if bytes.HasPrefix(z.Text(), []byte("[if")) {
				out.Write(z.Raw())
			}

		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			out.Write(z.Raw())
			if verbatimElements[tag] {
				verbatim++
			}
			afterBlock = blockElements[tag]

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			out.Write(z.Raw())
			if verbatimElements[tag] && verbatim > 0 {
				verbatim--
			}
			afterBlock = blockElements[tag]

		case html.SelfClosingTagToken:
			name, _ := z.TagName()
			out.Write(z.Raw())
			afterBlock = blockElements[string(name)]

		default:
			out.Write(z.Raw())
			afterBlock = true
		}
	}
}

func collapseSpaces(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw))
	space := false
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\n', '\r', '\f':
			space = true
		default:
			if space {
				b.WriteByte(' ')
				space = false
			}
			b.WriteByte(c)
		}
	}
	if space {
		b.WriteByte(' ')
	}
	return b.String()
}
