package markdown

import (
	"html"
	"strconv"
	"strings"
)

// Builtin is the dependency-free Markdown converter.
type Builtin struct {
	opts Options
}

// NewBuiltin creates a built-in converter.
func NewBuiltin(opts Options) *Builtin {
	return &Builtin{opts: opts}
}

// Name implements Converter.
func (c *Builtin) Name() string { return EngineBuiltin }

// Convert implements Converter. It never fails; the error return exists to
// satisfy the interface shared with goldmark.
func (c *Builtin) Convert(src string) (string, error) {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	p := &blockParser{opts: c.opts, lines: strings.Split(src, "\n")}
	return strings.Join(p.parse(), "\n"), nil
}

type listKind int

const (
	listNone listKind = iota
	listBullet
	listOrdered
)

type blockParser struct {
	opts  Options
	lines []string
	pos   int
	out   []string

	para      []string
	list      listKind
	listStart int
	items     []string
}

func (p *blockParser) parse() []string {
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		trimmed := strings.TrimSpace(line)

		switch {
		case trimmed == "":
			p.flush()
			p.pos++
		case isFence(trimmed):
			p.flush()
			p.fencedCode(trimmed)
		case isHTMLBlock(trimmed):
			p.flush()
			p.htmlBlock()
		case headingLevel(trimmed) > 0:
			p.flush()
			p.heading(trimmed)
			p.pos++
		case isThematicBreak(trimmed):
			p.flush()
			p.out = append(p.out, "<hr />")
			p.pos++
		case strings.HasPrefix(trimmed, ">"):
			p.flush()
			p.blockquote()
		default:
			if kind, start, text, ok := listItem(line); ok {
				p.flushParagraph()
				if p.list != kind {
					p.flushList()
					p.list, p.listStart = kind, start
				}
				p.items = append(p.items, text)
			} else if p.list != listNone && indented(line) {
				last := len(p.items) - 1
				p.items[last] += " " + trimmed
			} else {
				p.flushList()
				p.para = append(p.para, trimmed)
			}
			p.pos++
		}
	}
	p.flush()
	return p.out
}

func (p *blockParser) flush() {
	p.flushParagraph()
	p.flushList()
}

func (p *blockParser) flushParagraph() {
	if len(p.para) == 0 {
		return
	}
	lines := make([]string, len(p.para))
	for i, l := range p.para {
		lines[i] = renderInline(CollapseWhitespace(l))
	}
	sep := "\n"
	if p.opts.LineBreaks {
		sep = "<br />"
	}
	p.out = append(p.out, "<p>"+strings.Join(lines, sep)+"</p>")
	p.para = nil
}

func (p *blockParser) flushList() {
	if p.list == listNone {
		return
	}
	var b strings.Builder
	switch {
	case p.list == listBullet:
		b.WriteString("<ul>\n")
	case p.listStart != 1:
		b.WriteString(`<ol start="` + strconv.Itoa(p.listStart) + `">` + "\n")
	default:
		b.WriteString("<ol>\n")
	}
	for _, item := range p.items {
		b.WriteString("<li>")
		b.WriteString(renderInline(CollapseWhitespace(item)))
		b.WriteString("</li>\n")
	}
	if p.list == listBullet {
		b.WriteString("</ul>")
	} else {
		b.WriteString("</ol>")
	}
	p.out = append(p.out, b.String())
	p.list, p.items = listNone, nil
}

func (p *blockParser) heading(trimmed string) {
	level := headingLevel(trimmed)
	text := strings.TrimSpace(trimmed[level:])
	// closing sequence: "## Title ##"
	if i := strings.LastIndexFunc(text, func(r rune) bool { return r != '#' }); i >= 0 && i < len(text)-1 && text[i] == ' ' {
		text = strings.TrimSpace(text[:i])
	} else if i < 0 {
		text = ""
	}
	tag := "h" + strconv.Itoa(level)
	p.out = append(p.out, "<"+tag+">"+renderInline(CollapseWhitespace(text))+"</"+tag+">")
}

func (p *blockParser) fencedCode(open string) {
	fence := open[:runLength(open, 0, open[0])]
	lang := strings.TrimSpace(open[len(fence):])
	p.pos++

	var body []string
	for p.pos < len(p.lines) {
		line := p.lines[p.pos]
		p.pos++
		if t := strings.TrimSpace(line); strings.HasPrefix(t, fence) && strings.Trim(t, fence[:1]) == "" {
			break
		}
		body = append(body, line)
	}

	class := ""
	if lang != "" {
		class = ` class="language-` + html.EscapeString(strings.Fields(lang)[0]) + `"`
	}
	code := html.EscapeString(strings.Join(body, "\n"))
	if len(body) > 0 {
		code += "\n"
	}
	p.out = append(p.out, "<pre><code"+class+">"+code+"</code></pre>")
}

// htmlBlock copies lines verbatim up to the next blank line.
func (p *blockParser) htmlBlock() {
	start := p.pos
	for p.pos < len(p.lines) && strings.TrimSpace(p.lines[p.pos]) != "" {
		p.pos++
	}
	p.out = append(p.out, strings.Join(p.lines[start:p.pos], "\n"))
}

func (p *blockParser) blockquote() {
	var inner []string
	for p.pos < len(p.lines) {
		t := strings.TrimSpace(p.lines[p.pos])
		if !strings.HasPrefix(t, ">") {
			break
		}
		t = strings.TrimPrefix(t, ">")
		inner = append(inner, strings.TrimPrefix(t, " "))
		p.pos++
	}
	nested := &blockParser{opts: p.opts, lines: inner}
	p.out = append(p.out, "<blockquote>\n"+strings.Join(nested.parse(), "\n")+"\n</blockquote>")
}

func isFence(trimmed string) bool {
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}

func isHTMLBlock(trimmed string) bool {
	if len(trimmed) < 2 || trimmed[0] != '<' {
		return false
	}
	c := trimmed[1]
	return c == '/' || c == '!' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// headingLevel returns the ATX heading level of a trimmed line, or 0.
func headingLevel(trimmed string) int {
	n := runLength(trimmed, 0, '#')
	if n == 0 || n > 6 {
		return 0
	}
	if n < len(trimmed) && trimmed[n] != ' ' && trimmed[n] != '\t' {
		return 0
	}
	return n
}

func isThematicBreak(trimmed string) bool {
	compact := strings.ReplaceAll(trimmed, " ", "")
	if len(compact) < 3 {
		return false
	}
	c := compact[0]
	if c != '-' && c != '*' && c != '_' {
		return false
	}
	return runLength(compact, 0, c) == len(compact)
}

// listItem recognizes "- item", "* item", "+ item" and "1. item".
func listItem(line string) (listKind, int, string, bool) {
	t := strings.TrimLeft(line, " ")
	if len(line)-len(t) > 3 || len(t) < 2 {
		return listNone, 0, "", false
	}
	switch t[0] {
	case '-', '*', '+':
		if t[1] == ' ' || t[1] == '\t' {
			return listBullet, 0, strings.TrimSpace(t[2:]), true
		}
		return listNone, 0, "", false
	}
	n := 0
	for n < len(t) && n < 9 && t[n] >= '0' && t[n] <= '9' {
		n++
	}
	if n == 0 || n+1 >= len(t) || t[n] != '.' || (t[n+1] != ' ' && t[n+1] != '\t') {
		return listNone, 0, "", false
	}
	start, _ := strconv.Atoi(t[:n])
	return listOrdered, start, strings.TrimSpace(t[n+2:]), true
}

func indented(line string) bool {
	return strings.HasPrefix(line, "  ") || strings.HasPrefix(line, "\t")
}
