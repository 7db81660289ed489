package markdown

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/conneroisu/quire/internal/errors"
)

// goldmark percent-encodes non-ASCII link destinations. The private-use
// markers that stand in for template values must come through intact.
var markerUnescaper = strings.NewReplacer(
	"%EE%80%80", "\uE000",
	"%EE%80%81", "\uE001",
	"%ee%80%80", "\uE000",
	"%ee%80%81", "\uE001",
)

// Goldmark converts with yuin/goldmark using the GFM extension set. Raw HTML
// is rendered as-is so partial output embedded in a page survives.
type Goldmark struct {
	md goldmark.Markdown
}

// NewGoldmark creates a goldmark-backed converter.
func NewGoldmark(opts Options) *Goldmark {
	rendererOpts := []renderer.Option{gmhtml.WithUnsafe(), gmhtml.WithXHTML()}
	if opts.LineBreaks {
		rendererOpts = append(rendererOpts, gmhtml.WithHardWraps())
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(rendererOpts...),
	)
	return &Goldmark{md: md}
}

// Name implements Converter.
func (g *Goldmark) Name() string { return EngineGoldmark }

// Convert implements Converter.
func (g *Goldmark) Convert(src string) (string, error) {
	var buf bytes.Buffer
	if err := g.md.Convert([]byte(src), &buf); err != nil {
		return "", errors.NewInternalError(errors.ErrCodeMarkdown, "goldmark conversion failed", err)
	}
	return markerUnescaper.Replace(buf.String()), nil
}
