// Package markdown converts the Markdown subset used by page bodies into HTML.
//
// The built-in converter supports ATX headings, paragraphs, unordered and
// ordered lists, block quotes, thematic breaks, fenced code, raw HTML blocks
// and the inline rules documented in inline.go. A goldmark-backed engine is
// available for sites that need CommonMark.
package markdown

import (
	"fmt"
	"strings"

	"github.com/conneroisu/quire/internal/errors"
)

// Engine names accepted by New.
const (
	EngineBuiltin  = "builtin"
	EngineGoldmark = "goldmark"
)

// Converter turns a Markdown document into an HTML fragment.
type Converter interface {
	Convert(src string) (string, error)
	Name() string
}

// Options configures a converter.
type Options struct {
	// LineBreaks renders single newlines inside a paragraph as <br />.
	LineBreaks bool
}

// New returns the converter registered under engine. An empty name selects
// the built-in converter.
func New(engine string, opts Options) (Converter, error) {
	switch strings.ToLower(strings.TrimSpace(engine)) {
	case "", EngineBuiltin:
		return NewBuiltin(opts), nil
	case EngineGoldmark:
		return NewGoldmark(opts), nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, fmt.Sprintf("unknown markdown engine %q", engine))
	}
}

// ToHTML converts src with the built-in converter and line breaks enabled.
func ToHTML(src string) string {
	out, _ := NewBuiltin(Options{LineBreaks: true}).Convert(src)
	return out
}
