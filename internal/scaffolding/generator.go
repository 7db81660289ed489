// Package scaffolding creates new site source trees from built-in starter
// templates.
package scaffolding

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/validation"
)

// DefaultTemplate is used when no template is named.
const DefaultTemplate = "blog"

// SiteGenerator handles site scaffolding
type SiteGenerator struct {
	templates map[string]SiteTemplate
	now       func() time.Time
}

// GenerateOptions holds options for site generation
type GenerateOptions struct {
	Dir         string
	Template    string
	SiteTitle   string
	Description string
	URL         string
	Author      string
	// Force overwrites files that already exist.
	Force bool
}

// NewSiteGenerator creates a generator over the built-in templates.
func NewSiteGenerator() *SiteGenerator {
	return &SiteGenerator{
		templates: GetBuiltinTemplates(),
		now:       time.Now,
	}
}

// TemplateNames lists the available templates in order.
func (g *SiteGenerator) TemplateNames() []string {
	names := make([]string, 0, len(g.templates))
	for name := range g.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Template returns a template by name.
func (g *SiteGenerator) Template(name string) (SiteTemplate, bool) {
	tmpl, ok := g.templates[name]
	return tmpl, ok
}

// Generate writes the named template into opts.Dir and returns the written
// paths relative to it. Nothing is written when any target file already
// exists and Force is not set.
func (g *SiteGenerator) Generate(opts GenerateOptions) ([]string, error) {
	if opts.Template == "" {
		opts.Template = DefaultTemplate
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}

	tmpl, exists := g.templates[opts.Template]
	if !exists {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("template '%s' not found (available: %s)", opts.Template, strings.Join(g.TemplateNames(), ", ")))
	}

	dir := filepath.Clean(opts.Dir)
	if err := validation.ValidatePath(dir); err != nil {
		return nil, errors.NewSecurityError(errors.ErrCodeInvalidPath, "invalid site directory: "+err.Error()).
			WithLocation(dir, 0)
	}

	ctx := TemplateContext{
		SiteTitle:   opts.SiteTitle,
		Description: opts.Description,
		URL:         opts.URL,
		Author:      opts.Author,
		Date:        g.now().Format("2006-01-02"),
	}
	if ctx.SiteTitle == "" {
		ctx.SiteTitle = titleFromDir(dir)
	}
	if ctx.Author == "" {
		ctx.Author = "Anonymous"
	}

	paths := make([]string, 0, len(tmpl.Files))
	for p := range tmpl.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	rendered := make(map[string][]byte, len(paths))
	for _, p := range paths {
		if err := validation.ValidateRelative(p); err != nil {
			return nil, errors.NewInternalError(errors.ErrCodeInvalidPath, "template contains an invalid path", err)
		}
		target := filepath.Join(dir, filepath.FromSlash(p))
		if !opts.Force {
			if _, err := os.Stat(target); err == nil {
				return nil, errors.NewIOError(errors.ErrCodeWriteFailed,
					"refusing to overwrite existing file, pick an empty directory or pass --force", nil).
					WithLocation(target, 0)
			}
		}
		content, err := g.renderFile(p, tmpl.Files[p], ctx)
		if err != nil {
			return nil, err
		}
		rendered[p] = content
	}

	for _, p := range paths {
		target := filepath.Join(dir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, errors.NewIOError(errors.ErrCodeWriteFailed, "failed to create directory", err).
				WithLocation(filepath.Dir(target), 0)
		}
		if err := os.WriteFile(target, rendered[p], 0o644); err != nil {
			return nil, errors.NewIOError(errors.ErrCodeWriteFailed, "failed to write file", err).
				WithLocation(target, 0)
		}
	}

	return paths, nil
}

func (g *SiteGenerator) renderFile(name, content string, ctx TemplateContext) ([]byte, error) {
	t, err := template.New(name).
		Delims("[[", "]]").
		Funcs(template.FuncMap{"quote": strconv.Quote}).
		Parse(content)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeRenderFailed, "failed to parse starter file", err).
			WithLocation(name, 0)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, ctx); err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeRenderFailed, "failed to execute starter file", err).
			WithLocation(name, 0)
	}
	return buf.Bytes(), nil
}

// titleFromDir turns "my-new_blog" into "My New Blog".
func titleFromDir(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	words := strings.FieldsFunc(filepath.Base(abs), func(r rune) bool {
		return r == '-' || r == '_' || r == ' ' || r == '.'
	})
	for i, w := range words {
		words[i] = capitalizeFirst(w)
	}
	if len(words) == 0 {
		return "My Site"
	}
	return strings.Join(words, " ")
}

func capitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
