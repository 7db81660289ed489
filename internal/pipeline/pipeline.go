// Package pipeline runs a single page through the template stages in their
// fixed order: tag expansion, Markdown conversion when the page is Markdown,
// then interpolation.
//
// A Pipeline holds only immutable collaborators (the tag engine, the Markdown
// converter and the frozen global scope), so one value may render many pages
// concurrently.
package pipeline

import (
	"context"

	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/liquid"
	"github.com/conneroisu/quire/internal/logging"
	"github.com/conneroisu/quire/internal/markdown"
	"github.com/conneroisu/quire/internal/value"
)

// Stage is a state of a page render.
type Stage int

const (
	StageRaw Stage = iota
	StageExpanded
	StageConverted
	StageFinal
)

func (s Stage) String() string {
	switch s {
	case StageRaw:
		return "raw"
	case StageExpanded:
		return "expanded"
	case StageConverted:
		return "converted"
	case StageFinal:
		return "final"
	default:
		return "unknown"
	}
}

// Page is one unit of work for the pipeline.
type Page struct {
	// Name identifies the page in diagnostics and errors.
	Name string
	// Body is the raw template text.
	Body string
	// Vars holds front matter and derived keys. It is layered over the
	// global scope and never modified.
	Vars *value.Mapping
}

// IsMarkdown reports whether the page body is Markdown. Pages without a
// file_type are treated as Markdown.
func (p Page) IsMarkdown() bool {
	ft := p.Vars.GetString("file_type")
	return ft == "" || ft == "md" || ft == "markdown"
}

// Output is a fully rendered page.
type Output struct {
	HTML        string
	Diagnostics []errors.Diagnostic
	// Stage is the last stage reached. It is StageFinal on success.
	Stage Stage
}

// Pipeline renders pages.
type Pipeline struct {
	engine    *liquid.Engine
	converter markdown.Converter
	globals   *value.Scope
	logger    logging.Logger
}

// New creates a pipeline. globals must be frozen.
func New(engine *liquid.Engine, converter markdown.Converter, globals *value.Scope, logger logging.Logger) *Pipeline {
	if converter == nil {
		converter = markdown.NewBuiltin(markdown.Options{LineBreaks: true})
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Pipeline{
		engine:    engine,
		converter: converter,
		globals:   globals,
		logger:    logger.WithComponent("pipeline"),
	}
}

// Globals returns the shared global scope.
func (p *Pipeline) Globals() *value.Scope { return p.globals }

// Render runs page through every stage. Syntax and recursion errors stop the
// page and are returned with the page name attached; resolution misses are
// returned as diagnostics.
func (p *Pipeline) Render(ctx context.Context, page Page) (Output, error) {
	return p.run(ctx, page, page.IsMarkdown())
}

// RenderTemplate runs page through expansion and interpolation only, as used
// for layouts and listing templates.
func (p *Pipeline) RenderTemplate(ctx context.Context, page Page) (Output, error) {
	return p.run(ctx, page, false)
}

// Wrap renders layout with body bound to the "body" variable. The body is
// substituted in the final pass, so tags or placeholders it contains are
// never evaluated again.
func (p *Pipeline) Wrap(ctx context.Context, name, layout, body string, vars *value.Mapping) (Output, error) {
	layered := value.NewMapping()
	if vars != nil {
		layered = vars.Clone()
	}
	layered.SetString("body", body)
	return p.run(ctx, Page{Name: name, Body: layout, Vars: layered}, false)
}

func (p *Pipeline) run(ctx context.Context, page Page, convert bool) (Output, error) {
	out := Output{Stage: StageRaw}
	if err := ctx.Err(); err != nil {
		return out, err
	}

	scope := p.scopeFor(page)
	deferred := liquid.NewDeferred()

	res, err := p.engine.Expand(page.Body, scope, deferred)
	out.Diagnostics = append(out.Diagnostics, res.Diagnostics...)
	if err != nil {
		return out, p.pageError(err, page, out.Stage)
	}
	text := res.Text
	out.Stage = StageExpanded

	if convert {
		html, err := p.converter.Convert(liquid.Hold(text, scope, deferred))
		if err != nil {
			return out, p.pageError(err, page, out.Stage)
		}
		text = html
		out.Stage = StageConverted
	}

	final, diags := liquid.Interpolate(text, scope, deferred)
	out.Diagnostics = append(out.Diagnostics, diags...)
	out.HTML = final
	out.Stage = StageFinal

	for i := range out.Diagnostics {
		if out.Diagnostics[i].Page == "" {
			out.Diagnostics[i].Page = page.Name
		}
	}

	p.logger.Debug(ctx, "Rendered page",
		"page", page.Name,
		"markdown", convert,
		"deferred", deferred.Len(),
		"diagnostics", len(out.Diagnostics))
	return out, nil
}

func (p *Pipeline) scopeFor(page Page) *value.Scope {
	globals := p.globals
	if globals == nil {
		globals = value.NewGlobalScope(value.NewMapping())
	}
	return globals.NewPage(page.Vars)
}

func (p *Pipeline) pageError(err error, page Page, stage Stage) error {
	var qe *errors.QuireError
	if errors.As(err, &qe) {
		if qe.FilePath == "" {
			qe.WithLocation(page.Name, 0)
		}
		return qe.WithContext("stage", stage.String())
	}
	return errors.Wrap(err, errors.ErrorTypeInternal, errors.ErrCodeRenderFailed, "render failed").
		WithLocation(page.Name, 0).
		WithContext("stage", stage.String())
}
