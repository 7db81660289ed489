// Package build turns a source tree into a static site. A generation run
// loads the site, renders every page and post through the template pipeline
// on a worker pool, writes pagination and category listings, the RSS feed and
// JSON companions, then copies assets.
//
// A page that fails to render is recorded in the Report and skipped. Generate
// returns an error only when the site as a whole cannot be built.
package build

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/liquid"
	"github.com/conneroisu/quire/internal/logging"
	"github.com/conneroisu/quire/internal/markdown"
	"github.com/conneroisu/quire/internal/pipeline"
)

// Defaults used when neither config.md nor Options set a value.
const (
	DefaultSiteTitle    = "My Site"
	DefaultPostsPerPage = 5
	DefaultMainLayout   = "main.html"
	DefaultPostLayout   = "post"
	DefaultRSSItems     = 20
)

// Options configures a generation run.
type Options struct {
	Source string
	Output string

	SiteURL         string
	SiteTitle       string
	SiteDescription string
	PostsPerPage    int
	MainLayout      string

	Workers         int
	Minify          bool
	JSONCompanions  bool
	Clean           bool
	RSSItems        int
	MaxIncludeDepth int

	MarkdownEngine string
	LineBreaks     bool
}

func (o Options) withDefaults() Options {
	if o.Source == "" {
		o.Source = "."
	}
	if o.Output == "" {
		o.Output = "out"
	}
	if o.MainLayout == "" {
		o.MainLayout = DefaultMainLayout
	}
	if o.RSSItems <= 0 {
		o.RSSItems = DefaultRSSItems
	}
	if o.MaxIncludeDepth <= 0 {
		o.MaxIncludeDepth = liquid.DefaultMaxIncludeDepth
	}
	if o.MarkdownEngine == "" {
		o.MarkdownEngine = markdown.EngineBuiltin
	}
	return o
}

// Generator runs generation passes. It keeps the output hash cache between
// runs, so rebuilding an unchanged site rewrites nothing.
type Generator struct {
	opts    Options
	logger  logging.Logger
	hashes  *HashProvider
	workers *WorkerManager
	now     func() time.Time
	mu      sync.Mutex
}

// NewGenerator creates a generator.
func NewGenerator(opts Options, logger logging.Logger) *Generator {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	opts = opts.withDefaults()
	return &Generator{
		opts:    opts,
		logger:  logger.WithComponent("build"),
		hashes:  NewHashProvider(),
		workers: NewWorkerManager(opts.Workers),
		now:     time.Now,
	}
}

// Options returns the effective options.
func (g *Generator) Options() Options { return g.opts }

// renderContext is shared read-only by every task of a run, apart from the
// rendered bodies collected for the feed.
type renderContext struct {
	opts     Options
	site     *Site
	pipe     *pipeline.Pipeline
	writer   *Writer
	siteName string
	bodies   sync.Map
}

// Generate performs one generation run. Runs on the same Generator are
// serialized.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	report := newReport(ulid.Make().String())
	logger := g.logger.With("build_id", report.BuildID)
	perf := logging.StartOperation(logger, "generate")

	rc, err := g.prepare(ctx, report, logger)
	if err != nil {
		perf.EndWithError(ctx, err)
		return report, err
	}

	tasks := make([]Task, 0, len(rc.site.Pages)+len(rc.site.Posts))
	for _, it := range rc.site.Pages {
		tasks = append(tasks, rc.itemTask(it, kindPage))
	}
	for _, it := range rc.site.Posts {
		tasks = append(tasks, rc.itemTask(it, kindPost))
	}
	tasks = append(tasks, rc.listingTasks()...)

	phase := logging.StartOperation(logger, "render")
	report.Skipped = g.workers.Run(ctx, tasks, report.Record)
	phase.End(ctx, "tasks", len(tasks), "workers", g.workers.Workers())

	if err := ctx.Err(); err != nil {
		report.finish()
		perf.EndWithError(ctx, err)
		return report, err
	}

	changed, err := rc.writeFeed(g.now())
	if err != nil {
		report.finish()
		perf.EndWithError(ctx, err)
		return report, err
	}
	if changed {
		report.Written = append(report.Written, FeedFile)
	} else {
		report.Unchanged++
	}

	assets, err := copyAssets(ctx, rc.site.Source, rc.writer)
	if err != nil {
		report.finish()
		perf.EndWithError(ctx, err)
		return report, err
	}
	report.Assets = assets

	report.finish()
	for _, d := range report.Diagnostics() {
		logger.Warn(ctx, nil, d.Message, "code", d.Code, "page", d.Page)
	}
	for _, f := range report.Failures {
		logger.Error(ctx, f.Err, "Page failed", "page", f.Page)
	}
	perf.End(ctx,
		"written", len(report.Written),
		"unchanged", report.Unchanged,
		"failed", len(report.Failures),
		"assets", report.Assets)
	return report, nil
}

func (g *Generator) prepare(ctx context.Context, report *Report, logger logging.Logger) (*renderContext, error) {
	phase := logging.StartOperation(logger, "load")
	site, err := LoadSite(g.opts.Source)
	if err != nil {
		phase.EndWithError(ctx, err)
		return nil, err
	}
	report.diagnostics.Merge("", site.Diagnostics)
	phase.End(ctx,
		"posts", len(site.Posts),
		"pages", len(site.Pages),
		"partials", site.Partials.Len(),
		"layouts", len(site.Layouts))

	if _, ok := site.Layout(g.opts.MainLayout); !ok {
		return nil, errors.NewConfigError(errors.ErrCodeMissingLayout,
			"main layout "+g.opts.MainLayout+" not found in "+LayoutsDir).
			WithContext("layouts", site.layoutNames())
	}

	converter, err := markdown.New(g.opts.MarkdownEngine, markdown.Options{LineBreaks: g.opts.LineBreaks})
	if err != nil {
		return nil, err
	}

	writer, err := NewWriter(g.opts.Output, g.opts.Minify, g.hashes)
	if err != nil {
		return nil, err
	}
	if g.opts.Clean {
		if err := guardClean(g.opts.Source, writer.Root()); err != nil {
			return nil, err
		}
		if err := writer.Clean(); err != nil {
			return nil, err
		}
	}

	engine := liquid.NewEngine(site.Partials, liquid.Options{MaxIncludeDepth: g.opts.MaxIncludeDepth})
	globals := site.Globals(g.opts, report.BuildID, g.now())

	return &renderContext{
		opts:     g.opts,
		site:     site,
		pipe:     pipeline.New(engine, converter, globals, logger),
		writer:   writer,
		siteName: site.SiteTitle(g.opts),
	}, nil
}

// guardClean refuses to clean an output root that holds the source tree.
func guardClean(source, root string) error {
	abs, err := filepath.Abs(source)
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeInvalidPath, "failed to resolve source directory")
	}
	rel, err := filepath.Rel(root, abs)
	if err == nil && !strings.HasPrefix(rel, "..") {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"refusing to clean "+root+": it contains the source tree")
	}
	return nil
}

// Stop cancels a run in progress and waits for its workers.
func (g *Generator) Stop() {
	g.workers.StopWorkers()
}
