package build

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/conneroisu/quire/internal/content"
	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/liquid"
	"github.com/conneroisu/quire/internal/validation"
	"github.com/conneroisu/quire/internal/value"
)

// Source tree layout.
const (
	ConfigDocument = "config.md"
	PostsDir       = "posts"
	PagesDir       = "pages"
	IncludesDir    = "includes"
	LayoutsDir     = "layouts"
	DataDir        = "data"
	AssetsDir      = "assets"

	// FeedFile is written at the output root and advertised as rss_feed_url.
	FeedFile = "feed.xml"
)

// Site is everything read from the source tree before rendering starts. All
// of it is read-only once LoadSite returns.
type Site struct {
	Source   string
	Config   *value.Mapping
	Posts    content.Collection
	Pages    content.Collection
	Partials *liquid.PartialTable
	Data     *value.Mapping
	Layouts  map[string]string
	// Diagnostics raised while loading, such as undecodable data files.
	Diagnostics []errors.Diagnostic
}

// LoadSite reads the source tree in dependency order: includes first, so a
// partial conflict stops the run before any content is touched.
func LoadSite(source string) (*Site, error) {
	partials, err := content.LoadPartials(filepath.Join(source, IncludesDir))
	if err != nil {
		return nil, err
	}

	data, diags, err := content.LoadData(filepath.Join(source, DataDir))
	if err != nil {
		return nil, err
	}

	cfg, err := content.ReadSiteConfig(filepath.Join(source, ConfigDocument))
	if err != nil {
		return nil, err
	}

	posts, err := content.ReadCollection(filepath.Join(source, PostsDir))
	if err != nil {
		return nil, err
	}
	pages, err := content.ReadCollection(filepath.Join(source, PagesDir))
	if err != nil {
		return nil, err
	}

	layouts, err := loadLayouts(filepath.Join(source, LayoutsDir))
	if err != nil {
		return nil, err
	}

	return &Site{
		Source:      source,
		Config:      cfg,
		Posts:       posts,
		Pages:       pages,
		Partials:    partials,
		Data:        data,
		Layouts:     layouts,
		Diagnostics: diags,
	}, nil
}

// Layout returns the layout named name, with or without its .html extension.
func (s *Site) Layout(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", false
	}
	if text, ok := s.Layouts[name]; ok {
		return text, true
	}
	text, ok := s.Layouts[name+".html"]
	return text, ok
}

func loadLayouts(dir string) (map[string]string, error) {
	layouts := map[string]string{}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return layouts, nil
		}
		return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to read layouts").
			WithLocation(dir, 0)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".html") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		text, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapIO(err, errors.ErrCodeReadFailed, "failed to read layout").
				WithLocation(path, 0)
		}
		layouts[entry.Name()] = string(text)
	}
	return layouts, nil
}

// SiteTitle is the config.md title, falling back to the configured one.
func (s *Site) SiteTitle(opts Options) string {
	return firstNonEmpty(s.Config.GetString("title"), opts.SiteTitle, DefaultSiteTitle)
}

// PostsPerPage is the config.md posts_per_page, falling back to the
// configured one.
func (s *Site) PostsPerPage(opts Options) int {
	if raw := strings.TrimSpace(s.Config.GetString("posts_per_page")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	if opts.PostsPerPage > 0 {
		return opts.PostsPerPage
	}
	return DefaultPostsPerPage
}

// Globals builds the frozen global scope shared by every page of a run.
func (s *Site) Globals(opts Options, buildID string, now time.Time) *value.Scope {
	g := value.NewMapping()

	siteURL := firstNonEmpty(s.Config.GetString("site_url"), s.Config.GetString("url"), opts.SiteURL)
	if normalized, err := validation.NormalizeSiteURL(siteURL); err == nil {
		siteURL = normalized
	} else {
		siteURL = strings.TrimRight(siteURL, "/")
	}

	g.SetString("site_title", s.SiteTitle(opts))
	g.SetString("site_url", siteURL)
	g.SetString("site_description", firstNonEmpty(s.Config.GetString("description"), opts.SiteDescription))
	g.Set("posts_per_page", value.Int(s.PostsPerPage(opts)))
	g.SetString("generated_date", now.UTC().Format("2006-01-02"))
	g.SetString("rss_feed_url", "/"+FeedFile)
	g.SetString("build_id", buildID)

	site := s.Config.Clone()
	site.SetString("title", s.SiteTitle(opts))
	site.SetString("url", siteURL)
	g.Set("site", value.FromMapping(site))

	g.Set("data", value.FromMapping(s.Data))
	g.Set("posts", s.Posts.Listed().Value())
	g.Set("pages", s.Pages.Listed().Value())
	g.Set("categories", categoriesValue(s.Posts.Categories()))

	return value.NewGlobalScope(g)
}

func categoriesValue(cats []content.Category) value.Value {
	items := make([]value.Value, len(cats))
	for i, c := range cats {
		items[i] = value.FromMapping(value.MappingOf(
			"name", c.Name,
			"slug", c.Slug,
			"url", categoryURL(c.Slug, 1),
			"count", strconv.Itoa(len(c.Items)),
		))
	}
	return value.Sequence(items...)
}

// layoutNames lists the known layouts in a stable order.
func (s *Site) layoutNames() []string {
	names := make([]string, 0, len(s.Layouts))
	for name := range s.Layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
