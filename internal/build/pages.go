package build

import (
	"context"
	"encoding/json"
	"path"
	"strings"

	"github.com/conneroisu/quire/internal/content"
	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/pipeline"
	"github.com/conneroisu/quire/internal/value"
)

type itemKind int

const (
	kindPage itemKind = iota
	kindPost
)

func (k itemKind) String() string {
	if k == kindPost {
		return "post"
	}
	return "page"
}

// companion is the JSON written beside every page for client-side
// navigation.
type companion struct {
	Content string `json:"content"`
	Title   string `json:"title"`
	CSS     string `json:"css,omitempty"`
}

// OutputPath returns where an item is written, relative to the output root.
func OutputPath(slug string, post bool) string {
	if post {
		return path.Join(PostsDir, slug+".html")
	}
	return slug + ".html"
}

func (rc *renderContext) itemTask(it *content.Item, kind itemKind) Task {
	return Task{
		Name: it.Path,
		Run: func(ctx context.Context) TaskResult {
			return rc.renderItem(ctx, it, kind)
		},
	}
}

// renderItem renders one page or post: body, secondary layout, main layout,
// then the HTML file and its JSON companion.
func (rc *renderContext) renderItem(ctx context.Context, it *content.Item, kind itemKind) TaskResult {
	res := TaskResult{Name: it.Path}

	vars := it.Vars.Clone()
	originalTitle := it.Title()
	css := strings.TrimSpace(it.Vars.GetString(content.KeyCSS))
	vars.SetString("original_title", originalTitle)
	vars.SetString("page_specific_css", css)
	vars.SetString("page_kind", kind.String())

	out, err := rc.pipe.Render(ctx, pipeline.Page{Name: it.Path, Body: it.Body(), Vars: vars})
	res.Diagnostics = append(res.Diagnostics, out.Diagnostics...)
	if err != nil {
		res.Err = err
		return res
	}
	body := out.HTML

	layoutName := strings.TrimSpace(vars.GetString(content.KeyLayout))
	explicit := layoutName != ""
	if !explicit && kind == kindPost {
		layoutName = DefaultPostLayout
	}
	if layoutName != "" {
		if layout, ok := rc.site.Layout(layoutName); ok {
			wrapped, err := rc.pipe.Wrap(ctx, it.Path, layout, body, vars)
			res.Diagnostics = append(res.Diagnostics, wrapped.Diagnostics...)
			if err != nil {
				res.Err = err
				return res
			}
			body = wrapped.HTML
		} else if explicit {
			res.Diagnostics = append(res.Diagnostics, errors.Diagnostic{
				Severity: errors.SeverityWarning,
				Code:     errors.ErrCodeMissingLayout,
				Message:  "layout " + layoutName + " not found",
				Page:     it.Path,
			})
		}
	}

	if kind == kindPost {
		rc.bodies.Store(it.Slug(), body)
	}

	page, diags, err := rc.wrapMain(ctx, it.Path, body, originalTitle, vars)
	res.Diagnostics = append(res.Diagnostics, diags...)
	if err != nil {
		res.Err = err
		return res
	}

	htmlPath := OutputPath(it.Slug(), kind == kindPost)
	rc.write(&res, htmlPath, func() (bool, error) { return rc.writer.WriteHTML(htmlPath, page) })
	if res.Err != nil || !rc.opts.JSONCompanions {
		return res
	}

	data, err := json.Marshal(companion{Content: body, Title: originalTitle, CSS: css})
	if err != nil {
		res.Err = errors.NewInternalError(errors.ErrCodeRenderFailed, "failed to encode page companion", err).
			WithLocation(it.Path, 0)
		return res
	}
	jsonPath := strings.TrimSuffix(htmlPath, ".html") + ".json"
	rc.write(&res, jsonPath, func() (bool, error) { return rc.writer.WriteFile(jsonPath, data) })
	return res
}

// wrapMain renders the main layout around body. The layout sees title as
// "<title> - <site title>".
func (rc *renderContext) wrapMain(ctx context.Context, name, body, title string, vars *value.Mapping) (string, []errors.Diagnostic, error) {
	layout, _ := rc.site.Layout(rc.opts.MainLayout)

	layered := vars.Clone()
	layered.SetString("original_title", title)
	if title != "" && title != rc.siteName {
		layered.SetString(content.KeyTitle, title+" - "+rc.siteName)
	} else {
		layered.SetString(content.KeyTitle, rc.siteName)
	}

	out, err := rc.pipe.Wrap(ctx, name, layout, body, layered)
	return out.HTML, out.Diagnostics, err
}

func (rc *renderContext) write(res *TaskResult, rel string, write func() (bool, error)) {
	changed, err := write()
	if err != nil {
		res.Err = err
		return
	}
	if changed {
		res.Written = append(res.Written, rel)
	} else {
		res.Unchanged++
	}
}
