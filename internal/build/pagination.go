package build

import (
	"context"
	"fmt"
	"path"
	"strconv"

	"github.com/conneroisu/quire/internal/content"
	"github.com/conneroisu/quire/internal/pipeline"
	"github.com/conneroisu/quire/internal/value"
)

// Partials that, when present, replace the built-in listing template.
const (
	PaginationPartial         = "pagination_layout"
	CategoryPaginationPartial = "category_pagination_layout"
)

// fallbackListing renders page_posts followed by the page navigation when the
// site has no pagination partial.
const fallbackListing = `<div class="post-list">
{% for post in page_posts %}<article class="post-summary">
<h2><a href="/posts/{{ post.slug }}.html">{{ post.title }}</a></h2>
<p class="post-meta">{{ post.date }}</p>
</article>
{% endfor %}</div>
{% if has_pagination %}<ul class="pagination">
{% if has_previous %}<li><a href="{{ previous_page_url }}">&laquo; Previous</a></li>{% endif %}
{% for link in page_links %}{% if link.current %}<li class="current"><span>{{ link.number }}</span></li>{% else %}<li><a href="{{ link.url }}">{{ link.number }}</a></li>{% endif %}{% endfor %}
{% if has_next %}<li><a href="{{ next_page_url }}">Next &raquo;</a></li>{% endif %}
</ul>{% endif %}`

// listing is one paginated series of posts: the site-wide one or a category.
type listing struct {
	// name is used in task names and diagnostics.
	name string
	// dir is the output directory relative to the root, "" for the site.
	dir      string
	template string
	posts    content.Collection
	extra    *value.Mapping
	title    string
}

// Paginate splits items into pages of size perPage. An empty collection
// yields no pages.
func Paginate(items content.Collection, perPage int) []content.Collection {
	if perPage <= 0 {
		perPage = DefaultPostsPerPage
	}
	var pages []content.Collection
	for start := 0; start < len(items); start += perPage {
		end := start + perPage
		if end > len(items) {
			end = len(items)
		}
		pages = append(pages, items[start:end])
	}
	return pages
}

// PageURL returns the URL of page n of the listing rooted at dir.
func PageURL(dir string, n int) string {
	return "/" + path.Join(dir, "page"+strconv.Itoa(n))
}

func categoryURL(slug string, n int) string {
	return PageURL(path.Join("category", slug), n)
}

// PageVars builds the variables for page n of total.
func PageVars(dir string, n, total int, posts content.Collection) *value.Mapping {
	vars := value.NewMapping()
	vars.Set("page_number", value.Int(n))
	vars.Set("total_pages", value.Int(total))
	vars.Set("has_pagination", value.Bool(total > 1))
	vars.Set("has_previous", value.Bool(n > 1))
	vars.Set("has_next", value.Bool(n < total))
	if n > 1 {
		vars.Set("previous_page_number", value.Int(n-1))
		vars.SetString("previous_page_url", PageURL(dir, n-1))
	}
	if n < total {
		vars.Set("next_page_number", value.Int(n+1))
		vars.SetString("next_page_url", PageURL(dir, n+1))
	}
	vars.Set("page_posts", posts.Value())

	links := make([]value.Value, total)
	for i := 1; i <= total; i++ {
		links[i-1] = value.FromMapping(value.MappingOf(
			"number", strconv.Itoa(i),
			"url", PageURL(dir, i),
			"current", i == n,
		))
	}
	vars.Set("page_links", value.Sequence(links...))
	return vars
}

func (rc *renderContext) partialText(names ...string) (string, bool) {
	for _, name := range names {
		p, ok, err := rc.site.Partials.Lookup(name)
		if err == nil && ok {
			return p.Text, true
		}
	}
	return "", false
}

func (rc *renderContext) listings() []listing {
	listed := rc.site.Posts.Listed()

	siteTemplate, ok := rc.partialText(PaginationPartial)
	if !ok {
		siteTemplate = fallbackListing
	}
	out := []listing{{name: "pagination", template: siteTemplate, posts: listed}}

	categoryTemplate, ok := rc.partialText(CategoryPaginationPartial, PaginationPartial)
	if !ok {
		categoryTemplate = fallbackListing
	}
	for _, cat := range rc.site.Posts.Categories() {
		out = append(out, listing{
			name:     "category/" + cat.Slug,
			dir:      path.Join("category", cat.Slug),
			template: categoryTemplate,
			posts:    cat.Items,
			title:    cat.Name,
			extra:    value.MappingOf("category_name", cat.Name, "category_slug", cat.Slug),
		})
	}
	return out
}

// listingTasks returns one task per listing page.
func (rc *renderContext) listingTasks() []Task {
	perPage := rc.site.PostsPerPage(rc.opts)
	var tasks []Task
	for _, l := range rc.listings() {
		pages := Paginate(l.posts, perPage)
		for i, posts := range pages {
			l, n, total, posts := l, i+1, len(pages), posts
			name := path.Join(l.name, "page"+strconv.Itoa(n))
			tasks = append(tasks, Task{
				Name: name,
				Run: func(ctx context.Context) TaskResult {
					return rc.renderListing(ctx, name, l, n, total, posts)
				},
			})
		}
	}
	return tasks
}

func (rc *renderContext) renderListing(ctx context.Context, name string, l listing, n, total int, posts content.Collection) TaskResult {
	res := TaskResult{Name: name}

	vars := PageVars(l.dir, n, total, posts)
	if l.extra != nil {
		vars.Merge(l.extra)
	}
	title := fmt.Sprintf("Page %d", n)
	if l.title != "" {
		title = l.title + " - " + title
	}
	vars.SetString(content.KeyTitle, title)

	out, err := rc.pipe.RenderTemplate(ctx, pipeline.Page{Name: name, Body: l.template, Vars: vars})
	res.Diagnostics = append(res.Diagnostics, out.Diagnostics...)
	if err != nil {
		res.Err = err
		return res
	}

	page, diags, err := rc.wrapMain(ctx, name, out.HTML, title, vars)
	res.Diagnostics = append(res.Diagnostics, diags...)
	if err != nil {
		res.Err = err
		return res
	}

	rel := path.Join(l.dir, "page"+strconv.Itoa(n)+".html")
	rc.write(&res, rel, func() (bool, error) { return rc.writer.WriteHTML(rel, page) })
	return res
}
