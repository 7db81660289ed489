// Package content reads the site source tree: posts and pages with front
// matter, the partial table, JSON data files and the site config document.
package content

import (
	"sort"
	"strings"
	"time"

	"github.com/conneroisu/quire/internal/value"
)

// Derived keys added to every item.
const (
	KeySlug           = "slug"
	KeyFileType       = "file_type"
	KeySourceFileName = "source_file_name"
	KeyContent        = "content"
	KeyTitle          = "title"
	KeyDate           = "date"
	KeyCategory       = "category"
	KeyUnlisted       = "unlisted"
	KeyLayout         = "layout"
	KeyCSS            = "css"
)

// dateLayouts are tried in order when reading the date key.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Item is one post or page: its front matter plus derived keys. The body is
// held under "content".
type Item struct {
	// Path is the file the item was read from.
	Path string
	Vars *value.Mapping
}

// Slug returns the item's slug.
func (it *Item) Slug() string { return it.Vars.GetString(KeySlug) }

// Title returns the item's title.
func (it *Item) Title() string { return it.Vars.GetString(KeyTitle) }

// Body returns the raw template text.
func (it *Item) Body() string { return it.Vars.GetString(KeyContent) }

// Category returns the category front matter value.
func (it *Item) Category() string { return strings.TrimSpace(it.Vars.GetString(KeyCategory)) }

// Listed reports whether the item appears in listings, pagination and feeds.
func (it *Item) Listed() bool {
	return !strings.EqualFold(strings.TrimSpace(it.Vars.GetString(KeyUnlisted)), "true")
}

// Date parses the date key. The zero time is returned when it is missing or
// unparseable.
func (it *Item) Date() time.Time {
	raw := strings.TrimSpace(it.Vars.GetString(KeyDate))
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Value exposes the item as a mapping value for templates.
func (it *Item) Value() value.Value { return value.FromMapping(it.Vars) }

// Collection is an ordered sequence of items.
type Collection []*Item

// Sort orders the collection most recent first: date descending, then slug
// descending.
func (c Collection) Sort() {
	sort.SliceStable(c, func(i, j int) bool {
		di, dj := c[i].Date(), c[j].Date()
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return c[i].Slug() > c[j].Slug()
	})
}

// Listed returns the items that appear in listings, keeping order.
func (c Collection) Listed() Collection {
	out := make(Collection, 0, len(c))
	for _, it := range c {
		if it.Listed() {
			out = append(out, it)
		}
	}
	return out
}

// Value exposes the collection as a sequence of mappings.
func (c Collection) Value() value.Value {
	items := make([]value.Value, len(c))
	for i, it := range c {
		items[i] = it.Value()
	}
	return value.Sequence(items...)
}

// Category is a group of listed posts sharing a category.
type Category struct {
	Name  string
	Slug  string
	Items Collection
}

// Categories groups listed items by category, sorted by slug. Items without
// a category are skipped. Names that slugify identically share a group
// named after the first one seen.
func (c Collection) Categories() []Category {
	index := map[string]int{}
	var out []Category
	for _, it := range c.Listed() {
		name := it.Category()
		if name == "" {
			continue
		}
		slug := Slugify(name)
		if slug == "" {
			continue
		}
		i, ok := index[slug]
		if !ok {
			i = len(out)
			index[slug] = i
			out = append(out, Category{Name: name, Slug: slug})
		}
		out[i].Items = append(out[i].Items, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// Slugify lowercases s and replaces every run of non-alphanumeric characters
// with a single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}
