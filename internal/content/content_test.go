package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/value"
)

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
}

func TestParseFrontMatter(t *testing.T) {
	t.Run("yaml", func(t *testing.T) {
		vars, body, err := ParseFrontMatter([]byte("---\ntitle: Hi\ntags: [a, b]\ndraft: true\ncount: 3\n---\n# Body\n"))
		require.NoError(t, err)
		assert.Equal(t, "Hi", vars.GetString("title"))
		assert.Equal(t, "true", vars.GetString("draft"))
		assert.Equal(t, "3", vars.GetString("count"))
		tags, _ := vars.Get("tags")
		assert.Equal(t, 2, tags.Len())
		assert.Equal(t, "# Body", strings.TrimSpace(body))
	})

	t.Run("toml", func(t *testing.T) {
		vars, body, err := ParseFrontMatter([]byte("+++\ntitle = \"T\"\ndate = 2024-03-01\n+++\nBody"))
		require.NoError(t, err)
		assert.Equal(t, "T", vars.GetString("title"))
		assert.Equal(t, "2024-03-01", vars.GetString("date"))
		assert.Equal(t, "Body", strings.TrimSpace(body))
	})

	t.Run("none", func(t *testing.T) {
		vars, body, err := ParseFrontMatter([]byte("just text"))
		require.NoError(t, err)
		assert.Equal(t, 0, vars.Len())
		assert.Equal(t, "just text", body)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, _, err := ParseFrontMatter([]byte("---\ntitle: [unclosed\n---\nbody"))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeIO))
	})
}

func TestReadItemDerivedKeys(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "about.html.liquid")
	writeFile(t, path, "---\nlayout: wide\n---\n<p>{{ title }}</p>")

	it, err := ReadItem(path)
	require.NoError(t, err)
	assert.Equal(t, "about", it.Slug())
	assert.Equal(t, "liquid", it.Vars.GetString(KeyFileType))
	assert.Equal(t, "about.html.liquid", it.Vars.GetString(KeySourceFileName))
	assert.Equal(t, "About", it.Title())
	assert.Contains(t, it.Body(), "<p>{{ title }}</p>")
	assert.Equal(t, "wide", it.Vars.GetString(KeyLayout))
}

func TestReadItemSlugOverride(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "2024-01-01-post.md")
	writeFile(t, path, "---\nslug: hello-world\n---\nbody")
	it, err := ReadItem(path)
	require.NoError(t, err)
	assert.Equal(t, "hello-world", it.Slug())
	assert.Equal(t, "Hello World", it.Title())
	assert.Equal(t, "md", it.Vars.GetString(KeyFileType))

	bad := filepath.Join(dir, "bad.md")
	writeFile(t, bad, "---\nslug: ../../etc/passwd\n---\nbody")
	_, err = ReadItem(bad)
	require.Error(t, err)
	assert.True(t, errors.IsSecurityError(err))
}

func TestReadCollectionOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "old.md"), "---\ndate: 2023-01-01\n---\nold")
	writeFile(t, filepath.Join(dir, "new.md"), "---\ndate: 2024-06-01\n---\nnew")
	writeFile(t, filepath.Join(dir, "b.md"), "---\ndate: 2024-01-01\n---\nb")
	writeFile(t, filepath.Join(dir, "c.md"), "---\ndate: 2024-01-01\n---\nc")
	writeFile(t, filepath.Join(dir, "undated.md"), "undated")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, "sub", "nested.md"), "ignored")

	col, err := ReadCollection(dir)
	require.NoError(t, err)

	var slugs []string
	for _, it := range col {
		slugs = append(slugs, it.Slug())
	}
	assert.Equal(t, []string{"new", "c", "b", "old", "undated"}, slugs)

	missing, err := ReadCollection(filepath.Join(dir, "nope"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestItemDate(t *testing.T) {
	it := &Item{Vars: value.MappingOf("date", "2024-02-03T10:00:00Z")}
	assert.Equal(t, time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC), it.Date())

	it = &Item{Vars: value.MappingOf("date", "last tuesday")}
	assert.True(t, it.Date().IsZero())
}

func TestListedAndCategories(t *testing.T) {
	col := Collection{
		{Vars: value.MappingOf("slug", "a", "category", "Music")},
		{Vars: value.MappingOf("slug", "b", "category", "Art & Design")},
		{Vars: value.MappingOf("slug", "c", "category", "music", "unlisted", "true")},
		{Vars: value.MappingOf("slug", "d", "category", "music")},
		{Vars: value.MappingOf("slug", "e")},
	}

	listed := col.Listed()
	require.Len(t, listed, 4)

	cats := col.Categories()
	require.Len(t, cats, 2)
	assert.Equal(t, "art-design", cats[0].Slug)
	assert.Equal(t, "Art & Design", cats[0].Name)
	assert.Equal(t, "music", cats[1].Slug)
	assert.Equal(t, "Music", cats[1].Name)
	require.Len(t, cats[1].Items, 2)
	assert.Equal(t, "d", cats[1].Items[1].Slug())

	seq := listed.Value()
	assert.Equal(t, 4, seq.Len())
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Music":          "music",
		"Art & Design":   "art-design",
		"  Go 1.24!  ":   "go-1-24",
		"already-a-slug": "already-a-slug",
		"***":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestTitleFromSlug(t *testing.T) {
	assert.Equal(t, "Hello World", TitleFromSlug("hello-world"))
	assert.Equal(t, "Snake Case Name", TitleFromSlug("snake_case__name"))
}

func TestLoadPartials(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "card.liquid"), "[{{ title }}]")
	writeFile(t, filepath.Join(dir, "nav", "menu.liquid"), "menu")
	writeFile(t, filepath.Join(dir, "README.md"), "ignored")

	table, err := LoadPartials(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"card", "nav/menu"}, table.Keys())

	p, ok, err := table.Lookup("nav/menu.liquid")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "menu", p.Text)

	require.Error(t, table.Add("late", "late", "x"), "table must be frozen")
}

func TestLoadPartialsConflict(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "nav", "menu.html"), "a")
	writeFile(t, filepath.Join(dir, "nav", "menu.liquid"), "b")

	_, err := LoadPartials(dir)
	require.Error(t, err)
	assert.True(t, errors.IsLoadConflict(err))
	assert.Contains(t, err.Error(), "menu.html")
	assert.Contains(t, err.Error(), "menu.liquid")
}

func TestLoadPartialsMissingDir(t *testing.T) {
	table, err := LoadPartials(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
}

func TestLoadData(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "navigation.json"), `[{"title":"Home","url":"/"},{"title":"About","url":"/about"}]`)
	writeFile(t, filepath.Join(dir, "site.json"), `{"version": 2, "author": {"name": "Ada"}}`)
	writeFile(t, filepath.Join(dir, "broken.json"), `{`)

	data, diags, err := LoadData(dir)
	require.NoError(t, err)
	require.Len(t, diags, 1)
	assert.Equal(t, errors.ErrCodeInvalidData, diags[0].Code)

	nav, ok := data.Get("navigation")
	require.True(t, ok)
	assert.Equal(t, 2, nav.Len())

	v, ok := data.Get("site")
	require.True(t, ok)
	name, ok := v.Lookup([]string{"author", "name"})
	require.True(t, ok)
	assert.Equal(t, "Ada", name.String())
	version, _ := v.Field("version")
	assert.Equal(t, "2", version.String())

	assert.False(t, data.Has("broken"))
}

func TestReadSiteConfig(t *testing.T) {
	dir := t.TempDir()
	vars, err := ReadSiteConfig(filepath.Join(dir, "config.md"))
	require.NoError(t, err)
	assert.Equal(t, 0, vars.Len())

	writeFile(t, filepath.Join(dir, "config.md"), "---\ntitle: Blog\nposts_per_page: 3\n---\n")
	vars, err = ReadSiteConfig(filepath.Join(dir, "config.md"))
	require.NoError(t, err)
	assert.Equal(t, "Blog", vars.GetString("title"))
	assert.Equal(t, "3", vars.GetString("posts_per_page"))
}
