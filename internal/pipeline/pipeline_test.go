package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/liquid"
	"github.com/conneroisu/quire/internal/markdown"
	"github.com/conneroisu/quire/internal/value"
)

func newPipeline(t *testing.T, partials map[string]string) *Pipeline {
	t.Helper()
	table, err := liquid.PartialsFromMap(partials)
	require.NoError(t, err)
	globals := value.NewGlobalScope(value.MappingOf(
		"site_title", "Quire",
		"data", map[string]interface{}{
			"navigation": []interface{}{
				map[string]interface{}{"title": "Home", "url": "/"},
				map[string]interface{}{"title": "About", "url": "/about"},
			},
		},
	))
	return New(liquid.NewEngine(table, liquid.Options{}), markdown.NewBuiltin(markdown.Options{LineBreaks: true}), globals, nil)
}

func TestRoundTrip(t *testing.T) {
	p := newPipeline(t, nil)
	ctx := context.Background()

	vars := value.MappingOf("title", "Hi", "file_type", "md")
	body, err := p.Render(ctx, Page{Name: "hi.md", Body: "# Hi\n\nBody **bold**.", Vars: vars})
	require.NoError(t, err)
	assert.Equal(t, StageFinal, body.Stage)

	page, err := p.Wrap(ctx, "main.html", "<html><title>{{title}}</title><main>{{ body }}</main></html>", body.HTML, vars)
	require.NoError(t, err)

	assert.Contains(t, page.HTML, "<h1>Hi</h1>")
	assert.Contains(t, page.HTML, "<strong>bold</strong>")
	assert.Equal(t, 1, strings.Count(page.HTML, "<title>Hi</title>"))
	assert.Empty(t, page.Diagnostics)
}

func TestMarkdownOnlyWhenFileTypeSaysSo(t *testing.T) {
	p := newPipeline(t, nil)
	ctx := context.Background()

	out, err := p.Render(ctx, Page{Body: "# Title", Vars: value.MappingOf("file_type", "html")})
	require.NoError(t, err)
	assert.Equal(t, "# Title", out.HTML)
	assert.Equal(t, StageFinal, out.Stage)

	out, err = p.Render(ctx, Page{Body: "# Title"})
	require.NoError(t, err)
	assert.Equal(t, "<h1>Title</h1>", out.HTML)
}

func TestValuesAreNotReinterpretedAsMarkdown(t *testing.T) {
	p := newPipeline(t, nil)
	vars := value.MappingOf("file_type", "md", "snippet", "**not bold**", "tmpl", "{{ site_title }}")

	out, err := p.Render(context.Background(), Page{
		Body: "{{ snippet }} {{ tmpl }}\n\n{% for item in data.navigation %}\n- {{ item.title }} *x*\n{% endfor %}",
		Vars: vars,
	})
	require.NoError(t, err)
	assert.Contains(t, out.HTML, "<p>**not bold** {{ site_title }}</p>")
	assert.Contains(t, out.HTML, "<li>Home <em>x</em></li>")
	assert.Contains(t, out.HTML, "<li>About <em>x</em></li>")
}

func TestPlaceholdersWorkAsLinkDestinations(t *testing.T) {
	p := newPipeline(t, nil)
	vars := value.MappingOf("file_type", "md", "home", "/index.html", "label", "*Home*")

	out, err := p.Render(context.Background(), Page{
		Body: "Visit [home]({{ home }}) and [x]({{home}}), or [{{ label }}]({{ home }}).",
		Vars: vars,
	})
	require.NoError(t, err)
	assert.Equal(t,
		`<p>Visit <a href="/index.html">home</a> and <a href="/index.html">x</a>, or <a href="/index.html">*Home*</a>.</p>`,
		out.HTML)
	assert.Empty(t, out.Diagnostics)
}

func TestUnknownPlaceholderBeforeMarkdownIsReported(t *testing.T) {
	p := newPipeline(t, nil)
	out, err := p.Render(context.Background(), Page{Body: "a {{ nope }} b", Vars: value.MappingOf("file_type", "md")})
	require.NoError(t, err)
	assert.Equal(t, "<p>a  b</p>", out.HTML)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, errors.ErrCodeUnknownVariable, out.Diagnostics[0].Code)
}

func TestLoopItemsWithMarkdownCharactersStayLiteral(t *testing.T) {
	p := newPipeline(t, nil)
	vars := value.MappingOf("file_type", "md", "items", []interface{}{
		map[string]interface{}{"title": "_under_"},
	})
	out, err := p.Render(context.Background(), Page{
		Body: "{% for p in items %}{{ p.title }}{% endfor %}",
		Vars: vars,
	})
	require.NoError(t, err)
	assert.Equal(t, "<p>_under_</p>", out.HTML)
}

func TestRenderWithPartials(t *testing.T) {
	p := newPipeline(t, map[string]string{
		"nav/menu.liquid": "{% for link in data.navigation %}<a href=\"{{ link.url }}\">{{ link.title }}</a>{% endfor %}",
		"card.liquid":     "<div>{{ title }}</div>",
	})

	out, err := p.RenderTemplate(context.Background(), Page{
		Name: "layout",
		Body: `<nav>{% render 'nav/menu' %}</nav>{% render 'card' title:"X" %}{{ title }}{% render 'ghost' %}`,
		Vars: value.MappingOf("title", "caller"),
	})
	require.NoError(t, err)
	assert.Equal(t, `<nav><a href="/">Home</a><a href="/about">About</a></nav><div>X</div>caller`, out.HTML)
	require.Len(t, out.Diagnostics, 1)
	assert.Equal(t, errors.ErrCodeMissingPartial, out.Diagnostics[0].Code)
	assert.Equal(t, "layout", out.Diagnostics[0].Page)
}

func TestSyntaxErrorStopsPage(t *testing.T) {
	p := newPipeline(t, nil)
	out, err := p.Render(context.Background(), Page{Name: "broken.md", Body: "{% if a %}no endif"})
	require.Error(t, err)
	assert.True(t, errors.IsTemplateSyntax(err))
	assert.Contains(t, err.Error(), "broken.md")
	assert.Equal(t, StageRaw, out.Stage)
	assert.Empty(t, out.HTML)
}

func TestRecursionLimitStopsPage(t *testing.T) {
	p := newPipeline(t, map[string]string{"loop": "{% render 'loop' %}"})
	_, err := p.Render(context.Background(), Page{Name: "cycle", Body: "{% render 'loop' %}"})
	require.Error(t, err)
	assert.True(t, errors.IsRecursionLimit(err))
	assert.True(t, errors.IsFatalToPage(err))
}

func TestWrapDoesNotEvaluateBody(t *testing.T) {
	p := newPipeline(t, nil)
	out, err := p.Wrap(context.Background(), "main", "[{{ body }}]", "{% if x %}{{ site_title }}", nil)
	require.NoError(t, err)
	assert.Equal(t, "[{% if x %}{{ site_title }}]", out.HTML)
}

func TestCancelledContext(t *testing.T) {
	p := newPipeline(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Render(ctx, Page{Body: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "raw", StageRaw.String())
	assert.Equal(t, "expanded", StageExpanded.String())
	assert.Equal(t, "converted", StageConverted.String())
	assert.Equal(t, "final", StageFinal.String())
	assert.Equal(t, "unknown", Stage(42).String())
}
