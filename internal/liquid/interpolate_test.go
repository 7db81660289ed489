package liquid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/value"
)

func TestInterpolate(t *testing.T) {
	scope := pageScope(
		"title", "Hi",
		"author", map[string]interface{}{"name": "Ada"},
		"items", items(2),
	)

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"simple", "{{title}}", "Hi"},
		{"whitespace insignificant", "{{   title\t}}", "Hi"},
		{"dotted", "by {{ author.name }}", "by Ada"},
		{"numeric segment", "{{ items.1.title }}", "b"},
		{"unknown is empty", "[{{ nonexistent.path }}]", "[]"},
		{"collections render empty", "[{{ items }}]", "[]"},
		{"invalid leading digit stays", "{{ 1abc }}", "{{ 1abc }}"},
		{"filters are not interpolated", "{{ title | upcase }}", "{{ title | upcase }}"},
		{"empty braces stay", "{{}}{{ }}", "{{}}{{ }}"},
		{"unclosed stays", "{{ title", "{{ title"},
		{"adjacent", "{{title}}{{title}}", "HiHi"},
		{"invalid then valid", "{{ - }}{{ title }}", "{{ - }}Hi"},
		{"no placeholders", "plain text", "plain text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _ := Interpolate(tt.text, scope, nil)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestInterpolateDiagnostics(t *testing.T) {
	out, diags := Interpolate("{{ a }}{{ title }}{{ b.c }}", pageScope("title", "x"), nil)
	assert.Equal(t, "x", out)
	require.Len(t, diags, 2)
	assert.Equal(t, errors.ErrCodeUnknownVariable, diags[0].Code)
	assert.Contains(t, diags[1].Message, "b.c")
}

func TestInterpolateDoesNotRescanValues(t *testing.T) {
	scope := pageScope("a", "{{ b }}", "b", "nope")
	out, _ := Interpolate("{{ a }}", scope, nil)
	assert.Equal(t, "{{ b }}", out)
}

func TestInterpolateIdempotentOnResolvedText(t *testing.T) {
	scope := pageScope("title", "Hi")
	once, _ := Interpolate("<h1>{{ title }}</h1>{{ missing }}", scope, nil)
	twice, _ := Interpolate(once, scope, nil)
	assert.Equal(t, once, twice)
}

func TestDeferredTokens(t *testing.T) {
	d := NewDeferred()
	tok := d.Hold("value with {{ title }}")

	out, _ := Interpolate("a"+tok+"b{{ title }}", pageScope("title", "T"), d)
	assert.Equal(t, "avalue with {{ title }}bT", out)

	t.Run("unknown index is copied through", func(t *testing.T) {
		bad := deferOpen + "7" + deferClose
		out, _ := Interpolate(bad, pageScope(), d)
		assert.Equal(t, bad, out)
	})

	t.Run("nil table", func(t *testing.T) {
		out, _ := Interpolate(tok, pageScope(), nil)
		assert.Equal(t, tok, out)
	})
}

func TestInterpolateLocal(t *testing.T) {
	page := pageScope("title", "page")
	loop := page.NewLoop()
	loop.Set("p", value.Scalar("x"))

	out := interpolateLocal("{{ p }}|{{ title }}|{{ 9 }}", loop, nil)
	assert.Equal(t, "x|{{ title }}|{{ 9 }}", out)

	d := NewDeferred()
	held := interpolateLocal("{{ p }}", loop, d)
	assert.Equal(t, deferOpen+"0"+deferClose, held)
}
