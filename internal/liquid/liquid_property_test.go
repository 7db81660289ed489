//go:build property
// +build property

package liquid

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/quire/internal/value"
)

func expandAll(text string, scope *value.Scope) (string, error) {
	res, err := NewEngine(nil, Options{}).Expand(text, scope, nil)
	if err != nil {
		return "", err
	}
	out, _ := Interpolate(res.Text, scope, nil)
	return out, nil
}

// TestNestingDepthProperties checks nested conditionals and loops at depths 1..5.
func TestNestingDepthProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("nested if emits X only when every level is true", prop.ForAll(
		func(flags []bool) bool {
			var open, close strings.Builder
			pairs := make([]interface{}, 0, len(flags)*2)
			all := true
			for i, f := range flags {
				name := fmt.Sprintf("v%d", i)
				open.WriteString("{% if " + name + " %}")
				close.WriteString("{% endif %}")
				pairs = append(pairs, name, f)
				all = all && f
			}
			out, err := expandAll(open.String()+"X"+close.String(), pageScope(pairs...))
			if err != nil {
				return false
			}
			if all {
				return out == "X"
			}
			return out == ""
		},
		gen.SliceOfN(5, gen.Bool()).SuchThat(func(v []bool) bool { return len(v) > 0 }),
	))

	properties.Property("nested loops multiply iteration counts", prop.ForAll(
		func(depth, size int) bool {
			var open, close strings.Builder
			for i := 0; i < depth; i++ {
				open.WriteString(fmt.Sprintf("{%% for x%d in items %%}", i))
				close.WriteString("{% endfor %}")
			}
			out, err := expandAll(open.String()+"."+close.String(), pageScope("items", items(size)))
			if err != nil {
				return false
			}
			want := 1
			for i := 0; i < depth; i++ {
				want *= size
			}
			return len(out) == want
		},
		gen.IntRange(1, 5),
		gen.IntRange(0, 3),
	))

	properties.Property("unterminated blocks always fail", prop.ForAll(
		func(depth int, kind int) bool {
			opens := []string{"{% if a %}", "{% unless a %}", "{% for p in items %}"}
			var b strings.Builder
			for i := 0; i < depth; i++ {
				b.WriteString(opens[(kind+i)%len(opens)])
			}
			b.WriteString("body")
			_, err := expandAll(b.String(), pageScope("a", "true", "items", items(1)))
			return err != nil
		},
		gen.IntRange(1, 5),
		gen.IntRange(0, 2),
	))

	properties.TestingRun(t)
}

// TestLoopProperties checks forloop metadata and limit truncation.
func TestLoopProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("limit truncates to min(limit, size)", prop.ForAll(
		func(size, limit int) bool {
			text := fmt.Sprintf("{%% for p in items limit:%d %%}{{forloop.length}};{%% endfor %%}", limit)
			out, err := expandAll(text, pageScope("items", items(size)))
			if err != nil {
				return false
			}
			n := size
			if limit < n {
				n = limit
			}
			return out == strings.Repeat(fmt.Sprintf("%d;", n), n)
		},
		gen.IntRange(0, 12),
		gen.IntRange(0, 12),
	))

	properties.Property("index and index0 agree", prop.ForAll(
		func(size int) bool {
			out, err := expandAll("{% for p in items %}{{forloop.index}}/{{forloop.index0}} {% endfor %}",
				pageScope("items", items(size)))
			if err != nil {
				return false
			}
			var want strings.Builder
			for i := 0; i < size; i++ {
				fmt.Fprintf(&want, "%d/%d ", i+1, i)
			}
			return out == want.String()
		},
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}

// TestWhereProperties checks that where keeps exactly the matching items in order.
func TestWhereProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("where preserves relative order", prop.ForAll(
		func(cats []bool) bool {
			posts := make([]interface{}, len(cats))
			var want strings.Builder
			for i, music := range cats {
				cat := "art"
				if music {
					cat = "music"
					fmt.Fprintf(&want, "t%d ", i)
				}
				posts[i] = map[string]interface{}{"title": fmt.Sprintf("t%d", i), "category": cat}
			}
			out, err := expandAll(
				`{% assign hot = posts | where: category: "music" %}{% for p in hot %}{{p.title}} {% endfor %}`,
				pageScope("posts", posts))
			return err == nil && out == want.String()
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}

// TestInterpolationProperties checks unknown-path safety and idempotence.
func TestInterpolationProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("unknown paths render empty", prop.ForAll(
		func(path string) bool {
			out, _ := Interpolate("{{ "+path+" }}", pageScope(), nil)
			return out == ""
		},
		gen.Identifier(),
	))

	properties.Property("interpolating resolved text is a no-op", prop.ForAll(
		func(text string) bool {
			scope := pageScope("title", "Hi")
			once, _ := Interpolate(text+"{{ title }}", scope, nil)
			twice, _ := Interpolate(once, scope, nil)
			return once == twice
		},
		gen.AlphaString(),
	))

	properties.Property("render params never leak to the caller", prop.ForAll(
		func(param string) bool {
			partials, err := PartialsFromMap(map[string]string{"card": "{{ title }}"})
			if err != nil {
				return false
			}
			scope := pageScope("title", "caller")
			res, err := NewEngine(partials, Options{}).
				Expand(`{% render 'card' title:"`+param+`" %}|{{ title }}`, scope, nil)
			if err != nil {
				return false
			}
			out, _ := Interpolate(res.Text, scope, nil)
			return out == param+"|caller"
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
