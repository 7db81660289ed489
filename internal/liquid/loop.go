package liquid

import (
	"strconv"
	"strings"

	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/value"
)

// loopSpec is the parsed head of a for tag.
type loopSpec struct {
	item     string
	source   string
	limit    int // -1 when absent
	offset   int
	reversed bool
}

// parseLoop parses "<item> in <path> [limit:N] [offset:N] [reversed]".
func parseLoop(tag Tag) (loopSpec, error) {
	spec := loopSpec{limit: -1}
	fields := splitArgs(normalizeColonArgs(tag.Args))
	if len(fields) < 3 || fields[1] != "in" {
		return spec, errors.NewTemplateSyntaxError(errors.ErrCodeMalformedTag,
			"invalid for loop syntax: "+tag.String())
	}
	spec.item = fields[0]
	spec.source = fields[2]
	if !isIdentifier(spec.item) || !isPath(spec.source) {
		return spec, errors.NewTemplateSyntaxError(errors.ErrCodeMalformedTag,
			"invalid for loop syntax: "+tag.String())
	}

	for _, f := range fields[3:] {
		switch {
		case f == "reversed":
			spec.reversed = true
		case strings.HasPrefix(f, "limit:"):
			n, err := parseCount(strings.TrimPrefix(f, "limit:"))
			if err != nil {
				return spec, errors.NewTemplateSyntaxError(errors.ErrCodeInvalidLimit,
					"invalid limit in "+tag.String())
			}
			spec.limit = n
		case strings.HasPrefix(f, "offset:"):
			n, err := parseCount(strings.TrimPrefix(f, "offset:"))
			if err != nil {
				return spec, errors.NewTemplateSyntaxError(errors.ErrCodeInvalidLimit,
					"invalid offset in "+tag.String())
			}
			spec.offset = n
		default:
			return spec, errors.NewTemplateSyntaxError(errors.ErrCodeMalformedTag,
				"unknown for loop argument "+strconv.Quote(f))
		}
	}
	return spec, nil
}

// normalizeColonArgs joins "limit: 2" into "limit:2".
func normalizeColonArgs(args string) string {
	for _, key := range []string{"limit", "offset"} {
		for {
			idx := strings.Index(args, key+": ")
			if idx < 0 {
				break
			}
			rest := strings.TrimLeft(args[idx+len(key)+1:], " ")
			args = args[:idx] + key + ":" + rest
		}
	}
	return args
}

// parseCount accepts a non-negative decimal integer literal.
func parseCount(s string) (int, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

// loop expands a for block once per element of its collection. Each
// iteration gets its own loop layer binding the item and forloop metadata;
// the body is expanded in that layer and its loop-bound placeholders are
// substituted before the layer is dropped.
func (st *renderState) loop(text string, block Block, scope *value.Scope) (string, error) {
	spec, err := parseLoop(block.Open)
	if err != nil {
		return "", err
	}

	segs := block.Segments(text)
	body := segs[0].Text
	elseBody := ""
	if len(segs) > 1 {
		elseBody = segs[1].Text
	}

	items := st.collection(spec.source, scope)
	items = window(items, spec)

	if len(items) == 0 {
		if elseBody == "" {
			return "", nil
		}
		return st.walk(elseBody, scope)
	}

	var out strings.Builder
	n := len(items)
	for i, item := range items {
		iter := scope.NewLoop()
		iter.Set(spec.item, item)
		iter.Set("forloop", value.FromMapping(forloopMeta(i, n)))

		st.local++
		expanded, err := st.walk(body, iter)
		st.local--
		if err != nil {
			return "", err
		}
		out.WriteString(interpolateLocal(expanded, iter, st.deferred))
	}
	return out.String(), nil
}

// collection resolves a loop source to its elements. Anything that is not a
// sequence iterates zero times.
func (st *renderState) collection(path string, scope *value.Scope) []value.Value {
	v, ok := scope.Resolve(path)
	switch {
	case !ok:
		if st.engine.opts.StrictVariables {
			st.miss(errors.ErrCodeUnknownVariable, "unknown loop collection: "+path)
		}
		return nil
	case v.Kind() != value.KindSequence:
		st.miss(errors.ErrCodeNotACollection, "loop collection is not a sequence: "+path)
		return nil
	}
	return v.Items()
}

// window applies offset, limit and reversed to items without modifying it.
func window(items []value.Value, spec loopSpec) []value.Value {
	if spec.offset > 0 {
		if spec.offset >= len(items) {
			return nil
		}
		items = items[spec.offset:]
	}
	if spec.limit >= 0 && spec.limit < len(items) {
		items = items[:spec.limit]
	}
	if spec.reversed {
		rev := make([]value.Value, len(items))
		for i, item := range items {
			rev[len(items)-1-i] = item
		}
		items = rev
	}
	return items
}

// forloopMeta builds the forloop mapping for iteration i of n.
func forloopMeta(i, n int) *value.Mapping {
	m := value.NewMapping()
	m.Set("index", value.Int(i+1))
	m.Set("index0", value.Int(i))
	m.Set("rindex", value.Int(n-i))
	m.Set("rindex0", value.Int(n-i-1))
	m.Set("first", value.Bool(i == 0))
	m.Set("last", value.Bool(i == n-1))
	m.Set("length", value.Int(n))
	return m
}
