package liquid

import (
	"strings"

	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/value"
)

// assignment is the parsed form of an assign tag.
type assignment struct {
	name    string
	source  string // path or quoted literal
	filters []filterCall
}

type filterCall struct {
	name string
	args []string // raw arguments, quotes preserved
}

// parseAssign parses "<name> = <source> [| filter: args ...]".
func parseAssign(tag Tag) (assignment, error) {
	var a assignment
	eq := indexOutsideQuotes(tag.Args, '=')
	if eq < 0 {
		return a, errors.NewTemplateSyntaxError(errors.ErrCodeMalformedTag,
			"assign requires '=': "+tag.String())
	}
	a.name = strings.TrimSpace(tag.Args[:eq])
	if !isIdentifier(a.name) {
		return a, errors.NewTemplateSyntaxError(errors.ErrCodeMalformedTag,
			"invalid assign target in "+tag.String())
	}

	parts := splitOutsideQuotes(tag.Args[eq+1:], "|")
	a.source = strings.TrimSpace(parts[0])
	if a.source == "" || !(isQuoted(a.source) || isPath(a.source)) {
		return a, errors.NewTemplateSyntaxError(errors.ErrCodeMalformedTag,
			"invalid assign source in "+tag.String())
	}

	for _, raw := range parts[1:] {
		raw = strings.TrimSpace(raw)
		name, rest := raw, ""
		if idx := indexOutsideQuotes(raw, ':'); idx >= 0 {
			name, rest = strings.TrimSpace(raw[:idx]), raw[idx+1:]
		}
		var args []string
		for _, arg := range splitOutsideQuotes(rest, ",:") {
			if arg = strings.TrimSpace(arg); arg != "" {
				args = append(args, arg)
			}
		}
		a.filters = append(a.filters, filterCall{name: name, args: args})
	}
	return a, nil
}

// assign evaluates an assign tag and binds the result in the nearest page or
// partial frame. The tag itself produces no output.
func (st *renderState) assign(tag Tag, scope *value.Scope) error {
	a, err := parseAssign(tag)
	if err != nil {
		return err
	}

	var result value.Value
	if isQuoted(a.source) {
		result = value.Scalar(unquote(a.source))
	} else {
		v, ok := scope.Resolve(a.source)
		if !ok {
			if st.engine.opts.StrictVariables {
				st.miss(errors.ErrCodeUnknownVariable, "unknown assign source: "+a.source)
			}
			v = value.Sequence()
		}
		result = v
	}

	for _, f := range a.filters {
		result, err = applyFilter(f, result, scope)
		if err != nil {
			return err
		}
	}

	scope.Assign(a.name, result)
	st.recordAssign(a.name)
	return nil
}

// applyFilter runs one filter. where is the only filter understood.
func applyFilter(f filterCall, in value.Value, scope *value.Scope) (value.Value, error) {
	switch f.name {
	case "where":
		if len(f.args) != 2 {
			return value.Nil, errors.NewTemplateSyntaxError(errors.ErrCodeMalformedTag,
				"where expects a field and a value")
		}
		return where(in, unquote(f.args[0]), f.args[1]), nil
	default:
		return value.Nil, errors.NewTemplateSyntaxError(errors.ErrCodeUnknownFilter,
			"unknown filter: "+f.name)
	}
}

// where keeps the elements of a sequence whose field equals want, preserving
// order. A bare nil matches elements where the field is missing or empty.
// Input that is not a sequence yields an empty sequence.
func where(in value.Value, field, want string) value.Value {
	matchNil := want == "nil"
	want = unquote(want)

	kept := make([]value.Value, 0, in.Len())
	for _, item := range in.Items() {
		got, ok := item.Lookup(value.SplitPath(field))
		if matchNil {
			if !ok || got.Empty() {
				kept = append(kept, item)
			}
			continue
		}
		if ok && got.Kind() == value.KindScalar && got.String() == want {
			kept = append(kept, item)
		}
	}
	return value.Sequence(kept...)
}
