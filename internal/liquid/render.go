package liquid

import (
	"strings"

	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/value"
)

// renderCall is the parsed form of a render or include tag.
type renderCall struct {
	name   string
	params []renderParam
}

type renderParam struct {
	key   string
	raw   string // quoted literal or variable path
	isLit bool
}

// parseRender parses "'<name>' [key:"value" | key: path ...]". render
// requires the name to be quoted; include also accepts a bare name.
func parseRender(tag Tag) (renderCall, error) {
	var rc renderCall
	fields := splitArgs(strings.Join(splitOutsideQuotes(tag.Args, ","), " "))
	if len(fields) == 0 {
		return rc, errors.NewTemplateSyntaxError(errors.ErrCodeMalformedTag,
			tag.Name+" requires a partial name")
	}
	if !isQuoted(fields[0]) && tag.Name == "render" {
		return rc, errors.NewTemplateSyntaxError(errors.ErrCodeMalformedTag,
			"partial name must be quoted in "+tag.String())
	}
	rc.name = unquote(fields[0])

	rest := fields[1:]
	for i := 0; i < len(rest); i++ {
		f := rest[i]
		colon := indexOutsideQuotes(f, ':')
		if colon <= 0 {
			return rc, errors.NewTemplateSyntaxError(errors.ErrCodeMalformedTag,
				"invalid render parameter "+f)
		}
		key, val := f[:colon], f[colon+1:]
		if val == "" && i+1 < len(rest) {
			// key: "value" written with a space after the colon.
			i++
			val = rest[i]
		}
		if !isIdentifier(key) || val == "" {
			return rc, errors.NewTemplateSyntaxError(errors.ErrCodeMalformedTag,
				"invalid render parameter "+f)
		}
		rc.params = append(rc.params, renderParam{key: key, raw: val, isLit: isQuoted(val)})
	}
	return rc, nil
}

// render resolves a partial and expands it, with every tag family enabled,
// in a child frame holding the parameters. The child frame is discarded
// afterwards so nothing leaks back to the caller. A missing partial is a
// diagnostic and renders as nothing.
func (st *renderState) render(tag Tag, scope *value.Scope) (string, error) {
	rc, err := parseRender(tag)
	if err != nil {
		return "", err
	}

	partial, found, err := st.engine.partials.Lookup(rc.name)
	if err != nil {
		return "", err
	}
	if !found {
		st.miss(errors.ErrCodeMissingPartial, "partial not found: "+rc.name)
		return "", nil
	}

	if st.depth+1 > st.engine.opts.MaxIncludeDepth {
		return "", errors.NewRecursionLimitError(st.engine.opts.MaxIncludeDepth, partial.Key)
	}

	frame := scope.NewPartial()
	for _, p := range rc.params {
		if p.isLit {
			frame.Set(p.key, value.Scalar(unquote(p.raw)))
			continue
		}
		v, ok := scope.Resolve(p.raw)
		if !ok && st.engine.opts.StrictVariables {
			st.miss(errors.ErrCodeUnknownVariable, "unknown render parameter value: "+p.raw)
		}
		frame.Set(p.key, v)
	}

	savedFamilies := st.families
	st.families = FamilyAll
	st.depth++
	st.local++
	expanded, err := st.walk(partial.Text, frame)
	st.local--
	st.depth--
	st.families = savedFamilies
	if err != nil {
		return "", err
	}

	return interpolateLocal(expanded, frame, st.deferred), nil
}
