package liquid

import (
	"strings"

	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/value"
)

// conditional picks the branch of an if/unless block whose test passes and
// expands only that branch. Tests look at a single variable path, true when
// it resolves to exactly "true". unless inverts the test of its first branch.
func (st *renderState) conditional(text string, block Block, scope *value.Scope) (string, error) {
	segs := block.Segments(text)
	for i, seg := range segs {
		if seg.Tag.Name == "else" && (seg.Tag.Args != "" || i != len(segs)-1) {
			return "", errors.NewTemplateSyntaxError(errors.ErrCodeMalformedTag,
				"misplaced else in "+block.Open.String())
		}
	}

	for _, seg := range segs {
		take := false
		switch seg.Tag.Name {
		case "if", "elsif":
			v, err := st.test(seg.Tag, scope)
			if err != nil {
				return "", err
			}
			take = v
		case "unless":
			v, err := st.test(seg.Tag, scope)
			if err != nil {
				return "", err
			}
			take = !v
		case "else":
			take = true
		}
		if take {
			return st.walk(seg.Text, scope)
		}
	}
	return "", nil
}

// test evaluates the condition of an if, elsif or unless tag.
func (st *renderState) test(tag Tag, scope *value.Scope) (bool, error) {
	path := strings.TrimSpace(tag.Args)
	if !isPath(path) {
		return false, errors.NewTemplateSyntaxError(errors.ErrCodeMalformedTag,
			"invalid condition in "+tag.String())
	}
	v, ok := scope.Resolve(path)
	if !ok && st.engine.opts.StrictVariables {
		st.miss(errors.ErrCodeUnknownVariable, "unknown variable in condition: "+path)
	}
	return v.Truthy(), nil
}
