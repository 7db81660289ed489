package liquid

import (
	"fmt"
	"strings"

	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/value"
)

// DefaultMaxIncludeDepth bounds nested render calls.
const DefaultMaxIncludeDepth = 32

// Family selects which tag kinds an Engine expands. Tags of a disabled
// family are copied through verbatim.
type Family uint8

const (
	FamilyConditional Family = 1 << iota
	FamilyLoop
	FamilyAssign
	FamilyInclude

	FamilyAll = FamilyConditional | FamilyLoop | FamilyAssign | FamilyInclude
)

// Has reports whether f includes other.
func (f Family) Has(other Family) bool { return f&other != 0 }

// Options configures an Engine.
type Options struct {
	// Families to expand. Zero means FamilyAll.
	Families Family
	// MaxIncludeDepth bounds nested renders. Zero means DefaultMaxIncludeDepth.
	MaxIncludeDepth int
	// StrictVariables records a diagnostic for every condition or loop that
	// refers to an unknown variable.
	StrictVariables bool
}

// Engine expands tags against a frozen partial table. It holds no per-render
// state and may be shared by concurrent renders.
type Engine struct {
	partials *PartialTable
	opts     Options
}

// NewEngine creates an engine. partials may be nil when no includes exist.
func NewEngine(partials *PartialTable, opts Options) *Engine {
	if opts.Families == 0 {
		opts.Families = FamilyAll
	}
	if opts.MaxIncludeDepth <= 0 {
		opts.MaxIncludeDepth = DefaultMaxIncludeDepth
	}
	return &Engine{partials: partials, opts: opts}
}

// Partials returns the table the engine resolves renders against.
func (e *Engine) Partials() *PartialTable { return e.partials }

// Result is the outcome of expanding one text.
type Result struct {
	Text        string
	Diagnostics []errors.Diagnostic
}

// Expand resolves every enabled tag in text in document order. Placeholders
// bound inside loops and partials are substituted while their scope is
// alive; when deferred is non-nil their values are held in it instead of
// being written inline. All other placeholders are left for Interpolate.
// Given the global scope itself, Expand renders in a fresh page layer above
// it, so assignments are visible only to the rest of text.
func (e *Engine) Expand(text string, scope *value.Scope, deferred *Deferred) (Result, error) {
	if scope == nil || scope.Kind() == value.ScopeGlobal {
		// Assignments need a writable frame above the frozen globals.
		if scope == nil {
			scope = value.NewGlobalScope(nil)
		}
		scope = scope.NewPage(nil)
	}
	st := &renderState{engine: e, families: e.opts.Families, deferred: deferred}
	out, err := st.walk(text, scope)
	if err != nil {
		return Result{Diagnostics: st.diags}, err
	}
	return Result{Text: out, Diagnostics: st.diags}, nil
}

// renderState carries the mutable parts of a single Expand call.
type renderState struct {
	engine   *Engine
	families Family
	deferred *Deferred
	depth    int
	diags    []errors.Diagnostic

	// local counts the loop iterations and partial bodies being walked.
	// Names assigned inside them are substituted as the text after the
	// assign is copied, so each iteration sees its own value.
	local    int
	assigned map[string]bool
}

func (st *renderState) enabled(f Family) bool {
	return st.families.Has(f)
}

func (st *renderState) miss(code, msg string) {
	st.diags = append(st.diags, errors.DiagnosticFromError(errors.NewResolutionMiss(code, msg)))
}

// walk copies text to the output, expanding each tag it meets. Block bodies
// are expanded by recursive calls with the scope that applies to them.
func (st *renderState) walk(text string, scope *value.Scope) (string, error) {
	var out strings.Builder
	out.Grow(len(text))

	pos := 0
	for {
		tag, ok, err := NextTag(text, pos)
		if err != nil {
			return "", err
		}
		if !ok {
			st.writeText(&out, text[pos:], scope)
			return out.String(), nil
		}
		st.writeText(&out, text[pos:tag.Start], scope)

		next, err := st.dispatch(&out, text, tag, scope)
		if err != nil {
			return "", err
		}
		pos = next
	}
}

// writeText copies literal text between tags, filling in placeholders of
// names assigned earlier inside the current loop iteration or partial.
func (st *renderState) writeText(out *strings.Builder, text string, scope *value.Scope) {
	if st.local == 0 || len(st.assigned) == 0 {
		out.WriteString(text)
		return
	}
	out.WriteString(substitute(text, scope, st.deferred, func(name string) bool {
		return st.assigned[name]
	}))
}

// recordAssign notes an assignment made inside a loop iteration or partial.
func (st *renderState) recordAssign(name string) {
	if st.local == 0 {
		return
	}
	if st.assigned == nil {
		st.assigned = make(map[string]bool)
	}
	st.assigned[name] = true
}

// dispatch handles one tag and returns where scanning resumes.
func (st *renderState) dispatch(out *strings.Builder, text string, tag Tag, scope *value.Scope) (int, error) {
	switch tag.Name {
	case "if", "unless":
		if !st.enabled(FamilyConditional) {
			// Keep the markers and expand inside the branches.
			out.WriteString(text[tag.Start:tag.End])
			return tag.End, nil
		}
		block, err := MatchBlock(text, tag)
		if err != nil {
			return 0, err
		}
		expanded, err := st.conditional(text, block, scope)
		if err != nil {
			return 0, err
		}
		out.WriteString(expanded)
		return block.End(), nil

	case "for":
		block, err := MatchBlock(text, tag)
		if err != nil {
			return 0, err
		}
		if !st.enabled(FamilyLoop) {
			// Loop bodies depend on bindings only the loop provides.
			out.WriteString(text[block.Start():block.End()])
			return block.End(), nil
		}
		expanded, err := st.loop(text, block, scope)
		if err != nil {
			return 0, err
		}
		out.WriteString(expanded)
		return block.End(), nil

	case "assign":
		if !st.enabled(FamilyAssign) {
			out.WriteString(text[tag.Start:tag.End])
			return tag.End, nil
		}
		if err := st.assign(tag, scope); err != nil {
			return 0, err
		}
		return tag.End, nil

	case "render", "include":
		if !st.enabled(FamilyInclude) {
			out.WriteString(text[tag.Start:tag.End])
			return tag.End, nil
		}
		expanded, err := st.render(tag, scope)
		if err != nil {
			return 0, err
		}
		out.WriteString(expanded)
		return tag.End, nil

	case "else", "elsif", "endif", "endunless", "endfor":
		if tag.Name != "endfor" && !st.enabled(FamilyConditional) {
			out.WriteString(text[tag.Start:tag.End])
			return tag.End, nil
		}
		return 0, errors.NewTemplateSyntaxError(errors.ErrCodeMalformedTag,
			fmt.Sprintf("unexpected %s without matching opening tag", tag.Name))

	default:
		// Unknown tags are not ours to interpret.
		out.WriteString(text[tag.Start:tag.End])
		return tag.End, nil
	}
}

// ProcessConditionals expands only if/unless blocks. Loop blocks are copied
// through unexpanded along with the conditionals inside them.
func ProcessConditionals(text string, scope *value.Scope) (string, error) {
	res, err := NewEngine(nil, Options{Families: FamilyConditional}).Expand(text, scope, nil)
	return res.Text, err
}

// ProcessLoops expands only for blocks. Tags of other kinds inside a loop
// body stay in place, with loop-bound placeholders substituted.
func ProcessLoops(text string, scope *value.Scope) (string, error) {
	res, err := NewEngine(nil, Options{Families: FamilyLoop}).Expand(text, scope, nil)
	return res.Text, err
}

// ProcessAssignments evaluates assign tags into scope and removes them.
func ProcessAssignments(text string, scope *value.Scope) (string, error) {
	res, err := NewEngine(nil, Options{Families: FamilyAssign}).Expand(text, scope, nil)
	return res.Text, err
}

// ProcessIncludes expands render/include tags. Each partial is itself
// expanded with every tag family before it is spliced in.
func ProcessIncludes(text string, partials *PartialTable, scope *value.Scope) (Result, error) {
	return NewEngine(partials, Options{Families: FamilyInclude}).Expand(text, scope, nil)
}
