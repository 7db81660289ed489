package liquid

import (
	"strconv"
	"strings"

	"github.com/conneroisu/quire/internal/errors"
	"github.com/conneroisu/quire/internal/value"
)

const (
	deferOpen  = "\uE000"
	deferClose = "\uE001"
)

// Deferred holds values resolved inside a loop or partial scope whose
// substitution must wait for the final interpolation stage. Each value is
// represented in the text by an opaque private-use token that the Markdown
// stage passes through untouched. A Deferred belongs to one page render.
type Deferred struct {
	values []string
}

// NewDeferred creates an empty table.
func NewDeferred() *Deferred {
	return &Deferred{}
}

// Hold stores s and returns the token standing in for it.
func (d *Deferred) Hold(s string) string {
	d.values = append(d.values, s)
	return deferOpen + strconv.Itoa(len(d.values)-1) + deferClose
}

// Len returns the number of held values.
func (d *Deferred) Len() int {
	if d == nil {
		return 0
	}
	return len(d.values)
}

// lookup returns the value for a token index.
func (d *Deferred) lookup(idx int) (string, bool) {
	if d == nil || idx < 0 || idx >= len(d.values) {
		return "", false
	}
	return d.values[idx], true
}

// placeholder is one {{ path }} occurrence.
type placeholder struct {
	path  string
	start int
	end   int
}

// nextPlaceholder finds the next syntactically valid placeholder at or after
// from. Invalid-looking ones are skipped and stay literal text.
func nextPlaceholder(text string, from int) (placeholder, bool) {
	for from < len(text) {
		rel := strings.Index(text[from:], "{{")
		if rel < 0 {
			return placeholder{}, false
		}
		start := from + rel
		closeRel := strings.Index(text[start+2:], "}}")
		if closeRel < 0 {
			return placeholder{}, false
		}
		end := start + 2 + closeRel + 2
		path := strings.TrimSpace(text[start+2 : end-2])
		if isPath(path) {
			return placeholder{path: path, start: start, end: end}, true
		}
		from = start + 2
	}
	return placeholder{}, false
}

// Interpolate replaces every {{ path }} with its resolved scalar text and
// every deferred token with its held value, in a single left-to-right pass.
// Substituted text is never rescanned. Paths that do not resolve become ""
// and are reported as diagnostics.
func Interpolate(text string, scope *value.Scope, deferred *Deferred) (string, []errors.Diagnostic) {
	if !strings.Contains(text, "{{") && !strings.Contains(text, deferOpen) {
		return text, nil
	}

	var out strings.Builder
	out.Grow(len(text))
	var diags []errors.Diagnostic

	pos := 0
	for pos < len(text) {
		ph, hasPh := nextPlaceholder(text, pos)
		tokStart := strings.Index(text[pos:], deferOpen)
		if tokStart >= 0 {
			tokStart += pos
		}

		if tokStart >= 0 && (!hasPh || tokStart < ph.start) {
			out.WriteString(text[pos:tokStart])
			pos = writeToken(&out, text, tokStart, deferred)
			continue
		}
		if !hasPh {
			out.WriteString(text[pos:])
			break
		}

		out.WriteString(text[pos:ph.start])
		v, ok := scope.Resolve(ph.path)
		if !ok {
			diags = append(diags, errors.DiagnosticFromError(
				errors.NewResolutionMiss(errors.ErrCodeUnknownVariable, "unknown variable: "+ph.path)))
		}
		out.WriteString(v.String())
		pos = ph.end
	}

	return out.String(), diags
}

// writeToken substitutes the deferred token starting at start and returns the
// offset after it. A malformed token is copied through unchanged.
func writeToken(out *strings.Builder, text string, start int, deferred *Deferred) int {
	bodyStart := start + len(deferOpen)
	closeRel := strings.Index(text[bodyStart:], deferClose)
	if closeRel < 0 {
		out.WriteString(deferOpen)
		return bodyStart
	}
	idx, err := strconv.Atoi(text[bodyStart : bodyStart+closeRel])
	held, ok := deferred.lookup(idx)
	if err != nil || !ok {
		out.WriteString(deferOpen)
		return bodyStart
	}
	out.WriteString(held)
	return bodyStart + closeRel + len(deferClose)
}

// interpolateLocal substitutes only placeholders whose root name is bound in
// a loop or partial layer of scope. Everything else is left for the final
// stage. With a Deferred table the value is held behind a token; without one
// it is written directly.
func interpolateLocal(text string, scope *value.Scope, deferred *Deferred) string {
	return substitute(text, scope, deferred, scope.BoundLocally)
}

// substitute replaces the placeholders whose root name satisfies bound with
// their value in scope. The rest are copied through unchanged.
func substitute(text string, scope *value.Scope, deferred *Deferred, bound func(name string) bool) string {
	if !strings.Contains(text, "{{") {
		return text
	}

	var out strings.Builder
	out.Grow(len(text))
	pos := 0
	for {
		ph, ok := nextPlaceholder(text, pos)
		if !ok {
			out.WriteString(text[pos:])
			return out.String()
		}
		out.WriteString(text[pos:ph.start])
		if bound(value.Root(ph.path)) {
			resolved := scope.ResolveString(ph.path)
			if deferred != nil {
				resolved = deferred.Hold(resolved)
			}
			out.WriteString(resolved)
		} else {
			out.WriteString(text[ph.start:ph.end])
		}
		pos = ph.end
	}
}

// Hold replaces every placeholder whose full path resolves in scope with a
// token held in deferred. It runs before Markdown conversion so values are
// never parsed as Markdown and a placeholder with spaces, such as a link
// destination, reads as a single word. Unresolved placeholders are left for
// Interpolate to report.
func Hold(text string, scope *value.Scope, deferred *Deferred) string {
	if deferred == nil || !strings.Contains(text, "{{") {
		return text
	}

	var out strings.Builder
	out.Grow(len(text))
	pos := 0
	for {
		ph, ok := nextPlaceholder(text, pos)
		if !ok {
			out.WriteString(text[pos:])
			return out.String()
		}
		out.WriteString(text[pos:ph.start])
		if v, found := scope.Resolve(ph.path); found {
			out.WriteString(deferred.Hold(v.String()))
		} else {
			out.WriteString(text[ph.start:ph.end])
		}
		pos = ph.end
	}
}
