package value

import "strings"

// ScopeKind tells how a scope layer was introduced.
type ScopeKind int

const (
	// ScopeGlobal holds site-wide data shared by every page. It is frozen.
	ScopeGlobal ScopeKind = iota
	// ScopePage holds a single page's front matter and assignments.
	ScopePage
	// ScopeLoop holds the bindings of one loop iteration.
	ScopeLoop
	// ScopePartial holds the parameters and assignments of one render call.
	ScopePartial
)

// Scope is one layer of the variable store. Lookups walk from the innermost
// layer outwards, so inner bindings shadow outer ones. A child never changes
// its parent, except through Assign, which targets the nearest page or
// partial frame.
type Scope struct {
	parent *Scope
	kind   ScopeKind
	vars   *Mapping
	frozen bool
}

// NewGlobalScope creates the frozen root layer over m. Callers must not
// modify m afterwards.
func NewGlobalScope(m *Mapping) *Scope {
	if m == nil {
		m = NewMapping()
	}
	return &Scope{kind: ScopeGlobal, vars: m, frozen: true}
}

// NewPage opens a page layer on top of s seeded with a copy of vars.
func (s *Scope) NewPage(vars *Mapping) *Scope {
	child := s.child(ScopePage)
	if vars != nil {
		child.vars = vars.Clone()
	}
	return child
}

// NewLoop opens a loop iteration layer.
func (s *Scope) NewLoop() *Scope {
	return s.child(ScopeLoop)
}

// NewPartial opens the frame a partial renders in.
func (s *Scope) NewPartial() *Scope {
	return s.child(ScopePartial)
}

func (s *Scope) child(kind ScopeKind) *Scope {
	return &Scope{parent: s, kind: kind, vars: NewMapping()}
}

// Kind reports how this layer was introduced.
func (s *Scope) Kind() ScopeKind { return s.kind }

// Parent returns the enclosing layer, or nil for the root.
func (s *Scope) Parent() *Scope { return s.parent }

// Set binds name in this layer. It panics on a frozen layer.
func (s *Scope) Set(name string, v Value) {
	if s.frozen {
		panic("value: Set on frozen scope")
	}
	s.vars.Set(name, v)
}

// Assign binds name in the nearest page or partial frame, skipping loop
// layers, so the binding outlives the loop iteration that made it.
func (s *Scope) Assign(name string, v Value) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.kind == ScopePage || cur.kind == ScopePartial {
			cur.Set(name, v)
			return
		}
	}
	s.Set(name, v)
}

// Get looks name up through every layer.
func (s *Scope) Get(name string) (Value, bool) {
	v, _, ok := s.find(name)
	return v, ok
}

func (s *Scope) find(name string) (Value, *Scope, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, ok := cur.vars.Get(name); ok {
			return v, cur, true
		}
	}
	return Nil, nil, false
}

// BoundLocally reports whether name is bound in a loop or partial layer
// rather than in the page or global layers.
func (s *Scope) BoundLocally(name string) bool {
	_, owner, ok := s.find(name)
	if !ok {
		return false
	}
	return owner.kind == ScopeLoop || owner.kind == ScopePartial
}

// Resolve looks up a dotted path. The first segment is found through the
// layers, then each following segment descends into the value. Resolution
// fails at the first missing segment.
func (s *Scope) Resolve(path string) (Value, bool) {
	segments := SplitPath(path)
	if len(segments) == 0 {
		return Nil, false
	}
	root, ok := s.Get(segments[0])
	if !ok {
		return Nil, false
	}
	return root.Lookup(segments[1:])
}

// ResolveString resolves path and returns its scalar text, or "".
func (s *Scope) ResolveString(path string) string {
	v, _ := s.Resolve(path)
	return v.String()
}

// Root returns the first segment of a dotted path.
func Root(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

// SplitPath splits a dotted path into segments, dropping empty ones.
func SplitPath(path string) []string {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	parts := strings.Split(path, ".")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
