package liquid

import (
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/conneroisu/quire/internal/errors"
)

// PartialExtensions are stripped from partial names before lookup.
var PartialExtensions = []string{".liquid", ".html"}

// Partial is one reusable template fragment.
type Partial struct {
	Key    string // canonical key, e.g. "nav/menu"
	Source string // file it was read from, for conflict reports
	Text   string
}

// PartialTable maps canonical keys to partials. It is filled once while the
// site loads and then frozen; lookups after Freeze are safe from any number
// of goroutines.
type PartialTable struct {
	mu      sync.RWMutex
	entries map[string]Partial
	frozen  bool
}

// NewPartialTable creates an empty, unfrozen table.
func NewPartialTable() *PartialTable {
	return &PartialTable{entries: make(map[string]Partial)}
}

// PartialsFromMap builds and freezes a table from name -> text pairs.
func PartialsFromMap(m map[string]string) (*PartialTable, error) {
	t := NewPartialTable()
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := t.Add(name, name, m[name]); err != nil {
			return nil, err
		}
	}
	t.Freeze()
	return t, nil
}

// Add registers text under the canonical form of name. Two sources that
// normalise to the same key are a LoadConflict.
func (t *PartialTable) Add(name, source, text string) error {
	key, err := CanonicalKey(name)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.frozen {
		return errors.NewInternalError("ERR_TABLE_FROZEN", "partial table is frozen", nil).
			WithContext("key", key)
	}
	if existing, ok := t.entries[key]; ok {
		return errors.NewLoadConflictError(key, existing.Source, source)
	}
	t.entries[key] = Partial{Key: key, Source: source, Text: text}
	return nil
}

// Freeze forbids further additions.
func (t *PartialTable) Freeze() {
	t.mu.Lock()
	t.frozen = true
	t.mu.Unlock()
}

// Lookup finds the partial a tag refers to. The error is non-nil only when
// the name itself is unacceptable, such as a path that escapes the includes
// root.
func (t *PartialTable) Lookup(name string) (Partial, bool, error) {
	key, err := CanonicalKey(name)
	if err != nil {
		return Partial{}, false, err
	}
	if t == nil {
		return Partial{}, false, nil
	}
	t.mu.RLock()
	p, ok := t.entries[key]
	t.mu.RUnlock()
	return p, ok, nil
}

// Keys returns every canonical key in sorted order.
func (t *PartialTable) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	keys := make([]string, 0, len(t.entries))
	for k := range t.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of partials.
func (t *PartialTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// CanonicalKey normalises a partial reference: quotes and surrounding space
// are dropped, backslashes become slashes, a leading "./" and a known
// extension are removed. Names that are empty, absolute or contain a ".."
// segment are rejected.
func CanonicalKey(name string) (string, error) {
	key := strings.TrimSpace(unquote(strings.TrimSpace(name)))
	key = strings.ReplaceAll(key, "\\", "/")

	if key == "" {
		return "", errors.NewTemplateSyntaxError(errors.ErrCodeMalformedTag, "empty partial name")
	}
	if strings.HasPrefix(key, "/") || (len(key) > 1 && key[1] == ':') {
		return "", errors.ErrPathTraversal(name)
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return "", errors.ErrPathTraversal(name)
		}
	}

	key = path.Clean(key)
	key = strings.TrimPrefix(key, "./")
	for _, ext := range PartialExtensions {
		if strings.HasSuffix(key, ext) && len(key) > len(ext) {
			key = strings.TrimSuffix(key, ext)
			break
		}
	}
	return key, nil
}
