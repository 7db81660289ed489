package value

// Mapping is an insertion-ordered map from names to values.
type Mapping struct {
	keys []string
	vals map[string]Value
}

// NewMapping creates an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{vals: make(map[string]Value)}
}

// MappingOf builds a mapping from alternating key/value pairs.
func MappingOf(pairs ...interface{}) *Mapping {
	m := NewMapping()
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}
		m.Set(key, From(pairs[i+1]))
	}
	return m
}

// Set binds key to v. Rebinding an existing key keeps its position.
func (m *Mapping) Set(key string, v Value) {
	if _, exists := m.vals[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = v
}

// SetString binds key to a scalar.
func (m *Mapping) SetString(key, s string) {
	m.Set(key, Scalar(s))
}

// Get returns the value bound to key.
func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return Nil, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// GetString returns the scalar text bound to key, or "".
func (m *Mapping) GetString(key string) string {
	v, _ := m.Get(key)
	return v.String()
}

// Has reports whether key is bound.
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key.
func (m *Mapping) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Len returns the number of keys.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone returns a shallow copy. Nested values are shared.
func (m *Mapping) Clone() *Mapping {
	c := &Mapping{
		keys: make([]string, len(m.keys)),
		vals: make(map[string]Value, len(m.vals)),
	}
	copy(c.keys, m.keys)
	for k, v := range m.vals {
		c.vals[k] = v
	}
	return c
}

// Merge copies every binding of other into m, overwriting existing keys.
func (m *Mapping) Merge(other *Mapping) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		m.Set(k, other.vals[k])
	}
}
