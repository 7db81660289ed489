// Package value models template data as a tagged variant. A Value is either
// absent, a scalar string, an ordered sequence of values, or an ordered
// mapping from names to values.
package value

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindNil Kind = iota
	KindScalar
	KindSequence
	KindMapping
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "nil"
	}
}

// Value is an immutable tagged variant. The zero Value is nil.
type Value struct {
	kind Kind
	str  string
	seq  []Value
	m    *Mapping
}

// Nil is the absent value.
var Nil = Value{}

// Scalar wraps a string.
func Scalar(s string) Value {
	return Value{kind: KindScalar, str: s}
}

// Bool wraps a boolean as the scalar "true" or "false".
func Bool(b bool) Value {
	return Scalar(strconv.FormatBool(b))
}

// Int wraps an integer scalar.
func Int(n int) Value {
	return Scalar(strconv.Itoa(n))
}

// Sequence builds a sequence from items. The slice is copied.
func Sequence(items ...Value) Value {
	seq := make([]Value, len(items))
	copy(seq, items)
	return Value{kind: KindSequence, seq: seq}
}

// FromMapping wraps a mapping. A nil mapping becomes an empty one.
func FromMapping(m *Mapping) Value {
	if m == nil {
		m = NewMapping()
	}
	return Value{kind: KindMapping, m: m}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNil reports whether v is absent.
func (v Value) IsNil() bool { return v.kind == KindNil }

// String returns the scalar text. Collections and nil render as "".
func (v Value) String() string {
	if v.kind == KindScalar {
		return v.str
	}
	return ""
}

// Truthy reports whether v is exactly the scalar "true".
func (v Value) Truthy() bool {
	return v.kind == KindScalar && v.str == "true"
}

// Empty reports whether v is nil, an empty scalar, or an empty collection.
func (v Value) Empty() bool {
	switch v.kind {
	case KindScalar:
		return v.str == ""
	case KindSequence:
		return len(v.seq) == 0
	case KindMapping:
		return v.m.Len() == 0
	default:
		return true
	}
}

// Len returns the number of items in a sequence or keys in a mapping.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.seq)
	case KindMapping:
		return v.m.Len()
	case KindScalar:
		return len(v.str)
	default:
		return 0
	}
}

// Items returns the elements of a sequence, or nil for any other kind.
// The returned slice must not be modified.
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	return v.seq
}

// Mapping returns the mapping held by v, or nil.
func (v Value) Mapping() *Mapping {
	if v.kind != KindMapping {
		return nil
	}
	return v.m
}

// Field descends one path segment. Mappings are indexed by key, sequences by
// a decimal index. The segments "size", "first" and "last" are understood on
// sequences when no literal key matches.
func (v Value) Field(segment string) (Value, bool) {
	switch v.kind {
	case KindMapping:
		if child, ok := v.m.Get(segment); ok {
			return child, true
		}
		if segment == "size" {
			return Int(v.m.Len()), true
		}
	case KindSequence:
		if idx, err := strconv.Atoi(segment); err == nil {
			if idx >= 0 && idx < len(v.seq) {
				return v.seq[idx], true
			}
			return Nil, false
		}
		switch segment {
		case "size":
			return Int(len(v.seq)), true
		case "first":
			if len(v.seq) > 0 {
				return v.seq[0], true
			}
		case "last":
			if len(v.seq) > 0 {
				return v.seq[len(v.seq)-1], true
			}
		}
	case KindScalar:
		if segment == "size" {
			return Int(len(v.str)), true
		}
	}
	return Nil, false
}

// Lookup descends segments left to right and stops at the first miss.
func (v Value) Lookup(segments []string) (Value, bool) {
	cur := v
	for _, seg := range segments {
		next, ok := cur.Field(seg)
		if !ok {
			return Nil, false
		}
		cur = next
	}
	return cur, true
}

// Interface converts v back into plain Go data: string, []interface{} or
// map[string]interface{}.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindScalar:
		return v.str
	case KindSequence:
		out := make([]interface{}, len(v.seq))
		for i, item := range v.seq {
			out[i] = item.Interface()
		}
		return out
	case KindMapping:
		out := make(map[string]interface{}, v.m.Len())
		for _, k := range v.m.Keys() {
			child, _ := v.m.Get(k)
			out[k] = child.Interface()
		}
		return out
	default:
		return nil
	}
}

// From converts decoded YAML, TOML or JSON data into a Value. Numbers and
// booleans become their canonical scalar text. Map keys are sorted since the
// decoders do not preserve document order.
func From(data interface{}) Value {
	switch d := data.(type) {
	case nil:
		return Nil
	case Value:
		return d
	case string:
		return Scalar(d)
	case bool:
		return Bool(d)
	case int:
		return Int(d)
	case int64:
		return Scalar(strconv.FormatInt(d, 10))
	case uint64:
		return Scalar(strconv.FormatUint(d, 10))
	case float64:
		return Scalar(formatFloat(d))
	case float32:
		return Scalar(formatFloat(float64(d)))
	case time.Time:
		return Scalar(formatTime(d))
	case []interface{}:
		items := make([]Value, len(d))
		for i, item := range d {
			items[i] = From(item)
		}
		return Value{kind: KindSequence, seq: items}
	case []map[string]interface{}:
		items := make([]Value, len(d))
		for i, item := range d {
			items[i] = From(item)
		}
		return Value{kind: KindSequence, seq: items}
	case []string:
		items := make([]Value, len(d))
		for i, item := range d {
			items[i] = Scalar(item)
		}
		return Value{kind: KindSequence, seq: items}
	case map[string]interface{}:
		m := NewMapping()
		keys := make([]string, 0, len(d))
		for k := range d {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			m.Set(k, From(d[k]))
		}
		return FromMapping(m)
	case map[interface{}]interface{}:
		conv := make(map[string]interface{}, len(d))
		for k, val := range d {
			conv[fmt.Sprint(k)] = val
		}
		return From(conv)
	case map[string]string:
		conv := make(map[string]interface{}, len(d))
		for k, val := range d {
			conv[k] = val
		}
		return From(conv)
	default:
		return Scalar(fmt.Sprint(d))
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}
