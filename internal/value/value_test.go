package value

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleData() Value {
	return From(map[string]interface{}{
		"title": "Hello",
		"draft": false,
		"count": 3,
		"ratio": 0.5,
		"items": []interface{}{
			map[string]interface{}{"title": "first"},
			map[string]interface{}{"title": "second"},
		},
		"nested": map[string]interface{}{
			"deeper": map[string]interface{}{"leaf": "x"},
		},
	})
}

func TestFromConversions(t *testing.T) {
	v := sampleData()
	require.Equal(t, KindMapping, v.Kind())

	m := v.Mapping()
	assert.Equal(t, "Hello", m.GetString("title"))
	assert.Equal(t, "false", m.GetString("draft"))
	assert.Equal(t, "3", m.GetString("count"))
	assert.Equal(t, "0.5", m.GetString("ratio"))
	assert.Equal(t, []string{"count", "draft", "items", "nested", "ratio", "title"}, m.Keys())

	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-01", From(date).String())
	assert.Equal(t, KindNil, From(nil).Kind())
	assert.Equal(t, "k", From(map[interface{}]interface{}{1: "k"}).Mapping().GetString("1"))
}

func TestLookup(t *testing.T) {
	v := sampleData()

	tests := []struct {
		path  []string
		want  string
		found bool
	}{
		{[]string{"title"}, "Hello", true},
		{[]string{"items", "1", "title"}, "second", true},
		{[]string{"items", "2", "title"}, "", false},
		{[]string{"items", "size"}, "2", true},
		{[]string{"items", "first", "title"}, "first", true},
		{[]string{"items", "last", "title"}, "second", true},
		{[]string{"nested", "deeper", "leaf"}, "x", true},
		{[]string{"nested", "missing", "leaf"}, "", false},
		{[]string{"title", "child"}, "", false},
	}

	for _, tt := range tests {
		got, ok := v.Lookup(tt.path)
		assert.Equal(t, tt.found, ok, "path %v", tt.path)
		assert.Equal(t, tt.want, got.String(), "path %v", tt.path)
	}
}

func TestTruthyAndEmpty(t *testing.T) {
	assert.True(t, Scalar("true").Truthy())
	assert.False(t, Scalar("True").Truthy())
	assert.False(t, Scalar("yes").Truthy())
	assert.False(t, Nil.Truthy())
	assert.False(t, Sequence(Scalar("true")).Truthy())

	assert.True(t, Nil.Empty())
	assert.True(t, Scalar("").Empty())
	assert.True(t, Sequence().Empty())
	assert.False(t, Scalar("x").Empty())
}

func TestCollectionsRenderEmpty(t *testing.T) {
	assert.Equal(t, "", Sequence(Scalar("a")).String())
	assert.Equal(t, "", FromMapping(MappingOf("a", "b")).String())
}

func TestMappingOrderAndDelete(t *testing.T) {
	m := NewMapping()
	m.SetString("b", "1")
	m.SetString("a", "2")
	m.SetString("b", "3")
	assert.Equal(t, []string{"b", "a"}, m.Keys())
	assert.Equal(t, "3", m.GetString("b"))

	m.Delete("b")
	assert.Equal(t, []string{"a"}, m.Keys())
	assert.False(t, m.Has("b"))

	c := m.Clone()
	c.SetString("z", "9")
	assert.False(t, m.Has("z"))
}

func TestInterfaceRoundTrip(t *testing.T) {
	v := From(map[string]interface{}{"list": []interface{}{"a", "b"}})
	assert.Equal(t, map[string]interface{}{"list": []interface{}{"a", "b"}}, v.Interface())
}
