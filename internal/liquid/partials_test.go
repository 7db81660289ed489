package liquid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/quire/internal/errors"
)

func TestCanonicalKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"card", "card"},
		{"'card'", "card"},
		{`"nav/menu.liquid"`, "nav/menu"},
		{"nav\\menu.liquid", "nav/menu"},
		{"./footer.html", "footer"},
		{" spaced ", "spaced"},
		{"a//b", "a/b"},
		{".liquid", ".liquid"},
	}
	for _, tt := range tests {
		got, err := CanonicalKey(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "''", "../x", "a/../../x", "/abs", "C:/x", "..\\x"} {
		_, err := CanonicalKey(bad)
		assert.Error(t, err, bad)
	}
}

func TestPartialTableConflicts(t *testing.T) {
	table := NewPartialTable()
	require.NoError(t, table.Add("nav/menu.liquid", "includes/nav/menu.liquid", "a"))

	err := table.Add("nav\\menu.html", "includes/nav/menu.html", "b")
	require.Error(t, err)
	assert.True(t, errors.IsLoadConflict(err))
	assert.Contains(t, err.Error(), "includes/nav/menu.liquid")
	assert.Contains(t, err.Error(), "includes/nav/menu.html")

	p, ok, err := table.Lookup("nav/menu")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", p.Text)
}

func TestPartialTableFreeze(t *testing.T) {
	table := NewPartialTable()
	require.NoError(t, table.Add("a", "a", "1"))
	table.Freeze()

	assert.Error(t, table.Add("b", "b", "2"))
	assert.Equal(t, []string{"a"}, table.Keys())
	assert.Equal(t, 1, table.Len())
}

func TestPartialsFromMapConflict(t *testing.T) {
	_, err := PartialsFromMap(map[string]string{"x.liquid": "1", "x": "2"})
	assert.True(t, errors.IsLoadConflict(err))
}

func TestNilTableLookup(t *testing.T) {
	var table *PartialTable
	_, ok, err := table.Lookup("x")
	assert.NoError(t, err)
	assert.False(t, ok)
}
