package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPassThrough_RoundTrip(t *testing.T) {
	p := NewPassThrough()
	p.Append(
		FixedValue{Entity: "ThermalCommit", Index: "coal_1,t01", Value: 1},
		FixedValue{Entity: "ThermalCommit", Index: "coal_1,t02", Value: 0},
	)

	path := filepath.Join(t.TempDir(), "sub", "passthrough.csv")
	require.NoError(t, p.WriteFile(path))

	got, err := ReadPassThrough(path, Leaf{Subproblem: "sub", Stage: "s2"})
	require.NoError(t, err)
	require.Equal(t, p.Records(), got.Records())

	v, ok := got.Lookup("ThermalCommit", "coal_1,t01")
	require.True(t, ok)
	require.Equal(t, 1.0, v)

	_, ok = got.Lookup("ThermalCommit", "gas_1,t01")
	require.False(t, ok)
}

func TestPassThrough_WriteReplacesWholeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passthrough.csv")

	first := NewPassThrough()
	first.Append(FixedValue{Entity: "A", Index: "x", Value: 1})
	require.NoError(t, first.WriteFile(path))

	second := NewPassThrough()
	second.Append(FixedValue{Entity: "B", Index: "y", Value: 2})
	require.NoError(t, second.WriteFile(path))

	got, err := ReadPassThrough(path, Leaf{})
	require.NoError(t, err)
	require.Equal(t, 1, got.Len(), "a rewrite must fully replace, never merge")
	_, ok := got.Lookup("A", "x")
	require.False(t, ok)
}

func TestPassThrough_EmptyArtifactHasHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passthrough.csv")
	require.NoError(t, NewPassThrough().WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "entity,index,value\n", string(data))

	got, err := ReadPassThrough(path, Leaf{})
	require.NoError(t, err)
	require.Zero(t, got.Len())
}

func TestReadPassThrough_MissingFileIsPassThroughError(t *testing.T) {
	leaf := Leaf{Subproblem: "north", Stage: "s2"}
	_, err := ReadPassThrough(filepath.Join(t.TempDir(), "nope.csv"), leaf)
	require.Error(t, err)

	var ptErr *PassThroughError
	require.ErrorAs(t, err, &ptErr)
	require.Equal(t, leaf, ptErr.Leaf)
}

func TestReadPassThrough_MalformedRows(t *testing.T) {
	dir := t.TempDir()

	badValue := filepath.Join(dir, "bad_value.csv")
	require.NoError(t, os.WriteFile(badValue, []byte("entity,index,value\nA,x,notanumber\n"), 0o644))
	_, err := ReadPassThrough(badValue, Leaf{})
	var ptErr *PassThroughError
	require.ErrorAs(t, err, &ptErr)

	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = ReadPassThrough(empty, Leaf{})
	require.ErrorAs(t, err, &ptErr)
}
