package program

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilder_SetsAreAppendOnly(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddSet("TP", []string{"t01", "t02"}))
	require.Error(t, b.AddSet("TP", []string{"t03"}), "re-adding a set must fail, modules share sets by name")

	require.Equal(t, []string{"t01", "t02"}, b.Set("TP"))
	require.True(t, b.HasSet("TP"))
	require.False(t, b.HasSet("GEN"))
}

func TestBuilder_Params(t *testing.T) {
	b := NewBuilder()
	b.SetParam("demand", "t01", 42.5)

	v, ok := b.Param("demand", "t01")
	require.True(t, ok)
	require.Equal(t, 42.5, v)

	_, ok = b.Param("demand", "t99")
	require.False(t, ok)
	require.Equal(t, 7.0, b.ParamOr("demand", "t99", 7.0))
}

func TestBuilder_DuplicateVariableRejected(t *testing.T) {
	b := NewBuilder()
	_, err := b.AddVariable(VarDef{Name: "Dispatch", Lower: 0, Upper: Inf()})
	require.NoError(t, err)

	_, err = b.AddVariable(VarDef{Name: "Dispatch", Lower: 0, Upper: Inf()})
	require.Error(t, err)
}

func TestBuilder_VariableOverUnknownSetRejected(t *testing.T) {
	b := NewBuilder()
	_, err := b.AddVariable(VarDef{Name: "Dispatch", Sets: []string{"GEN"}, Upper: Inf()})
	require.Error(t, err)
}

func TestBuilder_HandleRoundTrip(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddSet("TP", []string{"t01"}))

	h, err := b.AddVariable(VarDef{Name: "Unserved", Sets: []string{"TP"}, Upper: Inf()})
	require.NoError(t, err)
	require.Equal(t, VariableElement, h.Kind)

	def, err := b.Variable(h)
	require.NoError(t, err)
	require.Equal(t, "Unserved", def.Name)

	_, err = b.Constraint(h)
	require.Error(t, err, "a variable handle must not resolve as a constraint")
}

func TestBuilder_ConstraintNeedsKnownVariables(t *testing.T) {
	b := NewBuilder()
	_, err := b.AddConstraint("balance", []Term{T(1, "Missing")}, Equal, Const(0))
	require.Error(t, err)
}

func TestIndexKey(t *testing.T) {
	require.Equal(t, "coal_1,t01", IndexKey("coal_1", "t01"))
	require.Equal(t, "t01", IndexKey("t01"))
	require.Equal(t, "", IndexKey())
}
