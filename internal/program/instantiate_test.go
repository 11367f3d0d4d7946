package program

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func twoSetBuilder(t *testing.T) *Builder {
	t.Helper()
	b := NewBuilder()
	require.NoError(t, b.AddSet("GEN", []string{"coal_1", "gas_1"}))
	require.NoError(t, b.AddSet("TP", []string{"t01", "t02", "t03"}))

	_, err := b.AddVariable(VarDef{Name: "Dispatch", Sets: []string{"GEN", "TP"}, Upper: Inf()})
	require.NoError(t, err)
	return b
}

func TestInstantiate_CrossProductExpansion(t *testing.T) {
	b := twoSetBuilder(t)

	c, err := b.Instantiate()
	require.NoError(t, err)
	require.Len(t, c.Columns, 6)

	// Deterministic order: outer set first, then inner.
	require.Equal(t, "Dispatch[coal_1,t01]", c.Columns[0].Name())
	require.Equal(t, "Dispatch[gas_1,t03]", c.Columns[5].Name())

	idx, ok := c.ColumnIndex("Dispatch", "gas_1", "t02")
	require.True(t, ok)
	require.Equal(t, "Dispatch[gas_1,t02]", c.Columns[idx].Name())
}

func TestInstantiate_Idempotent(t *testing.T) {
	b := twoSetBuilder(t)
	b.SetParam("capacity", "coal_1", 100)
	b.SetParam("capacity", "gas_1", 50)
	for _, g := range b.Set("GEN") {
		for _, tp := range b.Set("TP") {
			_, err := b.AddConstraint(
				"cap_"+g+"_"+tp,
				[]Term{T(1, "Dispatch", g, tp)},
				LessEq,
				ParamRef("capacity", g),
			)
			require.NoError(t, err)
		}
	}

	first, err := b.Instantiate()
	require.NoError(t, err)
	second, err := b.Instantiate()
	require.NoError(t, err)

	require.Equal(t, first.Columns, second.Columns)
	require.Equal(t, first.Rows, second.Rows)
	require.Equal(t, first.Objective, second.Objective)
}

func TestInstantiate_ResolvesParamRHSAndCoeff(t *testing.T) {
	b := NewBuilder()
	require.NoError(t, b.AddSet("TP", []string{"t01"}))
	_, err := b.AddVariable(VarDef{Name: "Commit", Sets: []string{"TP"}, Upper: 1, Integer: true})
	require.NoError(t, err)
	_, err = b.AddVariable(VarDef{Name: "Dispatch", Sets: []string{"TP"}, Upper: Inf()})
	require.NoError(t, err)

	b.SetParam("capacity", "u1", 80)
	b.SetParam("demand", "t01", 55)

	// Dispatch - capacity*Commit <= 0
	_, err = b.AddConstraint("headroom_t01", []Term{
		T(1, "Dispatch", "t01"),
		TV(ScaledParamRef("capacity", "u1", -1), "Commit", "t01"),
	}, LessEq, Const(0))
	require.NoError(t, err)

	_, err = b.AddConstraint("balance_t01",
		[]Term{T(1, "Dispatch", "t01")}, Equal, ParamRef("demand", "t01"))
	require.NoError(t, err)

	c, err := b.Instantiate()
	require.NoError(t, err)
	require.Len(t, c.Rows, 2)
	require.Equal(t, -80.0, c.Rows[0].Terms[1].Coeff)
	require.Equal(t, 55.0, c.Rows[1].RHS)
}

func TestInstantiate_MissingParamFailsLoudly(t *testing.T) {
	b := NewBuilder()
	_, err := b.AddVariable(VarDef{Name: "X", Upper: Inf()})
	require.NoError(t, err)
	_, err = b.AddConstraint("needs_data", []Term{T(1, "X")}, LessEq, ParamRef("capacity", "u1"))
	require.NoError(t, err)

	_, err = b.Instantiate()
	require.Error(t, err, "a referenced parameter that was never loaded must not default to zero")
	require.Contains(t, err.Error(), "capacity")
}

func TestConcrete_FixColumnIsNotAFreeVariable(t *testing.T) {
	b := twoSetBuilder(t)
	c, err := b.Instantiate()
	require.NoError(t, err)

	require.NoError(t, c.FixColumn("Dispatch", []string{"coal_1", "t01"}, 5))

	idx, _ := c.ColumnIndex("Dispatch", "coal_1", "t01")
	require.True(t, c.Columns[idx].Fixed)
	require.Equal(t, 5.0, c.Columns[idx].Value)

	v, ok := c.Value("Dispatch", "coal_1", "t01")
	require.True(t, ok)
	require.Equal(t, 5.0, v)

	_, ok = c.Value("Dispatch", "gas_1", "t01")
	require.False(t, ok, "unfixed columns have no pre-solve value")

	require.Error(t, c.FixColumn("Dispatch", []string{"nope", "t01"}, 1))
}
