package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridwerk/gridwerk/internal/program"
	"github.com/gridwerk/gridwerk/internal/scenario"
)

func TestTermsAt_ExpandsContributions(t *testing.T) {
	bc := NewBuildContext(nil, scenario.Leaf{}, nil, nil)
	require.NoError(t, bc.Program.AddSet(SetTimepoints, []string{"t01", "t02"}))
	require.NoError(t, bc.Program.AddSet("GEN", []string{"g1", "g2"}))

	slack, err := bc.Program.AddVariable(program.VarDef{Name: "Slack", Sets: []string{SetTimepoints}, Upper: program.Inf()})
	require.NoError(t, err)
	dispatch, err := bc.Program.AddVariable(program.VarDef{Name: "Dispatch", Sets: []string{"GEN", SetTimepoints}, Upper: program.Inf()})
	require.NoError(t, err)

	terms, err := TermsAt(bc, []Contribution{
		{Module: "a", Handle: slack},
		{Module: "b", Handle: dispatch},
	}, "t01", 1)
	require.NoError(t, err)
	require.Len(t, terms, 3, "one term for the timepoint variable, one per set member for the two-set variable")

	require.Equal(t, "Slack", terms[0].Ref.Var)
	require.Equal(t, []string{"t01"}, terms[0].Ref.Key)
	require.Equal(t, []string{"g1", "t01"}, terms[1].Ref.Key)
	require.Equal(t, []string{"g2", "t01"}, terms[2].Ref.Key)
}

func TestTermsAt_RejectsScalarContributions(t *testing.T) {
	bc := NewBuildContext(nil, scenario.Leaf{}, nil, nil)
	h, err := bc.Program.AddVariable(program.VarDef{Name: "Scalar", Upper: program.Inf()})
	require.NoError(t, err)

	_, err = TermsAt(bc, []Contribution{{Module: "a", Handle: h}}, "t01", 1)
	require.Error(t, err)
}
