package thermal

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridwerk/gridwerk/internal/engine"
	"github.com/gridwerk/gridwerk/internal/inputs"
	"github.com/gridwerk/gridwerk/internal/program"
	"github.com/gridwerk/gridwerk/internal/scenario"
	"github.com/gridwerk/gridwerk/internal/solver"
	"github.com/gridwerk/gridwerk/internal/testutil"
)

func fleetInputs(t *testing.T) inputs.LeafReader {
	t.Helper()
	sd := testutil.NewScenarioDir(t, "toy").
		WriteTable("", "", "generators", [][]string{
			{"name", "kind", "capacity_mw", "variable_cost", "min_power_mw"},
			{"coal_1", "thermal", "100", "25", "40"},
			{"wind_1", "renewable", "50", "0", "0"},
			{"gas_1", "thermal", "60", "55", "10"},
		})
	return inputs.NewDirReader(scenario.InputDir(sd.Dir, scenario.Leaf{}))
}

func builtContext(t *testing.T, features scenario.Features, in inputs.LeafReader) *engine.BuildContext {
	t.Helper()
	m := New()
	sc := &scenario.Scenario{Name: "toy", Features: features}
	bc := engine.NewBuildContext(sc, scenario.Leaf{}, in, []engine.Module{m})

	// Timepoints belong to another module; seed them directly.
	require.NoError(t, bc.Program.AddSet(engine.SetTimepoints, []string{"t01", "t02"}))

	require.NoError(t, m.Declare(bc.Registry, bc))
	bc.Registry.Seal()
	require.NoError(t, m.Contribute(bc))
	require.NoError(t, m.LoadData(bc, in))
	return bc
}

func TestApplicable(t *testing.T) {
	m := New()
	require.True(t, m.Applicable(scenario.Features{}, inputs.Kinds{"thermal": true}))
	require.False(t, m.Applicable(scenario.Features{}, inputs.Kinds{"renewable": true}))
	require.True(t, m.HandlesKind("thermal"))
	require.False(t, m.HandlesKind("storage"))
}

func TestDeclare_OnlyThermalUnits(t *testing.T) {
	bc := builtContext(t, scenario.Features{}, fleetInputs(t))
	require.Equal(t, []string{"coal_1", "gas_1"}, bc.Program.Set("GEN_THERMAL"))

	supply, err := bc.Registry.Lookup(engine.KeyPowerSupply)
	require.NoError(t, err)
	require.Len(t, supply, 1)

	emitting, err := bc.Registry.Lookup(engine.KeyEmittingPower)
	require.NoError(t, err)
	require.Len(t, emitting, 1)

	_, hasReserve := bc.Program.VariableByName("ThermalReserveUp")
	require.False(t, hasReserve, "reserve headroom exists only under the reserves feature")
}

func TestDeclare_ReserveVariableUnderFeature(t *testing.T) {
	bc := builtContext(t, scenario.Features{"reserves": true}, fleetInputs(t))

	_, ok := bc.Program.VariableByName("ThermalReserveUp")
	require.True(t, ok)

	up, err := bc.Registry.Lookup(engine.KeyReserveUp)
	require.NoError(t, err)
	require.Len(t, up, 1)
}

func TestContribute_CommitmentEnvelope(t *testing.T) {
	bc := builtContext(t, scenario.Features{}, fleetInputs(t))

	c, err := bc.Program.Instantiate()
	require.NoError(t, err)

	// Two constraints per unit and timepoint, no balance rows here.
	require.Len(t, c.Rows, 8)

	// coal_1 at t01: dispatch - 100*commit <= 0 and dispatch - 40*commit >= 0.
	require.Equal(t, "thermal_max_coal_1_t01", c.Rows[0].Name)
	require.Equal(t, -100.0, c.Rows[0].Terms[1].Coeff)
	require.Equal(t, "thermal_min_coal_1_t01", c.Rows[1].Name)
	require.Equal(t, -40.0, c.Rows[1].Terms[1].Coeff)

	// Dispatch cost lands in the objective with the unit's variable cost.
	require.Equal(t, 25.0, c.Objective[0].Coeff)

	commitIdx, ok := c.ColumnIndex("ThermalCommit", "coal_1", "t01")
	require.True(t, ok)
	require.True(t, c.Columns[commitIdx].Integer)
	require.Equal(t, 1.0, c.Columns[commitIdx].Upper)
}

func TestFixVariables_PinsPriorCommitments(t *testing.T) {
	bc := builtContext(t, scenario.Features{}, fleetInputs(t))
	c, err := bc.Program.Instantiate()
	require.NoError(t, err)
	bc.Concrete = c

	pt := scenario.NewPassThrough()
	pt.Append(
		scenario.FixedValue{Entity: "ThermalCommit", Index: "coal_1,t01", Value: 1},
		scenario.FixedValue{Entity: "SomeOtherEntity", Index: "x", Value: 9},
	)
	require.NoError(t, New().FixVariables(bc, pt))

	v, ok := c.Value("ThermalCommit", "coal_1", "t01")
	require.True(t, ok, "the handed-down commitment is a fixed constant, not a free variable")
	require.Equal(t, 1.0, v)

	_, ok = c.Value("ThermalCommit", "coal_1", "t02")
	require.False(t, ok)
}

func TestFixVariables_UnknownIndexFails(t *testing.T) {
	bc := builtContext(t, scenario.Features{}, fleetInputs(t))
	c, err := bc.Program.Instantiate()
	require.NoError(t, err)
	bc.Concrete = c

	pt := scenario.NewPassThrough()
	pt.Append(scenario.FixedValue{Entity: "ThermalCommit", Index: "retired_unit,t01", Value: 1})
	require.Error(t, New().FixVariables(bc, pt))
}

func TestExportPassThrough_RoundsCommitments(t *testing.T) {
	bc := builtContext(t, scenario.Features{}, fleetInputs(t))
	c, err := bc.Program.Instantiate()
	require.NoError(t, err)
	bc.Concrete = c

	values := make([]float64, len(c.Columns))
	idx, ok := c.ColumnIndex("ThermalCommit", "gas_1", "t02")
	require.True(t, ok)
	values[idx] = 0.9999 // MIP tolerance noise

	records, err := New().ExportPassThrough(bc, &solver.Result{Status: solver.StatusOptimal, Values: values})
	require.NoError(t, err)
	require.Len(t, records, 4)

	found := false
	for _, r := range records {
		if r.Entity == "ThermalCommit" && r.Index == program.IndexKey("gas_1", "t02") {
			require.Equal(t, 1.0, r.Value)
			found = true
		}
	}
	require.True(t, found)
}

func TestExportResults(t *testing.T) {
	bc := builtContext(t, scenario.Features{}, fleetInputs(t))
	c, err := bc.Program.Instantiate()
	require.NoError(t, err)
	bc.Concrete = c

	values := make([]float64, len(c.Columns))
	d, _ := c.ColumnIndex("ThermalDispatch", "coal_1", "t01")
	cm, _ := c.ColumnIndex("ThermalCommit", "coal_1", "t01")
	values[d] = 80.5
	values[cm] = 1

	tbl, err := New().ExportResults(bc, &solver.Result{Status: solver.StatusOptimal, Values: values})
	require.NoError(t, err)
	require.Equal(t, "thermal", tbl.Name)
	require.Equal(t, []string{"coal_1", "t01", "80.500", "1"}, tbl.Rows[0])
}
