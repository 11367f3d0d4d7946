package balance

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridwerk/gridwerk/internal/engine"
	"github.com/gridwerk/gridwerk/internal/inputs"
	"github.com/gridwerk/gridwerk/internal/scenario"
	"github.com/gridwerk/gridwerk/internal/solver"
	"github.com/gridwerk/gridwerk/internal/testutil"
)

func leafInputs(t *testing.T, sd *testutil.ScenarioDir) inputs.LeafReader {
	t.Helper()
	return inputs.NewDirReader(scenario.InputDir(sd.Dir, scenario.Leaf{}))
}

func builtContext(t *testing.T, m *Module, in inputs.LeafReader) *engine.BuildContext {
	t.Helper()
	sc := &scenario.Scenario{Name: "toy", Features: scenario.Features{}}
	bc := engine.NewBuildContext(sc, scenario.Leaf{}, in, []engine.Module{m})

	require.NoError(t, m.Declare(bc.Registry, bc))
	bc.Registry.Seal()
	require.NoError(t, m.Contribute(bc))
	require.NoError(t, m.LoadData(bc, in))
	return bc
}

func TestValidate(t *testing.T) {
	m := New()

	good := testutil.NewScenarioDir(t, "toy").SingleBusLoad("10", "t01")
	require.NoError(t, m.Validate(leafInputs(t, good)))

	noDemand := testutil.NewScenarioDir(t, "toy").
		WriteTable("", "", "load", [][]string{{"timepoint"}, {"t01"}})
	require.Error(t, m.Validate(leafInputs(t, noDemand)))

	noRows := testutil.NewScenarioDir(t, "toy").
		WriteTable("", "", "load", [][]string{{"timepoint", "demand_mw"}})
	require.Error(t, m.Validate(leafInputs(t, noRows)))

	noTable := testutil.NewScenarioDir(t, "toy")
	require.Error(t, m.Validate(leafInputs(t, noTable)))
}

func TestDeclare_OwnsTimepointsAndSlack(t *testing.T) {
	sd := testutil.NewScenarioDir(t, "toy").SingleBusLoad("10", "t01", "t02", "t03")
	m := New()
	sc := &scenario.Scenario{Name: "toy", Features: scenario.Features{}}
	bc := engine.NewBuildContext(sc, scenario.Leaf{}, leafInputs(t, sd), []engine.Module{m})

	require.NoError(t, m.Declare(bc.Registry, bc))
	require.Equal(t, []string{"t01", "t02", "t03"}, bc.Program.Set(engine.SetTimepoints))

	bc.Registry.Seal()
	supply, err := bc.Registry.Lookup(engine.KeyPowerSupply)
	require.NoError(t, err)
	require.Len(t, supply, 1)
	require.Equal(t, m.Name(), supply[0].Module)
}

func TestContribute_OneBalanceRowPerTimepoint(t *testing.T) {
	sd := testutil.NewScenarioDir(t, "toy").SingleBusLoad("55", "t01", "t02")
	bc := builtContext(t, New(), leafInputs(t, sd))

	c, err := bc.Program.Instantiate()
	require.NoError(t, err)
	require.Len(t, c.Rows, 2)
	require.Equal(t, 55.0, c.Rows[0].RHS)
	require.Len(t, c.Objective, 2, "every timepoint's slack is priced")
	require.Equal(t, 10000.0, c.Objective[0].Coeff)
}

func TestExportResults(t *testing.T) {
	sd := testutil.NewScenarioDir(t, "toy").SingleBusLoad("55", "t01", "t02")
	bc := builtContext(t, New(), leafInputs(t, sd))

	c, err := bc.Program.Instantiate()
	require.NoError(t, err)
	bc.Concrete = c

	values := make([]float64, len(c.Columns))
	idx, ok := c.ColumnIndex("UnservedEnergy", "t02")
	require.True(t, ok)
	values[idx] = 5

	tbl, err := New().ExportResults(bc, &solver.Result{Status: solver.StatusOptimal, Values: values})
	require.NoError(t, err)
	require.Equal(t, "load_balance", tbl.Name)
	require.Equal(t, []string{"t01", "55.000", "0.000"}, tbl.Rows[0])
	require.Equal(t, []string{"t02", "55.000", "5.000"}, tbl.Rows[1])
}
