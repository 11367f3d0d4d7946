package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gridwerk/gridwerk/internal/config"
	"github.com/gridwerk/gridwerk/internal/engine"
	"github.com/gridwerk/gridwerk/internal/inputs"
	"github.com/gridwerk/gridwerk/internal/program"
	"github.com/gridwerk/gridwerk/internal/registry"
	"github.com/gridwerk/gridwerk/internal/results"
	"github.com/gridwerk/gridwerk/internal/scenario"
	"github.com/gridwerk/gridwerk/internal/solver"
	"github.com/gridwerk/gridwerk/internal/testutil"
	"github.com/gridwerk/gridwerk/modules/balance"
	"github.com/gridwerk/gridwerk/modules/reserves"
)

func loadScenario(t *testing.T, sd *testutil.ScenarioDir) *scenario.Scenario {
	t.Helper()
	sc, err := config.LoadScenario(context.Background(), sd.Dir)
	require.NoError(t, err)
	return sc
}

func TestRunLeaf_EndToEnd(t *testing.T) {
	sd := testutil.NewScenarioDir(t, "toy").
		WriteManifest().
		SingleBusLoad("55", "t01", "t02")
	sc := loadScenario(t, sd)

	catalog := registry.NewCatalog()
	catalog.Register(balance.New())
	adapter := &testutil.FakeAdapter{Objective: 1100}

	out := New(catalog, adapter).RunLeaf(context.Background(), sc, scenario.Leaf{}, nil)

	require.False(t, out.Failed(), "leaf failed in %s: %v", out.FailedIn, out.Err)
	require.Equal(t, PhaseDone, out.Phase)
	require.Equal(t, solver.StatusOptimal, out.Status)
	require.Equal(t, 1100.0, out.Objective)
	require.Equal(t, "optimal", out.StatusLabel())
	require.Equal(t, 1, adapter.Calls())

	require.Len(t, out.Tables, 1, "exactly the declaring module exports a table")
	require.Equal(t, "load_balance", out.Tables[0].Name)
	require.Equal(t, 2, out.Tables[0].NumRows())
	require.Empty(t, out.PassThrough)
}

func TestRunLeaf_ReserveEntryWithZeroContributors(t *testing.T) {
	sd := testutil.NewScenarioDir(t, "toy").
		WithFeatures("reserves").
		WriteManifest().
		SingleBusLoad("0", "t01")
	sc := loadScenario(t, sd)

	catalog := registry.NewCatalog()
	catalog.Register(balance.New())
	catalog.Register(reserves.New())

	out := New(catalog, &testutil.FakeAdapter{}).RunLeaf(context.Background(), sc, scenario.Leaf{}, nil)

	require.False(t, out.Failed(), "an ensured registry entry with no providers must still solve: %v", out.Err)
	require.Equal(t, solver.StatusOptimal, out.Status)

	var reservesTable *results.Table
	for _, tbl := range out.Tables {
		if tbl.Name == "reserves" {
			reservesTable = tbl
		}
	}
	require.NotNil(t, reservesTable)
	require.Equal(t, 1, reservesTable.NumRows())
	require.Equal(t, []string{"t01", "0.000", "0.000"}, reservesTable.Rows[0])
}

func TestRunLeaf_DiscoveryFailureSkipsSolver(t *testing.T) {
	sd := testutil.NewScenarioDir(t, "toy").
		WriteManifest().
		SingleBusLoad("10", "t01").
		WriteTable("", "", "generators", [][]string{
			{"name", "kind", "capacity_mw", "variable_cost"},
			{"plant_x", "fusion", "100", "0"},
		})
	sc := loadScenario(t, sd)

	catalog := registry.NewCatalog()
	catalog.Register(balance.New())
	adapter := &testutil.FakeAdapter{}

	out := New(catalog, adapter).RunLeaf(context.Background(), sc, scenario.Leaf{}, nil)

	require.True(t, out.Failed())
	require.Equal(t, PhaseDiscover, out.FailedIn)
	require.Equal(t, "failed_Discover", out.StatusLabel())

	var cfgErr *engine.ConfigurationError
	require.ErrorAs(t, out.Err, &cfgErr)
	require.Zero(t, adapter.Calls(), "nothing may be solved after a discovery failure")
}

func TestRunLeaf_NonOptimalSolveFails(t *testing.T) {
	sd := testutil.NewScenarioDir(t, "toy").
		WriteManifest().
		SingleBusLoad("10", "t01")
	sc := loadScenario(t, sd)

	catalog := registry.NewCatalog()
	catalog.Register(balance.New())
	adapter := &testutil.FakeAdapter{Status: solver.StatusInfeasible}

	out := New(catalog, adapter).RunLeaf(context.Background(), sc, scenario.Leaf{}, nil)

	require.True(t, out.Failed())
	require.Equal(t, solver.StatusInfeasible, out.Status)
	require.Equal(t, "infeasible", out.StatusLabel())
	require.Empty(t, out.Tables, "no results may be exported from a non-optimal solve")
}

func TestRunLeaf_SolveCeilingReportsTimedOut(t *testing.T) {
	sd := testutil.NewScenarioDir(t, "toy").
		WriteManifest().
		SingleBusLoad("10", "t01")
	sc := loadScenario(t, sd)

	catalog := registry.NewCatalog()
	catalog.Register(balance.New())
	adapter := &testutil.FakeAdapter{Delay: time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	out := New(catalog, adapter).RunLeaf(ctx, sc, scenario.Leaf{}, nil)

	require.True(t, out.Failed())
	require.Equal(t, PhaseExtractSolution, out.FailedIn)
	require.Equal(t, solver.StatusTimedOut, out.Status)
	require.Equal(t, "timed_out", out.StatusLabel())
}

// hookRecorder implements every optional hook and records the order the
// pipeline invokes them in, plus what it observed about the registry.
type hookRecorder struct {
	calls []string

	sealedAtDeclare    bool
	sealedAtContribute bool
	sawPassThrough     *scenario.PassThrough
}

func (m *hookRecorder) Name() string { return "recorder" }

func (m *hookRecorder) Applicable(scenario.Features, inputs.Kinds) bool { return true }

func (m *hookRecorder) Validate(inputs.LeafReader) error {
	m.calls = append(m.calls, "Validate")
	return nil
}

func (m *hookRecorder) Declare(reg *engine.SharedRegistry, bc *engine.BuildContext) error {
	m.calls = append(m.calls, "Declare")
	m.sealedAtDeclare = reg.Sealed()
	h, err := bc.Program.AddVariable(program.VarDef{Name: "Probe", Upper: program.Inf()})
	if err != nil {
		return err
	}
	return reg.Add(engine.KeyPowerSupply, m.Name(), h)
}

func (m *hookRecorder) Contribute(bc *engine.BuildContext) error {
	m.calls = append(m.calls, "Contribute")
	m.sealedAtContribute = bc.Registry.Sealed()
	return bc.Program.AddObjective(program.T(1, "Probe"))
}

func (m *hookRecorder) LoadData(bc *engine.BuildContext, in inputs.LeafReader) error {
	m.calls = append(m.calls, "LoadData")
	return nil
}

func (m *hookRecorder) FixVariables(bc *engine.BuildContext, pt *scenario.PassThrough) error {
	m.calls = append(m.calls, "FixVariables")
	m.sawPassThrough = pt
	return nil
}

func (m *hookRecorder) ExportResults(bc *engine.BuildContext, res *solver.Result) (*results.Table, error) {
	m.calls = append(m.calls, "ExportResults")
	return nil, nil
}

func TestRunLeaf_HookOrder(t *testing.T) {
	sd := testutil.NewScenarioDir(t, "toy").WriteManifest()
	sc := loadScenario(t, sd)

	rec := &hookRecorder{}
	catalog := registry.NewCatalog()
	catalog.Register(rec)

	pt := scenario.NewPassThrough()
	pt.Append(scenario.FixedValue{Entity: "Probe", Index: "", Value: 3})

	out := New(catalog, &testutil.FakeAdapter{}).RunLeaf(context.Background(), sc, scenario.Leaf{}, pt)

	require.False(t, out.Failed(), "leaf failed in %s: %v", out.FailedIn, out.Err)
	require.Equal(t,
		[]string{"Validate", "Declare", "Contribute", "LoadData", "FixVariables", "ExportResults"},
		rec.calls)
	require.False(t, rec.sealedAtDeclare, "registry must accept entries while modules declare")
	require.True(t, rec.sealedAtContribute, "registry must be sealed before any module contributes")
	require.Same(t, pt, rec.sawPassThrough)
	require.Empty(t, out.Tables, "a nil exported table means nothing to report")
}

func TestRunLeaf_FixVariablesSkippedWithoutArtifact(t *testing.T) {
	sd := testutil.NewScenarioDir(t, "toy").WriteManifest()
	sc := loadScenario(t, sd)

	rec := &hookRecorder{}
	catalog := registry.NewCatalog()
	catalog.Register(rec)

	out := New(catalog, &testutil.FakeAdapter{}).RunLeaf(context.Background(), sc, scenario.Leaf{}, nil)

	require.False(t, out.Failed())
	require.NotContains(t, rec.calls, "FixVariables")
}
