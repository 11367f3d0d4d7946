// Package thermal models dispatchable thermal generators: a binary
// commitment decision per unit and timepoint, dispatch between minimum
// stable level and committed capacity, and variable operating cost. When
// the scenario carries reserves, committed headroom can be sold as upward
// reserve. Commitment decisions are the records this module hands to the
// next stage through the pass-through artifact.
package thermal

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gridwerk/gridwerk/internal/engine"
	"github.com/gridwerk/gridwerk/internal/inputs"
	"github.com/gridwerk/gridwerk/internal/program"
	"github.com/gridwerk/gridwerk/internal/results"
	"github.com/gridwerk/gridwerk/internal/scenario"
	"github.com/gridwerk/gridwerk/internal/solver"
)

const (
	// Kind is the operational-type identifier this module claims.
	Kind = "thermal"

	setGens = "GEN_THERMAL"

	varDispatch  = "ThermalDispatch"
	varCommit    = "ThermalCommit"
	varReserveUp = "ThermalReserveUp"

	paramCapacity = "thermal_capacity"
	paramMinPower = "thermal_min_power"
	paramCost     = "thermal_cost"
)

// Module implements the thermal generation feature.
type Module struct{}

// New returns the module.
func New() *Module { return &Module{} }

// Name implements engine.Module.
func (m *Module) Name() string { return "thermal" }

// HandlesKind claims the thermal operational type for discovery.
func (m *Module) HandlesKind(kind string) bool { return kind == Kind }

// Applicable implements engine.Module: needed whenever the leaf's input
// data contains thermal units.
func (m *Module) Applicable(_ scenario.Features, kinds inputs.Kinds) bool {
	return kinds.Has(Kind)
}

// Validate checks the generators table shape.
func (m *Module) Validate(in inputs.LeafReader) error {
	t, err := in.Table("generators")
	if err != nil {
		return err
	}
	for _, col := range []string{"name", "kind", "capacity_mw", "variable_cost"} {
		if !t.HasColumn(col) {
			return fmt.Errorf("generators table needs column %q", col)
		}
	}
	return nil
}

// units lists the thermal rows of the generators table.
func (m *Module) units(in inputs.LeafReader) ([]string, error) {
	t, err := in.Table("generators")
	if err != nil {
		return nil, err
	}
	var names []string
	for i := 0; i < t.NumRows(); i++ {
		kind, err := t.Cell(i, "kind")
		if err != nil {
			return nil, err
		}
		if kind != Kind {
			continue
		}
		name, err := t.Cell(i, "name")
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// Declare creates the thermal unit set and its decision variables, and
// advertises dispatch as supply (and emitting power) plus, under the
// reserves feature, headroom as upward-reserve provision.
func (m *Module) Declare(reg *engine.SharedRegistry, bc *engine.BuildContext) error {
	gens, err := m.units(bc.Inputs)
	if err != nil {
		return err
	}
	if err := bc.Program.AddSet(setGens, gens); err != nil {
		return err
	}

	dispatch, err := bc.Program.AddVariable(program.VarDef{
		Name:  varDispatch,
		Sets:  []string{setGens, engine.SetTimepoints},
		Upper: program.Inf(),
	})
	if err != nil {
		return err
	}
	if _, err := bc.Program.AddVariable(program.VarDef{
		Name:    varCommit,
		Sets:    []string{setGens, engine.SetTimepoints},
		Upper:   1,
		Integer: true,
	}); err != nil {
		return err
	}

	if err := reg.Add(engine.KeyPowerSupply, m.Name(), dispatch); err != nil {
		return err
	}
	if err := reg.Add(engine.KeyEmittingPower, m.Name(), dispatch); err != nil {
		return err
	}

	if bc.Scenario.Features.Enabled("reserves") {
		reserve, err := bc.Program.AddVariable(program.VarDef{
			Name:  varReserveUp,
			Sets:  []string{setGens, engine.SetTimepoints},
			Upper: program.Inf(),
		})
		if err != nil {
			return err
		}
		if err := reg.Add(engine.KeyReserveUp, m.Name(), reserve); err != nil {
			return err
		}
	}
	return nil
}

// Contribute ties dispatch (plus any reserve headroom) to committed
// capacity, enforces minimum stable level, and prices dispatch.
func (m *Module) Contribute(bc *engine.BuildContext) error {
	withReserves := bc.Scenario.Features.Enabled("reserves")

	for _, g := range bc.Program.Set(setGens) {
		for _, tp := range bc.Program.Set(engine.SetTimepoints) {
			// Dispatch [+ reserve] <= capacity * committed
			maxTerms := []program.Term{
				program.T(1, varDispatch, g, tp),
				program.TV(program.ScaledParamRef(paramCapacity, g, -1), varCommit, g, tp),
			}
			if withReserves {
				maxTerms = append(maxTerms, program.T(1, varReserveUp, g, tp))
			}
			if _, err := bc.Program.AddConstraint(
				fmt.Sprintf("thermal_max_%s_%s", g, tp), maxTerms, program.LessEq, program.Const(0),
			); err != nil {
				return err
			}

			// Dispatch >= min_power * committed
			if _, err := bc.Program.AddConstraint(
				fmt.Sprintf("thermal_min_%s_%s", g, tp),
				[]program.Term{
					program.T(1, varDispatch, g, tp),
					program.TV(program.ScaledParamRef(paramMinPower, g, -1), varCommit, g, tp),
				},
				program.GreaterEq, program.Const(0),
			); err != nil {
				return err
			}

			if err := bc.Program.AddObjective(
				program.TV(program.ParamRef(paramCost, g), varDispatch, g, tp),
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadData populates per-unit capacity, minimum stable level, and cost.
func (m *Module) LoadData(bc *engine.BuildContext, in inputs.LeafReader) error {
	t, err := in.Table("generators")
	if err != nil {
		return err
	}
	for i := 0; i < t.NumRows(); i++ {
		kind, err := t.Cell(i, "kind")
		if err != nil {
			return err
		}
		if kind != Kind {
			continue
		}
		name, err := t.Cell(i, "name")
		if err != nil {
			return err
		}
		capacity, err := t.Float(i, "capacity_mw")
		if err != nil {
			return err
		}
		cost, err := t.Float(i, "variable_cost")
		if err != nil {
			return err
		}
		bc.Program.SetParam(paramCapacity, name, capacity)
		bc.Program.SetParam(paramCost, name, cost)

		minPower := 0.0
		if t.HasColumn("min_power_mw") {
			minPower, err = t.Float(i, "min_power_mw")
			if err != nil {
				return err
			}
		}
		bc.Program.SetParam(paramMinPower, name, minPower)
	}
	return nil
}

// FixVariables pins commitment decisions handed down from the prior stage.
// Records owned by other modules are ignored.
func (m *Module) FixVariables(bc *engine.BuildContext, pt *scenario.PassThrough) error {
	for _, r := range pt.Records() {
		if r.Entity != varCommit {
			continue
		}
		key := strings.Split(r.Index, ",")
		if err := bc.Concrete.FixColumn(varCommit, key, r.Value); err != nil {
			return err
		}
	}
	return nil
}

// ExportResults reports dispatch and commitment per unit and timepoint.
func (m *Module) ExportResults(bc *engine.BuildContext, res *solver.Result) (*results.Table, error) {
	t := results.NewTable(m.Name(), "generator", "timepoint", "dispatch_mw", "committed")
	for _, g := range bc.Program.Set(setGens) {
		for _, tp := range bc.Program.Set(engine.SetTimepoints) {
			d, ok := bc.Concrete.ColumnIndex(varDispatch, g, tp)
			if !ok {
				return nil, fmt.Errorf("column %s[%s,%s] missing", varDispatch, g, tp)
			}
			c, ok := bc.Concrete.ColumnIndex(varCommit, g, tp)
			if !ok {
				return nil, fmt.Errorf("column %s[%s,%s] missing", varCommit, g, tp)
			}
			committed := strconv.Itoa(int(math.Round(res.Values[c])))
			if err := t.AddRow(g, tp, strconv.FormatFloat(res.Values[d], 'f', 3, 64), committed); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

// ExportPassThrough hands the solved commitment pattern to the next stage.
func (m *Module) ExportPassThrough(bc *engine.BuildContext, res *solver.Result) ([]scenario.FixedValue, error) {
	var records []scenario.FixedValue
	for _, g := range bc.Program.Set(setGens) {
		for _, tp := range bc.Program.Set(engine.SetTimepoints) {
			c, ok := bc.Concrete.ColumnIndex(varCommit, g, tp)
			if !ok {
				return nil, fmt.Errorf("column %s[%s,%s] missing", varCommit, g, tp)
			}
			records = append(records, scenario.FixedValue{
				Entity: varCommit,
				Index:  program.IndexKey(g, tp),
				Value:  math.Round(res.Values[c]),
			})
		}
	}
	return records, nil
}
