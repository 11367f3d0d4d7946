// Package balance is the system-wide load balance module. It owns the
// shared timepoint set, requires supply to meet demand at every timepoint,
// and prices unserved energy so an undersupplied program stays feasible but
// visibly expensive.
package balance

import (
	"fmt"
	"strconv"

	"github.com/gridwerk/gridwerk/internal/engine"
	"github.com/gridwerk/gridwerk/internal/inputs"
	"github.com/gridwerk/gridwerk/internal/program"
	"github.com/gridwerk/gridwerk/internal/results"
	"github.com/gridwerk/gridwerk/internal/scenario"
	"github.com/gridwerk/gridwerk/internal/solver"
)

const (
	varUnserved   = "UnservedEnergy"
	paramDemand   = "demand"
	unservedPrice = 10000.0
)

// Module implements the load balance feature.
type Module struct{}

// New returns the module.
func New() *Module { return &Module{} }

// Name implements engine.Module.
func (m *Module) Name() string { return "load_balance" }

// Applicable implements engine.Module; every leaf balances load.
func (m *Module) Applicable(scenario.Features, inputs.Kinds) bool { return true }

// Validate checks the load table shape before any build work.
func (m *Module) Validate(in inputs.LeafReader) error {
	t, err := in.Table("load")
	if err != nil {
		return err
	}
	if !t.HasColumn("timepoint") || !t.HasColumn("demand_mw") {
		return fmt.Errorf("load table needs columns timepoint and demand_mw")
	}
	if t.NumRows() == 0 {
		return fmt.Errorf("load table has no timepoints")
	}
	return nil
}

// Declare creates the shared timepoint set and the unserved-energy slack,
// which counts as supply.
func (m *Module) Declare(reg *engine.SharedRegistry, bc *engine.BuildContext) error {
	t, err := bc.Inputs.Table("load")
	if err != nil {
		return err
	}
	tps, err := t.Column("timepoint")
	if err != nil {
		return err
	}
	if err := bc.Program.AddSet(engine.SetTimepoints, tps); err != nil {
		return err
	}

	h, err := bc.Program.AddVariable(program.VarDef{
		Name:  varUnserved,
		Sets:  []string{engine.SetTimepoints},
		Upper: program.Inf(),
	})
	if err != nil {
		return err
	}
	return reg.Add(engine.KeyPowerSupply, m.Name(), h)
}

// Contribute builds one balance constraint per timepoint: everything in
// the supply entry minus everything in the demand entry equals load.
func (m *Module) Contribute(bc *engine.BuildContext) error {
	supply, err := bc.Registry.Lookup(engine.KeyPowerSupply)
	if err != nil {
		return err
	}
	demand, err := bc.Registry.Lookup(engine.KeyPowerDemand)
	if err != nil {
		return err
	}

	for _, tp := range bc.Program.Set(engine.SetTimepoints) {
		terms, err := engine.TermsAt(bc, supply, tp, 1)
		if err != nil {
			return err
		}
		demandTerms, err := engine.TermsAt(bc, demand, tp, -1)
		if err != nil {
			return err
		}
		terms = append(terms, demandTerms...)

		if _, err := bc.Program.AddConstraint(
			"balance_"+tp, terms, program.Equal, program.ParamRef(paramDemand, tp),
		); err != nil {
			return err
		}
	}

	for _, tp := range bc.Program.Set(engine.SetTimepoints) {
		if err := bc.Program.AddObjective(program.T(unservedPrice, varUnserved, tp)); err != nil {
			return err
		}
	}
	return nil
}

// LoadData populates per-timepoint demand.
func (m *Module) LoadData(bc *engine.BuildContext, in inputs.LeafReader) error {
	t, err := in.Table("load")
	if err != nil {
		return err
	}
	for i := 0; i < t.NumRows(); i++ {
		tp, err := t.Cell(i, "timepoint")
		if err != nil {
			return err
		}
		mw, err := t.Float(i, "demand_mw")
		if err != nil {
			return err
		}
		bc.Program.SetParam(paramDemand, tp, mw)
	}
	return nil
}

// ExportResults reports demand and any unserved energy per timepoint.
func (m *Module) ExportResults(bc *engine.BuildContext, res *solver.Result) (*results.Table, error) {
	t := results.NewTable(m.Name(), "timepoint", "demand_mw", "unserved_mw")
	for _, tp := range bc.Program.Set(engine.SetTimepoints) {
		demand := bc.Program.ParamOr(paramDemand, tp, 0)
		idx, ok := bc.Concrete.ColumnIndex(varUnserved, tp)
		if !ok {
			return nil, fmt.Errorf("column %s[%s] missing from concrete program", varUnserved, tp)
		}
		if err := t.AddRow(tp, formatMW(demand), formatMW(res.Values[idx])); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func formatMW(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
