// Package transmission models import links into the system: priced energy
// up to each line's rating. It is gated on the scenario's "transmission"
// feature flag rather than on input kinds.
package transmission

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
	// Feature is the scenario flag that activates this module.
	Feature = "transmission"

	setLines   = "LINE"
	varImport  = "LineImport"
	paramLimit = "line_limit"
	paramCost  = "line_cost"
)

// Module implements the transmission import feature.
type Module struct{}

// New returns the module.
func New() *Module { return &Module{} }

// Name implements engine.Module.
func (m *Module) Name() string { return "transmission" }

// Applicable implements engine.Module.
func (m *Module) Applicable(feats scenario.Features, _ inputs.Kinds) bool {
	return feats.Enabled(Feature)
}

// Validate checks the lines table shape.
func (m *Module) Validate(in inputs.LeafReader) error {
	t, err := in.Table("lines")
	if err != nil {
		return err
	}
	for _, col := range []string{"name", "limit_mw", "cost_per_mwh"} {
		if !t.HasColumn(col) {
			return fmt.Errorf("lines table needs column %q", col)
		}
	}
	return nil
}

// Declare creates the line set and the import variable, which is supply.
func (m *Module) Declare(reg *engine.SharedRegistry, bc *engine.BuildContext) error {
	t, err := bc.Inputs.Table("lines")
	if err != nil {
		return err
	}
	lines, err := t.Column("name")
	if err != nil {
		return err
	}
	if err := bc.Program.AddSet(setLines, lines); err != nil {
		return err
	}
	imp, err := bc.Program.AddVariable(program.VarDef{
		Name:  varImport,
		Sets:  []string{setLines, engine.SetTimepoints},
		Upper: program.Inf(),
	})
	if err != nil {
		return err
	}
	return reg.Add(engine.KeyPowerSupply, m.Name(), imp)
}

// Contribute caps imports at the line rating and prices them.
func (m *Module) Contribute(bc *engine.BuildContext) error {
	for _, l := range bc.Program.Set(setLines) {
		for _, tp := range bc.Program.Set(engine.SetTimepoints) {
			if _, err := bc.Program.AddConstraint(
				fmt.Sprintf("line_limit_%s_%s", l, tp),
				[]program.Term{program.T(1, varImport, l, tp)},
				program.LessEq, program.ParamRef(paramLimit, l),
			); err != nil {
				return err
			}
			if err := bc.Program.AddObjective(
				program.TV(program.ParamRef(paramCost, l), varImport, l, tp),
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadData populates line ratings and import prices.
func (m *Module) LoadData(bc *engine.BuildContext, in inputs.LeafReader) error {
	t, err := in.Table("lines")
	if err != nil {
		return err
	}
	for i := 0; i < t.NumRows(); i++ {
		name, err := t.Cell(i, "name")
		if err != nil {
			return err
		}
		limit, err := t.Float(i, "limit_mw")
		if err != nil {
			return err
		}
		cost, err := t.Float(i, "cost_per_mwh")
		if err != nil {
			return err
		}
		bc.Program.SetParam(paramLimit, name, limit)
		bc.Program.SetParam(paramCost, name, cost)
	}
	return nil
}

// ExportResults reports imports per line and timepoint.
func (m *Module) ExportResults(bc *engine.BuildContext, res *solver.Result) (*results.Table, error) {
	t := results.NewTable(m.Name(), "line", "timepoint", "import_mw")
	for _, l := range bc.Program.Set(setLines) {
		for _, tp := range bc.Program.Set(engine.SetTimepoints) {
			idx, ok := bc.Concrete.ColumnIndex(varImport, l, tp)
			if !ok {
				return nil, fmt.Errorf("column %s[%s,%s] missing", varImport, l, tp)
			}
			if err := t.AddRow(l, tp, strconv.FormatFloat(res.Values[idx], 'f', 3, 64)); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}
