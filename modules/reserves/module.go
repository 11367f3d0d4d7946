// Package reserves is the upward-reserve requirement module. It is the
// requirement side of the reserve market: provider modules declare their
// provision variables into the shared upward-reserve entry, and this module
// requires their sum to cover the per-timepoint requirement. It never knows
// which modules provide; an entry with zero contributors against a zero
// requirement is perfectly legal.
package reserves

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
	Feature = "reserves"

	paramRequirement = "reserve_up_requirement"
)

// Module implements the upward-reserve requirement.
type Module struct{}

// New returns the module.
func New() *Module { return &Module{} }

// Name implements engine.Module.
func (m *Module) Name() string { return "reserves" }

// Applicable implements engine.Module.
func (m *Module) Applicable(feats scenario.Features, _ inputs.Kinds) bool {
	return feats.Enabled(Feature)
}

// Declare ensures the upward-reserve entry exists even when no provider
// module is in the leaf.
func (m *Module) Declare(reg *engine.SharedRegistry, bc *engine.BuildContext) error {
	return reg.Ensure(engine.KeyReserveUp)
}

// Contribute requires total declared provision to cover the requirement at
// every timepoint.
func (m *Module) Contribute(bc *engine.BuildContext) error {
	provision, err := bc.Registry.Lookup(engine.KeyReserveUp)
	if err != nil {
		return err
	}
	for _, tp := range bc.Program.Set(engine.SetTimepoints) {
		terms, err := engine.TermsAt(bc, provision, tp, 1)
		if err != nil {
			return err
		}
		if _, err := bc.Program.AddConstraint(
			"reserve_up_"+tp, terms, program.GreaterEq, program.ParamRef(paramRequirement, tp),
		); err != nil {
			return err
		}
	}
	return nil
}

// LoadData populates the per-timepoint requirement. A missing reserves
// table means a zero requirement, not an error: the scenario opted into
// reserve accounting without demanding any.
func (m *Module) LoadData(bc *engine.BuildContext, in inputs.LeafReader) error {
	for _, tp := range bc.Program.Set(engine.SetTimepoints) {
		bc.Program.SetParam(paramRequirement, tp, 0)
	}
	if !in.HasTable("reserves") {
		return nil
	}
	t, err := in.Table("reserves")
	if err != nil {
		return err
	}
	for i := 0; i < t.NumRows(); i++ {
		tp, err := t.Cell(i, "timepoint")
		if err != nil {
			return err
		}
		mw, err := t.Float(i, "requirement_mw")
		if err != nil {
			return err
		}
		bc.Program.SetParam(paramRequirement, tp, mw)
	}
	return nil
}

// ExportResults reports requirement and provided reserve per timepoint.
func (m *Module) ExportResults(bc *engine.BuildContext, res *solver.Result) (*results.Table, error) {
	provision, err := bc.Registry.Lookup(engine.KeyReserveUp)
	if err != nil {
		return nil, err
	}
	t := results.NewTable(m.Name(), "timepoint", "requirement_mw", "provided_mw")
	for _, tp := range bc.Program.Set(engine.SetTimepoints) {
		terms, err := engine.TermsAt(bc, provision, tp, 1)
		if err != nil {
			return nil, err
		}
		var provided float64
		for _, term := range terms {
			idx, ok := bc.Concrete.ColumnIndex(term.Ref.Var, term.Ref.Key...)
			if !ok {
				return nil, fmt.Errorf("provision column %s missing", term.Ref.Var)
			}
			provided += res.Values[idx]
		}
		req := bc.Program.ParamOr(paramRequirement, tp, 0)
		if err := t.AddRow(tp,
			strconv.FormatFloat(req, 'f', 3, 64),
			strconv.FormatFloat(provided, 'f', 3, 64),
		); err != nil {
			return nil, err
		}
	}
	return t, nil
}
