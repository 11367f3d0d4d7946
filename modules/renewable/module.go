// Package renewable models variable renewable generators. Dispatch is
// capped by the timepoint's available potential (capacity times capacity
// factor) and carries no operating cost; the gap between potential and
// dispatch is reported as curtailment.
package renewable

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
	// Kind is the operational-type identifier this module claims.
	Kind = "renewable"

	setGens        = "GEN_RENEWABLE"
	varDispatch    = "RenewableDispatch"
	paramPotential = "renewable_potential"
)

// Module implements the variable renewable feature.
type Module struct{}

// New returns the module.
func New() *Module { return &Module{} }

// Name implements engine.Module.
func (m *Module) Name() string { return "renewable" }

// HandlesKind claims the renewable operational type for discovery.
func (m *Module) HandlesKind(kind string) bool { return kind == Kind }

// Applicable implements engine.Module.
func (m *Module) Applicable(_ scenario.Features, kinds inputs.Kinds) bool {
	return kinds.Has(Kind)
}

// Validate checks that a profile table accompanies renewable units.
func (m *Module) Validate(in inputs.LeafReader) error {
	t, err := in.Table("renewable_profile")
	if err != nil {
		return err
	}
	for _, col := range []string{"generator", "timepoint", "capacity_factor"} {
		if !t.HasColumn(col) {
			return fmt.Errorf("renewable_profile table needs column %q", col)
		}
	}
	return nil
}

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

// Declare creates the renewable unit set and its dispatch variable.
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
	return reg.Add(engine.KeyPowerSupply, m.Name(), dispatch)
}

// Contribute caps dispatch at available potential.
func (m *Module) Contribute(bc *engine.BuildContext) error {
	for _, g := range bc.Program.Set(setGens) {
		for _, tp := range bc.Program.Set(engine.SetTimepoints) {
			if _, err := bc.Program.AddConstraint(
				fmt.Sprintf("renewable_potential_%s_%s", g, tp),
				[]program.Term{program.T(1, varDispatch, g, tp)},
				program.LessEq,
				program.ParamRef(paramPotential, program.IndexKey(g, tp)),
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadData computes per-(unit, timepoint) potential from capacity and the
// profile's capacity factors.
func (m *Module) LoadData(bc *engine.BuildContext, in inputs.LeafReader) error {
	gens, err := in.Table("generators")
	if err != nil {
		return err
	}
	capacity := make(map[string]float64)
	for i := 0; i < gens.NumRows(); i++ {
		kind, err := gens.Cell(i, "kind")
		if err != nil {
			return err
		}
		if kind != Kind {
			continue
		}
		name, err := gens.Cell(i, "name")
		if err != nil {
			return err
		}
		cap, err := gens.Float(i, "capacity_mw")
		if err != nil {
			return err
		}
		capacity[name] = cap
	}

	profile, err := in.Table("renewable_profile")
	if err != nil {
		return err
	}
	for i := 0; i < profile.NumRows(); i++ {
		g, err := profile.Cell(i, "generator")
		if err != nil {
			return err
		}
		tp, err := profile.Cell(i, "timepoint")
		if err != nil {
			return err
		}
		cf, err := profile.Float(i, "capacity_factor")
		if err != nil {
			return err
		}
		cap, ok := capacity[g]
		if !ok {
			return fmt.Errorf("renewable_profile row %d names unknown renewable generator %q", i, g)
		}
		bc.Program.SetParam(paramPotential, program.IndexKey(g, tp), cap*cf)
	}
	return nil
}

// ExportResults reports dispatch and curtailment per unit and timepoint.
func (m *Module) ExportResults(bc *engine.BuildContext, res *solver.Result) (*results.Table, error) {
	t := results.NewTable(m.Name(), "generator", "timepoint", "dispatch_mw", "curtailed_mw")
	for _, g := range bc.Program.Set(setGens) {
		for _, tp := range bc.Program.Set(engine.SetTimepoints) {
			idx, ok := bc.Concrete.ColumnIndex(varDispatch, g, tp)
			if !ok {
				return nil, fmt.Errorf("column %s[%s,%s] missing", varDispatch, g, tp)
			}
			potential, ok := potentialFor(bc, g, tp)
			if !ok {
				return nil, fmt.Errorf("potential for %s at %s never loaded", g, tp)
			}
			dispatch := res.Values[idx]
			if err := t.AddRow(g, tp,
				strconv.FormatFloat(dispatch, 'f', 3, 64),
				strconv.FormatFloat(potential-dispatch, 'f', 3, 64),
			); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

func potentialFor(bc *engine.BuildContext, g, tp string) (float64, bool) {
	return bc.Program.Param(paramPotential, program.IndexKey(g, tp))
}
