// Package storage models energy storage units: charge, discharge, and a
// state-of-charge chain linking consecutive timepoints. Discharge counts as
// supply, charge as demand, and under the reserves feature unused discharge
// headroom is offered as upward reserve.
package storage

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
	Kind = "storage"

	setUnits = "STORAGE"

	varCharge    = "StorageCharge"
	varDischarge = "StorageDischarge"
	varSOC       = "StorageSOC"
	varReserveUp = "StorageReserveUp"

	paramEnergy     = "storage_energy"
	paramPower      = "storage_power"
	paramEfficiency = "storage_efficiency"
	paramInitial    = "storage_initial"
)

// Module implements the storage feature.
type Module struct{}

// New returns the module.
func New() *Module { return &Module{} }

// Name implements engine.Module.
func (m *Module) Name() string { return "storage" }

// HandlesKind claims the storage operational type for discovery.
func (m *Module) HandlesKind(kind string) bool { return kind == Kind }

// Applicable implements engine.Module.
func (m *Module) Applicable(_ scenario.Features, kinds inputs.Kinds) bool {
	return kinds.Has(Kind)
}

// Validate checks the storage table shape.
func (m *Module) Validate(in inputs.LeafReader) error {
	t, err := in.Table("storage")
	if err != nil {
		return err
	}
	for _, col := range []string{"name", "energy_mwh", "power_mw", "efficiency"} {
		if !t.HasColumn(col) {
			return fmt.Errorf("storage table needs column %q", col)
		}
	}
	return nil
}

func (m *Module) units(in inputs.LeafReader) ([]string, error) {
	t, err := in.Table("storage")
	if err != nil {
		return nil, err
	}
	return t.Column("name")
}

// Declare creates the storage set and its decision variables, advertising
// discharge as supply and charge as demand.
func (m *Module) Declare(reg *engine.SharedRegistry, bc *engine.BuildContext) error {
	units, err := m.units(bc.Inputs)
	if err != nil {
		return err
	}
	if err := bc.Program.AddSet(setUnits, units); err != nil {
		return err
	}

	charge, err := bc.Program.AddVariable(program.VarDef{
		Name:  varCharge,
		Sets:  []string{setUnits, engine.SetTimepoints},
		Upper: program.Inf(),
	})
	if err != nil {
		return err
	}
	discharge, err := bc.Program.AddVariable(program.VarDef{
		Name:  varDischarge,
		Sets:  []string{setUnits, engine.SetTimepoints},
		Upper: program.Inf(),
	})
	if err != nil {
		return err
	}
	if _, err := bc.Program.AddVariable(program.VarDef{
		Name:  varSOC,
		Sets:  []string{setUnits, engine.SetTimepoints},
		Upper: program.Inf(),
	}); err != nil {
		return err
	}

	if err := reg.Add(engine.KeyPowerSupply, m.Name(), discharge); err != nil {
		return err
	}
	if err := reg.Add(engine.KeyPowerDemand, m.Name(), charge); err != nil {
		return err
	}

	if bc.Scenario.Features.Enabled("reserves") {
		reserve, err := bc.Program.AddVariable(program.VarDef{
			Name:  varReserveUp,
			Sets:  []string{setUnits, engine.SetTimepoints},
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

// Contribute builds the state-of-charge chain and the power and energy
// rating limits.
func (m *Module) Contribute(bc *engine.BuildContext) error {
	withReserves := bc.Scenario.Features.Enabled("reserves")
	tps := bc.Program.Set(engine.SetTimepoints)

	for _, s := range bc.Program.Set(setUnits) {
		for i, tp := range tps {
			// SOC[t] - SOC[t-1] - eff*Charge[t] + Discharge[t] = 0
			// (the first timepoint chains to the initial level parameter).
			terms := []program.Term{
				program.T(1, varSOC, s, tp),
				program.TV(program.ScaledParamRef(paramEfficiency, s, -1), varCharge, s, tp),
				program.T(1, varDischarge, s, tp),
			}
			rhs := program.ParamRef(paramInitial, s)
			if i > 0 {
				terms = append(terms, program.T(-1, varSOC, s, tps[i-1]))
				rhs = program.Const(0)
			}
			if _, err := bc.Program.AddConstraint(
				fmt.Sprintf("storage_soc_%s_%s", s, tp), terms, program.Equal, rhs,
			); err != nil {
				return err
			}

			if _, err := bc.Program.AddConstraint(
				fmt.Sprintf("storage_energy_%s_%s", s, tp),
				[]program.Term{program.T(1, varSOC, s, tp)},
				program.LessEq, program.ParamRef(paramEnergy, s),
			); err != nil {
				return err
			}

			if _, err := bc.Program.AddConstraint(
				fmt.Sprintf("storage_charge_%s_%s", s, tp),
				[]program.Term{program.T(1, varCharge, s, tp)},
				program.LessEq, program.ParamRef(paramPower, s),
			); err != nil {
				return err
			}

			dischargeTerms := []program.Term{program.T(1, varDischarge, s, tp)}
			if withReserves {
				dischargeTerms = append(dischargeTerms, program.T(1, varReserveUp, s, tp))
			}
			if _, err := bc.Program.AddConstraint(
				fmt.Sprintf("storage_discharge_%s_%s", s, tp),
				dischargeTerms, program.LessEq, program.ParamRef(paramPower, s),
			); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadData populates the storage unit ratings. Initial state of charge
// defaults to half the energy rating unless the table provides it.
func (m *Module) LoadData(bc *engine.BuildContext, in inputs.LeafReader) error {
	t, err := in.Table("storage")
	if err != nil {
		return err
	}
	for i := 0; i < t.NumRows(); i++ {
		name, err := t.Cell(i, "name")
		if err != nil {
			return err
		}
		energy, err := t.Float(i, "energy_mwh")
		if err != nil {
			return err
		}
		power, err := t.Float(i, "power_mw")
		if err != nil {
			return err
		}
		eff, err := t.Float(i, "efficiency")
		if err != nil {
			return err
		}
		initial := energy / 2
		if t.HasColumn("initial_mwh") {
			initial, err = t.Float(i, "initial_mwh")
			if err != nil {
				return err
			}
		}
		bc.Program.SetParam(paramEnergy, name, energy)
		bc.Program.SetParam(paramPower, name, power)
		bc.Program.SetParam(paramEfficiency, name, eff)
		bc.Program.SetParam(paramInitial, name, initial)
	}
	return nil
}

// ExportResults reports the charge/discharge pattern and state of charge.
func (m *Module) ExportResults(bc *engine.BuildContext, res *solver.Result) (*results.Table, error) {
	t := results.NewTable(m.Name(), "unit", "timepoint", "charge_mw", "discharge_mw", "soc_mwh")
	for _, s := range bc.Program.Set(setUnits) {
		for _, tp := range bc.Program.Set(engine.SetTimepoints) {
			cells := []string{s, tp}
			for _, v := range []string{varCharge, varDischarge, varSOC} {
				idx, ok := bc.Concrete.ColumnIndex(v, s, tp)
				if !ok {
					return nil, fmt.Errorf("column %s[%s,%s] missing", v, s, tp)
				}
				cells = append(cells, strconv.FormatFloat(res.Values[idx], 'f', 3, 64))
			}
			if err := t.AddRow(cells...); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}
