// Package carboncap enforces an emissions policy: total emitting energy,
// weighted by per-generator emission rates, must stay under the scenario's
// cap. It consumes the emitting-power registry entry, so it constrains any
// module that declares emitting dispatch without knowing which one it is.
package carboncap

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
	Feature = "carbon_cap"

	paramCap  = "carbon_cap"
	paramRate = "emission_rate"
)

// Module implements the carbon cap policy.
type Module struct{}

// New returns the module.
func New() *Module { return &Module{} }

// Name implements engine.Module.
func (m *Module) Name() string { return "carbon_cap" }

// Applicable implements engine.Module.
func (m *Module) Applicable(feats scenario.Features, _ inputs.Kinds) bool {
	return feats.Enabled(Feature)
}

// Validate checks the emissions tables.
func (m *Module) Validate(in inputs.LeafReader) error {
	t, err := in.Table("carbon")
	if err != nil {
		return err
	}
	if !t.HasColumn("cap_tonnes") {
		return fmt.Errorf("carbon table needs column cap_tonnes")
	}
	e, err := in.Table("emissions")
	if err != nil {
		return err
	}
	if !e.HasColumn("generator") || !e.HasColumn("rate_tonnes_per_mwh") {
		return fmt.Errorf("emissions table needs columns generator and rate_tonnes_per_mwh")
	}
	return nil
}

// Contribute builds the single cap constraint over all emitting dispatch.
func (m *Module) Contribute(bc *engine.BuildContext) error {
	emitting, err := bc.Registry.Lookup(engine.KeyEmittingPower)
	if err != nil {
		return err
	}

	var terms []program.Term
	for _, c := range emitting {
		def, err := bc.Program.Variable(c.Handle)
		if err != nil {
			return err
		}
		for _, g := range bc.Program.Set(def.Sets[0]) {
			for _, tp := range bc.Program.Set(engine.SetTimepoints) {
				terms = append(terms, program.TV(program.ParamRef(paramRate, g), def.Name, g, tp))
			}
		}
	}

	_, err = bc.Program.AddConstraint("carbon_cap", terms, program.LessEq, program.ParamRef(paramCap, ""))
	return err
}

// LoadData populates the cap and per-generator emission rates.
func (m *Module) LoadData(bc *engine.BuildContext, in inputs.LeafReader) error {
	carbon, err := in.Table("carbon")
	if err != nil {
		return err
	}
	cap, err := carbon.Float(0, "cap_tonnes")
	if err != nil {
		return err
	}
	bc.Program.SetParam(paramCap, "", cap)

	emissions, err := in.Table("emissions")
	if err != nil {
		return err
	}
	for i := 0; i < emissions.NumRows(); i++ {
		g, err := emissions.Cell(i, "generator")
		if err != nil {
			return err
		}
		rate, err := emissions.Float(i, "rate_tonnes_per_mwh")
		if err != nil {
			return err
		}
		bc.Program.SetParam(paramRate, g, rate)
	}
	return nil
}

// ExportResults reports total emissions against the cap.
func (m *Module) ExportResults(bc *engine.BuildContext, res *solver.Result) (*results.Table, error) {
	emitting, err := bc.Registry.Lookup(engine.KeyEmittingPower)
	if err != nil {
		return nil, err
	}

	var total float64
	for _, c := range emitting {
		def, err := bc.Program.Variable(c.Handle)
		if err != nil {
			return nil, err
		}
		for _, g := range bc.Program.Set(def.Sets[0]) {
			rate := bc.Program.ParamOr(paramRate, g, 0)
			for _, tp := range bc.Program.Set(engine.SetTimepoints) {
				if idx, ok := bc.Concrete.ColumnIndex(def.Name, g, tp); ok {
					total += rate * res.Values[idx]
				}
			}
		}
	}

	t := results.NewTable(m.Name(), "cap_tonnes", "emitted_tonnes")
	cap := bc.Program.ParamOr(paramCap, "", 0)
	if err := t.AddRow(
		strconv.FormatFloat(cap, 'f', 3, 64),
		strconv.FormatFloat(total, 'f', 3, 64),
	); err != nil {
		return nil, err
	}
	return t, nil
}
