// Package pipeline turns one leaf into a solved, exported result set by
// driving the discovered modules through the fixed phase order.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/gridwerk/gridwerk/internal/ctxlog"
	"github.com/gridwerk/gridwerk/internal/engine"
	"github.com/gridwerk/gridwerk/internal/inputs"
	"github.com/gridwerk/gridwerk/internal/registry"
	"github.com/gridwerk/gridwerk/internal/results"
	"github.com/gridwerk/gridwerk/internal/scenario"
	"github.com/gridwerk/gridwerk/internal/solver"
)

// Pipeline runs the build→solve→export phases for leaves. It is stateless
// and safe to share across workers; all per-leaf state lives in the
// BuildContext created inside RunLeaf.
type Pipeline struct {
	catalog *registry.Catalog
	adapter solver.Adapter
}

// New returns a pipeline over the given module catalog and solver adapter.
func New(catalog *registry.Catalog, adapter solver.Adapter) *Pipeline {
	return &Pipeline{catalog: catalog, adapter: adapter}
}

// Outcome is the result-style return of one leaf run. Err is nil exactly
// when Phase is PhaseDone; when Phase is PhaseFailed, FailedIn names the
// phase the error originated in.
type Outcome struct {
	Leaf     scenario.Leaf
	Phase    Phase
	FailedIn Phase
	Err      error

	Status       solver.Status
	Objective    float64
	SolveSeconds float64

	// Tables holds one exported table per module that produced results.
	Tables []*results.Table
	// PassThrough holds the records to pin in the next stage, when the
	// leaf belongs to a staged subproblem.
	PassThrough []scenario.FixedValue
}

// Failed reports whether the leaf ended in the failed terminal state.
func (o *Outcome) Failed() bool { return o.Phase == PhaseFailed }

// StatusLabel is the string recorded in run summaries: the solver status
// when the solve produced one, otherwise the phase the leaf failed in.
func (o *Outcome) StatusLabel() string {
	if !o.Failed() {
		return o.Status.String()
	}
	switch o.FailedIn {
	case PhaseSolve, PhaseExtractSolution:
		return o.Status.String()
	default:
		return "failed_" + o.FailedIn.String()
	}
}

// RunLeaf executes the full phase sequence for one leaf. pt is the prior
// stage's pass-through artifact, nil for the first (or only) stage.
func (p *Pipeline) RunLeaf(ctx context.Context, sc *scenario.Scenario, leaf scenario.Leaf, pt *scenario.PassThrough) *Outcome {
	logger := ctxlog.FromContext(ctx).With("scenario", sc.Name, "leaf", leaf.String())
	out := &Outcome{Leaf: leaf}

	fail := func(in Phase, err error) *Outcome {
		logger.Error("Leaf failed.", "phase", in.String(), "error", err)
		out.Phase = PhaseFailed
		out.FailedIn = in
		out.Err = err
		return out
	}

	// Discover
	logger.Debug("Phase started.", "phase", PhaseDiscover.String())
	in := inputs.NewDirReader(scenario.InputDir(sc.Dir, leaf))
	modules, err := p.catalog.Discover(ctx, sc, in)
	if err != nil {
		return fail(PhaseDiscover, err)
	}
	for _, m := range modules {
		if v, ok := m.(engine.Validator); ok {
			if err := v.Validate(in); err != nil {
				return fail(PhaseDiscover, &engine.ModuleError{Leaf: leaf, Module: m.Name(), Phase: "Validate", Err: err})
			}
		}
	}
	bc := engine.NewBuildContext(sc, leaf, in, modules)

	// DeclareComponents
	logger.Debug("Phase started.", "phase", PhaseDeclareComponents.String())
	for _, m := range modules {
		if d, ok := m.(engine.Declarer); ok {
			if err := d.Declare(bc.Registry, bc); err != nil {
				return fail(PhaseDeclareComponents, &engine.ModuleError{Leaf: leaf, Module: m.Name(), Phase: PhaseDeclareComponents.String(), Err: err})
			}
		}
	}
	bc.Registry.Seal()

	// BuildProgram
	logger.Debug("Phase started.", "phase", PhaseBuildProgram.String())
	for _, m := range modules {
		if c, ok := m.(engine.Contributor); ok {
			if err := c.Contribute(bc); err != nil {
				return fail(PhaseBuildProgram, &engine.ModuleError{Leaf: leaf, Module: m.Name(), Phase: PhaseBuildProgram.String(), Err: err})
			}
		}
	}

	// LoadData
	logger.Debug("Phase started.", "phase", PhaseLoadData.String())
	for _, m := range modules {
		if dl, ok := m.(engine.DataLoader); ok {
			if err := dl.LoadData(bc, in); err != nil {
				return fail(PhaseLoadData, &engine.ModuleError{Leaf: leaf, Module: m.Name(), Phase: PhaseLoadData.String(), Err: err})
			}
		}
	}

	// Instantiate: pure, idempotent symbolic→numeric transformation.
	logger.Debug("Phase started.", "phase", PhaseInstantiate.String())
	concrete, err := bc.Program.Instantiate()
	if err != nil {
		return fail(PhaseInstantiate, fmt.Errorf("instantiate program: %w", err))
	}
	bc.Concrete = concrete
	logger.Debug("Program instantiated.", "columns", len(concrete.Columns), "rows", len(concrete.Rows))

	// FixVariables: only when a prior stage handed something down.
	if pt != nil {
		logger.Debug("Phase started.", "phase", PhaseFixVariables.String(), "records", pt.Len())
		for _, m := range modules {
			if f, ok := m.(engine.VariableFixer); ok {
				if err := f.FixVariables(bc, pt); err != nil {
					return fail(PhaseFixVariables, &engine.ModuleError{Leaf: leaf, Module: m.Name(), Phase: PhaseFixVariables.String(), Err: err})
				}
			}
		}
	}

	// Solve
	logger.Debug("Phase started.", "phase", PhaseSolve.String(), "solver", sc.Solver.Name)
	start := time.Now()
	res, err := p.adapter.Solve(ctx, bc.Concrete, solver.Options{
		Name:       sc.Solver.Name,
		Executable: sc.Solver.Executable,
		Args:       sc.Solver.Options,
	})
	out.SolveSeconds = time.Since(start).Seconds()
	if err != nil {
		out.Status = solver.StatusError
		if res != nil {
			out.Status = res.Status
		}
		return fail(PhaseSolve, err)
	}
	out.Status = res.Status

	// ExtractSolution: never silently produce zeros for a non-optimal run.
	logger.Debug("Phase started.", "phase", PhaseExtractSolution.String(), "status", res.Status.String())
	if res.Status != solver.StatusOptimal {
		return fail(PhaseExtractSolution, &solver.Error{Status: res.Status})
	}
	out.Objective = res.Objective

	// ExportResults
	logger.Debug("Phase started.", "phase", PhaseExportResults.String())
	for _, m := range modules {
		if ex, ok := m.(engine.ResultExporter); ok {
			table, err := ex.ExportResults(bc, res)
			if err != nil {
				return fail(PhaseExportResults, &engine.ModuleError{Leaf: leaf, Module: m.Name(), Phase: PhaseExportResults.String(), Err: err})
			}
			if table != nil {
				out.Tables = append(out.Tables, table)
			}
		}
		if pe, ok := m.(engine.PassThroughExporter); ok {
			records, err := pe.ExportPassThrough(bc, res)
			if err != nil {
				return fail(PhaseExportResults, &engine.ModuleError{Leaf: leaf, Module: m.Name(), Phase: PhaseExportResults.String(), Err: err})
			}
			out.PassThrough = append(out.PassThrough, records...)
		}
	}

	out.Phase = PhaseDone
	logger.Info("Leaf solved.", "status", out.Status.String(), "objective", out.Objective, "solve_seconds", out.SolveSeconds)
	return out
}
