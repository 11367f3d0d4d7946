package engine

import (
	"github.com/gridwerk/gridwerk/internal/inputs"
	"github.com/gridwerk/gridwerk/internal/results"
	"github.com/gridwerk/gridwerk/internal/scenario"
	"github.com/gridwerk/gridwerk/internal/solver"
)

// Module is the base contract every feature module implements. Modules are
// stateless between leaves; hooks receive everything they need through the
// BuildContext.
type Module interface {
	// Name identifies the module in errors, registry entries, and result
	// table names.
	Name() string
	// Applicable reports whether this module is needed for a leaf, given
	// the scenario's feature flags and the operational kinds present in
	// the leaf's input data.
	Applicable(feats scenario.Features, kinds inputs.Kinds) bool
}

// The hooks below are optional; a module implements the ones it needs and
// the pipeline skips the rest. Each runs for all modules before the next
// phase starts for any module.

// Validator runs pre-flight input sanity checks, independent of solving.
type Validator interface {
	Validate(in inputs.LeafReader) error
}

// Declarer advertises named contributions into the shared registry. It may
// create variable templates and append their handles, but it must not read
// any registry entry: the registry is append-only until every module has
// declared.
type Declarer interface {
	Declare(reg *SharedRegistry, bc *BuildContext) error
}

// Contributor adds constraints, derived expressions, and objective terms to
// the program. It may read any registry entry, not just its own, because
// declaration has completed for all modules by the time it runs.
type Contributor interface {
	Contribute(bc *BuildContext) error
}

// DataLoader populates parameter values from the leaf's input tables.
type DataLoader interface {
	LoadData(bc *BuildContext, in inputs.LeafReader) error
}

// VariableFixer pins variables pre-solve from the prior stage's
// pass-through artifact. It only runs when such an artifact exists.
type VariableFixer interface {
	FixVariables(bc *BuildContext, pt *scenario.PassThrough) error
}

// ResultExporter translates solved values into the module's slice of the
// leaf's result set. Returning a nil table is allowed and means "nothing to
// report for this leaf".
type ResultExporter interface {
	ExportResults(bc *BuildContext, res *solver.Result) (*results.Table, error)
}

// PassThroughExporter emits the records this module wants pinned in the
// next stage of the same subproblem.
type PassThroughExporter interface {
	ExportPassThrough(bc *BuildContext, res *solver.Result) ([]scenario.FixedValue, error)
}
