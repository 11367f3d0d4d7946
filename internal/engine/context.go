package engine

import (
	"github.com/gridwerk/gridwerk/internal/inputs"
	"github.com/gridwerk/gridwerk/internal/program"
	"github.com/gridwerk/gridwerk/internal/scenario"
)

// BuildContext is the in-progress program plus the shared registry for one
// leaf. It is owned exclusively by the pipeline instance building that leaf
// and is discarded after export; nothing in it outlives the leaf.
type BuildContext struct {
	Scenario *scenario.Scenario
	Leaf     scenario.Leaf

	Program  *program.Builder
	Registry *SharedRegistry

	// Inputs is the leaf's table reader. Declare and contribute hooks use
	// it for entity lists (index set members); LoadData uses it for
	// parameter values.
	Inputs inputs.LeafReader

	// Concrete is set by the Instantiate phase and consumed by everything
	// after it. It is nil during the build phases.
	Concrete *program.Concrete

	// Modules is the ordered module list discovery selected for this leaf.
	Modules []Module
}

// NewBuildContext returns a fresh context for one leaf with an empty
// program and an unsealed registry.
func NewBuildContext(sc *scenario.Scenario, leaf scenario.Leaf, in inputs.LeafReader, modules []Module) *BuildContext {
	return &BuildContext{
		Scenario: sc,
		Leaf:     leaf,
		Program:  program.NewBuilder(),
		Registry: NewSharedRegistry(),
		Inputs:   in,
		Modules:  modules,
	}
}
