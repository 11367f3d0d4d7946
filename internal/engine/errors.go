package engine

import (
	"fmt"

	"github.com/gridwerk/gridwerk/internal/scenario"
)

// ConfigurationError marks a problem detected before any leaf was solved:
// a bad scenario layout, an unparseable manifest, input data naming a kind
// no registered module claims. It aborts the whole run.
type ConfigurationError struct {
	Detail string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Detail
}

// ModuleError marks a hook failure. It is fatal to its leaf only and
// carries everything the orchestrator needs to report it: the leaf, the
// module, and the pipeline phase the hook ran in.
type ModuleError struct {
	Leaf   scenario.Leaf
	Module string
	Phase  string
	Err    error
}

// Error implements the error interface.
func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %q failed in phase %s for leaf %s: %v", e.Module, e.Phase, e.Leaf, e.Err)
}

// Unwrap exposes the underlying hook error.
func (e *ModuleError) Unwrap() error { return e.Err }
