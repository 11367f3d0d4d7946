// Package solver is the boundary to the external LP/MIP solver. The
// ExecAdapter is the only place in the system allowed to spawn a subprocess;
// everything above it sees the Adapter contract and the Status taxonomy.
package solver

import (
	"context"
	"fmt"

	"github.com/gridwerk/gridwerk/internal/program"
)

// Status is the outcome class reported by a solver run. Infeasibility and
// unboundedness are first-class outcomes, not crashes, and must never be
// conflated with Error.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusError
	StatusTimedOut
)

// String returns a stable lower-case name, used in logs and result tables.
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	case StatusError:
		return "error"
	case StatusTimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Options selects and parameterizes the external solver. Option key/value
// pairs are passed through to the executable verbatim; the adapter never
// interprets solver-specific semantics.
type Options struct {
	Name       string
	Executable string
	Args       map[string]string
	WorkDir    string
}

// Result carries the solver outcome for one concrete program. Values is
// aligned with the program's column order; fixed columns carry their pinned
// value. Values is nil unless Status is StatusOptimal.
type Result struct {
	Status    Status
	Objective float64
	Values    []float64
}

// Adapter solves one concrete program. Implementations must honor context
// cancellation by terminating any external process they started.
type Adapter interface {
	Solve(ctx context.Context, prog *program.Concrete, opts Options) (*Result, error)
}

// Error is a status-carrying solver failure, produced when a solve outcome
// cannot be turned into a usable solution.
type Error struct {
	Status Status
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("solver reported %s", e.Status)
	}
	return fmt.Sprintf("solver reported %s: %s", e.Status, e.Detail)
}
