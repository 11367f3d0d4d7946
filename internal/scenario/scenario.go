// Package scenario models a scenario's identity, its declared features, and
// the subproblem/stage hierarchy derived from its on-disk layout, plus the
// pass-through artifact carried between consecutive stages.
package scenario

import "sort"

// Features is the set of optional domains a scenario declares, e.g.
// "transmission" or "reserves". Immutable once the scenario is loaded.
type Features map[string]bool

// Enabled reports whether a feature flag is set.
func (f Features) Enabled(name string) bool { return f[name] }

// Sorted returns the enabled feature names in stable order.
func (f Features) Sorted() []string {
	var out []string
	for name, on := range f {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// SolverConfig names the external solver and carries its opaque option set.
// Options are never interpreted here; they flow verbatim to the adapter.
type SolverConfig struct {
	Name       string
	Executable string
	Options    map[string]string
}

// Scenario is one loaded scenario: identity, feature flags, solver choice,
// and the directory its inputs and results live under. It is immutable for
// the duration of a run.
type Scenario struct {
	Name     string
	Dir      string
	Features Features
	Solver   SolverConfig

	// LeafTimeoutSeconds is the wall-clock ceiling per leaf; zero disables it.
	LeafTimeoutSeconds int
}
