// Package testutil provides shared helpers for the test suite: a fake
// solver adapter and a builder that materializes scenario directories on
// disk with manifests and CSV input tables.
package testutil

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gridwerk/gridwerk/internal/scenario"
)

// ScenarioDir builds a throwaway scenario directory under t.TempDir().
type ScenarioDir struct {
	t *testing.T

	// Dir is the scenario root on disk.
	Dir string

	name        string
	features    []string
	leafTimeout int
	solverName  string
}

// NewScenarioDir creates an empty scenario directory. Call WriteManifest
// after configuring features to produce scenario.hcl.
func NewScenarioDir(t *testing.T, name string) *ScenarioDir {
	t.Helper()
	return &ScenarioDir{
		t:          t,
		Dir:        t.TempDir(),
		name:       name,
		solverName: "fake",
	}
}

// WithFeatures enables the named feature flags in the manifest.
func (s *ScenarioDir) WithFeatures(features ...string) *ScenarioDir {
	s.features = append(s.features, features...)
	return s
}

// WithLeafTimeout sets the per-leaf wall-clock ceiling, in seconds.
func (s *ScenarioDir) WithLeafTimeout(seconds int) *ScenarioDir {
	s.leafTimeout = seconds
	return s
}

// WriteManifest renders scenario.hcl into the scenario root.
func (s *ScenarioDir) WriteManifest() *ScenarioDir {
	s.t.Helper()

	var b strings.Builder
	fmt.Fprintf(&b, "scenario %q {\n", s.name)
	if len(s.features) > 0 {
		quoted := make([]string, len(s.features))
		for i, f := range s.features {
			quoted[i] = fmt.Sprintf("%q", f)
		}
		fmt.Fprintf(&b, "  features = [%s]\n", strings.Join(quoted, ", "))
	}
	if s.leafTimeout > 0 {
		fmt.Fprintf(&b, "  leaf_timeout_seconds = %d\n", s.leafTimeout)
	}
	fmt.Fprintf(&b, "  solver {\n    name = %q\n  }\n", s.solverName)
	b.WriteString("}\n")

	path := filepath.Join(s.Dir, "scenario.hcl")
	require.NoError(s.t, os.WriteFile(path, []byte(b.String()), 0o644))
	return s
}

// WriteTable writes one CSV input table for the given leaf. Empty
// subproblem and stage target the implicit leaf's inputs directory. The
// first row is the header.
func (s *ScenarioDir) WriteTable(subproblem, stage, table string, rows [][]string) *ScenarioDir {
	s.t.Helper()

	leaf := scenario.Leaf{Subproblem: subproblem, Stage: stage}
	dir := scenario.InputDir(s.Dir, leaf)
	require.NoError(s.t, os.MkdirAll(dir, 0o755))

	f, err := os.Create(filepath.Join(dir, table+".csv"))
	require.NoError(s.t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	require.NoError(s.t, w.WriteAll(rows))
	return s
}

// SingleBusLoad writes a minimal load table for the implicit leaf with the
// given timepoints, each demanding demandMW.
func (s *ScenarioDir) SingleBusLoad(demandMW string, timepoints ...string) *ScenarioDir {
	s.t.Helper()
	rows := [][]string{{"timepoint", "demand_mw"}}
	for _, tp := range timepoints {
		rows = append(rows, []string{tp, demandMW})
	}
	return s.WriteTable("", "", "load", rows)
}
