package results

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// LeafSummary is the per-leaf record the aggregate step folds. Its schema
// is fixed and independent of which modules ran in the leaf.
type LeafSummary struct {
	Subproblem   string
	Stage        string
	Status       string
	Objective    float64
	SolveSeconds float64
}

// AggregateName is the file stem of the scenario-level summary table.
const AggregateName = "aggregate"

// Aggregate folds per-leaf summaries into the scenario-level table, sorted
// by (subproblem, stage) so the output is stable across runs and worker
// interleavings.
func Aggregate(summaries []LeafSummary) *Table {
	sorted := append([]LeafSummary(nil), summaries...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Subproblem != sorted[j].Subproblem {
			return sorted[i].Subproblem < sorted[j].Subproblem
		}
		return sorted[i].Stage < sorted[j].Stage
	})

	t := NewTable(AggregateName, "subproblem", "stage", "status", "objective", "solve_seconds")
	for _, s := range sorted {
		// Schema is fixed; AddRow cannot fail here.
		_ = t.AddRow(
			s.Subproblem,
			s.Stage,
			s.Status,
			strconv.FormatFloat(s.Objective, 'g', -1, 64),
			strconv.FormatFloat(s.SolveSeconds, 'g', -1, 64),
		)
	}
	return t
}

// WriteAggregate persists the scenario aggregate atomically under the
// scenario's results directory.
func WriteAggregate(scenarioDir string, t *Table) error {
	dir := filepath.Join(scenarioDir, "results")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".aggregate-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpName)

	if err := writeTableFile(tmpName, t); err != nil {
		return err
	}
	return os.Rename(tmpName, filepath.Join(dir, t.Name+".csv"))
}
