package scenario

import (
	"fmt"
	"path/filepath"

	"github.com/gridwerk/gridwerk/internal/fsutil"
)

// Leaf identifies one (subproblem, stage) pair, the atomic unit of
// build-and-solve. Empty components mean the implicit single subproblem or
// stage of an undecomposed scenario.
type Leaf struct {
	Subproblem string
	Stage      string
}

// String renders the leaf for logs and error tags.
func (l Leaf) String() string {
	sp, st := l.Subproblem, l.Stage
	if sp == "" {
		sp = "-"
	}
	if st == "" {
		st = "-"
	}
	return sp + "/" + st
}

// Subproblem is one independent branch of a scenario with its ordered
// stages. Stage order is total and significant: stage N writes the
// pass-through artifact stage N+1 consumes.
type Subproblem struct {
	Name   string
	Stages []string
}

// Leaves expands the subproblem into its ordered leaves.
func (sp Subproblem) Leaves() []Leaf {
	if len(sp.Stages) == 0 {
		return []Leaf{{Subproblem: sp.Name}}
	}
	leaves := make([]Leaf, len(sp.Stages))
	for i, st := range sp.Stages {
		leaves[i] = Leaf{Subproblem: sp.Name, Stage: st}
	}
	return leaves
}

// Structure is the derived subproblem/stage hierarchy of a scenario. It is
// never stored; it is re-derived from the directory layout on every run.
type Structure struct {
	Subproblems []Subproblem
}

// Leaves returns every leaf of the scenario in subproblem-major order.
func (s *Structure) Leaves() []Leaf {
	var leaves []Leaf
	for _, sp := range s.Subproblems {
		leaves = append(leaves, sp.Leaves()...)
	}
	return leaves
}

// Find locates a subproblem by name; the empty name matches the implicit
// subproblem of an undecomposed scenario.
func (s *Structure) Find(name string) (Subproblem, bool) {
	for _, sp := range s.Subproblems {
		if sp.Name == name {
			return sp, true
		}
	}
	return Subproblem{}, false
}

// DeriveStructure inspects a scenario directory and returns its hierarchy.
// Layout: subproblems/<name>/stages/<name>/; a missing subproblems
// directory yields one implicit subproblem, a missing stages directory
// yields one implicit stage. Names sort lexically, which is what makes
// stage order total.
func DeriveStructure(dir string) (*Structure, error) {
	spNames, err := fsutil.ListSubdirs(filepath.Join(dir, "subproblems"))
	if err != nil {
		return nil, fmt.Errorf("derive structure for %s: %w", dir, err)
	}

	if len(spNames) == 0 {
		return &Structure{Subproblems: []Subproblem{{}}}, nil
	}

	var sps []Subproblem
	for _, name := range spNames {
		stages, err := fsutil.ListSubdirs(filepath.Join(dir, "subproblems", name, "stages"))
		if err != nil {
			return nil, fmt.Errorf("derive stages for subproblem %q: %w", name, err)
		}
		sps = append(sps, Subproblem{Name: name, Stages: stages})
	}
	return &Structure{Subproblems: sps}, nil
}

// InputDir resolves where a leaf's input tables live under the scenario
// directory.
func InputDir(scenarioDir string, leaf Leaf) string {
	switch {
	case leaf.Subproblem == "":
		return filepath.Join(scenarioDir, "inputs")
	case leaf.Stage == "":
		return filepath.Join(scenarioDir, "subproblems", leaf.Subproblem, "inputs")
	default:
		return filepath.Join(scenarioDir, "subproblems", leaf.Subproblem, "stages", leaf.Stage, "inputs")
	}
}

// ResultDir resolves where a leaf's exported tables are persisted.
func ResultDir(scenarioDir string, leaf Leaf) string {
	switch {
	case leaf.Subproblem == "":
		return filepath.Join(scenarioDir, "results")
	case leaf.Stage == "":
		return filepath.Join(scenarioDir, "results", leaf.Subproblem)
	default:
		return filepath.Join(scenarioDir, "results", leaf.Subproblem, leaf.Stage)
	}
}

// PassThroughPath resolves the pass-through artifact location for one
// subproblem. Only staged subproblems materialize one.
func PassThroughPath(scenarioDir, subproblem string) string {
	return filepath.Join(scenarioDir, "subproblems", subproblem, "passthrough.csv")
}
