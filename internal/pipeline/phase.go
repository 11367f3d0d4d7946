package pipeline

import "fmt"

// Phase enumerates the strictly ordered states of the solve pipeline.
// Transitions are unconditional forward progress; any error transitions
// directly to PhaseFailed carrying the phase it originated in.
type Phase int

const (
	PhaseDiscover Phase = iota
	PhaseDeclareComponents
	PhaseBuildProgram
	PhaseLoadData
	PhaseInstantiate
	PhaseFixVariables
	PhaseSolve
	PhaseExtractSolution
	PhaseExportResults
	// Terminal states.
	PhaseDone
	PhaseFailed
)

// String returns the phase name used in logs and error tags.
func (p Phase) String() string {
	switch p {
	case PhaseDiscover:
		return "Discover"
	case PhaseDeclareComponents:
		return "DeclareComponents"
	case PhaseBuildProgram:
		return "BuildProgram"
	case PhaseLoadData:
		return "LoadData"
	case PhaseInstantiate:
		return "Instantiate"
	case PhaseFixVariables:
		return "FixVariables"
	case PhaseSolve:
		return "Solve"
	case PhaseExtractSolution:
		return "ExtractSolution"
	case PhaseExportResults:
		return "ExportResults"
	case PhaseDone:
		return "Done"
	case PhaseFailed:
		return "Failed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Terminal reports whether the phase is one of the two terminal states.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}
