package program

import "fmt"

// ElementKind discriminates what an ElementHandle points at.
type ElementKind int

const (
	// VariableElement references a variable template in the Builder arena.
	VariableElement ElementKind = iota
	// ConstraintElement references a constraint row in the Builder arena.
	ConstraintElement
)

// String returns a human-readable name for the kind.
func (k ElementKind) String() string {
	switch k {
	case VariableElement:
		return "variable"
	case ConstraintElement:
		return "constraint"
	default:
		return fmt.Sprintf("ElementKind(%d)", int(k))
	}
}

// ElementHandle is a typed, arena-indexed reference to a program element.
// It is never a pointer: handles can be stored in shared registries and
// resolved later against the Builder or the Concrete program.
type ElementHandle struct {
	Kind  ElementKind
	Index int
}

// String implements fmt.Stringer.
func (h ElementHandle) String() string {
	return fmt.Sprintf("%s#%d", h.Kind, h.Index)
}
