package program

import (
	"fmt"
	"math"
	"strings"
)

// RowSense is the comparison direction of a constraint row.
type RowSense int

const (
	LessEq RowSense = iota
	GreaterEq
	Equal
)

// String returns the LP-format operator for the sense.
func (s RowSense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "="
	default:
		return fmt.Sprintf("RowSense(%d)", int(s))
	}
}

// VarRef names one element of a variable template by its index tuple.
type VarRef struct {
	Var string
	Key []string
}

// Term is one linear term: coefficient times a referenced variable element.
// The coefficient is a Value so it can reference parameters loaded after
// the constraint was built.
type Term struct {
	Ref   VarRef
	Coeff Value
}

// VarDef is a variable template spanning the cross product of its index sets.
// An empty Sets slice declares a scalar variable.
type VarDef struct {
	Name    string
	Sets    []string
	Lower   float64
	Upper   float64
	Integer bool
}

// ConDef is a symbolic constraint row.
type ConDef struct {
	Name  string
	Terms []Term
	Sense RowSense
	RHS   Value
}

// Builder accumulates the symbolic program for one leaf build.
// It is not safe for concurrent use; each leaf owns exactly one Builder.
type Builder struct {
	setOrder []string
	sets     map[string][]string

	params map[string]map[string]float64

	vars     []VarDef
	varIndex map[string]int

	cons []ConDef

	objective []Term
}

// NewBuilder returns an empty Builder minimizing its objective.
func NewBuilder() *Builder {
	return &Builder{
		sets:     make(map[string][]string),
		params:   make(map[string]map[string]float64),
		varIndex: make(map[string]int),
	}
}

// Inf is a convenience for an unbounded upper limit.
func Inf() float64 { return math.Inf(1) }

// IndexKey joins index tuple parts into the canonical key string used for
// parameter tables and column naming.
func IndexKey(parts ...string) string {
	return strings.Join(parts, ",")
}

// AddSet registers a named index set with its ordered members. Re-adding an
// existing set is an error; modules share sets by name instead.
func (b *Builder) AddSet(name string, members []string) error {
	if _, ok := b.sets[name]; ok {
		return fmt.Errorf("set %q already defined", name)
	}
	b.setOrder = append(b.setOrder, name)
	b.sets[name] = append([]string(nil), members...)
	return nil
}

// Set returns the members of a named set, or nil if it was never defined.
func (b *Builder) Set(name string) []string {
	return b.sets[name]
}

// HasSet reports whether a set with the given name exists.
func (b *Builder) HasSet(name string) bool {
	_, ok := b.sets[name]
	return ok
}

// SetParam stores one parameter value under (table, index key).
func (b *Builder) SetParam(table, key string, value float64) {
	m, ok := b.params[table]
	if !ok {
		m = make(map[string]float64)
		b.params[table] = m
	}
	m[key] = value
}

// Param looks up one parameter value.
func (b *Builder) Param(table, key string) (float64, bool) {
	m, ok := b.params[table]
	if !ok {
		return 0, false
	}
	v, ok := m[key]
	return v, ok
}

// ParamOr looks up one parameter value, falling back to a default.
func (b *Builder) ParamOr(table, key string, def float64) float64 {
	if v, ok := b.Param(table, key); ok {
		return v
	}
	return def
}

// AddVariable registers a variable template and returns its handle.
func (b *Builder) AddVariable(def VarDef) (ElementHandle, error) {
	if def.Name == "" {
		return ElementHandle{}, fmt.Errorf("variable name must not be empty")
	}
	if _, ok := b.varIndex[def.Name]; ok {
		return ElementHandle{}, fmt.Errorf("variable %q already defined", def.Name)
	}
	for _, s := range def.Sets {
		if _, ok := b.sets[s]; !ok {
			return ElementHandle{}, fmt.Errorf("variable %q indexes unknown set %q", def.Name, s)
		}
	}
	idx := len(b.vars)
	b.vars = append(b.vars, def)
	b.varIndex[def.Name] = idx
	return ElementHandle{Kind: VariableElement, Index: idx}, nil
}

// Variable resolves a variable handle back to its template.
func (b *Builder) Variable(h ElementHandle) (VarDef, error) {
	if h.Kind != VariableElement || h.Index < 0 || h.Index >= len(b.vars) {
		return VarDef{}, fmt.Errorf("handle %s does not reference a variable", h)
	}
	return b.vars[h.Index], nil
}

// VariableByName resolves a variable template by name.
func (b *Builder) VariableByName(name string) (VarDef, bool) {
	idx, ok := b.varIndex[name]
	if !ok {
		return VarDef{}, false
	}
	return b.vars[idx], true
}

// Constraint resolves a constraint handle back to its definition.
func (b *Builder) Constraint(h ElementHandle) (ConDef, error) {
	if h.Kind != ConstraintElement || h.Index < 0 || h.Index >= len(b.cons) {
		return ConDef{}, fmt.Errorf("handle %s does not reference a constraint", h)
	}
	return b.cons[h.Index], nil
}

// AddConstraint registers a constraint row and returns its handle.
// Constraint names need not be unique; modules typically suffix them with
// the index tuple they cover.
func (b *Builder) AddConstraint(name string, terms []Term, sense RowSense, rhs Value) (ElementHandle, error) {
	if name == "" {
		return ElementHandle{}, fmt.Errorf("constraint name must not be empty")
	}
	for _, t := range terms {
		if _, ok := b.varIndex[t.Ref.Var]; !ok {
			return ElementHandle{}, fmt.Errorf("constraint %q references unknown variable %q", name, t.Ref.Var)
		}
	}
	idx := len(b.cons)
	b.cons = append(b.cons, ConDef{Name: name, Terms: append([]Term(nil), terms...), Sense: sense, RHS: rhs})
	return ElementHandle{Kind: ConstraintElement, Index: idx}, nil
}

// AddObjective appends linear terms to the minimization objective.
func (b *Builder) AddObjective(terms ...Term) error {
	for _, t := range terms {
		if _, ok := b.varIndex[t.Ref.Var]; !ok {
			return fmt.Errorf("objective references unknown variable %q", t.Ref.Var)
		}
	}
	b.objective = append(b.objective, terms...)
	return nil
}

// NumVariables returns the count of registered variable templates.
func (b *Builder) NumVariables() int { return len(b.vars) }

// NumConstraints returns the count of registered constraint rows.
func (b *Builder) NumConstraints() int { return len(b.cons) }
