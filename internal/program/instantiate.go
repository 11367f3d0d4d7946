package program

import "fmt"

// Column is one concrete decision variable.
type Column struct {
	Var     string
	Key     string
	Lower   float64
	Upper   float64
	Integer bool

	// Fixed pins the column to Value before solving. A fixed column is not
	// a free variable with tight bounds; adapters emit it as a constant.
	Fixed bool
	Value float64
}

// Name returns the canonical column name, e.g. "Dispatch[coal_1,t02]".
func (c Column) Name() string {
	if c.Key == "" {
		return c.Var
	}
	return fmt.Sprintf("%s[%s]", c.Var, c.Key)
}

// RowTerm is a coefficient applied to a column, by column index.
type RowTerm struct {
	Col   int
	Coeff float64
}

// Row is one concrete constraint.
type Row struct {
	Name  string
	Terms []RowTerm
	Sense RowSense
	RHS   float64
}

// Concrete is a fully instantiated numeric program, ready for a solver
// adapter. Columns and rows are ordered deterministically by their builder
// registration order and set member order.
type Concrete struct {
	Columns   []Column
	Rows      []Row
	Objective []RowTerm

	colIndex map[string]int
}

// Instantiate expands the Builder's symbolic templates into a Concrete
// program. It reads the Builder only, so calling it twice on an unmodified
// Builder yields structurally identical results.
func (b *Builder) Instantiate() (*Concrete, error) {
	c := &Concrete{colIndex: make(map[string]int)}

	for _, v := range b.vars {
		keys, err := b.expandKeys(v.Sets)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", v.Name, err)
		}
		for _, key := range keys {
			col := Column{
				Var:     v.Name,
				Key:     key,
				Lower:   v.Lower,
				Upper:   v.Upper,
				Integer: v.Integer,
			}
			c.colIndex[col.Name()] = len(c.Columns)
			c.Columns = append(c.Columns, col)
		}
	}

	for _, con := range b.cons {
		rhs, err := con.RHS.resolve(b)
		if err != nil {
			return nil, fmt.Errorf("constraint %q: %w", con.Name, err)
		}
		row := Row{Name: con.Name, Sense: con.Sense, RHS: rhs}
		for _, t := range con.Terms {
			idx, err := c.resolve(t.Ref)
			if err != nil {
				return nil, fmt.Errorf("constraint %q: %w", con.Name, err)
			}
			coeff, err := t.Coeff.resolve(b)
			if err != nil {
				return nil, fmt.Errorf("constraint %q: %w", con.Name, err)
			}
			row.Terms = append(row.Terms, RowTerm{Col: idx, Coeff: coeff})
		}
		c.Rows = append(c.Rows, row)
	}

	for _, t := range b.objective {
		idx, err := c.resolve(t.Ref)
		if err != nil {
			return nil, fmt.Errorf("objective: %w", err)
		}
		coeff, err := t.Coeff.resolve(b)
		if err != nil {
			return nil, fmt.Errorf("objective: %w", err)
		}
		c.Objective = append(c.Objective, RowTerm{Col: idx, Coeff: coeff})
	}

	return c, nil
}

// expandKeys builds the ordered cross product of the named sets.
func (b *Builder) expandKeys(sets []string) ([]string, error) {
	if len(sets) == 0 {
		return []string{""}, nil
	}
	keys := []string{}
	first, ok := b.sets[sets[0]]
	if !ok {
		return nil, fmt.Errorf("unknown set %q", sets[0])
	}
	rest, err := b.expandKeys(sets[1:])
	if err != nil {
		return nil, err
	}
	for _, m := range first {
		for _, r := range rest {
			if r == "" {
				keys = append(keys, m)
			} else {
				keys = append(keys, m+","+r)
			}
		}
	}
	return keys, nil
}

func (c *Concrete) resolve(ref VarRef) (int, error) {
	name := Column{Var: ref.Var, Key: IndexKey(ref.Key...)}.Name()
	idx, ok := c.colIndex[name]
	if !ok {
		return 0, fmt.Errorf("no column %q in instantiated program", name)
	}
	return idx, nil
}

// ColumnIndex looks up a column by variable name and index tuple.
func (c *Concrete) ColumnIndex(varName string, key ...string) (int, bool) {
	idx, ok := c.colIndex[Column{Var: varName, Key: IndexKey(key...)}.Name()]
	return idx, ok
}

// FixColumn pins one column to a value pre-solve. The column becomes a
// constant for the adapter, not a bounded free variable.
func (c *Concrete) FixColumn(varName string, key []string, value float64) error {
	idx, ok := c.ColumnIndex(varName, key...)
	if !ok {
		return fmt.Errorf("cannot fix unknown column %s[%s]", varName, IndexKey(key...))
	}
	col := &c.Columns[idx]
	col.Fixed = true
	col.Value = value
	col.Lower = value
	col.Upper = value
	return nil
}

// Value reads a column's fixed value, if any.
func (c *Concrete) Value(varName string, key ...string) (float64, bool) {
	idx, ok := c.ColumnIndex(varName, key...)
	if !ok || !c.Columns[idx].Fixed {
		return 0, false
	}
	return c.Columns[idx].Value, true
}
