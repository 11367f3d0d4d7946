// Package results holds the structured outputs of solved leaves: one named
// table per exporting module, the per-leaf ResultSet, atomic persistence,
// and the scenario-level aggregate fold.
package results

import "fmt"

// Table is one module's slice of a leaf's results: a header plus rows of
// string-rendered cells, written out as CSV.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// NewTable returns an empty table with the given name and columns.
func NewTable(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: columns}
}

// AddRow appends one row; the cell count must match the header.
func (t *Table) AddRow(cells ...string) error {
	if len(cells) != len(t.Columns) {
		return fmt.Errorf("table %q: row has %d cells, header has %d", t.Name, len(cells), len(t.Columns))
	}
	t.Rows = append(t.Rows, cells)
	return nil
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.Rows) }
