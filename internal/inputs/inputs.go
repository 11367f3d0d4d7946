// Package inputs provides the read API over a leaf's typed input tables.
// The core addresses tables by name only; the backing store here is a
// directory of CSV files, but nothing above this package assumes that.
package inputs

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Table is one loaded input table: a header and string-typed rows.
type Table struct {
	Name   string
	Header []string

	rows     [][]string
	colIndex map[string]int
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.rows) }

// Cell returns the value at (row, column name).
func (t *Table) Cell(row int, col string) (string, error) {
	ci, ok := t.colIndex[col]
	if !ok {
		return "", fmt.Errorf("table %q has no column %q", t.Name, col)
	}
	if row < 0 || row >= len(t.rows) {
		return "", fmt.Errorf("table %q has no row %d", t.Name, row)
	}
	return t.rows[row][ci], nil
}

// Float parses the value at (row, column name) as a float64.
func (t *Table) Float(row int, col string) (float64, error) {
	s, err := t.Cell(row, col)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("table %q row %d column %q: %w", t.Name, row, col, err)
	}
	return v, nil
}

// Column returns every value of one column, in row order.
func (t *Table) Column(col string) ([]string, error) {
	ci, ok := t.colIndex[col]
	if !ok {
		return nil, fmt.Errorf("table %q has no column %q", t.Name, col)
	}
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[ci]
	}
	return out, nil
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(col string) bool {
	_, ok := t.colIndex[col]
	return ok
}

// LeafReader is the stable read API for one leaf's input data.
type LeafReader interface {
	// Table loads the named table; it errors if the table does not exist.
	Table(name string) (*Table, error)
	// HasTable reports table presence without loading it.
	HasTable(name string) bool
	// Tables lists the available table names, sorted.
	Tables() []string
}

// DirReader implements LeafReader over a directory of <name>.csv files.
type DirReader struct {
	dir   string
	cache map[string]*Table
}

// NewDirReader returns a reader rooted at dir. The directory may be empty
// or absent; a leaf with no inputs is legal.
func NewDirReader(dir string) *DirReader {
	return &DirReader{dir: dir, cache: make(map[string]*Table)}
}

// Table implements LeafReader.
func (r *DirReader) Table(name string) (*Table, error) {
	if t, ok := r.cache[name]; ok {
		return t, nil
	}
	path := filepath.Join(r.dir, name+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("input table %q: %w", name, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("input table %q: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("input table %q has no header row", name)
	}

	t := &Table{Name: name, Header: records[0], rows: records[1:], colIndex: make(map[string]int)}
	for i, h := range t.Header {
		t.colIndex[strings.TrimSpace(h)] = i
	}
	r.cache[name] = t
	return t, nil
}

// HasTable implements LeafReader.
func (r *DirReader) HasTable(name string) bool {
	_, err := os.Stat(filepath.Join(r.dir, name+".csv"))
	return err == nil
}

// Tables implements LeafReader.
func (r *DirReader) Tables() []string {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".csv"))
	}
	sort.Strings(names)
	return names
}
