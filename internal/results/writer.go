package results

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// WriteLeaf persists a leaf's exported tables under dir, one <table>.csv
// per module. The write is all-or-nothing: tables land in a scratch
// directory first and replace dir in a single rename, so a failed leaf can
// never leave a partial result set visible to downstream readers.
func WriteLeaf(dir string, tables []*Table) error {
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(parent, ".leaf-results-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmp)

	for _, t := range tables {
		if err := writeTableFile(filepath.Join(tmp, t.Name+".csv"), t); err != nil {
			return fmt.Errorf("write table %q: %w", t.Name, err)
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.Rename(tmp, dir)
}

// writeTableFile writes one table as CSV with its header row.
func writeTableFile(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		f.Close()
		return err
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
