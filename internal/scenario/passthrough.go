package scenario

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// FixedValue is one pass-through record: a variable element pinned to a
// value for the next stage.
type FixedValue struct {
	Entity string
	Index  string
	Value  float64
}

// PassThrough is the artifact handed from one stage's solve to the next
// stage's build. It is append-only while a subproblem's stages run and
// read-only for the consuming stage.
type PassThrough struct {
	records []FixedValue
}

// NewPassThrough returns an empty artifact, created before the first stage
// of a staged subproblem runs.
func NewPassThrough() *PassThrough {
	return &PassThrough{}
}

// Append adds records after a stage solve.
func (p *PassThrough) Append(records ...FixedValue) {
	p.records = append(p.records, records...)
}

// Records returns the accumulated records in append order.
func (p *PassThrough) Records() []FixedValue {
	return p.records
}

// Len returns the record count.
func (p *PassThrough) Len() int { return len(p.records) }

// Lookup finds the pinned value for (entity, index).
func (p *PassThrough) Lookup(entity, index string) (float64, bool) {
	for _, r := range p.records {
		if r.Entity == entity && r.Index == index {
			return r.Value, true
		}
	}
	return 0, false
}

// WriteFile persists the artifact atomically: the file is fully replaced,
// never merged, so a re-run can never observe a stale mix of stages.
func (p *PassThrough) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".passthrough-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{"entity", "index", "value"}); err != nil {
		tmp.Close()
		return err
	}
	for _, r := range p.records {
		if err := w.Write([]string{r.Entity, r.Index, strconv.FormatFloat(r.Value, 'g', -1, 64)}); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ReadPassThrough loads a persisted artifact. A missing or malformed file
// is a PassThroughError: the remaining stages of the subproblem cannot run.
func ReadPassThrough(path string, leaf Leaf) (*PassThrough, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &PassThroughError{Leaf: leaf, Path: path, Err: err}
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, &PassThroughError{Leaf: leaf, Path: path, Err: err}
	}
	if len(records) == 0 {
		return nil, &PassThroughError{Leaf: leaf, Path: path, Err: fmt.Errorf("missing header row")}
	}

	p := NewPassThrough()
	for i, rec := range records[1:] {
		if len(rec) != 3 {
			return nil, &PassThroughError{Leaf: leaf, Path: path, Err: fmt.Errorf("row %d has %d fields, want 3", i+1, len(rec))}
		}
		v, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, &PassThroughError{Leaf: leaf, Path: path, Err: fmt.Errorf("row %d: %w", i+1, err)}
		}
		p.Append(FixedValue{Entity: rec[0], Index: rec[1], Value: v})
	}
	return p, nil
}

// PassThroughError marks a missing or malformed pass-through artifact. It
// is fatal to the remaining stages of its subproblem but must not affect
// sibling subproblems or scenarios.
type PassThroughError struct {
	Leaf Leaf
	Path string
	Err  error
}

// Error implements the error interface.
func (e *PassThroughError) Error() string {
	return fmt.Sprintf("pass-through artifact for leaf %s (%s): %v", e.Leaf, e.Path, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *PassThroughError) Unwrap() error { return e.Err }
