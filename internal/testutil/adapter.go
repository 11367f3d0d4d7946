package testutil

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/gridwerk/gridwerk/internal/program"
	"github.com/gridwerk/gridwerk/internal/solver"
)

// FakeAdapter is a solver stand-in used across the test suite. It never
// shells out; it assigns each free column its lower bound (or zero when the
// lower bound is unbounded) and reports the configured status. It records
// every program it is handed so tests can assert on what reached the solve
// phase.
type FakeAdapter struct {
	mu        sync.Mutex
	calls     int
	concretes []*program.Concrete

	// Status is returned on every call. Zero value is StatusOptimal.
	Status solver.Status

	// Objective is the reported objective value.
	Objective float64

	// Delay stretches each solve, for tests that assert on ordering or
	// concurrency windows.
	Delay time.Duration
}

// Solve implements solver.Adapter.
func (f *FakeAdapter) Solve(ctx context.Context, prog *program.Concrete, _ solver.Options) (*solver.Result, error) {
	f.mu.Lock()
	f.calls++
	f.concretes = append(f.concretes, prog)
	f.mu.Unlock()

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return &solver.Result{Status: solver.StatusTimedOut}, nil
		}
	}

	if f.Status != solver.StatusOptimal {
		return &solver.Result{Status: f.Status}, &solver.Error{Status: f.Status, Detail: "fake adapter"}
	}

	values := make([]float64, len(prog.Columns))
	for i, col := range prog.Columns {
		switch {
		case col.Fixed:
			values[i] = col.Value
		case !math.IsInf(col.Lower, -1):
			values[i] = col.Lower
		default:
			values[i] = 0
		}
	}
	return &solver.Result{Status: solver.StatusOptimal, Objective: f.Objective, Values: values}, nil
}

// Calls reports how many times Solve was invoked.
func (f *FakeAdapter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Programs returns the concrete programs handed to Solve, in call order.
func (f *FakeAdapter) Programs() []*program.Concrete {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*program.Concrete, len(f.concretes))
	copy(out, f.concretes)
	return out
}
