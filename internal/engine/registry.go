package engine

import (
	"fmt"
	"sort"

	"github.com/gridwerk/gridwerk/internal/program"
)

// Contribution records that a module placed an element reference under a
// registry key.
type Contribution struct {
	Module string
	Handle program.ElementHandle
}

// SharedRegistry is the cross-module map from symbolic names to element
// references, scoped to one build. It enforces the two-pass protocol:
// entries are append-only while declaring and read-only once sealed. A read
// before sealing is an error, never a silent empty result, because a module
// observing a half-populated entry is exactly the ordering bug the protocol
// exists to prevent.
type SharedRegistry struct {
	sealed  bool
	entries map[string][]Contribution
}

// NewSharedRegistry returns an empty registry in the declare phase.
func NewSharedRegistry() *SharedRegistry {
	return &SharedRegistry{entries: make(map[string][]Contribution)}
}

// Add appends a contribution under key during the declare phase.
func (r *SharedRegistry) Add(key, module string, handle program.ElementHandle) error {
	if r.sealed {
		return fmt.Errorf("registry entry %q: write after seal by module %q", key, module)
	}
	r.entries[key] = append(r.entries[key], Contribution{Module: module, Handle: handle})
	return nil
}

// Ensure creates the entry under key if it does not exist, without adding
// a contribution. Requirement-side modules use it so "this entry exists
// with zero contributors" is distinguishable from "nobody ever mentioned
// this entry".
func (r *SharedRegistry) Ensure(key string) error {
	if r.sealed {
		return fmt.Errorf("registry entry %q: write after seal", key)
	}
	if _, ok := r.entries[key]; !ok {
		r.entries[key] = []Contribution{}
	}
	return nil
}

// Seal ends the declare phase. After Seal, reads are allowed and writes are
// rejected. Called exactly once by the pipeline, between phases.
func (r *SharedRegistry) Seal() {
	r.sealed = true
}

// Sealed reports whether declaration has ended.
func (r *SharedRegistry) Sealed() bool { return r.sealed }

// Lookup returns every contribution declared under key. The result order is
// declaration order, but callers must not depend on it across modules; the
// set is what matters. An unknown key yields an empty slice, not an error:
// "nobody contributes X" is a legal state (e.g. a reserve requirement with
// zero providers).
func (r *SharedRegistry) Lookup(key string) ([]Contribution, error) {
	if !r.sealed {
		return nil, fmt.Errorf("registry entry %q: read during declare phase", key)
	}
	return r.entries[key], nil
}

// Keys returns the declared entry names, sorted.
func (r *SharedRegistry) Keys() []string {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
