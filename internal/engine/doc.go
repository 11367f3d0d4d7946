// Package engine defines the contracts that feature modules implement and
// the per-leaf state they share while one program is being assembled.
//
// A module is a stateless capability record: a name, an applicability
// predicate, and whichever optional hooks it chooses to implement. All
// per-leaf mutation flows through the BuildContext; the SharedRegistry
// inside it is the one sanctioned channel for cross-module coupling, and it
// enforces a strict two-pass discipline: every module declares before any
// module may read.
package engine
