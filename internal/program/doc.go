// Package program models a linear (or mixed-integer) program as it is being
// assembled by feature modules.
//
// The Builder holds the symbolic form: named index sets, parameter tables,
// variable templates spanning set tuples, and constraint rows whose terms
// reference variables by (name, index tuple). Instantiate expands that
// symbolic form into a Concrete program with ordered numeric columns and
// rows, the shape a solver adapter consumes.
//
// Modules never hold pointers into the Builder. Every element they create is
// referenced through an ElementHandle, a typed arena index that stays valid
// for the lifetime of one build and is cheap to hand across goroutines.
package program
