// Package registry provides the static catalog of all known feature
// modules and the discovery step that selects the ordered module list for
// one leaf.
//
// The catalog is populated once at application startup; every compiled-in
// module registers itself under a unique name. Discovery filters the
// catalog by each module's applicability predicate and then cross-checks
// the leaf's input data: an operational kind that no registered module
// claims fails fast with a configuration error instead of silently
// dropping rows.
package registry
