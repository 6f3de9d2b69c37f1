// Package registry is the in-memory catalog of modules. Names enter the
// registry as unresolved placeholders and are materialized on first use by
// asking a Loader for their Blueprint. The registry ranks and filters
// entries for enumeration, memoizes capability extraction per Blueprint,
// and records naming collisions between load sources.
//
// File organization:
//   - registry.go: Registry type, options, structural operations
//   - resolve.go: demand loading, instantiation, reload
//   - enumerate.go: snapshot-based views (lexical and ranked)
//   - rank.go, filter.go, capability.go, ambiguity.go: the engines behind views
//   - state.go, errors.go: load states and the errors they carry
//   - module.go, notify.go: instance and event collaborators
package registry
