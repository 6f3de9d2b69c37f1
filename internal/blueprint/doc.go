// Package blueprint defines the immutable descriptor for one catalog module
// and the manifest formats it is read from. A manifest may be written in
// YAML, JSON or TOML; every format is checked against the same embedded
// JSON Schema before a Blueprint is built from it.
package blueprint
