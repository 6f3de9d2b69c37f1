// Package cli defines the Cobra command tree for the modreg CLI. Each file
// in this package registers one top-level command (list, show, validate,
// etc.) with the root command. Commands build a registry over the configured
// sources and only handle flag parsing and output formatting.
package cli
