package registry

import "github.com/agentx-labs/modreg/internal/blueprint"

// LoadState is the value held for a name: either an unresolved placeholder
// or a resolved blueprint.
type LoadState struct {
	resolved bool
	bp       *blueprint.Blueprint
}

// Unresolved returns the placeholder state for a name whose blueprint has
// not been loaded yet.
func Unresolved() LoadState { return LoadState{} }

// Resolved returns the state holding bp.
func Resolved(bp *blueprint.Blueprint) LoadState {
	return LoadState{resolved: true, bp: bp}
}

// IsResolved reports whether the state holds a blueprint.
func (s LoadState) IsResolved() bool { return s.resolved }

// Blueprint returns the resolved blueprint, if any.
func (s LoadState) Blueprint() (*blueprint.Blueprint, bool) {
	return s.bp, s.resolved
}

// String implements fmt.Stringer.
func (s LoadState) String() string {
	if !s.resolved {
		return "unresolved"
	}
	return "resolved(" + s.bp.String() + ")"
}

// Entry is one element of an enumeration view.
type Entry struct {
	Name      string
	Blueprint *blueprint.Blueprint
}
