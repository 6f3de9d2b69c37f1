package registry

import (
	"strings"

	"github.com/agentx-labs/modreg/internal/blueprint"
)

// Filter selects entries by capability. A nil slice leaves that capability
// unfiltered; a non-nil slice requires a non-empty intersection with the
// module's set, so an empty non-nil slice matches nothing.
type Filter struct {
	Architectures []string `json:"architectures,omitempty" mapstructure:"architectures"`
	Platforms     []string `json:"platforms,omitempty" mapstructure:"platforms"`
}

// IsZero reports whether the filter checks no capability.
func (f Filter) IsZero() bool {
	return f.Architectures == nil && f.Platforms == nil
}

// Predicate is a custom check applied after the capability checks.
type Predicate func(name string, bp *blueprint.Blueprint) bool

// FilterEngine evaluates filters against blueprints. Capabilities come from
// the cache, so each blueprint pays extraction cost at most once.
type FilterEngine struct {
	caps      *CapabilityCache
	predicate Predicate
}

// NewFilterEngine returns an engine reading capabilities from caps. The
// predicate may be nil.
func NewFilterEngine(caps *CapabilityCache, predicate Predicate) *FilterEngine {
	return &FilterEngine{caps: caps, predicate: predicate}
}

// Matches reports whether the entry passes every active check. Checks run
// in the order architecture, platform, custom predicate and stop at the
// first rejection. A blueprint whose capabilities cannot be extracted
// matches no capability filter.
func (e *FilterEngine) Matches(name string, bp *blueprint.Blueprint, f Filter) bool {
	if !f.IsZero() {
		caps, err := e.caps.Get(bp)
		if err != nil {
			return false
		}
		if f.Architectures != nil && !intersects(caps.Architectures, f.Architectures) {
			return false
		}
		if f.Platforms != nil && !intersects(caps.Platforms, f.Platforms) {
			return false
		}
	}
	if e.predicate != nil && !e.predicate(name, bp) {
		return false
	}
	return true
}

// Apply returns a new slice holding the entries that match f.
func (e *FilterEngine) Apply(entries []Entry, f Filter) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, entry := range entries {
		if e.Matches(entry.Name, entry.Blueprint, f) {
			out = append(out, entry)
		}
	}
	return out
}

// intersects reports whether have and want share a value, ignoring case.
func intersects(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}
