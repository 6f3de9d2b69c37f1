package blueprint

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Manifest is the on-disk definition of a module.
type Manifest struct {
	Name          string   `yaml:"name,omitempty" json:"name,omitempty" toml:"name,omitempty"`
	Type          string   `yaml:"type" json:"type" toml:"type"`
	Version       string   `yaml:"version,omitempty" json:"version,omitempty" toml:"version,omitempty"`
	Description   string   `yaml:"description,omitempty" json:"description,omitempty" toml:"description,omitempty"`
	Rank          *int     `yaml:"rank,omitempty" json:"rank,omitempty" toml:"rank,omitempty"`
	Architectures []string `yaml:"architectures,omitempty" json:"architectures,omitempty" toml:"architectures,omitempty"`
	Platforms     []string `yaml:"platforms,omitempty" json:"platforms,omitempty" toml:"platforms,omitempty"`
	Authors       []string `yaml:"authors,omitempty" json:"authors,omitempty" toml:"authors,omitempty"`
	References    []string `yaml:"references,omitempty" json:"references,omitempty" toml:"references,omitempty"`
	Tags          []string `yaml:"tags,omitempty" json:"tags,omitempty" toml:"tags,omitempty"`
}

// Blueprint is the immutable descriptor of one module. It is created once by
// New and never modified afterwards; accessors return copies of slices.
type Blueprint struct {
	name          string
	moduleType    string
	version       string
	description   string
	sourcePath    string
	rank          int
	explicitRank  bool
	architectures []string
	platforms     []string
	authors       []string
	references    []string
	tags          []string
}

// ErrInvalidManifest is returned by New when a manifest cannot describe a module.
var ErrInvalidManifest = errors.New("invalid manifest")

// New builds a Blueprint from a manifest. The rank is resolved here: a
// manifest without one gets NormalRank.
func New(m Manifest, sourcePath string) (*Blueprint, error) {
	if strings.TrimSpace(m.Name) == "" {
		return nil, fmt.Errorf("%w: missing name", ErrInvalidManifest)
	}
	if !IsValidType(m.Type) {
		return nil, fmt.Errorf("%w: unknown module type %q for %s", ErrInvalidManifest, m.Type, m.Name)
	}

	bp := &Blueprint{
		name:          m.Name,
		moduleType:    m.Type,
		version:       m.Version,
		description:   m.Description,
		sourcePath:    sourcePath,
		rank:          NormalRank,
		architectures: normalizeSet(m.Architectures),
		platforms:     normalizeSet(m.Platforms),
		authors:       slices.Clone(m.Authors),
		references:    slices.Clone(m.References),
		tags:          slices.Clone(m.Tags),
	}
	if m.Rank != nil {
		bp.rank = *m.Rank
		bp.explicitRank = true
	}
	return bp, nil
}

// normalizeSet lowercases, trims, sorts and deduplicates capability names.
func normalizeSet(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Name returns the registry key of the module.
func (b *Blueprint) Name() string { return b.name }

// Type returns the module type (e.g., "exploit").
func (b *Blueprint) Type() string { return b.moduleType }

// Version returns the declared version, possibly empty.
func (b *Blueprint) Version() string { return b.version }

// Description returns the human-readable description.
func (b *Blueprint) Description() string { return b.description }

// SourcePath returns the manifest the blueprint was read from, or "".
func (b *Blueprint) SourcePath() string { return b.sourcePath }

// Rank returns the priority used for ranked enumeration.
func (b *Blueprint) Rank() int { return b.rank }

// HasExplicitRank reports whether the manifest declared a rank.
func (b *Blueprint) HasExplicitRank() bool { return b.explicitRank }

// Architectures returns the declared architectures, sorted.
func (b *Blueprint) Architectures() []string { return slices.Clone(b.architectures) }

// Platforms returns the declared platforms, sorted.
func (b *Blueprint) Platforms() []string { return slices.Clone(b.platforms) }

// Authors returns the declared authors.
func (b *Blueprint) Authors() []string { return slices.Clone(b.authors) }

// References returns the declared references.
func (b *Blueprint) References() []string { return slices.Clone(b.references) }

// Tags returns the declared tags.
func (b *Blueprint) Tags() []string { return slices.Clone(b.tags) }

// Manifest returns a manifest equivalent to the blueprint.
func (b *Blueprint) Manifest() Manifest {
	m := Manifest{
		Name:          b.name,
		Type:          b.moduleType,
		Version:       b.version,
		Description:   b.description,
		Architectures: b.Architectures(),
		Platforms:     b.Platforms(),
		Authors:       b.Authors(),
		References:    b.References(),
		Tags:          b.Tags(),
	}
	if b.explicitRank {
		m.Rank = ExplicitRank(b.rank)
	}
	return m
}

// String implements fmt.Stringer.
func (b *Blueprint) String() string {
	return b.moduleType + "/" + b.name
}

// Equal reports whether a and b describe the same module definition.
// Two blueprints read from the same file with the same content are equal
// even though they are different values.
func Equal(a, b *Blueprint) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.name == b.name &&
		a.moduleType == b.moduleType &&
		a.version == b.version &&
		a.description == b.description &&
		a.sourcePath == b.sourcePath &&
		a.rank == b.rank &&
		a.explicitRank == b.explicitRank &&
		slices.Equal(a.architectures, b.architectures) &&
		slices.Equal(a.platforms, b.platforms) &&
		slices.Equal(a.authors, b.authors) &&
		slices.Equal(a.references, b.references) &&
		slices.Equal(a.tags, b.tags)
}

// Newer reports whether b carries a higher semantic version than other.
// Blueprints without a parsable version are never newer.
func (b *Blueprint) Newer(other *Blueprint) bool {
	if other == nil {
		return true
	}
	bv, err := ParseVersion(b.version)
	if err != nil {
		return false
	}
	ov, err := ParseVersion(other.version)
	if err != nil {
		return true
	}
	return bv.GreaterThan(ov)
}

// ParseVersion strips a leading "v" and parses the version string.
func ParseVersion(version string) (*semver.Version, error) {
	version = strings.TrimPrefix(version, "v")
	return semver.NewVersion(version)
}
