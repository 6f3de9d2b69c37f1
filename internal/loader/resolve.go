package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentx-labs/modreg/internal/blueprint"
)

// ErrNoManifest is returned by Locate when no source provides the module.
var ErrNoManifest = errors.New("no manifest found")

// Locate searches for a module across sources in priority order and
// returns the first match. Within a source, manifest extensions are tried
// in blueprint.Extensions order.
func Locate(sources []Source, moduleType, name string) (Candidate, error) {
	all, err := LocateAll(sources, moduleType, name)
	if err != nil {
		return Candidate{}, err
	}
	return all[0], nil
}

// LocateAll returns the manifest of the module in every source that
// provides it, highest priority first.
func LocateAll(sources []Source, moduleType, name string) ([]Candidate, error) {
	dir := blueprint.TypeDir(moduleType)
	if dir == "" {
		return nil, fmt.Errorf("unknown module type %q", moduleType)
	}
	rel := filepath.FromSlash(name)
	if name == "" || !filepath.IsLocal(rel) {
		return nil, fmt.Errorf("%w: invalid module name %q", ErrNoManifest, name)
	}

	var found []Candidate
	for _, src := range sources {
		if path, ok := findManifest(filepath.Join(src.BasePath, dir, rel)); ok {
			found = append(found, Candidate{Type: moduleType, Name: name, Path: path, Source: src.Name})
		}
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%w for %s %q in any source", ErrNoManifest, moduleType, name)
	}
	return found, nil
}

// findManifest returns the first existing file among stem plus each
// recognized extension.
func findManifest(stem string) (string, bool) {
	for _, ext := range blueprint.Extensions() {
		p := stem + ext
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Classify maps a manifest path back to the source, type and name it
// belongs to. It reports false for paths outside every source's type
// directories.
func Classify(sources []Source, path string) (Candidate, bool) {
	if !blueprint.IsManifestFile(path) {
		return Candidate{}, false
	}
	for _, src := range sources {
		rel, err := filepath.Rel(src.BasePath, path)
		if err != nil || !filepath.IsLocal(rel) {
			continue
		}
		typeDir, rest, ok := strings.Cut(filepath.ToSlash(rel), "/")
		if !ok {
			continue
		}
		moduleType := blueprint.TypeFromDir(typeDir)
		if moduleType == "" {
			continue
		}
		name := strings.TrimSuffix(rest, filepath.Ext(rest))
		if name == "" {
			continue
		}
		return Candidate{Type: moduleType, Name: name, Path: path, Source: src.Name}, true
	}
	return Candidate{}, false
}
