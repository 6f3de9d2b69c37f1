package loader

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/agentx-labs/modreg/internal/blueprint"
)

// Discover walks all sources and returns one candidate per module. A module
// found in an earlier source shadows the same type and name in later ones.
func Discover(sources []Source) ([]Candidate, error) {
	all, err := DiscoverAll(sources)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var result []Candidate
	for _, c := range all {
		if !seen[c.Key()] {
			seen[c.Key()] = true
			result = append(result, c)
		}
	}
	return result, nil
}

// DiscoverAll walks all sources and returns every candidate, shadowed ones
// included, in source priority order.
func DiscoverAll(sources []Source) ([]Candidate, error) {
	var result []Candidate
	for _, src := range sources {
		result = append(result, walkSource(src)...)
	}
	return result, nil
}

// walkSource finds the manifests under every type directory of a source.
// Inaccessible directories are skipped. When one module has manifests in
// several formats, the highest priority extension wins.
func walkSource(src Source) []Candidate {
	var result []Candidate

	for _, moduleType := range blueprint.ValidTypes() {
		typeDir := filepath.Join(src.BasePath, blueprint.TypeDir(moduleType))
		if _, err := os.Stat(typeDir); err != nil {
			continue
		}

		byName := make(map[string]int)
		_ = filepath.WalkDir(typeDir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if path != typeDir && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !blueprint.IsManifestFile(d.Name()) {
				return nil
			}

			name, ok := nameFromPath(typeDir, path)
			if !ok {
				return nil
			}
			c := Candidate{Type: moduleType, Name: name, Path: path, Source: src.Name}
			if i, dup := byName[name]; dup {
				if extPriority(path) < extPriority(result[i].Path) {
					result[i] = c
				}
				return nil
			}
			byName[name] = len(result)
			result = append(result, c)
			return nil
		})
	}

	return result
}

// nameFromPath derives a module name from a manifest location:
// <typeDir>/windows/smb/ms08_067.yaml -> "windows/smb/ms08_067".
func nameFromPath(typeDir, path string) (string, bool) {
	rel, err := filepath.Rel(typeDir, path)
	if err != nil {
		return "", false
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	if rel == "" || rel == "." {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

// extPriority returns the lookup rank of the manifest extension; lower is
// preferred.
func extPriority(path string) int {
	i := slices.Index(blueprint.Extensions(), strings.ToLower(filepath.Ext(path)))
	if i < 0 {
		return len(blueprint.Extensions())
	}
	return i
}

// FilterType returns the candidates of moduleType. An empty moduleType
// returns all of them.
func FilterType(candidates []Candidate, moduleType string) []Candidate {
	if moduleType == "" {
		return candidates
	}
	var filtered []Candidate
	for _, c := range candidates {
		if c.Type == moduleType {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
