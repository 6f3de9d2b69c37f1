package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/agentx-labs/modreg/internal/blueprint"
	"github.com/agentx-labs/modreg/internal/branding"
)

// CachedIndex holds discovered candidates along with source modification
// times used for invalidation.
type CachedIndex struct {
	Candidates []Candidate      `json:"candidates"`
	SourceMods map[string]int64 `json:"source_mods"` // source name -> latest dir mtime (unix nanos)
	CachedAt   time.Time        `json:"cached_at"`
}

// DefaultIndexPath returns the default index file: ~/.modreg/index.json.
func DefaultIndexPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, branding.HomeDir(), "index.json"), nil
}

// DiscoverCached returns the candidates of all sources, reading them from
// the index file while it is still valid. A stale or missing index is
// rebuilt and written back. Writing is best effort.
func DiscoverCached(sources []Source, indexPath string) ([]Candidate, error) {
	cached, err := loadIndex(indexPath)
	if err == nil && isIndexValid(cached, sources) {
		return cached.Candidates, nil
	}

	candidates, err := DiscoverAll(sources)
	if err != nil {
		return nil, err
	}
	_ = writeIndex(indexPath, candidates, sources)
	return candidates, nil
}

func loadIndex(path string) (*CachedIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var idx CachedIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

// isIndexValid checks the recorded mtimes against the sources. A changed
// source list or any directory change invalidates the index.
func isIndexValid(cached *CachedIndex, sources []Source) bool {
	if cached == nil || len(cached.SourceMods) != len(sources) {
		return false
	}
	for _, src := range sources {
		mtime, ok := cached.SourceMods[src.Name]
		if !ok || mtime != latestMtime(src.BasePath) {
			return false
		}
	}
	return true
}

// latestMtime returns the latest modification time across the directories
// of a source's type trees. Adding or removing a manifest changes the mtime
// of its directory, so files themselves are not visited.
func latestMtime(basePath string) int64 {
	info, err := os.Stat(basePath)
	if err != nil {
		return 0
	}
	latest := info.ModTime().UnixNano()

	for _, moduleType := range blueprint.ValidTypes() {
		typeDir := filepath.Join(basePath, blueprint.TypeDir(moduleType))
		_ = filepath.WalkDir(typeDir, func(path string, d os.DirEntry, err error) error {
			if err != nil || !d.IsDir() {
				return nil
			}
			if fi, err := d.Info(); err == nil {
				if t := fi.ModTime().UnixNano(); t > latest {
					latest = t
				}
			}
			return nil
		})
	}
	return latest
}

// writeIndex serializes the candidates and source mtimes. The file is
// written to a temporary name and renamed into place.
func writeIndex(path string, candidates []Candidate, sources []Source) error {
	mods := make(map[string]int64, len(sources))
	for _, src := range sources {
		mods[src.Name] = latestMtime(src.BasePath)
	}

	data, err := json.MarshalIndent(CachedIndex{
		Candidates: candidates,
		SourceMods: mods,
		CachedAt:   time.Now(),
	}, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}
	return os.Rename(tmp, path)
}
