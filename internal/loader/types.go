package loader

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Source is a directory tree holding module manifests, one subdirectory
// per module type (e.g., exploits/, payloads/).
type Source struct {
	Name     string `json:"name" mapstructure:"name"`           // e.g., "catalog", "local"
	BasePath string `json:"base_path" mapstructure:"base_path"` // absolute path to the source root
}

// ParseSource parses a "name=path" pair. A bare path uses its base name as
// the source name.
func ParseSource(s string) (Source, error) {
	name, path, found := strings.Cut(s, "=")
	if !found {
		path = name
		name = filepath.Base(filepath.Clean(path))
	}
	name = strings.TrimSpace(name)
	path = strings.TrimSpace(path)
	if name == "" || path == "" {
		return Source{}, fmt.Errorf("invalid source %q, want name=path", s)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Source{}, fmt.Errorf("resolving source path %s: %w", path, err)
	}
	return Source{Name: name, BasePath: abs}, nil
}

// Candidate is a manifest found on disk but not parsed.
type Candidate struct {
	Type   string `json:"type"`   // module type, e.g. "exploit"
	Name   string `json:"name"`   // e.g. "windows/smb/ms08_067_netapi"
	Path   string `json:"path"`   // absolute path to the manifest file
	Source string `json:"source"` // name of the source it was found in
}

// Key returns "type/name".
func (c Candidate) Key() string {
	return c.Type + "/" + c.Name
}
