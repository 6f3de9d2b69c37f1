package blueprint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.yaml.in/yaml/v3"
)

// Format identifies a manifest encoding.
type Format string

// Supported manifest formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// extensions maps file extensions to formats, in lookup priority order.
var extensions = []struct {
	ext    string
	format Format
}{
	{".yaml", FormatYAML},
	{".yml", FormatYAML},
	{".json", FormatJSON},
	{".toml", FormatTOML},
}

// Extensions returns the recognized manifest file extensions in priority order.
func Extensions() []string {
	out := make([]string, len(extensions))
	for i, e := range extensions {
		out[i] = e.ext
	}
	return out
}

// FormatFromPath returns the manifest format implied by a file extension.
func FormatFromPath(path string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if e.ext == ext {
			return e.format, true
		}
	}
	return "", false
}

// IsManifestFile returns true if the filename has a recognized manifest extension.
func IsManifestFile(name string) bool {
	_, ok := FormatFromPath(name)
	return ok
}

// ParseFile reads a manifest file and decodes it according to its extension.
func ParseFile(path string) (*Manifest, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, fmt.Errorf("unsupported manifest extension for %s", path)
	}
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes manifest bytes in the given format.
// JSON is decoded with the YAML decoder, which accepts it as a subset.
func Parse(data []byte, format Format) (*Manifest, error) {
	var m Manifest
	switch format {
	case FormatYAML, FormatJSON:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, err
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown manifest format %q", format)
	}
	return &m, nil
}

// Load reads, validates and parses the manifest at path and builds a
// Blueprint from it. wantName is the name derived from the file location;
// a manifest that omits its name inherits it, and one that declares a
// different name is rejected.
func Load(path, wantName string) (*Blueprint, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, fmt.Errorf("unsupported manifest extension for %s", path)
	}
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	result, err := Validate(data, format)
	if err != nil {
		return nil, fmt.Errorf("validating manifest %s: %w", path, err)
	}
	if !result.Valid {
		return nil, &ValidationError{Path: path, Issues: result.Issues}
	}

	m, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if m.Name == "" {
		m.Name = wantName
	}
	if wantName != "" && m.Name != wantName {
		return nil, fmt.Errorf("%w: %s declares name %q but is located at %q", ErrInvalidManifest, path, m.Name, wantName)
	}

	return New(*m, path)
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	return data, nil
}
