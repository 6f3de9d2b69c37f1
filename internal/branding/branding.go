// Package branding holds the identity values baked into the binary.
//
// The values come from the embedded branding.yaml; hard defaults apply when
// a key is missing.
package branding

import (
	_ "embed"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed branding.yaml
var rawBranding []byte

var (
	once     sync.Once
	defaults brand
)

type brand struct {
	CLIName        string `yaml:"cli_name"`
	DisplayName    string `yaml:"display_name"`
	Description    string `yaml:"description"`
	HomeDir        string `yaml:"home_dir"`
	EnvPrefix      string `yaml:"env_prefix"`
	ModulesDir     string `yaml:"modules_dir"`
	CatalogRepoURL string `yaml:"catalog_repo_url"`
}

func load() {
	once.Do(func() {
		defaults = brand{
			CLIName:        "modreg",
			DisplayName:    "ModReg",
			Description:    "Lazily resolved catalog of typed modules",
			HomeDir:        ".modreg",
			EnvPrefix:      "MODREG",
			ModulesDir:     "modules",
			CatalogRepoURL: "https://github.com/agentx-labs/modreg-catalog.git",
		}
		_ = yaml.Unmarshal(rawBranding, &defaults)
	})
}

// CLIName returns the root command name (e.g., "modreg").
func CLIName() string { load(); return defaults.CLIName }

// DisplayName returns the human-readable product name.
func DisplayName() string { load(); return defaults.DisplayName }

// Description returns the short product description.
func Description() string { load(); return defaults.Description }

// HomeDir returns the dot-directory name under $HOME (e.g., ".modreg").
func HomeDir() string { load(); return defaults.HomeDir }

// EnvPrefix returns the environment variable prefix (e.g., "MODREG").
func EnvPrefix() string { load(); return defaults.EnvPrefix }

// ModulesDir returns the directory inside a catalog checkout that holds the
// type directories.
func ModulesDir() string { load(); return defaults.ModulesDir }

// CatalogRepoURL returns the default git URL for catalog cloning.
func CatalogRepoURL() string { load(); return defaults.CatalogRepoURL }

// EnvVar returns a fully qualified env var name, e.g., EnvVar("catalog_url") → "MODREG_CATALOG_URL".
func EnvVar(suffix string) string {
	load()
	return defaults.EnvPrefix + "_" + strings.ToUpper(suffix)
}
