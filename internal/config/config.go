package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/agentx-labs/modreg/internal/branding"
	"github.com/spf13/viper"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Configuration keys.
const (
	KeySources             = "sources"
	KeyModuleType          = "module_type"
	KeyLogLevel            = "log_level"
	KeyLogFormat           = "log_format"
	KeyIndexCache          = "index_cache"
	KeyEager               = "eager"
	KeyFilterArchitectures = "filter.architectures"
	KeyFilterPlatforms     = "filter.platforms"
	KeyWatchDebounce       = "watch.debounce"
	KeyCatalogRepoURL      = "catalog.repo_url"
	KeyCatalogDir          = "catalog.dir"
	KeyCatalogMaxAge       = "catalog.max_age"
)

// SourceConfig is one entry of the sources list.
type SourceConfig struct {
	Name string `mapstructure:"name" yaml:"name"`
	Path string `mapstructure:"path" yaml:"path"`
}

// FilterConfig holds the default capability filter for list commands.
type FilterConfig struct {
	Architectures []string `mapstructure:"architectures"`
	Platforms     []string `mapstructure:"platforms"`
}

// WatchConfig configures the manifest watcher.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// CatalogConfig configures the git-backed catalog source.
type CatalogConfig struct {
	RepoURL string        `mapstructure:"repo_url"`
	Dir     string        `mapstructure:"dir"`
	MaxAge  time.Duration `mapstructure:"max_age"`
}

// Settings is the decoded configuration.
type Settings struct {
	Sources    []SourceConfig `mapstructure:"sources"`
	ModuleType string         `mapstructure:"module_type"`
	LogLevel   string         `mapstructure:"log_level"`
	LogFormat  string         `mapstructure:"log_format"`
	IndexCache bool           `mapstructure:"index_cache"`
	Eager      bool           `mapstructure:"eager"`
	Filter     FilterConfig   `mapstructure:"filter"`
	Watch      WatchConfig    `mapstructure:"watch"`
	Catalog    CatalogConfig  `mapstructure:"catalog"`
}

// Dir returns the path to the config directory (~/.modreg/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.modreg/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault(KeySources, []SourceConfig{})
	viper.SetDefault(KeyModuleType, "")
	viper.SetDefault(KeyLogLevel, "warn")
	viper.SetDefault(KeyLogFormat, "text")
	viper.SetDefault(KeyIndexCache, true)
	viper.SetDefault(KeyEager, false)
	viper.SetDefault(KeyFilterArchitectures, []string{})
	viper.SetDefault(KeyFilterPlatforms, []string{})
	viper.SetDefault(KeyWatchDebounce, 500*time.Millisecond)
	viper.SetDefault(KeyCatalogRepoURL, "")
	viper.SetDefault(KeyCatalogDir, filepath.Join(Dir(), "catalog"))
	viper.SetDefault(KeyCatalogMaxAge, 24*time.Hour)
}

// Load initializes Viper to read from the default config file and the
// environment.
func Load() error {
	return LoadFile(FilePath())
}

// LoadFile is Load with an explicit config file. A missing file is not an
// error; a malformed one is.
func LoadFile(path string) error {
	setDefaults()
	viper.SetConfigFile(path)
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	return nil
}

// Current decodes the loaded configuration.
func Current() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &s, nil
}

// Get returns a config value by key. Returns empty string if not set.
func Get(key string) string {
	return viper.GetString(key)
}

// Set writes a config key-value pair and saves the config file.
func Set(key, value string) error {
	if err := EnsureDir(); err != nil {
		return err
	}
	return SetIn(FilePath(), key, value)
}

// SetIn is Set against an explicit config file.
func SetIn(configFile, key, value string) error {
	viper.Set(key, value)

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
