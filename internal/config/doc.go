// Package config manages user-level settings stored at ~/.modreg/config.yaml.
// Values come from the config file and from MODREG_* environment variables,
// with dotted keys mapped to underscores (filter.architectures ->
// MODREG_FILTER_ARCHITECTURES).
package config
