package cli

import (
	"fmt"
	"time"

	"github.com/agentx-labs/modreg/internal/blueprint"
	"github.com/agentx-labs/modreg/internal/branding"
	"github.com/agentx-labs/modreg/internal/catalog"
	"github.com/agentx-labs/modreg/internal/config"
	"github.com/agentx-labs/modreg/internal/logging"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	configFile string
	logLevel   string
	moduleType string
	sourceArgs []string

	settings *config.Settings
	logger   = logging.Discard()
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` indexes module manifests (exploits, payloads, encoders, ...)
kept in one or more source directories. Manifests are parsed only when a
module is first looked up, listed or validated.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/"+branding.HomeDir()+"/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVarP(&moduleType, "type", "t", "", "Module type to operate on (default: all types)")
	rootCmd.PersistentFlags().StringArrayVarP(&sourceArgs, "source", "s", nil, "Module source as name=path, repeatable, highest priority first")
}

// setup loads the configuration and builds the logger shared by every
// command.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if configFile != "" {
		err = config.LoadFile(configFile)
	} else {
		err = config.Load()
	}
	if err != nil {
		return err
	}
	if settings, err = config.Current(); err != nil {
		return err
	}

	level := settings.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logger, err = logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:  level,
		Format: logging.Format(settings.LogFormat),
	})
	if err != nil {
		return err
	}

	if moduleType == "" {
		moduleType = settings.ModuleType
	}
	if moduleType != "" && !blueprint.IsValidType(moduleType) {
		return fmt.Errorf("unknown module type %q (valid: %v)", moduleType, blueprint.ValidTypes())
	}

	// Only the catalog fallback depends on the checkout being current.
	if cmd.Name() != "catalog" && cmd.Parent() != catalogCmd && usesCatalog() {
		if st := catalog.Inspect(settings.Catalog.Dir, catalogMaxAge()); st.Present && st.Stale {
			fmt.Fprintf(cmd.ErrOrStderr(), "Catalog is out of date. Run '%s catalog update'.\n", branding.CLIName())
		}
	}
	return nil
}

func catalogMaxAge() time.Duration {
	if settings.Catalog.MaxAge > 0 {
		return settings.Catalog.MaxAge
	}
	return catalog.DefaultMaxAge
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return rootCmd.Execute()
}
