package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agentx-labs/modreg/internal/blueprint"
	"github.com/agentx-labs/modreg/internal/loader"
	"github.com/agentx-labs/modreg/internal/registry"
	"github.com/agentx-labs/modreg/internal/watch"
	"github.com/spf13/cobra"
)

var (
	watchDebounce time.Duration
	watchIgnore   []string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the sources and reload modules whose manifests change",
	Long: `Load every module, then watch the source directories. An edited manifest
replaces the loaded blueprint; a new manifest becomes known to the
registry. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Quiet period before changes are applied (default from config)")
	watchCmd.Flags().StringSliceVar(&watchIgnore, "ignore", nil, "Extra doublestar patterns to ignore, relative to each source")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	s, err := openSession(registry.WithReloadHook(func(bp *blueprint.Blueprint) {
		fmt.Fprintf(out, "reloaded %s\n", bp)
	}))
	if err != nil {
		return err
	}
	s.registry.ForceLoadAll()

	debounce := watchDebounce
	if debounce == 0 && settings != nil {
		debounce = settings.Watch.Debounce
	}

	w, err := watch.New(watch.Config{
		Roots:    sourceRoots(s.loader.Sources()),
		Ignore:   watchIgnore,
		Debounce: debounce,
		OnChange: refreshHandler(s.loader, s.registry),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "Watching %d sources, %d modules loaded. Press Ctrl+C to stop.\n", len(w.Roots()), s.registry.Len())
	return w.Run(ctx)
}

// refreshHandler applies a batch of changed manifests to reg.
func refreshHandler(l *loader.FSLoader, reg *registry.Registry) func(context.Context, []string) error {
	return func(ctx context.Context, changed []string) error {
		var errs []error
		for _, path := range changed {
			if ctx.Err() != nil {
				break
			}
			if err := l.Refresh(reg, path); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}
}

func sourceRoots(sources []loader.Source) []string {
	roots := make([]string, 0, len(sources))
	for _, src := range sources {
		roots = append(roots, src.BasePath)
	}
	return roots
}
