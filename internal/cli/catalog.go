package cli

import (
	"fmt"
	"time"

	"github.com/agentx-labs/modreg/internal/branding"
	"github.com/agentx-labs/modreg/internal/catalog"
	"github.com/spf13/cobra"
)

func init() {
	catalogCmd.AddCommand(catalogUpdateCmd)
	catalogCmd.AddCommand(catalogStatusCmd)
	rootCmd.AddCommand(catalogCmd)
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the module catalog checkout",
	Long: `Manage the git checkout used as module source when no other source is
configured. Only the modules/ directory of the catalog repository is
checked out, under ~/` + branding.HomeDir() + `/catalog/ by default.`,
}

var catalogUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update the catalog to the latest version",
	Long: `Pull the latest modules from the catalog repository, cloning it first if
it is not present yet.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := settings.Catalog.Dir
		repoURL := catalog.RepoURL()
		fmt.Fprintf(cmd.OutOrStdout(), "Updating catalog at %s from %s...\n", dir, repoURL)

		if err := catalog.Sync(cmd.Context(), dir, repoURL); err != nil {
			return fmt.Errorf("updating catalog: %w", err)
		}
		logger.Info("catalog updated", "dir", dir)

		fmt.Fprintln(cmd.OutOrStdout(), "Catalog updated successfully.")
		return nil
	},
}

var catalogStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show catalog status and location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		st := catalog.Inspect(settings.Catalog.Dir, catalogMaxAge())

		fmt.Fprintf(out, "Catalog path: %s\n", st.Dir)
		fmt.Fprintf(out, "Repo URL:     %s\n", catalog.RepoURL())
		if !usesCatalog() {
			fmt.Fprintln(out, "In use:       no (sources are configured)")
		}

		if !st.Present {
			fmt.Fprintln(out, "Status:       not installed")
			fmt.Fprintf(out, "\nRun '%s catalog update' to install.\n", branding.CLIName())
			return nil
		}

		if st.LastUpdated.IsZero() {
			fmt.Fprintln(out, "Last updated: unknown")
		} else {
			age := time.Since(st.LastUpdated).Truncate(time.Minute)
			fmt.Fprintf(out, "Last updated: %s (%s ago)\n", st.LastUpdated.Format(time.RFC3339), age)
		}

		if st.Stale {
			fmt.Fprintf(out, "Status:       stale (run '%s catalog update')\n", branding.CLIName())
		} else {
			fmt.Fprintln(out, "Status:       up to date")
		}
		return nil
	},
}
