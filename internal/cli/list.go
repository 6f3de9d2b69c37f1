package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/agentx-labs/modreg/internal/blueprint"
	"github.com/agentx-labs/modreg/internal/config"
	"github.com/agentx-labs/modreg/internal/platform"
	"github.com/agentx-labs/modreg/internal/registry"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	listArchs     []string
	listPlatforms []string
	listHost      bool
	listRanked    bool
	listJSON      bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available modules",
	Long: `List every module the sources provide, loading manifests as needed.

By default modules are sorted by name. --ranked sorts by rank, best first.
--arch and --platform keep modules supporting at least one of the given
values; --host selects modules that run on this machine.`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringSliceVar(&listArchs, "arch", nil, "Keep modules supporting one of these architectures")
	listCmd.Flags().StringSliceVar(&listPlatforms, "platform", nil, "Keep modules supporting one of these platforms")
	listCmd.Flags().BoolVar(&listHost, "host", false, "Keep modules that run on this host")
	listCmd.Flags().BoolVar(&listRanked, "ranked", false, "Sort by rank instead of name")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents a module for display.
type listEntry struct {
	Type          string   `json:"type"`
	Name          string   `json:"name"`
	Rank          int      `json:"rank"`
	Version       string   `json:"version,omitempty"`
	Architectures []string `json:"architectures,omitempty"`
	Platforms     []string `json:"platforms,omitempty"`
	Description   string   `json:"description,omitempty"`
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}

	filter := buildFilter(cmd, settings)
	var entries []registry.Entry
	if listRanked {
		entries = s.registry.Ranked(filter)
	} else {
		entries = s.registry.Sorted(filter)
	}

	out := toListEntries(entries)
	if listJSON {
		return printListJSON(cmd.OutOrStdout(), out)
	}
	if len(out) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No modules found.")
		return nil
	}
	if err := printListTable(cmd.OutOrStdout(), out); err != nil {
		return err
	}
	message.NewPrinter(language.English).Fprintf(cmd.OutOrStdout(), "\n%d of %d modules\n", len(out), s.registry.Len())
	return nil
}

// buildFilter combines the configured default filter with the flags. A
// flag that was given replaces the configured value; --host replaces both.
func buildFilter(cmd *cobra.Command, s *config.Settings) registry.Filter {
	var f registry.Filter
	if s != nil {
		f.Architectures = nilIfEmpty(s.Filter.Architectures)
		f.Platforms = nilIfEmpty(s.Filter.Platforms)
	}
	if listHost {
		f = platform.HostFilter()
	}
	if cmd.Flags().Changed("arch") {
		f.Architectures = append([]string{}, listArchs...)
	}
	if cmd.Flags().Changed("platform") {
		f.Platforms = append([]string{}, listPlatforms...)
	}
	return f
}

// nilIfEmpty turns an empty configured list into "no constraint".
func nilIfEmpty(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return values
}

func toListEntries(entries []registry.Entry) []listEntry {
	out := make([]listEntry, 0, len(entries))
	for _, e := range entries {
		bp := e.Blueprint
		out = append(out, listEntry{
			Type:          bp.Type(),
			Name:          e.Name,
			Rank:          bp.Rank(),
			Version:       bp.Version(),
			Architectures: bp.Architectures(),
			Platforms:     bp.Platforms(),
			Description:   bp.Description(),
		})
	}
	return out
}

func printListTable(w io.Writer, entries []listEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAME\tRANK\tVERSION\tDESCRIPTION")
	for _, e := range entries {
		version := e.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.Type, e.Name, blueprint.RankName(e.Rank), version, truncate(e.Description, 60))
	}
	return tw.Flush()
}

func printListJSON(w io.Writer, entries []listEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
