package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/agentx-labs/modreg/internal/registry"
	"github.com/spf13/cobra"
)

var ambiguousJSON bool

var ambiguousCmd = &cobra.Command{
	Use:   "ambiguous",
	Short: "Report module names defined by more than one source",
	Long: `Load every manifest of every source, shadowed ones included, and list
the names that more than one source defines differently. The first source
wins; the other definitions are ignored by the registry.`,
	Args: cobra.NoArgs,
	RunE: runAmbiguous,
}

func init() {
	ambiguousCmd.Flags().BoolVar(&ambiguousJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(ambiguousCmd)
}

// collisionEntry is one ignored definition.
type collisionEntry struct {
	Name     string    `json:"name"`
	Kept     string    `json:"kept"`
	Rejected string    `json:"rejected"`
	At       time.Time `json:"at"`
}

func runAmbiguous(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	if _, err := s.loader.Preload(s.registry, moduleType); err != nil {
		logger.Warn("some manifests failed to load", "err", err)
	}

	entries := collisionEntries(s.registry)
	if ambiguousJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No ambiguous module names.")
		return nil
	}
	return printCollisions(cmd.OutOrStdout(), entries)
}

func collisionEntries(reg *registry.Registry) []collisionEntry {
	var out []collisionEntry
	for _, name := range reg.AmbiguousNames() {
		for _, c := range reg.Collisions(name) {
			out = append(out, collisionEntry{
				Name:     c.Name,
				Kept:     c.Kept.SourcePath(),
				Rejected: c.Rejected.SourcePath(),
				At:       c.At,
			})
		}
	}
	return out
}

func printCollisions(w io.Writer, entries []collisionEntry) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKEPT\tIGNORED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, e.Kept, e.Rejected)
	}
	return tw.Flush()
}
