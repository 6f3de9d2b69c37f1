package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agentx-labs/modreg/internal/search"
	"github.com/spf13/cobra"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search modules by name, description, tags and more",
	Long: `Search the loaded modules with a full-text query.

Plain words match names, descriptions, authors and tags. Fields can be
addressed directly:

  modreg search smb
  modreg search "type:payload +platforms:linux"
  modreg search "rank:>=200 windows"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", search.DefaultLimit, "Maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}

	idx, err := search.New()
	if err != nil {
		return err
	}
	defer idx.Close()

	if err := idx.Build(s.registry.RankedOrder()); err != nil {
		return err
	}
	hits, err := idx.Search(strings.Join(args, " "), searchLimit)
	if err != nil {
		return err
	}

	if searchJSON {
		data, err := json.MarshalIndent(hits, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	if len(hits) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching modules.")
		return nil
	}
	return printHits(cmd.OutOrStdout(), hits)
}

func printHits(w io.Writer, hits []search.Hit) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tNAME\tSCORE")
	for _, h := range hits {
		fmt.Fprintf(tw, "%s\t%s\t%.3f\n", h.Type, h.Name, h.Score)
	}
	return tw.Flush()
}
