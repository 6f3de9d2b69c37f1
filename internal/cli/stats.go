package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	statsLoad bool
	statsJSON bool
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show how many modules are known and loaded",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		if statsLoad {
			s.registry.ForceLoadAll()
		}
		st := s.registry.Stats()

		if statsJSON {
			data, err := json.MarshalIndent(map[string]int{
				"known":     st.Known,
				"resolved":  st.Resolved,
				"ambiguous": st.Ambiguous,
			}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		p := message.NewPrinter(language.English)
		p.Fprintf(cmd.OutOrStdout(), "Known:     %d\n", st.Known)
		p.Fprintf(cmd.OutOrStdout(), "Loaded:    %d\n", st.Resolved)
		p.Fprintf(cmd.OutOrStdout(), "Ambiguous: %d\n", st.Ambiguous)
		return nil
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsLoad, "load", false, "Load every manifest before counting")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(statsCmd)
}
