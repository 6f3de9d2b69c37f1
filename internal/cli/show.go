package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/agentx-labs/modreg/internal/blueprint"
	"github.com/agentx-labs/modreg/internal/registry"
	"github.com/spf13/cobra"
)

var (
	showJSON        bool
	showInstantiate bool
)

var showCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the details of one module",
	Long: `Load a module's manifest and print its details.

With --instantiate a live instance is created, which exercises the same
path a consumer of the registry would take.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")
	showCmd.Flags().BoolVar(&showInstantiate, "instantiate", false, "Create an instance of the module")
	rootCmd.AddCommand(showCmd)
}

// showOutput is the JSON form of show.
type showOutput struct {
	blueprint.Manifest
	Rank       int    `json:"rank"`
	Source     string `json:"source"`
	InstanceID string `json:"instance_id,omitempty"`
}

func runShow(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}

	name := args[0]
	bp, err := s.registry.Lookup(name)
	if err != nil {
		var le *registry.LoadError
		if errors.As(err, &le) {
			return err
		}
		return fmt.Errorf("module %q not found", name)
	}

	out := showOutput{Manifest: bp.Manifest(), Rank: bp.Rank(), Source: bp.SourcePath()}
	if showInstantiate {
		m, err := s.registry.Resolve(name)
		if err != nil {
			return err
		}
		out.InstanceID = m.ID()
	}

	if showJSON {
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}
	printShow(cmd.OutOrStdout(), out)
	return nil
}

func printShow(w io.Writer, out showOutput) {
	fmt.Fprintf(w, "Name:          %s\n", out.Name)
	fmt.Fprintf(w, "Type:          %s\n", out.Type)
	fmt.Fprintf(w, "Rank:          %s\n", blueprint.RankName(out.Rank))
	if out.Version != "" {
		fmt.Fprintf(w, "Version:       %s\n", out.Version)
	}
	fmt.Fprintf(w, "Architectures: %s\n", joinOrDash(out.Architectures))
	fmt.Fprintf(w, "Platforms:     %s\n", joinOrDash(out.Platforms))
	if len(out.Authors) > 0 {
		fmt.Fprintf(w, "Authors:       %s\n", strings.Join(out.Authors, ", "))
	}
	if len(out.Tags) > 0 {
		fmt.Fprintf(w, "Tags:          %s\n", strings.Join(out.Tags, ", "))
	}
	fmt.Fprintf(w, "Source:        %s\n", out.Source)
	if out.InstanceID != "" {
		fmt.Fprintf(w, "Instance:      %s\n", out.InstanceID)
	}
	if out.Description != "" {
		fmt.Fprintf(w, "\n%s\n", out.Description)
	}
	for _, ref := range out.References {
		fmt.Fprintf(w, "  - %s\n", ref)
	}
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}
