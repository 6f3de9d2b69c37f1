package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"runtime"
	"text/tabwriter"

	"github.com/agentx-labs/modreg/internal/blueprint"
	"github.com/agentx-labs/modreg/internal/registry"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	validateJobs int
	validateJSON bool
)

var validateCmd = &cobra.Command{
	Use:   "validate [name...]",
	Short: "Check that modules load and instantiate",
	Long: `Load and instantiate the named modules, or every known module when no
name is given, and report the ones that fail. Manifests are checked against
the blueprint schema as they load.`,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().IntVarP(&validateJobs, "jobs", "j", runtime.NumCPU(), "Number of modules validated in parallel")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(validateCmd)
}

// validateResult is the outcome for one module.
type validateResult struct {
	Name   string   `json:"name"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}

	names := args
	if len(names) == 0 {
		names = s.registry.Names()
	}
	results := validateNames(s.registry, names, validateJobs)

	if validateJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else if err := printValidateTable(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if !r.Valid {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d modules failed validation", failed, len(results))
	}
	return nil
}

// validateNames resolves every name with at most jobs running at once.
// Results keep the order of names.
func validateNames(reg *registry.Registry, names []string, jobs int) []validateResult {
	results := make([]validateResult, len(names))
	var g errgroup.Group
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, name := range names {
		g.Go(func() error {
			results[i] = validateOne(reg, name)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func validateOne(reg *registry.Registry, name string) validateResult {
	res := validateResult{Name: name}
	_, err := reg.Resolve(name)
	if err == nil {
		res.Valid = true
		return res
	}

	var ve *blueprint.ValidationError
	if errors.As(err, &ve) {
		for _, issue := range ve.Issues {
			if issue.Path == "" {
				res.Errors = append(res.Errors, issue.Message)
				continue
			}
			res.Errors = append(res.Errors, issue.Path+": "+issue.Message)
		}
		return res
	}
	res.Errors = []string{err.Error()}
	return res
}

func printValidateTable(w io.Writer, results []validateResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTATUS\tDETAIL")
	for _, r := range results {
		if r.Valid {
			fmt.Fprintf(tw, "%s\tok\t\n", r.Name)
			continue
		}
		for i, msg := range r.Errors {
			if i == 0 {
				fmt.Fprintf(tw, "%s\tinvalid\t%s\n", r.Name, msg)
				continue
			}
			fmt.Fprintf(tw, "\t\t%s\n", msg)
		}
	}
	return tw.Flush()
}
