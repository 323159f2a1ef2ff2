package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ragsift/ragsift/internal/enhance"
	"github.com/ragsift/ragsift/internal/ui"
)

// refineOptions holds the refine command flags.
type refineOptions struct {
	searchContext string
	jsonOutput    bool
}

// newRefineCmd creates the refine command.
func newRefineCmd() *cobra.Command {
	opts := &refineOptions{}

	cmd := &cobra.Command{
		Use:   "refine <query>",
		Short: "Generate refined query variations",
		Long: `Generate up to five intent-aware variations of a query. How-to,
definition, troubleshooting, and API queries each get canonical
suffix forms; extra context is appended as a final variation.

Refinement runs locally and never contacts the retrieval backend.`,
		Example: `  ragsift refine "how to configure timeouts"
  ragsift refine "connection refused" --context "docker compose"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runRefine(cmd, query, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.searchContext, "context", "c", "", "Extra context appended as a variation")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runRefine(cmd *cobra.Command, query string, opts *refineOptions) error {
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("Could not refine query: %s", "query must not be empty")
	}

	refined := enhance.NewRefiner().Refine(query, opts.searchContext)

	if opts.jsonOutput {
		view := RefineOutput{
			Query:       query,
			Context:     opts.searchContext,
			Refinements: refined,
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	w := ui.NewWriter(cmd.OutOrStdout(), ui.WithNoColor(noColorMode))
	w.Block(enhance.FormatRefinements(refined))
	return nil
}

// RefineOutput is the JSON output format for refine.
type RefineOutput struct {
	Query       string   `json:"query"`
	Context     string   `json:"context,omitempty"`
	Refinements []string `json:"refinements"`
}
