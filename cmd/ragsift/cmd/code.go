package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ragsift/ragsift/internal/enhance"
	"github.com/ragsift/ragsift/internal/errors"
	"github.com/ragsift/ragsift/internal/ui"
)

// codeOptions holds the code command flags.
type codeOptions struct {
	source     string
	count      int
	jsonOutput bool
	backendFlags
}

// newCodeCmd creates the code example search command.
func newCodeCmd() *cobra.Command {
	opts := &codeOptions{}

	cmd := &cobra.Command{
		Use:   "code <query>",
		Short: "Search for code examples",
		Long: `Search the retrieval backend for code examples matching the query.
Each example is rendered as a fenced block with its summary, origin
URL, and relevance.`,
		Example: `  ragsift code "http middleware chaining"
  ragsift code "worker pool" --source go.dev --count 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runCode(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "Restrict search to one source domain")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 0, "Number of examples to return (default from config)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	addBackendFlags(cmd, &opts.backendFlags)

	return cmd
}

func runCode(ctx context.Context, cmd *cobra.Command, query string, opts *codeOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("source") {
		cfg.Retrieval.Source = opts.source
	}
	if cmd.Flags().Changed("count") {
		cfg.Search.MatchCount = opts.count
	}

	client, err := newRetrievalClient(cmd, cfg, &opts.backendFlags)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	slog.Info("code_search_started",
		slog.String("query", query),
		slog.String("source", cfg.Retrieval.Source))

	examples, err := client.SearchCode(ctx, query, enhance.RetrieveOptions{
		Source:     cfg.Retrieval.Source,
		MatchCount: cfg.Search.MatchCount,
	})
	if err != nil {
		slog.Error("code_search_failed", slog.Any("error", errors.FormatForLog(err)))
		if opts.jsonOutput {
			emitJSONError(cmd, err)
		}
		return fmt.Errorf("%s", codeErrorMessage(err))
	}

	slog.Info("code_search_complete", slog.Int("examples", len(examples)))

	if opts.jsonOutput {
		return printCodeJSON(cmd, query, examples)
	}

	w := ui.NewWriter(cmd.OutOrStdout(), ui.WithNoColor(noColorMode))
	w.Block(enhance.FormatCodeExamples(examples))
	return nil
}

// codeErrorMessage maps a code search failure onto its user-facing
// message by error category.
func codeErrorMessage(err error) string {
	switch errors.GetCategory(err) {
	case errors.CategoryRetrieval:
		msg := siftMessage(err)
		if msg == "" {
			msg = "Unknown error"
		}
		return "Code search failed: " + msg
	case errors.CategoryData, errors.CategoryValidation:
		return fmt.Sprintf("Code search data error: %s. Please check your query format.", siftMessage(err))
	default:
		return fmt.Sprintf("Unexpected code search error: %s. This has been logged for investigation.", siftMessage(err))
	}
}

// CodeOutput is the JSON output format for code search.
type CodeOutput struct {
	Query    string            `json:"query"`
	Count    int               `json:"count"`
	Examples []CodeExampleJSON `json:"examples"`
}

// CodeExampleJSON is one code example in JSON form.
type CodeExampleJSON struct {
	Summary    string  `json:"summary,omitempty"`
	Language   string  `json:"language"`
	Code       string  `json:"code"`
	URL        string  `json:"url,omitempty"`
	Similarity float64 `json:"similarity"`
}

func printCodeJSON(cmd *cobra.Command, query string, examples []enhance.CodeExample) error {
	view := CodeOutput{
		Query:    query,
		Count:    len(examples),
		Examples: make([]CodeExampleJSON, 0, len(examples)),
	}
	for _, ex := range examples {
		view.Examples = append(view.Examples, CodeExampleJSON{
			Summary:    ex.Summary,
			Language:   enhance.SniffCodeLang(ex.Code),
			Code:       ex.Code,
			URL:        ex.URL,
			Similarity: ex.Similarity,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
