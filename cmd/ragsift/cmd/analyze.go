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
	"github.com/ragsift/ragsift/internal/retrieve"
	"github.com/ragsift/ragsift/internal/ui"
)

// analyzeOptions holds the analyze command flags.
type analyzeOptions struct {
	source     string
	count      int
	jsonOutput bool
	backendFlags
}

// newAnalyzeCmd creates the analyze command.
func newAnalyzeCmd() *cobra.Command {
	opts := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <query>",
		Short: "Analyze search performance for a query",
		Long: `Run one enhanced search and report quality metrics for it: average
relevance and source diversity measured from the results, query
complexity and specificity derived from the query itself, and
recommendations when the search looks weak.`,
		Example: `  ragsift analyze "generics"
  ragsift analyze "how to profile memory allocations" --source go.dev`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runAnalyze(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "Restrict search to one source domain")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 0, "Target result count for coverage (default from config)")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	addBackendFlags(cmd, &opts.backendFlags)

	return cmd
}

func runAnalyze(ctx context.Context, cmd *cobra.Command, query string, opts *analyzeOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts.backendFlags.apply(cmd, cfg)
	if cmd.Flags().Changed("source") {
		cfg.Retrieval.Source = opts.source
	}
	if cmd.Flags().Changed("count") {
		cfg.Search.MatchCount = opts.count
	}

	client, err := retrieve.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	pipe, err := newPipeline(client, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.SearchTimeout())
	defer cancel()

	slog.Info("analysis_started", slog.String("query", query))

	out, err := pipe.Enhance(ctx, query)
	if err != nil {
		slog.Error("analysis_failed", slog.Any("error", errors.FormatForLog(err)))
		if opts.jsonOutput {
			emitJSONError(cmd, err)
		}
		return fmt.Errorf("Could not analyze search performance: %s", siftMessage(err))
	}

	recordRun(cfg, out)

	analysis := enhance.NewAnalyzer(cfg.Search.MatchCount).AnalyzeOutput(out)

	slog.Info("analysis_complete",
		slog.String("query", query),
		slog.Int("results", len(out.Results)))

	if opts.jsonOutput {
		return printAnalysisJSON(cmd, query, out, analysis)
	}

	w := ui.NewWriter(cmd.OutOrStdout(), ui.WithNoColor(noColorMode))
	w.Block(analysis.Format())
	return nil
}

// AnalysisOutput is the JSON output format for analyze.
type AnalysisOutput struct {
	Query            string   `json:"query"`
	Outcome          string   `json:"outcome"`
	ResultCount      int      `json:"result_count"`
	AvgRelevance     float64  `json:"avg_relevance"`
	SourceDiversity  float64  `json:"source_diversity"`
	QueryComplexity  float64  `json:"query_complexity"`
	QuerySpecificity float64  `json:"query_specificity"`
	ResultsCoverage  float64  `json:"results_coverage"`
	Recommendations  []string `json:"recommendations"`
}

func printAnalysisJSON(cmd *cobra.Command, query string, out *enhance.Output, an enhance.Analysis) error {
	view := AnalysisOutput{
		Query:            query,
		Outcome:          string(out.Outcome),
		ResultCount:      len(out.Results),
		AvgRelevance:     an.AvgRelevance,
		SourceDiversity:  an.SourceDiversity,
		QueryComplexity:  an.QueryComplexity,
		QuerySpecificity: an.QuerySpecificity,
		ResultsCoverage:  an.ResultsCoverage,
		Recommendations:  an.Recommendations,
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
