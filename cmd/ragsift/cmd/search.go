package cmd

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ragsift/ragsift/internal/analytics"
	"github.com/ragsift/ragsift/internal/config"
	"github.com/ragsift/ragsift/internal/enhance"
	"github.com/ragsift/ragsift/internal/retrieve"
	"github.com/ragsift/ragsift/internal/ui"
)

// searchOptions holds the search command flags.
type searchOptions struct {
	source      string
	count       int
	threshold   float64
	noExpand    bool
	noCluster   bool
	contentType string
	minQuality  float64
	jsonOutput  bool
	backendFlags
}

// newSearchCmd creates the search command.
func newSearchCmd() *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search with query enhancement",
		Long: `Run one enhanced search: the query is expanded into variants,
each variant is retrieved in parallel, and the merged hits are scored,
filtered against the relevance threshold, deduplicated, and ranked.`,
		Example: `  # Search all sources
  ragsift search "how to handle context cancellation"

  # Restrict to one source and take more results
  ragsift search "goroutine leaks" --source go.dev --count 10

  # Search a local corpus instead of the MCP backend
  ragsift search "retry backoff" --backend local --corpus ./docs.jsonl

  # Machine-readable output
  ragsift search "error wrapping" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.source, "source", "s", "", "Restrict search to one source domain")
	cmd.Flags().IntVarP(&opts.count, "count", "n", 0, "Number of results to return (1-50, default from config)")
	cmd.Flags().Float64VarP(&opts.threshold, "threshold", "t", 0, "Minimum relevance 0.0-1.0 (default from config)")
	cmd.Flags().BoolVar(&opts.noExpand, "no-expand", false, "Search the raw query only, without expansion")
	cmd.Flags().BoolVar(&opts.noCluster, "no-cluster", false, "Keep near-duplicate results")
	cmd.Flags().StringVar(&opts.contentType, "type", "all", "Keep only one content type (code, tutorial, api_documentation, ...)")
	cmd.Flags().Float64Var(&opts.minQuality, "min-quality", 0, "Drop results below this source quality")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	addBackendFlags(cmd, &opts.backendFlags)

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts *searchOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applySearchFlags(cmd, cfg, opts)
	if err := cfg.Validate(); err != nil {
		return err
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

	slog.Info("search_started",
		slog.String("query", query),
		slog.String("backend", cfg.Retrieval.Backend),
		slog.String("source", cfg.Retrieval.Source))

	out, err := pipe.Enhance(ctx, query)
	if err != nil {
		if opts.jsonOutput {
			emitJSONError(cmd, err)
		}
		return err
	}

	recordRun(cfg, out)
	applyResultFilters(out, opts)

	if opts.jsonOutput {
		return printSearchJSON(cmd, out)
	}

	w := ui.NewWriter(cmd.OutOrStdout(), ui.WithNoColor(noColorMode))
	w.Block(out.Formatted)
	if out.Outcome == enhance.OutcomeResults {
		w.Println()
		w.Dimf("%d of %d retrieved hits in %s",
			len(out.Results), out.Retrieved, out.Duration.Round(time.Millisecond))
	}
	return nil
}

// applySearchFlags copies explicitly-set search flags onto the
// configuration so flags win over config files and environment.
func applySearchFlags(cmd *cobra.Command, cfg *config.Config, opts *searchOptions) {
	opts.backendFlags.apply(cmd, cfg)
	if cmd.Flags().Changed("source") {
		cfg.Retrieval.Source = opts.source
	}
	if cmd.Flags().Changed("count") {
		cfg.Search.MatchCount = opts.count
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Search.SimilarityThreshold = opts.threshold
	}
	if opts.noExpand {
		cfg.Search.DisableExpansion = true
	}
	if opts.noCluster {
		cfg.Search.DisableClustering = true
	}
}

// newPipeline builds the enhancement pipeline from the effective
// configuration.
func newPipeline(retriever enhance.Retriever, cfg *config.Config) (*enhance.Pipeline, error) {
	return enhance.NewPipeline(retriever,
		enhance.WithMatchCount(cfg.Search.MatchCount),
		enhance.WithThreshold(cfg.Search.SimilarityThreshold),
		enhance.WithSource(cfg.Retrieval.Source),
		enhance.WithExpansion(!cfg.Search.DisableExpansion),
		enhance.WithClustering(!cfg.Search.DisableClustering),
		enhance.WithParallelism(cfg.Search.Parallelism),
		enhance.WithExpander(enhance.NewQueryExpander(
			enhance.WithMaxVariants(cfg.Search.MaxVariants))),
	)
}

// applyResultFilters narrows the pipeline output by the --type and
// --min-quality flags and re-renders the text block when anything was
// dropped.
func applyResultFilters(out *enhance.Output, opts *searchOptions) {
	if out.Outcome != enhance.OutcomeResults {
		return
	}

	filtered := enhance.ApplyFilters(out.Results, enhance.FilterOptions{
		ContentType: opts.contentType,
		MinQuality:  opts.minQuality,
	})
	if len(filtered) == len(out.Results) {
		return
	}

	out.Results = filtered
	if len(filtered) == 0 {
		out.Outcome = enhance.OutcomeNoResults
		out.Formatted = enhance.NewFormatter().NoResultsMessage(out.Query, "")
		return
	}
	out.Formatted = enhance.NewFormatter().FormatResults(filtered, out.Query, out.Variants)
}

// recordRun persists one run event to the local analytics database.
// Analytics failures never fail a search; they are logged and skipped.
func recordRun(cfg *config.Config, out *enhance.Output) {
	if cfg.Analytics.Disabled {
		return
	}

	store, err := analytics.Open(cfg.Analytics.DBPath)
	if err != nil {
		slog.Warn("analytics_unavailable", slog.String("error", err.Error()))
		return
	}
	defer func() { _ = store.Close() }()

	collector := analytics.NewCollectorWithConfig(store, analytics.Config{})
	collector.Record(analytics.Event{
		Query:       out.Query,
		Kind:        enhance.NewQueryKindClassifier().Kind(out.Query),
		Outcome:     out.Outcome,
		ResultCount: len(out.Results),
		Latency:     out.Duration,
		Timestamp:   time.Now(),
	})
	if err := collector.Close(); err != nil {
		slog.Warn("analytics_flush_failed", slog.String("error", err.Error()))
	}
}

// SearchOutput is the JSON output format for search.
type SearchOutput struct {
	Query            string          `json:"query"`
	Variants         []string        `json:"variants"`
	Outcome          string          `json:"outcome"`
	Results          []SearchResult  `json:"results"`
	Retrieved        int             `json:"retrieved"`
	AverageRelevance float64         `json:"average_relevance"`
	UniqueSources    int             `json:"unique_sources"`
	Stages           []SearchStage   `json:"stages"`
	VariantStats     []SearchVariant `json:"variant_stats"`
	DurationMS       int64           `json:"duration_ms"`
}

// SearchStage is one pipeline stage timing in JSON form.
type SearchStage struct {
	Stage      string  `json:"stage"`
	DurationMS float64 `json:"duration_ms"`
}

// SearchVariant is the retrieval outcome of one query variant in JSON form.
type SearchVariant struct {
	Variant    string  `json:"variant"`
	Hits       int     `json:"hits"`
	Failed     bool    `json:"failed"`
	DurationMS float64 `json:"duration_ms"`
}

// SearchResult is one enhanced result in JSON form.
type SearchResult struct {
	Source      string  `json:"source"`
	URL         string  `json:"url,omitempty"`
	ContentType string  `json:"content_type"`
	Relevance   float64 `json:"relevance"`
	Similarity  float64 `json:"similarity"`
	Quality     float64 `json:"quality"`
	Variant     string  `json:"query_variant,omitempty"`
	Content     string  `json:"content"`
}

func printSearchJSON(cmd *cobra.Command, out *enhance.Output) error {
	view := SearchOutput{
		Query:            out.Query,
		Variants:         out.Variants,
		Outcome:          string(out.Outcome),
		Results:          make([]SearchResult, 0, len(out.Results)),
		Retrieved:        out.Retrieved,
		AverageRelevance: out.AverageRelevance(),
		UniqueSources:    out.UniqueSources(),
		Stages:           make([]SearchStage, 0, len(out.Stages)),
		VariantStats:     make([]SearchVariant, 0, len(out.VariantStats)),
		DurationMS:       out.Duration.Milliseconds(),
	}
	for _, s := range out.Stages {
		view.Stages = append(view.Stages, SearchStage{
			Stage:      string(s.Stage),
			DurationMS: s.Duration.Seconds() * 1e3,
		})
	}
	for _, vs := range out.VariantStats {
		view.VariantStats = append(view.VariantStats, SearchVariant{
			Variant:    vs.Variant,
			Hits:       vs.Hits,
			Failed:     vs.Failed,
			DurationMS: vs.Duration.Seconds() * 1e3,
		})
	}
	for _, r := range out.Results {
		view.Results = append(view.Results, SearchResult{
			Source:      r.Source,
			URL:         r.URL,
			ContentType: r.ContentType.String(),
			Relevance:   r.Relevance,
			Similarity:  r.Similarity,
			Quality:     r.Quality,
			Variant:     r.QueryVariant,
			Content:     r.Content,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}
