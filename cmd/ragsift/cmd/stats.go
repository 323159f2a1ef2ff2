package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ragsift/ragsift/internal/analytics"
	"github.com/ragsift/ragsift/internal/enhance"
	"github.com/ragsift/ragsift/internal/ui"
)

// statsOptions holds the stats command flags.
type statsOptions struct {
	days       int
	terms      int
	jsonOutput bool
}

// newStatsCmd creates the stats command.
func newStatsCmd() *cobra.Command {
	opts := &statsOptions{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show local search analytics",
		Long: `Display search analytics recorded on this machine: query kind
distribution, run outcomes, top query terms, recent zero-result
queries, and the latency distribution.

All data lives in the local analytics database; nothing is reported
anywhere.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.days, "days", 30, "Number of days to include")
	cmd.Flags().IntVar(&opts.terms, "terms", 10, "Number of top query terms to show")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStats(cmd *cobra.Command, opts *statsOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	w := ui.NewWriter(cmd.OutOrStdout(), ui.WithNoColor(noColorMode))

	if cfg.Analytics.Disabled {
		w.Warningf("Analytics are disabled in the configuration")
		return nil
	}

	store, err := analytics.Open(cfg.Analytics.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open analytics database: %w", err)
	}
	defer func() { _ = store.Close() }()

	now := time.Now()
	from := now.AddDate(0, 0, -opts.days).Format("2006-01-02")
	to := now.Format("2006-01-02")

	snap, err := analytics.LoadSnapshot(store, from, to, opts.terms)
	if err != nil {
		return fmt.Errorf("failed to load analytics: %w", err)
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	printStats(w, snap, opts.days)
	return nil
}

// kindOrder fixes the display order of query kinds.
var kindOrder = []enhance.QueryKind{
	enhance.QueryKindHowTo,
	enhance.QueryKindWhatIs,
	enhance.QueryKindTroubleshooting,
	enhance.QueryKindCodeSearch,
	enhance.QueryKindListSources,
	enhance.QueryKindAPIDocumentation,
	enhance.QueryKindComparison,
	enhance.QueryKindGeneralSearch,
}

// outcomeOrder fixes the display order of run outcomes.
var outcomeOrder = []enhance.Outcome{
	enhance.OutcomeResults,
	enhance.OutcomeNoResults,
	enhance.OutcomeBelowThreshold,
}

// latencyOrder fixes the display order and labels of latency buckets.
var latencyOrder = []struct {
	bucket analytics.LatencyBucket
	label  string
}{
	{analytics.BucketP100, "<100ms"},
	{analytics.BucketP500, "100-500ms"},
	{analytics.BucketP1000, "500ms-1s"},
	{analytics.BucketP5000, "1-5s"},
	{analytics.BucketSlow, ">=5s"},
}

func printStats(w *ui.Writer, snap *analytics.Snapshot, days int) {
	w.Block(fmt.Sprintf("# Search Analytics (last %d days)", days))
	w.Println()

	w.Printf("Total Runs:   %d\n", snap.TotalRuns)
	w.Printf("Zero Results: %.1f%%\n", snap.ZeroResultRate())
	w.Println()

	if snap.TotalRuns == 0 {
		w.Dimf("No runs recorded yet. Run a few searches first.")
		return
	}

	w.Block("## Query Kinds")
	for _, kind := range kindOrder {
		if count, ok := snap.KindCounts[kind]; ok {
			w.Printf("  %-18s %d\n", kind.String(), count)
		}
	}
	w.Println()

	w.Block("## Outcomes")
	for _, outcome := range outcomeOrder {
		if count, ok := snap.OutcomeCounts[outcome]; ok {
			w.Printf("  %-18s %d\n", string(outcome), count)
		}
	}
	w.Println()

	if len(snap.TopTerms) > 0 {
		w.Block("## Top Query Terms")
		for i, tc := range snap.TopTerms {
			w.Printf("  %d. %s (%d)\n", i+1, tc.Term, tc.Count)
		}
		w.Println()
	}

	if len(snap.ZeroResult) > 0 {
		w.Block("## Recent Zero-Result Queries")
		for _, q := range snap.ZeroResult {
			w.Printf("  - %q\n", q)
		}
		w.Println()
	}

	if len(snap.Latency) > 0 {
		w.Block("## Latency")
		for _, entry := range latencyOrder {
			if count, ok := snap.Latency[entry.bucket]; ok {
				w.Printf("  %-10s %d\n", entry.label, count)
			}
		}
	}
}
