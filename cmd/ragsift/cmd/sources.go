package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ragsift/ragsift/internal/enhance"
	"github.com/ragsift/ragsift/internal/errors"
	"github.com/ragsift/ragsift/internal/ui"
)

// sourcesOptions holds the sources command flags.
type sourcesOptions struct {
	rank       bool
	jsonOutput bool
	backendFlags
}

// newSourcesCmd creates the sources command.
func newSourcesCmd() *cobra.Command {
	opts := &sourcesOptions{}

	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List searchable sources",
		Long: `List the sources the retrieval backend can search, with their
titles and crawl dates. With --rank, each source's metadata is scored
for quality and the top sources are shown best first.`,
		Example: `  # List everything
  ragsift sources

  # Top sources by quality score
  ragsift sources --rank`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSources(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.rank, "rank", false, "Rank sources by quality score")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	addBackendFlags(cmd, &opts.backendFlags)

	return cmd
}

func runSources(ctx context.Context, cmd *cobra.Command, opts *sourcesOptions) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client, err := newRetrievalClient(cmd, cfg, &opts.backendFlags)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	sources, err := client.ListSources(ctx)
	if err != nil {
		slog.Error("list_sources_failed", slog.Any("error", errors.FormatForLog(err)))
		if opts.jsonOutput {
			emitJSONError(cmd, err)
		}
		if opts.rank {
			return fmt.Errorf("Could not get source quality scores: %s", siftMessage(err))
		}
		return fmt.Errorf("%s", sourcesErrorMessage(err))
	}

	slog.Info("sources_listed", slog.Int("count", len(sources)))

	if opts.rank {
		return printRankedSources(cmd, sources, opts.jsonOutput)
	}
	return printSources(cmd, sources, opts.jsonOutput)
}

// sourcesErrorMessage maps a listing failure onto its user-facing
// message: transport failures, malformed source payloads, and unexpected
// errors each read differently.
func sourcesErrorMessage(err error) string {
	switch errors.GetCategory(err) {
	case errors.CategoryRetrieval:
		msg := siftMessage(err)
		if msg == "" {
			msg = "Unknown error"
		}
		return "Failed to get sources: " + msg
	case errors.CategoryData, errors.CategoryValidation:
		return fmt.Sprintf("Error parsing source data: %s. The source list may be corrupted.", siftMessage(err))
	default:
		return fmt.Sprintf("Unexpected error retrieving sources: %s. This has been logged for investigation.", siftMessage(err))
	}
}

// SourcesOutput is the JSON output format for the source list.
type SourcesOutput struct {
	Count   int          `json:"count"`
	Sources []SourceJSON `json:"sources"`
}

// SourceJSON is one source in JSON form.
type SourceJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	TotalWords  int    `json:"total_words,omitempty"`
}

// RankedSourcesOutput is the JSON output format for quality ranking.
type RankedSourcesOutput struct {
	Sources []RankedSourceJSON `json:"sources"`
}

// RankedSourceJSON is one quality-ranked source in JSON form.
type RankedSourceJSON struct {
	Name        string  `json:"name"`
	Quality     float64 `json:"quality"`
	ContentType string  `json:"content_type"`
	WordCount   int     `json:"word_count"`
}

func printSources(cmd *cobra.Command, sources []enhance.Source, jsonOutput bool) error {
	if jsonOutput {
		view := SourcesOutput{
			Count:   len(sources),
			Sources: make([]SourceJSON, 0, len(sources)),
		}
		for _, s := range sources {
			view.Sources = append(view.Sources, SourceJSON{
				ID:          s.ID,
				Title:       s.Title,
				Description: s.Description,
				CreatedAt:   s.CreatedAt,
				TotalWords:  s.TotalWords,
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	w := ui.NewWriter(cmd.OutOrStdout(), ui.WithNoColor(noColorMode))
	w.Block(enhance.FormatSources(sources))
	return nil
}

func printRankedSources(cmd *cobra.Command, sources []enhance.Source, jsonOutput bool) error {
	ranked := enhance.RankSourcesByQuality(sources, nil)

	if jsonOutput {
		view := RankedSourcesOutput{
			Sources: make([]RankedSourceJSON, 0, len(ranked)),
		}
		for _, r := range ranked {
			view.Sources = append(view.Sources, RankedSourceJSON{
				Name:        r.Name,
				Quality:     r.Quality,
				ContentType: r.ContentType,
				WordCount:   r.WordCount,
			})
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	w := ui.NewWriter(cmd.OutOrStdout(), ui.WithNoColor(noColorMode))
	w.Block(enhance.FormatQualityRanking(ranked))
	return nil
}
