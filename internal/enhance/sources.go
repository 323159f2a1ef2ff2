package enhance

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
)

// maxRankedSources caps the quality ranking output.
const maxRankedSources = 10

// FormatSources renders the available sources for terminal display.
func FormatSources(sources []Source) string {
	if len(sources) == 0 {
		return "No sources are currently available. You may need to crawl some documentation first."
	}

	lines := make([]string, 0, len(sources))
	for _, s := range sources {
		id := s.ID
		if id == "" {
			id = "Unknown"
		}
		title := s.Title
		if title == "" {
			title = "Untitled"
		}
		desc := ""
		if s.Description != "" {
			desc = " - " + s.Description
		}
		lines = append(lines, fmt.Sprintf("- **%s**: %s%s (added %s)",
			id, title, desc, shortDate(s.CreatedAt)))
	}

	return fmt.Sprintf("Available sources (%d total):\n", len(sources)) +
		strings.Join(lines, "\n")
}

// RankedSource pairs a source with its computed quality score.
type RankedSource struct {
	Name        string
	Quality     float64
	ContentType string
	WordCount   int
}

// RankSourcesByQuality scores every source's metadata and returns the
// top sources by descending quality. A nil scorer gets the default.
func RankSourcesByQuality(sources []Source, scorer *QualityScorer) []RankedSource {
	if scorer == nil {
		scorer = NewQualityScorer()
	}

	ranked := make([]RankedSource, 0, len(sources))
	for _, s := range sources {
		name := s.Title
		if name == "" {
			name = "Unknown"
		}
		contentType := s.Metadata.KnowledgeType
		if contentType == "" {
			contentType = "unknown"
		}
		ranked = append(ranked, RankedSource{
			Name:        name,
			Quality:     scorer.Score(s.Metadata),
			ContentType: contentType,
			WordCount:   s.TotalWords,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Quality > ranked[j].Quality
	})

	if len(ranked) > maxRankedSources {
		ranked = ranked[:maxRankedSources]
	}
	return ranked
}

// FormatQualityRanking renders ranked sources for terminal display.
func FormatQualityRanking(ranked []RankedSource) string {
	lines := make([]string, 0, len(ranked))
	for _, r := range ranked {
		lines = append(lines, fmt.Sprintf("- **%s** (Quality: %.2f, Type: %s, Words: %s)",
			r.Name, r.Quality, r.ContentType, humanize.Comma(int64(r.WordCount))))
	}
	return "Top Quality Sources:\n" + strings.Join(lines, "\n")
}

// shortDate trims a timestamp to its date prefix.
func shortDate(ts string) string {
	if len(ts) > 10 {
		return ts[:10]
	}
	return ts
}
