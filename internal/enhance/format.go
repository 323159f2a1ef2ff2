package enhance

import (
	"fmt"
	"strings"
)

// Formatter renders pipeline outcomes as human-readable text blocks.
type Formatter struct{}

// NewFormatter creates a formatter.
func NewFormatter() *Formatter {
	return &Formatter{}
}

// maxExcerptLen caps the content excerpt per rendered result.
const maxExcerptLen = 400

// noResultsSuggestions are the generic search improvement tips shown
// when nothing was retrieved.
var noResultsSuggestions = []string{
	"Try using more general search terms",
	"Check for typos in your query",
	"Remove source filters to search all available content",
	"Try synonyms or alternative phrasings",
	"Break complex queries into simpler parts",
}

// FormatResults renders the final ranked result set with a summary
// header: result count, echoed query, expansion count (when more than
// one variant ran), average relevance, unique sources, and a content
// type breakdown in first-seen order.
func (f *Formatter) FormatResults(results []Result, query string, variants []string) string {
	if len(results) == 0 {
		return "No enhanced results found."
	}

	var avgRelevance float64
	for _, r := range results {
		avgRelevance += r.Relevance
	}
	avgRelevance /= float64(len(results))

	uniqueSources := make(map[string]struct{}, len(results))
	typeCounts := make(map[ContentType]int, len(results))
	var typeOrder []ContentType
	for _, r := range results {
		uniqueSources[r.Source] = struct{}{}
		if _, ok := typeCounts[r.ContentType]; !ok {
			typeOrder = append(typeOrder, r.ContentType)
		}
		typeCounts[r.ContentType]++
	}

	typeParts := make([]string, 0, len(typeOrder))
	for _, ct := range typeOrder {
		typeParts = append(typeParts, fmt.Sprintf("%s(%d)", ct, typeCounts[ct]))
	}

	var header strings.Builder
	fmt.Fprintf(&header, "**Enhanced Search Results** (%d results)\n", len(results))
	fmt.Fprintf(&header, "Query: %s\n", query)
	if len(variants) > 1 {
		fmt.Fprintf(&header, "Expanded to %d variations\n", len(variants))
	}
	fmt.Fprintf(&header, "Average Relevance: %s\n", pct(avgRelevance))
	fmt.Fprintf(&header, "Sources: %d unique\n", len(uniqueSources))
	fmt.Fprintf(&header, "Content Types: %s\n\n", strings.Join(typeParts, ", "))

	blocks := make([]string, 0, len(results))
	for i, r := range results {
		content := r.Content
		if len(content) > maxExcerptLen {
			content = content[:maxExcerptLen] + "..."
		}

		block := fmt.Sprintf(
			"**Result %d** [%s]\n"+
				"Relevance: %s | Similarity: %s | Source Quality: %s\n"+
				"Source: %s\n"+
				"URL: %s\n"+
				"Content: %s\n",
			i+1, r.ContentType,
			pct(r.Relevance), pct(r.Similarity), pct(r.Quality),
			r.Source, r.URL, content,
		)
		blocks = append(blocks, block)
	}

	return header.String() + strings.Join(blocks, "\n---\n")
}

// NoResultsMessage renders the terminal no-results response with
// actionable suggestions.
func (f *Formatter) NoResultsMessage(query, sourceFilter string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "No results found for query: '%s'\n\n", query)
	if sourceFilter != "" {
		fmt.Fprintf(&b, "Source filter applied: %s\n\n", sourceFilter)
	}
	b.WriteString("Suggestions to improve your search:\n")
	for i, suggestion := range noResultsSuggestions {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + suggestion)
	}
	return b.String()
}

// ThresholdMessage renders the below-threshold response, naming the
// threshold as a percentage.
func (f *Formatter) ThresholdMessage(threshold float64) string {
	return fmt.Sprintf(
		"No results found above similarity threshold (%s). Try lowering the threshold or using different search terms.",
		pct1(threshold),
	)
}

// pct renders a 0-1 fraction as a percentage with two decimals.
func pct(v float64) string {
	return fmt.Sprintf("%.2f%%", v*100)
}

// pct1 renders a 0-1 fraction as a percentage with one decimal.
func pct1(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}
