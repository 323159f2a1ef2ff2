package enhance

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Analysis summarizes search quality metrics for one query run.
type Analysis struct {
	// AvgRelevance is the mean relevance across results, or a baseline
	// estimate when no run is available.
	AvgRelevance float64

	// SourceDiversity is the share of distinct sources among results.
	SourceDiversity float64

	// QueryComplexity is the word count normalized to [0, 1].
	QueryComplexity float64

	// QuerySpecificity is the share of words longer than four characters.
	QuerySpecificity float64

	// ResultsCoverage is how much of the requested match count was filled.
	ResultsCoverage float64

	// Recommendations lists ways to improve a weak search.
	Recommendations []string
}

// Baseline estimates used when no measured run is available.
const (
	baselineAvgRelevance    = 0.7
	baselineSourceDiversity = 0.6
)

// Recommendation thresholds.
const (
	lowRelevanceFloor = 0.5
	lowDiversityFloor = 0.3
)

// complexityWordScale divides the word count to land complexity in [0, 1].
const complexityWordScale = 10.0

// Analyzer derives search quality metrics against a target match count.
type Analyzer struct {
	matchCount int
}

// NewAnalyzer creates an analyzer. Match counts below 1 fall back to 5.
func NewAnalyzer(matchCount int) *Analyzer {
	if matchCount < 1 {
		matchCount = 5
	}
	return &Analyzer{matchCount: matchCount}
}

// Analyze derives metrics for a query and an observed result count.
// Relevance and diversity use baseline estimates here; AnalyzeOutput
// replaces them with measured values.
func (a *Analyzer) Analyze(query string, resultsCount int) Analysis {
	words := strings.Fields(query)
	if len(words) == 0 {
		an := Analysis{
			AvgRelevance:    0.5,
			SourceDiversity: 0.5,
			QueryComplexity: 0.5,
		}
		an.Recommendations = recommendations(an, resultsCount)
		return an
	}

	longWords := 0
	for _, w := range words {
		if utf8.RuneCountInString(w) > 4 {
			longWords++
		}
	}

	an := Analysis{
		AvgRelevance:     baselineAvgRelevance,
		SourceDiversity:  baselineSourceDiversity,
		QueryComplexity:  math.Min(1, float64(len(words))/complexityWordScale),
		QuerySpecificity: float64(longWords) / float64(len(words)),
		ResultsCoverage:  math.Min(1, float64(resultsCount)/float64(a.matchCount)),
	}
	an.Recommendations = recommendations(an, resultsCount)
	return an
}

// AnalyzeOutput measures relevance and diversity from an actual run
// instead of using the baseline estimates.
func (a *Analyzer) AnalyzeOutput(out *Output) Analysis {
	an := a.Analyze(out.Query, len(out.Results))
	if len(out.Results) > 0 {
		an.AvgRelevance = out.AverageRelevance()
		an.SourceDiversity = float64(out.UniqueSources()) / float64(len(out.Results))
		an.Recommendations = recommendations(an, len(out.Results))
	}
	return an
}

// recommendations suggests improvements for weak searches.
func recommendations(an Analysis, resultsCount int) []string {
	var recs []string
	if an.AvgRelevance < lowRelevanceFloor {
		recs = append(recs, "Try more specific terms or synonyms")
	}
	if an.SourceDiversity < lowDiversityFloor {
		recs = append(recs, "Consider removing source filters to get broader results")
	}
	if resultsCount == 0 {
		recs = append(recs, "Try query expansion or reduce similarity threshold")
	}
	return recs
}

// Format renders the analysis for terminal display.
func (an Analysis) Format() string {
	lines := []string{
		"- Average Relevance: " + pct(an.AvgRelevance),
		"- Source Diversity: " + pct(an.SourceDiversity),
		"- Query Complexity: " + strconv.FormatFloat(an.QueryComplexity, 'g', -1, 64),
		"\nRecommendations:",
	}
	for _, rec := range an.Recommendations {
		lines = append(lines, "- "+rec)
	}
	return "Search Analysis:\n" + strings.Join(lines, "\n")
}
