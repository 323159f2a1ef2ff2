package enhance

import (
	"strings"
)

// RelevanceScorer computes a composite relevance score for one hit.
// The backend similarity is the base; exact-term overlap, knowledge
// type, recency, and content length adjust it.
type RelevanceScorer struct{}

// NewRelevanceScorer creates a relevance scorer.
func NewRelevanceScorer() *RelevanceScorer {
	return &RelevanceScorer{}
}

// Scoring weights for the composite relevance formula.
const (
	exactMatchWeight    = 0.2
	technicalBoost      = 0.1
	recencyBoost        = 0.05
	shortContentPenalty = 0.1
	longContentBoost    = 0.05

	shortContentLimit = 100
	longContentLimit  = 1000

	// recentYear marks content as recent when its creation timestamp
	// contains this substring.
	recentYear = "2025"
)

// Score returns the relevance for content against the original query,
// clamped to [0, 1]. A query with no splittable terms cannot be scored
// for overlap and fails soft to the raw similarity.
func (s *RelevanceScorer) Score(content, query string, similarity float64, md Metadata) float64 {
	queryTerms := strings.Fields(strings.ToLower(query))
	if len(queryTerms) == 0 {
		return similarity
	}

	score := similarity

	contentLower := strings.ToLower(content)
	exactMatches := 0
	for _, term := range queryTerms {
		if strings.Contains(contentLower, term) {
			exactMatches++
		}
	}
	score += float64(exactMatches) / float64(len(queryTerms)) * exactMatchWeight

	if md.KnowledgeType == "technical" {
		score += technicalBoost
	}

	if md.CreatedAt != "" && strings.Contains(md.CreatedAt, recentYear) {
		score += recencyBoost
	}

	if len(content) < shortContentLimit {
		score -= shortContentPenalty
	}
	if len(content) > longContentLimit {
		score += longContentBoost
	}

	return clamp01(score)
}

// clamp01 clamps v to the [0, 1] range.
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
