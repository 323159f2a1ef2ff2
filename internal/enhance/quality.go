package enhance

import (
	"strings"
)

// QualityScorer computes a 0-1 quality score for a source from URL
// domain heuristics, knowledge type, word count, and an auto-generated
// penalty. It only reads metadata, never content, so the same score
// applies to every hit from a source.
type QualityScorer struct{}

// NewQualityScorer creates a quality scorer.
func NewQualityScorer() *QualityScorer {
	return &QualityScorer{}
}

const (
	qualityBase = 0.5

	officialDocsBoost    = 0.3
	establishedSiteBoost = 0.2
	technicalSourceBoost = 0.1
	businessSourceBoost  = 0.05
	comprehensiveBoost   = 0.1
	unfocusedPenalty     = 0.05
	autoGeneratedPenalty = 0.1

	comprehensiveMinWords = 1000
	comprehensiveMaxWords = 50000
	unfocusedWordLimit    = 100000
)

// officialDocMarkers identify documentation-style URLs.
var officialDocMarkers = []string{"docs.", "documentation", "api.", "github.com"}

// establishedDomains are well-known high-trust domains.
var establishedDomains = []string{"google.com", "microsoft.com", "python.org", "mozilla.org"}

// Score returns the quality score for a source's metadata, clamped to
// [0, 1]. Missing fields contribute nothing, so an empty Metadata scores
// the 0.5 base.
func (s *QualityScorer) Score(md Metadata) float64 {
	score := qualityBase

	url := strings.ToLower(md.OriginalURL)
	if containsAny(url, officialDocMarkers) {
		score += officialDocsBoost
	}
	if containsAny(url, establishedDomains) {
		score += establishedSiteBoost
	}

	switch md.KnowledgeType {
	case "technical":
		score += technicalSourceBoost
	case "business":
		score += businessSourceBoost
	}

	if md.TotalWords >= comprehensiveMinWords && md.TotalWords <= comprehensiveMaxWords {
		score += comprehensiveBoost
	} else if md.TotalWords > unfocusedWordLimit {
		score -= unfocusedPenalty
	}

	if md.AutoGenerated {
		score -= autoGeneratedPenalty
	}

	return clamp01(score)
}
