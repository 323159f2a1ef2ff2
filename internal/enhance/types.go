// Package enhance implements the search result enhancement pipeline:
// query expansion, multi-factor relevance scoring, source quality scoring,
// content type classification, and cluster-based deduplication of
// retrieved hits, rendered into a ranked summary.
package enhance

import (
	"context"
	"time"
)

// ContentType labels what kind of content a hit carries.
type ContentType string

const (
	ContentTypeCode            ContentType = "code"
	ContentTypeTutorial        ContentType = "tutorial"
	ContentTypeAPIDoc          ContentType = "api_documentation"
	ContentTypeTroubleshooting ContentType = "troubleshooting"
	ContentTypeConfiguration   ContentType = "configuration"
	ContentTypeDocumentation   ContentType = "documentation"
	ContentTypeUnknown         ContentType = "unknown"
)

// String returns the label as a plain string.
func (c ContentType) String() string {
	return string(c)
}

// Metadata is the normalized per-hit metadata. Retrieval adapters resolve
// the backend's loose key conventions (similarity vs similarity_score,
// url vs original_url) into this struct, so scoring code never branches
// on key presence.
type Metadata struct {
	// Title is the document or source title.
	Title string

	// Description is an optional free-text description.
	Description string

	// CreatedAt is the creation timestamp as the backend reported it,
	// typically RFC 3339. Kept as a string: scoring only inspects it
	// for a year substring.
	CreatedAt string

	// KnowledgeType tags the content domain: "technical", "business",
	// or empty when untagged.
	KnowledgeType string

	// TotalWords is the word count of the whole source document.
	TotalWords int

	// OriginalURL is the canonical URL used for quality scoring.
	OriginalURL string

	// AutoGenerated marks machine-produced content.
	AutoGenerated bool
}

// Hit is one raw retrieval result before scoring.
type Hit struct {
	// Content is the retrieved text chunk.
	Content string

	// Source identifies the originating source ("Unknown" when absent).
	Source string

	// URL is the display URL for the hit.
	URL string

	// Similarity is the backend's similarity score, normalized to [0, 1].
	Similarity float64

	// Metadata carries the normalized source metadata.
	Metadata Metadata
}

// Result is a hit after scoring and classification.
type Result struct {
	Hit

	// QueryVariant is the expanded query variant that produced this hit.
	QueryVariant string

	// Relevance is the composite relevance score, clamped to [0, 1].
	Relevance float64

	// Quality is the source quality score, clamped to [0, 1].
	Quality float64

	// ContentType is the classified content label.
	ContentType ContentType

	// ClusterKey is assigned during deduplication; empty before it runs.
	ClusterKey string
}

// Outcome describes how a pipeline run terminated.
type Outcome string

const (
	// OutcomeResults means the run produced at least one formatted result.
	OutcomeResults Outcome = "results"

	// OutcomeNoResults means no variant returned any hit.
	OutcomeNoResults Outcome = "no_results"

	// OutcomeBelowThreshold means hits existed but all scored below the
	// relevance threshold.
	OutcomeBelowThreshold Outcome = "below_threshold"
)

// Stage identifies one step of the enhancement pipeline.
type Stage string

const (
	StageExpand   Stage = "expand"
	StageRetrieve Stage = "retrieve"
	StageScore    Stage = "score"
	StageFilter   Stage = "filter"
	StageCluster  Stage = "cluster"
	StageTruncate Stage = "truncate"
	StageFormat   Stage = "format"
)

// StageTiming records the wall time one pipeline stage took.
type StageTiming struct {
	Stage    Stage
	Duration time.Duration
}

// VariantStat summarizes retrieval for one query variant.
type VariantStat struct {
	// Variant is the searched query variant.
	Variant string

	// Hits is the raw hit count the variant contributed to the merge.
	Hits int

	// Failed marks a variant whose retrieval call errored and was skipped.
	Failed bool

	// Duration is the wall time of the variant's retrieval call.
	Duration time.Duration
}

// Output is the structured result of one pipeline run. Structured callers
// consume Results directly; text callers use Formatted.
type Output struct {
	// Query is the original user query.
	Query string

	// Variants are the expanded query variants that were searched,
	// original first.
	Variants []string

	// Results is the final ranked, deduplicated result set.
	Results []Result

	// Outcome reports the terminal pipeline state.
	Outcome Outcome

	// Formatted is the rendered text block for the outcome.
	Formatted string

	// Retrieved is the raw hit count before filtering and deduplication.
	Retrieved int

	// Stages holds per-stage timings in execution order. Stages that did
	// not run (expansion or clustering disabled) are absent.
	Stages []StageTiming

	// VariantStats reports hit counts and failures per searched variant,
	// in Variants order.
	VariantStats []VariantStat

	// Duration is the end-to-end pipeline time.
	Duration time.Duration
}

// AverageRelevance returns the mean relevance over the final results,
// or 0 when there are none.
func (o *Output) AverageRelevance() float64 {
	if len(o.Results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range o.Results {
		sum += r.Relevance
	}
	return sum / float64(len(o.Results))
}

// UniqueSources returns the number of distinct sources in the final results.
func (o *Output) UniqueSources() int {
	seen := make(map[string]struct{}, len(o.Results))
	for _, r := range o.Results {
		seen[r.Source] = struct{}{}
	}
	return len(seen)
}

// RetrieveOptions configures a single retrieval call.
type RetrieveOptions struct {
	// Source restricts retrieval to one source domain (empty = all).
	Source string

	// MatchCount is the number of hits requested from the backend.
	MatchCount int
}

// Retriever fetches raw hits for one query variant. Implementations live
// at the retrieval boundary and normalize backend payloads into Hits.
type Retriever interface {
	Retrieve(ctx context.Context, query string, opts RetrieveOptions) ([]Hit, error)
}

// Source describes one searchable source as reported by the backend.
// Absent fields stay empty; formatters substitute display defaults.
type Source struct {
	// ID is the backend source identifier.
	ID string

	// Title is the source title.
	Title string

	// Description is an optional free-text description.
	Description string

	// CreatedAt is the creation timestamp string.
	CreatedAt string

	// TotalWords is the word count of the source.
	TotalWords int

	// Metadata carries the source metadata used for quality ranking.
	Metadata Metadata
}

// SourceLister reports the sources available for searching.
type SourceLister interface {
	ListSources(ctx context.Context) ([]Source, error)
}

// CodeExample is one retrieved code snippet.
type CodeExample struct {
	// Summary is a one-line description, empty when the backend
	// reported none.
	Summary string

	// Code is the snippet text, possibly fenced.
	Code string

	// URL points at the snippet's origin.
	URL string

	// Similarity is the backend's similarity score for the snippet.
	Similarity float64
}

// CodeSearcher retrieves code examples for a query.
type CodeSearcher interface {
	SearchCode(ctx context.Context, query string, opts RetrieveOptions) ([]CodeExample, error)
}
