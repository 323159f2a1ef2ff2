package enhance

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ragsift/ragsift/internal/errors"
)

// Pipeline runs the full enhancement flow for one query: expand,
// retrieve per variant, score, filter, cluster, truncate, format.
// Each run operates on its own local data; a Pipeline is safe for
// concurrent use as long as its Retriever is.
type Pipeline struct {
	retriever  Retriever
	expander   *QueryExpander
	relevance  *RelevanceScorer
	quality    *QualityScorer
	classifier *ContentClassifier
	clusterer  *Clusterer
	formatter  *Formatter

	matchCount  int
	threshold   float64
	source      string
	expansion   bool
	clustering  bool
	parallelism int
}

// Pipeline limits.
const (
	maxQueryLen   = 1000
	maxMatchCount = 50

	// overfetchFactor doubles the per-variant match count to compensate
	// for threshold filtering and deduplication downstream.
	overfetchFactor = 2
)

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithMatchCount sets the number of results returned to the caller.
func WithMatchCount(n int) PipelineOption {
	return func(p *Pipeline) {
		p.matchCount = n
	}
}

// WithThreshold sets the minimum relevance a result must reach to
// survive filtering.
func WithThreshold(t float64) PipelineOption {
	return func(p *Pipeline) {
		p.threshold = t
	}
}

// WithSource restricts retrieval to one source domain.
func WithSource(source string) PipelineOption {
	return func(p *Pipeline) {
		p.source = source
	}
}

// WithExpansion enables or disables query expansion.
func WithExpansion(enabled bool) PipelineOption {
	return func(p *Pipeline) {
		p.expansion = enabled
	}
}

// WithClustering enables or disables cluster-based deduplication.
func WithClustering(enabled bool) PipelineOption {
	return func(p *Pipeline) {
		p.clustering = enabled
	}
}

// WithParallelism bounds concurrent per-variant retrieval calls.
func WithParallelism(n int) PipelineOption {
	return func(p *Pipeline) {
		if n > 0 {
			p.parallelism = n
		}
	}
}

// WithExpander replaces the default query expander.
func WithExpander(e *QueryExpander) PipelineOption {
	return func(p *Pipeline) {
		if e != nil {
			p.expander = e
		}
	}
}

// NewPipeline creates a pipeline around the given retriever.
// The defaults mirror a plain search: 5 results, 0.3 relevance floor,
// expansion and clustering on, 4-way parallel retrieval.
func NewPipeline(retriever Retriever, opts ...PipelineOption) (*Pipeline, error) {
	if retriever == nil {
		return nil, errors.InternalError("pipeline requires a retriever", nil)
	}

	p := &Pipeline{
		retriever:   retriever,
		expander:    NewQueryExpander(),
		relevance:   NewRelevanceScorer(),
		quality:     NewQualityScorer(),
		classifier:  NewContentClassifier(),
		clusterer:   NewClusterer(),
		formatter:   NewFormatter(),
		matchCount:  5,
		threshold:   0.3,
		expansion:   true,
		clustering:  true,
		parallelism: 4,
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.matchCount < 1 || p.matchCount > maxMatchCount {
		return nil, errors.New(errors.ErrCodeInvalidCount,
			"match count must be between 1 and 50", nil).
			WithDetail("match_count", strconv.Itoa(p.matchCount))
	}
	if p.threshold < 0 || p.threshold > 1 {
		return nil, errors.New(errors.ErrCodeInvalidThreshold,
			"similarity threshold must be between 0 and 1", nil).
			WithDetail("threshold", strconv.FormatFloat(p.threshold, 'g', -1, 64))
	}

	return p, nil
}

// Enhance runs the pipeline for one query and returns the structured
// output. Retrieval failures for individual variants are logged and
// skipped; only validation and configuration problems surface as errors.
func (p *Pipeline) Enhance(ctx context.Context, query string) (*Output, error) {
	start := time.Now()

	if strings.TrimSpace(query) == "" {
		return nil, errors.ValidationError("search query must not be empty", nil)
	}
	if len(query) > maxQueryLen {
		return nil, errors.New(errors.ErrCodeQueryTooLong,
			"search query exceeds maximum length", nil).
			WithDetail("length", strconv.Itoa(len(query))).
			WithDetail("max_length", strconv.Itoa(maxQueryLen))
	}

	clock := &stageClock{last: start}

	variants := []string{query}
	if p.expansion {
		variants = p.expander.Expand(query)
		clock.mark(StageExpand)
	}
	slog.Debug("query_expanded",
		slog.String("query", query),
		slog.Int("variants", len(variants)))

	merged, stats, variantErr, err := p.retrieveVariants(ctx, variants)
	if err != nil {
		return nil, err
	}
	clock.mark(StageRetrieve)
	if len(merged) == 0 {
		if variantErr != nil && errors.IsUserCorrectable(variantErr) {
			return nil, variantErr
		}
		out := &Output{
			Query:        query,
			Variants:     variants,
			Outcome:      OutcomeNoResults,
			Formatted:    p.formatter.NoResultsMessage(query, p.source),
			Stages:       clock.timings,
			VariantStats: stats,
			Duration:     time.Since(start),
		}
		slog.Info("pipeline_complete",
			slog.String("query", query),
			slog.String("outcome", string(out.Outcome)),
			slog.Duration("duration", out.Duration))
		return out, nil
	}

	results := p.scoreResults(merged, query)

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	clock.mark(StageScore)

	filtered := results[:0:0]
	for _, r := range results {
		if r.Relevance >= p.threshold {
			filtered = append(filtered, r)
		}
	}
	clock.mark(StageFilter)
	if len(filtered) == 0 {
		out := &Output{
			Query:        query,
			Variants:     variants,
			Outcome:      OutcomeBelowThreshold,
			Formatted:    p.formatter.ThresholdMessage(p.threshold),
			Retrieved:    len(merged),
			Stages:       clock.timings,
			VariantStats: stats,
			Duration:     time.Since(start),
		}
		slog.Info("pipeline_complete",
			slog.String("query", query),
			slog.String("outcome", string(out.Outcome)),
			slog.Int("retrieved", out.Retrieved),
			slog.Duration("duration", out.Duration))
		return out, nil
	}

	if p.clustering {
		before := len(filtered)
		filtered = p.clusterer.Deduplicate(filtered)
		if len(filtered) < before {
			slog.Debug("results_deduplicated",
				slog.Int("before", before),
				slog.Int("after", len(filtered)))
		}
		clock.mark(StageCluster)
	}

	if len(filtered) > p.matchCount {
		filtered = filtered[:p.matchCount]
	}
	clock.mark(StageTruncate)

	formatted := p.formatter.FormatResults(filtered, query, variants)
	clock.mark(StageFormat)

	out := &Output{
		Query:        query,
		Variants:     variants,
		Results:      filtered,
		Outcome:      OutcomeResults,
		Formatted:    formatted,
		Retrieved:    len(merged),
		Stages:       clock.timings,
		VariantStats: stats,
		Duration:     time.Since(start),
	}

	slog.Info("pipeline_complete",
		slog.String("query", query),
		slog.String("outcome", string(out.Outcome)),
		slog.Int("retrieved", out.Retrieved),
		slog.Int("results", len(out.Results)),
		slog.Duration("duration", out.Duration))

	return out, nil
}

// retrieveVariants issues one retrieval call per variant in parallel,
// tagging each hit with the variant that produced it and recording a
// VariantStat per variant. A failed variant is logged and skipped; the
// first such failure comes back as variantErr so the caller can tell a
// configuration problem from a plain empty result. A non-nil err means
// the whole run was cancelled.
func (p *Pipeline) retrieveVariants(ctx context.Context, variants []string) (merged []Result, stats []VariantStat, variantErr, err error) {
	perVariant := make([][]Result, len(variants))
	stats = make([]VariantStat, len(variants))

	g, gctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, p.parallelism)

	var mu sync.Mutex
	var firstErr error

	for i, variant := range variants {
		i, variant := i, variant

		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-gctx.Done():
				return gctx.Err()
			}

			began := time.Now()
			hits, err := p.retriever.Retrieve(gctx, variant, RetrieveOptions{
				Source:     p.source,
				MatchCount: p.matchCount * overfetchFactor,
			})
			elapsed := time.Since(began)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				slog.Warn("variant_search_failed",
					slog.String("variant", variant),
					slog.Any("error", errors.FormatForLog(err)))
				stats[i] = VariantStat{Variant: variant, Failed: true, Duration: elapsed}
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return nil // skip the variant, keep the run alive
			}

			tagged := make([]Result, len(hits))
			for j, h := range hits {
				tagged[j] = Result{Hit: h, QueryVariant: variant}
			}
			perVariant[i] = tagged
			stats[i] = VariantStat{Variant: variant, Hits: len(hits), Duration: elapsed}
			return nil
		})
	}

	if werr := g.Wait(); werr != nil {
		// Context cancelled or deadline hit.
		return nil, nil, nil, errors.Wrap(errors.ErrCodeRetrievalTimeout, werr)
	}

	for _, batch := range perVariant {
		merged = append(merged, batch...)
	}

	slog.Debug("retrieval_complete",
		slog.Int("variants", len(variants)),
		slog.Int("hits", len(merged)))

	return merged, stats, firstErr, nil
}

// stageClock accumulates stage timings as the pipeline advances. Each
// mark records the time elapsed since the previous one.
type stageClock struct {
	timings []StageTiming
	last    time.Time
}

func (c *stageClock) mark(stage Stage) {
	now := time.Now()
	c.timings = append(c.timings, StageTiming{Stage: stage, Duration: now.Sub(c.last)})
	c.last = now
}

// scoreResults fills in relevance, quality, and content type for each
// merged hit against the original query.
func (p *Pipeline) scoreResults(results []Result, query string) []Result {
	for i := range results {
		r := &results[i]
		r.Relevance = p.relevance.Score(r.Content, query, r.Similarity, r.Metadata)
		r.Quality = p.quality.Score(r.Metadata)
		r.ContentType = p.classifier.Classify(r.Content)
	}
	return results
}
