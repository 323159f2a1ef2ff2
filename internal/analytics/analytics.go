// Package analytics records local search-run analytics for query
// optimization. All data is stored on the local machine - no external
// reporting.
package analytics

import (
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ragsift/ragsift/internal/enhance"
)

// =============================================================================
// Latency Buckets
// =============================================================================

// LatencyBucket is a histogram bucket for end-to-end run latency.
// Boundaries are sized for pipelines that include a network retrieval
// round trip, not in-process search.
type LatencyBucket string

const (
	BucketP100  LatencyBucket = "p100"  // <100ms
	BucketP500  LatencyBucket = "p500"  // 100-500ms
	BucketP1000 LatencyBucket = "p1000" // 500ms-1s
	BucketP5000 LatencyBucket = "p5000" // 1-5s
	BucketSlow  LatencyBucket = "slow"  // >=5s
)

// BucketFor converts a run duration to its histogram bucket.
func BucketFor(d time.Duration) LatencyBucket {
	ms := d.Milliseconds()
	switch {
	case ms < 100:
		return BucketP100
	case ms < 500:
		return BucketP500
	case ms < 1000:
		return BucketP1000
	case ms < 5000:
		return BucketP5000
	default:
		return BucketSlow
	}
}

// =============================================================================
// Events
// =============================================================================

// Event is one completed search run.
type Event struct {
	Query       string
	Kind        enhance.QueryKind
	Outcome     enhance.Outcome
	ResultCount int
	Latency     time.Duration
	Timestamp   time.Time
}

// IsZeroResult reports whether the run produced no results.
func (e Event) IsZeroResult() bool {
	return e.ResultCount == 0
}

// =============================================================================
// Term Extraction
// =============================================================================

// termStopwords are filler words excluded from top-term tracking. Intent
// markers like "how" and "what" are already captured by the kind counts.
var termStopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {},
	"how": {}, "what": {}, "does": {}, "this": {}, "that": {},
}

// ExtractTerms returns the trackable terms of a query: lowercased,
// punctuation-trimmed, at least 3 characters, stopwords removed.
func ExtractTerms(query string) []string {
	var terms []string
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, `"'.,;:!?()[]`)
		if len(word) < 3 {
			continue
		}
		if _, skip := termStopwords[word]; skip {
			continue
		}
		terms = append(terms, word)
	}
	return terms
}

// TermCount is a term with its occurrence count.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// =============================================================================
// Snapshot
// =============================================================================

// Snapshot is an immutable view of collected analytics.
type Snapshot struct {
	KindCounts    map[enhance.QueryKind]int64 `json:"kind_counts"`
	OutcomeCounts map[enhance.Outcome]int64   `json:"outcome_counts"`
	TopTerms      []TermCount                 `json:"top_terms"`
	ZeroResult    []string                    `json:"zero_result_queries"`
	Latency       map[LatencyBucket]int64     `json:"latency_distribution"`
	TotalRuns     int64                       `json:"total_runs"`
	ZeroRuns      int64                       `json:"zero_result_runs"`
	Since         time.Time                   `json:"since"`
}

// ZeroResultRate returns the percentage of runs that found nothing.
func (s *Snapshot) ZeroResultRate() float64 {
	if s.TotalRuns == 0 {
		return 0
	}
	return float64(s.ZeroRuns) / float64(s.TotalRuns) * 100
}

// =============================================================================
// Collector
// =============================================================================

// Config sizes the collector's in-memory aggregates.
type Config struct {
	TopTermsCapacity   int           // max distinct terms tracked (default 100)
	ZeroResultCapacity int           // max zero-result queries kept (default 100)
	FlushInterval      time.Duration // auto-flush period (default 60s, 0 disables)
}

// DefaultConfig returns the default collector sizing.
func DefaultConfig() Config {
	return Config{
		TopTermsCapacity:   100,
		ZeroResultCapacity: 100,
		FlushInterval:      60 * time.Second,
	}
}

// Collector aggregates run events in memory and, when a store is
// attached, flushes deltas to it. Safe for concurrent use.
type Collector struct {
	mu sync.Mutex

	kinds    map[enhance.QueryKind]int64
	outcomes map[enhance.Outcome]int64
	terms    *lru.Cache[string, int64]
	zero     *Ring[string]
	latency  map[LatencyBucket]int64
	total    int64
	zeroRuns int64
	since    time.Time

	store  Store
	cfg    Config
	ticker *time.Ticker
	stop   chan struct{}
	closed bool
}

// NewCollector creates a collector with default sizing. A nil store
// keeps everything in memory.
func NewCollector(store Store) *Collector {
	return NewCollectorWithConfig(store, DefaultConfig())
}

// NewCollectorWithConfig creates a collector with custom sizing.
func NewCollectorWithConfig(store Store, cfg Config) *Collector {
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = 100
	}
	if cfg.ZeroResultCapacity <= 0 {
		cfg.ZeroResultCapacity = 100
	}

	terms, _ := lru.New[string, int64](cfg.TopTermsCapacity)

	c := &Collector{
		kinds:    make(map[enhance.QueryKind]int64),
		outcomes: make(map[enhance.Outcome]int64),
		terms:    terms,
		zero:     NewRing[string](cfg.ZeroResultCapacity),
		latency:  make(map[LatencyBucket]int64),
		since:    time.Now(),
		store:    store,
		cfg:      cfg,
		stop:     make(chan struct{}),
	}

	if cfg.FlushInterval > 0 && store != nil {
		c.ticker = time.NewTicker(cfg.FlushInterval)
		go c.flushLoop()
	}

	return c
}

func (c *Collector) flushLoop() {
	for {
		select {
		case <-c.ticker.C:
			_ = c.Flush()
		case <-c.stop:
			return
		}
	}
}

// Record captures one run event. Non-blocking; a closed collector
// ignores events.
func (c *Collector) Record(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.kinds[event.Kind]++
	c.outcomes[event.Outcome]++
	c.total++

	for _, term := range ExtractTerms(event.Query) {
		count, _ := c.terms.Get(term)
		c.terms.Add(term, count+1)
	}

	if event.IsZeroResult() {
		c.zero.Add(event.Query)
		c.zeroRuns++
	}

	c.latency[BucketFor(event.Latency)]++
}

// Snapshot returns the aggregates accumulated since the collector
// started or since the last successful flush.
func (c *Collector) Snapshot() *Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Collector) snapshotLocked() *Snapshot {
	kinds := make(map[enhance.QueryKind]int64, len(c.kinds))
	for k, v := range c.kinds {
		kinds[k] = v
	}
	outcomes := make(map[enhance.Outcome]int64, len(c.outcomes))
	for k, v := range c.outcomes {
		outcomes[k] = v
	}
	latency := make(map[LatencyBucket]int64, len(c.latency))
	for k, v := range c.latency {
		latency[k] = v
	}

	var top []TermCount
	for _, term := range c.terms.Keys() {
		if count, ok := c.terms.Peek(term); ok {
			top = append(top, TermCount{Term: term, Count: count})
		}
	}
	sortTermCounts(top)

	return &Snapshot{
		KindCounts:    kinds,
		OutcomeCounts: outcomes,
		TopTerms:      top,
		ZeroResult:    c.zero.Items(),
		Latency:       latency,
		TotalRuns:     c.total,
		ZeroRuns:      c.zeroRuns,
		Since:         c.since,
	}
}

// sortTermCounts orders by count descending, then term ascending so
// equal counts render deterministically.
func sortTermCounts(terms []TermCount) {
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Term < terms[j].Term
	})
}

// Flush persists the aggregates accumulated since the last flush and
// resets them, so the store only ever receives increments. On a write
// failure the drained delta is merged back for the next attempt. Safe
// to call without a store.
func (c *Collector) Flush() error {
	if c.store == nil {
		return nil
	}

	delta := c.drain()
	if delta == nil {
		return nil
	}

	if err := c.writeDelta(delta); err != nil {
		c.restore(delta)
		return err
	}
	return nil
}

// delta holds aggregates drained for one flush.
type delta struct {
	kinds    map[enhance.QueryKind]int64
	outcomes map[enhance.Outcome]int64
	terms    map[string]int64
	zero     []string
	latency  map[LatencyBucket]int64
	runs     int64
	zeroRuns int64
}

func (c *Collector) drain() *delta {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.total == 0 {
		return nil
	}

	d := &delta{
		kinds:    c.kinds,
		outcomes: c.outcomes,
		terms:    make(map[string]int64),
		zero:     c.zero.Items(),
		latency:  c.latency,
		runs:     c.total,
		zeroRuns: c.zeroRuns,
	}
	for _, term := range c.terms.Keys() {
		if count, ok := c.terms.Peek(term); ok && count > 0 {
			d.terms[term] = count
		}
	}

	c.kinds = make(map[enhance.QueryKind]int64)
	c.outcomes = make(map[enhance.Outcome]int64)
	c.latency = make(map[LatencyBucket]int64)
	c.terms.Purge()
	c.zero.Clear()
	c.total = 0
	c.zeroRuns = 0
	c.since = time.Now()

	return d
}

func (c *Collector) restore(d *delta) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range d.kinds {
		c.kinds[k] += v
	}
	for k, v := range d.outcomes {
		c.outcomes[k] += v
	}
	for k, v := range d.latency {
		c.latency[k] += v
	}
	for term, v := range d.terms {
		count, _ := c.terms.Get(term)
		c.terms.Add(term, count+v)
	}
	for _, q := range d.zero {
		c.zero.Add(q)
	}
	c.total += d.runs
	c.zeroRuns += d.zeroRuns
}

func (c *Collector) writeDelta(d *delta) error {
	day := time.Now().Format("2006-01-02")

	if err := c.store.SaveKindCounts(day, d.kinds); err != nil {
		return err
	}
	if err := c.store.SaveOutcomeCounts(day, d.outcomes); err != nil {
		return err
	}
	if err := c.store.UpsertTermCounts(d.terms); err != nil {
		return err
	}
	if err := c.store.SaveLatencyCounts(day, d.latency); err != nil {
		return err
	}
	for _, q := range d.zero {
		if err := c.store.AddZeroResult(q, time.Now()); err != nil {
			return err
		}
	}
	return nil
}

// Close flushes pending deltas and stops the auto-flush loop. The
// attached store is not closed; the caller owns it.
func (c *Collector) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	if c.ticker != nil {
		c.ticker.Stop()
		close(c.stop)
	}

	return c.Flush()
}
