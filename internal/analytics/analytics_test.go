package analytics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragsift/ragsift/internal/enhance"
)

// =============================================================================
// Ring Tests
// =============================================================================

func TestRing_AddAndItems(t *testing.T) {
	r := NewRing[string](10)

	r.Add("first")
	r.Add("second")
	r.Add("third")

	assert.Equal(t, []string{"first", "second", "third"}, r.Items())
	assert.Equal(t, 3, r.Size())
}

func TestRing_EvictsOldestWhenFull(t *testing.T) {
	r := NewRing[string](3)

	r.Add("a")
	r.Add("b")
	r.Add("c")
	r.Add("d")
	r.Add("e")

	assert.Equal(t, []string{"c", "d", "e"}, r.Items())
	assert.Equal(t, 3, r.Size())
}

func TestRing_EmptyItemsNotNil(t *testing.T) {
	r := NewRing[string](5)

	items := r.Items()
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestRing_Clear(t *testing.T) {
	r := NewRing[int](5)
	r.Add(1)
	r.Add(2)

	r.Clear()

	assert.Equal(t, 0, r.Size())
	assert.Empty(t, r.Items())
}

func TestRing_ZeroCapacityDefaults(t *testing.T) {
	r := NewRing[int](0)
	for i := 0; i < 150; i++ {
		r.Add(i)
	}
	assert.Equal(t, 100, r.Size())
}

// =============================================================================
// Latency Bucket Tests
// =============================================================================

func TestBucketFor(t *testing.T) {
	tests := []struct {
		latency time.Duration
		want    LatencyBucket
	}{
		{10 * time.Millisecond, BucketP100},
		{99 * time.Millisecond, BucketP100},
		{100 * time.Millisecond, BucketP500},
		{499 * time.Millisecond, BucketP500},
		{500 * time.Millisecond, BucketP1000},
		{999 * time.Millisecond, BucketP1000},
		{time.Second, BucketP5000},
		{4999 * time.Millisecond, BucketP5000},
		{5 * time.Second, BucketSlow},
		{time.Minute, BucketSlow},
	}

	for _, tt := range tests {
		t.Run(tt.latency.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, BucketFor(tt.latency))
		})
	}
}

// =============================================================================
// Term Extraction Tests
// =============================================================================

func TestExtractTerms(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "lowercases and keeps content words",
			query: "Goroutine Deadlock Detection",
			want:  []string{"goroutine", "deadlock", "detection"},
		},
		{
			name:  "drops short words and stopwords",
			query: "how to handle errors in Go",
			want:  []string{"handle", "errors"},
		},
		{
			name:  "trims punctuation",
			query: `"context" cancellation?`,
			want:  []string{"context", "cancellation"},
		},
		{
			name:  "empty query",
			query: "   ",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTerms(tt.query))
		})
	}
}

// =============================================================================
// Collector Tests
// =============================================================================

func runEvent(query string, kind enhance.QueryKind, results int, latency time.Duration) Event {
	outcome := enhance.OutcomeResults
	if results == 0 {
		outcome = enhance.OutcomeNoResults
	}
	return Event{
		Query:       query,
		Kind:        kind,
		Outcome:     outcome,
		ResultCount: results,
		Latency:     latency,
		Timestamp:   time.Now(),
	}
}

func TestCollector_RecordAggregates(t *testing.T) {
	c := NewCollector(nil)
	defer c.Close()

	c.Record(runEvent("context cancellation", enhance.QueryKindGeneralSearch, 5, 200*time.Millisecond))
	c.Record(runEvent("how to tune indexing", enhance.QueryKindHowTo, 3, 80*time.Millisecond))
	c.Record(runEvent("how to tune retrieval", enhance.QueryKindHowTo, 0, 700*time.Millisecond))

	snap := c.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRuns)
	assert.Equal(t, int64(2), snap.KindCounts[enhance.QueryKindHowTo])
	assert.Equal(t, int64(1), snap.KindCounts[enhance.QueryKindGeneralSearch])
	assert.Equal(t, int64(2), snap.OutcomeCounts[enhance.OutcomeResults])
	assert.Equal(t, int64(1), snap.OutcomeCounts[enhance.OutcomeNoResults])
	assert.Equal(t, int64(1), snap.Latency[BucketP100])
	assert.Equal(t, int64(1), snap.Latency[BucketP500])
	assert.Equal(t, int64(1), snap.Latency[BucketP1000])
}

func TestCollector_TopTermsSorted(t *testing.T) {
	c := NewCollector(nil)
	defer c.Close()

	c.Record(runEvent("bleve indexing speed", enhance.QueryKindGeneralSearch, 2, time.Millisecond))
	c.Record(runEvent("bleve indexing memory", enhance.QueryKindGeneralSearch, 2, time.Millisecond))
	c.Record(runEvent("bleve mapping", enhance.QueryKindGeneralSearch, 2, time.Millisecond))

	snap := c.Snapshot()
	require.NotEmpty(t, snap.TopTerms)
	assert.Equal(t, TermCount{Term: "bleve", Count: 3}, snap.TopTerms[0])
	assert.Equal(t, TermCount{Term: "indexing", Count: 2}, snap.TopTerms[1])

	// Equal counts order alphabetically.
	var ones []string
	for _, tc := range snap.TopTerms[2:] {
		assert.Equal(t, int64(1), tc.Count)
		ones = append(ones, tc.Term)
	}
	assert.Equal(t, []string{"mapping", "memory", "speed"}, ones)
}

func TestCollector_ZeroResultCapture(t *testing.T) {
	c := NewCollector(nil)
	defer c.Close()

	c.Record(runEvent("found something", enhance.QueryKindGeneralSearch, 4, time.Millisecond))
	c.Record(runEvent("nothing here", enhance.QueryKindGeneralSearch, 0, time.Millisecond))
	c.Record(runEvent("nothing there either", enhance.QueryKindGeneralSearch, 0, time.Millisecond))

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap.ZeroRuns)
	assert.Equal(t, []string{"nothing here", "nothing there either"}, snap.ZeroResult)
	assert.InDelta(t, 66.66, snap.ZeroResultRate(), 0.01)
}

func TestCollector_ZeroResultRate_NoRuns(t *testing.T) {
	c := NewCollector(nil)
	defer c.Close()

	assert.Equal(t, 0.0, c.Snapshot().ZeroResultRate())
}

func TestCollector_ConcurrentRecord(t *testing.T) {
	c := NewCollector(nil)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Record(runEvent("concurrent query", enhance.QueryKindGeneralSearch, 1, time.Millisecond))
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(20), c.Snapshot().TotalRuns)
}

func TestCollector_RecordAfterCloseIgnored(t *testing.T) {
	c := NewCollector(nil)
	require.NoError(t, c.Close())

	c.Record(runEvent("late", enhance.QueryKindGeneralSearch, 1, time.Millisecond))

	assert.Equal(t, int64(0), c.Snapshot().TotalRuns)
}

func TestCollector_CloseIdempotent(t *testing.T) {
	c := NewCollector(nil)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}

// =============================================================================
// Flush Tests
// =============================================================================

// memStore is an in-memory Store for flush tests.
type memStore struct {
	mu       sync.Mutex
	kinds    map[string]int64
	outcomes map[string]int64
	terms    map[string]int64
	zero     []string
	latency  map[string]int64
	fail     bool
	saves    int
}

func newMemStore() *memStore {
	return &memStore{
		kinds:    make(map[string]int64),
		outcomes: make(map[string]int64),
		terms:    make(map[string]int64),
		latency:  make(map[string]int64),
	}
}

func (m *memStore) SaveKindCounts(date string, counts map[enhance.QueryKind]int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("store unavailable")
	}
	m.saves++
	for k, v := range counts {
		m.kinds[string(k)] += v
	}
	return nil
}

func (m *memStore) GetKindCounts(from, to string) (map[enhance.QueryKind]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[enhance.QueryKind]int64)
	for k, v := range m.kinds {
		out[enhance.QueryKind(k)] = v
	}
	return out, nil
}

func (m *memStore) SaveOutcomeCounts(date string, counts map[enhance.Outcome]int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("store unavailable")
	}
	for k, v := range counts {
		m.outcomes[string(k)] += v
	}
	return nil
}

func (m *memStore) GetOutcomeCounts(from, to string) (map[enhance.Outcome]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[enhance.Outcome]int64)
	for k, v := range m.outcomes {
		out[enhance.Outcome(k)] = v
	}
	return out, nil
}

func (m *memStore) UpsertTermCounts(terms map[string]int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("store unavailable")
	}
	for k, v := range terms {
		m.terms[k] += v
	}
	return nil
}

func (m *memStore) GetTopTerms(limit int) ([]TermCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []TermCount
	for k, v := range m.terms {
		out = append(out, TermCount{Term: k, Count: v})
	}
	sortTermCounts(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) AddZeroResult(query string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("store unavailable")
	}
	m.zero = append(m.zero, query)
	return nil
}

func (m *memStore) GetZeroResults(limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.zero))
	copy(out, m.zero)
	return out, nil
}

func (m *memStore) SaveLatencyCounts(date string, counts map[LatencyBucket]int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("store unavailable")
	}
	for k, v := range counts {
		m.latency[string(k)] += v
	}
	return nil
}

func (m *memStore) GetLatencyCounts(from, to string) (map[LatencyBucket]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[LatencyBucket]int64)
	for k, v := range m.latency {
		out[LatencyBucket(k)] = v
	}
	return out, nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) setFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

var _ Store = (*memStore)(nil)

func newFlushCollector(store Store) *Collector {
	// FlushInterval 0 keeps flushing under test control.
	return NewCollectorWithConfig(store, Config{FlushInterval: 0})
}

func TestCollector_FlushWritesIncrements(t *testing.T) {
	store := newMemStore()
	c := newFlushCollector(store)
	defer c.Close()

	c.Record(runEvent("bleve mapping", enhance.QueryKindGeneralSearch, 2, time.Millisecond))
	c.Record(runEvent("missing thing", enhance.QueryKindGeneralSearch, 0, time.Millisecond))

	require.NoError(t, c.Flush())

	assert.Equal(t, int64(2), store.kinds[string(enhance.QueryKindGeneralSearch)])
	assert.Equal(t, int64(1), store.outcomes[string(enhance.OutcomeNoResults)])
	assert.Equal(t, int64(1), store.terms["bleve"])
	assert.Equal(t, []string{"missing thing"}, store.zero)
}

func TestCollector_FlushDrainsWindow(t *testing.T) {
	store := newMemStore()
	c := newFlushCollector(store)
	defer c.Close()

	c.Record(runEvent("first query", enhance.QueryKindGeneralSearch, 1, time.Millisecond))
	require.NoError(t, c.Flush())

	c.Record(runEvent("second query", enhance.QueryKindGeneralSearch, 1, time.Millisecond))
	require.NoError(t, c.Flush())

	// Increments must not double-count across flushes.
	assert.Equal(t, int64(2), store.kinds[string(enhance.QueryKindGeneralSearch)])
	assert.Equal(t, int64(1), store.terms["first"])
	assert.Equal(t, int64(1), store.terms["second"])

	// The in-memory window restarts after a flush.
	assert.Equal(t, int64(0), c.Snapshot().TotalRuns)
}

func TestCollector_FlushNothingPendingSkipsStore(t *testing.T) {
	store := newMemStore()
	c := newFlushCollector(store)
	defer c.Close()

	require.NoError(t, c.Flush())
	assert.Equal(t, 0, store.saves)
}

func TestCollector_FlushFailureKeepsDelta(t *testing.T) {
	store := newMemStore()
	c := newFlushCollector(store)
	defer c.Close()

	c.Record(runEvent("kept query", enhance.QueryKindGeneralSearch, 1, time.Millisecond))

	store.setFail(true)
	require.Error(t, c.Flush())

	// The window survives the failed write.
	assert.Equal(t, int64(1), c.Snapshot().TotalRuns)

	store.setFail(false)
	require.NoError(t, c.Flush())
	assert.Equal(t, int64(1), store.kinds[string(enhance.QueryKindGeneralSearch)])
}

func TestCollector_FlushWithoutStore(t *testing.T) {
	c := NewCollector(nil)
	defer c.Close()

	c.Record(runEvent("memory only", enhance.QueryKindGeneralSearch, 1, time.Millisecond))
	require.NoError(t, c.Flush())

	// Without a store nothing drains.
	assert.Equal(t, int64(1), c.Snapshot().TotalRuns)
}

func TestCollector_CloseFlushes(t *testing.T) {
	store := newMemStore()
	c := newFlushCollector(store)

	c.Record(runEvent("closing time", enhance.QueryKindGeneralSearch, 1, time.Millisecond))
	require.NoError(t, c.Close())

	assert.Equal(t, int64(1), store.kinds[string(enhance.QueryKindGeneralSearch)])
}
