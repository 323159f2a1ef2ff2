package analytics

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // pure-Go driver, no CGO

	"github.com/ragsift/ragsift/internal/enhance"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store persists analytics aggregates. All Save/Upsert calls receive
// increments, never absolute totals.
type Store interface {
	SaveKindCounts(date string, counts map[enhance.QueryKind]int64) error
	GetKindCounts(from, to string) (map[enhance.QueryKind]int64, error)

	SaveOutcomeCounts(date string, counts map[enhance.Outcome]int64) error
	GetOutcomeCounts(from, to string) (map[enhance.Outcome]int64, error)

	UpsertTermCounts(terms map[string]int64) error
	GetTopTerms(limit int) ([]TermCount, error)

	AddZeroResult(query string, at time.Time) error
	GetZeroResults(limit int) ([]string, error)

	SaveLatencyCounts(date string, counts map[LatencyBucket]int64) error
	GetLatencyCounts(from, to string) (map[LatencyBucket]int64, error)

	Close() error
}

// =============================================================================
// SQLite Store
// =============================================================================

// zeroResultKeep caps the persisted zero-result query history.
const zeroResultKeep = 100

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db    *sql.DB
	ownDB bool
}

// NewSQLiteStore wraps an existing database connection. The schema must
// already exist and the connection stays owned by the caller.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &SQLiteStore{db: db}, nil
}

// Open opens (creating if needed) the analytics database at path. A
// file lock in the database directory serializes schema creation across
// concurrent processes; runtime access relies on WAL and busy_timeout.
func Open(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create analytics directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, ".analytics.lock"))
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("acquire analytics lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open analytics database: %w", err)
	}

	// Single writer keeps SQLite lock contention away entirely.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// modernc.org/sqlite ignores some DSN parameters, so pragmas go
	// through statements.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if err := InitSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, ownDB: true}, nil
}

// InitSchema creates the analytics tables if they don't exist.
func InitSchema(db *sql.DB) error {
	schema := `
	-- Query kind frequency, aggregated daily
	CREATE TABLE IF NOT EXISTS run_kind_stats (
		date TEXT NOT NULL,
		kind TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, kind)
	);

	-- Run outcome frequency, aggregated daily
	CREATE TABLE IF NOT EXISTS run_outcome_stats (
		date TEXT NOT NULL,
		outcome TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, outcome)
	);

	-- Query term frequency
	CREATE TABLE IF NOT EXISTS query_terms (
		term TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 1,
		last_seen TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_query_terms_count ON query_terms(count DESC);

	-- Recent zero-result queries, trimmed to the newest 100
	CREATE TABLE IF NOT EXISTS zero_result_queries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Run latency histogram, aggregated daily
	CREATE TABLE IF NOT EXISTS run_latency_stats (
		date TEXT NOT NULL,
		bucket TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (date, bucket)
	);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create analytics schema: %w", err)
	}
	return nil
}

// upsertDaily adds counts into a (date, key, count) table.
func (s *SQLiteStore) upsertDaily(table, keyColumn, date string, counts map[string]int64) error {
	if len(counts) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(fmt.Sprintf(`
		INSERT INTO %s (date, %s, count)
		VALUES (?, ?, ?)
		ON CONFLICT(date, %s) DO UPDATE SET count = count + excluded.count
	`, table, keyColumn, keyColumn))
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for key, count := range counts {
		if _, err := stmt.Exec(date, key, count); err != nil {
			return fmt.Errorf("upsert %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// sumDaily reads summed counts per key from a (date, key, count) table.
func (s *SQLiteStore) sumDaily(table, keyColumn, from, to string) (map[string]int64, error) {
	rows, err := s.db.Query(fmt.Sprintf(`
		SELECT %s, SUM(count)
		FROM %s
		WHERE date >= ? AND date <= ?
		GROUP BY %s
	`, keyColumn, table, keyColumn), from, to)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		counts[key] = count
	}
	return counts, rows.Err()
}

// SaveKindCounts adds daily query kind counts.
func (s *SQLiteStore) SaveKindCounts(date string, counts map[enhance.QueryKind]int64) error {
	raw := make(map[string]int64, len(counts))
	for k, v := range counts {
		raw[string(k)] = v
	}
	return s.upsertDaily("run_kind_stats", "kind", date, raw)
}

// GetKindCounts retrieves summed kind counts for a date range.
func (s *SQLiteStore) GetKindCounts(from, to string) (map[enhance.QueryKind]int64, error) {
	raw, err := s.sumDaily("run_kind_stats", "kind", from, to)
	if err != nil {
		return nil, err
	}
	counts := make(map[enhance.QueryKind]int64, len(raw))
	for k, v := range raw {
		counts[enhance.QueryKind(k)] = v
	}
	return counts, nil
}

// SaveOutcomeCounts adds daily run outcome counts.
func (s *SQLiteStore) SaveOutcomeCounts(date string, counts map[enhance.Outcome]int64) error {
	raw := make(map[string]int64, len(counts))
	for k, v := range counts {
		raw[string(k)] = v
	}
	return s.upsertDaily("run_outcome_stats", "outcome", date, raw)
}

// GetOutcomeCounts retrieves summed outcome counts for a date range.
func (s *SQLiteStore) GetOutcomeCounts(from, to string) (map[enhance.Outcome]int64, error) {
	raw, err := s.sumDaily("run_outcome_stats", "outcome", from, to)
	if err != nil {
		return nil, err
	}
	counts := make(map[enhance.Outcome]int64, len(raw))
	for k, v := range raw {
		counts[enhance.Outcome(k)] = v
	}
	return counts, nil
}

// UpsertTermCounts adds term frequency counts.
func (s *SQLiteStore) UpsertTermCounts(terms map[string]int64) error {
	if len(terms) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO query_terms (term, count, last_seen)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(term) DO UPDATE SET
			count = count + excluded.count,
			last_seen = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for term, count := range terms {
		if _, err := stmt.Exec(term, count); err != nil {
			return fmt.Errorf("upsert term count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetTopTerms retrieves the most frequent terms, highest count first.
func (s *SQLiteStore) GetTopTerms(limit int) ([]TermCount, error) {
	rows, err := s.db.Query(`
		SELECT term, count
		FROM query_terms
		ORDER BY count DESC, term ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top terms: %w", err)
	}
	defer rows.Close()

	var terms []TermCount
	for rows.Next() {
		var tc TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		terms = append(terms, tc)
	}
	return terms, rows.Err()
}

// AddZeroResult records a query that found nothing, keeping only the
// newest entries.
func (s *SQLiteStore) AddZeroResult(query string, at time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO zero_result_queries (query, recorded_at)
		VALUES (?, ?)
	`, query, at)
	if err != nil {
		return fmt.Errorf("insert zero-result query: %w", err)
	}

	_, err = s.db.Exec(`
		DELETE FROM zero_result_queries
		WHERE id NOT IN (
			SELECT id FROM zero_result_queries
			ORDER BY id DESC
			LIMIT ?
		)
	`, zeroResultKeep)
	if err != nil {
		return fmt.Errorf("trim zero-result queries: %w", err)
	}

	return nil
}

// GetZeroResults retrieves recent zero-result queries, newest first.
func (s *SQLiteStore) GetZeroResults(limit int) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT query
		FROM zero_result_queries
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query zero-result queries: %w", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

// SaveLatencyCounts adds daily latency histogram counts.
func (s *SQLiteStore) SaveLatencyCounts(date string, counts map[LatencyBucket]int64) error {
	raw := make(map[string]int64, len(counts))
	for k, v := range counts {
		raw[string(k)] = v
	}
	return s.upsertDaily("run_latency_stats", "bucket", date, raw)
}

// GetLatencyCounts retrieves the summed latency distribution for a
// date range.
func (s *SQLiteStore) GetLatencyCounts(from, to string) (map[LatencyBucket]int64, error) {
	raw, err := s.sumDaily("run_latency_stats", "bucket", from, to)
	if err != nil {
		return nil, err
	}
	counts := make(map[LatencyBucket]int64, len(raw))
	for k, v := range raw {
		counts[LatencyBucket(k)] = v
	}
	return counts, nil
}

// Close releases the database if this store opened it. Stores wrapping
// a caller-owned connection leave it open.
func (s *SQLiteStore) Close() error {
	if !s.ownDB {
		return nil
	}
	return s.db.Close()
}

// =============================================================================
// Stored Snapshot
// =============================================================================

// LoadSnapshot assembles a Snapshot from persisted aggregates over
// [from, to], both formatted as 2006-01-02.
func LoadSnapshot(store Store, from, to string, topTerms int) (*Snapshot, error) {
	kinds, err := store.GetKindCounts(from, to)
	if err != nil {
		return nil, err
	}
	outcomes, err := store.GetOutcomeCounts(from, to)
	if err != nil {
		return nil, err
	}
	terms, err := store.GetTopTerms(topTerms)
	if err != nil {
		return nil, err
	}
	zero, err := store.GetZeroResults(zeroResultKeep)
	if err != nil {
		return nil, err
	}
	latency, err := store.GetLatencyCounts(from, to)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, v := range kinds {
		total += v
	}
	// Both terminal states below deliver an empty result set.
	zeroRuns := outcomes[enhance.OutcomeNoResults] + outcomes[enhance.OutcomeBelowThreshold]

	since, _ := time.Parse("2006-01-02", from)

	return &Snapshot{
		KindCounts:    kinds,
		OutcomeCounts: outcomes,
		TopTerms:      terms,
		ZeroResult:    zero,
		Latency:       latency,
		TotalRuns:     total,
		ZeroRuns:      zeroRuns,
		Since:         since,
	}, nil
}
