package enhance

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// QueryKind categorizes the intent behind a search query. Analytics
// aggregates on it and refinement picks suffixes from it.
type QueryKind string

const (
	QueryKindHowTo            QueryKind = "how_to"
	QueryKindWhatIs           QueryKind = "what_is"
	QueryKindTroubleshooting  QueryKind = "troubleshooting"
	QueryKindCodeSearch       QueryKind = "code_search"
	QueryKindListSources      QueryKind = "list_sources"
	QueryKindAPIDocumentation QueryKind = "api_documentation"
	QueryKindComparison       QueryKind = "comparison"
	QueryKindGeneralSearch    QueryKind = "general_search"
)

// String returns the kind name.
func (k QueryKind) String() string {
	return string(k)
}

// DefaultQueryKindCacheSize bounds the classification cache. Repeated
// queries are common in interactive sessions, so even a small cache
// absorbs most lookups.
const DefaultQueryKindCacheSize = 1024

// queryKindRules map cue words to kinds. Order matters: the first rule
// with a cue present in the query wins, so "how to fix an api error"
// classifies as how_to, not troubleshooting.
var queryKindRules = []struct {
	kind QueryKind
	cues []string
}{
	{QueryKindHowTo, []string{"how", "tutorial", "guide", "step"}},
	{QueryKindWhatIs, []string{"what", "definition", "explain"}},
	{QueryKindTroubleshooting, []string{"error", "issue", "problem", "fix", "troubleshoot"}},
	{QueryKindCodeSearch, []string{"example", "code", "sample"}},
	{QueryKindListSources, []string{"sources", "available", "list"}},
	{QueryKindAPIDocumentation, []string{"api", "endpoint", "method"}},
	{QueryKindComparison, []string{"compare", "difference", "vs"}},
}

// QueryKindClassifier classifies query intent with an LRU cache over
// normalized queries. Safe for concurrent use.
type QueryKindClassifier struct {
	cache *lru.Cache[string, QueryKind]
}

// NewQueryKindClassifier creates a classifier with the default cache size.
func NewQueryKindClassifier() *QueryKindClassifier {
	return NewQueryKindClassifierWithSize(DefaultQueryKindCacheSize)
}

// NewQueryKindClassifierWithSize creates a classifier with a custom
// cache size. Sizes below 1 fall back to the default.
func NewQueryKindClassifierWithSize(size int) *QueryKindClassifier {
	if size < 1 {
		size = DefaultQueryKindCacheSize
	}
	cache, _ := lru.New[string, QueryKind](size)
	return &QueryKindClassifier{cache: cache}
}

// Kind returns the intent category for a query.
func (c *QueryKindClassifier) Kind(query string) QueryKind {
	key := normalizeQuery(query)
	if key == "" {
		return QueryKindGeneralSearch
	}

	if kind, ok := c.cache.Get(key); ok {
		return kind
	}

	kind := classifyQueryKind(key)
	c.cache.Add(key, kind)
	return kind
}

// classifyQueryKind walks the rule table over an already-lowercased query.
func classifyQueryKind(lower string) QueryKind {
	for _, rule := range queryKindRules {
		if containsAny(lower, rule.cues) {
			return rule.kind
		}
	}
	return QueryKindGeneralSearch
}

// normalizeQuery normalizes a query for use as a cache key.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
