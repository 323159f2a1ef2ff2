package enhance

import (
	"strings"
)

// QueryExpander turns one query into up to maxVariants related variants
// using the static synonym table plus intent cue suffixes. The original
// query is always the first variant.
//
// Example:
//
//	Input:  "api error"
//	Output: ["api error", "API error", "endpoint error", "service error", "interface error"]
//
// Replacement is naive substring substitution against the original-cased
// query, so a synonym that only differs in case from what the user typed
// produces no variant.
type QueryExpander struct {
	synonyms    map[string][]string
	termOrder   []string
	maxVariants int
}

// QueryExpanderOption configures the query expander.
type QueryExpanderOption func(*QueryExpander)

// WithMaxVariants caps the number of variants returned (default: 5).
func WithMaxVariants(n int) QueryExpanderOption {
	return func(e *QueryExpander) {
		if n > 0 {
			e.maxVariants = n
		}
	}
}

// WithSynonyms replaces the synonym table. Iteration order follows the
// order terms first appear in the given map's insertion slice, so callers
// supply it alongside.
func WithSynonyms(synonyms map[string][]string, order []string) QueryExpanderOption {
	return func(e *QueryExpander) {
		e.synonyms = synonyms
		e.termOrder = order
	}
}

// NewQueryExpander creates an expander with the default synonym table.
func NewQueryExpander(opts ...QueryExpanderOption) *QueryExpander {
	e := &QueryExpander{
		synonyms:    Expansions,
		termOrder:   expansionTerms,
		maxVariants: 5,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Expand returns the ordered variant list for a query: the original
// first, then synonym substitutions, then intent suffixes, deduplicated
// case-insensitively and capped at maxVariants. It never fails: any
// degenerate input yields a one-element slice holding the query itself.
func (e *QueryExpander) Expand(query string) []string {
	if strings.TrimSpace(query) == "" {
		return []string{query}
	}

	expanded := []string{query}
	queryLower := strings.ToLower(query)

	for _, term := range e.termOrder {
		if !strings.Contains(queryLower, term) {
			continue
		}
		for _, synonym := range e.synonyms[term] {
			variant := strings.ReplaceAll(query, term, synonym)
			if variant != query {
				expanded = append(expanded, variant)
			}
		}
	}

	if containsAny(queryLower, howToCues) {
		expanded = append(expanded, query+" example", query+" step by step")
	}
	if containsAny(queryLower, whatIsCues) {
		expanded = append(expanded, query+" explanation", query+" overview")
	}

	unique := dedupeCaseInsensitive(expanded)
	if len(unique) > e.maxVariants {
		unique = unique[:e.maxVariants]
	}
	return unique
}

// containsAny reports whether s contains any of the given substrings.
func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// dedupeCaseInsensitive removes case-insensitive duplicates, keeping the
// first occurrence and its casing.
func dedupeCaseInsensitive(queries []string) []string {
	seen := make(map[string]struct{}, len(queries))
	unique := make([]string, 0, len(queries))
	for _, q := range queries {
		key := strings.ToLower(q)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, q)
	}
	return unique
}
