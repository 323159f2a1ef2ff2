package enhance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// QueryExpander Tests
// =============================================================================

func TestQueryExpander_Expand_SynonymVariants(t *testing.T) {
	expander := NewQueryExpander()

	tests := []struct {
		name     string
		query    string
		contains []string // variants that MUST appear
	}{
		{
			name:     "api expands to endpoint",
			query:    "api error",
			contains: []string{"api error", "endpoint error", "service error"},
		},
		{
			name:     "error expands to exception",
			query:    "error handling",
			contains: []string{"error handling", "exception handling", "bug handling"},
		},
		{
			name:     "database expands to db",
			query:    "database migrations",
			contains: []string{"database migrations", "db migrations", "storage migrations"},
		},
		{
			name:     "authentication expands to auth",
			query:    "authentication flow",
			contains: []string{"authentication flow", "auth flow", "login flow"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			variants := expander.Expand(tt.query)
			for _, v := range tt.contains {
				assert.Contains(t, variants, v,
					"expected variants of %q to contain %q, got %v", tt.query, v, variants)
			}
		})
	}
}

func TestQueryExpander_Expand_OriginalAlwaysFirst(t *testing.T) {
	expander := NewQueryExpander()

	for _, query := range []string{"api error", "how to install", "plain query", "What is docker"} {
		variants := expander.Expand(query)
		require.NotEmpty(t, variants)
		assert.Equal(t, query, variants[0], "original query must be the first variant")
	}
}

func TestQueryExpander_Expand_CapsAtFiveVariants(t *testing.T) {
	expander := NewQueryExpander()

	// "api" and "error" together produce nine synonym rewrites before
	// the cap kicks in.
	variants := expander.Expand("api error")

	assert.Len(t, variants, 5)
	assert.Equal(t, "api error", variants[0])
	assert.Contains(t, variants, "endpoint error")
	assert.Contains(t, variants, "api exception")
}

func TestQueryExpander_Expand_HowToSuffixes(t *testing.T) {
	expander := NewQueryExpander()

	// No synonym term matches, so the cue suffixes survive the cap.
	variants := expander.Expand("how do I deploy")

	assert.Contains(t, variants, "how do I deploy example")
	assert.Contains(t, variants, "how do I deploy step by step")
}

func TestQueryExpander_Expand_WhatIsSuffixes(t *testing.T) {
	expander := NewQueryExpander()

	variants := expander.Expand("what is docker")

	assert.Equal(t, []string{
		"what is docker",
		"what is docker explanation",
		"what is docker overview",
	}, variants)
}

func TestQueryExpander_Expand_DeduplicatesCaseInsensitively(t *testing.T) {
	expander := NewQueryExpander()

	// "api" → "API" rewrite only differs in case from the original and
	// must not produce a second variant.
	variants := expander.Expand("api error")

	seen := make(map[string]int)
	for _, v := range variants {
		seen[strings.ToLower(v)]++
	}
	for v, n := range seen {
		assert.Equal(t, 1, n, "variant %q appears %d times", v, n)
	}
}

func TestQueryExpander_Expand_UppercaseQueryYieldsOnlyItself(t *testing.T) {
	expander := NewQueryExpander()

	// Substring replacement is case-sensitive against the original
	// query, so an all-caps query never matches the lower-cased terms.
	variants := expander.Expand("API")

	assert.Equal(t, []string{"API"}, variants)
}

func TestQueryExpander_Expand_BlankQuery(t *testing.T) {
	expander := NewQueryExpander()

	assert.Equal(t, []string{""}, expander.Expand(""))
	assert.Equal(t, []string{"   "}, expander.Expand("   "))
}

func TestQueryExpander_Expand_NoMatchesYieldsOriginalOnly(t *testing.T) {
	expander := NewQueryExpander()

	variants := expander.Expand("zebra migration patterns")

	assert.Equal(t, []string{"zebra migration patterns"}, variants)
}

func TestQueryExpander_WithMaxVariants(t *testing.T) {
	expander := NewQueryExpander(WithMaxVariants(2))

	variants := expander.Expand("api error")

	assert.Len(t, variants, 2)
	assert.Equal(t, "api error", variants[0])
}

func TestQueryExpander_WithSynonyms(t *testing.T) {
	custom := map[string][]string{
		"ragsift": {"enhancer", "searchtool"},
	}
	expander := NewQueryExpander(WithSynonyms(custom, []string{"ragsift"}))

	variants := expander.Expand("ragsift usage")

	assert.Contains(t, variants, "enhancer usage")
	assert.Contains(t, variants, "searchtool usage")
	// The default table is replaced, not merged.
	assert.NotContains(t, variants, "API usage")
}

func TestQueryExpander_Expand_Deterministic(t *testing.T) {
	expander := NewQueryExpander()

	first := expander.Expand("api error")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, expander.Expand("api error"))
	}
}

// =============================================================================
// Synonym Dictionary Tests
// =============================================================================

func TestExpansions_Coverage(t *testing.T) {
	required := []string{
		"api", "function", "error", "install", "tutorial",
		"documentation", "configuration", "authentication",
		"database", "frontend", "backend",
	}

	for _, term := range required {
		t.Run(term, func(t *testing.T) {
			assert.NotEmpty(t, Expansions[term], "term %q should have synonyms", term)
		})
	}
}

func TestExpansionTerms_MatchesTable(t *testing.T) {
	// The pinned iteration order must cover the table exactly.
	require.Len(t, expansionTerms, len(Expansions))
	for _, term := range expansionTerms {
		_, ok := Expansions[term]
		assert.True(t, ok, "ordered term %q missing from table", term)
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkQueryExpander_Expand(b *testing.B) {
	expander := NewQueryExpander()
	query := "how to fix api authentication error"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = expander.Expand(query)
	}
}
