package enhance

import (
	"fmt"
	"strings"
)

// refinementRules map intent cue words to the suffixes appended during
// refinement. Order matters: only the first matching rule applies, so
// "how to fix api errors" refines as a how-to query.
var refinementRules = []struct {
	cues     []string
	suffixes []string
}{
	{[]string{"how", "tutorial", "guide"}, []string{"example", "step by step", "walkthrough"}},
	{[]string{"what", "definition", "explain"}, []string{"overview", "documentation", "reference"}},
	{[]string{"error", "issue", "problem", "fix"}, []string{"solution", "troubleshooting", "debugging"}},
	{[]string{"api"}, []string{"documentation", "reference", "example"}},
}

// maxRefinements caps how many variations Refine returns.
const maxRefinements = 5

// Refiner generates intent-aware variations of a query for callers who
// steer retrieval themselves instead of relying on automatic expansion.
type Refiner struct{}

// NewRefiner creates a query refiner.
func NewRefiner() *Refiner {
	return &Refiner{}
}

// Refine returns up to five variations of the query: the original
// first, then intent-based suffix forms, then the query with extra
// caller context appended. Whitespace-only context is ignored.
func (r *Refiner) Refine(query, searchContext string) []string {
	refined := []string{query}
	lower := strings.ToLower(query)

	for _, rule := range refinementRules {
		if containsAny(lower, rule.cues) {
			for _, suffix := range rule.suffixes {
				refined = append(refined, query+" "+suffix)
			}
			break
		}
	}

	if strings.TrimSpace(searchContext) != "" {
		refined = append(refined, query+" "+searchContext)
	}

	if len(refined) > maxRefinements {
		refined = refined[:maxRefinements]
	}
	return refined
}

// FormatRefinements renders refined queries for terminal display.
func FormatRefinements(refined []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generated %d refined query variations:\n", len(refined))

	lines := make([]string, len(refined))
	for i, q := range refined {
		lines[i] = "- " + q
	}
	b.WriteString(strings.Join(lines, "\n"))

	return b.String()
}
