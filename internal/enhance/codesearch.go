package enhance

import (
	"fmt"
	"strings"
)

// defaultCodeLang labels snippets whose language cannot be sniffed.
const defaultCodeLang = "code"

// FormatCodeExamples renders code examples as fenced blocks for
// terminal display.
func FormatCodeExamples(examples []CodeExample) string {
	if len(examples) == 0 {
		return "No code examples found for your query."
	}

	blocks := make([]string, 0, len(examples))
	for i, ex := range examples {
		summary := ex.Summary
		if summary == "" {
			summary = "No summary"
		}

		var b strings.Builder
		fmt.Fprintf(&b, "**Example %d** (Relevance: %s)\n", i+1, pct(ex.Similarity))
		fmt.Fprintf(&b, "Summary: %s\n", summary)
		fmt.Fprintf(&b, "Source: %s\n", ex.URL)
		fmt.Fprintf(&b, "```%s\n%s\n```", SniffCodeLang(ex.Code), ex.Code)
		blocks = append(blocks, b.String())
	}

	return fmt.Sprintf("Found %d code examples:\n\n", len(examples)) +
		strings.Join(blocks, "\n---\n")
}

// SniffCodeLang extracts the language tag from a snippet's leading
// fence line, falling back to "code" when the snippet is unfenced or
// the fence line is bare. The snippet itself is rendered as-is.
func SniffCodeLang(code string) string {
	if !strings.HasPrefix(code, "```") {
		return defaultCodeLang
	}

	firstLine := code
	if idx := strings.IndexByte(code, '\n'); idx >= 0 {
		firstLine = code[:idx]
	}
	if len(firstLine) <= 3 {
		return defaultCodeLang
	}

	return strings.TrimSpace(firstLine[3:])
}
