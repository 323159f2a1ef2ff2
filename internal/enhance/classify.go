package enhance

import (
	"strings"
)

// ContentClassifier labels content with a ContentType using keyword
// heuristics, first match wins. Code markers are checked against the
// raw content (case matters for "def " and "import "); the remaining
// categories match against the lower-cased content.
type ContentClassifier struct{}

// NewContentClassifier creates a content classifier.
func NewContentClassifier() *ContentClassifier {
	return &ContentClassifier{}
}

// codeMarkers are checked case-sensitively against raw content.
var codeMarkers = []string{"def ", "class ", "function", "import ", "```"}

// Lower-cased keyword sets per category, in priority order.
var (
	tutorialMarkers        = []string{"step", "tutorial", "how to", "example", "guide"}
	apiDocMarkers          = []string{"endpoint", "parameter", "response", "method", "api"}
	troubleshootingMarkers = []string{"error", "troubleshoot", "fix", "solution", "problem"}
	configurationMarkers   = []string{"config", "setup", "install", "configure"}
)

// Classify returns the content type label for the given content.
// Classification is deterministic: identical input always yields the
// identical label.
func (c *ContentClassifier) Classify(content string) ContentType {
	if containsAny(content, codeMarkers) {
		return ContentTypeCode
	}

	contentLower := strings.ToLower(content)

	if containsAny(contentLower, tutorialMarkers) {
		return ContentTypeTutorial
	}
	if containsAny(contentLower, apiDocMarkers) {
		return ContentTypeAPIDoc
	}
	if containsAny(contentLower, troubleshootingMarkers) {
		return ContentTypeTroubleshooting
	}
	if containsAny(contentLower, configurationMarkers) {
		return ContentTypeConfiguration
	}

	return ContentTypeDocumentation
}
