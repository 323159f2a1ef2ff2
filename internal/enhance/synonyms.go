package enhance

// Synonym Dictionary for Query Expansion
//
// Maps technical terms to related vocabulary so a single user query can
// reach documents that phrase the same concept differently (a doc that
// says "endpoint" should be findable from a query that says "api").
// Expansion is purely lexical: a term that appears as a substring of the
// lower-cased query produces one variant per synonym via substring
// replacement. No stemming, no NLP.

// Expansions maps technical terms to their synonym lists.
// Order within each list is preserved in the generated variants.
var Expansions = map[string][]string{
	"api":            {"API", "endpoint", "service", "interface"},
	"function":       {"method", "procedure", "routine", "def"},
	"error":          {"exception", "bug", "issue", "problem", "failure"},
	"install":        {"setup", "configuration", "deployment", "installation"},
	"tutorial":       {"guide", "walkthrough", "example", "how-to"},
	"documentation":  {"docs", "reference", "manual", "specification"},
	"configuration":  {"config", "settings", "setup", "options"},
	"authentication": {"auth", "login", "security", "credentials"},
	"database":       {"db", "storage", "persistence", "data"},
	"frontend":       {"UI", "interface", "client", "web"},
	"backend":        {"server", "service", "API", "microservice"},
}

// expansionTerms is the iteration order for Expansions. Go maps iterate
// randomly, and variant order feeds the 5-variant cap, so the order is
// pinned here.
var expansionTerms = []string{
	"api",
	"function",
	"error",
	"install",
	"tutorial",
	"documentation",
	"configuration",
	"authentication",
	"database",
	"frontend",
	"backend",
}

// howToCues trigger the "<query> example" / "<query> step by step"
// suffix variants.
var howToCues = []string{"how", "tutorial", "guide"}

// whatIsCues trigger the "<query> explanation" / "<query> overview"
// suffix variants.
var whatIsCues = []string{"what", "definition"}
