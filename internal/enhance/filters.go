package enhance

import "strings"

// FilterFunc checks if an enhanced result matches one filter criterion.
type FilterFunc func(r *Result) bool

// FilterOptions narrow a result set after scoring. Zero values mean
// "no filter" for each field.
type FilterOptions struct {
	// ContentType keeps only results of one classified type.
	// Empty or "all" keeps everything.
	ContentType string

	// MinQuality drops results whose source quality falls below it.
	MinQuality float64

	// Source keeps only results from one source domain.
	Source string
}

// ApplyFilters filters results based on the given options.
// Filters use AND logic, so results must match every criterion.
func ApplyFilters(results []Result, opts FilterOptions) []Result {
	filters := buildFilters(opts)
	if len(filters) == 0 {
		return results
	}

	filtered := make([]Result, 0, len(results))
	for i := range results {
		if matchesAllFilters(&results[i], filters) {
			filtered = append(filtered, results[i])
		}
	}

	return filtered
}

// buildFilters creates filter functions based on options.
func buildFilters(opts FilterOptions) []FilterFunc {
	var filters []FilterFunc

	if opts.ContentType != "" && opts.ContentType != "all" {
		filters = append(filters, contentTypeFilter(opts.ContentType))
	}

	if opts.MinQuality > 0 {
		filters = append(filters, minQualityFilter(opts.MinQuality))
	}

	if opts.Source != "" {
		filters = append(filters, sourceFilter(opts.Source))
	}

	return filters
}

// matchesAllFilters checks if a result passes all filters (AND logic).
func matchesAllFilters(r *Result, filters []FilterFunc) bool {
	for _, f := range filters {
		if !f(r) {
			return false
		}
	}
	return true
}

// contentTypeFilter creates a filter for one classified content type.
// An unknown type name matches nothing rather than silently passing.
func contentTypeFilter(name string) FilterFunc {
	want := ContentType(strings.ToLower(strings.TrimSpace(name)))
	return func(r *Result) bool {
		return r.ContentType == want
	}
}

// minQualityFilter creates a filter on source quality.
func minQualityFilter(min float64) FilterFunc {
	return func(r *Result) bool {
		return r.Quality >= min
	}
}

// sourceFilter creates a filter for one source domain.
func sourceFilter(source string) FilterFunc {
	want := strings.ToLower(strings.TrimSpace(source))
	return func(r *Result) bool {
		return strings.ToLower(r.Source) == want
	}
}
