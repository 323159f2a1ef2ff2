package enhance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func filterFixture() []Result {
	return []Result{
		{
			Hit:         Hit{Source: "docs.python.org"},
			Quality:     0.9,
			ContentType: ContentTypeCode,
		},
		{
			Hit:         Hit{Source: "blog.example.net"},
			Quality:     0.5,
			ContentType: ContentTypeTutorial,
		},
		{
			Hit:         Hit{Source: "docs.python.org"},
			Quality:     0.3,
			ContentType: ContentTypeTutorial,
		},
	}
}

func TestApplyFilters_NoOptionsReturnsAll(t *testing.T) {
	results := filterFixture()

	assert.Equal(t, results, ApplyFilters(results, FilterOptions{}))
	assert.Equal(t, results, ApplyFilters(results, FilterOptions{ContentType: "all"}))
}

func TestApplyFilters_ByContentType(t *testing.T) {
	filtered := ApplyFilters(filterFixture(), FilterOptions{ContentType: "tutorial"})

	assert.Len(t, filtered, 2)
	for _, r := range filtered {
		assert.Equal(t, ContentTypeTutorial, r.ContentType)
	}

	// Unknown type names match nothing.
	assert.Empty(t, ApplyFilters(filterFixture(), FilterOptions{ContentType: "poetry"}))
}

func TestApplyFilters_ByMinQuality(t *testing.T) {
	filtered := ApplyFilters(filterFixture(), FilterOptions{MinQuality: 0.5})

	assert.Len(t, filtered, 2)
	for _, r := range filtered {
		assert.GreaterOrEqual(t, r.Quality, 0.5)
	}
}

func TestApplyFilters_BySource(t *testing.T) {
	filtered := ApplyFilters(filterFixture(), FilterOptions{Source: "DOCS.PYTHON.ORG"})

	assert.Len(t, filtered, 2)
	for _, r := range filtered {
		assert.Equal(t, "docs.python.org", r.Source)
	}
}

func TestApplyFilters_CombinedUseANDLogic(t *testing.T) {
	filtered := ApplyFilters(filterFixture(), FilterOptions{
		ContentType: "tutorial",
		Source:      "docs.python.org",
	})

	assert.Len(t, filtered, 1)
	assert.Equal(t, ContentTypeTutorial, filtered[0].ContentType)
	assert.Equal(t, "docs.python.org", filtered[0].Source)
}

func TestApplyFilters_EmptyInput(t *testing.T) {
	assert.Empty(t, ApplyFilters(nil, FilterOptions{ContentType: "code"}))
}
