package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiftError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with SiftError
	siftErr := New(ErrCodeRetrievalTimeout, "backend timed out", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, siftErr)
	assert.Equal(t, originalErr, errors.Unwrap(siftErr))
	assert.True(t, errors.Is(siftErr, originalErr))
}

func TestSiftError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigNotFound,
			message:  "config file not found",
			expected: "[ERR_101_CONFIG_NOT_FOUND] config file not found",
		},
		{
			name:     "retrieval error",
			code:     ErrCodeRetrievalTimeout,
			message:  "request timed out",
			expected: "[ERR_201_RETRIEVAL_TIMEOUT] request timed out",
		},
		{
			name:     "validation error",
			code:     ErrCodeQueryEmpty,
			message:  "query is empty",
			expected: "[ERR_301_QUERY_EMPTY] query is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestSiftError_Is_MatchesByCode(t *testing.T) {
	// Given: two errors with same code
	err1 := New(ErrCodeRetrievalRejected, "variant A rejected", nil)
	err2 := New(ErrCodeRetrievalRejected, "variant B rejected", nil)

	// Then: they match by code
	assert.True(t, errors.Is(err1, err2))
}

func TestSiftError_Is_DoesNotMatchDifferentCodes(t *testing.T) {
	// Given: two errors with different codes
	err1 := New(ErrCodeRetrievalRejected, "rejected", nil)
	err2 := New(ErrCodeConfigNotFound, "config not found", nil)

	// Then: they don't match
	assert.False(t, errors.Is(err1, err2))
}

func TestSiftError_WithDetail_AddsContext(t *testing.T) {
	err := New(ErrCodeRetrievalRejected, "rejected", nil).
		WithDetail("variant", "api endpoint error").
		WithDetail("backend", "mcp")

	require.NotNil(t, err.Details)
	assert.Equal(t, "api endpoint error", err.Details["variant"])
	assert.Equal(t, "mcp", err.Details["backend"])
}

func TestCategoryFromCode(t *testing.T) {
	tests := []struct {
		code     string
		expected Category
	}{
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeRetrievalTimeout, CategoryRetrieval},
		{ErrCodeQueryEmpty, CategoryValidation},
		{ErrCodePayloadMalformed, CategoryData},
		{ErrCodeInternal, CategoryInternal},
		{"garbage", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, categoryFromCode(tt.code))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrCodeRetrievalTimeout, "timeout", nil)))
	assert.True(t, IsRetryable(New(ErrCodeRetrievalUnavailable, "unreachable", nil)))
	assert.False(t, IsRetryable(New(ErrCodeRetrievalRejected, "rejected", nil)))
	assert.False(t, IsRetryable(New(ErrCodeConfigInvalid, "bad config", nil)))
	assert.False(t, IsRetryable(errors.New("plain error")))
	assert.False(t, IsRetryable(nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(ErrCodeCorpusCorrupt, "corpus unreadable", nil)))
	assert.False(t, IsFatal(New(ErrCodeRetrievalTimeout, "timeout", nil)))
	assert.False(t, IsFatal(nil))
}

// The user-facing split matters: config, validation, and data problems tell
// the user to fix parameters, everything else reports an unexpected error.
func TestUserMessage_DistinguishesCorrectableFromUnexpected(t *testing.T) {
	correctable := ConfigError("match count must be positive", nil)
	assert.Contains(t, correctable.UserMessage(), "check your search parameters")
	assert.Contains(t, correctable.UserMessage(), "Search configuration error")

	unexpected := InternalError("scorer panicked", nil)
	assert.Contains(t, unexpected.UserMessage(), "logged for investigation")
	assert.Contains(t, unexpected.UserMessage(), "Unexpected search error")
}

func TestIsUserCorrectable(t *testing.T) {
	assert.True(t, IsUserCorrectable(ConfigError("bad", nil)))
	assert.True(t, IsUserCorrectable(ValidationError("empty", nil)))
	assert.True(t, IsUserCorrectable(DataError("malformed", nil)))
	assert.False(t, IsUserCorrectable(RetrievalError("down", nil)))
	assert.False(t, IsUserCorrectable(InternalError("boom", nil)))
	assert.False(t, IsUserCorrectable(errors.New("plain")))
	assert.False(t, IsUserCorrectable(nil))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestGetCodeAndCategory(t *testing.T) {
	err := RetrievalError("down", nil)
	assert.Equal(t, ErrCodeRetrievalUnavailable, GetCode(err))
	assert.Equal(t, CategoryRetrieval, GetCategory(err))

	plain := errors.New("plain")
	assert.Equal(t, "", GetCode(plain))
	assert.Equal(t, Category(""), GetCategory(plain))
}
