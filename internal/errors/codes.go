// Package errors provides structured error handling for ragsift.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Retrieval errors (backend transport, tool calls)
//   - 3XX: Validation errors (caller input)
//   - 4XX: Data errors (malformed payloads, metadata)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryRetrieval indicates retrieval backend errors.
	CategoryRetrieval Category = "RETRIEVAL"
	// CategoryValidation indicates caller input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryData indicates malformed payload or metadata errors.
	CategoryData Category = "DATA"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
	// SeverityInfo indicates informational only.
	SeverityInfo Severity = "INFO"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"
	ErrCodeBackendUnknown = "ERR_103_BACKEND_UNKNOWN"

	// Retrieval errors (200-299)
	ErrCodeRetrievalTimeout     = "ERR_201_RETRIEVAL_TIMEOUT"
	ErrCodeRetrievalUnavailable = "ERR_202_RETRIEVAL_UNAVAILABLE"
	ErrCodeRetrievalRejected    = "ERR_203_RETRIEVAL_REJECTED"
	ErrCodeToolNotFound         = "ERR_204_TOOL_NOT_FOUND"

	// Validation errors (300-399)
	ErrCodeQueryEmpty       = "ERR_301_QUERY_EMPTY"
	ErrCodeQueryTooLong     = "ERR_302_QUERY_TOO_LONG"
	ErrCodeInvalidCount     = "ERR_303_INVALID_COUNT"
	ErrCodeInvalidThreshold = "ERR_304_INVALID_THRESHOLD"

	// Data errors (400-499)
	ErrCodePayloadMalformed  = "ERR_401_PAYLOAD_MALFORMED"
	ErrCodeMetadataMalformed = "ERR_402_METADATA_MALFORMED"
	ErrCodeCorpusCorrupt     = "ERR_403_CORPUS_CORRUPT"

	// Internal errors (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodePipelineFailed  = "ERR_502_PIPELINE_FAILED"
	ErrCodeAnalyticsFailed = "ERR_503_ANALYTICS_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Extract numeric portion (e.g., "101" from "ERR_101_CONFIG_NOT_FOUND")
	numStr := code[4:7]
	if len(numStr) < 1 {
		return CategoryInternal
	}

	switch numStr[0] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryRetrieval
	case '3':
		return CategoryValidation
	case '4':
		return CategoryData
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	// A corrupt corpus cannot be worked around within a run.
	if code == ErrCodeCorpusCorrupt {
		return SeverityFatal
	}

	// Retryable retrieval errors get warning severity
	if isRetryableCode(code) {
		return SeverityWarning
	}

	// Default to error severity
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeRetrievalTimeout, ErrCodeRetrievalUnavailable:
		return true
	default:
		return false
	}
}
