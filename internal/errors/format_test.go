package errors

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI_IncludesMessageHintAndCode(t *testing.T) {
	err := RetrievalError("backend unreachable", nil).
		WithSuggestion("check that the retrieval endpoint is running")

	out := FormatForCLI(err)

	assert.Contains(t, out, "Error: backend unreachable")
	assert.Contains(t, out, "Hint: check that the retrieval endpoint is running")
	assert.Contains(t, out, "Code: ERR_202_RETRIEVAL_UNAVAILABLE (RETRIEVAL)")
}

func TestFormatForCLI_WrapsPlainErrors(t *testing.T) {
	out := FormatForCLI(errors.New("something broke"))

	assert.Contains(t, out, "Error: something broke")
	assert.Contains(t, out, "Code: ERR_501_INTERNAL")
}

func TestFormatForCLI_NilReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", FormatForCLI(nil))
}

func TestFormatJSON_RoundTrips(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := RetrievalError("backend unreachable", cause).
		WithDetail("endpoint", "http://localhost:8051/mcp")

	data, jerr := FormatJSON(err)
	require.NoError(t, jerr)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "ERR_202_RETRIEVAL_UNAVAILABLE", decoded["code"])
	assert.Equal(t, "backend unreachable", decoded["message"])
	assert.Equal(t, "RETRIEVAL", decoded["category"])
	assert.Equal(t, true, decoded["retryable"])
	assert.Equal(t, "dial tcp: connection refused", decoded["cause"])

	details, ok := decoded["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:8051/mcp", details["endpoint"])
}

func TestFormatForLog_ProducesStructuredAttrs(t *testing.T) {
	err := DataError("similarity field is not a number", nil).
		WithDetail("source", "docs.python.org")

	attrs := FormatForLog(err)

	assert.Equal(t, "ERR_401_PAYLOAD_MALFORMED", attrs["error_code"])
	assert.Equal(t, "DATA", attrs["category"])
	assert.Equal(t, false, attrs["retryable"])
	assert.Equal(t, "docs.python.org", attrs["detail_source"])
}

func TestFormatForLog_PlainError(t *testing.T) {
	attrs := FormatForLog(errors.New("plain"))
	assert.Equal(t, "plain", attrs["error"])
}

func TestFormatForLog_NilReturnsNil(t *testing.T) {
	assert.Nil(t, FormatForLog(nil))
}
