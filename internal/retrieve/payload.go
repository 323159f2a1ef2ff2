package retrieve

import (
	"encoding/json"

	"github.com/ragsift/ragsift/internal/enhance"
	"github.com/ragsift/ragsift/internal/errors"
)

// The retrieval backend wraps every tool response in a success envelope.
// Hits arrive with loose key conventions (similarity vs similarity_score,
// url at the top level or inside metadata), normalized here so the rest of
// the pipeline never branches on key presence.

// queryPayload is the perform_rag_query response envelope.
type queryPayload struct {
	Success bool      `json:"success"`
	Error   string    `json:"error"`
	Results []wireHit `json:"results"`
}

// sourcesPayload is the get_available_sources response envelope.
type sourcesPayload struct {
	Success bool         `json:"success"`
	Error   string       `json:"error"`
	Sources []wireSource `json:"sources"`
}

// codePayload is the search_code_examples response envelope. Older backend
// versions report examples under code_examples instead of results.
type codePayload struct {
	Success      bool       `json:"success"`
	Error        string     `json:"error"`
	Results      []wireCode `json:"results"`
	CodeExamples []wireCode `json:"code_examples"`
}

// wireHit is one retrieval hit as the backend serializes it. Similarity
// fields are pointers: similarity_score wins whenever the key is present,
// even at zero.
type wireHit struct {
	Content         string       `json:"content"`
	URL             string       `json:"url"`
	Similarity      *float64     `json:"similarity"`
	SimilarityScore *float64     `json:"similarity_score"`
	Metadata        DocumentMeta `json:"metadata"`
}

// wireSource is one source entry. The top-level word count is the display
// figure; quality ranking reads the one inside metadata.
type wireSource struct {
	SourceID    string       `json:"source_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	CreatedAt   string       `json:"created_at"`
	TotalWords  float64      `json:"total_words"`
	Metadata    DocumentMeta `json:"metadata"`
}

// wireCode is one code example entry. Here similarity is the primary key
// and code_block the legacy spelling of code.
type wireCode struct {
	Summary         string   `json:"summary"`
	Code            string   `json:"code"`
	CodeBlock       string   `json:"code_block"`
	URL             string   `json:"url"`
	Similarity      *float64 `json:"similarity"`
	SimilarityScore *float64 `json:"similarity_score"`
}

func (h wireHit) normalize() enhance.Hit {
	source := h.Metadata.Source
	if source == "" {
		source = "Unknown"
	}
	url := h.Metadata.URL
	if url == "" {
		url = h.URL
	}
	var similarity float64
	switch {
	case h.SimilarityScore != nil:
		similarity = *h.SimilarityScore
	case h.Similarity != nil:
		similarity = *h.Similarity
	}
	return enhance.Hit{
		Content:    h.Content,
		Source:     source,
		URL:        url,
		Similarity: similarity,
		Metadata:   h.Metadata.normalize(),
	}
}

func (s wireSource) normalize() enhance.Source {
	return enhance.Source{
		ID:          s.SourceID,
		Title:       s.Title,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
		TotalWords:  int(s.TotalWords),
		Metadata:    s.Metadata.normalize(),
	}
}

func (c wireCode) normalize() enhance.CodeExample {
	code := c.Code
	if code == "" {
		code = c.CodeBlock
	}
	var similarity float64
	switch {
	case c.Similarity != nil:
		similarity = *c.Similarity
	case c.SimilarityScore != nil:
		similarity = *c.SimilarityScore
	}
	return enhance.CodeExample{
		Summary:    c.Summary,
		Code:       code,
		URL:        c.URL,
		Similarity: similarity,
	}
}

// parseHits decodes a perform_rag_query payload into normalized hits.
func parseHits(data string) ([]enhance.Hit, error) {
	var p queryPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, errors.DataError("retrieval payload is not valid JSON", err)
	}
	if !p.Success {
		return nil, rejectionError(p.Error)
	}
	hits := make([]enhance.Hit, 0, len(p.Results))
	for _, w := range p.Results {
		hits = append(hits, w.normalize())
	}
	return hits, nil
}

// parseSources decodes a get_available_sources payload.
func parseSources(data string) ([]enhance.Source, error) {
	var p sourcesPayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, errors.DataError("source list payload is not valid JSON", err)
	}
	if !p.Success {
		return nil, rejectionError(p.Error)
	}
	sources := make([]enhance.Source, 0, len(p.Sources))
	for _, w := range p.Sources {
		sources = append(sources, w.normalize())
	}
	return sources, nil
}

// parseCodeExamples decodes a search_code_examples payload.
func parseCodeExamples(data string) ([]enhance.CodeExample, error) {
	var p codePayload
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, errors.DataError("code example payload is not valid JSON", err)
	}
	if !p.Success {
		return nil, rejectionError(p.Error)
	}
	wire := p.Results
	if len(wire) == 0 {
		wire = p.CodeExamples
	}
	examples := make([]enhance.CodeExample, 0, len(wire))
	for _, w := range wire {
		examples = append(examples, w.normalize())
	}
	return examples, nil
}

// rejectionError converts a success=false envelope into a typed error
// carrying the backend's own message.
func rejectionError(msg string) *errors.SiftError {
	if msg == "" {
		msg = "Unknown error"
	}
	return errors.New(errors.ErrCodeRetrievalRejected, msg, nil)
}
