package retrieve

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragsift/ragsift/internal/errors"
)

func writeCorpusFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// ============================================================================
// LoadCorpus
// ============================================================================

func TestLoadCorpus_JSONL(t *testing.T) {
	path := writeCorpusFile(t, "corpus.jsonl", `
{"id": "a", "content": "first document", "metadata": {"source": "go.dev", "title": "First"}}

# comment lines are skipped
{"content": "second document without id", "url": "https://example.com/2"}
{"id": "c", "content": "third document", "metadata": {"total_words": 120.0}}
`)

	docs, err := LoadCorpus(path)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "a", docs[0].ID)
	assert.Equal(t, "go.dev", docs[0].Metadata.Source)
	assert.Equal(t, "First", docs[0].Metadata.Title)

	// Missing IDs get positional ones.
	assert.Equal(t, "doc-2", docs[1].ID)
	assert.Equal(t, "https://example.com/2", docs[1].URL)

	assert.Equal(t, "c", docs[2].ID)
	assert.InDelta(t, 120, docs[2].Metadata.TotalWords, scoreDelta)
}

func TestLoadCorpus_YAML(t *testing.T) {
	path := writeCorpusFile(t, "corpus.yaml", `
documents:
  - id: doc-a
    content: Use context deadlines.
    metadata:
      source: go.dev
      title: Context
      knowledge_type: technical
  - content: Anonymous entry.
`)

	docs, err := LoadCorpus(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "doc-a", docs[0].ID)
	assert.Equal(t, "go.dev", docs[0].Metadata.Source)
	assert.Equal(t, "technical", docs[0].Metadata.KnowledgeType)
	assert.Equal(t, "doc-2", docs[1].ID)
}

func TestLoadCorpus_UnsupportedExtension(t *testing.T) {
	path := writeCorpusFile(t, "corpus.txt", "whatever")

	_, err := LoadCorpus(path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.GetCode(err))
	assert.Contains(t, err.Error(), ".txt")
}

func TestLoadCorpus_MissingFile(t *testing.T) {
	_, err := LoadCorpus(filepath.Join(t.TempDir(), "missing.jsonl"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigNotFound, errors.GetCode(err))
}

func TestLoadCorpus_MalformedJSONLine(t *testing.T) {
	path := writeCorpusFile(t, "corpus.jsonl", `{"id": "a", "content": "fine"}
not json at all
`)

	_, err := LoadCorpus(path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCorpusCorrupt, errors.GetCode(err))
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoadCorpus_MalformedYAML(t *testing.T) {
	path := writeCorpusFile(t, "corpus.yaml", "documents: [\n")

	_, err := LoadCorpus(path)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCorpusCorrupt, errors.GetCode(err))
}

// ============================================================================
// Document conversion and source derivation
// ============================================================================

func TestDocumentHit(t *testing.T) {
	doc := Document{
		ID:      "d1",
		Content: "chunk text",
		URL:     "https://top.example.com",
		Metadata: DocumentMeta{
			Source:        "docs.example.com",
			URL:           "https://meta.example.com",
			Title:         "Doc",
			KnowledgeType: "technical",
			TotalWords:    321,
		},
	}

	hit := doc.Hit(0.75)
	assert.Equal(t, "chunk text", hit.Content)
	assert.Equal(t, "docs.example.com", hit.Source)
	assert.Equal(t, "https://meta.example.com", hit.URL, "metadata url wins over the top-level one")
	assert.InDelta(t, 0.75, hit.Similarity, scoreDelta)
	assert.Equal(t, "technical", hit.Metadata.KnowledgeType)
	assert.Equal(t, 321, hit.Metadata.TotalWords)
}

func TestDocumentHit_Defaults(t *testing.T) {
	hit := Document{Content: "bare"}.Hit(0.5)
	assert.Equal(t, "Unknown", hit.Source)
	assert.Empty(t, hit.URL)
}

func TestDeriveSources(t *testing.T) {
	docs := []Document{
		{ID: "1", Content: "one two three", Metadata: DocumentMeta{Source: "b.example.com", Title: "B Docs", TotalWords: 100}},
		{ID: "2", Content: "four five", Metadata: DocumentMeta{Source: "a.example.com", Title: "A Docs", Description: "first"}},
		{ID: "3", Content: "six seven eight nine", Metadata: DocumentMeta{Source: "b.example.com", Title: "Ignored later title", TotalWords: 50}},
		{ID: "4", Content: "ten"},
	}

	sources := deriveSources(docs)
	require.Len(t, sources, 3)

	// Sorted by ID, Unknown last.
	assert.Equal(t, "Unknown", sources[0].ID)
	assert.Equal(t, "a.example.com", sources[1].ID)
	assert.Equal(t, "b.example.com", sources[2].ID)

	// Word counts: explicit metadata counts summed, content length fallback.
	assert.Equal(t, 1, sources[0].TotalWords)
	assert.Equal(t, 2, sources[1].TotalWords)
	assert.Equal(t, 150, sources[2].TotalWords)

	// First document seen supplies the descriptive fields.
	assert.Equal(t, "B Docs", sources[2].Title)
	assert.Equal(t, "first", sources[1].Description)
}
