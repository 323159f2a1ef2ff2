package retrieve

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/ragsift/ragsift/internal/enhance"
	"github.com/ragsift/ragsift/internal/errors"
)

// codeOverscan widens local code searches so enough hits survive the
// content type filter.
const codeOverscan = 4

// indexedDocument is the shape bleve indexes: content analyzed for match
// queries, source lower-cased as an exact keyword for filtering.
type indexedDocument struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// LocalClient serves retrieval from an in-memory bleve index over a
// document corpus. BM25 scores are normalized against the best hit so
// similarities land in (0, 1] like the remote backend's.
type LocalClient struct {
	mu         sync.RWMutex
	index      bleve.Index
	docs       map[string]Document
	sources    []enhance.Source
	classifier *enhance.ContentClassifier
	closed     bool
}

var (
	_ enhance.Retriever    = (*LocalClient)(nil)
	_ enhance.SourceLister = (*LocalClient)(nil)
	_ enhance.CodeSearcher = (*LocalClient)(nil)
)

// NewLocalClient loads a corpus file and indexes it in memory.
func NewLocalClient(corpusPath string) (*LocalClient, error) {
	docs, err := LoadCorpus(corpusPath)
	if err != nil {
		return nil, err
	}
	return NewLocalClientFromDocuments(docs)
}

// NewLocalClientFromDocuments indexes the given documents in memory.
func NewLocalClientFromDocuments(docs []Document) (*LocalClient, error) {
	start := time.Now()

	index, err := bleve.NewMemOnly(corpusIndexMapping())
	if err != nil {
		return nil, errors.InternalError("cannot create corpus index", err)
	}

	byID := make(map[string]Document, len(docs))
	batch := index.NewBatch()
	for _, doc := range docs {
		byID[doc.ID] = doc
		err := batch.Index(doc.ID, indexedDocument{
			Content: doc.Content,
			Source:  strings.ToLower(doc.Metadata.Source),
		})
		if err != nil {
			return nil, errors.InternalError("cannot index corpus document", err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, errors.InternalError("cannot index corpus", err)
	}

	sources := deriveSources(docs)
	slog.Debug("corpus_indexed",
		slog.Int("documents", len(docs)),
		slog.Int("sources", len(sources)),
		slog.Duration("duration", time.Since(start)))

	return &LocalClient{
		index:      index,
		docs:       byID,
		sources:    sources,
		classifier: enhance.NewContentClassifier(),
	}, nil
}

// corpusIndexMapping builds the index mapping for corpus documents.
func corpusIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()

	contentField := bleve.NewTextFieldMapping()
	docMapping.AddFieldMappingsAt("content", contentField)

	sourceField := bleve.NewTextFieldMapping()
	sourceField.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt("source", sourceField)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Retrieve searches the corpus, scored by BM25.
func (l *LocalClient) Retrieve(ctx context.Context, queryStr string, opts enhance.RetrieveOptions) ([]enhance.Hit, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, errors.InternalError("local retriever is closed", nil)
	}
	if strings.TrimSpace(queryStr) == "" {
		return nil, nil
	}

	match := bleve.NewMatchQuery(queryStr)
	match.SetField("content")

	var q query.Query = match
	if opts.Source != "" {
		term := bleve.NewTermQuery(strings.ToLower(opts.Source))
		term.SetField("source")
		q = bleve.NewConjunctionQuery(match, term)
	}

	req := bleve.NewSearchRequest(q)
	req.Size = clampMatchCount(opts.MatchCount)

	res, err := l.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, errors.RetrievalError("corpus search failed", err)
	}

	return l.materialize(res), nil
}

// ListSources reports the sources derived from the corpus at load time.
func (l *LocalClient) ListSources(ctx context.Context) ([]enhance.Source, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, errors.InternalError("local retriever is closed", nil)
	}

	out := make([]enhance.Source, len(l.sources))
	copy(out, l.sources)
	return out, nil
}

// SearchCode searches the corpus and keeps only hits that classify as code.
func (l *LocalClient) SearchCode(ctx context.Context, queryStr string, opts enhance.RetrieveOptions) ([]enhance.CodeExample, error) {
	want := clampMatchCount(opts.MatchCount)

	hits, err := l.Retrieve(ctx, queryStr, enhance.RetrieveOptions{
		Source:     opts.Source,
		MatchCount: want * codeOverscan,
	})
	if err != nil {
		return nil, err
	}

	examples := make([]enhance.CodeExample, 0, want)
	for _, hit := range hits {
		if l.classifier.Classify(hit.Content) != enhance.ContentTypeCode {
			continue
		}
		examples = append(examples, enhance.CodeExample{
			Summary:    hit.Metadata.Title,
			Code:       hit.Content,
			URL:        hit.URL,
			Similarity: hit.Similarity,
		})
		if len(examples) == want {
			break
		}
	}
	return examples, nil
}

// Close releases the in-memory index.
func (l *LocalClient) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.index.Close()
}

// materialize converts bleve hits back into corpus documents with
// normalized scores. Bleve returns hits best first.
func (l *LocalClient) materialize(res *bleve.SearchResult) []enhance.Hit {
	if len(res.Hits) == 0 {
		return nil
	}

	top := res.Hits[0].Score
	hits := make([]enhance.Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		doc, ok := l.docs[h.ID]
		if !ok {
			continue
		}
		hits = append(hits, doc.Hit(normalizeScore(h.Score, top)))
	}
	return hits
}

// normalizeScore maps a BM25 score into (0, 1] relative to the best hit.
func normalizeScore(score, top float64) float64 {
	if top <= 0 {
		return 0
	}
	return score / top
}
