package retrieve

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ragsift/ragsift/internal/enhance"
	"github.com/ragsift/ragsift/internal/errors"
)

// DocumentMeta is the metadata block carried by corpus documents and by
// backend payloads. Field names follow the backend's wire keys.
type DocumentMeta struct {
	Source        string  `json:"source,omitempty" yaml:"source,omitempty"`
	URL           string  `json:"url,omitempty" yaml:"url,omitempty"`
	Title         string  `json:"title,omitempty" yaml:"title,omitempty"`
	Description   string  `json:"description,omitempty" yaml:"description,omitempty"`
	CreatedAt     string  `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	KnowledgeType string  `json:"knowledge_type,omitempty" yaml:"knowledge_type,omitempty"`
	TotalWords    float64 `json:"total_words,omitempty" yaml:"total_words,omitempty"`
	OriginalURL   string  `json:"original_url,omitempty" yaml:"original_url,omitempty"`
	AutoGenerated bool    `json:"auto_generated,omitempty" yaml:"auto_generated,omitempty"`
}

func (m DocumentMeta) normalize() enhance.Metadata {
	return enhance.Metadata{
		Title:         m.Title,
		Description:   m.Description,
		CreatedAt:     m.CreatedAt,
		KnowledgeType: m.KnowledgeType,
		TotalWords:    int(m.TotalWords),
		OriginalURL:   m.OriginalURL,
		AutoGenerated: m.AutoGenerated,
	}
}

// Document is one corpus entry for the local backend.
type Document struct {
	ID       string       `json:"id" yaml:"id"`
	Content  string       `json:"content" yaml:"content"`
	URL      string       `json:"url,omitempty" yaml:"url,omitempty"`
	Metadata DocumentMeta `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Hit converts the document into a normalized hit with the given score.
// It runs through the same normalization as backend payloads so both
// retrievers produce identical shapes.
func (d Document) Hit(score float64) enhance.Hit {
	w := wireHit{
		Content:         d.Content,
		URL:             d.URL,
		SimilarityScore: &score,
		Metadata:        d.Metadata,
	}
	return w.normalize()
}

// corpusFile is the YAML corpus layout: a documents list under one key so
// corpora can carry top-level comments and future fields.
type corpusFile struct {
	Documents []Document `yaml:"documents"`
}

// Max corpus line length for JSONL documents.
const maxCorpusLine = 1024 * 1024

// LoadCorpus reads corpus documents from a JSONL (one document per line)
// or YAML file, keyed by extension. Documents without an ID get a
// positional one.
func LoadCorpus(path string) ([]Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return loadJSONL(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	default:
		return nil, errors.ConfigError(
			fmt.Sprintf("unsupported corpus format %q (want .jsonl, .ndjson, .yaml, or .yml)", filepath.Ext(path)), nil).
			WithDetail("path", path)
	}
}

func loadJSONL(path string) ([]Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeConfigNotFound, "cannot open corpus file", err).
			WithDetail("path", path)
	}
	defer func() { _ = file.Close() }()

	var docs []Document
	scanner := bufio.NewScanner(file)
	// Long content lines exceed the default scanner buffer
	buf := make([]byte, maxCorpusLine)
	scanner.Buffer(buf, maxCorpusLine)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var doc Document
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			return nil, errors.New(errors.ErrCodeCorpusCorrupt,
				fmt.Sprintf("corpus line %d is not valid JSON", lineNo), err).
				WithDetail("path", path)
		}
		docs = append(docs, doc)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(errors.ErrCodeCorpusCorrupt, "cannot read corpus file", err).
			WithDetail("path", path)
	}

	return assignIDs(docs), nil
}

func loadYAML(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeConfigNotFound, "cannot open corpus file", err).
			WithDetail("path", path)
	}

	var f corpusFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.New(errors.ErrCodeCorpusCorrupt, "corpus file is not valid YAML", err).
			WithDetail("path", path)
	}

	return assignIDs(f.Documents), nil
}

func assignIDs(docs []Document) []Document {
	for i := range docs {
		if docs[i].ID == "" {
			docs[i].ID = fmt.Sprintf("doc-%d", i+1)
		}
	}
	return docs
}

// deriveSources aggregates corpus documents into the source listing the
// backends report: one entry per metadata source, word counts summed,
// descriptive fields taken from the first document seen.
func deriveSources(docs []Document) []enhance.Source {
	byID := make(map[string]*enhance.Source)

	for _, doc := range docs {
		id := doc.Metadata.Source
		if id == "" {
			id = "Unknown"
		}

		words := int(doc.Metadata.TotalWords)
		if words == 0 {
			words = len(strings.Fields(doc.Content))
		}

		src, ok := byID[id]
		if !ok {
			md := doc.Metadata.normalize()
			md.TotalWords = words
			byID[id] = &enhance.Source{
				ID:          id,
				Title:       doc.Metadata.Title,
				Description: doc.Metadata.Description,
				CreatedAt:   doc.Metadata.CreatedAt,
				TotalWords:  words,
				Metadata:    md,
			}
			continue
		}
		src.TotalWords += words
		src.Metadata.TotalWords += words
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sources := make([]enhance.Source, 0, len(ids))
	for _, id := range ids {
		sources = append(sources, *byID[id])
	}
	return sources
}
