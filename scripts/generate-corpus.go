//go:build ignore

// Package main generates a synthetic JSONL corpus for the local backend.
// Usage: go run scripts/generate-corpus.go -docs 200 -output testdata/corpus.jsonl
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

var (
	numDocs    = flag.Int("docs", 200, "Number of documents to generate")
	outputPath = flag.String("output", "testdata/corpus.jsonl", "Output corpus file")
	seed       = flag.Int64("seed", 42, "Random seed for reproducibility")
)

// document mirrors the corpus wire format the local backend loads.
type document struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	URL      string   `json:"url,omitempty"`
	Metadata metadata `json:"metadata"`
}

type metadata struct {
	Source        string  `json:"source"`
	Title         string  `json:"title,omitempty"`
	Description   string  `json:"description,omitempty"`
	CreatedAt     string  `json:"created_at,omitempty"`
	KnowledgeType string  `json:"knowledge_type,omitempty"`
	TotalWords    float64 `json:"total_words,omitempty"`
	AutoGenerated bool    `json:"auto_generated,omitempty"`
}

// Content templates per classified type. Wording is chosen so each body
// lands in exactly one content type bucket: bodies for the later types
// avoid the earlier types' marker words.
var codeTemplate = "```go\n" + `package %s

import (
	"context"
	"time"
)

// %s bounds %s work with a deadline.
func %s(ctx context.Context, d time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-run(ctx):
		return nil
	}
}
` + "```"

var tutorialTemplate = `This tutorial walks through %s in small increments.

Step 1: Start with the smallest working version and verify it by hand.
Step 2: Add %s handling and watch how the behavior changes.
Step 3: Measure before tuning anything.

Follow each step in order; the example at the end ties them together.`

var apiTemplate = `The %s endpoint accepts a JSON body with two parameters: a
query string and an optional limit. The response carries a results array
ordered by score, and every method on this API is idempotent. Invalid
parameters yield a 400 response with a machine-readable reason.`

var troubleshootingTemplate = `A %s error during startup usually means the
%s is unreachable. The quickest fix is to verify the address and retry
with a longer deadline. If the problem persists, the solution is to
inspect the local firewall rules before anything else.`

var configurationTemplate = `The %s config file is read once at startup.
Run the install before editing it, then adjust the settings in place:
lower values favor latency, higher values favor throughput. The setup
applies on the next start.`

var documentationTemplate = `The %s package keeps a pool of workers that
drain a shared queue in order. Each worker owns one connection and
reports its state through a channel the supervisor reads. The sections
below describe the lifecycle of a worker from creation to shutdown.`

// Topic and source pools for realistic variety.
var (
	topics = []string{
		"timeout", "retry", "caching", "routing", "batching",
		"streaming", "pagination", "scheduling", "rate limiting", "pooling",
		"serialization", "validation", "logging", "tracing", "indexing",
	}
	packages = []string{
		"queue", "runner", "relay", "bridge", "vault",
		"ledger", "cursor", "beacon", "harbor", "anchor",
	}
	sources = []struct {
		domain string
		kind   string
	}{
		{"docs.acme.dev", "technical"},
		{"github.com/acme/toolkit", "technical"},
		{"python.org", "technical"},
		{"blog.fieldnotes.net", "business"},
	}
	dates = []string{
		"2024-03-11T09:00:00Z",
		"2024-09-27T14:30:00Z",
		"2025-01-18T08:15:00Z",
		"2025-05-02T16:45:00Z",
	}
)

func main() {
	flag.Parse()
	rng := rand.New(rand.NewSource(*seed))

	if dir := filepath.Dir(*outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
			os.Exit(1)
		}
	}

	file, err := os.Create(*outputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating corpus file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	fmt.Printf("Generating %d documents in %s...\n", *numDocs, *outputPath)

	// Distribute documents across content types
	codeDocs := *numDocs * 25 / 100
	tutorialDocs := *numDocs * 20 / 100
	apiDocs := *numDocs * 20 / 100
	troubleDocs := *numDocs * 15 / 100
	configDocs := *numDocs * 10 / 100
	referenceDocs := *numDocs - codeDocs - tutorialDocs - apiDocs - troubleDocs - configDocs

	w := bufio.NewWriter(file)
	generated := 0

	emit := func(kind string, count int, build func(i int) string) {
		for i := 0; i < count; i++ {
			doc := makeDocument(rng, kind, i, build(i))
			line, err := json.Marshal(doc)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding %s document %d: %v\n", kind, i, err)
				continue
			}
			w.Write(line)
			w.WriteByte('\n')
			generated++
		}
	}

	emit("code", codeDocs, func(i int) string {
		pkg := randomWord(rng, packages)
		topic := randomTopic(rng)
		return fmt.Sprintf(codeTemplate, pkg, "Run", topic, "Run")
	})
	emit("tutorial", tutorialDocs, func(i int) string {
		return fmt.Sprintf(tutorialTemplate, randomTopic(rng), randomTopic(rng))
	})
	emit("api", apiDocs, func(i int) string {
		return fmt.Sprintf(apiTemplate, randomTopic(rng))
	})
	emit("troubleshooting", troubleDocs, func(i int) string {
		return fmt.Sprintf(troubleshootingTemplate, randomTopic(rng), randomWord(rng, packages))
	})
	emit("configuration", configDocs, func(i int) string {
		return fmt.Sprintf(configurationTemplate, randomTopic(rng))
	})
	emit("reference", referenceDocs, func(i int) string {
		return fmt.Sprintf(documentationTemplate, randomWord(rng, packages))
	})

	if err := w.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing corpus file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %d documents successfully.\n", generated)
}

func randomWord(rng *rand.Rand, pool []string) string {
	return pool[rng.Intn(len(pool))]
}

func randomTopic(rng *rand.Rand) string {
	return topics[rng.Intn(len(topics))]
}

func makeDocument(rng *rand.Rand, kind string, index int, content string) document {
	src := sources[rng.Intn(len(sources))]
	topic := randomTopic(rng)

	// Word counts spread across the quality scorer's bands: mostly the
	// 1k-50k sweet spot, some small pages, a few very large dumps.
	var words float64
	switch rng.Intn(10) {
	case 0:
		words = float64(100 + rng.Intn(800))
	case 1:
		words = float64(100_001 + rng.Intn(50_000))
	default:
		words = float64(1_000 + rng.Intn(49_000))
	}

	return document{
		ID:      fmt.Sprintf("%s-%d", kind, index+1),
		Content: content,
		URL:     fmt.Sprintf("https://%s/%s/%d", src.domain, kind, index+1),
		Metadata: metadata{
			Source:        src.domain,
			Title:         fmt.Sprintf("%s notes: %s", kind, topic),
			Description:   fmt.Sprintf("Collected notes on %s", topic),
			CreatedAt:     dates[rng.Intn(len(dates))],
			KnowledgeType: src.kind,
			TotalWords:    words,
			AutoGenerated: rng.Intn(10) == 0,
		},
	}
}
