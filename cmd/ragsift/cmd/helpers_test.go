package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ragsift/ragsift/internal/retrieve"
)

// isolateEnv points HOME and XDG_CONFIG_HOME at a temp directory so
// command runs never touch the real user profile, and clears the
// RAGSIFT_* variables that could leak in from the developer's shell.
func isolateEnv(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()

	t.Setenv("HOME", tmp)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, ".config"))

	for _, key := range []string{
		"RAGSIFT_BACKEND",
		"RAGSIFT_ENDPOINT",
		"RAGSIFT_SOURCE",
		"RAGSIFT_CORPUS",
		"RAGSIFT_MATCH_COUNT",
		"RAGSIFT_MAX_VARIANTS",
		"RAGSIFT_SIMILARITY_THRESHOLD",
		"RAGSIFT_PARALLELISM",
		"RAGSIFT_EXPANSION",
		"RAGSIFT_CLUSTERING",
		"RAGSIFT_LOG_LEVEL",
		"RAGSIFT_ANALYTICS",
	} {
		t.Setenv(key, "")
	}

	return tmp
}

// chdirTemp switches into a fresh temp directory for the test so config
// discovery never walks into the real working tree.
func chdirTemp(t *testing.T) string {
	t.Helper()
	tmp := t.TempDir()
	oldDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(oldDir) })
	return tmp
}

// testCorpus returns a small fixed corpus: two go.dev documents (one
// prose, one fenced code) and one troubleshooting page from a second
// source.
func testCorpus() []retrieve.Document {
	return []retrieve.Document{
		{
			ID: "ctx-1",
			Content: "Use context.WithTimeout to bound work. When the deadline passes, " +
				"the cancellation signal reaches every goroutine watching ctx.Done() " +
				"so they can stop early and release their resources.",
			URL: "https://go.dev/blog/context",
			Metadata: retrieve.DocumentMeta{
				Source:        "go.dev",
				Title:         "Contexts and cancellation",
				KnowledgeType: "technical",
				TotalWords:    1500,
				CreatedAt:     "2025-11-02T10:00:00Z",
			},
		},
		{
			ID: "ctx-2",
			Content: "```go\nctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)\n" +
				"defer cancel()\n\nselect {\ncase <-ctx.Done():\n\treturn ctx.Err()\n}\n```",
			URL: "https://go.dev/doc/timeout",
			Metadata: retrieve.DocumentMeta{
				Source:        "go.dev",
				Title:         "Timeout handling with context",
				KnowledgeType: "technical",
				TotalWords:    400,
				CreatedAt:     "2025-11-02T10:00:00Z",
			},
		},
		{
			ID: "net-1",
			Content: "Connection refused usually means the server is not listening on " +
				"the target port. Fix the address or open the firewall, then retry.",
			URL: "https://docs.example.com/connection-refused",
			Metadata: retrieve.DocumentMeta{
				Source:        "docs.example.com",
				Title:         "Connection problems",
				KnowledgeType: "technical",
				TotalWords:    900,
				CreatedAt:     "2024-06-10T08:30:00Z",
			},
		},
	}
}

// writeCorpus writes documents as a JSONL corpus file and returns its path.
func writeCorpus(t *testing.T, docs []retrieve.Document) string {
	t.Helper()

	var b bytes.Buffer
	for _, doc := range docs {
		line, err := json.Marshal(doc)
		require.NoError(t, err)
		b.Write(line)
		b.WriteByte('\n')
	}

	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o644))
	return path
}

// runCLI executes the root command with the given arguments and returns
// the combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return buf.String(), err
}
