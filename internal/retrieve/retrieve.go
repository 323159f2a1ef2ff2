// Package retrieve provides the retrieval backends that feed the
// enhancement pipeline: an MCP client against an external retrieval
// server and a local bleve index over a document corpus. Both normalize
// backend payloads into the pipeline's Hit shape, so callers never see
// wire conventions.
package retrieve

import (
	"fmt"
	"strings"

	"github.com/ragsift/ragsift/internal/config"
	"github.com/ragsift/ragsift/internal/enhance"
	"github.com/ragsift/ragsift/internal/errors"
)

// Backend names accepted by New.
const (
	BackendMCP   = "mcp"
	BackendLocal = "local"
)

// Client bundles the retrieval capabilities a backend serves.
type Client interface {
	enhance.Retriever
	enhance.SourceLister
	enhance.CodeSearcher
	Close() error
}

var (
	_ Client = (*MCPClient)(nil)
	_ Client = (*LocalClient)(nil)
)

// New builds the retrieval backend named by the configuration.
func New(cfg *config.Config) (Client, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Retrieval.Backend)) {
	case "", BackendMCP:
		return NewMCPClient(
			WithEndpoint(cfg.Retrieval.Endpoint),
			WithCallTimeout(cfg.RetrievalTimeout()),
			WithMaxRetries(cfg.Retrieval.MaxRetries),
		), nil

	case BackendLocal:
		if cfg.Retrieval.Corpus == "" {
			return nil, errors.ConfigError("local backend requires a corpus file", nil).
				WithSuggestion("Set retrieval.corpus to a .jsonl or .yaml corpus file.")
		}
		return NewLocalClient(cfg.Retrieval.Corpus)

	default:
		return nil, errors.New(errors.ErrCodeBackendUnknown,
			fmt.Sprintf("unknown retrieval backend %q", cfg.Retrieval.Backend), nil).
			WithSuggestion("Valid backends are mcp and local.")
	}
}
