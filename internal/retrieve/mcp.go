package retrieve

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ragsift/ragsift/internal/enhance"
	"github.com/ragsift/ragsift/internal/errors"
	"github.com/ragsift/ragsift/pkg/version"
)

const (
	// DefaultEndpoint is the MCP server URL used when none is configured.
	DefaultEndpoint = "http://localhost:8051/mcp"

	defaultCallTimeout = 30 * time.Second
	defaultMatchCount  = 5

	toolRAGQuery   = "perform_rag_query"
	toolSources    = "get_available_sources"
	toolCodeSearch = "search_code_examples"
)

// toolCaller is the slice of an MCP session the client uses.
// *mcp.ClientSession satisfies it; tests substitute fakes.
type toolCaller interface {
	CallTool(ctx context.Context, params *mcp.CallToolParams) (*mcp.CallToolResult, error)
	Close() error
}

// MCPClient retrieves hits, sources, and code examples from an MCP server
// over streamable HTTP. The session is opened lazily on first use and
// reopened after a failed call. Transient transport failures are retried
// with backoff; a circuit breaker makes a dead backend fail fast instead
// of burning the retry budget once per query variant.
type MCPClient struct {
	endpoint    string
	callTimeout time.Duration
	httpClient  *http.Client
	retry       errors.RetryConfig
	breaker     *errors.CircuitBreaker

	dial func(ctx context.Context) (toolCaller, error)

	mu      sync.Mutex
	session toolCaller
}

var (
	_ enhance.Retriever    = (*MCPClient)(nil)
	_ enhance.SourceLister = (*MCPClient)(nil)
	_ enhance.CodeSearcher = (*MCPClient)(nil)
)

// MCPOption configures an MCPClient.
type MCPOption func(*MCPClient)

// WithEndpoint sets the MCP server URL. Empty keeps the default.
func WithEndpoint(endpoint string) MCPOption {
	return func(c *MCPClient) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithCallTimeout sets the per-call deadline.
func WithCallTimeout(d time.Duration) MCPOption {
	return func(c *MCPClient) {
		if d > 0 {
			c.callTimeout = d
		}
	}
}

// WithHTTPClient sets the HTTP client used by the transport.
func WithHTTPClient(hc *http.Client) MCPOption {
	return func(c *MCPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetryConfig replaces the transport retry profile.
func WithRetryConfig(cfg errors.RetryConfig) MCPOption {
	return func(c *MCPClient) {
		c.retry = cfg
	}
}

// WithMaxRetries sets the retry budget, keeping the default backoff shape.
func WithMaxRetries(n int) MCPOption {
	return func(c *MCPClient) {
		if n >= 0 {
			c.retry.MaxRetries = n
		}
	}
}

// NewMCPClient creates an MCP retrieval client. No connection is made
// until the first call.
func NewMCPClient(opts ...MCPOption) *MCPClient {
	c := &MCPClient{
		endpoint:    DefaultEndpoint,
		callTimeout: defaultCallTimeout,
		retry:       errors.DefaultRetryConfig(),
		breaker:     errors.NewCircuitBreaker("mcp"),
	}
	c.dial = c.dialSession
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Retrieve fetches hits for one query via the perform_rag_query tool.
func (c *MCPClient) Retrieve(ctx context.Context, query string, opts enhance.RetrieveOptions) ([]enhance.Hit, error) {
	args := map[string]any{
		"query":       query,
		"match_count": clampMatchCount(opts.MatchCount),
	}
	if opts.Source != "" {
		args["source"] = opts.Source
	}

	text, err := c.callTool(ctx, toolRAGQuery, args)
	if err != nil {
		return nil, err
	}
	return parseHits(text)
}

// ListSources fetches the searchable sources via get_available_sources.
func (c *MCPClient) ListSources(ctx context.Context) ([]enhance.Source, error) {
	text, err := c.callTool(ctx, toolSources, map[string]any{})
	if err != nil {
		return nil, err
	}
	return parseSources(text)
}

// SearchCode fetches code examples via search_code_examples. The source
// filter maps to the tool's source_id argument.
func (c *MCPClient) SearchCode(ctx context.Context, query string, opts enhance.RetrieveOptions) ([]enhance.CodeExample, error) {
	args := map[string]any{
		"query":       query,
		"match_count": clampMatchCount(opts.MatchCount),
	}
	if opts.Source != "" {
		args["source_id"] = opts.Source
	}

	text, err := c.callTool(ctx, toolCodeSearch, args)
	if err != nil {
		return nil, err
	}
	return parseCodeExamples(text)
}

// Close shuts down the MCP session if one is open.
func (c *MCPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

// callTool invokes one tool and returns the text payload of its result.
func (c *MCPClient) callTool(ctx context.Context, tool string, args map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	start := time.Now()
	result, err := errors.CircuitExecute(c.breaker, func() (*mcp.CallToolResult, error) {
		return c.callWithRetry(ctx, tool, args)
	}, func() (*mcp.CallToolResult, error) {
		return nil, errors.New(errors.ErrCodeRetrievalUnavailable,
			"retrieval backend unavailable: circuit open", errors.ErrCircuitOpen).
			WithDetail("tool", tool).
			WithSuggestion("Wait for the backend to recover or switch to the local backend.")
	})
	if err != nil {
		return "", err
	}

	text := textContent(result)
	if result.IsError {
		return "", rejectionError(text)
	}
	if text == "" {
		return "", errors.New(errors.ErrCodeRetrievalUnavailable,
			"empty response from retrieval backend", nil).
			WithDetail("tool", tool)
	}

	slog.Debug("tool_call_complete",
		slog.String("tool", tool),
		slog.Duration("duration", time.Since(start)),
		slog.Int("response_chars", len(text)))
	return text, nil
}

// callWithRetry runs the transport call under the retry profile. Only
// connect and call failures reach the retry loop; result interpretation
// happens in the caller so tool-level rejections are never retried.
func (c *MCPClient) callWithRetry(ctx context.Context, tool string, args map[string]any) (*mcp.CallToolResult, error) {
	var lastErr error

	result, err := errors.RetryWithResult(ctx, c.retry, func() (*mcp.CallToolResult, error) {
		session, err := c.ensureSession(ctx)
		if err != nil {
			lastErr = err
			return nil, err
		}

		res, err := session.CallTool(ctx, &mcp.CallToolParams{
			Name:      tool,
			Arguments: args,
		})
		if err != nil {
			// A failed call leaves the session in an unknown state;
			// reconnect on the next attempt.
			c.dropSession(session)
			lastErr = errors.New(errors.ErrCodeRetrievalUnavailable, "tool call failed", err).
				WithDetail("tool", tool)
			return nil, lastErr
		}
		return res, nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeRetrievalTimeout, ctx.Err()).
				WithDetail("tool", tool)
		}
		return nil, lastErr
	}
	return result, nil
}

// ensureSession returns the open session, dialing one if needed.
func (c *MCPClient) ensureSession(ctx context.Context) (toolCaller, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session, nil
	}

	session, err := c.dial(ctx)
	if err != nil {
		return nil, errors.New(errors.ErrCodeRetrievalUnavailable,
			"cannot connect to retrieval backend", err).
			WithDetail("endpoint", c.endpoint).
			WithSuggestion("Check that the MCP server is running at the configured endpoint.")
	}

	slog.Debug("mcp_session_opened", slog.String("endpoint", c.endpoint))
	c.session = session
	return session, nil
}

// dropSession discards a failed session unless a newer one has already
// replaced it.
func (c *MCPClient) dropSession(failed toolCaller) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != failed {
		return
	}
	c.session = nil
	_ = failed.Close()
}

// dialSession opens a real MCP session over streamable HTTP.
func (c *MCPClient) dialSession(ctx context.Context) (toolCaller, error) {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "ragsift",
		Version: version.Version,
	}, nil)

	transport := &mcp.StreamableClientTransport{
		Endpoint:   c.endpoint,
		HTTPClient: c.httpClient,
	}

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// textContent concatenates the text blocks of a tool result.
func textContent(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var b strings.Builder
	for _, content := range result.Content {
		if tc, ok := content.(*mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

func clampMatchCount(n int) int {
	if n <= 0 {
		return defaultMatchCount
	}
	return n
}
