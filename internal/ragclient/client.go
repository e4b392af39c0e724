// Package ragclient talks to the RAG service that ingests links and answers
// questions about them. It is a plain JSON-over-HTTP client: one request per
// call, no retries.
package ragclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"linkchat/internal/logging"

	"github.com/google/uuid"
)

// DefaultBaseURL is where the service listens in a local setup.
const DefaultBaseURL = "http://127.0.0.1:8000"

// maxErrorBody caps how much of a rejected response is kept as detail.
const maxErrorBody = 4096

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration // zero means no client-side timeout
	// HTTPClient overrides the transport. Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client implements the three service endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logging.Logger
}

// New creates a Client.
func New(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: hc,
		log:        logging.Get(logging.CategoryAPI),
	}
}

// BaseURL returns the service address the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// Load asks the service to fetch, split and embed the page at link.
func (c *Client) Load(ctx context.Context, link string) (*LoadResponse, error) {
	var out LoadResponse
	if err := c.post(ctx, "load", "/load/", LoadRequest{URL: link}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Query asks a question about the most recently loaded link.
func (c *Client) Query(ctx context.Context, query string) (*QueryResponse, error) {
	var out QueryResponse
	if err := c.post(ctx, "query", "/query/", QueryRequest{Query: query}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Clear drops the indexed collection on the service.
func (c *Client) Clear(ctx context.Context) (*ClearResponse, error) {
	var out ClearResponse
	if err := c.post(ctx, "clear", "/clear/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, op, path string, in, out interface{}) error {
	requestID := uuid.NewString()
	log := c.log.With("op", op, "request_id", requestID)

	var body io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	log.Debug("POST %s", req.URL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("transport failure after %s: %v", time.Since(start), err)
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Error("transport failure reading response: %v", err)
		return &TransportError{Op: op, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail := errorDetail(data)
		log.Warn("server rejected request: status %d after %s: %s", resp.StatusCode, time.Since(start), detail)
		return &ServerRejectedError{Op: op, StatusCode: resp.StatusCode, Detail: detail}
	}

	if err := json.Unmarshal(data, out); err != nil {
		log.Error("transport failure decoding response: %v", err)
		return &TransportError{Op: op, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	log.Info("%s ok in %s", op, time.Since(start))
	return nil
}

// errorDetail extracts FastAPI's "detail" field. Validation errors carry a
// list there, which is returned as raw JSON. The result is capped at
// maxErrorBody bytes.
func errorDetail(data []byte) string {
	var eb struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &eb); err == nil && len(eb.Detail) > 0 {
		var s string
		if err := json.Unmarshal(eb.Detail, &s); err == nil {
			return truncateDetail(s)
		}
		return truncateDetail(string(eb.Detail))
	}
	return truncateDetail(strings.TrimSpace(string(data)))
}

// truncateDetail cuts s to at most maxErrorBody bytes without splitting a
// UTF-8 sequence.
func truncateDetail(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	cut := maxErrorBody
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
