package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBytes = 32 << 20

var (
	ErrMalformedResponse = errors.New("upstream returned malformed response")
	ErrUnreachable       = errors.New("backend unreachable")
	ErrUnavailable       = errors.New("backend temporarily unavailable")
)

// Request is one call to the backend API
type Request struct {
	Method      string
	Path        string // path below the base URL, e.g. /api/jobs/
	RawQuery    string
	Body        []byte
	ContentType string // forwarded verbatim so multipart boundaries survive
	Token       string
	Header      http.Header // extra headers to forward
}

// WithToken returns a copy of the request authorized with tok
func (r Request) WithToken(tok string) Request {
	r.Token = tok
	return r
}

// Response is a backend reply whose body is known to be JSON (or empty)
type Response struct {
	StatusCode int
	Header     http.Header
	Body       json.RawMessage
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	return json.Unmarshal(r.Body, v)
}

// Client forwards requests to the backend API
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	breaker     *CircuitBreaker
	refreshPath string
	logger      *slog.Logger
}

// NewClient creates a backend client for baseURL
func NewClient(baseURL string, timeout time.Duration, refreshPath string, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q: scheme and host required", baseURL)
	}
	return &Client{
		baseURL: u,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker:     NewCircuitBreaker(),
		refreshPath: refreshPath,
		logger:      logger,
	}, nil
}

// BaseURL returns the backend base URL without trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// CircuitStats returns the breaker state for the backend host
func (c *Client) CircuitStats() CircuitStats {
	return c.breaker.GetStats(c.baseURL.Host)
}

// Do sends req and returns the backend response. The status is relayed
// untouched; a body that is not JSON yields ErrMalformedResponse together
// with the response so callers can still see the status.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	host := c.baseURL.Host
	if !c.breaker.Allow(host) {
		return nil, &CircuitOpenError{Host: host, Stats: c.breaker.GetStats(host)}
	}

	target := *c.baseURL
	target.Path = c.baseURL.Path + "/" + strings.TrimLeft(req.Path, "/")
	target.RawQuery = req.RawQuery

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	outReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend request: %w", err)
	}
	for k, vv := range req.Header {
		for _, v := range vv {
			outReq.Header.Add(k, v)
		}
	}
	outReq.Header.Set("Accept", "application/json")
	if len(req.Body) > 0 {
		contentType := req.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		outReq.Header.Set("Content-Type", contentType)
	}
	if req.Token != "" {
		outReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(outReq)
	if err != nil {
		// Client disconnect is not a backend failure
		if errors.Is(err, context.Canceled) || ctx.Err() == context.Canceled {
			c.logger.DebugContext(ctx, "backend: request canceled by client", "path", req.Path)
			return nil, err
		}
		c.breaker.RecordFailure(host)
		c.logger.ErrorContext(ctx, "backend: request failed",
			"method", method,
			"path", req.Path,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.breaker.RecordFailure(host)
		return nil, fmt.Errorf("%w: reading body: %v", ErrUnreachable, err)
	}

	if resp.StatusCode >= 500 {
		c.breaker.RecordFailure(host)
	} else {
		c.breaker.RecordSuccess(host)
	}

	c.logger.DebugContext(ctx, "backend: response received",
		"method", method,
		"path", req.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"authorized", req.Token != "",
	)

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return out, nil
	}
	if !json.Valid(trimmed) {
		c.logger.WarnContext(ctx, "backend: non-JSON response",
			"path", req.Path,
			"status", resp.StatusCode,
			"content_type", resp.Header.Get("Content-Type"),
		)
		return out, fmt.Errorf("%w: %s %s returned status %d with content type %q",
			ErrMalformedResponse, method, req.Path, resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	out.Body = json.RawMessage(trimmed)
	return out, nil
}
