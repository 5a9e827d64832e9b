// Package catalog submits converted glossary records to an OpenMetadata
// server, one create request per row.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxResponseBody caps how much of a response body is read.
const maxResponseBody = 1 << 20

// termsPath is the glossary term collection endpoint.
const termsPath = "/api/v1/glossaryTerms"

// ErrNotConfigured is returned when no catalog base URL is set.
var ErrNotConfigured = errors.New("catalog not configured")

// Client is an HTTP client for the catalog REST API. It does not retry.
type Client struct {
	baseURL *url.URL
	token   string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL. token, if set, is
// sent as a bearer token. timeout bounds each request.
func NewClient(baseURL, token string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, ErrNotConfigured
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid catalog URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid catalog URL %q: scheme must be http or https", baseURL)
	}

	return &Client{
		baseURL: u,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// CreateTerm creates one glossary term.
func (c *Client) CreateTerm(ctx context.Context, req CreateTermRequest) (*Term, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal term %q: %w", req.Name, err)
	}

	data, err := c.do(ctx, http.MethodPost, termsPath, body)
	if err != nil {
		return nil, err
	}

	var term Term
	if err := json.Unmarshal(data, &term); err != nil {
		return nil, fmt.Errorf("decode term response: %w", err)
	}
	return &term, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read catalog response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, parseAPIError(resp.StatusCode, data)
	}
	return data, nil
}

// APIError is a non-2xx response from the catalog.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("catalog error %d: %s", e.StatusCode, e.Message)
}

// IsConflict reports whether the term already exists.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == http.StatusConflict
}

// IsUnauthorized reports whether the token was missing or rejected.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

func parseAPIError(status int, body []byte) error {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return &APIError{StatusCode: status, Message: payload.Message}
	}

	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &APIError{StatusCode: status, Message: msg}
}
