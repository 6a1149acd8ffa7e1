// Package studio is a small HTTP client for the digital employee studio API.
package studio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

// DefaultHTTPTimeout defines the timeout used by clients created without a
// custom http.Client. Sessions run the whole pipeline synchronously, so it is
// longer than a typical CRUD call.
const DefaultHTTPTimeout = 60 * time.Second

// Client wraps the HTTP interactions with the studio REST API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

// Step is one entry of a session's reasoning/acting audit trail.
type Step struct {
	ID         string        `json:"id"`
	Kind       string        `json:"kind"`
	Phase      string        `json:"phase"`
	Title      string        `json:"title"`
	Content    string        `json:"content"`
	Timestamp  time.Time     `json:"timestamp"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration,omitempty"`
	Confidence float64       `json:"confidence"`
	Status     string        `json:"status"`
	Error      string        `json:"error,omitempty"`
}

// Session mirrors the server's session snapshot. Configuration payloads are
// kept as generic maps so the SDK does not pin the form schema.
type Session struct {
	ID            string            `json:"id"`
	Mode          string            `json:"mode"`
	Status        string            `json:"status"`
	Input         string            `json:"input"`
	Steps         []Step            `json:"steps"`
	CurrentConfig map[string]any    `json:"current_config,omitempty"`
	Validation    map[string]any    `json:"validation,omitempty"`
	Questions     []string          `json:"questions,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	ErrorCode     string            `json:"error_code,omitempty"`
	LastError     string            `json:"last_error,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Analysis is the standalone intent analysis result.
type Analysis struct {
	Intent      string         `json:"intent"`
	Confidence  float64        `json:"confidence"`
	Entities    map[string]any `json:"entities"`
	MissingInfo []string       `json:"missing_info"`
	Suggestions []string       `json:"suggestions"`
}

// Stats summarises the sessions held by the server.
type Stats struct {
	Total    int            `json:"total"`
	Busy     int            `json:"busy"`
	ByStatus map[string]int `json:"by_status"`
	ByMode   map[string]int `json:"by_mode"`
}

// ListQuery filters ListSessions and Stats. Zero values are omitted.
type ListQuery struct {
	Statuses  []string
	Modes     []string
	Query     string
	Limit     int
	Offset    int
	Ascending bool
}

// APIError represents server side validation or internal errors.
type APIError struct {
	StatusCode int
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Retryable  bool              `json:"retryable"`
	Metadata   map[string]string `json:"metadata"`
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return fmt.Sprintf("studio api error (%d): %s - %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("studio api error (%d): %s", e.StatusCode, e.Message)
}

// NewClient instantiates a client for the studio API. When httpClient is nil,
// a default client with DefaultHTTPTimeout is used.
func NewClient(rawURL string, httpClient *http.Client) (*Client, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	return &Client{baseURL: parsed, httpClient: httpClient}, nil
}

// CreateSession opens a session. A non-empty input is processed immediately.
func (c *Client) CreateSession(ctx context.Context, mode, input string) (Session, error) {
	var sess Session
	payload := map[string]string{"mode": mode, "input": input}
	err := c.send(ctx, http.MethodPost, "/api/v1/sessions", nil, payload, &sess)
	return sess, err
}

// GetSession fetches a session snapshot.
func (c *Client) GetSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := c.send(ctx, http.MethodGet, "/api/v1/sessions/"+url.PathEscape(id), nil, nil, &sess)
	return sess, err
}

// SubmitInput runs one round of the pipeline for the session.
func (c *Client) SubmitInput(ctx context.Context, id, input string) (Session, error) {
	var sess Session
	err := c.send(ctx, http.MethodPost, "/api/v1/sessions/"+url.PathEscape(id)+"/input", nil,
		map[string]string{"input": input}, &sess)
	return sess, err
}

// PatchConfig applies a JSON merge patch to the session's current config.
func (c *Client) PatchConfig(ctx context.Context, id string, patch map[string]any) (Session, error) {
	var sess Session
	err := c.send(ctx, http.MethodPatch, "/api/v1/sessions/"+url.PathEscape(id)+"/config", nil, patch, &sess)
	return sess, err
}

// DeleteSession removes a session.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/v1/sessions/"+url.PathEscape(id), nil, nil, nil)
}

// ListSessions returns sessions matching q.
func (c *Client) ListSessions(ctx context.Context, q ListQuery) ([]Session, error) {
	var out struct {
		Sessions []Session `json:"sessions"`
	}
	if err := c.send(ctx, http.MethodGet, "/api/v1/sessions", q.values(), nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// Stats returns aggregate session counts.
func (c *Client) Stats(ctx context.Context, q ListQuery) (Stats, error) {
	var stats Stats
	err := c.send(ctx, http.MethodGet, "/api/v1/stats", q.values(), nil, &stats)
	return stats, err
}

// Analyze runs intent analysis without creating a session.
func (c *Client) Analyze(ctx context.Context, input string) (Analysis, error) {
	var analysis Analysis
	err := c.send(ctx, http.MethodPost, "/api/v1/analyze", nil, map[string]string{"input": input}, &analysis)
	return analysis, err
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if len(q.Statuses) > 0 {
		v.Set("status", strings.Join(q.Statuses, ","))
	}
	if len(q.Modes) > 0 {
		v.Set("mode", strings.Join(q.Modes, ","))
	}
	if q.Query != "" {
		v.Set("q", q.Query)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if q.Ascending {
		v.Set("order", "asc")
	}
	return v
}

func (c *Client) send(ctx context.Context, method, endpoint string, query url.Values, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	rel := &url.URL{Path: path.Join(c.baseURL.Path, endpoint), RawQuery: query.Encode()}
	u := c.baseURL.ResolveReference(rel)
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := APIError{StatusCode: resp.StatusCode}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read error response: %w", err)
		}
		if len(data) > 0 {
			_ = json.Unmarshal(data, &struct {
				Error *APIError `json:"error"`
			}{Error: &apiErr})
		}
		if apiErr.Message == "" {
			apiErr.Message = string(bytes.TrimSpace(data))
		}
		return &apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
