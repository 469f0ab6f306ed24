// Package console provides a typed Go client for the mux-console
// management API. It drives a running console the same way the web UI
// does: reading usage documents, switching the window, triggering
// refreshes and exporting reports.
package console

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nghyane/mux-console/internal/json"
)

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 8 << 20
	basePath         = "/v0/management"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the console root, e.g. http://127.0.0.1:8318.
	BaseURL string
	// Token is the management key for remote consoles. Loopback clients
	// can leave it empty.
	Token string
	// Timeout bounds each request. Zero means 30 seconds.
	Timeout time.Duration
	// HTTPClient overrides the default client. Timeout is ignored then.
	HTTPClient *http.Client
}

// Client talks to one console's management API.
type Client struct {
	base  *url.URL
	token string
	http  *http.Client
}

// New builds a client for the console at opts.BaseURL.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("console: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("console: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("console: unsupported scheme %q", base.Scheme)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{base: base, token: opts.Token, http: httpClient}, nil
}

// BaseURL returns the console endpoint the client targets.
func (c *Client) BaseURL() string { return c.base.String() }

// APIError is a non-2xx management API response.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("console: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("console: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Usage fetches the current usage document.
func (c *Client) Usage(ctx context.Context) (*Usage, error) {
	var out Usage
	if err := c.get(ctx, "/usage", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Window returns the active lookback window in milliseconds.
func (c *Client) Window(ctx context.Context) (int64, error) {
	var out struct {
		WindowMs int64 `json:"window-ms"`
	}
	if err := c.get(ctx, "/window", &out); err != nil {
		return 0, err
	}
	return out.WindowMs, nil
}

// SetWindow switches the lookback window and persists it console-side.
func (c *Client) SetWindow(ctx context.Context, windowMs int64) error {
	body := map[string]int64{"window-ms": windowMs}
	return c.do(ctx, http.MethodPut, "/window", body, nil)
}

// Refresh schedules an immediate refresh cycle.
func (c *Client) Refresh(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/refresh", nil, nil)
}

// Reports lists archived reports, newest first.
func (c *Client) Reports(ctx context.Context) ([]ReportInfo, error) {
	var out struct {
		Reports []ReportInfo `json:"reports"`
	}
	if err := c.get(ctx, "/reports", &out); err != nil {
		return nil, err
	}
	return out.Reports, nil
}

// CreateReport archives a report of the current snapshot.
func (c *Client) CreateReport(ctx context.Context) (*ReportCreated, error) {
	var out ReportCreated
	if err := c.do(ctx, http.MethodPost, "/reports", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DismissNotice removes one dashboard notice. Unknown IDs succeed.
func (c *Client) DismissNotice(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("console: notice id is required")
	}
	return c.do(ctx, http.MethodDelete, "/notices/"+url.PathEscape(id), nil, nil)
}

// Health reports console liveness plus gateway reachability.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.get(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// do performs one management request, unwrapping the {"data": ...}
// envelope into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + basePath + path

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("console: encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("console: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("console: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("console: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("console: decode response envelope: %w", err)
	}
	if len(envelope.Data) == 0 {
		return fmt.Errorf("console: response has no data")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("console: decode response data: %w", err)
	}
	return nil
}

// decodeError maps the management error envelope onto APIError. Responses
// that are not the expected envelope still produce a usable error.
func decodeError(status int, data []byte) error {
	apiErr := &APIError{StatusCode: status}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
	}
	return apiErr
}
