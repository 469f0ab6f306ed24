package adminapi

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/proxy"

	"github.com/nghyane/mux-console/internal/buildinfo"
)

const (
	defaultTimeout   = 15 * time.Second
	maxResponseBytes = 8 << 20
)

// Options configures a Client for one admin endpoint.
type Options struct {
	BaseURL string
	// Token is the opaque management bearer token. It is attached to
	// requests and never logged.
	Token string
	// ProxyURL routes requests through a socks5:// or http(s):// proxy.
	ProxyURL string
	Timeout  time.Duration
	// Headers are extra headers sent with every request.
	Headers map[string]string
}

// Client talks to one admin API endpoint.
type Client struct {
	base    *url.URL
	token   string
	headers map[string]string
	http    *http.Client
	tracer  trace.Tracer
}

// New builds a client for the endpoint described by opts.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("adminapi: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("adminapi: parse base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("adminapi: unsupported scheme %q", base.Scheme)
	}
	transport, err := buildTransport(opts.ProxyURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		base:    base,
		token:   opts.Token,
		headers: opts.Headers,
		http:    &http.Client{Timeout: timeout, Transport: transport},
		tracer:  otel.Tracer("mux-console/adminapi"),
	}, nil
}

// BaseURL returns the endpoint the client targets, without credentials.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// buildTransport wires the optional egress proxy. SOCKS5 proxies dial
// through x/net; HTTP(S) proxies use the transport's own support.
func buildTransport(proxyURL string) (*http.Transport, error) {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		// Compression is negotiated manually so brotli works too.
		DisableCompression: true,
		MaxIdleConns:       16,
		IdleConnTimeout:    90 * time.Second,
	}
	proxyURL = strings.TrimSpace(proxyURL)
	if proxyURL == "" {
		return transport, nil
	}
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("adminapi: parse proxy URL: %w", err)
	}
	switch u.Scheme {
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(u, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("adminapi: socks5 proxy: %w", err)
		}
		transport.Proxy = nil
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		}
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
	default:
		return nil, fmt.Errorf("adminapi: unsupported proxy scheme %q", u.Scheme)
	}
	return transport, nil
}

// Usage fetches the global usage aggregate for windowMs.
func (c *Client) Usage(ctx context.Context, windowMs int64) (*UsagePayload, error) {
	return c.usage(ctx, "/admin/usage", windowMs)
}

// AccountUsage fetches usage scoped to one provider account.
func (c *Client) AccountUsage(ctx context.Context, accountID string, windowMs int64) (*UsagePayload, error) {
	return c.usage(ctx, "/admin/accounts/"+url.PathEscape(accountID)+"/usage", windowMs)
}

// KeyUsage fetches usage scoped to one API key.
func (c *Client) KeyUsage(ctx context.Context, keyID string, windowMs int64) (*UsagePayload, error) {
	return c.usage(ctx, "/admin/keys/"+url.PathEscape(keyID)+"/usage", windowMs)
}

func (c *Client) usage(ctx context.Context, path string, windowMs int64) (*UsagePayload, error) {
	q := url.Values{}
	if windowMs > 0 {
		q.Set("windowMs", strconv.FormatInt(windowMs, 10))
	}
	body, err := c.get(ctx, path, q)
	if err != nil {
		return nil, err
	}
	return ParseUsage(body)
}

// Accounts lists provider accounts.
func (c *Client) Accounts(ctx context.Context) ([]Account, error) {
	body, err := c.get(ctx, "/admin/accounts", nil)
	if err != nil {
		return nil, err
	}
	return ParseAccounts(body)
}

// Keys lists API keys.
func (c *Client) Keys(ctx context.Context) ([]Key, error) {
	body, err := c.get(ctx, "/admin/keys", nil)
	if err != nil {
		return nil, err
	}
	return ParseKeys(body)
}

// Health probes the admin API root health endpoint.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.get(ctx, "/health", nil)
	return err
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "adminapi.get",
		trace.WithAttributes(attribute.String("http.route", path)))
	defer span.End()

	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("adminapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip, br")
	req.Header.Set("User-Agent", "mux-console/"+buildinfo.Version)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("adminapi: GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}
	body, err := decodeBody(resp)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("adminapi: read %s: %w", path, err)
	}
	return body, nil
}

func statusError(resp *http.Response) error {
	se := &StatusError{StatusCode: resp.StatusCode}
	if body, err := decodeBody(resp); err == nil {
		if msg := gjson.GetBytes(body, "error.message"); msg.Exists() {
			se.Message = msg.String()
		} else if s := strings.TrimSpace(string(body)); s != "" && len(s) <= 256 {
			se.Message = s
		}
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		se.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
	}
	return se
}

// decodeBody reads the response, transparently undoing gzip or brotli
// content encoding, capped at maxResponseBytes.
func decodeBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	case "br":
		reader = brotli.NewReader(resp.Body)
	}
	return io.ReadAll(io.LimitReader(reader, maxResponseBytes))
}
