package console

import "time"

// Usage is the full usage document for the selected window: normalized
// totals, breakdowns, timeline buckets and the account/key listings.
type Usage struct {
	WindowMs    int64  `json:"window-ms"`
	Seq         uint64 `json:"seq"`
	RefreshedAt string `json:"refreshed-at,omitempty"`

	Totals         *Metrics `json:"totals,omitempty"`
	PreviousTotals *Metrics `json:"previous-totals,omitempty"`

	ByProvider []ScopedMetrics `json:"by-provider,omitempty"`
	ByEndpoint []ScopedMetrics `json:"by-endpoint,omitempty"`
	ByModel    []ScopedMetrics `json:"by-model,omitempty"`
	ByKey      []ScopedMetrics `json:"by-key,omitempty"`

	Buckets      []Bucket `json:"buckets,omitempty"`
	BucketSizeMs int64    `json:"bucket-size-ms,omitempty"`

	Accounts []Account `json:"accounts,omitempty"`
	Keys     []Key     `json:"keys,omitempty"`

	Notices []Notice `json:"notices,omitempty"`
}

// Metrics is one normalized set of usage counters.
type Metrics struct {
	Requests     int64 `json:"requests"`
	Success      int64 `json:"success"`
	ClientErrors int64 `json:"client-errors,omitempty"`
	ServerErrors int64 `json:"server-errors,omitempty"`
	AuthErrors   int64 `json:"auth-errors,omitempty"`
	RateLimits   int64 `json:"rate-limits,omitempty"`

	AvgLatencyMs int64 `json:"avg-latency-ms,omitempty"`
	MaxLatencyMs int64 `json:"max-latency-ms,omitempty"`

	InputTokens      int64 `json:"input-tokens,omitempty"`
	OutputTokens     int64 `json:"output-tokens,omitempty"`
	CacheReadTokens  int64 `json:"cache-read-tokens,omitempty"`
	CacheWriteTokens int64 `json:"cache-write-tokens,omitempty"`

	SuccessRate   *int   `json:"success-rate,omitempty"`
	TotalTokens   int64  `json:"total-tokens"`
	LastRequestAt *int64 `json:"last-request-at,omitempty"`
}

// ScopedMetrics tags one breakdown entry with its scope name.
type ScopedMetrics struct {
	Scope string `json:"scope"`
	Metrics
}

// Bucket is one timeline slice.
type Bucket struct {
	BucketStart int64 `json:"bucket-start"`
	Metrics
}

// Account is one provider account entry.
type Account struct {
	ID        string `json:"id"`
	Provider  string `json:"provider,omitempty"`
	Label     string `json:"label,omitempty"`
	Status    string `json:"status,omitempty"`
	Disabled  bool   `json:"disabled,omitempty"`
	CreatedAt *int64 `json:"created-at,omitempty"`
	ExpiresAt *int64 `json:"expires-at,omitempty"`
}

// Key is one API key entry. The console masks key material before it
// leaves the process.
type Key struct {
	ID         string   `json:"id"`
	MaskedKey  string   `json:"masked-key,omitempty"`
	Label      string   `json:"label,omitempty"`
	Disabled   bool     `json:"disabled,omitempty"`
	CreatedAt  *int64   `json:"created-at,omitempty"`
	LastUsedAt *int64   `json:"last-used-at,omitempty"`
	Usage      *Metrics `json:"usage,omitempty"`
}

// Notice is one dashboard notice.
type Notice struct {
	ID      string    `json:"id"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// ReportInfo describes one archived report file.
type ReportInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod-time"`
}

// ReportCreated acknowledges a freshly archived report.
type ReportCreated struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Window string `json:"window"`
}

// Health reports console liveness and gateway reachability.
type Health struct {
	Status  string         `json:"status"`
	Version string         `json:"version"`
	Gateway *GatewayHealth `json:"gateway,omitempty"`
}

// GatewayHealth is the probed state of the configured admin endpoint.
type GatewayHealth struct {
	URL    string `json:"url"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
