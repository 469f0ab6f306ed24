package management

import (
	"time"

	"github.com/nghyane/mux-console/internal/adminapi"
	"github.com/nghyane/mux-console/internal/format"
	"github.com/nghyane/mux-console/internal/metrics"
	"github.com/nghyane/mux-console/internal/state"
)

// UsageResponse is the full usage document for the selected window:
// normalized totals, breakdowns, buckets and the listings that render next
// to them.
type UsageResponse struct {
	WindowMs    int64  `json:"window-ms"`
	Seq         uint64 `json:"seq"`
	RefreshedAt string `json:"refreshed-at,omitempty"`

	Totals         *MetricsPayload `json:"totals,omitempty"`
	PreviousTotals *MetricsPayload `json:"previous-totals,omitempty"`

	ByProvider []ScopedMetricsPayload `json:"by-provider,omitempty"`
	ByEndpoint []ScopedMetricsPayload `json:"by-endpoint,omitempty"`
	ByModel    []ScopedMetricsPayload `json:"by-model,omitempty"`
	ByKey      []ScopedMetricsPayload `json:"by-key,omitempty"`

	Buckets      []BucketPayload `json:"buckets,omitempty"`
	BucketSizeMs int64           `json:"bucket-size-ms,omitempty"`

	Accounts []AccountPayload `json:"accounts,omitempty"`
	Keys     []KeyPayload     `json:"keys,omitempty"`

	Notices []state.Notice `json:"notices,omitempty"`
}

// MetricsPayload mirrors normalized metrics with wire tags.
type MetricsPayload struct {
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

// ScopedMetricsPayload tags one breakdown entry with its scope.
type ScopedMetricsPayload struct {
	Scope string `json:"scope"`
	MetricsPayload
}

// BucketPayload is one timeline slice.
type BucketPayload struct {
	BucketStart int64 `json:"bucket-start"`
	MetricsPayload
}

// AccountPayload is one provider account entry.
type AccountPayload struct {
	ID        string `json:"id"`
	Provider  string `json:"provider,omitempty"`
	Label     string `json:"label,omitempty"`
	Status    string `json:"status,omitempty"`
	Disabled  bool   `json:"disabled,omitempty"`
	CreatedAt *int64 `json:"created-at,omitempty"`
	ExpiresAt *int64 `json:"expires-at,omitempty"`
}

// KeyPayload is one API key entry. Key material leaves the console masked.
type KeyPayload struct {
	ID         string          `json:"id"`
	MaskedKey  string          `json:"masked-key,omitempty"`
	Label      string          `json:"label,omitempty"`
	Disabled   bool            `json:"disabled,omitempty"`
	CreatedAt  *int64          `json:"created-at,omitempty"`
	LastUsedAt *int64          `json:"last-used-at,omitempty"`
	Usage      *MetricsPayload `json:"usage,omitempty"`
}

// ReportCreatedResponse acknowledges an archived report.
type ReportCreatedResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Window string `json:"window"`
}

// HealthResponse reports console liveness and gateway reachability.
type HealthResponse struct {
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

func metricsPayload(m metrics.Metrics) MetricsPayload {
	return MetricsPayload{
		Requests:         m.RequestCount,
		Success:          m.SuccessCount,
		ClientErrors:     m.ClientErrorCount,
		ServerErrors:     m.ServerErrorCount,
		AuthErrors:       m.AuthErrorCount,
		RateLimits:       m.RateLimitCount,
		AvgLatencyMs:     m.AvgLatencyMs,
		MaxLatencyMs:     m.MaxLatencyMs,
		InputTokens:      m.InputTokens,
		OutputTokens:     m.OutputTokens,
		CacheReadTokens:  m.CacheReadTokens,
		CacheWriteTokens: m.CacheWriteTokens,
		SuccessRate:      m.SuccessRate,
		TotalTokens:      m.TotalTokens,
		LastRequestAt:    m.LastRequestAt,
	}
}

func recordPayload(r *metrics.Record) *MetricsPayload {
	if r == nil {
		return nil
	}
	p := metricsPayload(metrics.Normalize(r))
	return &p
}

func scopedPayloads(records []adminapi.ScopedRecord) []ScopedMetricsPayload {
	if len(records) == 0 {
		return nil
	}
	out := make([]ScopedMetricsPayload, len(records))
	for i, sr := range records {
		out[i] = ScopedMetricsPayload{
			Scope:          sr.Scope,
			MetricsPayload: metricsPayload(metrics.Normalize(&sr.Record)),
		}
	}
	return out
}

func bucketPayloads(buckets []metrics.Bucket) []BucketPayload {
	if len(buckets) == 0 {
		return nil
	}
	out := make([]BucketPayload, len(buckets))
	for i, b := range buckets {
		out[i] = BucketPayload{
			BucketStart:    b.BucketStart,
			MetricsPayload: metricsPayload(metrics.Normalize(&b.Record)),
		}
	}
	return out
}

func accountPayloads(accounts []adminapi.Account) []AccountPayload {
	if len(accounts) == 0 {
		return nil
	}
	out := make([]AccountPayload, len(accounts))
	for i, a := range accounts {
		out[i] = AccountPayload{
			ID:        a.ID,
			Provider:  a.Provider,
			Label:     a.Label,
			Status:    a.Status,
			Disabled:  a.Disabled,
			CreatedAt: a.CreatedAt,
			ExpiresAt: a.ExpiresAt,
		}
	}
	return out
}

func keyPayloads(keys []adminapi.Key, usage map[string]*adminapi.UsagePayload) []KeyPayload {
	if len(keys) == 0 {
		return nil
	}
	out := make([]KeyPayload, len(keys))
	for i, k := range keys {
		p := KeyPayload{
			ID:         k.ID,
			MaskedKey:  format.MaskKey(k.Key),
			Label:      k.Label,
			Disabled:   k.Disabled,
			CreatedAt:  k.CreatedAt,
			LastUsedAt: k.LastUsedAt,
		}
		if u, ok := usage[k.ID]; ok && u != nil {
			p.Usage = recordPayload(&u.Totals)
		}
		out[i] = p
	}
	return out
}

func formatRefreshedAt(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
