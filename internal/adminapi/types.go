// Package adminapi is the client for the gateway admin API: listings,
// usage aggregates and health. Decoding is tolerant; missing or malformed
// metric fields default to zero at the normalizer boundary.
package adminapi

import (
	"github.com/nghyane/mux-console/internal/metrics"
)

// UsagePayload is the aggregate usage document the admin API returns for
// one lookback window.
type UsagePayload struct {
	Totals         metrics.Record
	PreviousTotals *metrics.Record

	ByProvider []ScopedRecord
	ByEndpoint []ScopedRecord
	ByModel    []ScopedRecord
	ByKey      []ScopedRecord

	Buckets      []metrics.Bucket
	BucketSizeMs int64
	WindowMs     int64
}

// ScopedRecord tags one breakdown record with the scope it aggregates: a
// provider id, an endpoint path, a model id or a key label.
type ScopedRecord struct {
	Scope string
	metrics.Record
}

// Account is one provider account listing entry.
type Account struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Label    string `json:"label"`
	Status   string `json:"status"`
	Disabled bool   `json:"disabled"`

	CreatedAt *int64 `json:"createdAt,omitempty"`
	ExpiresAt *int64 `json:"expiresAt,omitempty"`
}

// Key is one API key listing entry. Key material is masked before any
// rendering and never logged.
type Key struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`

	CreatedAt  *int64 `json:"createdAt,omitempty"`
	LastUsedAt *int64 `json:"lastUsedAt,omitempty"`
}
