// Package metrics defines the usage metric shapes exchanged with the admin API
// and the normalization that turns partial wire records into complete, derived
// view values.
package metrics

// Record is a raw usage record as decoded from the wire. Any field may be
// missing from the payload; missing counts and tokens decode to zero and a
// missing timestamp stays nil.
type Record struct {
	RequestCount     int64 `json:"requestCount"`
	SuccessCount     int64 `json:"successCount"`
	ClientErrorCount int64 `json:"clientErrorCount"`
	ServerErrorCount int64 `json:"serverErrorCount"`
	AuthErrorCount   int64 `json:"authErrorCount"`
	RateLimitCount   int64 `json:"rateLimitCount"`

	AvgLatencyMs int64 `json:"avgLatencyMs"`
	MaxLatencyMs int64 `json:"maxLatencyMs"`

	InputTokens      int64 `json:"inputTokens"`
	OutputTokens     int64 `json:"outputTokens"`
	CacheReadTokens  int64 `json:"cacheReadTokens"`
	CacheWriteTokens int64 `json:"cacheWriteTokens"`

	// LastRequestAt is epoch milliseconds; nil when the upstream has never
	// seen a request for this scope.
	LastRequestAt *int64 `json:"lastRequestAt,omitempty"`

	// Providers carries per-provider sub-records on account rollups.
	Providers []ProviderRecord `json:"providers,omitempty"`
}

// ProviderRecord is a Record scoped to a single provider within an account
// rollup.
type ProviderRecord struct {
	Provider string `json:"provider"`
	Record
}

// Bucket is a Record accumulated over one fixed time slice. Ordered,
// chronologically increasing bucket slices form a timeline. Buckets are
// display-only projections and are never mutated after decode.
type Bucket struct {
	BucketStart int64 `json:"bucketStart"`
	Record
}

// Metrics is the normalized, total form of a Record: every count and token is
// a non-negative integer, plus the derived fields views render from.
type Metrics struct {
	RequestCount     int64
	SuccessCount     int64
	ClientErrorCount int64
	ServerErrorCount int64
	AuthErrorCount   int64
	RateLimitCount   int64

	AvgLatencyMs int64
	MaxLatencyMs int64

	InputTokens      int64
	OutputTokens     int64
	CacheReadTokens  int64
	CacheWriteTokens int64

	// SuccessRate is the rounded success percentage, nil when no requests
	// were observed. It is not clamped: inconsistent upstream counts pass
	// through and can exceed 100.
	SuccessRate *int

	// TotalTokens is input plus output. Cache tokens are excluded: they
	// represent reused capacity, not newly consumed capacity.
	TotalTokens int64

	LastRequestAt *int64
}

// ErrorTotal is the sum of the four error categories. The categories are
// trusted to partition failures; overlapping upstream counts inflate the sum.
func (m Metrics) ErrorTotal() int64 {
	return m.ClientErrorCount + m.ServerErrorCount + m.AuthErrorCount + m.RateLimitCount
}

// AsRecord converts normalized metrics back to the wire shape. Derived fields
// are dropped; re-normalizing the result reproduces m exactly.
func (m Metrics) AsRecord() Record {
	r := Record{
		RequestCount:     m.RequestCount,
		SuccessCount:     m.SuccessCount,
		ClientErrorCount: m.ClientErrorCount,
		ServerErrorCount: m.ServerErrorCount,
		AuthErrorCount:   m.AuthErrorCount,
		RateLimitCount:   m.RateLimitCount,
		AvgLatencyMs:     m.AvgLatencyMs,
		MaxLatencyMs:     m.MaxLatencyMs,
		InputTokens:      m.InputTokens,
		OutputTokens:     m.OutputTokens,
		CacheReadTokens:  m.CacheReadTokens,
		CacheWriteTokens: m.CacheWriteTokens,
	}
	if m.LastRequestAt != nil {
		ts := *m.LastRequestAt
		r.LastRequestAt = &ts
	}
	return r
}
