package metrics

import "math"

// Normalize converts a raw record into complete metrics. It is total over its
// input domain: a nil or empty record yields all-zero counts with a nil
// success rate, negative values coerce to zero, and no input shape can make
// it fail. Applying Normalize to the wire form of its own output is the
// identity.
func Normalize(raw *Record) Metrics {
	if raw == nil {
		return Metrics{}
	}

	m := Metrics{
		RequestCount:     nonNegative(raw.RequestCount),
		SuccessCount:     nonNegative(raw.SuccessCount),
		ClientErrorCount: nonNegative(raw.ClientErrorCount),
		ServerErrorCount: nonNegative(raw.ServerErrorCount),
		AuthErrorCount:   nonNegative(raw.AuthErrorCount),
		RateLimitCount:   nonNegative(raw.RateLimitCount),
		AvgLatencyMs:     nonNegative(raw.AvgLatencyMs),
		MaxLatencyMs:     nonNegative(raw.MaxLatencyMs),
		InputTokens:      nonNegative(raw.InputTokens),
		OutputTokens:     nonNegative(raw.OutputTokens),
		CacheReadTokens:  nonNegative(raw.CacheReadTokens),
		CacheWriteTokens: nonNegative(raw.CacheWriteTokens),
	}

	m.TotalTokens = m.InputTokens + m.OutputTokens

	if m.RequestCount > 0 {
		rate := roundHalfUp(float64(m.SuccessCount) / float64(m.RequestCount) * 100)
		m.SuccessRate = &rate
	}

	if raw.LastRequestAt != nil {
		ts := *raw.LastRequestAt
		m.LastRequestAt = &ts
	}

	return m
}

// NormalizeAll maps Normalize over a slice of records. A nil slice yields nil.
func NormalizeAll(raws []Record) []Metrics {
	if len(raws) == 0 {
		return nil
	}
	out := make([]Metrics, len(raws))
	for i := range raws {
		out[i] = Normalize(&raws[i])
	}
	return out
}

func nonNegative(n int64) int64 {
	if n < 0 {
		return 0
	}
	return n
}

// roundHalfUp rounds the real-valued percentage with ties going up, matching
// how the rates were rounded upstream.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
