package metrics

import "testing"

func TestNormalizeNilAndEmpty(t *testing.T) {
	for _, tt := range []struct {
		name string
		raw  *Record
	}{
		{"nil record", nil},
		{"empty record", &Record{}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			m := Normalize(tt.raw)
			if m.RequestCount != 0 || m.SuccessCount != 0 || m.ClientErrorCount != 0 ||
				m.ServerErrorCount != 0 || m.AuthErrorCount != 0 || m.RateLimitCount != 0 {
				t.Errorf("expected all-zero counts, got %+v", m)
			}
			if m.InputTokens != 0 || m.OutputTokens != 0 || m.TotalTokens != 0 {
				t.Errorf("expected all-zero tokens, got %+v", m)
			}
			if m.SuccessRate != nil {
				t.Errorf("expected nil success rate, got %d", *m.SuccessRate)
			}
			if m.LastRequestAt != nil {
				t.Errorf("expected nil last-request time, got %d", *m.LastRequestAt)
			}
		})
	}
}

func TestNormalizeSuccessRate(t *testing.T) {
	tests := []struct {
		name     string
		requests int64
		success  int64
		want     int
	}{
		{"all success", 10, 10, 100},
		{"none succeeded", 10, 0, 0},
		{"one third rounds down", 3, 1, 33},
		{"two thirds rounds up", 3, 2, 67},
		{"half-up tie", 8, 1, 13},   // 12.5 -> 13
		{"half-up tie 2", 200, 85, 43}, // 42.5 -> 43
		{"inconsistent upstream exceeds 100", 10, 12, 120},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Normalize(&Record{RequestCount: tt.requests, SuccessCount: tt.success})
			if m.SuccessRate == nil {
				t.Fatalf("expected success rate, got nil")
			}
			if *m.SuccessRate != tt.want {
				t.Errorf("success rate = %d, want %d", *m.SuccessRate, tt.want)
			}
		})
	}
}

func TestNormalizeTotalTokensExcludesCache(t *testing.T) {
	tests := []struct {
		name                          string
		input, output, cacheR, cacheW int64
		want                          int64
	}{
		{"plain", 100, 50, 0, 0, 150},
		{"cache reads excluded", 100, 50, 900, 0, 150},
		{"cache writes excluded", 100, 50, 0, 400, 150},
		{"both cache kinds excluded", 7, 3, 1000, 1000, 10},
		{"zero everything", 0, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Normalize(&Record{
				InputTokens:      tt.input,
				OutputTokens:     tt.output,
				CacheReadTokens:  tt.cacheR,
				CacheWriteTokens: tt.cacheW,
			})
			if m.TotalTokens != tt.want {
				t.Errorf("total tokens = %d, want %d", m.TotalTokens, tt.want)
			}
			if m.CacheReadTokens != tt.cacheR || m.CacheWriteTokens != tt.cacheW {
				t.Errorf("cache tokens not preserved: %+v", m)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	ts := int64(1700000000000)
	raw := &Record{
		RequestCount:     250,
		SuccessCount:     240,
		ClientErrorCount: 6,
		ServerErrorCount: 2,
		AuthErrorCount:   1,
		RateLimitCount:   1,
		AvgLatencyMs:     812,
		MaxLatencyMs:     4720,
		InputTokens:      12345,
		OutputTokens:     6789,
		CacheReadTokens:  4000,
		CacheWriteTokens: 512,
		LastRequestAt:    &ts,
	}

	once := Normalize(raw)
	rewired := once.AsRecord()
	twice := Normalize(&rewired)

	if once.RequestCount != twice.RequestCount || once.TotalTokens != twice.TotalTokens ||
		once.AvgLatencyMs != twice.AvgLatencyMs || once.CacheWriteTokens != twice.CacheWriteTokens {
		t.Errorf("normalize not idempotent: %+v vs %+v", once, twice)
	}
	if (once.SuccessRate == nil) != (twice.SuccessRate == nil) {
		t.Fatalf("success rate nilness diverged")
	}
	if once.SuccessRate != nil && *once.SuccessRate != *twice.SuccessRate {
		t.Errorf("success rate diverged: %d vs %d", *once.SuccessRate, *twice.SuccessRate)
	}
	if (once.LastRequestAt == nil) != (twice.LastRequestAt == nil) {
		t.Fatalf("last-request nilness diverged")
	}
	if once.LastRequestAt != nil && *once.LastRequestAt != *twice.LastRequestAt {
		t.Errorf("last-request diverged")
	}
}

func TestNormalizeCoercesNegatives(t *testing.T) {
	m := Normalize(&Record{RequestCount: -5, InputTokens: -100, OutputTokens: 20, AvgLatencyMs: -1})
	if m.RequestCount != 0 {
		t.Errorf("request count = %d, want 0", m.RequestCount)
	}
	if m.InputTokens != 0 || m.TotalTokens != 20 {
		t.Errorf("tokens = in %d total %d, want 0 and 20", m.InputTokens, m.TotalTokens)
	}
	if m.AvgLatencyMs != 0 {
		t.Errorf("avg latency = %d, want 0", m.AvgLatencyMs)
	}
	if m.SuccessRate != nil {
		t.Errorf("expected nil success rate after coercion, got %d", *m.SuccessRate)
	}
}

func TestNormalizeCopiesTimestamp(t *testing.T) {
	ts := int64(42)
	m := Normalize(&Record{LastRequestAt: &ts})
	if m.LastRequestAt == nil || *m.LastRequestAt != 42 {
		t.Fatalf("timestamp not passed through")
	}
	ts = 99
	if *m.LastRequestAt != 42 {
		t.Errorf("normalized timestamp aliases the input pointer")
	}
}

func TestNormalizeAll(t *testing.T) {
	if got := NormalizeAll(nil); got != nil {
		t.Errorf("NormalizeAll(nil) = %v, want nil", got)
	}
	out := NormalizeAll([]Record{{RequestCount: 4, SuccessCount: 2}, {}})
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].SuccessRate == nil || *out[0].SuccessRate != 50 {
		t.Errorf("first rate wrong: %+v", out[0].SuccessRate)
	}
	if out[1].SuccessRate != nil {
		t.Errorf("second rate should be nil")
	}
}

func TestErrorTotal(t *testing.T) {
	m := Normalize(&Record{ClientErrorCount: 1, ServerErrorCount: 2, AuthErrorCount: 3, RateLimitCount: 4})
	if got := m.ErrorTotal(); got != 10 {
		t.Errorf("error total = %d, want 10", got)
	}
}
