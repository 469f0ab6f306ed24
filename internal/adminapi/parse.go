package adminapi

import (
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/nghyane/mux-console/internal/json"
	"github.com/nghyane/mux-console/internal/metrics"
)

// defaultBucketSizeMs matches the gateway's one-minute aggregation slices.
const defaultBucketSizeMs = 60_000

// scopeFields are probed in order to label a breakdown element. Older
// gateways tag elements differently per array, so the probe covers all
// spellings.
var scopeFields = []string{"provider", "endpoint", "model", "key", "keyId", "label", "name", "id"}

// ParseUsage decodes an aggregate usage document. Unknown fields are
// ignored, missing counts default to zero, and legacy array spellings
// (endpoints, models, apiKeys) are accepted alongside the current ones.
func ParseUsage(data []byte) (*UsagePayload, error) {
	data = StripUndefined(data)
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("adminapi: usage payload is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("adminapi: usage payload is not an object")
	}

	p := &UsagePayload{BucketSizeMs: defaultBucketSizeMs}
	if totals := root.Get("totals"); totals.IsObject() {
		p.Totals = decodeRecord(totals)
	}
	if prev := root.Get("previousTotals"); prev.IsObject() {
		r := decodeRecord(prev)
		p.PreviousTotals = &r
	}

	p.ByProvider = parseScoped(root, "byProvider", "")
	p.ByEndpoint = parseScoped(root, "byEndpoint", "endpoints")
	p.ByModel = parseScoped(root, "byModel", "models")
	p.ByKey = parseScoped(root, "byKey", "apiKeys")

	// Gateways predating the byProvider array nest per-provider records
	// under totals instead.
	if len(p.ByProvider) == 0 {
		for _, pr := range p.Totals.Providers {
			p.ByProvider = append(p.ByProvider, ScopedRecord{Scope: pr.Provider, Record: pr.Record})
		}
	}

	if b := root.Get("buckets"); b.IsArray() {
		b.ForEach(func(_, el gjson.Result) bool {
			if !el.IsObject() {
				return true
			}
			p.Buckets = append(p.Buckets, metrics.Bucket{
				BucketStart: el.Get("bucketStart").Int(),
				Record:      decodeRecord(el),
			})
			return true
		})
	}

	if v := root.Get("bucketSizeMs"); v.Int() > 0 {
		p.BucketSizeMs = v.Int()
	}
	if v := root.Get("windowMs"); v.Int() > 0 {
		p.WindowMs = v.Int()
	}
	return p, nil
}

// decodeRecord reads a usage record field by field. gjson coerces strings
// and floats to integers and yields zero for anything else, which is
// exactly the boundary tolerance the normalizer expects.
func decodeRecord(el gjson.Result) metrics.Record {
	rec := metrics.Record{
		RequestCount:     el.Get("requestCount").Int(),
		SuccessCount:     el.Get("successCount").Int(),
		ClientErrorCount: el.Get("clientErrorCount").Int(),
		ServerErrorCount: el.Get("serverErrorCount").Int(),
		AuthErrorCount:   el.Get("authErrorCount").Int(),
		RateLimitCount:   el.Get("rateLimitCount").Int(),
		AvgLatencyMs:     el.Get("avgLatencyMs").Int(),
		MaxLatencyMs:     el.Get("maxLatencyMs").Int(),
		InputTokens:      el.Get("inputTokens").Int(),
		OutputTokens:     el.Get("outputTokens").Int(),
		CacheReadTokens:  el.Get("cacheReadTokens").Int(),
		CacheWriteTokens: el.Get("cacheWriteTokens").Int(),
	}
	if ts := el.Get("lastRequestAt"); ts.Exists() && ts.Type != gjson.Null {
		v := ts.Int()
		rec.LastRequestAt = &v
	}
	if provs := el.Get("providers"); provs.IsArray() {
		provs.ForEach(func(_, pe gjson.Result) bool {
			if !pe.IsObject() {
				return true
			}
			rec.Providers = append(rec.Providers, metrics.ProviderRecord{
				Provider: pe.Get("provider").String(),
				Record:   decodeRecord(pe),
			})
			return true
		})
	}
	return rec
}

func parseScoped(root gjson.Result, field, legacy string) []ScopedRecord {
	arr := root.Get(field)
	if !arr.IsArray() && legacy != "" {
		arr = root.Get(legacy)
	}
	if !arr.IsArray() {
		return nil
	}
	var out []ScopedRecord
	arr.ForEach(func(_, el gjson.Result) bool {
		if !el.IsObject() {
			return true
		}
		out = append(out, ScopedRecord{Scope: scopeOf(el), Record: decodeRecord(el)})
		return true
	})
	return out
}

func scopeOf(el gjson.Result) string {
	for _, f := range scopeFields {
		if v := el.Get(f); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}
	return ""
}

// ParseAccounts decodes an account listing. Both the wrapped
// {"accounts": [...]} shape and a bare array are accepted.
func ParseAccounts(data []byte) ([]Account, error) {
	raw, err := listingArray(data, "accounts")
	if err != nil {
		return nil, fmt.Errorf("adminapi: account listing: %w", err)
	}
	var out []Account
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("adminapi: account listing: %w", err)
	}
	return out, nil
}

// ParseKeys decodes an API key listing. Both the wrapped {"keys": [...]}
// shape and a bare array are accepted.
func ParseKeys(data []byte) ([]Key, error) {
	raw, err := listingArray(data, "keys")
	if err != nil {
		return nil, fmt.Errorf("adminapi: key listing: %w", err)
	}
	var out []Key
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("adminapi: key listing: %w", err)
	}
	return out, nil
}

func listingArray(data []byte, field string) ([]byte, error) {
	data = StripUndefined(data)
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if root.IsArray() {
		return []byte(root.Raw), nil
	}
	if arr := root.Get(field); arr.IsArray() {
		return []byte(arr.Raw), nil
	}
	if root.IsObject() {
		return []byte("[]"), nil
	}
	return nil, fmt.Errorf("unexpected shape")
}
