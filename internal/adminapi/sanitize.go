package adminapi

import (
	"bytes"

	"github.com/tidwall/gjson"

	"github.com/nghyane/mux-console/internal/json"
)

var undefinedPlaceholder = []byte(`"[undefined]"`)

// StripUndefined removes "[undefined]" placeholder values from a JSON
// payload. Older gateway builds emit the placeholder for fields they never
// measured; dropping the entries lets the normalizer default them instead
// of mislabeling scopes. Payloads without the placeholder pass through
// untouched.
func StripUndefined(payload []byte) []byte {
	if !bytes.Contains(payload, undefinedPlaceholder) {
		return payload
	}
	parsed := gjson.ParseBytes(payload)
	if !parsed.IsObject() && !parsed.IsArray() {
		return payload
	}
	cleaned := dropUndefined(parsed.Value())
	if cleaned == nil {
		return payload
	}
	out, err := json.Marshal(cleaned)
	if err != nil {
		return payload
	}
	return out
}

func dropUndefined(v any) any {
	switch val := v.(type) {
	case map[string]any:
		cleaned := make(map[string]any, len(val))
		for k, child := range val {
			if s, ok := child.(string); ok && s == "[undefined]" {
				continue
			}
			if c := dropUndefined(child); c != nil {
				cleaned[k] = c
			}
		}
		if len(cleaned) == 0 {
			return nil
		}
		return cleaned
	case []any:
		var cleaned []any
		for _, item := range val {
			if s, ok := item.(string); ok && s == "[undefined]" {
				continue
			}
			if c := dropUndefined(item); c != nil {
				cleaned = append(cleaned, c)
			}
		}
		return cleaned
	default:
		return v
	}
}
