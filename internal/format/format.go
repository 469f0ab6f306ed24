// Package format contains the pure presentation helpers shared by the HTML,
// terminal, and report views. Every function is deterministic given its inputs
// and total: no input value can make one panic.
package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Count renders an integer with thousands separators.
func Count(n int64) string {
	return humanize.Comma(n)
}

// Compact abbreviates large counts for space-constrained cells: values below
// 1,000 render as-is, larger values get one decimal place with a "k", "M" or
// "B" suffix. The decimal is rounded half-up and dropped when it is zero, so
// 1234 renders "1.2k" and 2,000,000 renders "2M".
func Compact(n int64) string {
	if n < 0 {
		return "-" + Compact(-n)
	}
	if n < 1_000 {
		return strconv.FormatInt(n, 10)
	}

	units := []struct {
		div    float64
		suffix string
	}{
		{1_000_000_000, "B"},
		{1_000_000, "M"},
		{1_000, "k"},
	}
	for i, u := range units {
		if float64(n) < u.div {
			continue
		}
		tenths := int64(math.Floor(float64(n)/u.div*10 + 0.5))
		if tenths >= 10_000 && i > 0 {
			// Rounding carried into the next unit up (999,950k is 1M).
			u = units[i-1]
			tenths = int64(math.Floor(float64(n)/u.div*10 + 0.5))
		}
		if tenths%10 == 0 {
			return strconv.FormatInt(tenths/10, 10) + u.suffix
		}
		return fmt.Sprintf("%d.%d%s", tenths/10, tenths%10, u.suffix)
	}
	return strconv.FormatInt(n, 10)
}

// RelativeTime buckets the distance between ts and now into a short label:
// under a minute is "just now", then minutes, then hours, then a calendar
// month/day. Past and future are symmetric ("5m ago" vs "in 5m").
func RelativeTime(ts, now time.Time) string {
	d := now.Sub(ts)
	future := d < 0
	if future {
		d = -d
	}

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return relLabel(int64(d/time.Minute), "m", future)
	case d < 24*time.Hour:
		return relLabel(int64(d/time.Hour), "h", future)
	default:
		return ts.Format("Jan 2")
	}
}

func relLabel(n int64, unit string, future bool) string {
	if future {
		return fmt.Sprintf("in %d%s", n, unit)
	}
	return fmt.Sprintf("%d%s ago", n, unit)
}

// ExpiryCountdown renders time remaining until expiresAt: "unknown" for nil,
// "expired" at or past the deadline, otherwise the largest fitting unit of
// seconds, minutes, hours or days ("59s left", "1h left", "3d left").
func ExpiryCountdown(expiresAt *time.Time, now time.Time) string {
	if expiresAt == nil {
		return "unknown"
	}
	rem := expiresAt.Sub(now)
	if rem <= 0 {
		return "expired"
	}
	secs := int64(rem / time.Second)
	switch {
	case secs < 60:
		return fmt.Sprintf("%ds left", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm left", secs/60)
	case secs < 86400:
		return fmt.Sprintf("%dh left", secs/3600)
	default:
		return fmt.Sprintf("%dd left", secs/86400)
	}
}

// CacheHitRate is the rounded share of input-equivalent token volume served
// from cache. Cache reads count as input volume that did not have to be
// recomputed, so the denominator is input plus cache reads. Returns 0 when
// the denominator is 0.
func CacheHitRate(inputTokens, cacheReadTokens int64) int {
	denom := inputTokens + cacheReadTokens
	if denom <= 0 {
		return 0
	}
	return int(math.Floor(float64(cacheReadTokens)/float64(denom)*100 + 0.5))
}

// BucketTimeLabel renders the time-axis label for a bucket: clock time for
// sub-day buckets, month/day otherwise. Labels are UTC to match the upstream
// bucket boundaries.
func BucketTimeLabel(epochMs, bucketSizeMs int64) string {
	t := time.UnixMilli(epochMs).UTC()
	if bucketSizeMs > 0 && bucketSizeMs >= 24*int64(time.Hour/time.Millisecond) {
		return t.Format("Jan 2")
	}
	return t.Format("15:04")
}

// MaskKey produces the masked label shown for API keys: enough of the prefix
// and suffix to recognize the key, nothing more. Short values mask entirely.
func MaskKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if len(key) < 12 {
		return strings.Repeat("•", 8)
	}
	return key[:6] + "…" + key[len(key)-4:]
}
