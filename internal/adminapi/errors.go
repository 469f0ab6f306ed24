package adminapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// StatusError is a non-2xx response from the admin API. RetryAfter is set
// only for 429 responses carrying a parseable Retry-After header.
type StatusError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("adminapi: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("adminapi: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// RetryAfterOf extracts the Retry-After hint when err is a rate limit
// response. The hint is surfaced to the user, never acted on automatically.
func RetryAfterOf(err error) (time.Duration, bool) {
	var se *StatusError
	if errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests {
		return se.RetryAfter, true
	}
	return 0, false
}

// IsUnauthorized reports whether err is a 401 or 403 response, meaning the
// configured admin token was rejected.
func IsUnauthorized(err error) bool {
	var se *StatusError
	if !errors.As(err, &se) {
		return false
	}
	return se.StatusCode == http.StatusUnauthorized || se.StatusCode == http.StatusForbidden
}

// parseRetryAfter accepts both the delta-seconds and HTTP-date forms.
func parseRetryAfter(h string, now time.Time) time.Duration {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
