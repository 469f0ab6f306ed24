// Package store archives exported usage reports to local or remote backends.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Report is one point-in-time usage export: the rendered dashboard page
// plus the raw snapshot it was rendered from.
type Report struct {
	// ID is a caller-assigned UUID, recorded in commit messages and logs.
	ID string
	// Window is the human window label the report covers, e.g. "24h".
	Window    string
	CreatedAt time.Time
	HTML      []byte
	JSON      []byte
}

// ReportInfo describes one archived report file.
type ReportInfo struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod-time"`
}

// Archive persists usage reports. Implementations are safe for concurrent use.
type Archive interface {
	// Put stores the report's files and returns their shared base name.
	Put(ctx context.Context, report Report) (string, error)
	// List returns archived report files, newest first.
	List(ctx context.Context) ([]ReportInfo, error)
	Close() error
}

const reportTimestampLayout = "20060102-150405"

// BaseName builds the shared stem for a report's html and json files,
// e.g. usage-24h-20260310-120000.
func BaseName(window string, at time.Time) string {
	window = sanitizeWindowLabel(window)
	if window == "" {
		window = "custom"
	}
	return fmt.Sprintf("usage-%s-%s", window, at.UTC().Format(reportTimestampLayout))
}

// sanitizeWindowLabel keeps window labels filesystem- and object-key-safe.
func sanitizeWindowLabel(window string) string {
	window = strings.TrimSpace(window)
	var b strings.Builder
	for _, r := range window {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// IsReportFile reports whether name looks like an archived report file.
func IsReportFile(name string) bool {
	if !strings.HasPrefix(name, "usage-") {
		return false
	}
	return strings.HasSuffix(name, ".html") || strings.HasSuffix(name, ".json")
}

func validateReport(report Report) error {
	if len(report.HTML) == 0 && len(report.JSON) == 0 {
		return fmt.Errorf("store: report has no content")
	}
	return nil
}

func reportCreatedAt(report Report) time.Time {
	if report.CreatedAt.IsZero() {
		return time.Now()
	}
	return report.CreatedAt
}
