package view

import (
	"fmt"
	"html/template"
	"time"

	"github.com/samber/lo"

	"github.com/nghyane/mux-console/internal/adminapi"
	"github.com/nghyane/mux-console/internal/format"
	"github.com/nghyane/mux-console/internal/metrics"
	"github.com/nghyane/mux-console/internal/provider"
	"github.com/nghyane/mux-console/internal/state"
)

// timelineTrackPx is the bar track width of the HTML activity timeline.
const timelineTrackPx = 240

// WindowOption is one entry of the window selector.
type WindowOption struct {
	Ms       int64
	Label    string
	Selected bool
}

// windowPresets are the selectable lookback windows, shortest first.
var windowPresets = []int64{
	int64(time.Hour / time.Millisecond),
	6 * int64(time.Hour/time.Millisecond),
	24 * int64(time.Hour/time.Millisecond),
	7 * 24 * int64(time.Hour/time.Millisecond),
	30 * 24 * int64(time.Hour/time.Millisecond),
}

// Card is one headline stat at the top of the dashboard.
type Card struct {
	Title string
	Value string
	Hint  string
	Class string
}

// NoticeView is a notice prepared for rendering.
type NoticeView struct {
	ID      string
	Level   string
	Message string
	Age     string
}

// Section pairs one usage breakdown table with its heading. Key is the
// stable scope name renderers select on; Title is the display heading.
// Sections with no rows are dropped before the template sees them.
type Section struct {
	Key   string
	Title string
	Table *Table
}

// Listing is a plain (non-metric) table such as the account or key lists.
type Listing struct {
	Title   string
	Headers []string
	Rows    [][]Cell
	Empty   string
}

// Dashboard is the complete view-model for one render pass. Both the full
// page and the refresh fragment are driven from it; the report renderer
// reuses it for the static snapshot.
type Dashboard struct {
	WindowMs     int64
	WindowLabel  string
	Windows      []WindowOption
	Seq          uint64
	RefreshedAgo string

	Notices  []NoticeView
	Cards    []Card
	Sections []Section
	Timeline []TimelineRow

	RequestChart template.HTML
	TokenChart   template.HTML

	Accounts Listing
	Keys     Listing

	GeneratedAt time.Time
	Version     string
}

// HasUsage reports whether the snapshot carried usage data at all. The
// templates swap the metric area for a placeholder when it did not.
func (d *Dashboard) HasUsage() bool {
	return len(d.Cards) > 0
}

// BuildDashboard assembles the view-model from a snapshot. It never touches
// the snapshot's fields mutably and is safe to call concurrently with
// refresh cycles installing new snapshots.
func BuildDashboard(snap *state.Snapshot, now time.Time, version string) *Dashboard {
	d := &Dashboard{
		WindowMs:    snap.WindowMs,
		WindowLabel: WindowLabel(snap.WindowMs),
		Windows:     windowOptions(snap.WindowMs),
		Seq:         snap.InstalledSeq,
		GeneratedAt: now,
		Version:     version,
	}
	if !snap.RefreshedAt.IsZero() {
		d.RefreshedAgo = format.RelativeTime(snap.RefreshedAt, now)
	}

	d.Notices = lo.Map(snap.Notices, func(n state.Notice, _ int) NoticeView {
		return NoticeView{
			ID:      n.ID,
			Level:   n.Level,
			Message: n.Message,
			Age:     format.RelativeTime(n.At, now),
		}
	})

	if u := snap.Usage; u != nil {
		d.Cards = buildCards(u)
		d.Sections = buildSections(u)
		d.Timeline = BuildTimeline(u.Buckets, u.BucketSizeMs, timelineTrackPx)
		d.RequestChart = RenderChart(u.Buckets, u.BucketSizeMs, RequestSeries())
		d.TokenChart = RenderChart(u.Buckets, u.BucketSizeMs, TokenSeries())
	}

	d.Accounts = buildAccountListing(snap.Accounts, now)
	d.Keys = buildKeyListing(snap.Keys, snap.KeyUsage, now)
	return d
}

// WindowLabel renders a window length as a short unit label ("6h", "7d",
// "45m"). A single day reads "24h" to match the selector presets; two days
// and up read in days. Values that fit no whole unit fall back to "custom".
func WindowLabel(ms int64) string {
	const (
		minuteMs = int64(time.Minute / time.Millisecond)
		hourMs   = int64(time.Hour / time.Millisecond)
		dayMs    = 24 * int64(time.Hour/time.Millisecond)
	)
	switch {
	case ms >= 2*dayMs && ms%dayMs == 0:
		return fmt.Sprintf("%dd", ms/dayMs)
	case ms >= hourMs && ms%hourMs == 0:
		return fmt.Sprintf("%dh", ms/hourMs)
	case ms >= minuteMs && ms%minuteMs == 0:
		return fmt.Sprintf("%dm", ms/minuteMs)
	default:
		return "custom"
	}
}

// windowOptions builds the selector entries. A current window outside the
// preset list is appended as its own selected option so the selector always
// reflects reality.
func windowOptions(currentMs int64) []WindowOption {
	opts := lo.Map(windowPresets, func(ms int64, _ int) WindowOption {
		return WindowOption{Ms: ms, Label: WindowLabel(ms), Selected: ms == currentMs}
	})
	if currentMs > 0 && !lo.Contains(windowPresets, currentMs) {
		opts = append(opts, WindowOption{Ms: currentMs, Label: WindowLabel(currentMs), Selected: true})
	}
	return opts
}

func buildCards(u *adminapi.UsagePayload) []Card {
	m := metrics.Normalize(&u.Totals)
	var prev metrics.Metrics
	hasPrev := u.PreviousTotals != nil
	if hasPrev {
		prev = metrics.Normalize(u.PreviousTotals)
	}

	requests := Card{Title: "Requests", Value: format.Count(m.RequestCount)}
	if hasPrev {
		requests.Hint, requests.Class = deltaHint(m.RequestCount, prev.RequestCount)
	}

	success := Card{Title: "Success rate", Value: dash, Class: "muted"}
	if m.SuccessRate != nil {
		success = Card{
			Title: "Success rate",
			Value: fmt.Sprintf("%d%%", *m.SuccessRate),
			Hint:  fmt.Sprintf("%s of %s requests", format.Count(m.SuccessCount), format.Count(m.RequestCount)),
		}
		if *m.SuccessRate > 100 {
			success.Class = "warn"
		}
	}

	tokens := Card{Title: "Tokens", Value: format.Compact(m.TotalTokens)}
	if m.TotalTokens >= 1000 {
		tokens.Hint = format.Count(m.TotalTokens) + " in + out"
	}
	if hasPrev && tokens.Hint == "" {
		tokens.Hint, tokens.Class = deltaHint(m.TotalTokens, prev.TotalTokens)
	}

	latency := Card{Title: "Avg latency", Value: dash, Class: "muted"}
	if m.AvgLatencyMs > 0 {
		latency = Card{Title: "Avg latency", Value: fmt.Sprintf("%dms", m.AvgLatencyMs)}
		if m.MaxLatencyMs > 0 {
			latency.Hint = fmt.Sprintf("max %dms", m.MaxLatencyMs)
		}
	}

	cache := Card{
		Title: "Cache hit rate",
		Value: fmt.Sprintf("%d%%", format.CacheHitRate(m.InputTokens, m.CacheReadTokens)),
	}
	if m.CacheReadTokens > 0 {
		cache.Hint = format.Compact(m.CacheReadTokens) + " cached reads"
	}

	return []Card{requests, success, tokens, latency, cache}
}

// deltaHint compares a headline value against the previous window. A zero
// previous value carries no trend, so the hint stays empty.
func deltaHint(current, previous int64) (hint, class string) {
	if previous <= 0 {
		return "", ""
	}
	pct := int((float64(current-previous) / float64(previous)) * 100)
	switch {
	case pct > 0:
		return fmt.Sprintf("+%d%% vs previous window", pct), "up"
	case pct < 0:
		return fmt.Sprintf("%d%% vs previous window", pct), "down"
	default:
		return "even with previous window", ""
	}
}

func buildSections(u *adminapi.UsagePayload) []Section {
	sections := []Section{
		{Key: "provider", Title: "By provider", Table: BuildTable(
			[]Column{Lead("provider", "Provider").Build()},
			scopedRows(u.ByProvider, providerLead),
		)},
		{Key: "endpoint", Title: "By endpoint", Table: BuildTable(
			[]Column{Lead("endpoint", "Endpoint").Build()},
			scopedRows(u.ByEndpoint, monoLead),
		)},
		{Key: "model", Title: "By model", Table: BuildTable(
			[]Column{Lead("model", "Model").Build()},
			scopedRows(u.ByModel, monoLead),
		)},
		{Key: "key", Title: "By key", Table: BuildTable(
			[]Column{Lead("key", "Key").Build()},
			scopedRows(u.ByKey, plainLead),
		)},
	}
	return lo.Filter(sections, func(s Section, _ int) bool { return s.Table != nil })
}

func scopedRows(records []adminapi.ScopedRecord, lead func(scope string) Cell) []Row {
	return lo.Map(records, func(sr adminapi.ScopedRecord, _ int) Row {
		return Row{Lead: []Cell{lead(sr.Scope)}, Record: sr.Record}
	})
}

// providerLead renders provider scopes as colored badges. Breakdown scopes
// are identifiers, not key material, so they render unmasked.
func providerLead(scope string) Cell {
	id := provider.FromString(scope)
	return Cell{Text: id.DisplayName(), Class: "badge " + id.BadgeClass()}
}

func monoLead(scope string) Cell {
	c := plainLead(scope)
	if c.Class == "" {
		c.Class = "mono"
	}
	return c
}

func plainLead(scope string) Cell {
	if scope == "" {
		return Cell{Text: "(unattributed)", Class: "muted"}
	}
	return Cell{Text: scope}
}

func buildAccountListing(accounts []adminapi.Account, now time.Time) Listing {
	l := Listing{
		Title:   "Accounts",
		Headers: []string{"Account", "Provider", "Status", "Expires"},
		Empty:   "No accounts configured.",
	}
	for _, a := range accounts {
		label := a.Label
		if label == "" {
			label = a.ID
		}
		id := provider.FromString(a.Provider)

		var expires *time.Time
		if a.ExpiresAt != nil {
			t := time.UnixMilli(*a.ExpiresAt)
			expires = &t
		}
		countdown := format.ExpiryCountdown(expires, now)
		expiry := Cell{Text: countdown}
		if countdown == "expired" {
			expiry.Class = "err"
		} else if countdown == "unknown" {
			expiry.Class = "muted"
		}

		l.Rows = append(l.Rows, []Cell{
			{Text: label},
			{Text: id.DisplayName(), Class: "badge " + id.BadgeClass()},
			accountStatusCell(a),
			expiry,
		})
	}
	return l
}

func accountStatusCell(a adminapi.Account) Cell {
	if a.Disabled {
		return Cell{Text: "disabled", Class: "muted"}
	}
	switch a.Status {
	case "", "active", "ok":
		return Cell{Text: "active", Class: "ok"}
	case "error", "failed":
		return Cell{Text: a.Status, Class: "err"}
	default:
		return Cell{Text: a.Status, Class: "warn"}
	}
}

func buildKeyListing(keys []adminapi.Key, usage map[string]*adminapi.UsagePayload, now time.Time) Listing {
	l := Listing{
		Title:   "API keys",
		Headers: []string{"Key", "Label", "Requests", "Tokens", "Last used", "Status"},
		Empty:   "No API keys configured.",
	}
	for _, k := range keys {
		lastUsed := Cell{Text: "never", Class: "muted"}
		if k.LastUsedAt != nil {
			lastUsed = Cell{Text: format.RelativeTime(time.UnixMilli(*k.LastUsedAt), now)}
		}

		requests := Cell{Text: dash, Class: "muted"}
		tokens := Cell{Text: dash, Class: "muted"}
		if u, ok := usage[k.ID]; ok && u != nil {
			m := metrics.Normalize(&u.Totals)
			requests = Cell{Text: format.Count(m.RequestCount)}
			tokens = Cell{Text: format.Compact(m.TotalTokens)}
			if m.TotalTokens >= 1000 {
				tokens.Title = format.Count(m.TotalTokens)
			}
		}

		status := Cell{Text: "active", Class: "ok"}
		if k.Disabled {
			status = Cell{Text: "disabled", Class: "muted"}
		}

		l.Rows = append(l.Rows, []Cell{
			{Text: format.MaskKey(k.Key), Class: "mono"},
			{Text: k.Label},
			requests,
			tokens,
			lastUsed,
			status,
		})
	}
	return l
}
