package view

import (
	"testing"

	"github.com/nghyane/mux-console/internal/metrics"
)

func metricKeys() []string {
	cols := MetricColumns()
	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = c.Key
	}
	return keys
}

func TestMetricColumnsOrder(t *testing.T) {
	want := []string{
		"requests", "success",
		"clientErrors", "serverErrors", "authErrors", "rateLimits",
		"avgLatency", "maxLatency",
		"inputTokens", "outputTokens", "cacheRead", "cacheWrite",
	}
	got := metricKeys()
	if len(got) != len(want) {
		t.Fatalf("got %d metric columns, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBuildTableEmptyRows(t *testing.T) {
	lead := []Column{Lead("provider", "Provider").Build()}
	if got := BuildTable(lead, nil); got != nil {
		t.Errorf("BuildTable(nil rows) = %+v, want nil", got)
	}
	if got := BuildTable(lead, []Row{}); got != nil {
		t.Errorf("BuildTable(empty rows) = %+v, want nil", got)
	}
}

func TestBuildTableColumnAndCellLayout(t *testing.T) {
	lead := []Column{Lead("endpoint", "Endpoint").Build()}
	rows := []Row{{
		Lead: []Cell{{Text: "/v1/messages"}},
		Record: metrics.Record{
			RequestCount:     1500,
			SuccessCount:     1200,
			ClientErrorCount: 300,
			AvgLatencyMs:     250,
			MaxLatencyMs:     1800,
			InputTokens:      1234567,
		},
	}}

	table := BuildTable(lead, rows)
	if table == nil {
		t.Fatal("BuildTable returned nil for non-empty rows")
	}
	if len(table.Columns) != 13 {
		t.Fatalf("got %d columns, want 13", len(table.Columns))
	}
	if len(table.Rows) != 1 || len(table.Rows[0]) != 13 {
		t.Fatalf("row layout = %d rows x %d cells, want 1 x 13", len(table.Rows), len(table.Rows[0]))
	}

	cells := table.Rows[0]
	if cells[0].Text != "/v1/messages" {
		t.Errorf("lead cell = %q", cells[0].Text)
	}
	if cells[1].Text != "1,500" {
		t.Errorf("requests cell = %q, want %q", cells[1].Text, "1,500")
	}
	if cells[2].Text != "1,200" {
		t.Errorf("success cell = %q, want %q", cells[2].Text, "1,200")
	}
	if cells[3].Text != "300" || cells[3].Class != "err" {
		t.Errorf("4xx cell = %+v, want 300/err", cells[3])
	}
	if cells[7].Text != "250ms" {
		t.Errorf("avg latency cell = %q, want %q", cells[7].Text, "250ms")
	}
	if cells[9].Text != "1.2M" || cells[9].Title != "1,234,567" {
		t.Errorf("input tokens cell = %+v, want 1.2M with exact tooltip", cells[9])
	}
}

func TestBuildTableDashPlaceholders(t *testing.T) {
	rows := []Row{{Record: metrics.Record{RequestCount: 4, SuccessCount: 4}}}
	table := BuildTable(nil, rows)
	if table == nil {
		t.Fatal("BuildTable returned nil")
	}
	cells := table.Rows[0]

	// 4xx, 5xx, auth, 429 and both latency columns dash at zero.
	for _, i := range []int{2, 3, 4, 5, 6, 7} {
		if cells[i].Text != "-" {
			t.Errorf("cell %d = %q, want dash", i, cells[i].Text)
		}
		if cells[i].Class != "muted" {
			t.Errorf("cell %d class = %q, want muted", i, cells[i].Class)
		}
	}
	// Request and token columns keep a literal zero.
	if cells[8].Text != "0" || cells[9].Text != "0" {
		t.Errorf("token cells = %q/%q, want 0/0", cells[8].Text, cells[9].Text)
	}
}

func TestBuildTableZeroRequests(t *testing.T) {
	table := BuildTable(nil, []Row{{Record: metrics.Record{}}})
	cells := table.Rows[0]
	if cells[0].Text != "0" {
		t.Errorf("requests cell = %q, want 0", cells[0].Text)
	}
	if cells[1].Text != "0" {
		t.Errorf("success cell = %q, want literal 0", cells[1].Text)
	}
}

func TestBuildTableFlagsOverflowSuccess(t *testing.T) {
	table := BuildTable(nil, []Row{{Record: metrics.Record{RequestCount: 10, SuccessCount: 12}}})
	cell := table.Rows[0][1]
	if cell.Text != "12" {
		t.Errorf("success cell = %q, want 12", cell.Text)
	}
	if cell.Class != "warn" {
		t.Errorf("overflow success class = %q, want warn", cell.Class)
	}
}

func TestBuildTableNormalizesNegativeCounts(t *testing.T) {
	table := BuildTable(nil, []Row{{Record: metrics.Record{RequestCount: -5, InputTokens: -100}}})
	cells := table.Rows[0]
	if cells[0].Text != "0" {
		t.Errorf("requests cell = %q, want coerced 0", cells[0].Text)
	}
	if cells[8].Text != "0" {
		t.Errorf("input tokens cell = %q, want coerced 0", cells[8].Text)
	}
}
