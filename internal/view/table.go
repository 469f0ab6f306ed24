package view

import (
	"fmt"

	"github.com/nghyane/mux-console/internal/format"
	"github.com/nghyane/mux-console/internal/metrics"
)

// dash marks cells where zero means "no occurrences" rather than a measured
// value: the four error columns and the two latency columns.
const dash = "-"

// Row pairs the pre-built lead cells of one table row with the raw record
// the shared metric columns render. Records are normalized per row inside
// BuildTable so callers can pass server payloads straight through.
type Row struct {
	Lead   []Cell
	Record metrics.Record
}

// Table is a fully rendered table: the column headers plus one cell slice
// per row, in column order.
type Table struct {
	Columns []Column
	Rows    [][]Cell
}

// MetricColumns returns the fixed column set shared by every usage table.
// Lead columns supplied by the caller precede these.
func MetricColumns() []Column {
	return []Column{
		Metric("requests", "Requests").Render(requestsCell).Build(),
		Metric("success", "Success").Render(successCell).Build(),
		Metric("clientErrors", "4xx").Render(errorCell(func(m metrics.Metrics) int64 { return m.ClientErrorCount })).Build(),
		Metric("serverErrors", "5xx").Render(errorCell(func(m metrics.Metrics) int64 { return m.ServerErrorCount })).Build(),
		Metric("authErrors", "Auth").Render(errorCell(func(m metrics.Metrics) int64 { return m.AuthErrorCount })).Build(),
		Metric("rateLimits", "429s").Render(errorCell(func(m metrics.Metrics) int64 { return m.RateLimitCount })).Build(),
		Metric("avgLatency", "Avg").Render(latencyCell(func(m metrics.Metrics) int64 { return m.AvgLatencyMs })).Build(),
		Metric("maxLatency", "Max").Render(latencyCell(func(m metrics.Metrics) int64 { return m.MaxLatencyMs })).Build(),
		Metric("inputTokens", "Input").Render(tokenCell(func(m metrics.Metrics) int64 { return m.InputTokens })).Build(),
		Metric("outputTokens", "Output").Render(tokenCell(func(m metrics.Metrics) int64 { return m.OutputTokens })).Build(),
		Metric("cacheRead", "Cache R").Render(tokenCell(func(m metrics.Metrics) int64 { return m.CacheReadTokens })).Build(),
		Metric("cacheWrite", "Cache W").Render(tokenCell(func(m metrics.Metrics) int64 { return m.CacheWriteTokens })).Build(),
	}
}

// BuildTable renders rows against the caller's lead columns followed by the
// shared metric set. An empty row list yields nil so callers skip the
// section instead of rendering an empty shell.
func BuildTable(lead []Column, rows []Row) *Table {
	if len(rows) == 0 {
		return nil
	}
	metricCols := MetricColumns()
	cols := make([]Column, 0, len(lead)+len(metricCols))
	cols = append(cols, lead...)
	cols = append(cols, metricCols...)

	t := &Table{Columns: cols, Rows: make([][]Cell, 0, len(rows))}
	for _, row := range rows {
		m := metrics.Normalize(&row.Record)
		cells := make([]Cell, 0, len(cols))
		cells = append(cells, row.Lead...)
		for _, col := range metricCols {
			cells = append(cells, col.Render(m))
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func requestsCell(m metrics.Metrics) Cell {
	return Cell{Text: format.Count(m.RequestCount)}
}

// successCell renders the success count. Like requests and tokens it always
// shows digits; a measured zero is "0", not a dash.
func successCell(m metrics.Metrics) Cell {
	cell := Cell{Text: format.Count(m.SuccessCount)}
	if m.SuccessRate != nil && *m.SuccessRate > 100 {
		cell.Class = "warn"
		cell.Title = "success count exceeds request count"
	}
	return cell
}

func errorCell(pick func(metrics.Metrics) int64) RenderFunc {
	return func(m metrics.Metrics) Cell {
		n := pick(m)
		if n == 0 {
			return Cell{Text: dash, Class: "muted"}
		}
		return Cell{Text: format.Count(n), Class: "err"}
	}
}

func latencyCell(pick func(metrics.Metrics) int64) RenderFunc {
	return func(m metrics.Metrics) Cell {
		ms := pick(m)
		if ms == 0 {
			return Cell{Text: dash, Class: "muted"}
		}
		return Cell{Text: fmt.Sprintf("%dms", ms)}
	}
}

// tokenCell renders compact counts with the exact value as a tooltip once
// the compact form loses precision.
func tokenCell(pick func(metrics.Metrics) int64) RenderFunc {
	return func(m metrics.Metrics) Cell {
		n := pick(m)
		cell := Cell{Text: format.Compact(n)}
		if n >= 1000 {
			cell.Title = format.Count(n)
		}
		return cell
	}
}
