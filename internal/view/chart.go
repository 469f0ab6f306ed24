package view

import (
	"bytes"
	"fmt"
	"html/template"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/nghyane/mux-console/internal/format"
	"github.com/nghyane/mux-console/internal/metrics"
)

// Chart layout. The viewport is fixed; the page scales it with CSS.
const (
	chartWidth     = 720
	chartHeight    = 220
	chartPadLeft   = 44
	chartPadRight  = 12
	chartPadTop    = 10
	chartPadBottom = 24

	// Bars take a fraction of their slot, clamped so they stay visible
	// with many buckets and don't fuse into a block with few.
	chartBarFraction = 0.6
	chartBarMinPx    = 2
	chartBarMaxPx    = 26

	// Segments shorter than this are not drawn but still advance the
	// stacking offset so the series above keeps its true position.
	chartMinSegmentPx = 1.0

	chartMaxTicks = 6
)

const (
	colorSuccess = "#34d399"
	colorError   = "#f87171"
	colorInput   = "#60a5fa"
	colorOutput  = "#c084fc"
	colorGrid    = "#27272a"
	colorAxis    = "#3f3f46"
	colorLabel   = "#71717a"
)

const chartLabelStyle = "font-size:11px;font-family:ui-monospace,SFMono-Regular,monospace;fill:" + colorLabel

// Series names one stacked sub-series of the chart: which value it reads
// from a bucket and the fill it is drawn with. Series stack bottom to top
// in slice order.
type Series struct {
	Key   string
	Color string
	Value func(m metrics.Metrics) int64
}

// RequestSeries stacks successful requests under the combined error count.
func RequestSeries() []Series {
	return []Series{
		{Key: "success", Color: colorSuccess, Value: func(m metrics.Metrics) int64 { return m.SuccessCount }},
		{Key: "errors", Color: colorError, Value: func(m metrics.Metrics) int64 { return m.ErrorTotal() }},
	}
}

// TokenSeries stacks input tokens under output tokens.
func TokenSeries() []Series {
	return []Series{
		{Key: "input", Color: colorInput, Value: func(m metrics.Metrics) int64 { return m.InputTokens }},
		{Key: "output", Color: colorOutput, Value: func(m metrics.Metrics) int64 { return m.OutputTokens }},
	}
}

// RenderChart draws buckets as a stacked SVG bar chart, scaled against the
// largest per-bucket series total. Sequences with no traffic at all return
// an empty fragment so callers drop the section.
func RenderChart(buckets []metrics.Bucket, bucketSizeMs int64, series []Series) template.HTML {
	if len(buckets) == 0 || len(series) == 0 {
		return ""
	}

	norm := make([]metrics.Metrics, len(buckets))
	totals := make([]int64, len(buckets))
	var maxTotal int64
	for i := range buckets {
		norm[i] = metrics.Normalize(&buckets[i].Record)
		for _, s := range series {
			totals[i] += s.Value(norm[i])
		}
		if totals[i] > maxTotal {
			maxTotal = totals[i]
		}
	}
	if maxTotal == 0 {
		return ""
	}

	plotW := chartWidth - chartPadLeft - chartPadRight
	plotH := chartHeight - chartPadTop - chartPadBottom
	baseY := chartPadTop + plotH

	var buf bytes.Buffer
	canvas := svg.New(&buf)
	canvas.Start(chartWidth, chartHeight, fmt.Sprintf(`viewBox="0 0 %d %d"`, chartWidth, chartHeight))

	for _, v := range gridValues(maxTotal) {
		y := baseY - int(math.Round(float64(v)/float64(maxTotal)*float64(plotH)))
		stroke := colorGrid
		if v == 0 {
			stroke = colorAxis
		}
		canvas.Line(chartPadLeft, y, chartPadLeft+plotW, y, "stroke:"+stroke+";stroke-width:1")
		canvas.Text(chartPadLeft-6, y+4, format.Compact(v), chartLabelStyle+";text-anchor:end")
	}

	slot := float64(plotW) / float64(len(buckets))
	barW := int(slot * chartBarFraction)
	if barW < chartBarMinPx {
		barW = chartBarMinPx
	}
	if barW > chartBarMaxPx {
		barW = chartBarMaxPx
	}
	step := tickStep(len(buckets))

	for i, b := range buckets {
		x := chartPadLeft + int(math.Round(float64(i)*slot+(slot-float64(barW))/2))
		offset := 0.0
		for _, s := range series {
			h := float64(s.Value(norm[i])) / float64(maxTotal) * float64(plotH)
			if h >= chartMinSegmentPx {
				y := float64(baseY) - offset - h
				canvas.Rect(x, int(math.Round(y)), barW, int(math.Round(h)), "fill:"+s.Color)
			}
			offset += h
		}
		if i%step == 0 {
			canvas.Text(x+barW/2, chartHeight-8, format.BucketTimeLabel(b.BucketStart, bucketSizeMs), chartLabelStyle+";text-anchor:middle")
		}
	}

	canvas.End()
	return template.HTML(buf.String())
}

// gridValues returns the labeled gridline values: max, half-max and the
// baseline, deduplicated for tiny maxima.
func gridValues(maxTotal int64) []int64 {
	values := []int64{maxTotal}
	if half := maxTotal / 2; half > 0 && half != maxTotal {
		values = append(values, half)
	}
	return append(values, 0)
}

// tickStep spaces time-axis labels so at most chartMaxTicks buckets are
// labeled regardless of sequence length.
func tickStep(n int) int {
	step := (n + chartMaxTicks - 1) / chartMaxTicks
	if step < 1 {
		step = 1
	}
	return step
}
