package view

import (
	"strings"
	"testing"

	"github.com/nghyane/mux-console/internal/metrics"
)

func reqBucket(start, requests, success int64) metrics.Bucket {
	return metrics.Bucket{
		BucketStart: start,
		Record:      metrics.Record{RequestCount: requests, SuccessCount: success},
	}
}

func TestRenderChartDegenerateSequences(t *testing.T) {
	if got := RenderChart(nil, 60_000, RequestSeries()); got != "" {
		t.Errorf("empty sequence rendered %d bytes, want none", len(got))
	}
	quiet := []metrics.Bucket{{BucketStart: 0}, {BucketStart: 60_000}}
	if got := RenderChart(quiet, 60_000, RequestSeries()); got != "" {
		t.Errorf("all-zero sequence rendered %d bytes, want none", len(got))
	}
	busy := []metrics.Bucket{reqBucket(0, 10, 10)}
	if got := RenderChart(busy, 60_000, nil); got != "" {
		t.Errorf("no series rendered %d bytes, want none", len(got))
	}
}

func TestRenderChartSingleBucket(t *testing.T) {
	out := string(RenderChart([]metrics.Bucket{reqBucket(0, 10, 10)}, 60_000, RequestSeries()))
	if !strings.Contains(out, "<svg") {
		t.Fatalf("single busy bucket produced no svg: %q", out)
	}
	if !strings.Contains(out, "fill:"+colorSuccess) {
		t.Errorf("missing success segment in %q", out)
	}
}

func TestRenderChartTickSelection(t *testing.T) {
	buckets := make([]metrics.Bucket, 37)
	for i := range buckets {
		buckets[i] = reqBucket(int64(i)*60_000, 1, 1)
	}
	out := string(RenderChart(buckets, 60_000, RequestSeries()))

	// ceil(37/6) = 7, so buckets 0,7,14,21,28,35 carry labels.
	if got := strings.Count(out, "text-anchor:middle"); got != 6 {
		t.Errorf("got %d tick labels, want 6", got)
	}
}

func TestRenderChartGridlines(t *testing.T) {
	buckets := []metrics.Bucket{
		reqBucket(0, 10, 10),
		reqBucket(60_000, 4, 4),
	}
	out := string(RenderChart(buckets, 60_000, RequestSeries()))

	// Max, half-max and baseline, each with a numeric label.
	if got := strings.Count(out, "text-anchor:end"); got != 3 {
		t.Errorf("got %d gridline labels, want 3", got)
	}
	for _, label := range []string{">10<", ">5<", ">0<"} {
		if !strings.Contains(out, label) {
			t.Errorf("missing gridline label %s", label)
		}
	}
}

func TestRenderChartGridlinesTinyMax(t *testing.T) {
	buckets := []metrics.Bucket{
		reqBucket(0, 1, 1),
		reqBucket(60_000, 0, 0),
	}
	out := string(RenderChart(buckets, 60_000, RequestSeries()))
	// Half-max collapses onto the baseline and is dropped.
	if got := strings.Count(out, "text-anchor:end"); got != 2 {
		t.Errorf("got %d gridline labels, want 2", got)
	}
}

func TestRenderChartOmitsSliverSegmentsButKeepsOffset(t *testing.T) {
	// Second bucket: the success share rounds below one pixel and is not
	// drawn, yet the error segment above must still start at the true
	// stacked offset.
	buckets := []metrics.Bucket{
		{BucketStart: 0, Record: metrics.Record{RequestCount: 2000, SuccessCount: 2000}},
		{BucketStart: 60_000, Record: metrics.Record{RequestCount: 1006, SuccessCount: 6, ServerErrorCount: 1000}},
	}
	out := string(RenderChart(buckets, 60_000, RequestSeries()))

	if got := strings.Count(out, "fill:"+colorSuccess); got != 1 {
		t.Errorf("got %d success segments, want 1 (sliver omitted)", got)
	}
	if got := strings.Count(out, "fill:"+colorError); got != 1 {
		t.Errorf("got %d error segments, want 1", got)
	}
	// plot height 186, max total 2000: error = 93px stacked over a 0.56px
	// sliver, so its top sits at y=102 rather than the unstacked 103.
	if !strings.Contains(out, `y="102"`) {
		t.Errorf("error segment not offset by omitted sliver: %s", out)
	}
}

func TestRenderChartTokenSeries(t *testing.T) {
	buckets := []metrics.Bucket{
		{BucketStart: 0, Record: metrics.Record{InputTokens: 100, OutputTokens: 50}},
		{BucketStart: 60_000, Record: metrics.Record{InputTokens: 30, OutputTokens: 20}},
	}
	out := string(RenderChart(buckets, 60_000, TokenSeries()))
	if !strings.Contains(out, "fill:"+colorInput) || !strings.Contains(out, "fill:"+colorOutput) {
		t.Errorf("token series segments missing: %s", out)
	}
}

func TestTickStep(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{1, 1},
		{6, 1},
		{7, 2},
		{37, 7},
		{500, 84},
	}
	for _, tt := range tests {
		if got := tickStep(tt.n); got != tt.want {
			t.Errorf("tickStep(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
