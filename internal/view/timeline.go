package view

import (
	"math"

	"github.com/nghyane/mux-console/internal/format"
	"github.com/nghyane/mux-console/internal/metrics"
)

// TimelineRow is one bucket of the textual activity timeline: a time label
// plus the widths of the success and error segments of its bar, in track
// cells. Counts ride along for the numeric column next to the bar.
type TimelineRow struct {
	Label        string
	SuccessWidth int
	ErrorWidth   int
	Requests     int64
	Success      int64
	Errors       int64
}

// BarWidth returns the total bar width in track cells.
func (r TimelineRow) BarWidth() int {
	return r.SuccessWidth + r.ErrorWidth
}

// BuildTimeline scales buckets onto two-segment bars of at most width cells.
// The busiest bucket spans the full track and every other bar is sized by
// its share of that maximum. A single bucket carries no trend, so sequences
// shorter than two yield nil.
func BuildTimeline(buckets []metrics.Bucket, bucketSizeMs int64, width int) []TimelineRow {
	if len(buckets) < 2 || width <= 0 {
		return nil
	}

	norm := make([]metrics.Metrics, len(buckets))
	var maxReq int64
	for i := range buckets {
		norm[i] = metrics.Normalize(&buckets[i].Record)
		if norm[i].RequestCount > maxReq {
			maxReq = norm[i].RequestCount
		}
	}
	if maxReq == 0 {
		return nil
	}

	rows := make([]TimelineRow, 0, len(buckets))
	for i, b := range buckets {
		m := norm[i]
		row := TimelineRow{
			Label:    format.BucketTimeLabel(b.BucketStart, bucketSizeMs),
			Requests: m.RequestCount,
			Success:  m.SuccessCount,
			Errors:   m.ErrorTotal(),
		}
		if m.RequestCount > 0 {
			bar := scaleTrack(m.RequestCount, maxReq, width)
			// Segments trust the upstream counts. Overlapping error
			// categories can push the combined segments past the bar; the
			// overflow is shown, not corrected.
			row.SuccessWidth = scaleTrack(m.SuccessCount, m.RequestCount, bar)
			row.ErrorWidth = scaleTrack(row.Errors, m.RequestCount, bar)
		}
		rows = append(rows, row)
	}
	return rows
}

// scaleTrack maps n of max onto a track of width cells, rounding half up.
// Non-zero counts stay visible with at least one cell. Ratios above 1 are
// not clamped; they widen the result past the track.
func scaleTrack(n, max int64, width int) int {
	if n <= 0 || max <= 0 || width <= 0 {
		return 0
	}
	w := int(math.Floor(float64(n)/float64(max)*float64(width) + 0.5))
	if w < 1 {
		w = 1
	}
	return w
}
