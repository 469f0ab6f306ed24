package management

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nghyane/mux-console/internal/view"
)

// GetUsageChart serves the stacked bar chart for the current window as a
// standalone SVG. The series query selects requests (default) or tokens.
func (h *Handler) GetUsageChart(c *gin.Context) {
	var series []view.Series
	switch c.DefaultQuery("series", "requests") {
	case "requests":
		series = view.RequestSeries()
	case "tokens":
		series = view.TokenSeries()
	default:
		respondBadRequest(c, `series must be "requests" or "tokens"`)
		return
	}

	snap := h.state.Snapshot()
	if snap.Usage == nil {
		respondNotFound(c, "no usage data for the current window")
		return
	}
	markup := view.RenderChart(snap.Usage.Buckets, snap.Usage.BucketSizeMs, series)
	if markup == "" {
		respondNotFound(c, "no chart data for the current window")
		return
	}
	c.Data(http.StatusOK, "image/svg+xml", []byte(markup))
}
