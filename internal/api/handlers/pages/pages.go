// Package pages serves the HTML dashboard and the fragment its live
// refresh swaps in.
package pages

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nghyane/mux-console/internal/buildinfo"
	log "github.com/nghyane/mux-console/internal/logging"
	"github.com/nghyane/mux-console/internal/state"
	"github.com/nghyane/mux-console/internal/view"
)

// Handler renders dashboard pages from state snapshots.
type Handler struct {
	state    *state.Store
	renderer *view.Renderer
}

// NewHandler creates the page handler.
func NewHandler(st *state.Store, renderer *view.Renderer) *Handler {
	return &Handler{state: st, renderer: renderer}
}

// Dashboard serves the full console page.
func (h *Handler) Dashboard(c *gin.Context) {
	h.render(c, h.renderer.Page)
}

// UsageFragment serves the dashboard body alone for in-place swaps.
func (h *Handler) UsageFragment(c *gin.Context) {
	h.render(c, h.renderer.Fragment)
}

func (h *Handler) render(c *gin.Context, fn func(io.Writer, *view.Dashboard) error) {
	d := view.BuildDashboard(h.state.Snapshot(), time.Now(), buildinfo.Version)

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Header("Cache-Control", "no-store")
	c.Status(http.StatusOK)
	if err := fn(c.Writer, d); err != nil {
		// Headers are gone by now; the page arrives truncated.
		log.Errorf("Dashboard render failed: %v", err)
	}
}
