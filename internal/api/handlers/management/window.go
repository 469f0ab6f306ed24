package management

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nghyane/mux-console/internal/config"
)

// GetWindow returns the active lookback window.
func (h *Handler) GetWindow(c *gin.Context) {
	respondOK(c, gin.H{"window-ms": h.state.Snapshot().WindowMs})
}

// PutWindow changes the lookback window, persists it and schedules a
// refresh so the new window's data arrives without waiting for the ticker.
func (h *Handler) PutWindow(c *gin.Context) {
	windowMs, ok := h.bindWindowValue(c)
	if !ok {
		return
	}
	if windowMs <= 0 || windowMs > config.MaxWindowMs {
		respondError(c, http.StatusBadRequest, ErrCodeValidation, "window-ms must be positive and at most 90 days")
		return
	}

	h.state.SetWindow(windowMs)

	h.mu.Lock()
	h.cfg.WindowMs = windowMs
	persisted := h.persistSilent()
	h.mu.Unlock()
	if !persisted {
		respondError(c, http.StatusInternalServerError, ErrCodeWriteFailed, "failed to save config")
		return
	}

	h.refresher.TriggerRefresh()
	respondOK(c, gin.H{"window-ms": windowMs})
}
