package management

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// PostRefresh schedules an immediate refresh cycle. Triggers coalesce, so
// hammering the button costs one cycle.
func (h *Handler) PostRefresh(c *gin.Context) {
	h.refresher.TriggerRefresh()
	respondOK(c, gin.H{"status": "refresh scheduled"})
}

// DismissNotice removes one dashboard notice. Dismissing an unknown or
// already-dismissed ID succeeds; the outcome is the same.
func (h *Handler) DismissNotice(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		respondBadRequest(c, "notice id is required")
		return
	}
	h.state.DismissNotice(id)
	respondOK(c, gin.H{"status": "dismissed"})
}
