package management

import (
	"github.com/gin-gonic/gin"

	"github.com/nghyane/mux-console/internal/api/ws"
)

// GetWS upgrades the connection and subscribes it to usage-updated events.
func (h *Handler) GetWS(c *gin.Context) {
	if h.hub == nil {
		respondNotFound(c, "live updates are not enabled")
		return
	}
	ws.ServeWS(h.hub, c.Writer, c.Request)
}
