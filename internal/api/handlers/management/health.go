package management

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nghyane/mux-console/internal/buildinfo"
)

const healthProbeTimeout = 5 * time.Second

// GetHealth reports console liveness plus gateway reachability. The
// console itself answering is the liveness signal; an unreachable gateway
// degrades the status without failing the request.
func (h *Handler) GetHealth(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Version: buildinfo.Version}

	if client := h.currentClient(); client != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthProbeTimeout)
		defer cancel()

		gw := &GatewayHealth{URL: client.BaseURL(), Status: "ok"}
		if err := client.Health(ctx); err != nil {
			gw.Status = "unreachable"
			gw.Error = err.Error()
			resp.Status = "degraded"
		}
		resp.Gateway = gw
	}

	respondOK(c, resp)
}
