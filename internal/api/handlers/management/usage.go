package management

import (
	"github.com/gin-gonic/gin"

	"github.com/nghyane/mux-console/internal/state"
)

// GetUsage returns the usage document for the current snapshot. A console
// that has not completed a refresh yet answers with an empty document
// rather than an error; the seq field tells callers whether data arrived.
func (h *Handler) GetUsage(c *gin.Context) {
	respondOK(c, buildUsageResponse(h.state.Snapshot()))
}

// buildUsageResponse projects a snapshot into the wire document. The report
// exporter reuses it so archived JSON matches what GET /usage serves.
func buildUsageResponse(snap *state.Snapshot) UsageResponse {
	resp := UsageResponse{
		WindowMs:    snap.WindowMs,
		Seq:         snap.InstalledSeq,
		RefreshedAt: formatRefreshedAt(snap.RefreshedAt),
		Notices:     snap.Notices,
	}
	if u := snap.Usage; u != nil {
		resp.Totals = recordPayload(&u.Totals)
		resp.PreviousTotals = recordPayload(u.PreviousTotals)
		resp.ByProvider = scopedPayloads(u.ByProvider)
		resp.ByEndpoint = scopedPayloads(u.ByEndpoint)
		resp.ByModel = scopedPayloads(u.ByModel)
		resp.ByKey = scopedPayloads(u.ByKey)
		resp.Buckets = bucketPayloads(u.Buckets)
		resp.BucketSizeMs = u.BucketSizeMs
	}
	resp.Accounts = accountPayloads(snap.Accounts)
	resp.Keys = keyPayloads(snap.Keys, snap.KeyUsage)
	return resp
}
