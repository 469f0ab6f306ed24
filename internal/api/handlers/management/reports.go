package management

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nghyane/mux-console/internal/buildinfo"
	"github.com/nghyane/mux-console/internal/json"
	log "github.com/nghyane/mux-console/internal/logging"
	"github.com/nghyane/mux-console/internal/state"
	"github.com/nghyane/mux-console/internal/store"
	"github.com/nghyane/mux-console/internal/view"
)

// CreateReport renders the current snapshot into a static HTML report plus
// its raw JSON document and writes both to the archive.
func (h *Handler) CreateReport(c *gin.Context) {
	if h.archive == nil || h.renderer == nil {
		respondError(c, http.StatusInternalServerError, ErrCodeWriteFailed, "report archive is not configured")
		return
	}
	snap := h.state.Snapshot()
	if snap.Usage == nil {
		respondNotFound(c, "no usage data to report")
		return
	}

	report, err := BuildReport(snap, h.renderer, time.Now())
	if err != nil {
		log.Errorf("Report build failed: %v", err)
		respondInternalError(c, "failed to build report")
		return
	}
	name, err := h.archive.Put(c.Request.Context(), report)
	if err != nil {
		log.Errorf("Report archive write failed: %v", err)
		respondError(c, http.StatusInternalServerError, ErrCodeWriteFailed, "failed to archive report")
		return
	}

	h.state.AddNotice(state.NoticeInfo, "report archived: "+name)
	respondOK(c, ReportCreatedResponse{ID: report.ID, Name: name, Window: report.Window})
}

// BuildReport renders snap into an archivable report: the static HTML page
// plus a JSON document matching what GET /usage serves. The report command
// shares it with the HTTP handler so both paths archive identical files.
func BuildReport(snap *state.Snapshot, renderer *view.Renderer, now time.Time) (store.Report, error) {
	d := view.BuildDashboard(snap, now, buildinfo.Version)
	// Transient notices do not belong in an archived document.
	d.Notices = nil

	var html bytes.Buffer
	if err := renderer.Report(&html, d); err != nil {
		return store.Report{}, fmt.Errorf("render report: %w", err)
	}

	doc := buildUsageResponse(snap)
	doc.Notices = nil
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return store.Report{}, fmt.Errorf("encode report data: %w", err)
	}

	return store.Report{
		ID:        uuid.NewString(),
		Window:    view.WindowLabel(snap.WindowMs),
		CreatedAt: now,
		HTML:      html.Bytes(),
		JSON:      raw,
	}, nil
}

// ListReports lists archived reports, newest first.
func (h *Handler) ListReports(c *gin.Context) {
	if h.archive == nil {
		respondOK(c, gin.H{"reports": []store.ReportInfo{}})
		return
	}
	infos, err := h.archive.List(c.Request.Context())
	if err != nil {
		log.Errorf("Report listing failed: %v", err)
		respondInternalError(c, "failed to list reports")
		return
	}
	if infos == nil {
		infos = []store.ReportInfo{}
	}
	respondOK(c, gin.H{"reports": infos})
}
