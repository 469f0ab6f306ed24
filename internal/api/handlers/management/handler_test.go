package management

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/nghyane/mux-console/internal/adminapi"
	"github.com/nghyane/mux-console/internal/config"
	"github.com/nghyane/mux-console/internal/metrics"
	"github.com/nghyane/mux-console/internal/refresh"
	"github.com/nghyane/mux-console/internal/state"
	"github.com/nghyane/mux-console/internal/store"
	"github.com/nghyane/mux-console/internal/view"
)

type testEnv struct {
	handler    *Handler
	state      *state.Store
	router     *gin.Engine
	reportsDir string
	configPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := state.NewStore(86400000)
	renderer, err := view.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	reportsDir := t.TempDir()
	archive, err := store.NewFSArchive(reportsDir)
	if err != nil {
		t.Fatalf("NewFSArchive: %v", err)
	}
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	h := NewHandler(Options{
		State:      st,
		Refresher:  refresh.New(nil, st, time.Minute),
		Archive:    archive,
		Renderer:   renderer,
		Config:     config.NewDefaultConfig(),
		ConfigPath: configPath,
	})

	r := gin.New()
	h.RegisterRoutes(r.Group("/v0/management"))
	return &testEnv{handler: h, state: st, router: r, reportsDir: reportsDir, configPath: configPath}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// installUsage puts a populated snapshot into the store.
func (e *testEnv) installUsage(t *testing.T) {
	t.Helper()
	lastUsed := time.Now().Add(-time.Minute).UnixMilli()
	ok := e.state.Install(e.state.NextSeq(), func(next *state.Snapshot) {
		next.Usage = &adminapi.UsagePayload{
			Totals: metrics.Record{RequestCount: 1234, SuccessCount: 1180, InputTokens: 5000, OutputTokens: 2000},
			ByProvider: []adminapi.ScopedRecord{
				{Scope: "gemini", Record: metrics.Record{RequestCount: 800, SuccessCount: 780}},
			},
			Buckets: []metrics.Bucket{
				{BucketStart: 1000, Record: metrics.Record{RequestCount: 600, SuccessCount: 580}},
				{BucketStart: 3601000, Record: metrics.Record{RequestCount: 634, SuccessCount: 600}},
			},
			BucketSizeMs: 3600000,
			WindowMs:     86400000,
		}
		next.Keys = []adminapi.Key{
			{ID: "key-1", Key: "sk-1234567890abcdef", Label: "team-a", LastUsedAt: &lastUsed},
		}
		next.KeyUsage = map[string]*adminapi.UsagePayload{
			"key-1": {Totals: metrics.Record{RequestCount: 600}},
		}
	})
	if !ok {
		t.Fatal("snapshot install rejected")
	}
}

func TestGetUsageEmptySnapshot(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/v0/management/usage", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	body := w.Body.String()
	if got := gjson.Get(body, "data.window-ms").Int(); got != 86400000 {
		t.Errorf("window-ms = %d, want 86400000", got)
	}
	if got := gjson.Get(body, "data.seq").Int(); got != 0 {
		t.Errorf("seq = %d, want 0", got)
	}
	if gjson.Get(body, "data.totals").Exists() {
		t.Error("totals present before any refresh")
	}
	if !gjson.Get(body, "meta.timestamp").Exists() {
		t.Error("response envelope missing meta.timestamp")
	}
}

func TestGetUsageDocument(t *testing.T) {
	e := newTestEnv(t)
	e.installUsage(t)

	w := e.do(t, http.MethodGet, "/v0/management/usage", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()

	if got := gjson.Get(body, "data.totals.requests").Int(); got != 1234 {
		t.Errorf("totals.requests = %d, want 1234", got)
	}
	if got := gjson.Get(body, "data.totals.success-rate").Int(); got != 96 {
		t.Errorf("totals.success-rate = %d, want 96", got)
	}
	if got := gjson.Get(body, "data.totals.total-tokens").Int(); got != 7000 {
		t.Errorf("totals.total-tokens = %d, want 7000", got)
	}
	if got := gjson.Get(body, "data.by-provider.0.scope").String(); got != "gemini" {
		t.Errorf("by-provider scope = %q, want gemini", got)
	}
	if got := gjson.Get(body, "data.buckets.#").Int(); got != 2 {
		t.Errorf("buckets = %d, want 2", got)
	}
	if got := gjson.Get(body, "data.seq").Int(); got != 1 {
		t.Errorf("seq = %d, want 1", got)
	}
	if !gjson.Get(body, "data.refreshed-at").Exists() {
		t.Error("refreshed-at missing after install")
	}

	masked := gjson.Get(body, "data.keys.0.masked-key").String()
	if strings.Contains(masked, "1234567890abcdef") {
		t.Errorf("masked-key %q leaks key material", masked)
	}
	if strings.Contains(body, "sk-1234567890abcdef") {
		t.Error("response leaks raw key material")
	}
	if got := gjson.Get(body, "data.keys.0.usage.requests").Int(); got != 600 {
		t.Errorf("key usage requests = %d, want 600", got)
	}
}

func TestWindowRoundTrip(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPut, "/v0/management/window", `{"window-ms": 3600000}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if got := gjson.Get(w.Body.String(), "data.window-ms").Int(); got != 3600000 {
		t.Errorf("response window-ms = %d, want 3600000", got)
	}
	if got := e.state.Snapshot().WindowMs; got != 3600000 {
		t.Errorf("snapshot window = %d, want 3600000", got)
	}

	// The change persists to the config file.
	raw, err := os.ReadFile(e.configPath)
	if err != nil {
		t.Fatalf("read persisted config: %v", err)
	}
	if !strings.Contains(string(raw), "window-ms: 3600000") {
		t.Errorf("persisted config missing window:\n%s", raw)
	}

	w = e.do(t, http.MethodGet, "/v0/management/window", "")
	if got := gjson.Get(w.Body.String(), "data.window-ms").Int(); got != 3600000 {
		t.Errorf("GET window-ms = %d, want 3600000", got)
	}
}

func TestPutWindowValidation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"malformed json", `{"window-ms": `, ErrCodeInvalidRequest},
		{"missing field", `{}`, ErrCodeInvalidRequest},
		{"zero", `{"window-ms": 0}`, ErrCodeValidation},
		{"negative", `{"window-ms": -5}`, ErrCodeValidation},
		{"beyond ninety days", `{"window-ms": 8640000000000}`, ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			w := e.do(t, http.MethodPut, "/v0/management/window", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if got := gjson.Get(w.Body.String(), "error.code").String(); got != tt.wantCode {
				t.Errorf("error code = %q, want %q", got, tt.wantCode)
			}
			if got := e.state.Snapshot().WindowMs; got != 86400000 {
				t.Errorf("window changed to %d on invalid input", got)
			}
		})
	}
}

func TestPostRefresh(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodPost, "/v0/management/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := gjson.Get(w.Body.String(), "data.status").String(); got != "refresh scheduled" {
		t.Errorf("status = %q", got)
	}
}

func TestDismissNotice(t *testing.T) {
	e := newTestEnv(t)
	n := e.state.AddNotice(state.NoticeWarn, "gateway slow")

	w := e.do(t, http.MethodDelete, "/v0/management/notices/"+n.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := len(e.state.Snapshot().Notices); got != 0 {
		t.Errorf("%d notices remain after dismiss", got)
	}

	// Dismissing again is a no-op, not an error.
	w = e.do(t, http.MethodDelete, "/v0/management/notices/"+n.ID, "")
	if w.Code != http.StatusOK {
		t.Errorf("second dismiss status = %d, want 200", w.Code)
	}
}

func TestGetUsageChart(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/v0/management/usage/chart.svg", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("empty chart status = %d, want 404", w.Code)
	}
	if got := gjson.Get(w.Body.String(), "error.code").String(); got != ErrCodeNotFound {
		t.Errorf("error code = %q", got)
	}

	e.installUsage(t)
	for _, series := range []string{"", "?series=requests", "?series=tokens"} {
		w = e.do(t, http.MethodGet, "/v0/management/usage/chart.svg"+series, "")
		if w.Code != http.StatusOK {
			t.Fatalf("chart %q status = %d, want 200", series, w.Code)
		}
		if got := w.Header().Get("Content-Type"); got != "image/svg+xml" {
			t.Errorf("content type = %q", got)
		}
		if !strings.Contains(w.Body.String(), "<svg") {
			t.Errorf("chart %q is not svg", series)
		}
	}

	w = e.do(t, http.MethodGet, "/v0/management/usage/chart.svg?series=latency", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown series status = %d, want 400", w.Code)
	}
}

func TestCreateAndListReports(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodPost, "/v0/management/reports", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("report without data status = %d, want 404", w.Code)
	}

	e.installUsage(t)
	w = e.do(t, http.MethodPost, "/v0/management/reports", "")
	if w.Code != http.StatusOK {
		t.Fatalf("create report status = %d: %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	name := gjson.Get(body, "data.name").String()
	if !strings.HasPrefix(name, "usage-24h-") {
		t.Errorf("report name = %q, want usage-24h- prefix", name)
	}
	if gjson.Get(body, "data.id").String() == "" {
		t.Error("report id missing")
	}

	entries, err := os.ReadDir(e.reportsDir)
	if err != nil {
		t.Fatalf("read reports dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("archived %d files, want html and json", len(entries))
	}

	// The export leaves a confirmation notice on the dashboard.
	notices := e.state.Snapshot().Notices
	if len(notices) != 1 || !strings.Contains(notices[0].Message, name) {
		t.Errorf("notices after export = %+v", notices)
	}

	w = e.do(t, http.MethodGet, "/v0/management/reports", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list reports status = %d", w.Code)
	}
	if got := gjson.Get(w.Body.String(), "data.reports.#").Int(); got != 2 {
		t.Errorf("listed %d reports, want 2", got)
	}
}

func TestReportHTMLIsStatic(t *testing.T) {
	e := newTestEnv(t)
	e.installUsage(t)

	if w := e.do(t, http.MethodPost, "/v0/management/reports", ""); w.Code != http.StatusOK {
		t.Fatalf("create report status = %d", w.Code)
	}
	entries, err := os.ReadDir(e.reportsDir)
	if err != nil {
		t.Fatalf("read reports dir: %v", err)
	}
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(e.reportsDir, entry.Name()))
		if err != nil {
			t.Fatalf("read report: %v", err)
		}
		if strings.Contains(string(raw), "<script") {
			t.Error("archived report carries script")
		}
		if !strings.Contains(string(raw), "Usage report") {
			t.Error("archived report missing header")
		}
	}
}

func TestGetHealth(t *testing.T) {
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("probe path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer gateway.Close()

	client, err := adminapi.New(adminapi.Options{BaseURL: gateway.URL})
	if err != nil {
		t.Fatalf("adminapi.New: %v", err)
	}

	e := newTestEnv(t)
	e.handler.client = client

	w := e.do(t, http.MethodGet, "/v0/management/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if got := gjson.Get(body, "data.status").String(); got != "ok" {
		t.Errorf("status = %q, want ok", got)
	}
	if got := gjson.Get(body, "data.gateway.status").String(); got != "ok" {
		t.Errorf("gateway status = %q, want ok", got)
	}

	// Losing the gateway degrades the status but the endpoint still
	// answers 200.
	gateway.Close()
	w = e.do(t, http.MethodGet, "/v0/management/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status after gateway loss = %d, want 200", w.Code)
	}
	body = w.Body.String()
	if got := gjson.Get(body, "data.status").String(); got != "degraded" {
		t.Errorf("status = %q, want degraded", got)
	}
	if got := gjson.Get(body, "data.gateway.status").String(); got != "unreachable" {
		t.Errorf("gateway status = %q, want unreachable", got)
	}
}

func TestGetHealthWithoutClient(t *testing.T) {
	e := newTestEnv(t)
	w := e.do(t, http.MethodGet, "/v0/management/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if got := gjson.Get(body, "data.status").String(); got != "ok" {
		t.Errorf("status = %q, want ok", got)
	}
	if gjson.Get(body, "data.gateway").Exists() {
		t.Error("gateway section present without a configured client")
	}
}
