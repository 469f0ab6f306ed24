package console

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Options{BaseURL: srv.URL, Token: "tok"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestClientUsage(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v0/management/usage" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		io.WriteString(w, `{
			"data": {
				"window-ms": 86400000,
				"seq": 7,
				"totals": {"requests": 1234, "success": 1200, "total-tokens": 50000},
				"by-provider": [{"scope": "gemini", "requests": 900, "success": 880, "total-tokens": 0}],
				"buckets": [{"bucket-start": 1700000000000, "requests": 10, "success": 10, "total-tokens": 0}]
			},
			"meta": {"timestamp": "2026-03-10T12:00:00Z", "version": "dev"}
		}`)
	})

	client := newTestClient(t, handler)
	usage, err := client.Usage(context.Background())
	if err != nil {
		t.Fatalf("Usage: %v", err)
	}

	if usage.WindowMs != 86400000 {
		t.Errorf("WindowMs = %d", usage.WindowMs)
	}
	if usage.Seq != 7 {
		t.Errorf("Seq = %d", usage.Seq)
	}
	if usage.Totals == nil || usage.Totals.Requests != 1234 {
		t.Errorf("Totals = %+v", usage.Totals)
	}
	if len(usage.ByProvider) != 1 || usage.ByProvider[0].Scope != "gemini" {
		t.Errorf("ByProvider = %+v", usage.ByProvider)
	}
	if len(usage.Buckets) != 1 || usage.Buckets[0].BucketStart != 1700000000000 {
		t.Errorf("Buckets = %+v", usage.Buckets)
	}
}

func TestClientSetWindow(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/v0/management/window" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"window-ms":3600000`) {
			t.Errorf("body = %s", body)
		}
		io.WriteString(w, `{"data": {"window-ms": 3600000}, "meta": {}}`)
	})

	client := newTestClient(t, handler)
	if err := client.SetWindow(context.Background(), 3600000); err != nil {
		t.Fatalf("SetWindow: %v", err)
	}
}

func TestClientWindow(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": {"window-ms": 604800000}, "meta": {}}`)
	})

	client := newTestClient(t, handler)
	got, err := client.Window(context.Background())
	if err != nil {
		t.Fatalf("Window: %v", err)
	}
	if got != 604800000 {
		t.Errorf("window = %d, want 604800000", got)
	}
}

func TestClientReports(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			io.WriteString(w, `{"data": {"reports": [
				{"name": "usage-24h-20260310-120000.html", "size": 4096, "mod-time": "2026-03-10T12:00:00Z"}
			]}, "meta": {}}`)
		case http.MethodPost:
			io.WriteString(w, `{"data": {"id": "r-1", "name": "usage-24h-20260310-120000", "window": "24h"}, "meta": {}}`)
		}
	})

	client := newTestClient(t, handler)

	infos, err := client.Reports(context.Background())
	if err != nil {
		t.Fatalf("Reports: %v", err)
	}
	if len(infos) != 1 || infos[0].Size != 4096 {
		t.Errorf("Reports = %+v", infos)
	}

	created, err := client.CreateReport(context.Background())
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if created.Window != "24h" || created.Name == "" {
		t.Errorf("CreateReport = %+v", created)
	}
}

func TestClientDismissNotice(t *testing.T) {
	var gotPath string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s", r.Method)
		}
		io.WriteString(w, `{"data": {"status": "dismissed"}, "meta": {}}`)
	})

	client := newTestClient(t, handler)
	if err := client.DismissNotice(context.Background(), "n-42"); err != nil {
		t.Fatalf("DismissNotice: %v", err)
	}
	if gotPath != "/v0/management/notices/n-42" {
		t.Errorf("path = %q", gotPath)
	}

	if err := client.DismissNotice(context.Background(), "  "); err == nil {
		t.Error("blank id should be rejected client-side")
	}
}

func TestClientHealth(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"data": {
			"status": "degraded",
			"version": "1.2.0",
			"gateway": {"url": "http://127.0.0.1:8317", "status": "unreachable", "error": "connection refused"}
		}, "meta": {}}`)
	})

	client := newTestClient(t, handler)
	health, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Status != "degraded" || health.Gateway == nil || health.Gateway.Status != "unreachable" {
		t.Errorf("Health = %+v", health)
	}
}

func TestClientErrorEnvelope(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error": {"code": "VALIDATION_ERROR", "message": "window-ms must be positive and at most 90 days"}}`)
	})

	client := newTestClient(t, handler)
	err := client.SetWindow(context.Background(), -1)
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if !strings.Contains(apiErr.Error(), "90 days") {
		t.Errorf("Error() = %q", apiErr.Error())
	}
}

func TestNewValidatesBaseURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "empty", url: ""},
		{name: "bad scheme", url: "ftp://example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(Options{BaseURL: tt.url}); err == nil {
				t.Errorf("New(%q) should fail", tt.url)
			}
		})
	}
}
