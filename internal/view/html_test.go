package view

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nghyane/mux-console/internal/state"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func TestRenderPage(t *testing.T) {
	r := newTestRenderer(t)
	d := BuildDashboard(testSnapshot(), testNow, "v1.2.3")

	var buf bytes.Buffer
	if err := r.Page(&buf, d); err != nil {
		t.Fatalf("Page: %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		`data-seq="7"`,
		"mux-console",
		"v1.2.3",
		"<svg",
		"By provider",
		"badge-gemini",
		"gateway slow to respond",
		`data-dismiss="n-1"`,
		"WebSocket",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if strings.Contains(html, "sk-1234567890abcdef") {
		t.Error("page leaks raw key material")
	}

	// The selector marks exactly the active window.
	if !strings.Contains(html, `value="86400000" selected`) {
		t.Error("active window option not selected")
	}
	if strings.Count(html, " selected") != 1 {
		t.Errorf("got %d selected options, want 1", strings.Count(html, " selected"))
	}
}

func TestRenderPageEscapesNoticeText(t *testing.T) {
	r := newTestRenderer(t)
	snap := testSnapshot()
	snap.Notices = []state.Notice{
		{ID: "n-x", Level: state.NoticeError, Message: `<script>alert("x")</script>`, At: testNow},
	}
	d := BuildDashboard(snap, testNow, "dev")

	var buf bytes.Buffer
	if err := r.Page(&buf, d); err != nil {
		t.Fatalf("Page: %v", err)
	}
	html := buf.String()

	if strings.Contains(html, `<script>alert`) {
		t.Error("notice text rendered unescaped")
	}
	if !strings.Contains(html, "&lt;script&gt;") {
		t.Error("escaped notice text missing from page")
	}
}

func TestRenderPageEmptyState(t *testing.T) {
	r := newTestRenderer(t)
	d := BuildDashboard(state.NewStore(86400000).Snapshot(), testNow, "dev")

	var buf bytes.Buffer
	if err := r.Page(&buf, d); err != nil {
		t.Fatalf("Page: %v", err)
	}
	html := buf.String()

	if !strings.Contains(html, "No usage data for this window yet") {
		t.Error("empty state placeholder missing")
	}
	if !strings.Contains(html, "No accounts configured") {
		t.Error("empty accounts placeholder missing")
	}
	if strings.Contains(html, "<svg") {
		t.Error("chart markup rendered without data")
	}
}

func TestRenderFragment(t *testing.T) {
	r := newTestRenderer(t)
	d := BuildDashboard(testSnapshot(), testNow, "dev")

	var buf bytes.Buffer
	if err := r.Fragment(&buf, d); err != nil {
		t.Fatalf("Fragment: %v", err)
	}
	html := buf.String()

	if strings.Contains(html, "<!doctype") || strings.Contains(html, "<html") {
		t.Error("fragment carries the page shell")
	}
	if !strings.Contains(html, "By provider") || !strings.Contains(html, "API keys") {
		t.Error("fragment missing usage sections")
	}
}

func TestRenderReport(t *testing.T) {
	r := newTestRenderer(t)
	snap := testSnapshot()
	snap.Notices = nil
	d := BuildDashboard(snap, testNow, "v1.2.3")

	var buf bytes.Buffer
	if err := r.Report(&buf, d); err != nil {
		t.Fatalf("Report: %v", err)
	}
	html := buf.String()

	if !strings.Contains(html, "Usage report") {
		t.Error("report header missing")
	}
	if !strings.Contains(html, "24h window") {
		t.Error("report window label missing")
	}
	if strings.Contains(html, "<script") {
		t.Error("static report carries script")
	}
	if !strings.Contains(html, "<svg") {
		t.Error("report missing chart markup")
	}
}
