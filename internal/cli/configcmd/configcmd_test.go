package configcmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nghyane/mux-console/internal/config"
)

func TestExtractManagementKey(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{
			name: "kebab-case",
			data: `{"management-key": "abc123", "version": 1}`,
			want: "abc123",
		},
		{
			name: "legacy snake_case",
			data: `{"management_key": "def456", "version": 1}`,
			want: "def456",
		},
		{
			name: "kebab wins over legacy",
			data: `{"management-key": "new", "management_key": "old"}`,
			want: "new",
		},
		{
			name:    "no key",
			data:    `{"version": 1}`,
			wantErr: true,
		},
		{
			name:    "invalid json",
			data:    `{not json`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractManagementKey([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("extractManagementKey: %v", err)
			}
			if got != tt.want {
				t.Errorf("key = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDoImportToken(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("MUX_CONSOLE_ADMIN_TOKEN", "")
	config.InvalidateCache()
	t.Cleanup(config.InvalidateCache)

	src := filepath.Join(dir, "credentials.json")
	if err := os.WriteFile(src, []byte(`{"management-key": "cafe0123", "version": 1}`), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := DoImportToken(src); err != nil {
		t.Fatalf("DoImportToken: %v", err)
	}

	if got := config.GetAdminToken(); got != "cafe0123" {
		t.Errorf("stored token = %q, want cafe0123", got)
	}
	if _, err := os.Stat(filepath.Join(dir, "mux-console", "credentials.json")); err != nil {
		t.Errorf("console credentials file not written: %v", err)
	}
}

func TestDoImportTokenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("MUX_CONSOLE_ADMIN_TOKEN", "")
	config.InvalidateCache()
	t.Cleanup(config.InvalidateCache)

	gatewayDir := filepath.Join(dir, "llm-mux")
	if err := os.MkdirAll(gatewayDir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(gatewayDir, "credentials.json"), []byte(`{"management-key": "feed5678"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := DoImportToken(""); err != nil {
		t.Fatalf("DoImportToken: %v", err)
	}
	if got := config.GetAdminToken(); got != "feed5678" {
		t.Errorf("stored token = %q, want feed5678", got)
	}
}

func TestDoImportTokenMissingFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if err := DoImportToken(filepath.Join(dir, "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
