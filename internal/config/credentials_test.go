package config

import (
	"os"
	"strings"
	"testing"
)

func TestLoadCredentialsEnvPriority(t *testing.T) {
	t.Setenv("MUX_CONSOLE_ADMIN_TOKEN", "from-env")
	InvalidateCache()

	creds, err := LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials() error = %v", err)
	}
	if creds == nil || creds.AdminToken != "from-env" {
		t.Errorf("LoadCredentials() = %+v, want env token", creds)
	}
}

func TestCredentialsRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("MUX_CONSOLE_ADMIN_TOKEN", "")
	InvalidateCache()
	defer InvalidateCache()

	if HasAdminToken() {
		t.Fatal("fresh config dir should have no token")
	}

	if err := StoreAdminToken("sk-test-token"); err != nil {
		t.Fatalf("StoreAdminToken() error = %v", err)
	}

	info, err := os.Stat(CredentialsFilePath())
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("credentials file mode = %o, want 600", perm)
	}

	InvalidateCache()
	if got := GetAdminToken(); got != "sk-test-token" {
		t.Errorf("GetAdminToken() = %q, want sk-test-token", got)
	}
}

func TestStoreAdminTokenRejectsEmpty(t *testing.T) {
	if err := StoreAdminToken("   "); err == nil {
		t.Error("StoreAdminToken() should reject blank tokens")
	}
}

func TestLoadCredentialsSnakeCaseMigration(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("MUX_CONSOLE_ADMIN_TOKEN", "")
	InvalidateCache()
	defer InvalidateCache()

	old := `{"admin_token":"legacy-token","created_at":"2025-01-01T00:00:00Z","version":1}`
	if err := os.MkdirAll(CredentialsDir(), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(CredentialsFilePath(), []byte(old), 0o600); err != nil {
		t.Fatal(err)
	}

	creds, err := LoadCredentials()
	if err != nil {
		t.Fatalf("LoadCredentials() error = %v", err)
	}
	if creds == nil || creds.AdminToken != "legacy-token" {
		t.Fatalf("LoadCredentials() = %+v, want migrated token", creds)
	}

	// Migration rewrites the file in kebab-case
	data, err := os.ReadFile(CredentialsFilePath())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"admin-token"`) {
		t.Errorf("credentials file not migrated: %s", data)
	}
}

func TestGenerateAdminToken(t *testing.T) {
	a, err := GenerateAdminToken()
	if err != nil {
		t.Fatal(err)
	}
	b, err := GenerateAdminToken()
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != AdminTokenLength*2 {
		t.Errorf("token length = %d, want %d hex chars", len(a), AdminTokenLength*2)
	}
	if a == b {
		t.Error("consecutive tokens should differ")
	}
}
