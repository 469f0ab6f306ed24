package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/nghyane/mux-console/internal/json"
	"github.com/nghyane/mux-console/internal/logging"
)

const (
	CredentialsFileName = "credentials.json"
	AdminTokenLength    = 16 // 32-char hex string
	CredentialsVersion  = 1
)

// Credentials holds the admin token used to authenticate against the
// gateway admin API. The same token guards remote access to the console's
// own management endpoints.
type Credentials struct {
	AdminToken string    `json:"admin-token"`
	CreatedAt  time.Time `json:"created-at"`
	Version    int       `json:"version"`
}

var (
	cache   *Credentials
	cacheMu sync.RWMutex
)

// CredentialsDir returns the credentials directory following XDG Base Directory spec.
// Uses $XDG_CONFIG_HOME/mux-console if set, otherwise ~/.config/mux-console
func CredentialsDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mux-console")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "mux-console")
	}
	return ""
}

// CredentialsFilePath returns the credentials file path following XDG spec.
// Uses $XDG_CONFIG_HOME/mux-console/credentials.json if set, otherwise ~/.config/mux-console/credentials.json
func CredentialsFilePath() string {
	dir := CredentialsDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, CredentialsFileName)
}

func GenerateAdminToken() (string, error) {
	b := make([]byte, AdminTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// LoadCredentials loads credentials with priority: ENV > file
func LoadCredentials() (*Credentials, error) {
	// Priority 1: Environment variable
	if token := strings.TrimSpace(os.Getenv("MUX_CONSOLE_ADMIN_TOKEN")); token != "" {
		return &Credentials{AdminToken: token, CreatedAt: time.Now(), Version: CredentialsVersion}, nil
	}

	// Priority 2: Cache
	cacheMu.RLock()
	if cache != nil {
		c := *cache
		cacheMu.RUnlock()
		return &c, nil
	}
	cacheMu.RUnlock()

	// Priority 3: File
	path := CredentialsFilePath()
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, err
	}

	// Migration: handle old snake_case format
	if creds.AdminToken == "" {
		var oldCreds struct {
			AdminToken string    `json:"admin_token"`
			CreatedAt  time.Time `json:"created_at"`
			Version    int       `json:"version"`
		}
		if json.Unmarshal(data, &oldCreds) == nil && oldCreds.AdminToken != "" {
			logging.Warn("credentials.json uses deprecated snake_case format, migrating to kebab-case")
			creds.AdminToken = oldCreds.AdminToken
			creds.CreatedAt = oldCreds.CreatedAt
			creds.Version = oldCreds.Version
			// Auto-migrate: save in new format
			_ = SaveCredentials(&creds)
		}
	}

	if creds.AdminToken == "" {
		return nil, nil
	}

	cacheMu.Lock()
	cache = &creds
	cacheMu.Unlock()

	return &creds, nil
}

func SaveCredentials(creds *Credentials) error {
	path := CredentialsFilePath()
	if path == "" {
		return fmt.Errorf("cannot determine credentials path")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	if creds.Version == 0 {
		creds.Version = CredentialsVersion
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}

	cacheMu.Lock()
	cache = creds
	cacheMu.Unlock()

	return nil
}

// StoreAdminToken persists the given token, replacing whatever was saved before.
func StoreAdminToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("admin token is empty")
	}
	return SaveCredentials(&Credentials{AdminToken: token, CreatedAt: time.Now(), Version: CredentialsVersion})
}

func GetAdminToken() string {
	creds, _ := LoadCredentials()
	if creds == nil {
		return ""
	}
	return creds.AdminToken
}

func HasAdminToken() bool {
	return GetAdminToken() != ""
}

func InvalidateCache() {
	cacheMu.Lock()
	cache = nil
	cacheMu.Unlock()
}
