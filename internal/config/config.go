package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPort is the port the console UI listens on.
	DefaultPort = 8318

	// DefaultAdminURL points at a gateway running on its stock port.
	DefaultAdminURL = "http://127.0.0.1:8317"

	// DefaultWindowMs is the usage window shown on first run (24 hours).
	DefaultWindowMs = int64(24 * 60 * 60 * 1000)

	// DefaultRefreshInterval is how often the background refresher polls the gateway.
	DefaultRefreshInterval = 30 * time.Second

	// MaxWindowMs bounds the lookback window at ninety days. The gateway's
	// own retention is shorter; larger windows just return empty buckets at
	// high upstream cost.
	MaxWindowMs = int64(90 * 24 * time.Hour / time.Millisecond)
)

// Config is the root console configuration, stored as kebab-case YAML at
// $XDG_CONFIG_HOME/mux-console/config.yaml.
type Config struct {
	// Port is the local port the console UI listens on.
	Port int `yaml:"port" json:"port"`

	// Debug enables verbose logging and gin debug mode.
	Debug bool `yaml:"debug,omitempty" json:"debug,omitempty"`

	// LoggingToFile redirects logs to rotating files instead of stdout.
	LoggingToFile bool `yaml:"logging-to-file,omitempty" json:"logging-to-file,omitempty"`

	// RefreshInterval is the background poll cadence, e.g. "30s".
	RefreshInterval string `yaml:"refresh-interval,omitempty" json:"refresh-interval,omitempty"`

	// WindowMs is the initial usage lookback window in milliseconds.
	WindowMs int64 `yaml:"window-ms,omitempty" json:"window-ms,omitempty"`

	// Servers lists the gateway admin endpoints the console can fetch from.
	Servers []Server `yaml:"servers,omitempty" json:"servers,omitempty"`

	// Reports configures the report archive.
	Reports ReportsConfig `yaml:"reports,omitempty" json:"reports,omitempty"`

	// Remote controls access to the console from other machines.
	Remote RemoteConfig `yaml:"remote,omitempty" json:"remote,omitempty"`

	// RequestLog enables per-request access logging.
	RequestLog bool `yaml:"request-log,omitempty" json:"request-log,omitempty"`
}

// ReportsConfig configures where exported usage reports are archived.
type ReportsConfig struct {
	// ArchiveDSN selects the backend: file://, s3:// or git://.
	// Empty means the filesystem default under the config directory.
	ArchiveDSN string `yaml:"archive-dsn,omitempty" json:"archive-dsn,omitempty"`

	// Dir overrides the directory used by the filesystem backend.
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`
}

// RemoteConfig controls non-localhost access to the console.
type RemoteConfig struct {
	// AllowRemote opens the console to other machines.
	// Management endpoints then require the admin token.
	AllowRemote bool `yaml:"allow-remote,omitempty" json:"allow-remote,omitempty"`
}

// NewDefaultConfig returns a config pointing at a local gateway.
func NewDefaultConfig() *Config {
	return &Config{
		Port:            DefaultPort,
		RefreshInterval: DefaultRefreshInterval.String(),
		WindowMs:        DefaultWindowMs,
		Servers: []Server{
			{Name: "local", BaseURL: DefaultAdminURL, Default: true},
		},
	}
}

// LoadConfig loads and sanitizes the config file at path.
func LoadConfig(path string) (*Config, error) {
	return LoadConfigOptional(path, false)
}

// LoadConfigOptional loads the config file at path.
// When optional is true a missing file returns (nil, nil) so callers can
// fall back to defaults.
func LoadConfigOptional(path string, optional bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.Sanitize()
	return &cfg, nil
}

// SaveConfig writes the config as YAML with restrictive permissions.
func SaveConfig(cfg *Config, path string) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if path == "" {
		return fmt.Errorf("config path is empty")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Sanitize normalizes fields in place and drops invalid server entries.
func (cfg *Config) Sanitize() {
	if cfg == nil {
		return
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		cfg.Port = DefaultPort
	}
	if cfg.WindowMs <= 0 {
		cfg.WindowMs = DefaultWindowMs
	}
	cfg.RefreshInterval = strings.TrimSpace(cfg.RefreshInterval)
	cfg.Reports.ArchiveDSN = strings.TrimSpace(cfg.Reports.ArchiveDSN)
	cfg.Reports.Dir = strings.TrimSpace(cfg.Reports.Dir)
	cfg.Servers = SanitizeServers(cfg.Servers)
}

// GetRefreshInterval parses the configured poll cadence.
// Invalid or missing values fall back to the default.
func (cfg *Config) GetRefreshInterval() time.Duration {
	if cfg == nil || cfg.RefreshInterval == "" {
		return DefaultRefreshInterval
	}
	d, err := time.ParseDuration(cfg.RefreshInterval)
	if err != nil || d < time.Second {
		return DefaultRefreshInterval
	}
	return d
}

// GetWindowMs returns the configured lookback window with fallback.
func (cfg *Config) GetWindowMs() int64 {
	if cfg == nil || cfg.WindowMs <= 0 {
		return DefaultWindowMs
	}
	return cfg.WindowMs
}

// ParseWindow parses a window argument: a Go duration ("45m", "6h") or a
// day count ("7d"). Results outside [1m, 90d] are rejected.
func ParseWindow(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("window is empty")
	}

	var d time.Duration
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid window %q", s)
		}
		d = time.Duration(n) * 24 * time.Hour
	} else {
		var err error
		if d, err = time.ParseDuration(s); err != nil {
			return 0, fmt.Errorf("invalid window %q", s)
		}
	}

	ms := int64(d / time.Millisecond)
	if ms < int64(time.Minute/time.Millisecond) || ms > MaxWindowMs {
		return 0, fmt.Errorf("window %q must be between 1m and 90d", s)
	}
	return ms, nil
}

// ReportsDir returns the directory for the filesystem archive backend.
// Defaults to a reports/ directory next to the config file.
func (cfg *Config) ReportsDir() string {
	if cfg != nil && cfg.Reports.Dir != "" {
		return expandPath(cfg.Reports.Dir)
	}
	if dir := CredentialsDir(); dir != "" {
		return filepath.Join(dir, "reports")
	}
	return "reports"
}

// NormalizeHeaders trims header names and values and drops empty entries.
func NormalizeHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	result := make(map[string]string, len(headers))
	for k, v := range headers {
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		result[k] = v
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

const defaultConfigHeader = `# mux-console configuration.
# The console reads usage from a gateway admin API and renders it locally.
# Tokens are better kept in credentials.json (mux-console config import-token)
# or the MUX_CONSOLE_ADMIN_TOKEN environment variable than inline here.

`

// GenerateDefaultConfigYAML renders the default config as YAML with a
// short explanatory header. Used for first-run auto-init and the init command.
func GenerateDefaultConfigYAML() []byte {
	data, err := yaml.Marshal(NewDefaultConfig())
	if err != nil {
		return []byte(defaultConfigHeader)
	}
	return append([]byte(defaultConfigHeader), data...)
}
