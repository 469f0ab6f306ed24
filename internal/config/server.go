package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

// Server represents one gateway admin endpoint the console can talk to.
// A config may list several (staging, production, a local dev instance);
// exactly one is the default target for fetches.
type Server struct {
	// Name is a display name for this server profile.
	// Falls back to the base URL host if not set.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Enabled allows disabling a server without removing it. Default: true.
	Enabled *bool `yaml:"enabled,omitempty" json:"enabled,omitempty"`

	// BaseURL is the gateway admin API endpoint, e.g. http://127.0.0.1:8317.
	BaseURL string `yaml:"base-url" json:"base-url"`

	// Token is the admin token for this server.
	// If empty, TokenFile and then the shared credentials file are consulted.
	Token string `yaml:"token,omitempty" json:"token,omitempty"`

	// TokenFile points at a file whose trimmed contents are the admin token.
	TokenFile string `yaml:"token-file,omitempty" json:"token-file,omitempty"`

	// ProxyURL sets a proxy for this server's requests (http, https or socks5).
	ProxyURL string `yaml:"proxy-url,omitempty" json:"proxy-url,omitempty"`

	// Headers adds custom HTTP headers to requests.
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`

	// Default marks this server as the default fetch target.
	Default bool `yaml:"default,omitempty" json:"default,omitempty"`
}

// IsEnabled returns true if the server is enabled (default: true).
func (s *Server) IsEnabled() bool {
	if s.Enabled == nil {
		return true
	}
	return *s.Enabled
}

// GetDisplayName returns the display name for this server.
// Falls back to the base URL host if name is not set.
func (s *Server) GetDisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if u, err := url.Parse(s.BaseURL); err == nil && u.Host != "" {
		return u.Host
	}
	return s.BaseURL
}

// ResolveToken returns the admin token for this server.
// Priority: inline token > token-file > shared credentials file.
func (s *Server) ResolveToken() (string, error) {
	if s.Token != "" {
		return s.Token, nil
	}
	if s.TokenFile != "" {
		data, err := os.ReadFile(expandPath(s.TokenFile))
		if err != nil {
			return "", fmt.Errorf("read token file: %w", err)
		}
		token := strings.TrimSpace(string(data))
		if token == "" {
			return "", fmt.Errorf("token file %s is empty", s.TokenFile)
		}
		return token, nil
	}
	return GetAdminToken(), nil
}

// Validate checks if the server configuration is valid.
func (s *Server) Validate() error {
	if s.BaseURL == "" {
		return &ServerValidationError{Field: "base-url", Message: "base-url is required"}
	}

	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return &ServerValidationError{Field: "base-url", Message: "invalid URL: " + err.Error()}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ServerValidationError{Field: "base-url", Message: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ServerValidationError{Field: "base-url", Message: "URL has no host"}
	}

	return nil
}

// ServerValidationError represents a validation error for server config.
type ServerValidationError struct {
	Field   string
	Message string
}

func (e *ServerValidationError) Error() string {
	return "server config error: " + e.Field + ": " + e.Message
}

// SanitizeServers normalizes and validates the servers list.
// Disabled and invalid entries are dropped, duplicates collapse to the
// first occurrence, and at most one entry keeps its default flag.
func SanitizeServers(servers []Server) []Server {
	if len(servers) == 0 {
		return nil
	}

	result := make([]Server, 0, len(servers))
	seen := make(map[string]struct{})
	haveDefault := false

	for i := range servers {
		s := &servers[i]

		// Skip disabled servers
		if !s.IsEnabled() {
			continue
		}

		// Normalize fields
		s.Name = strings.TrimSpace(s.Name)
		s.BaseURL = strings.TrimRight(strings.TrimSpace(s.BaseURL), "/")
		s.Token = strings.TrimSpace(s.Token)
		s.TokenFile = strings.TrimSpace(s.TokenFile)
		s.ProxyURL = strings.TrimSpace(s.ProxyURL)
		s.Headers = NormalizeHeaders(s.Headers)

		// Validate
		if err := s.Validate(); err != nil {
			continue
		}

		// Deduplicate by name+baseurl
		uniqueKey := s.Name + "|" + s.BaseURL
		if _, exists := seen[uniqueKey]; exists {
			continue
		}
		seen[uniqueKey] = struct{}{}

		// Only the first default flag survives
		if s.Default {
			if haveDefault {
				s.Default = false
			}
			haveDefault = true
		}

		result = append(result, *s)
	}

	return result
}

// GetServerByName returns a server by its display name.
func (cfg *Config) GetServerByName(name string) *Server {
	if cfg == nil {
		return nil
	}
	for i := range cfg.Servers {
		if cfg.Servers[i].GetDisplayName() == name {
			return &cfg.Servers[i]
		}
	}
	return nil
}

// DefaultServer returns the default fetch target.
// Falls back to the first configured server when none is flagged.
func (cfg *Config) DefaultServer() *Server {
	if cfg == nil || len(cfg.Servers) == 0 {
		return nil
	}
	for i := range cfg.Servers {
		if cfg.Servers[i].Default {
			return &cfg.Servers[i]
		}
	}
	return &cfg.Servers[0]
}
