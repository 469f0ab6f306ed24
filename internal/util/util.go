// Package util provides path resolution and logging helpers shared by the
// console CLI and service.
package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nghyane/mux-console/internal/config"
	log "github.com/nghyane/mux-console/internal/logging"
)

// SetLogLevel applies the configured log level.
// Debug mode switches to DebugLevel, otherwise InfoLevel.
func SetLogLevel(cfg *config.Config) {
	currentLevel := log.GetLevel()
	var newLevel logrus.Level
	if cfg.Debug {
		newLevel = logrus.DebugLevel
	} else {
		newLevel = logrus.InfoLevel
	}

	if currentLevel != newLevel {
		log.SetLevel(newLevel)
		log.Infof("log level changed from %s to %s (debug=%t)", currentLevel, newLevel, cfg.Debug)
	}
}

// ResolvePath normalizes a user-supplied path for consistent reuse.
// It handles:
//   - "$XDG_CONFIG_HOME/..." -> expands XDG_CONFIG_HOME env var
//   - "~..." -> expands to the user's home directory
//   - Returns a cleaned path
func ResolvePath(path string) (string, error) {
	if path == "" {
		return "", nil
	}

	// Handle $XDG_CONFIG_HOME prefix
	if strings.HasPrefix(path, "$XDG_CONFIG_HOME") {
		xdg := os.Getenv("XDG_CONFIG_HOME")
		if xdg == "" {
			// Fallback to ~/.config if XDG_CONFIG_HOME not set
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("resolve path: %w", err)
			}
			xdg = filepath.Join(home, ".config")
		}
		remainder := strings.TrimPrefix(path, "$XDG_CONFIG_HOME")
		remainder = strings.TrimLeft(remainder, "/\\")
		if remainder == "" {
			return filepath.Clean(xdg), nil
		}
		normalized := strings.ReplaceAll(remainder, "\\", "/")
		return filepath.Clean(filepath.Join(xdg, filepath.FromSlash(normalized))), nil
	}

	// Handle ~ prefix (legacy support)
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve path: %w", err)
		}
		remainder := strings.TrimPrefix(path, "~")
		remainder = strings.TrimLeft(remainder, "/\\")
		if remainder == "" {
			return filepath.Clean(home), nil
		}
		normalized := strings.ReplaceAll(remainder, "\\", "/")
		return filepath.Clean(filepath.Join(home, filepath.FromSlash(normalized))), nil
	}
	return filepath.Clean(path), nil
}

// WritablePath returns the cleaned WRITABLE_PATH environment variable when set.
// Relocatable installs use it to keep logs and reports out of $HOME.
func WritablePath() string {
	for _, key := range []string{"WRITABLE_PATH", "writable_path"} {
		if value, ok := os.LookupEnv(key); ok {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				return filepath.Clean(trimmed)
			}
		}
	}
	return ""
}
