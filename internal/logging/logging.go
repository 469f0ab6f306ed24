// Package logging wraps logrus with the console's output conventions.
// Other packages import it as `log "github.com/nghyane/mux-console/internal/logging"`
// and use the package-level helpers so the backend stays swappable.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileName    = "mux-console.log"
	logMaxSizeMB   = 20
	logMaxBackups  = 3
	logMaxAgeDays  = 14
	logDirPermBits = 0o700
)

// SetupBaseLogger configures the process-wide logrus defaults.
// Safe to call more than once; later calls just reapply the same settings.
func SetupBaseLogger() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logrus.SetLevel(logrus.InfoLevel)
}

// ConfigureLogOutput switches log output to a rotated file under the config
// directory when toFile is true, or back to stderr when false.
func ConfigureLogOutput(toFile bool) error {
	if !toFile {
		logrus.SetOutput(os.Stderr)
		return nil
	}
	dir := logDir()
	if dir == "" {
		return fmt.Errorf("logging: cannot determine log directory")
	}
	if err := os.MkdirAll(dir, logDirPermBits); err != nil {
		return fmt.Errorf("logging: create log directory: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(dir, logFileName),
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
		Compress:   true,
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return nil
}

func logDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mux-console", "logs")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "mux-console", "logs")
	}
	return ""
}

// SetLevel adjusts the global log level.
func SetLevel(level logrus.Level) { logrus.SetLevel(level) }

// GetLevel returns the current global log level.
func GetLevel() logrus.Level { return logrus.GetLevel() }

// Debugf logs a formatted message at debug level.
func Debugf(format string, args ...any) { logrus.Debugf(format, args...) }

// Infof logs a formatted message at info level.
func Infof(format string, args ...any) { logrus.Infof(format, args...) }

// Warnf logs a formatted message at warning level.
func Warnf(format string, args ...any) { logrus.Warnf(format, args...) }

// Errorf logs a formatted message at error level.
func Errorf(format string, args ...any) { logrus.Errorf(format, args...) }

// Fatalf logs a formatted message at fatal level and exits.
func Fatalf(format string, args ...any) { logrus.Fatalf(format, args...) }

// Debug logs a message at debug level.
func Debug(args ...any) { logrus.Debug(args...) }

// Info logs a message at info level.
func Info(args ...any) { logrus.Info(args...) }

// Warn logs a message at warning level.
func Warn(args ...any) { logrus.Warn(args...) }

// Error logs a message at error level.
func Error(args ...any) { logrus.Error(args...) }

// WithError returns an entry with the error attached under the standard key.
func WithError(err error) *logrus.Entry { return logrus.WithError(err) }

// WithField returns an entry with a single field attached.
func WithField(key string, value any) *logrus.Entry { return logrus.WithField(key, value) }
