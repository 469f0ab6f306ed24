// Package service installs mux-console as a per-user background service:
// a systemd user unit on Linux, a launchd agent on macOS.
package service

import (
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/nghyane/mux-console/internal/config"
	"github.com/spf13/cobra"
)

const (
	launchdLabel = "com.nghyane.mux-console"
	systemdUnit  = "mux-console.service"
)

// ServiceCmd is the parent command for service management
var ServiceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the background service",
	Long:  `Manage the mux-console background service (install, uninstall, status).`,
}

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and start the background service",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := NewManager()
		if err != nil {
			return err
		}
		if !m.IsSupported() {
			return fmt.Errorf("service install is unsupported on %s", runtime.GOOS)
		}
		if err := m.Install(); err != nil {
			return err
		}
		fmt.Printf("Installed %s\n", m.unitPath)
		if hint := m.StatusHint(); hint != "" {
			fmt.Printf("Check it with: %s\n", hint)
		}
		return nil
	},
}

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop and remove the background service",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := NewManager()
		if err != nil {
			return err
		}
		if !m.IsSupported() {
			return fmt.Errorf("service uninstall is unsupported on %s", runtime.GOOS)
		}
		if err := m.Uninstall(); err != nil {
			return err
		}
		fmt.Println("Service removed")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show background service status",
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := NewManager()
		if err != nil {
			return err
		}
		fmt.Printf("service kind=%s supported=%t installed=%t\n", m.Kind, m.IsSupported(), m.IsInstalled())
		fmt.Printf("service unit_path=%s\n", m.unitPath)
		fmt.Printf("service executable=%s\n", m.exePath)
		if hint := m.StatusHint(); hint != "" {
			fmt.Printf("service status_hint=%q\n", hint)
		}
		return nil
	},
}

// Manager writes and controls the per-user service unit.
type Manager struct {
	Kind     string
	exePath  string
	unitPath string
	logDir   string
}

// NewManager resolves the executable and unit paths for the current platform.
func NewManager() (Manager, error) {
	exePath, err := os.Executable()
	if err != nil {
		return Manager{}, fmt.Errorf("resolve executable path: %w", err)
	}

	m := Manager{
		Kind:    runtime.GOOS,
		exePath: exePath,
		logDir:  filepath.Join(config.CredentialsDir(), "logs"),
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return Manager{}, fmt.Errorf("resolve home dir: %w", err)
	}

	switch runtime.GOOS {
	case "darwin":
		m.unitPath = filepath.Join(home, "Library", "LaunchAgents", launchdLabel+".plist")
	case "linux":
		m.unitPath = filepath.Join(home, ".config", "systemd", "user", systemdUnit)
	default:
		m.Kind = "unsupported"
	}
	return m, nil
}

// IsSupported reports whether service management works on this platform.
func (m Manager) IsSupported() bool {
	return m.Kind == "darwin" || m.Kind == "linux"
}

// IsInstalled reports whether the unit file exists.
func (m Manager) IsInstalled() bool {
	if m.unitPath == "" {
		return false
	}
	_, err := os.Stat(m.unitPath)
	return err == nil
}

// StatusHint returns the platform command that shows live service state.
func (m Manager) StatusHint() string {
	switch m.Kind {
	case "darwin":
		return "launchctl print gui/$(id -u)/" + launchdLabel
	case "linux":
		return "systemctl --user status " + systemdUnit
	default:
		return ""
	}
}

// Install writes the unit file and starts the service.
func (m Manager) Install() error {
	if isTransientExecutablePath(m.exePath) {
		return fmt.Errorf(
			"refusing to install the service from transient executable %q (likely from `go run`); build a stable binary first",
			m.exePath,
		)
	}

	switch m.Kind {
	case "darwin":
		return m.installLaunchd()
	case "linux":
		return m.installSystemdUser()
	default:
		return fmt.Errorf("service install is unsupported on %s", runtime.GOOS)
	}
}

// Uninstall stops the service and removes the unit file.
func (m Manager) Uninstall() error {
	switch m.Kind {
	case "darwin":
		return m.uninstallLaunchd()
	case "linux":
		return m.uninstallSystemdUser()
	default:
		return fmt.Errorf("service uninstall is unsupported on %s", runtime.GOOS)
	}
}

func (m Manager) installSystemdUser() error {
	if err := os.MkdirAll(filepath.Dir(m.unitPath), 0o755); err != nil {
		return fmt.Errorf("create systemd user dir: %w", err)
	}

	content := systemdUnitFile(m.exePath)
	if err := os.WriteFile(m.unitPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write systemd unit: %w", err)
	}
	if _, err := runCommand("systemctl", "--user", "daemon-reload"); err != nil {
		return err
	}
	if _, err := runCommand("systemctl", "--user", "enable", "--now", systemdUnit); err != nil {
		return err
	}
	return nil
}

func (m Manager) uninstallSystemdUser() error {
	_, _ = runCommand("systemctl", "--user", "disable", "--now", systemdUnit)
	if err := os.Remove(m.unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove systemd unit: %w", err)
	}
	_, _ = runCommand("systemctl", "--user", "daemon-reload")
	return nil
}

func (m Manager) domainCandidates() []string {
	uid := fmt.Sprintf("%d", os.Getuid())
	return []string{"gui/" + uid, "user/" + uid}
}

func (m Manager) installLaunchd() error {
	if err := os.MkdirAll(filepath.Dir(m.unitPath), 0o755); err != nil {
		return fmt.Errorf("create launch agents dir: %w", err)
	}
	if err := os.MkdirAll(m.logDir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	content := launchdPlist(m.exePath, filepath.Join(m.logDir, "service.stdout.log"), filepath.Join(m.logDir, "service.stderr.log"))
	if err := os.WriteFile(m.unitPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write launchd plist: %w", err)
	}

	var lastErr error
	for _, domain := range m.domainCandidates() {
		_, _ = runCommand("launchctl", "bootout", domain+"/"+launchdLabel)
		if _, err := runCommand("launchctl", "bootstrap", domain, m.unitPath); err != nil {
			lastErr = err
			continue
		}
		if _, err := runCommand("launchctl", "kickstart", "-k", domain+"/"+launchdLabel); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr != nil {
		return lastErr
	}
	return fmt.Errorf("launchd bootstrap failed")
}

func (m Manager) uninstallLaunchd() error {
	var lastErr error
	for _, domain := range m.domainCandidates() {
		if _, err := runCommand("launchctl", "bootout", domain+"/"+launchdLabel); err != nil {
			if isLaunchctlNoSuchProcess(err) {
				continue
			}
			lastErr = err
		}
	}
	if err := os.Remove(m.unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove launchd plist: %w", err)
	}
	return lastErr
}

func isLaunchctlNoSuchProcess(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	return strings.Contains(msg, "no such process") || strings.Contains(msg, "boot-out failed: 3")
}

func runCommand(name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	output, err := cmd.CombinedOutput()
	trimmed := strings.TrimSpace(string(output))
	if err != nil {
		if trimmed != "" {
			return trimmed, fmt.Errorf("%s %s failed: %w (%s)", name, strings.Join(args, " "), err, trimmed)
		}
		return trimmed, fmt.Errorf("%s %s failed: %w", name, strings.Join(args, " "), err)
	}
	return trimmed, nil
}

func systemdUnitFile(exePath string) string {
	return fmt.Sprintf(`[Unit]
Description=mux-console usage dashboard
After=network.target

[Service]
Type=simple
ExecStart=%s serve
Restart=always
RestartSec=2
WorkingDirectory=%%h

[Install]
WantedBy=default.target
`, exePath)
}

func launchdPlist(exePath, stdoutPath, stderrPath string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
		<string>%s</string>
		<string>serve</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
	<key>KeepAlive</key>
	<true/>
	<key>StandardOutPath</key>
	<string>%s</string>
	<key>StandardErrorPath</key>
	<string>%s</string>
</dict>
</plist>
`, launchdLabel, xmlEscape(exePath), xmlEscape(stdoutPath), xmlEscape(stderrPath))
}

func xmlEscape(in string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(in)); err != nil {
		return in
	}
	return b.String()
}

// isTransientExecutablePath flags binaries running out of the go-build cache.
func isTransientExecutablePath(path string) bool {
	p := strings.TrimSpace(path)
	if p == "" {
		return true
	}
	normalized := filepath.ToSlash(strings.ToLower(filepath.Clean(p)))
	if strings.Contains(normalized, "/go-build") && strings.Contains(normalized, "/exe/") {
		return true
	}
	tmpRoot := filepath.ToSlash(strings.ToLower(filepath.Clean(os.TempDir())))
	if tmpRoot == "" || tmpRoot == "." {
		return false
	}
	return strings.HasPrefix(normalized, tmpRoot+"/go-build")
}

func init() {
	ServiceCmd.AddCommand(installCmd)
	ServiceCmd.AddCommand(uninstallCmd)
	ServiceCmd.AddCommand(statusCmd)
}
