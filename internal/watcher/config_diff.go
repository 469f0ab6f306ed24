package watcher

import (
	"fmt"

	"github.com/nghyane/mux-console/internal/config"
)

// buildConfigChangeDetails computes a redacted, human-readable list of config
// changes. Tokens and DSN credentials never appear in the output.
func buildConfigChangeDetails(oldCfg, newCfg *config.Config) []string {
	changes := make([]string, 0, 16)
	if oldCfg == nil || newCfg == nil {
		return changes
	}

	// Simple scalars
	if oldCfg.Port != newCfg.Port {
		changes = append(changes, fmt.Sprintf("port: %d -> %d (restart required)", oldCfg.Port, newCfg.Port))
	}
	if oldCfg.Debug != newCfg.Debug {
		changes = append(changes, fmt.Sprintf("debug: %t -> %t", oldCfg.Debug, newCfg.Debug))
	}
	if oldCfg.LoggingToFile != newCfg.LoggingToFile {
		changes = append(changes, fmt.Sprintf("logging-to-file: %t -> %t", oldCfg.LoggingToFile, newCfg.LoggingToFile))
	}
	if oldCfg.RequestLog != newCfg.RequestLog {
		changes = append(changes, fmt.Sprintf("request-log: %t -> %t", oldCfg.RequestLog, newCfg.RequestLog))
	}
	if oldCfg.RefreshInterval != newCfg.RefreshInterval {
		changes = append(changes, fmt.Sprintf("refresh-interval: %s -> %s",
			oldCfg.GetRefreshInterval(), newCfg.GetRefreshInterval()))
	}
	if oldCfg.WindowMs != newCfg.WindowMs {
		changes = append(changes, fmt.Sprintf("window-ms: %d -> %d", oldCfg.WindowMs, newCfg.WindowMs))
	}

	// Report archive (DSN may carry git credentials)
	if oldCfg.Reports.ArchiveDSN != newCfg.Reports.ArchiveDSN {
		changes = append(changes, fmt.Sprintf("reports.archive-dsn: %s -> %s",
			describeDSN(oldCfg.Reports.ArchiveDSN), describeDSN(newCfg.Reports.ArchiveDSN)))
	}
	if oldCfg.Reports.Dir != newCfg.Reports.Dir {
		changes = append(changes, fmt.Sprintf("reports.dir: %s -> %s", oldCfg.Reports.Dir, newCfg.Reports.Dir))
	}

	// Servers (tokens redacted)
	oldServers := summarizeServers(oldCfg.Servers)
	newServers := summarizeServers(newCfg.Servers)
	if oldServers.count != newServers.count {
		changes = append(changes, fmt.Sprintf("servers count: %d -> %d", oldServers.count, newServers.count))
	} else if oldServers.hash != newServers.hash {
		changes = append(changes, "servers: updated (count unchanged, tokens redacted)")
	}
	if oldName, newName := defaultServerName(oldCfg), defaultServerName(newCfg); oldName != newName {
		changes = append(changes, fmt.Sprintf("default server: %s -> %s", oldName, newName))
	}

	// Remote access (never print the admin key)
	if oldCfg.Remote.AllowRemote != newCfg.Remote.AllowRemote {
		changes = append(changes, fmt.Sprintf("remote.allow-remote: %t -> %t (restart required)", oldCfg.Remote.AllowRemote, newCfg.Remote.AllowRemote))
	}

	return changes
}

func describeDSN(dsn string) string {
	if dsn == "" {
		return "(default)"
	}
	return config.RedactDSN(dsn)
}

func defaultServerName(cfg *config.Config) string {
	s := cfg.DefaultServer()
	if s == nil {
		return "(none)"
	}
	return s.GetDisplayName()
}
