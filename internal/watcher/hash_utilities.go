package watcher

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"strings"

	"github.com/nghyane/mux-console/internal/config"
	"github.com/nghyane/mux-console/internal/json"
)

// configDigest fingerprints a config so reloads that rewrite the file with
// identical content can be skipped.
func configDigest(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	data, err := json.Marshal(cfg)
	if err != nil || len(data) == 0 {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type serversSummary struct {
	hash  string
	count int
}

// summarizeServers fingerprints the servers list without exposing tokens.
// Each entry contributes its identity fields plus whether a token or token
// file is set, never the token value itself.
func summarizeServers(servers []config.Server) serversSummary {
	if len(servers) == 0 {
		return serversSummary{}
	}
	entries := make([]string, 0, len(servers))
	for i := range servers {
		s := &servers[i]
		parts := []string{
			strings.TrimSpace(s.Name),
			strings.TrimSpace(s.BaseURL),
			strings.TrimSpace(s.ProxyURL),
			strconv.FormatBool(strings.TrimSpace(s.Token) != ""),
			strings.TrimSpace(s.TokenFile),
			strconv.Itoa(len(s.Headers)),
			strconv.FormatBool(s.Default),
			strconv.FormatBool(s.IsEnabled()),
		}
		entries = append(entries, strings.Join(parts, "|"))
	}
	sort.Strings(entries)
	sum := sha256.Sum256([]byte(strings.Join(entries, "\n")))
	return serversSummary{
		hash:  hex.EncodeToString(sum[:]),
		count: len(servers),
	}
}
