// Package configcmd groups configuration subcommands under `mux-console config`.
package configcmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nghyane/mux-console/internal/config"
	"github.com/nghyane/mux-console/internal/json"
	log "github.com/nghyane/mux-console/internal/logging"
	"github.com/spf13/cobra"
)

// ConfigCmd is the parent command for configuration operations.
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage console configuration and credentials",
}

var importTokenCmd = &cobra.Command{
	Use:   "import-token [file]",
	Short: "Import the admin token from an llm-mux credentials file",
	Long: `Import the management key from an llm-mux credentials.json and store it
as the console admin token.

Without an argument, reads the gateway's own XDG location
($XDG_CONFIG_HOME/llm-mux/credentials.json).`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := ""
		if len(args) == 1 {
			path = args[0]
		}
		if err := DoImportToken(path); err != nil {
			log.Fatalf("Import failed: %v", err)
			os.Exit(1)
		}
	},
}

// DoImportToken reads a gateway credentials file and stores its management
// key as the console admin token.
func DoImportToken(path string) error {
	if path == "" {
		path = defaultGatewayCredentialsPath()
		if path == "" {
			return fmt.Errorf("cannot determine gateway credentials path, pass the file explicitly")
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read credentials: %w", err)
	}

	token, err := extractManagementKey(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if err := config.StoreAdminToken(token); err != nil {
		return fmt.Errorf("store admin token: %w", err)
	}

	fmt.Printf("Imported admin token from %s\n", path)
	fmt.Printf("Stored at %s\n", config.CredentialsFilePath())
	return nil
}

// extractManagementKey pulls the management key out of a gateway
// credentials.json. Accepts both the kebab-case field and the legacy
// snake_case one older gateways wrote.
func extractManagementKey(data []byte) (string, error) {
	var creds struct {
		ManagementKey       string `json:"management-key"`
		LegacyManagementKey string `json:"management_key"`
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("parse credentials: %w", err)
	}

	key := strings.TrimSpace(creds.ManagementKey)
	if key == "" {
		key = strings.TrimSpace(creds.LegacyManagementKey)
	}
	if key == "" {
		return "", fmt.Errorf("no management key found")
	}
	return key, nil
}

// defaultGatewayCredentialsPath mirrors the gateway's own XDG layout.
func defaultGatewayCredentialsPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "llm-mux", "credentials.json")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "llm-mux", "credentials.json")
	}
	return ""
}

func init() {
	ConfigCmd.AddCommand(importTokenCmd)
}
