// Package cli provides the Cobra-based command-line interface for mux-console.
package cli

import (
	"os"

	"github.com/nghyane/mux-console/internal/cli/configcmd"
	"github.com/nghyane/mux-console/internal/cli/service"
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "mux-console",
	Short: "Usage console for llm-mux gateways",
	Long: `mux-console renders usage metrics from an llm-mux gateway admin API.

It polls /admin/usage, /admin/accounts and /admin/keys, normalizes the
numbers and serves a local web dashboard, a terminal view and archivable
reports on top of them.`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// configPath returns the --config flag value or the default XDG location.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return "$XDG_CONFIG_HOME/mux-console/config.yaml"
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/mux-console/config.yaml)")
	rootCmd.AddCommand(configcmd.ConfigCmd)
	rootCmd.AddCommand(service.ServiceCmd)
}
