package cli

import (
	"os"

	log "github.com/nghyane/mux-console/internal/logging"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize config and generate an admin token",
	Long: `Initialize mux-console configuration and generate an admin token.

On first run, this creates the config file and the credentials stub.
If credentials already exist, it shows the current admin token.

Use --force to regenerate the admin token.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := DoInitConfig(configPath(), forceInit); err != nil {
			log.Fatalf("Init failed: %v", err)
			os.Exit(1)
		}
	},
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "force regenerate admin token")
	rootCmd.AddCommand(initCmd)
}
