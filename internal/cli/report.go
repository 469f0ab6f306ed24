package cli

import (
	"os"

	"github.com/nghyane/mux-console/internal/cmd"
	"github.com/nghyane/mux-console/internal/logging"
	log "github.com/nghyane/mux-console/internal/logging"
	"github.com/spf13/cobra"
)

var (
	reportWindow string
	reportDemo   bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a usage report to the archive",
	Long: `Fetch usage from the gateway admin API once and archive a report.

Writes the same HTML and JSON pair the web console exports, to the backend
configured via reports.archive-dsn or the store environment variables.`,
	Run: func(c *cobra.Command, args []string) {
		logging.SetupBaseLogger()

		result, err := Bootstrap(configPath())
		if err != nil {
			log.Fatalf("Failed to bootstrap: %v", err)
			os.Exit(1)
		}

		opts := cmd.ReportOptions{Window: reportWindow, Demo: reportDemo}
		if err := cmd.DoReport(result.Config, result.ArchiveConfig, opts); err != nil {
			log.Fatalf("Report failed: %v", err)
			os.Exit(1)
		}
	},
}

func init() {
	reportCmd.Flags().StringVar(&reportWindow, "window", "", "usage window, e.g. 1h, 24h, 7d (default from config)")
	reportCmd.Flags().BoolVar(&reportDemo, "demo", false, "archive a report built from canned demo data")
	rootCmd.AddCommand(reportCmd)
}
