package cli

import (
	"os"

	"github.com/nghyane/mux-console/internal/cmd"
	"github.com/nghyane/mux-console/internal/logging"
	log "github.com/nghyane/mux-console/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	usageWindow string
	usageKeys   bool
	usageDemo   bool
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show a usage dashboard in the terminal",
	Long: `Fetch usage from the gateway admin API once and render it in the terminal.

Shows summary cards, a request sparkline and per-provider breakdowns for the
requested window. Honors NO_COLOR.`,
	Run: func(c *cobra.Command, args []string) {
		logging.SetupBaseLogger()
		// Keep bootstrap chatter out of the rendered dashboard.
		logging.SetLevel(logrus.WarnLevel)

		result, err := Bootstrap(configPath())
		if err != nil {
			log.Fatalf("Failed to bootstrap: %v", err)
			os.Exit(1)
		}

		opts := cmd.UsageOptions{Window: usageWindow, Keys: usageKeys, Demo: usageDemo}
		if err := cmd.DoUsage(result.Config, opts); err != nil {
			log.Fatalf("Usage fetch failed: %v", err)
			os.Exit(1)
		}
	},
}

func init() {
	usageCmd.Flags().StringVar(&usageWindow, "window", "", "usage window, e.g. 1h, 24h, 7d (default from config)")
	usageCmd.Flags().BoolVar(&usageKeys, "keys", false, "include per-key breakdown and key listing")
	usageCmd.Flags().BoolVar(&usageDemo, "demo", false, "render canned demo data from an embedded gateway stub")
	rootCmd.AddCommand(usageCmd)
}
