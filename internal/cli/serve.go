package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/nghyane/mux-console/internal/cmd"
	"github.com/nghyane/mux-console/internal/config"
	"github.com/nghyane/mux-console/internal/demo"
	"github.com/nghyane/mux-console/internal/logging"
	log "github.com/nghyane/mux-console/internal/logging"
	"github.com/skratchdot/open-golang/open"
	"github.com/spf13/cobra"
)

var (
	servePort int
	serveOpen bool
	serveDemo bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the mux-console server",
	Long: `Start the mux-console web server.

It polls the gateway admin API in the background and serves the dashboard,
the management API and the live WebSocket feed on a local port.`,
	Run: func(c *cobra.Command, args []string) {
		logging.SetupBaseLogger()

		result, err := Bootstrap(configPath())
		if err != nil {
			log.Fatalf("Failed to bootstrap: %v", err)
			os.Exit(1)
		}

		cfg := result.Config

		if servePort != 0 && servePort != config.DefaultPort {
			cfg.Port = servePort
		}

		if serveDemo {
			stub, errDemo := demo.Start()
			if errDemo != nil {
				log.Fatalf("Failed to start demo gateway: %v", errDemo)
				os.Exit(1)
			}
			defer stub.Close()
			cfg.Servers = []config.Server{{Name: "demo", BaseURL: stub.BaseURL(), Token: demo.Token, Default: true}}
		}

		if err := logging.ConfigureLogOutput(cfg.LoggingToFile); err != nil {
			log.Fatalf("Failed to configure log output: %v", err)
		}

		if serveOpen {
			url := fmt.Sprintf("http://127.0.0.1:%d", cfg.Port)
			go func() {
				time.Sleep(800 * time.Millisecond)
				if errOpen := open.Run(url); errOpen != nil {
					log.Warnf("Failed to open browser: %v", errOpen)
				}
			}()
		}

		cmd.StartService(cfg, result.ConfigFilePath, result.ArchiveConfig)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", config.DefaultPort, "console port")
	serveCmd.Flags().BoolVar(&serveOpen, "open", false, "open the dashboard in the browser")
	serveCmd.Flags().BoolVar(&serveDemo, "demo", false, "serve canned demo data from an embedded gateway stub")
	rootCmd.AddCommand(serveCmd)
}
