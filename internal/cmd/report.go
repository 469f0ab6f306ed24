package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/nghyane/mux-console/internal/api/handlers/management"
	"github.com/nghyane/mux-console/internal/config"
	log "github.com/nghyane/mux-console/internal/logging"
	"github.com/nghyane/mux-console/internal/store"
	"github.com/nghyane/mux-console/internal/view"
)

// ReportOptions adjust the one-shot report export.
type ReportOptions struct {
	// Window overrides the configured lookback, e.g. "6h" or "7d".
	Window string
	// Demo fetches from an embedded fixture stub instead of the gateway.
	Demo bool
}

// DoReport fetches one snapshot, renders it and writes the report pair to
// the archive. The archived files match what POST /reports produces on a
// running console.
func DoReport(cfg *config.Config, archiveCfg store.StoreConfig, opts ReportOptions) error {
	windowMs := cfg.GetWindowMs()
	if opts.Window != "" {
		var err error
		if windowMs, err = config.ParseWindow(opts.Window); err != nil {
			return err
		}
	}

	snap, err := fetchSnapshot(cfg, windowMs, opts.Demo)
	if err != nil {
		return err
	}
	if snap.Usage == nil {
		return fmt.Errorf("no usage data to report")
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		return fmt.Errorf("load templates: %w", err)
	}
	report, err := management.BuildReport(snap, renderer, time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	result, err := store.NewArchive(ctx, archiveCfg)
	if err != nil {
		return fmt.Errorf("open report archive: %w", err)
	}
	defer result.Archive.Close()

	name, err := result.Archive.Put(ctx, report)
	if err != nil {
		return fmt.Errorf("archive report: %w", err)
	}
	log.Infof("Report archived to %s: %s (window %s)", result.Location, name, report.Window)
	fmt.Println(name)
	return nil
}
