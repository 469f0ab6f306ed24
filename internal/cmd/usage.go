package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/nghyane/mux-console/internal/adminapi"
	"github.com/nghyane/mux-console/internal/buildinfo"
	"github.com/nghyane/mux-console/internal/config"
	"github.com/nghyane/mux-console/internal/demo"
	"github.com/nghyane/mux-console/internal/refresh"
	"github.com/nghyane/mux-console/internal/state"
	"github.com/nghyane/mux-console/internal/term"
	"github.com/nghyane/mux-console/internal/view"
)

// fetchTimeout bounds the one-shot commands' gateway interaction.
const fetchTimeout = time.Minute

// UsageOptions adjust the one-shot terminal dashboard.
type UsageOptions struct {
	// Window overrides the configured lookback, e.g. "6h" or "7d".
	Window string
	// Keys adds the per-key breakdown and the key inventory.
	Keys bool
	// Demo fetches from an embedded fixture stub instead of the gateway.
	Demo bool
}

// DoUsage fetches one snapshot and draws the terminal dashboard.
func DoUsage(cfg *config.Config, opts UsageOptions) error {
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

	d := view.BuildDashboard(snap, time.Now(), buildinfo.Version)
	fmt.Print(term.Render(d, term.Options{Keys: opts.Keys}))
	return nil
}

// fetchSnapshot runs one refresh cycle and returns the resulting snapshot.
// In demo mode a fixture stub is started for the duration of the fetch.
func fetchSnapshot(cfg *config.Config, windowMs int64, demoMode bool) (*state.Snapshot, error) {
	client, cleanup, err := resolveClient(cfg, demoMode)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	st := state.NewStore(windowMs)
	if err := refresh.New(client, st, cfg.GetRefreshInterval()).RefreshNow(ctx); err != nil {
		return nil, err
	}
	return st.Snapshot(), nil
}

// resolveClient builds the gateway client, starting the demo stub first
// when asked. The cleanup func stops the stub.
func resolveClient(cfg *config.Config, demoMode bool) (*adminapi.Client, func(), error) {
	if !demoMode {
		client, err := BuildAdminClient(cfg)
		if err != nil {
			return nil, nil, err
		}
		return client, func() {}, nil
	}

	stub, err := demo.Start()
	if err != nil {
		return nil, nil, err
	}
	client, err := adminapi.New(adminapi.Options{BaseURL: stub.BaseURL(), Token: demo.Token})
	if err != nil {
		stub.Close()
		return nil, nil, err
	}
	return client, func() { stub.Close() }, nil
}
