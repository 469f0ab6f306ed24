// Package cmd assembles and runs the console service: admin client, state
// store, refresh loop, websocket hub, HTTP server, config watcher and report
// archive.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"

	"github.com/nghyane/mux-console/internal/adminapi"
	"github.com/nghyane/mux-console/internal/api/handlers/management"
	"github.com/nghyane/mux-console/internal/api/handlers/pages"
	"github.com/nghyane/mux-console/internal/api/middleware"
	"github.com/nghyane/mux-console/internal/api/ws"
	"github.com/nghyane/mux-console/internal/buildinfo"
	"github.com/nghyane/mux-console/internal/config"
	log "github.com/nghyane/mux-console/internal/logging"
	"github.com/nghyane/mux-console/internal/refresh"
	"github.com/nghyane/mux-console/internal/state"
	"github.com/nghyane/mux-console/internal/store"
	"github.com/nghyane/mux-console/internal/telemetry"
	"github.com/nghyane/mux-console/internal/util"
	"github.com/nghyane/mux-console/internal/view"
	"github.com/nghyane/mux-console/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

// StartService runs the console until SIGINT or SIGTERM. configFilePath may
// be empty for a config-less run (nothing is persisted then); archiveCfg
// selects the report archive backend.
func StartService(cfg *config.Config, configFilePath string, archiveCfg store.StoreConfig) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	util.SetLogLevel(cfg)

	shutdownTelemetry, err := telemetry.Setup(ctx)
	if err != nil {
		log.Warnf("telemetry disabled: %v", err)
		shutdownTelemetry = func(context.Context) error { return nil }
	}

	client, err := BuildAdminClient(cfg)
	if err != nil {
		log.Fatalf("Invalid gateway configuration: %v", err)
	}

	st := state.NewStore(cfg.GetWindowMs())
	hub := ws.NewHub()
	go hub.Run()

	refresher := refresh.New(client, st, cfg.GetRefreshInterval())
	refresher.SetBroadcaster(hub)

	var archive store.Archive
	if result, archiveErr := store.NewArchive(ctx, archiveCfg); archiveErr != nil {
		log.Warnf("Report archive disabled: %v", archiveErr)
	} else {
		archive = result.Archive
		log.Infof("Report archive ready: %s", result.Location)
	}

	renderer, err := view.NewRenderer()
	if err != nil {
		// Templates are embedded; a parse failure is a build defect.
		log.Fatalf("Failed to parse templates: %v", err)
	}

	mgmt := management.NewHandler(management.Options{
		State:      st,
		Refresher:  refresher,
		Client:     client,
		Archive:    archive,
		Renderer:   renderer,
		Hub:        hub,
		Config:     cfg,
		ConfigPath: configFilePath,
	})

	engine := buildEngine(cfg, st, renderer, mgmt)

	cfgWatcher := watcher.New(configFilePath, cfg, func(newCfg *config.Config, _ []string) {
		applyReload(newCfg, st, refresher, mgmt)
	})
	if configFilePath != "" {
		if err := cfgWatcher.Start(); err != nil {
			log.Warnf("Config watcher unavailable: %v", err)
		} else {
			defer cfgWatcher.Stop()
		}
	}

	refresher.Start()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: gzhttp.GzipHandler(engine),
		// No global read/write timeouts: the websocket route manages its
		// own deadlines and would be killed by them.
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		log.Infof("mux-console %s listening on http://127.0.0.1:%d", buildinfo.Version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Infof("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP shutdown: %v", err)
	}
	refresher.Stop()
	hub.Close()
	if archive != nil {
		if err := archive.Close(); err != nil {
			log.Warnf("Archive close: %v", err)
		}
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Warnf("Telemetry shutdown: %v", err)
	}
}

// BuildAdminClient assembles the gateway client from the default server
// profile. Without any configured server it targets a local gateway on the
// stock port.
func BuildAdminClient(cfg *config.Config) (*adminapi.Client, error) {
	opts := adminapi.Options{
		BaseURL: config.DefaultAdminURL,
		Token:   config.GetAdminToken(),
	}
	if server := cfg.DefaultServer(); server != nil {
		opts.BaseURL = server.BaseURL
		opts.ProxyURL = server.ProxyURL
		opts.Headers = server.Headers
		token, err := server.ResolveToken()
		if err != nil {
			// A missing token file degrades to unauthorized fetches,
			// which surface as notices rather than a dead console.
			log.Warnf("Gateway token unavailable: %v", err)
		}
		opts.Token = token
	}
	return adminapi.New(opts)
}

func buildEngine(cfg *config.Config, st *state.Store, renderer *view.Renderer, mgmt *management.Handler) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	if cfg.RequestLog {
		engine.Use(middleware.RequestLog())
	}

	access := middleware.AccessControl(middleware.AccessControlOptions{
		AllowRemote: cfg.Remote.AllowRemote,
		Token:       config.GetAdminToken,
	})

	pagesHandler := pages.NewHandler(st, renderer)
	engine.GET("/", access, pagesHandler.Dashboard)
	engine.GET("/fragments/usage", access, pagesHandler.UsageFragment)

	grp := engine.Group("/v0/management")
	grp.Use(
		middleware.CORS(),
		middleware.RequestSizeLimitMiddleware(middleware.DefaultMaxManagementRequestSize),
		access,
	)
	mgmt.RegisterRoutes(grp)

	return engine
}

// applyReload pushes a reloaded config into the live components. Port and
// allow-remote changes need a restart; everything else applies in place.
func applyReload(newCfg *config.Config, st *state.Store, refresher *refresh.Refresher, mgmt *management.Handler) {
	util.SetLogLevel(newCfg)
	refresher.SetInterval(newCfg.GetRefreshInterval())

	if st.Snapshot().WindowMs != newCfg.GetWindowMs() {
		st.SetWindow(newCfg.GetWindowMs())
	}

	if client, err := BuildAdminClient(newCfg); err == nil {
		refresher.SetClient(client)
		mgmt.SetClient(client)
	} else {
		log.Warnf("Config reload: keeping previous gateway client: %v", err)
	}

	mgmt.ApplyConfig(newCfg)
	refresher.TriggerRefresh()
}
