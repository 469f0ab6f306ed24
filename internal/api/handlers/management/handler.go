package management

import (
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/nghyane/mux-console/internal/adminapi"
	"github.com/nghyane/mux-console/internal/api/ws"
	"github.com/nghyane/mux-console/internal/config"
	log "github.com/nghyane/mux-console/internal/logging"
	"github.com/nghyane/mux-console/internal/refresh"
	"github.com/nghyane/mux-console/internal/state"
	"github.com/nghyane/mux-console/internal/store"
	"github.com/nghyane/mux-console/internal/view"
)

// Handler serves the management API. Reads go through the state store's
// immutable snapshots; config writes persist to the config file, which the
// watcher then observes like any external edit.
type Handler struct {
	state     *state.Store
	refresher *refresh.Refresher
	client    *adminapi.Client
	archive   store.Archive
	renderer  *view.Renderer
	hub       *ws.Hub

	mu         sync.Mutex
	cfg        *config.Config
	configPath string
}

// Options wires the handler's collaborators. State is required; everything
// else degrades gracefully when absent.
type Options struct {
	State      *state.Store
	Refresher  *refresh.Refresher
	Client     *adminapi.Client
	Archive    store.Archive
	Renderer   *view.Renderer
	Hub        *ws.Hub
	Config     *config.Config
	ConfigPath string
}

// NewHandler creates the management handler.
func NewHandler(opts Options) *Handler {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	return &Handler{
		state:      opts.State,
		refresher:  opts.Refresher,
		client:     opts.Client,
		archive:    opts.Archive,
		renderer:   opts.Renderer,
		hub:        opts.Hub,
		cfg:        cfg,
		configPath: opts.ConfigPath,
	}
}

// ApplyConfig installs a freshly reloaded config so later persists start
// from the file's current contents instead of a stale copy.
func (h *Handler) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()
}

// SetClient swaps the gateway client after a config reload changed the
// endpoint. Nil clients are ignored.
func (h *Handler) SetClient(client *adminapi.Client) {
	if client == nil {
		return
	}
	h.mu.Lock()
	h.client = client
	h.mu.Unlock()
}

func (h *Handler) currentClient() *adminapi.Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.client
}

// RegisterRoutes attaches the management API to grp.
func (h *Handler) RegisterRoutes(grp *gin.RouterGroup) {
	grp.GET("/usage", h.GetUsage)
	grp.GET("/usage/chart.svg", h.GetUsageChart)
	grp.GET("/window", h.GetWindow)
	grp.PUT("/window", h.PutWindow)
	grp.POST("/refresh", h.PostRefresh)
	grp.GET("/reports", h.ListReports)
	grp.POST("/reports", h.CreateReport)
	grp.DELETE("/notices/:id", h.DismissNotice)
	grp.GET("/health", h.GetHealth)
	grp.GET("/ws", h.GetWS)
}

// persistSilent saves the current config. A console running without a
// config file persists nothing and reports success; write failures are
// logged and reported to the caller as false.
func (h *Handler) persistSilent() bool {
	if h.configPath == "" {
		return true
	}
	if err := config.SaveConfig(h.cfg, h.configPath); err != nil {
		log.Errorf("Failed to persist config: %v", err)
		return false
	}
	return true
}

// bindWindowValue decodes the {"window-ms": n} body shared by the window
// endpoints. A missing or malformed body answers 400 and returns false.
func (h *Handler) bindWindowValue(c *gin.Context) (int64, bool) {
	var body struct {
		WindowMs *int64 `json:"window-ms"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.WindowMs == nil {
		respondBadRequest(c, `request body must be {"window-ms": <milliseconds>}`)
		return 0, false
	}
	return *body.WindowMs, true
}
