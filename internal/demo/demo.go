// Package demo runs an embedded admin API stub with canned fixtures so
// the console can be tried without a gateway. Fixtures are JSONC; the
// stub rewrites their timing per request so relative times look live.
package demo

import (
	"embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/tailscale/hujson"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	log "github.com/nghyane/mux-console/internal/logging"
)

// Token authenticates requests against the stub. The console client is
// handed the same value, so the bearer-token path runs for real even in
// demo mode.
const Token = "demo-management-token"

// offsetLimit separates relative fixture timestamps from absolute epochs.
// Values within it (about 115 days in milliseconds) are offsets from the
// request time, negative meaning the past.
const offsetLimit = int64(10_000_000_000)

// timestampFields hold offsets in the fixtures and are rewritten to
// epochs on every request.
var timestampFields = []string{"createdAt", "expiresAt", "lastUsedAt", "lastRequestAt"}

//go:embed fixtures/*.jsonc
var fixtureFS embed.FS

// Server is a running stub bound to an ephemeral localhost port.
type Server struct {
	srv     *http.Server
	baseURL string
}

// Start loads the fixtures and begins serving.
func Start() (*Server, error) {
	fx, err := loadFixtures()
	if err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("demo: listen: %w", err)
	}

	s := &Server{
		baseURL: "http://" + ln.Addr().String(),
		srv: &http.Server{
			Handler:           buildStub(fx),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Demo stub stopped: %v", err)
		}
	}()
	log.Infof("Demo gateway stub listening on %s", s.baseURL)
	return s, nil
}

// BaseURL returns the stub's endpoint for the console client.
func (s *Server) BaseURL() string {
	return s.baseURL
}

// Close stops the stub immediately. Demo connections are short-lived, so
// there is nothing to drain.
func (s *Server) Close() error {
	return s.srv.Close()
}

type fixtures struct {
	usage    []byte
	scoped   []byte
	accounts []byte
	keys     []byte
	// ids are the account and key ids the scoped usage routes answer for.
	ids map[string]bool
}

func loadFixtures() (*fixtures, error) {
	fx := &fixtures{ids: map[string]bool{}}
	for _, f := range []struct {
		name string
		dst  *[]byte
	}{
		{"usage.jsonc", &fx.usage},
		{"scoped_usage.jsonc", &fx.scoped},
		{"accounts.jsonc", &fx.accounts},
		{"keys.jsonc", &fx.keys},
	} {
		raw, err := fixtureFS.ReadFile("fixtures/" + f.name)
		if err != nil {
			return nil, fmt.Errorf("demo: read %s: %w", f.name, err)
		}
		std, err := hujson.Standardize(raw)
		if err != nil {
			return nil, fmt.Errorf("demo: standardize %s: %w", f.name, err)
		}
		*f.dst = std
	}

	gjson.GetBytes(fx.accounts, "accounts.#.id").ForEach(func(_, id gjson.Result) bool {
		fx.ids[id.String()] = true
		return true
	})
	gjson.GetBytes(fx.keys, "keys.#.id").ForEach(func(_, id gjson.Result) bool {
		fx.ids[id.String()] = true
		return true
	})
	return fx, nil
}

func buildStub(fx *fixtures) http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	admin := r.Group("/admin", requireToken)
	admin.GET("/usage", func(c *gin.Context) {
		serveUsage(c, fx.usage)
	})
	admin.GET("/accounts", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", refreshTimestamps(fx.accounts, time.Now()))
	})
	admin.GET("/keys", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", refreshTimestamps(fx.keys, time.Now()))
	})
	admin.GET("/accounts/:id/usage", scopedUsage(fx))
	admin.GET("/keys/:id/usage", scopedUsage(fx))
	return r
}

func requireToken(c *gin.Context) {
	if c.GetHeader("Authorization") != "Bearer "+Token {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{"message": "missing or invalid management token"},
		})
		return
	}
	c.Next()
}

func scopedUsage(fx *fixtures) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if !fx.ids[id] {
			c.JSON(http.StatusNotFound, gin.H{
				"error": gin.H{"message": "unknown id: " + id},
			})
			return
		}
		serveUsage(c, fx.scoped)
	}
}

func serveUsage(c *gin.Context, doc []byte) {
	windowMs, _ := strconv.ParseInt(c.Query("windowMs"), 10, 64)
	out, err := refreshUsage(doc, time.Now(), windowMs)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"message": err.Error()},
		})
		return
	}
	c.Data(http.StatusOK, "application/json", out)
}

// refreshUsage slides the canned buckets so they end at the request time
// and span the requested window. Counts stay fixed; only timing moves.
func refreshUsage(doc []byte, now time.Time, windowMs int64) ([]byte, error) {
	out := refreshTimestamps(doc, now)
	if windowMs <= 0 {
		windowMs = gjson.GetBytes(out, "windowMs").Int()
	}
	n := gjson.GetBytes(out, "buckets.#").Int()
	if n == 0 {
		return out, nil
	}
	bucketSize := windowMs / n
	if bucketSize < 60_000 {
		bucketSize = 60_000
	}

	end := now.Truncate(time.Minute).UnixMilli()
	var err error
	if out, err = sjson.SetBytes(out, "windowMs", windowMs); err != nil {
		return nil, fmt.Errorf("demo: set windowMs: %w", err)
	}
	if out, err = sjson.SetBytes(out, "bucketSizeMs", bucketSize); err != nil {
		return nil, fmt.Errorf("demo: set bucketSizeMs: %w", err)
	}
	for i := int64(0); i < n; i++ {
		path := fmt.Sprintf("buckets.%d.bucketStart", i)
		if out, err = sjson.SetBytes(out, path, end-(n-i)*bucketSize); err != nil {
			return nil, fmt.Errorf("demo: set %s: %w", path, err)
		}
	}
	return out, nil
}

// refreshTimestamps converts offset-valued timestamp fields anywhere in
// the document into epochs relative to now. Absolute epochs pass through.
func refreshTimestamps(doc []byte, now time.Time) []byte {
	out := doc
	var walk func(prefix string, el gjson.Result)
	walk = func(prefix string, el gjson.Result) {
		el.ForEach(func(key, val gjson.Result) bool {
			path := key.String()
			if prefix != "" {
				path = prefix + "." + path
			}
			switch {
			case val.IsObject() || val.IsArray():
				walk(path, val)
			case val.Type == gjson.Number && lo.Contains(timestampFields, key.String()):
				if v := val.Int(); v > -offsetLimit && v < offsetLimit {
					if set, err := sjson.SetBytes(out, path, now.UnixMilli()+v); err == nil {
						out = set
					}
				}
			}
			return true
		})
	}
	walk("", gjson.ParseBytes(doc))
	return out
}
