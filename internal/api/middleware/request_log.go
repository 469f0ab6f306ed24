package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	log "github.com/nghyane/mux-console/internal/logging"
)

// RequestLog writes one access-log line per request. Enabled by the
// request-log config flag; off by default to keep the console quiet.
func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Infof("%s %s %d %s %s",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start).Round(time.Millisecond),
			c.ClientIP(),
		)
	}
}
