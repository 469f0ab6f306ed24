// Package middleware provides HTTP middleware for the console server:
// request size limits, management access control and CORS.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DefaultMaxManagementRequestSize is the maximum request body size for
// management endpoints. Management payloads are small JSON documents; 1MB
// leaves generous headroom.
const DefaultMaxManagementRequestSize = 1 << 20

// RequestSizeLimitMiddleware creates a Gin middleware that limits request
// body size. It uses http.MaxBytesReader, which returns HTTP 413 when the
// limit is exceeded and closes the connection to stop slow-reading clients.
// Pass 0 for the default management limit.
func RequestSizeLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxManagementRequestSize
	}

	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
