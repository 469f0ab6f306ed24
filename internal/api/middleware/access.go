package middleware

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AccessControlOptions configures the management access policy.
type AccessControlOptions struct {
	// AllowRemote admits non-loopback clients when they present the
	// management key. Without it the management API is loopback-only.
	AllowRemote bool
	// Token returns the current management key. Read per request so a
	// config reload takes effect without restarting.
	Token func() string
}

// AccessControl restricts management routes to loopback clients. With
// remote access enabled, non-loopback requests must carry the management
// key as a bearer token, an X-Management-Key header or a key query
// parameter (the latter for websocket clients, which cannot set headers).
func AccessControl(opts AccessControlOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := net.ParseIP(c.ClientIP())
		if ip != nil && ip.IsLoopback() {
			c.Next()
			return
		}

		if !opts.AllowRemote {
			abortError(c, http.StatusForbidden, "FORBIDDEN", "management API is restricted to localhost")
			return
		}

		token := ""
		if opts.Token != nil {
			token = strings.TrimSpace(opts.Token())
		}
		if token == "" {
			abortError(c, http.StatusForbidden, "FORBIDDEN", "remote access is enabled but no management key is configured")
			return
		}

		provided := requestToken(c)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
			abortError(c, http.StatusUnauthorized, "UNAUTHORIZED", "invalid management key")
			return
		}
		c.Next()
	}
}

func requestToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if key := c.GetHeader("X-Management-Key"); key != "" {
		return strings.TrimSpace(key)
	}
	return strings.TrimSpace(c.Query("key"))
}

// abortError emits the management API error envelope without importing the
// handler package.
func abortError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{"code": code, "message": message},
	})
}
