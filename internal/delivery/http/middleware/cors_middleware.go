package middleware

import (
	"net/http"
	"strings"

	"contact-mail-proxy/internal/delivery/http/response"
	"contact-mail-proxy/pkg/security"

	"github.com/gin-gonic/gin"
)

// devOrigins are accepted outside production only.
var devOrigins = map[string]bool{
	"http://localhost:3000": true,
	"http://127.0.0.1:3000": true,
	"http://localhost:5173": true,
	"http://localhost:8080": true,
}

// CORSMiddleware enforces the origin allow-list.
//
// Requests without an Origin header (server-to-server, curl) pass through.
// A browser request from an origin that is not listed is rejected with 403
// before any other work happens; preflights get 204 or 403.
func CORSMiddleware(allowedOrigins []string, production bool) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	wildcard := false
	for _, o := range allowedOrigins {
		if o == "*" {
			wildcard = true
			continue
		}
		allowed[strings.TrimRight(o, "/")] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		c.Header("Vary", "Origin")

		if origin == "" {
			c.Next()
			return
		}

		isAllowed := wildcard || allowed[origin] || (!production && devOrigins[origin])
		if !isAllowed {
			security.DefaultLogger().LogOriginDenied(c.Request.Context(), origin, c.ClientIP(), c.GetString(requestIDKey))
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			response.Error(c, http.StatusForbidden, "Origin not allowed", nil)
			c.Abort()
			return
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Origin, X-Requested-With, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Header("Access-Control-Expose-Headers", "X-Request-ID, X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, Retry-After")
		c.Header("Access-Control-Max-Age", "86400") // 24 hours

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
