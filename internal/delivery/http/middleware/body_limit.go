package middleware

import (
	"net/http"

	"contact-mail-proxy/internal/delivery/http/response"
	"contact-mail-proxy/pkg/apperror"
	"contact-mail-proxy/pkg/security"

	"github.com/gin-gonic/gin"
)

// BodyLimit rejects bodies larger than maxBytes with 413. A declared
// Content-Length over the cap is rejected up front; chunked bodies are capped
// with http.MaxBytesReader and the handler maps the read error to 413.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			security.DefaultLogger().Log(c.Request.Context(), security.SecurityEvent{
				Event:     security.EventPayloadTooLarge,
				IP:        c.ClientIP(),
				RequestID: c.GetString(requestIDKey),
				Details:   map[string]interface{}{"content_length": c.Request.ContentLength, "limit": maxBytes},
			})
			response.FromAppError(c, apperror.PayloadTooLarge())
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
