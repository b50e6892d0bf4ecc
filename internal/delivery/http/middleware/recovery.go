package middleware

import (
	"fmt"

	"contact-mail-proxy/internal/delivery/http/response"
	"contact-mail-proxy/pkg/apperror"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery turns a panic into the generic 500 response. The panic value and
// stack are logged server-side only.
func Recovery(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				appErr := apperror.Internal(fmt.Errorf("panic: %v", r))
				log.Errorw("panic recovered",
					"error_id", appErr.ErrorID,
					"request_id", c.GetString(requestIDKey),
					"panic", r,
					zap.StackSkip("stack", 2),
				)
				if c.Writer.Written() {
					c.Abort()
					return
				}
				response.FromAppError(c, appErr)
				c.Abort()
			}
		}()
		c.Next()
	}
}
