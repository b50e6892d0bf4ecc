package middleware

import (
	"errors"

	"contact-mail-proxy/internal/delivery/http/response"
	"contact-mail-proxy/pkg/apperror"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func ErrorHandler(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			// Never expose internal error details to clients.
			appErr = apperror.Internal(err)
		}
		if appErr.Code >= 500 {
			log.Errorw("request failed",
				"error_id", appErr.ErrorID,
				"request_id", c.GetString(requestIDKey),
				"path", c.FullPath(),
				"error", err,
			)
		}
		response.FromAppError(c, appErr)
	}
}
