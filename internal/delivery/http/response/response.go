package response

import (
	"errors"
	"net/http"

	"contact-mail-proxy/internal/domain"
	"contact-mail-proxy/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// Response standardizes the API JSON response
type Response struct {
	Success   bool                  `json:"success"`
	Message   string                `json:"message"`
	Data      interface{}           `json:"data,omitempty"`
	Error     interface{}           `json:"error,omitempty"`
	Details   []apperror.FieldError `json:"details,omitempty"`
	ErrorID   string                `json:"errorId,omitempty"`
	ErrorIDs  []string              `json:"errorIds,omitempty"`
	RequestID string                `json:"request_id,omitempty"`
}

func requestID(c *gin.Context) string {
	reqID, _ := c.Get("RequestID")
	idStr, _ := reqID.(string) // Safe type assertion
	return idStr
}

// Success sends a success response
func Success(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, Response{
		Success:   true,
		Message:   message,
		Data:      data,
		RequestID: requestID(c),
	})
}

// Error sends an error response. When err is nil the message doubles as the error.
func Error(c *gin.Context, code int, message string, err interface{}) {
	if err == nil {
		err = message
	}
	c.JSON(code, Response{
		Success:   false,
		Message:   message,
		Error:     err,
		RequestID: requestID(c),
	})
}

// FromAppError writes an AppError. Wrapped causes never reach the client.
func FromAppError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		appErr = apperror.Internal(err)
	}

	c.JSON(appErr.Code, Response{
		Success:   false,
		Message:   appErr.Message,
		Error:     appErr.Message,
		Details:   appErr.Details,
		ErrorID:   appErr.ErrorID,
		RequestID: requestID(c),
	})
}

// Outcome writes an aggregated submission result. Partial failure is still a 200.
func Outcome(c *gin.Context, outcome domain.RequestOutcome) {
	c.JSON(http.StatusOK, Response{
		Success:   outcome.Success,
		Message:   outcome.Message,
		ErrorIDs:  outcome.ErrorIDs,
		RequestID: requestID(c),
	})
}
