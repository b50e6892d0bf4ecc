package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type AppError struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
	ErrorID string       `json:"errorId,omitempty"`
	Err     error        `json:"-"`
}

// FieldError describes one offending input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func BadRequest(message string) *AppError {
	return New(http.StatusBadRequest, message, nil)
}

func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, message, nil)
}

func NotFound(message string) *AppError {
	return New(http.StatusNotFound, message, nil)
}

func TooManyRequests(message string) *AppError {
	return New(http.StatusTooManyRequests, message, nil)
}

func PayloadTooLarge() *AppError {
	return New(http.StatusRequestEntityTooLarge, "Request body too large", nil)
}

func ServiceUnavailable(message string, err error) *AppError {
	return New(http.StatusServiceUnavailable, message, err)
}

// Internal hides err behind a generic message and a fresh correlation id.
func Internal(err error) *AppError {
	e := New(http.StatusInternalServerError, "Internal server error", err)
	e.ErrorID = NewErrorID()
	return e
}

// ValidationError carries every field that failed validation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return "validation failed: " + strings.Join(names, ", ")
}

// Validation converts a ValidationError into a 400 response error.
func Validation(ve *ValidationError) *AppError {
	e := New(http.StatusBadRequest, "Validation failed", ve)
	e.Details = ve.Fields
	return e
}

// ConfigurationError is fatal at startup: the process must not bind a port.
type ConfigurationError struct {
	Missing []string
	Invalid []string
}

func (e *ConfigurationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid: "+strings.Join(e.Invalid, ", "))
	}
	return "configuration error (" + strings.Join(parts, "; ") + ")"
}

// HasProblems reports whether anything was recorded.
func (e *ConfigurationError) HasProblems() bool {
	return len(e.Missing) > 0 || len(e.Invalid) > 0
}

// TransportError wraps a failure reported by an outbound mail transport.
type TransportError struct {
	Transport string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport: %v", e.Transport, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewErrorID returns an opaque identifier safe to hand to clients.
func NewErrorID() string {
	return uuid.NewString()
}

// AsValidation is a shorthand for errors.As on *ValidationError.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
