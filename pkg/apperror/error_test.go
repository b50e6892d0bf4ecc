package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"contact-mail-proxy/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternalHidesCause(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:587: connection refused")
	err := apperror.Internal(cause)

	assert.Equal(t, http.StatusInternalServerError, err.Code)
	assert.Equal(t, "Internal server error", err.Error())
	assert.NotEmpty(t, err.ErrorID)
	assert.ErrorIs(t, err, cause)
}

func TestValidation(t *testing.T) {
	ve := &apperror.ValidationError{Fields: []apperror.FieldError{
		{Field: "email", Message: "Email must be a valid email address"},
		{Field: "message", Message: "Message is required"},
	}}
	assert.Equal(t, "validation failed: email, message", ve.Error())

	wrapped := fmt.Errorf("submit: %w", ve)
	got, ok := apperror.AsValidation(wrapped)
	require.True(t, ok)
	assert.Same(t, ve, got)

	appErr := apperror.Validation(got)
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
	assert.Len(t, appErr.Details, 2)
}

func TestConfigurationError(t *testing.T) {
	cerr := &apperror.ConfigurationError{}
	assert.False(t, cerr.HasProblems())

	cerr.Missing = []string{"BUSINESS_EMAIL", "SMTP_HOST"}
	cerr.Invalid = []string{"SMTP_PORT"}
	assert.True(t, cerr.HasProblems())
	assert.Equal(t, "configuration error (missing: BUSINESS_EMAIL, SMTP_HOST; invalid: SMTP_PORT)", cerr.Error())
}

func TestTransportError(t *testing.T) {
	cause := errors.New("timeout")
	err := &apperror.TransportError{Transport: "smtp", Err: cause}
	assert.Equal(t, "smtp transport: timeout", err.Error())
	assert.ErrorIs(t, err, cause)
}

func TestErrorIDsAreUnique(t *testing.T) {
	assert.NotEqual(t, apperror.NewErrorID(), apperror.NewErrorID())
}
