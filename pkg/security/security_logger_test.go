package security_test

import (
	"context"
	"testing"

	"contact-mail-proxy/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "j***@example.com", security.MaskEmail("jane@example.com"))
	assert.Equal(t, "***@example.com", security.MaskEmail("j@example.com"))
	assert.Equal(t, "a***", security.MaskEmail("abc"))
	assert.Equal(t, "***", security.MaskEmail("ab"))
}

func TestHashValue(t *testing.T) {
	assert.Len(t, security.HashValue("jane@example.com"), 16)
	assert.Equal(t, security.HashValue("x"), security.HashValue("x"))
}

func TestRequestIDContext(t *testing.T) {
	ctx := security.WithRequestID(context.Background(), "req-1")
	assert.Equal(t, "req-1", security.RequestIDFrom(ctx))
	assert.Empty(t, security.RequestIDFrom(context.Background()))
}

func TestLogDerivesLevelFromSeverity(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sl := security.NewSecurityLogger(zap.New(core), "contact-mail-proxy", "test")

	sl.LogSuspiciousInput(context.Background(), "192.0.2.1", "req-1", []string{"name"})
	sl.LogRateLimitTriggered(context.Background(), "192.0.2.1", "curl", "req-2", "/api/send-email")
	sl.LogDispatchFailed(context.Background(), "jane@example.com", "err-1", "smtp", nil)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[2].Level)
	assert.Equal(t, "j***@example.com", entries[2].ContextMap()["subject_value"])
}

func TestLogDispatchFailedHashesRecipient(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	sl := security.NewSecurityLogger(zap.New(core), "contact-mail-proxy", "test")

	sl.LogDispatchFailed(context.Background(), "Jane@Example.com", "err-1", "smtp", nil)

	entries := logs.All()
	require.Len(t, entries, 1)
	details, ok := entries[0].ContextMap()["details"].(string)
	require.True(t, ok)
	assert.Contains(t, details, security.HashValue("jane@example.com"))
	assert.NotContains(t, details, "jane@example.com")
}

func TestDefaultLoggerBeforeInit(t *testing.T) {
	assert.NotPanics(t, func() {
		security.DefaultLogger().LogOriginDenied(context.Background(), "https://evil.example.com", "192.0.2.1", "")
	})
}
