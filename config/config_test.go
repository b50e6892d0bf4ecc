package config_test

import (
	"testing"
	"time"

	"contact-mail-proxy/config"
	"contact-mail-proxy/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("GIN_MODE", "debug")
	t.Setenv("BUSINESS_EMAIL", "owner@acme.example.com")
	t.Setenv("MAIL_TRANSPORT", "smtp")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_FROM_EMAIL", "noreply@acme.example.com")
}

func TestLoadConfigDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.False(t, cfg.SMTPImplicitTLS)
	assert.Equal(t, 5, cfg.SMTPPoolMaxConns)
	assert.Equal(t, 100, cfg.SMTPPoolMaxMessages)
	assert.Equal(t, 30*time.Second, cfg.MailSendTimeout)
	assert.Equal(t, int64(100*1024), cfg.MaxBodyBytes)
	assert.Equal(t, 15*time.Minute, cfg.RateLimitWindow())
	assert.Equal(t, 5, cfg.RateLimitMailThreshold)
	assert.Equal(t, 100, cfg.RateLimitGlobalThreshold)
}

func TestLoadConfigParsesOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SMTP_PORT", "465")
	t.Setenv("MAIL_SEND_TIMEOUT", "45")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com/, https://b.example.com")
	t.Setenv("UPSTASH_REDIS_URL", "rediss://cache.example.com:6380")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.SMTPImplicitTLS)
	assert.Equal(t, 45*time.Second, cfg.MailSendTimeout)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, "rediss://cache.example.com:6380", cfg.RedisURL)
}

func TestLoadConfigReportsEveryMissingKey(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("BUSINESS_EMAIL", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("MAIL_TRANSPORT", "graph")

	_, err := config.LoadConfig()

	var cerr *apperror.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Subset(t, cerr.Missing, []string{
		"BUSINESS_EMAIL",
		"ALLOWED_ORIGINS",
		"GRAPH_TENANT_ID",
		"GRAPH_CLIENT_ID",
		"GRAPH_CLIENT_SECRET",
		"GRAPH_SENDER",
	})
}

func TestValidateTransports(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			Environment:            "development",
			BusinessEmail:          "owner@acme.example.com",
			TimeZone:               "UTC",
			MaxBodyBytes:           1024,
			RateLimitWindowSeconds: 60,
		}
	}

	t.Run("Should reject unknown transport", func(t *testing.T) {
		cfg := base()
		cfg.MailTransport = "pigeon"
		var cerr *apperror.ConfigurationError
		require.ErrorAs(t, cfg.Validate(), &cerr)
		assert.Contains(t, cerr.Invalid, "MAIL_TRANSPORT")
	})

	t.Run("Should not require the EmailJS private key for client-side sending", func(t *testing.T) {
		cfg := base()
		cfg.MailTransport = "emailjs"
		cfg.EmailJSServiceID = "svc"
		cfg.EmailJSTemplateID = "tpl"
		cfg.EmailJSPublicKey = "pub"
		cfg.EmailJSClientSide = true
		assert.NoError(t, cfg.Validate())

		cfg.EmailJSClientSide = false
		var cerr *apperror.ConfigurationError
		require.ErrorAs(t, cfg.Validate(), &cerr)
		assert.Equal(t, []string{"EMAILJS_PRIVATE_KEY"}, cerr.Missing)
	})

	t.Run("Should refuse the log transport in production", func(t *testing.T) {
		cfg := base()
		cfg.Environment = "production"
		cfg.AllowedOrigins = []string{"https://acme.example.com"}
		cfg.MailTransport = "log"
		assert.Error(t, cfg.Validate())
	})

	t.Run("Should reject a malformed business email", func(t *testing.T) {
		cfg := base()
		cfg.MailTransport = "log"
		cfg.BusinessEmail = "Owner <owner@acme.example.com>"
		var cerr *apperror.ConfigurationError
		require.ErrorAs(t, cfg.Validate(), &cerr)
		assert.Contains(t, cerr.Invalid, "BUSINESS_EMAIL")
	})
}
