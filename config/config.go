package config

import (
	"net/mail"
	"os"
	"strconv"
	"strings"
	"time"

	"contact-mail-proxy/pkg/apperror"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Environment    string // "production" when GIN_MODE=release
	AllowedOrigins []string
	TrustedProxies []string
	MaxBodyBytes   int64
	// Business identity and the fixed notification recipient
	BusinessEmail string
	BusinessName  string
	BusinessSite  string
	BusinessPhone string
	TimeZone      string
	// Mail transport
	MailTransport   string
	MailSendTimeout time.Duration
	// SMTP
	SMTPHost            string
	SMTPPort            int
	SMTPUsername        string
	SMTPPassword        string
	SMTPFromEmail       string
	SMTPFromName        string
	SMTPImplicitTLS     bool
	SMTPPoolMaxConns    int
	SMTPPoolMaxMessages int
	// EmailJS
	EmailJSServiceID  string
	EmailJSTemplateID string
	EmailJSPublicKey  string
	EmailJSPrivateKey string
	EmailJSClientSide bool
	// Microsoft Graph
	GraphTenantID     string
	GraphClientID     string
	GraphClientSecret string
	GraphSender       string
	// Gmail API
	GmailCredentialsJSON string
	GmailSender          string
	// Redis (optional, rate limiter store)
	RedisURL      string
	RedisPassword string
	// Rate Limiting Configuration
	RateLimitWindowSeconds   int
	RateLimitMailThreshold   int
	RateLimitGlobalThreshold int
}

// LoadConfig reads the environment (and .env when present) and validates it.
// A *apperror.ConfigurationError is returned when mandatory values are missing.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	env := "development"
	if os.Getenv("GIN_MODE") == "release" {
		env = "production"
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    env,
		AllowedOrigins: trimOrigins(getEnvList("ALLOWED_ORIGINS", nil)),
		TrustedProxies: getEnvList("TRUSTED_PROXIES", nil),
		MaxBodyBytes:   int64(getEnvInt("MAX_BODY_BYTES", 100*1024)),

		BusinessEmail: strings.TrimSpace(getEnv("BUSINESS_EMAIL", "")),
		BusinessName:  getEnv("BUSINESS_NAME", "Our Team"),
		BusinessSite:  strings.TrimRight(getEnv("BUSINESS_WEBSITE", ""), "/"),
		BusinessPhone: getEnv("BUSINESS_PHONE", ""),
		TimeZone:      getEnv("BUSINESS_TIMEZONE", "UTC"),

		MailTransport:   strings.ToLower(getEnv("MAIL_TRANSPORT", "smtp")),
		MailSendTimeout: getEnvDuration("MAIL_SEND_TIMEOUT", 30*time.Second),

		SMTPHost:            getEnv("SMTP_HOST", ""),
		SMTPPort:            getEnvInt("SMTP_PORT", 587),
		SMTPUsername:        getEnv("SMTP_USERNAME", ""),
		SMTPPassword:        getEnv("SMTP_PASSWORD", ""),
		SMTPFromEmail:       getEnv("SMTP_FROM_EMAIL", ""),
		SMTPFromName:        getEnv("SMTP_FROM_NAME", ""),
		SMTPImplicitTLS:     getEnvBool("SMTP_IMPLICIT_TLS", getEnvInt("SMTP_PORT", 587) == 465),
		SMTPPoolMaxConns:    getEnvInt("SMTP_POOL_MAX_CONNS", 5),
		SMTPPoolMaxMessages: getEnvInt("SMTP_POOL_MAX_MESSAGES", 100),

		EmailJSServiceID:  getEnv("EMAILJS_SERVICE_ID", ""),
		EmailJSTemplateID: getEnv("EMAILJS_TEMPLATE_ID", ""),
		EmailJSPublicKey:  getEnv("EMAILJS_PUBLIC_KEY", ""),
		EmailJSPrivateKey: getEnv("EMAILJS_PRIVATE_KEY", ""),
		EmailJSClientSide: getEnvBool("EMAILJS_CLIENT_SIDE", false),

		GraphTenantID:     getEnv("GRAPH_TENANT_ID", ""),
		GraphClientID:     getEnv("GRAPH_CLIENT_ID", ""),
		GraphClientSecret: getEnv("GRAPH_CLIENT_SECRET", ""),
		GraphSender:       getEnv("GRAPH_SENDER", ""),

		GmailCredentialsJSON: getEnv("GMAIL_CREDENTIALS_JSON", ""),
		GmailSender:          getEnv("GMAIL_SENDER", ""),

		RedisURL:      getEnv("REDIS_URL", getEnv("UPSTASH_REDIS_URL", "")),
		RedisPassword: getEnv("REDIS_PASSWORD", getEnv("UPSTASH_REDIS_PASSWORD", "")),

		RateLimitWindowSeconds:   getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 15*60),
		RateLimitMailThreshold:   getEnvInt("RATE_LIMIT_MAIL_THRESHOLD", 5),
		RateLimitGlobalThreshold: getEnvInt("RATE_LIMIT_GLOBAL_THRESHOLD", 100),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate collects every missing or invalid setting into one ConfigurationError.
func (c *Config) Validate() error {
	cerr := &apperror.ConfigurationError{}
	require := func(key, value string) {
		if strings.TrimSpace(value) == "" {
			cerr.Missing = append(cerr.Missing, key)
		}
	}

	require("BUSINESS_EMAIL", c.BusinessEmail)
	if c.BusinessEmail != "" && !isAddress(c.BusinessEmail) {
		cerr.Invalid = append(cerr.Invalid, "BUSINESS_EMAIL")
	}
	if c.IsProduction() && len(c.AllowedOrigins) == 0 {
		cerr.Missing = append(cerr.Missing, "ALLOWED_ORIGINS")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		cerr.Invalid = append(cerr.Invalid, "BUSINESS_TIMEZONE")
	}
	if c.MaxBodyBytes <= 0 {
		cerr.Invalid = append(cerr.Invalid, "MAX_BODY_BYTES")
	}
	if c.RateLimitWindowSeconds <= 0 {
		cerr.Invalid = append(cerr.Invalid, "RATE_LIMIT_WINDOW_SECONDS")
	}

	switch c.MailTransport {
	case "smtp":
		require("SMTP_HOST", c.SMTPHost)
		require("SMTP_FROM_EMAIL", c.SMTPFromEmail)
		if c.SMTPUsername != "" {
			require("SMTP_PASSWORD", c.SMTPPassword)
		}
		if c.SMTPPort <= 0 || c.SMTPPort > 65535 {
			cerr.Invalid = append(cerr.Invalid, "SMTP_PORT")
		}
	case "emailjs":
		require("EMAILJS_SERVICE_ID", c.EmailJSServiceID)
		require("EMAILJS_TEMPLATE_ID", c.EmailJSTemplateID)
		require("EMAILJS_PUBLIC_KEY", c.EmailJSPublicKey)
		if !c.EmailJSClientSide {
			require("EMAILJS_PRIVATE_KEY", c.EmailJSPrivateKey)
		}
	case "graph":
		require("GRAPH_TENANT_ID", c.GraphTenantID)
		require("GRAPH_CLIENT_ID", c.GraphClientID)
		require("GRAPH_CLIENT_SECRET", c.GraphClientSecret)
		require("GRAPH_SENDER", c.GraphSender)
	case "gmail":
		require("GMAIL_CREDENTIALS_JSON", c.GmailCredentialsJSON)
		require("GMAIL_SENDER", c.GmailSender)
	case "log":
		if c.IsProduction() && !getEnvBool("ALLOW_LOG_TRANSPORT", false) {
			cerr.Invalid = append(cerr.Invalid, "MAIL_TRANSPORT")
		}
	default:
		cerr.Invalid = append(cerr.Invalid, "MAIL_TRANSPORT")
	}

	if cerr.HasProblems() {
		return cerr
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location returns the business time zone used for timestamps in emails.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// RateLimitWindow returns the fixed window as a duration.
func (c *Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func isAddress(value string) bool {
	addr, err := mail.ParseAddress(value)
	return err == nil && addr.Address == value
}

func trimOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		out = append(out, strings.TrimRight(o, "/"))
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("45s") or plain seconds ("45")
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping empty entries
func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
