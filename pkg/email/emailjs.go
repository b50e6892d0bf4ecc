package email

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/afex/hystrix-go/hystrix"
)

const (
	EmailJSHystrixKey = "emailjs_send"
	EmailJSEndpoint   = "https://api.emailjs.com/api/v1.0/email/send"
)

// HTTPClient is the subset of *http.Client used by the API transports.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// EmailJSConfig holds the provider identifiers. PublicKey and the ids are safe to
// expose to browsers; PrivateKey never leaves the server.
type EmailJSConfig struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
	PrivateKey string
	Endpoint   string
	Timeout    time.Duration
}

// PublicConfig is what GET /api/emailjs-config returns.
type PublicConfig struct {
	ServiceID  string `json:"serviceId"`
	TemplateID string `json:"templateId"`
	PublicKey  string `json:"publicKey"`
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	AccessToken    string            `json:"accessToken,omitempty"`
	TemplateParams map[string]string `json:"template_params"`
}

// EmailJSTransport sends through the EmailJS REST API behind a circuit breaker.
// The EmailJS template is expected to use to_email, reply_to, subject,
// html_body and text_body.
type EmailJSTransport struct {
	cfg        EmailJSConfig
	httpClient HTTPClient
}

// NewEmailJSTransport configures the hystrix command and returns the transport.
func NewEmailJSTransport(cfg EmailJSConfig, httpClient HTTPClient) (*EmailJSTransport, error) {
	if cfg.ServiceID == "" || cfg.TemplateID == "" || cfg.PublicKey == "" {
		return nil, errors.New("emailjs: service id, template id and public key are required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = EmailJSEndpoint
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	hystrix.ConfigureCommand(EmailJSHystrixKey, hystrix.CommandConfig{
		Timeout:                int(cfg.Timeout / time.Millisecond),
		MaxConcurrentRequests:  50,
		RequestVolumeThreshold: 10,
		SleepWindow:            30000,
		ErrorPercentThreshold:  50,
	})

	return &EmailJSTransport{cfg: cfg, httpClient: httpClient}, nil
}

func (t *EmailJSTransport) Name() string { return TransportEmailJS }

func (t *EmailJSTransport) Ready() bool {
	circuit, _, err := hystrix.GetCircuit(EmailJSHystrixKey)
	if err != nil {
		return false
	}
	return !circuit.IsOpen()
}

// Public returns the identifiers a browser needs for a client-side send.
func (t *EmailJSTransport) Public() PublicConfig {
	return PublicConfig{
		ServiceID:  t.cfg.ServiceID,
		TemplateID: t.cfg.TemplateID,
		PublicKey:  t.cfg.PublicKey,
	}
}

// Send posts one message. EmailJS does not return a message id.
func (t *EmailJSTransport) Send(ctx context.Context, msg Message) (string, error) {
	params := map[string]string{
		"to_email":  msg.To,
		"reply_to":  sanitizeHeaderValue(msg.ReplyTo),
		"subject":   sanitizeHeaderValue(msg.Subject),
		"html_body": msg.HTMLBody(),
		"text_body": msg.PlainBody(),
	}
	for k, v := range msg.Headers {
		params["header_"+strings.ToLower(k)] = sanitizeHeaderValue(v)
	}

	payload := emailJSRequest{
		ServiceID:      t.cfg.ServiceID,
		TemplateID:     t.cfg.TemplateID,
		UserID:         t.cfg.PublicKey,
		AccessToken:    t.cfg.PrivateKey,
		TemplateParams: params,
	}

	err := hystrix.Do(EmailJSHystrixKey, func() error {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.Endpoint, &buf)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := t.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("emailjs: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return nil
	}, nil)
	if err != nil {
		return "", err
	}
	return "", nil
}
