package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// GmailConfig holds the configuration for the Gmail API transport.
type GmailConfig struct {
	// CredentialsJSON is a service account key with domain-wide delegation.
	CredentialsJSON string
	// SenderAddress is impersonated and used as From.
	SenderAddress string
	SenderName    string
}

// GmailTransport implements Transport using the Gmail API.
type GmailTransport struct {
	service       *gmail.Service
	senderAddress string
	senderName    string
	now           func() time.Time
}

// NewGmailTransport creates a Gmail transport from service account credentials.
func NewGmailTransport(ctx context.Context, cfg GmailConfig) (*GmailTransport, error) {
	if cfg.CredentialsJSON == "" {
		return nil, fmt.Errorf("gmail: credentials JSON is required")
	}
	if cfg.SenderAddress == "" {
		return nil, fmt.Errorf("gmail: sender address is required")
	}

	jwtConfig, err := google.JWTConfigFromJSON([]byte(cfg.CredentialsJSON), gmail.GmailSendScope)
	if err != nil {
		return nil, fmt.Errorf("gmail: failed to parse credentials: %w", err)
	}
	jwtConfig.Subject = cfg.SenderAddress

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("gmail: failed to create service: %w", err)
	}
	return NewGmailTransportWithService(svc, cfg.SenderAddress, cfg.SenderName), nil
}

// NewGmailTransportWithService wraps an existing Gmail service.
func NewGmailTransportWithService(svc *gmail.Service, senderAddress, senderName string) *GmailTransport {
	return &GmailTransport{
		service:       svc,
		senderAddress: senderAddress,
		senderName:    senderName,
		now:           time.Now,
	}
}

func (g *GmailTransport) Name() string { return TransportGmail }

// Send sends an email via the Gmail API and returns the Gmail message id.
func (g *GmailTransport) Send(ctx context.Context, msg Message) (string, error) {
	raw := BuildMIME(FormatAddress(g.senderName, g.senderAddress), NewMessageID(g.senderAddress), msg, g.now())

	sent, err := g.service.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw),
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("gmail: failed to send email: %w", err)
	}
	return sent.Id, nil
}
