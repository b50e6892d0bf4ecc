package main

import (
	"context"
	"fmt"

	"contact-mail-proxy/config"
	"contact-mail-proxy/pkg/email"

	"go.uber.org/zap"
)

// buildTransport builds the transport selected by cfg.MailTransport. It is called
// once at startup; the choice never depends on a request.
func buildTransport(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (email.Transport, error) {
	switch cfg.MailTransport {
	case email.TransportSMTP:
		return email.NewSMTPTransport(email.SMTPConfig{
			Host:               cfg.SMTPHost,
			Port:               cfg.SMTPPort,
			Username:           cfg.SMTPUsername,
			Password:           cfg.SMTPPassword,
			From:               cfg.SMTPFromEmail,
			FromName:           cfg.SMTPFromName,
			ImplicitTLS:        cfg.SMTPImplicitTLS,
			MaxConns:           cfg.SMTPPoolMaxConns,
			MaxMessagesPerConn: cfg.SMTPPoolMaxMessages,
		})
	case email.TransportEmailJS:
		return email.NewEmailJSTransport(email.EmailJSConfig{
			ServiceID:  cfg.EmailJSServiceID,
			TemplateID: cfg.EmailJSTemplateID,
			PublicKey:  cfg.EmailJSPublicKey,
			PrivateKey: cfg.EmailJSPrivateKey,
			Timeout:    cfg.MailSendTimeout,
		}, nil)
	case email.TransportGraph:
		return email.NewGraphTransport(ctx, email.GraphConfig{
			TenantID:     cfg.GraphTenantID,
			ClientID:     cfg.GraphClientID,
			ClientSecret: cfg.GraphClientSecret,
			Sender:       cfg.GraphSender,
		}, nil)
	case email.TransportGmail:
		return email.NewGmailTransport(ctx, email.GmailConfig{
			CredentialsJSON: cfg.GmailCredentialsJSON,
			SenderAddress:   cfg.GmailSender,
			SenderName:      cfg.BusinessName,
		})
	case email.TransportLog:
		return email.NewLogTransport(log), nil
	default:
		return nil, fmt.Errorf("unknown mail transport %q", cfg.MailTransport)
	}
}
