package main

import (
	"fmt"
	"time"

	"contact-mail-proxy/config"
	"contact-mail-proxy/internal/domain"
	"contact-mail-proxy/pkg/email"
	"contact-mail-proxy/pkg/logger"
	"contact-mail-proxy/internal/mailtemplate"
	"contact-mail-proxy/pkg/validation"

	"github.com/spf13/cobra"
)

var sendTestTo string

// checkConfigCmd validates the environment without starting the server
var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate configuration and print the selected transport",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "environment:      %s\n", cfg.Environment)
		fmt.Fprintf(out, "transport:        %s\n", cfg.MailTransport)
		fmt.Fprintf(out, "business email:   %s\n", cfg.BusinessEmail)
		fmt.Fprintf(out, "allowed origins:  %d\n", len(cfg.AllowedOrigins))
		fmt.Fprintf(out, "rate limit:       %d mail / %d global per %s\n",
			cfg.RateLimitMailThreshold, cfg.RateLimitGlobalThreshold, cfg.RateLimitWindow())
		fmt.Fprintf(out, "redis configured: %t\n", cfg.RedisURL != "")
		fmt.Fprintln(out, "configuration OK")
		return nil
	},
}

// sendTestCmd renders a sample confirmation and sends it through the real transport
var sendTestCmd = &cobra.Command{
	Use:   "send-test",
	Short: "Send one sample confirmation email through the configured transport",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !validation.IsEmail(sendTestTo) {
			return fmt.Errorf("--to must be a valid email address")
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		logger.Init(cfg.Environment)
		defer logger.Sync()

		transport, dispatcher, err := newTransport(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeTransport(transport)

		sample := domain.Submission{
			Kind:    domain.KindService,
			Name:    "Test Sender",
			Email:   sendTestTo,
			Message: "This is a test message from contact-mail-proxy send-test.",
		}
		rendered, err := mailtemplate.Render(sample, time.Now(), brandFrom(cfg))
		if err != nil {
			return err
		}

		res := dispatcher.Send(cmd.Context(), clientTestMessage(sendTestTo, rendered.Client))
		if !res.Success {
			return fmt.Errorf("send failed, see logs for error id %s", res.ErrorID)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sent via %s (message id %q)\n", transport.Name(), res.MessageID)
		return nil
	},
}

func init() {
	sendTestCmd.Flags().StringVar(&sendTestTo, "to", "", "recipient address")
	_ = sendTestCmd.MarkFlagRequired("to")
}

func clientTestMessage(to string, part mailtemplate.Part) email.Message {
	return email.Message{
		To:       to,
		Subject:  part.Subject,
		Body:     part.HTML,
		TextBody: part.Text,
		IsHTML:   true,
	}
}
