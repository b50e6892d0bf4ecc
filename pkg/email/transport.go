package email

import (
	"context"
	"errors"
)

// Transport names accepted by MAIL_TRANSPORT.
const (
	TransportSMTP    = "smtp"
	TransportEmailJS = "emailjs"
	TransportGraph   = "graph"
	TransportGmail   = "gmail"
	TransportLog     = "log"
)

// Transport is the outbound mail channel. Exactly one is built at startup.
type Transport interface {
	// Name identifies the transport in logs and health output.
	Name() string
	// Send delivers msg and returns the provider message id when one is available.
	Send(ctx context.Context, msg Message) (string, error)
}

// ReadyChecker is implemented by transports that can report readiness cheaply.
type ReadyChecker interface {
	Ready() bool
}

// Message is one outbound email. From is owned by the transport configuration.
type Message struct {
	To       string
	ReplyTo  string
	Subject  string
	Body     string
	TextBody string // optional plain-text alternative when IsHTML is set
	IsHTML   bool
	Headers  map[string]string
}

// HTMLBody returns the HTML part, or "" for plain-text messages.
func (m Message) HTMLBody() string {
	if m.IsHTML {
		return m.Body
	}
	return ""
}

// PlainBody returns the plain-text part.
func (m Message) PlainBody() string {
	if m.IsHTML {
		return m.TextBody
	}
	return m.Body
}

var (
	ErrNoRecipient      = errors.New("email: recipient is required")
	ErrInvalidRecipient = errors.New("email: recipient address is invalid")
	ErrTransportClosed  = errors.New("email: transport is closed")
)
