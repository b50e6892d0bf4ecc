package email

import (
	"context"
	"sync"

	"contact-mail-proxy/pkg/security"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// logTransportKeep bounds how many messages LogTransport remembers.
const logTransportKeep = 50

// LogTransport writes message metadata to the log instead of sending. It is meant
// for local development and keeps the last messages for inspection.
type LogTransport struct {
	log *zap.SugaredLogger

	mu   sync.Mutex
	sent []Message
}

func NewLogTransport(log *zap.SugaredLogger) *LogTransport {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &LogTransport{log: log}
}

func (t *LogTransport) Name() string { return TransportLog }

func (t *LogTransport) Ready() bool { return true }

func (t *LogTransport) Send(ctx context.Context, msg Message) (string, error) {
	id := "log-" + uuid.NewString()
	t.log.Infow("mail not sent (log transport)",
		"message_id", id,
		"to", security.MaskEmail(msg.To),
		"subject", msg.Subject,
		"html", msg.IsHTML,
		"bytes", len(msg.Body),
	)
	t.mu.Lock()
	t.sent = append(t.sent, msg)
	if len(t.sent) > logTransportKeep {
		t.sent = t.sent[len(t.sent)-logTransportKeep:]
	}
	t.mu.Unlock()
	return id, nil
}

// Sent returns a copy of the most recent messages handed to the transport.
func (t *LogTransport) Sent() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Message, len(t.sent))
	copy(out, t.sent)
	return out
}
