package email_test

import (
	"strings"
	"testing"
	"time"

	"contact-mail-proxy/pkg/email"

	"github.com/stretchr/testify/assert"
)

var fixedNow = time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC)

func TestBuildMIMEScrubsHeaders(t *testing.T) {
	msg := email.Message{
		To:      "jane@example.com",
		ReplyTo: "bob@example.com\r\nBcc: victim@example.com",
		Subject: "Hello\r\nBcc: victim@example.com",
		Body:    "body",
		Headers: map[string]string{
			"X-Custom": "ok\r\nInjected: yes",
			"Subject":  "override attempt",
			"Bad Key":  "ignored",
		},
	}

	raw := string(email.BuildMIME("noreply@example.com", "<id@example.com>", msg, fixedNow))
	head := raw[:strings.Index(raw, "\r\n\r\n")]

	for _, line := range strings.Split(head, "\r\n") {
		assert.False(t, strings.HasPrefix(line, "Bcc:"), line)
		assert.False(t, strings.HasPrefix(line, "Injected:"), line)
	}
	assert.Equal(t, 1, strings.Count(head, "Subject: "))
	assert.Contains(t, head, "X-Custom: ok")
	assert.NotContains(t, head, "Bad Key")
	assert.Contains(t, head, "Message-Id: <id@example.com>")
}

func TestBuildMIMEMultipart(t *testing.T) {
	msg := email.Message{
		To:       "jane@example.com",
		Subject:  "Hi",
		Body:     "<p>Hello</p>",
		TextBody: "Hello",
		IsHTML:   true,
	}

	raw := string(email.BuildMIME("noreply@example.com", "", msg, fixedNow))
	assert.Contains(t, raw, "Content-Type: multipart/alternative; boundary=")
	assert.Contains(t, raw, "Content-Type: text/plain; charset=UTF-8")
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8")
	assert.Contains(t, raw, "<p>Hello</p>")
	assert.NotContains(t, raw, "Message-Id")
}

func TestBuildMIMEPlainText(t *testing.T) {
	msg := email.Message{To: "jane@example.com", Subject: "Hi", Body: "line1\nline2"}

	raw := string(email.BuildMIME("noreply@example.com", "", msg, fixedNow))
	assert.Contains(t, raw, "Content-Type: text/plain; charset=UTF-8")
	assert.True(t, strings.HasSuffix(raw, "line1\r\nline2"))
}

func TestFormatAddress(t *testing.T) {
	assert.Equal(t, "noreply@example.com", email.FormatAddress("", "noreply@example.com"))
	assert.Equal(t, "Acme <noreply@example.com>", email.FormatAddress("Acme", "noreply@example.com"))
}

func TestNewMessageID(t *testing.T) {
	id := email.NewMessageID("noreply@example.com")
	assert.True(t, strings.HasPrefix(id, "<"))
	assert.True(t, strings.HasSuffix(id, "@example.com>"))
	assert.NotEqual(t, id, email.NewMessageID("noreply@example.com"))
}
