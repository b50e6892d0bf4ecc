package email

import (
	"bytes"
	"fmt"
	"mime"
	"net/textproto"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// reservedHeaders are always written by BuildMIME and cannot be overridden.
var reservedHeaders = map[string]bool{
	"From": true, "To": true, "Cc": true, "Bcc": true, "Subject": true, "Reply-To": true,
	"Date": true, "Message-Id": true, "Mime-Version": true, "Content-Type": true,
	"Content-Transfer-Encoding": true,
}

// NewMessageID returns an RFC 5322 Message-ID for the sender's domain.
func NewMessageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndexByte(from, '@'); at >= 0 && at < len(from)-1 {
		domain = strings.Trim(from[at+1:], "> ")
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}

// BuildMIME renders msg as an RFC 5322 message. When both an HTML and a text body
// are present the result is multipart/alternative.
func BuildMIME(from, messageID string, msg Message, now time.Time) []byte {
	headers := make(map[string]string, len(msg.Headers)+8)
	for key, value := range msg.Headers {
		canonical := textproto.CanonicalMIMEHeaderKey(strings.TrimSpace(key))
		if canonical == "" || reservedHeaders[canonical] || strings.ContainsAny(canonical, " :\r\n") {
			continue
		}
		if v := sanitizeHeaderValue(value); v != "" {
			headers[canonical] = v
		}
	}

	headers["From"] = sanitizeHeaderValue(from)
	headers["To"] = sanitizeHeaderValue(msg.To)
	if msg.ReplyTo != "" {
		headers["Reply-To"] = sanitizeHeaderValue(msg.ReplyTo)
	}
	headers["Subject"] = mime.QEncoding.Encode("utf-8", sanitizeHeaderValue(msg.Subject))
	headers["Date"] = now.UTC().Format(time.RFC1123Z)
	if messageID != "" {
		headers["Message-Id"] = sanitizeHeaderValue(messageID)
	}
	headers["MIME-Version"] = "1.0"

	htmlBody, textBody := msg.HTMLBody(), msg.PlainBody()
	boundary := ""
	switch {
	case htmlBody != "" && textBody != "":
		boundary = "alt_" + strings.ReplaceAll(uuid.NewString(), "-", "")
		headers["Content-Type"] = `multipart/alternative; boundary="` + boundary + `"`
	case htmlBody != "":
		headers["Content-Type"] = "text/html; charset=UTF-8"
	default:
		headers["Content-Type"] = "text/plain; charset=UTF-8"
	}

	keys := make([]string, 0, len(headers))
	for key := range headers {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for _, key := range keys {
		buf.WriteString(key)
		buf.WriteString(": ")
		buf.WriteString(headers[key])
		buf.WriteString("\r\n")
	}
	buf.WriteString("\r\n")

	if boundary == "" {
		if htmlBody != "" {
			buf.WriteString(normalizeBody(htmlBody))
		} else {
			buf.WriteString(normalizeBody(textBody))
		}
		return buf.Bytes()
	}

	writePart := func(contentType, body string) {
		buf.WriteString("--" + boundary + "\r\n")
		buf.WriteString("Content-Type: " + contentType + "\r\n")
		buf.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
		buf.WriteString(normalizeBody(body))
		buf.WriteString("\r\n")
	}
	writePart("text/plain; charset=UTF-8", textBody)
	writePart("text/html; charset=UTF-8", htmlBody)
	buf.WriteString("--" + boundary + "--\r\n")
	return buf.Bytes()
}

// FormatAddress renders "Name <addr>" with the name quoted when needed.
func FormatAddress(name, addr string) string {
	name = sanitizeHeaderValue(name)
	if name == "" {
		return addr
	}
	return mime.QEncoding.Encode("utf-8", name) + " <" + addr + ">"
}

func normalizeBody(body string) string {
	if body == "" {
		return ""
	}
	normalized := strings.ReplaceAll(body, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")
	// dot-stuffing is done by the SMTP data writer
	return strings.ReplaceAll(normalized, "\n", "\r\n")
}

func sanitizeHeaderValue(value string) string {
	clean := strings.ReplaceAll(value, "\r", " ")
	clean = strings.ReplaceAll(clean, "\n", " ")
	return strings.TrimSpace(clean)
}
