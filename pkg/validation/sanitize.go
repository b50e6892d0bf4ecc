package validation

import (
	"html"
	"net/mail"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxSanitizePasses bounds the fixed-point loop in Sanitizer.
const maxSanitizePasses = 8

// headerUnsafe are removed from any value that can end up in a mail header.
var headerUnsafe = strings.NewReplacer("\r", " ", "\n", " ", ":", "", ";", "")

var lineBreaks = strings.NewReplacer("\r", " ", "\n", " ")

// Sanitizer removes markup and header-injection characters from form input.
// Every method is idempotent: feeding its output back in returns it unchanged.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer returns a sanitizer that allows zero tags and zero attributes.
func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Line cleans a single-line field (name, subject, phone, address parts).
func (s *Sanitizer) Line(value string) string {
	return s.fixedPoint(value, func(v string) string {
		v = s.stripMarkup(v)
		v = headerUnsafe.Replace(v)
		return strings.Join(strings.Fields(v), " ")
	})
}

// Field cleans a single-line value that is format-checked and only ever rendered
// into a body (dates, times, postal codes, amounts). Line breaks go, ':' stays.
func (s *Sanitizer) Field(value string) string {
	return s.fixedPoint(value, func(v string) string {
		v = s.stripMarkup(v)
		v = lineBreaks.Replace(v)
		return strings.Join(strings.Fields(v), " ")
	})
}

// Text cleans a multi-line field (message). Newlines survive, markup and CR do not.
func (s *Sanitizer) Text(value string) string {
	return s.fixedPoint(value, func(v string) string {
		v = strings.ReplaceAll(v, "\r\n", "\n")
		v = strings.ReplaceAll(v, "\r", "\n")
		v = s.stripMarkup(v)
		lines := strings.Split(v, "\n")
		for i, line := range lines {
			lines[i] = strings.Join(strings.Fields(line), " ")
		}
		return strings.TrimSpace(strings.Join(lines, "\n"))
	})
}

// Email trims, lower-cases and strips header-unsafe characters. The result is
// returned even when it is not a valid address; validation decides that.
func (s *Sanitizer) Email(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.NewReplacer("\r", "", "\n", "", ";", "", ",", "", " ", "", "<", "", ">", "").Replace(v)
	return v
}

// Changed reports whether sanitizing dropped anything besides surrounding whitespace.
func Changed(raw, clean string) bool {
	return strings.Join(strings.Fields(raw), " ") != strings.Join(strings.Fields(clean), " ")
}

func (s *Sanitizer) stripMarkup(v string) string {
	// bluemonday escapes text it keeps; unescape so templates escape exactly once.
	return html.UnescapeString(s.policy.Sanitize(v))
}

func (s *Sanitizer) fixedPoint(value string, pass func(string) string) string {
	v := value
	for i := 0; i < maxSanitizePasses; i++ {
		next := pass(v)
		if next == v {
			return v
		}
		v = next
	}
	return v
}

// IsEmail reports whether value is a bare RFC 5322 address with a dotted domain.
func IsEmail(value string) bool {
	if value == "" || strings.ContainsAny(value, "\r\n<> ") {
		return false
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return false
	}
	at := strings.LastIndexByte(value, '@')
	return at > 0 && strings.Contains(value[at+1:], ".")
}
