package validation

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Regex patterns
var (
	// Letters, digits, spaces and common punctuation found in personal and company names
	nameRegex = regexp.MustCompile(`^[\p{L}\p{M}0-9 .'/&(),-]+$`)

	// Optional +, then digits with common separators
	phoneRegex = regexp.MustCompile(`^\+?[0-9 ().-]{7,20}$`)

	// US ZIP / ZIP+4, or a generic alphanumeric postal code
	zipRegex = regexp.MustCompile(`^(\d{5}(-\d{4})?|[A-Za-z0-9][A-Za-z0-9 -]{1,8}[A-Za-z0-9])$`)

	// 24h clock time
	clockRegex = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

	// Time-of-day labels used by booking forms
	timeLabelRegex = regexp.MustCompile(`^[\p{L} -]{2,50}$`)
)

// DateLayout is the accepted layout for preferred dates.
const DateLayout = "2006-01-02"

// New returns a validator with the custom tags registered and json names reported.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)
	RegisterValidators(v)
	return v
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("valid_name", ValidName)
	_ = v.RegisterValidation("valid_phone", ValidPhone)
	_ = v.RegisterValidation("valid_zip", ValidZip)
	_ = v.RegisterValidation("valid_date", ValidDate)
	_ = v.RegisterValidation("valid_time", ValidTime)
	_ = v.RegisterValidation("valid_amount", ValidAmount)
}

// ValidName validates that a string contains only valid name characters
func ValidName(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true // Optional, use required if needed
	}
	return nameRegex.MatchString(val)
}

// ValidPhone validates a phone number structure and requires at least 7 digits
func ValidPhone(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	if !phoneRegex.MatchString(val) {
		return false
	}
	digits := 0
	for _, r := range val {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7 && digits <= 15
}

// ValidZip validates a postal code
func ValidZip(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return zipRegex.MatchString(val)
}

// ValidDate validates a YYYY-MM-DD calendar date
func ValidDate(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	_, err := time.Parse(DateLayout, val)
	return err == nil
}

// ValidTime accepts HH:MM or a short label such as "Morning"
func ValidTime(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return clockRegex.MatchString(val) || timeLabelRegex.MatchString(val)
}

// ValidAmount accepts a non-negative amount with an optional leading $ and optional %
func ValidAmount(fl validator.FieldLevel) bool {
	val := strings.TrimSpace(fl.Field().String())
	if val == "" {
		return true
	}
	val = strings.TrimPrefix(val, "$")
	val = strings.TrimSuffix(val, "%")
	val = strings.ReplaceAll(val, ",", "")
	f, err := strconv.ParseFloat(val, 64)
	return err == nil && f >= 0
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}
