package validation

import (
	"errors"
	"fmt"

	"contact-mail-proxy/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps json field names to user-friendly labels
var FieldLabels = map[string]string{
	"name":          "Name",
	"email":         "Email",
	"phone":         "Phone",
	"message":       "Message",
	"subject":       "Subject",
	"street":        "Street address",
	"city":          "City",
	"state":         "State",
	"zipCode":       "ZIP code",
	"serviceType":   "Service type",
	"urgency":       "Urgency",
	"preferredDate": "Preferred date",
	"preferredTime": "Preferred time",
	"dealAmount":    "Deal amount",
}

// FormatValidationErrors converts validator.ValidationErrors to field errors
func FormatValidationErrors(err error) []apperror.FieldError {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []apperror.FieldError{{Field: "_", Message: "Invalid input"}}
	}

	fields := make([]apperror.FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		fields = append(fields, apperror.FieldError{
			Field:   e.Field(),
			Message: formatSingleError(e),
		})
	}
	return fields
}

// formatSingleError formats a single validation error to a user-friendly message
func formatSingleError(e validator.FieldError) string {
	label := getFieldLabel(e.Field())
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, param)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", label)
	case "valid_name":
		return fmt.Sprintf("%s may only contain letters, spaces and common punctuation", label)
	case "valid_phone":
		return fmt.Sprintf("%s must be a valid phone number", label)
	case "valid_zip":
		return fmt.Sprintf("%s must be a valid postal code", label)
	case "valid_date":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", label)
	case "valid_time":
		return fmt.Sprintf("%s must be a time (HH:MM) or a time-of-day label", label)
	case "valid_amount":
		return fmt.Sprintf("%s must be a non-negative amount", label)
	default:
		return fmt.Sprintf("%s is invalid (%s)", label, e.Tag())
	}
}

func getFieldLabel(field string) string {
	if label, ok := FieldLabels[field]; ok {
		return label
	}
	return field
}
