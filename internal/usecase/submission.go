package usecase

import (
	"context"

	"contact-mail-proxy/internal/domain"
	"contact-mail-proxy/pkg/apperror"
	"contact-mail-proxy/pkg/security"
	"contact-mail-proxy/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// SubmissionValidator turns raw form bodies into sanitized, validated submissions.
type SubmissionValidator struct {
	sanitizer *validation.Sanitizer
	validate  *validator.Validate
	security  *security.SecurityLogger
}

func NewSubmissionValidator(validate *validator.Validate, sl *security.SecurityLogger) *SubmissionValidator {
	if validate == nil {
		validate = validation.New()
	}
	if sl == nil {
		sl = security.DefaultLogger()
	}
	return &SubmissionValidator{
		sanitizer: validation.NewSanitizer(),
		validate:  validate,
		security:  sl,
	}
}

// FromService builds a service submission. Legacy spellings are folded in first.
func (v *SubmissionValidator) FromService(ctx context.Context, req *domain.ServiceRequest) (domain.Submission, error) {
	raw := map[string]string{
		"name":          req.FullName(),
		"phone":         req.Phone,
		"street":        req.Address,
		"city":          req.City,
		"state":         req.State,
		"zipCode":       req.ZipCode,
		"message":       req.Body(),
		"subject":       req.Subject,
		"serviceType":   req.ServiceType,
		"urgency":       req.Urgency,
		"preferredDate": req.PreferredDate,
		"preferredTime": req.PreferredTime,
		"dealAmount":    string(req.DealAmount),
	}
	clean := v.sanitizeAll(raw)

	sub := domain.Submission{
		Kind:  domain.KindService,
		Name:  clean["name"],
		Email: v.sanitizer.Email(req.Email),
		Phone: clean["phone"],
		Address: domain.Address{
			Street:  clean["street"],
			City:    clean["city"],
			State:   clean["state"],
			ZipCode: clean["zipCode"],
		},
		Message:         clean["message"],
		Subject:         clean["subject"],
		ServiceType:     clean["serviceType"],
		Urgency:         domain.ParseUrgency(clean["urgency"]),
		PreferredDate:   clean["preferredDate"],
		PreferredTime:   clean["preferredTime"],
		DiscountClaimed: bool(req.DiscountClaimed) || bool(req.ClaimDeal),
		DealAmount:      clean["dealAmount"],
	}

	v.reportSuspicious(ctx, raw, clean)
	return sub, v.check(ctx, sub)
}

// FromSupport builds a support submission.
func (v *SubmissionValidator) FromSupport(ctx context.Context, req *domain.SupportRequest) (domain.Submission, error) {
	raw := map[string]string{
		"name":    req.Name,
		"phone":   req.Phone,
		"subject": req.Subject,
		"message": req.Message,
	}
	clean := v.sanitizeAll(raw)

	sub := domain.Submission{
		Kind:    domain.KindSupport,
		Name:    clean["name"],
		Email:   v.sanitizer.Email(req.Email),
		Phone:   clean["phone"],
		Subject: clean["subject"],
		Message: clean["message"],
	}

	v.reportSuspicious(ctx, raw, clean)
	return sub, v.check(ctx, sub)
}

// formatFields never reach a header and are checked by a strict format tag, so
// they keep characters such as ':' that Line would drop.
var formatFields = map[string]bool{
	"preferredDate": true,
	"preferredTime": true,
	"zipCode":       true,
	"dealAmount":    true,
}

func (v *SubmissionValidator) sanitizeAll(raw map[string]string) map[string]string {
	clean := make(map[string]string, len(raw))
	for field, value := range raw {
		switch {
		case field == "message":
			clean[field] = v.sanitizer.Text(value)
		case formatFields[field]:
			clean[field] = v.sanitizer.Field(value)
		default:
			clean[field] = v.sanitizer.Line(value)
		}
	}
	return clean
}

// reportSuspicious logs which fields lost content to sanitizing. Values are never logged.
func (v *SubmissionValidator) reportSuspicious(ctx context.Context, raw, clean map[string]string) {
	var fields []string
	for field, value := range raw {
		if validation.Changed(value, clean[field]) {
			fields = append(fields, field)
		}
	}
	if len(fields) > 0 {
		v.security.LogSuspiciousInput(ctx, domain.ClientIPFrom(ctx), security.RequestIDFrom(ctx), fields)
	}
}

func (v *SubmissionValidator) check(ctx context.Context, sub domain.Submission) error {
	var fields []apperror.FieldError
	if err := v.validate.Struct(sub); err != nil {
		fields = validation.FormatValidationErrors(err)
	}

	// The validator's email tag is looser than what the dispatcher accepts.
	if sub.Email != "" && !validation.IsEmail(sub.Email) && !hasField(fields, "email") {
		fields = append(fields, apperror.FieldError{Field: "email", Message: "Email must be a valid email address"})
	}

	if len(fields) == 0 {
		return nil
	}

	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, f.Field)
	}
	v.security.LogValidationFailed(ctx, domain.ClientIPFrom(ctx), security.RequestIDFrom(ctx), names)
	return &apperror.ValidationError{Fields: fields}
}

func hasField(fields []apperror.FieldError, name string) bool {
	for _, f := range fields {
		if f.Field == name {
			return true
		}
	}
	return false
}
