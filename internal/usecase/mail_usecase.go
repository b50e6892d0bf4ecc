package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"contact-mail-proxy/internal/domain"
	"contact-mail-proxy/pkg/apperror"
	"contact-mail-proxy/pkg/email"
	"contact-mail-proxy/internal/mailtemplate"
)

// Outcome messages returned to the form.
const (
	MsgAllSent     = "Emails sent successfully"
	MsgPartialSent = "Your request was received but one notification could not be sent"
	MsgNoneSent    = "Notification emails could not be sent"
)

// Sender is the part of *email.Dispatcher the pipeline needs.
type Sender interface {
	Send(ctx context.Context, msg email.Message) email.Result
}

// MailConfig is the per-process configuration of the pipeline.
type MailConfig struct {
	// BusinessEmail receives every notification; it never comes from the request.
	BusinessEmail string
	Brand         mailtemplate.Brand
	// ClientSide is set when browsers send through EmailJS themselves.
	ClientSide *email.PublicConfig
	Now        func() time.Time
}

type mailUsecase struct {
	validator *SubmissionValidator
	sender    Sender
	cfg       MailConfig
}

func NewMailUsecase(validator *SubmissionValidator, sender Sender, cfg MailConfig) domain.MailUsecase {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &mailUsecase{
		validator: validator,
		sender:    sender,
		cfg:       cfg,
	}
}

// SubmitServiceRequest validates, renders and dispatches a service request.
// A *apperror.ValidationError means nothing was sent.
func (uc *mailUsecase) SubmitServiceRequest(ctx context.Context, req *domain.ServiceRequest) (*domain.RequestOutcome, error) {
	sub, err := uc.validator.FromService(ctx, req)
	if err != nil {
		return nil, err
	}
	return uc.dispatch(ctx, sub)
}

func (uc *mailUsecase) SubmitSupportRequest(ctx context.Context, req *domain.SupportRequest) (*domain.RequestOutcome, error) {
	sub, err := uc.validator.FromSupport(ctx, req)
	if err != nil {
		return nil, err
	}
	return uc.dispatch(ctx, sub)
}

// PrepareServiceRequest validates and renders, then returns the parameters a
// browser needs to send the business notification itself.
func (uc *mailUsecase) PrepareServiceRequest(ctx context.Context, req *domain.ServiceRequest) (*domain.PreparedEmail, error) {
	if uc.cfg.ClientSide == nil {
		return nil, apperror.NotFound("Client-side sending is not enabled")
	}

	sub, err := uc.validator.FromService(ctx, req)
	if err != nil {
		return nil, err
	}
	rendered, err := mailtemplate.Render(sub, uc.cfg.Now(), uc.cfg.Brand)
	if err != nil {
		return nil, fmt.Errorf("render submission: %w", err)
	}

	return &domain.PreparedEmail{
		ServiceID:  uc.cfg.ClientSide.ServiceID,
		TemplateID: uc.cfg.ClientSide.TemplateID,
		PublicKey:  uc.cfg.ClientSide.PublicKey,
		TemplateParams: map[string]string{
			"from_name":    sub.Name,
			"from_email":   sub.Email,
			"reply_to":     sub.Email,
			"phone":        orNotProvided(sub.Phone),
			"service_type": orNotProvided(sub.ServiceType),
			"subject":      rendered.Business.Subject,
			"html_body":    rendered.Business.HTML,
			"text_body":    rendered.Business.Text,
			"message":      sub.Message,
		},
	}, nil
}

func (uc *mailUsecase) dispatch(ctx context.Context, sub domain.Submission) (*domain.RequestOutcome, error) {
	rendered, err := mailtemplate.Render(sub, uc.cfg.Now(), uc.cfg.Brand)
	if err != nil {
		return nil, fmt.Errorf("render submission: %w", err)
	}

	legs := []struct {
		leg domain.Leg
		msg email.Message
	}{
		{domain.LegBusiness, businessMessage(uc.cfg.BusinessEmail, sub, rendered.Business)},
		{domain.LegClient, clientMessage(sub, rendered.Client)},
	}

	// Both legs run even when one fails.
	results := make([]domain.DispatchResult, len(legs))
	var wg sync.WaitGroup
	for i, l := range legs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := uc.sender.Send(ctx, l.msg)
			results[i] = domain.DispatchResult{
				Leg:       l.leg,
				Success:   res.Success,
				MessageID: res.MessageID,
				ErrorID:   res.ErrorID,
			}
		}()
	}
	wg.Wait()

	return Aggregate(results), nil
}

// Aggregate folds the per-leg results into the response outcome.
func Aggregate(results []domain.DispatchResult) *domain.RequestOutcome {
	outcome := &domain.RequestOutcome{Results: results}
	failed := 0
	for _, r := range results {
		if !r.Success {
			failed++
			outcome.ErrorIDs = append(outcome.ErrorIDs, r.ErrorID)
		}
	}

	switch {
	case failed == 0:
		outcome.Success = true
		outcome.Message = MsgAllSent
	case failed < len(results):
		outcome.Message = MsgPartialSent
	default:
		outcome.Message = MsgNoneSent
	}
	return outcome
}

func businessMessage(to string, sub domain.Submission, part mailtemplate.Part) email.Message {
	headers := map[string]string{
		"X-Submission-Kind": string(sub.Kind),
	}
	if sub.Urgency.IsPriority() {
		headers["X-Priority"] = "1"
		headers["Importance"] = "high"
	}
	return email.Message{
		To:       to,
		ReplyTo:  sub.Email,
		Subject:  part.Subject,
		Body:     part.HTML,
		TextBody: part.Text,
		IsHTML:   true,
		Headers:  headers,
	}
}

func clientMessage(sub domain.Submission, part mailtemplate.Part) email.Message {
	return email.Message{
		To:       sub.Email,
		Subject:  part.Subject,
		Body:     part.HTML,
		TextBody: part.Text,
		IsHTML:   true,
		Headers: map[string]string{
			"X-Submission-Kind": string(sub.Kind),
		},
	}
}

func orNotProvided(v string) string {
	if v == "" {
		return mailtemplate.NotProvided
	}
	return v
}
