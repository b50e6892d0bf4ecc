// Package mailtemplate renders the business notification and the client
// confirmation for a submission. Rendering is pure: same input, same output.
package mailtemplate

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"contact-mail-proxy/internal/domain"
)

//go:embed templates/*.html templates/*.txt
var files embed.FS

const (
	NotProvided = "Not provided"
	Flexible    = "Flexible"
	NoSubject   = "No subject"

	defaultUrgency     = "Normal"
	defaultServiceType = "General Inquiry"
	timestampLayout    = "Monday, January 2, 2006 at 3:04 PM MST"
)

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(files, "templates/*.html"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(files, "templates/*.txt"))
)

// Brand is the business identity shown in both emails.
type Brand struct {
	BusinessName string
	Website      string
	ContactPhone string
	Location     *time.Location
}

// Part is one rendered email.
type Part struct {
	Subject string
	HTML    string
	Text    string
}

// Rendered holds both emails for a submission.
type Rendered struct {
	Business Part
	Client   Part
}

// view is the template model. Every optional field is already substituted.
type view struct {
	Subject         string
	IsService       bool
	Priority        bool
	Name            string
	Email           string
	Phone           string
	Address         string
	ServiceType     string
	Urgency         string
	PreferredDate   string
	PreferredTime   string
	DiscountClaimed bool
	DealAmount      string
	Topic           string
	Message         string
	SubmittedAt     string
	BusinessName    string
	Website         string
	ContactPhone    string
}

// Render produces both emails. It never fails on missing optional fields.
func Render(sub domain.Submission, at time.Time, brand Brand) (Rendered, error) {
	v := newView(sub, at, brand)

	business := v
	business.Subject = BusinessSubject(sub)
	client := v
	client.Subject = ClientSubject(sub, brand)

	bPart, err := renderPart("business", business)
	if err != nil {
		return Rendered{}, err
	}
	cPart, err := renderPart("client", client)
	if err != nil {
		return Rendered{}, err
	}
	return Rendered{Business: bPart, Client: cPart}, nil
}

// BusinessSubject is the subject line of the business notification.
func BusinessSubject(sub domain.Submission) string {
	if sub.Kind == domain.KindSupport {
		return fmt.Sprintf("Support Request: %s - %s", orDefault(sub.Subject, NoSubject), sub.Name)
	}
	subject := fmt.Sprintf("New Service Request: %s - %s", orDefault(sub.ServiceType, defaultServiceType), sub.Name)
	if sub.Urgency.IsPriority() {
		subject = "[URGENT] " + subject
	}
	return subject
}

// ClientSubject is the subject line of the confirmation sent to the submitter.
func ClientSubject(sub domain.Submission, brand Brand) string {
	if sub.Kind == domain.KindSupport {
		return "We received your support request - " + brand.BusinessName
	}
	return "We received your request - " + brand.BusinessName
}

func newView(sub domain.Submission, at time.Time, brand Brand) view {
	loc := brand.Location
	if loc == nil {
		loc = time.UTC
	}
	address := NotProvided
	if !sub.Address.IsZero() {
		address = sub.Address.String()
	}
	deal := "Yes"
	if sub.DealAmount != "" {
		deal = sub.DealAmount
	}
	return view{
		IsService:       sub.Kind != domain.KindSupport,
		Priority:        sub.Urgency.IsPriority(),
		Name:            sub.Name,
		Email:           sub.Email,
		Phone:           orDefault(sub.Phone, NotProvided),
		Address:         address,
		ServiceType:     orDefault(sub.ServiceType, NotProvided),
		Urgency:         orDefault(string(sub.Urgency), defaultUrgency),
		PreferredDate:   orDefault(sub.PreferredDate, Flexible),
		PreferredTime:   orDefault(sub.PreferredTime, Flexible),
		DiscountClaimed: sub.DiscountClaimed,
		DealAmount:      deal,
		Topic:           orDefault(sub.Subject, NoSubject),
		Message:         sub.Message,
		SubmittedAt:     at.In(loc).Format(timestampLayout),
		BusinessName:    brand.BusinessName,
		Website:         brand.Website,
		ContactPhone:    brand.ContactPhone,
	}
}

func renderPart(name string, v view) (Part, error) {
	var html, text bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", v); err != nil {
		return Part{}, fmt.Errorf("render %s html: %w", name, err)
	}
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", v); err != nil {
		return Part{}, fmt.Errorf("render %s text: %w", name, err)
	}
	return Part{Subject: v.Subject, HTML: html.String(), Text: text.String()}, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
