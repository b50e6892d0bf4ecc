package domain

import (
	"context"
	"strings"
	"time"
)

// ServiceRequest is the JSON body of the service-request form.
// Legacy field spellings (firstName/lastName, description, claimDeal) are accepted.
type ServiceRequest struct {
	Name            string     `json:"name"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Address         string     `json:"address"`
	City            string     `json:"city"`
	State           string     `json:"state"`
	ZipCode         string     `json:"zipCode"`
	Message         string     `json:"message"`
	Description     string     `json:"description"`
	ServiceType     string     `json:"serviceType"`
	Urgency         string     `json:"urgency"`
	PreferredDate   string     `json:"preferredDate"`
	PreferredTime   string     `json:"preferredTime"`
	DiscountClaimed FlexBool   `json:"discount_claimed"`
	ClaimDeal       FlexBool   `json:"claimDeal"`
	DealAmount      FlexString `json:"dealAmount"`
	Subject         string     `json:"subject"`
}

// FullName prefers name and falls back to firstName + lastName.
func (r *ServiceRequest) FullName() string {
	if strings.TrimSpace(r.Name) != "" {
		return r.Name
	}
	return strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
}

// Body prefers message and falls back to description.
func (r *ServiceRequest) Body() string {
	if strings.TrimSpace(r.Message) != "" {
		return r.Message
	}
	return r.Description
}

// SupportRequest is the JSON body of the support form.
type SupportRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type SubmissionKind string

const (
	KindService SubmissionKind = "service"
	KindSupport SubmissionKind = "support"
)

type Urgency string

const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
	UrgencyUrgent Urgency = "Urgent"
)

// ParseUrgency maps case-insensitive input onto the enum; unknown values are returned as-is
// so validation can reject them.
func ParseUrgency(s string) Urgency {
	for _, u := range []Urgency{UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyUrgent} {
		if strings.EqualFold(s, string(u)) {
			return u
		}
	}
	return Urgency(s)
}

// IsPriority reports whether the business notification should be flagged.
func (u Urgency) IsPriority() bool {
	return u == UrgencyHigh || u == UrgencyUrgent
}

type Address struct {
	Street  string `json:"street" validate:"omitempty,max=200"`
	City    string `json:"city" validate:"omitempty,max=100"`
	State   string `json:"state" validate:"omitempty,max=100"`
	ZipCode string `json:"zipCode" validate:"omitempty,valid_zip"`
}

func (a Address) IsZero() bool {
	return a.Street == "" && a.City == "" && a.State == "" && a.ZipCode == ""
}

// String formats the address on one line, skipping empty parts.
func (a Address) String() string {
	var parts []string
	if a.Street != "" {
		parts = append(parts, a.Street)
	}
	if a.City != "" {
		parts = append(parts, a.City)
	}
	region := strings.TrimSpace(a.State + " " + a.ZipCode)
	if region != "" {
		parts = append(parts, region)
	}
	return strings.Join(parts, ", ")
}

// Submission is one sanitized form payload. It lives for a single request.
type Submission struct {
	Kind            SubmissionKind `json:"kind"`
	Name            string         `json:"name" validate:"required,min=2,max=100,valid_name"`
	Email           string         `json:"email" validate:"required,max=254,email"`
	Phone           string         `json:"phone" validate:"omitempty,max=20,valid_phone"`
	Address         Address        `json:"address"`
	Message         string         `json:"message" validate:"required,min=2,max=1000"`
	Subject         string         `json:"subject" validate:"omitempty,max=150"`
	ServiceType     string         `json:"serviceType" validate:"omitempty,max=100"`
	Urgency         Urgency        `json:"urgency" validate:"omitempty,oneof=Low Medium High Urgent"`
	PreferredDate   string         `json:"preferredDate" validate:"omitempty,valid_date"`
	PreferredTime   string         `json:"preferredTime" validate:"omitempty,max=50,valid_time"`
	DiscountClaimed bool           `json:"discountClaimed"`
	DealAmount      string         `json:"dealAmount" validate:"omitempty,max=20,valid_amount"`
}

type Leg string

const (
	LegBusiness Leg = "business"
	LegClient   Leg = "client"
)

// DispatchResult is the outcome of one send. ErrorID is an opaque correlation
// id; provider error text never goes here.
type DispatchResult struct {
	Leg       Leg    `json:"leg"`
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	ErrorID   string `json:"errorId,omitempty"`
}

// RequestOutcome combines the business and client sends.
type RequestOutcome struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	ErrorIDs []string         `json:"errorIds,omitempty"`
	Results  []DispatchResult `json:"-"`
}

// PreparedEmail carries template parameters for a browser-side provider send.
type PreparedEmail struct {
	ServiceID      string            `json:"serviceId"`
	TemplateID     string            `json:"templateId"`
	PublicKey      string            `json:"publicKey"`
	TemplateParams map[string]string `json:"templateParams"`
}

// MailUsecase runs the validate, render and dispatch pipeline.
type MailUsecase interface {
	SubmitServiceRequest(ctx context.Context, req *ServiceRequest) (*RequestOutcome, error)
	SubmitSupportRequest(ctx context.Context, req *SupportRequest) (*RequestOutcome, error)
	PrepareServiceRequest(ctx context.Context, req *ServiceRequest) (*PreparedEmail, error)
}

// HealthStatus is returned by GET /api/health.
type HealthStatus struct {
	Status         string    `json:"status"`
	Transport      string    `json:"transport"`
	TransportReady bool      `json:"transportReady"`
	RateLimitStore string    `json:"rateLimitStore"`
	StoreReady     bool      `json:"rateLimitStoreReady"`
	Time           time.Time `json:"time"`
}

type HealthUsecase interface {
	Check(ctx context.Context) HealthStatus
}
