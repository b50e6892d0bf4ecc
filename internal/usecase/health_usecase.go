package usecase

import (
	"context"
	"time"

	"contact-mail-proxy/internal/domain"
	"contact-mail-proxy/pkg/email"
)

const storePingTimeout = 2 * time.Second

type healthUsecase struct {
	transport email.Transport
	storeName string
	storePing func(ctx context.Context) error
	now       func() time.Time
}

// HealthOption customizes the health check.
type HealthOption func(*healthUsecase)

// WithStorePing checks the shared rate limit store on every health request.
func WithStorePing(ping func(ctx context.Context) error) HealthOption {
	return func(u *healthUsecase) {
		u.storePing = ping
	}
}

// NewHealthUsecase reports the configured transport and rate limit store. It
// never dials the provider.
func NewHealthUsecase(transport email.Transport, rateLimitStore string, opts ...HealthOption) domain.HealthUsecase {
	u := &healthUsecase{
		transport: transport,
		storeName: rateLimitStore,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *healthUsecase) Check(ctx context.Context) domain.HealthStatus {
	status := domain.HealthStatus{
		Status:         "ok",
		RateLimitStore: u.storeName,
		TransportReady: true,
		StoreReady:     true,
		Time:           u.now().UTC(),
	}

	if u.storePing != nil {
		pingCtx, cancel := context.WithTimeout(ctx, storePingTimeout)
		status.StoreReady = u.storePing(pingCtx) == nil
		cancel()
	}

	if u.transport == nil {
		status.TransportReady = false
	} else {
		status.Transport = u.transport.Name()
		if rc, ok := u.transport.(email.ReadyChecker); ok {
			status.TransportReady = rc.Ready()
		}
	}

	// Requests are still served from the memory fallback when the store is down.
	if !status.TransportReady || !status.StoreReady {
		status.Status = "degraded"
	}
	return status
}
