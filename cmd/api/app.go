package main

import (
	"context"
	"errors"
	"io"
	"time"

	"contact-mail-proxy/config"
	v1 "contact-mail-proxy/internal/delivery/http/v1"
	"contact-mail-proxy/internal/delivery/http/middleware"
	"contact-mail-proxy/internal/usecase"
	"contact-mail-proxy/pkg/email"
	"contact-mail-proxy/pkg/logger"
	"contact-mail-proxy/internal/mailtemplate"
	"contact-mail-proxy/pkg/redis"
	"contact-mail-proxy/pkg/security"
	"contact-mail-proxy/pkg/validation"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

// app holds the process-scoped resources built once at startup.
type app struct {
	cfg        *config.Config
	transport  email.Transport
	dispatcher *email.Dispatcher
	redis      *goredis.Client
	memory     *middleware.MemoryStore
	router     *gin.Engine
}

func brandFrom(cfg *config.Config) mailtemplate.Brand {
	return mailtemplate.Brand{
		BusinessName: cfg.BusinessName,
		Website:      cfg.BusinessSite,
		ContactPhone: cfg.BusinessPhone,
		Location:     cfg.Location(),
	}
}

// newTransport builds the configured transport and its dispatcher.
func newTransport(ctx context.Context, cfg *config.Config) (email.Transport, *email.Dispatcher, error) {
	transport, err := buildTransport(ctx, cfg, logger.L())
	if err != nil {
		return nil, nil, err
	}
	dispatcher := email.NewDispatcher(transport, cfg.MailSendTimeout,
		email.WithLogger(logger.L()),
		email.WithSecurityLogger(security.DefaultLogger()),
	)
	return transport, dispatcher, nil
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.L()

	transport, dispatcher, err := newTransport(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:        cfg,
		transport:  transport,
		dispatcher: dispatcher,
		memory:     middleware.NewMemoryStore(),
	}

	// Rate limit store: Redis when reachable, memory otherwise
	var store middleware.RateLimitStore = a.memory
	var fallback middleware.RateLimitStore
	client, err := redis.New(ctx, redis.Config{URL: cfg.RedisURL, Password: cfg.RedisPassword})
	switch {
	case err == nil:
		a.redis = client
		store = middleware.NewRedisStore(client)
		fallback = a.memory
		log.Infow("Rate limiter using Redis")
	case errors.Is(err, redis.ErrNotConfigured):
		log.Infow("Rate limiter using in-memory store")
	default:
		log.Warnw("Redis unavailable, rate limiter using in-memory store", "error", err)
	}

	var public *email.PublicConfig
	if ej, ok := transport.(*email.EmailJSTransport); ok {
		p := ej.Public()
		public = &p
	}
	mailCfg := usecase.MailConfig{
		BusinessEmail: cfg.BusinessEmail,
		Brand:         brandFrom(cfg),
	}
	if public != nil && cfg.EmailJSClientSide {
		mailCfg.ClientSide = public
	}

	validator := usecase.NewSubmissionValidator(validation.New(), security.DefaultLogger())
	mailUC := usecase.NewMailUsecase(validator, dispatcher, mailCfg)
	var healthOpts []usecase.HealthOption
	if a.redis != nil {
		client := a.redis
		healthOpts = append(healthOpts, usecase.WithStorePing(func(ctx context.Context) error {
			return redis.HealthCheck(ctx, client)
		}))
	}
	healthUC := usecase.NewHealthUsecase(transport, store.Name(), healthOpts...)

	a.router = v1.NewRouter(v1.RouterDeps{
		MailUC:            mailUC,
		HealthUC:          healthUC,
		EmailJS:           public,
		Config:            cfg,
		Logger:            log,
		RateLimitStore:    store,
		RateLimitFallback: fallback,
	})
	return a, nil
}

// start launches background work tied to ctx.
func (a *app) start(ctx context.Context) {
	a.memory.StartCleanup(ctx, time.Minute)
}

// close releases the transport and the Redis client.
func (a *app) close() {
	closeTransport(a.transport)
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// closeTransport drains pooled connections for transports that hold any.
func closeTransport(t email.Transport) {
	if closer, ok := t.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.L().Warnw("Transport close failed", "error", err)
		}
	}
}
