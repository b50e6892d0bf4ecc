package v1

import (
	"contact-mail-proxy/config"
	"contact-mail-proxy/internal/delivery/http/middleware"
	"contact-mail-proxy/internal/domain"
	"contact-mail-proxy/pkg/email"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

type RouterDeps struct {
	MailUC   domain.MailUsecase
	HealthUC domain.HealthUsecase
	// EmailJS is set only when the emailjs transport is configured
	EmailJS *email.PublicConfig
	Config  *config.Config
	Logger  *zap.SugaredLogger
	// Rate limit stores; Fallback takes over when Store errors
	RateLimitStore    middleware.RateLimitStore
	RateLimitFallback middleware.RateLimitStore
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	log := deps.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Warnw("Invalid TRUSTED_PROXIES, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}

	// Global Middlewares
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Recovery(log))
	r.Use(middleware.SecurityHeadersMiddleware(cfg.IsProduction()))
	r.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins, cfg.IsProduction()))
	r.Use(middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Limit:     cfg.RateLimitGlobalThreshold,
		Window:    cfg.RateLimitWindow(),
		KeyPrefix: "rl:global:",
		Store:     deps.RateLimitStore,
		Fallback:  deps.RateLimitFallback,
	}))
	r.Use(middleware.ErrorHandler(log))

	NewHealthHandler(r, deps.HealthUC)

	// Public routes
	mail := r.Group("")
	mail.Use(middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Limit:     cfg.RateLimitMailThreshold,
		Window:    cfg.RateLimitWindow(),
		KeyPrefix: "rl:mail:",
		Store:     deps.RateLimitStore,
		Fallback:  deps.RateLimitFallback,
	}))
	NewMailHandler(mail, deps.MailUC, deps.EmailJS != nil && cfg.EmailJSClientSide)

	if deps.EmailJS != nil {
		NewEmailJSConfigHandler(r, *deps.EmailJS)
	}

	// Swagger
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
