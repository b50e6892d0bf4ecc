package v1

import (
	"net/http"

	"contact-mail-proxy/internal/domain"
	"contact-mail-proxy/pkg/email"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	healthUC domain.HealthUsecase
}

func NewHealthHandler(r gin.IRoutes, healthUC domain.HealthUsecase) {
	handler := &HealthHandler{healthUC: healthUC}

	r.GET("/health", handler.Check)
	r.GET("/api/health", handler.Check)
}

// Check godoc
// @Summary      Health Check
// @Description  Reports the configured transport and rate limit store. Does not contact the mail provider.
// @Tags         health
// @Produce      json
// @Success      200  {object}  domain.HealthStatus
// @Router       /api/health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, h.healthUC.Check(c.Request.Context()))
}

type EmailJSConfigHandler struct {
	cfg email.PublicConfig
}

// NewEmailJSConfigHandler exposes the public EmailJS identifiers. The private
// key is not part of email.PublicConfig and cannot leak through here.
func NewEmailJSConfigHandler(r gin.IRoutes, cfg email.PublicConfig) {
	handler := &EmailJSConfigHandler{cfg: cfg}
	r.GET("/api/emailjs-config", handler.Get)
}

// Get godoc
// @Summary      EmailJS Public Config
// @Description  Service id, template id and public key for browser-side sends.
// @Tags         mail
// @Produce      json
// @Success      200  {object}  email.PublicConfig
// @Router       /api/emailjs-config [get]
func (h *EmailJSConfigHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.cfg)
}
