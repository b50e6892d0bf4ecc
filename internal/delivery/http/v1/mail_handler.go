package v1

import (
	"errors"
	"net/http"

	"contact-mail-proxy/internal/delivery/http/response"
	"contact-mail-proxy/internal/domain"
	"contact-mail-proxy/pkg/apperror"
	"contact-mail-proxy/pkg/security"

	"github.com/gin-gonic/gin"
)

type MailHandler struct {
	mailUC     domain.MailUsecase
	clientSide bool
}

// NewMailHandler registers the form routes (public, no auth required). Both the
// legacy root paths and the /api paths are served.
func NewMailHandler(group *gin.RouterGroup, mailUC domain.MailUsecase, clientSide bool) {
	handler := &MailHandler{
		mailUC:     mailUC,
		clientSide: clientSide,
	}

	group.POST("/send-email", handler.SendServiceRequest)
	group.POST("/api/send-email", handler.SendServiceRequest)
	group.POST("/api/prepare-email", handler.PrepareServiceRequest)
	group.POST("/support-email", handler.SendSupportRequest)
	group.POST("/api/support-email", handler.SendSupportRequest)
}

// SendServiceRequest godoc
// @Summary      Submit Service Request
// @Description  Validates the form, then emails the business and sends the submitter a confirmation. Partial delivery failure still returns 200 with success=false.
// @Tags         mail
// @Accept       json
// @Produce      json
// @Param        request  body      domain.ServiceRequest  true  "Service Request Form"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      413      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/send-email [post]
func (h *MailHandler) SendServiceRequest(c *gin.Context) {
	var req domain.ServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	outcome, err := h.mailUC.SubmitServiceRequest(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Outcome(c, *outcome)
}

// PrepareServiceRequest godoc
// @Summary      Prepare Service Request
// @Description  With client-side EmailJS enabled, validates and renders the form and returns the send parameters instead of dispatching. Otherwise behaves like /api/send-email.
// @Tags         mail
// @Accept       json
// @Produce      json
// @Param        request  body      domain.ServiceRequest  true  "Service Request Form"
// @Success      200      {object}  response.Response{data=domain.PreparedEmail}
// @Failure      400      {object}  response.Response
// @Failure      413      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Router       /api/prepare-email [post]
func (h *MailHandler) PrepareServiceRequest(c *gin.Context) {
	if !h.clientSide {
		h.SendServiceRequest(c)
		return
	}

	var req domain.ServiceRequest
	if !bindJSON(c, &req) {
		return
	}

	prepared, err := h.mailUC.PrepareServiceRequest(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Email prepared", prepared)
}

// SendSupportRequest godoc
// @Summary      Submit Support Request
// @Description  Emails the support request to the business and sends the submitter a confirmation.
// @Tags         mail
// @Accept       json
// @Produce      json
// @Param        request  body      domain.SupportRequest  true  "Support Form"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      413      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/support-email [post]
func (h *MailHandler) SendSupportRequest(c *gin.Context) {
	var req domain.SupportRequest
	if !bindJSON(c, &req) {
		return
	}

	outcome, err := h.mailUC.SubmitSupportRequest(c.Request.Context(), &req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	response.Outcome(c, *outcome)
}

// bindJSON decodes the body. An oversized body is a 413, anything else that fails
// to decode is a 400.
func bindJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		security.DefaultLogger().Log(c.Request.Context(), security.SecurityEvent{
			Event:     security.EventPayloadTooLarge,
			IP:        c.ClientIP(),
			RequestID: security.RequestIDFrom(c.Request.Context()),
			Details:   map[string]interface{}{"limit": tooLarge.Limit},
		})
		_ = c.Error(apperror.PayloadTooLarge())
		return false
	}

	_ = c.Error(apperror.BadRequest("Invalid JSON body"))
	return false
}

func abortWithError(c *gin.Context, err error) {
	if ve, ok := apperror.AsValidation(err); ok {
		_ = c.Error(apperror.Validation(ve))
		return
	}
	_ = c.Error(err)
}
