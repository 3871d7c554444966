package api

import (
	"net/http"

	"booking-engine/internal/handler/httperr"
	"booking-engine/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

const (
	HeaderPaystackSignature = "x-paystack-signature"
	HeaderPaystackEventID   = "X-Paystack-Event-Id"
)

type WebhookHandler struct {
	cmds commands.WebhookCommands
}

func NewWebhookHandler(cmds commands.WebhookCommands) *WebhookHandler {
	return &WebhookHandler{cmds: cmds}
}

// @Summary Payment provider webhook
// @Description Authenticates the HMAC-SHA512 signature over the raw body and applies the event once.
// @Description Redeliveries answer with the stored response.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param x-paystack-signature header string true "Hex HMAC-SHA512 of the body"
// @Param X-Paystack-Event-Id header string false "Provider event id"
// @Success 200 {object} commands.WebhookResult
// @Failure 401 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Failure 500 {object} httperr.Response
// @Router /webhooks/payment [post]
func (h *WebhookHandler) Payment(c *gin.Context) {
	// signature covers the exact bytes, so the body is never re-encoded
	body, err := c.GetRawData()
	if err != nil {
		httperr.AbortWithCode(c, http.StatusBadRequest, "validation_failed", err, "Unreadable body", nil)
		return
	}

	result, err := h.cmds.Handle(c.Request.Context(), commands.WebhookInput{
		Body:      body,
		Signature: c.GetHeader(HeaderPaystackSignature),
		EventID:   c.GetHeader(HeaderPaystackEventID),
	})
	if err != nil {
		abortWithUseCaseError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
