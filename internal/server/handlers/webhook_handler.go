package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/partstock/internal/domain/models"
	service "github.com/mamadbah2/partstock/internal/service/whatsapp"
	client "github.com/mamadbah2/partstock/pkg/clients/whatsapp"
	pkgerrors "github.com/mamadbah2/partstock/pkg/errors"
)

const (
	businessAccountObject = "whatsapp_business_account"
	maxWebhookBytes       = 1 << 20
)

// WebhookHandler exposes the WhatsApp command channel: Meta's verification
// handshake, inbound callbacks and manual outbound messages.
type WebhookHandler struct {
	svc    service.MessagingService
	logger *zap.Logger
}

func NewWebhookHandler(svc service.MessagingService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, logger: logger}
}

// Verify echoes hub.challenge when hub.verify_token matches.
func (h *WebhookHandler) Verify(c *gin.Context) {
	challenge, err := h.svc.VerifyWebhookToken(
		c.Query("hub.mode"),
		c.Query("hub.verify_token"),
		c.Query("hub.challenge"),
	)
	if err != nil {
		h.logger.Warn("webhook verification rejected",
			zap.String("mode", c.Query("hub.mode")),
			zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive runs the chat commands carried by a Meta callback. Once the body
// decodes, the answer is always 200: Meta redelivers on anything else and the
// stock movements of the first delivery are already applied.
func (h *WebhookHandler) Receive(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes)

	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, h.logger, err, "invalid webhook payload")
		return
	}

	if payload.Object != "" && payload.Object != businessAccountObject {
		h.logger.Debug("ignoring webhook for foreign object", zap.String("object", payload.Object))
		c.Status(http.StatusOK)
		return
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("webhook processing failed", zap.Int("entries", len(payload.Entry)), zap.Error(err))
	}
	c.Status(http.StatusOK)
}

// SendMessage pushes an operator-written message to a WhatsApp number.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err, "to and message are required")
		return
	}

	err := h.svc.SendOutbound(c.Request.Context(), req)
	switch {
	case err == nil:
		c.Status(http.StatusAccepted)
	case errors.Is(err, client.ErrInvalidRecipient):
		writeError(c, h.logger, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "recipient must contain a phone number").
			WithDetails(map[string]string{"to": "must contain digits"}))
	default:
		h.logger.Error("outbound message failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadGateway, errorEnvelope{Error: apiError{Code: "UPSTREAM_ERROR", Message: "unable to send message"}})
	}
}
