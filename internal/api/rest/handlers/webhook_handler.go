package handlers

import (
	"io"
	"net/http"

	"github.com/filmeja/backend/internal/integration/stripe"
	"github.com/filmeja/backend/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SignatureVerifier проверяет подпись сырого тела вебхука.
// Реализуется клиентом Stripe.
type SignatureVerifier interface {
	VerifySignature(payload []byte, header string) error
}

// WebhookHandler обработчик вебхуков Stripe
type WebhookHandler struct {
	verifier   SignatureVerifier
	webhookSvc service.WebhookService
	log        *zap.SugaredLogger
}

// NewWebhookHandler создает новый обработчик вебхуков
func NewWebhookHandler(verifier SignatureVerifier, webhookSvc service.WebhookService, log *zap.SugaredLogger) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		webhookSvc: webhookSvc,
		log:        log,
	}
}

// HandleStripeWebhook принимает вебхук-событие Stripe.
// Тело читается сырым: подпись считается по байтам запроса.
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Errorw("Failed to read webhook body", "error", err)
		respondError(c, http.StatusBadRequest, "invalid_body", "Failed to read webhook body", nil)
		return
	}

	if err := h.verifier.VerifySignature(payload, c.GetHeader("Stripe-Signature")); err != nil {
		h.log.Warnw("Webhook signature verification failed", "error", err)
		respondError(c, http.StatusBadRequest, "invalid_signature", "Webhook signature verification failed", nil)
		return
	}

	event, err := stripe.ParseEvent(payload)
	if err != nil {
		h.log.Warnw("Failed to parse webhook event", "error", err)
		respondError(c, http.StatusBadRequest, "invalid_event", "Failed to parse webhook event", nil)
		return
	}

	if err := h.webhookSvc.ProcessEvent(c.Request.Context(), event); err != nil {
		h.log.Errorw("Failed to process webhook event", "event_id", event.ID, "type", event.Type, "error", err)
		respondError(c, http.StatusInternalServerError, "processing_failed", "Failed to process webhook event", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
