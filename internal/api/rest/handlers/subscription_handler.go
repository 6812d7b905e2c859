package handlers

import (
	"errors"
	"net/http"

	"github.com/filmeja/backend/internal/api/rest/middleware"
	"github.com/filmeja/backend/internal/domain"
	"github.com/filmeja/backend/internal/service"
	"github.com/filmeja/backend/pkg/req"
	"github.com/filmeja/backend/pkg/res"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubscriptionHandler обработчик endpoint-ов жизненного цикла подписки
type SubscriptionHandler struct {
	subscriptionSvc service.SubscriptionService
	log             *zap.SugaredLogger
}

// NewSubscriptionHandler создает новый обработчик подписок
func NewSubscriptionHandler(subscriptionSvc service.SubscriptionService, log *zap.SugaredLogger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionSvc: subscriptionSvc,
		log:             log,
	}
}

// CancelRequest тело запроса на отмену подписки
type CancelRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

// CreateCheckoutSession создает сессию оплаты и возвращает URL для редиректа
func (h *SubscriptionHandler) CreateCheckoutSession(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Missing authenticated user", nil)
		return
	}
	email, ok := middleware.UserEmail(c)
	if !ok || email == "" {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Token has no email claim", nil)
		return
	}

	url, err := h.subscriptionSvc.CreateCheckoutSession(c.Request.Context(), userID, email)
	if err != nil {
		h.respondServiceError(c, err, "Failed to create checkout session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Cancel отменяет подписку пользователя
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	body, err := req.HandleBody[CancelRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	userID, err := uuid.Parse(body.UserID)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_user_id", "Invalid userId format", nil)
		return
	}

	if err := h.subscriptionSvc.Cancel(c.Request.Context(), userID); err != nil {
		if errors.Is(err, domain.ErrNoSubscription) {
			respondError(c, http.StatusBadRequest, "no_subscription", "No subscription found for this user", nil)
			return
		}
		h.respondServiceError(c, err, "Failed to cancel subscription")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Subscription canceled successfully",
		"code":    "subscription_canceled",
	})
}

// Status возвращает состояние подписки аутентифицированного пользователя
func (h *SubscriptionHandler) Status(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Missing authenticated user", nil)
		return
	}

	result, err := h.subscriptionSvc.Status(c.Request.Context(), userID)
	if err != nil {
		h.respondServiceError(c, err, "Failed to check subscription")
		return
	}

	c.JSON(http.StatusOK, result)
}

// CustomerPortal создает сессию портала управления подпиской
func (h *SubscriptionHandler) CustomerPortal(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "unauthorized", "Missing authenticated user", nil)
		return
	}

	url, err := h.subscriptionSvc.CreatePortalSession(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNoCustomer) {
			respondError(c, http.StatusBadRequest, "no_customer", "No billing profile found for this user", nil)
			return
		}
		h.respondServiceError(c, err, "Failed to create portal session")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// respondServiceError переводит ошибку сервиса в HTTP-ответ.
// Ошибки Stripe отдаются с кодом и сообщением процессора, остальное - как 500.
func (h *SubscriptionHandler) respondServiceError(c *gin.Context, err error, message string) {
	var extErr *domain.ExternalServiceError
	if errors.As(err, &extErr) {
		h.log.Errorw("Upstream service error", "service", extErr.Service, "code", extErr.Code, "error", err)
		respondError(c, http.StatusInternalServerError, "processor_error", message, extErr.Message)
		return
	}

	h.log.Errorw(message, "error", err)
	respondError(c, http.StatusInternalServerError, "internal_error", message, nil)
}

// respondError отправляет структурированный JSON-ответ ошибки
func respondError(c *gin.Context, status int, code, message string, details any) {
	res.JsonResponse(c.Writer, res.ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}, status)
	c.Abort()
}
