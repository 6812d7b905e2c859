package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/filmeja/backend/internal/integration/stripe"
	"github.com/filmeja/backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

const webhookTestSecret = "whsec_test"

func webhookRouter(svc *stubWebhookService) *gin.Engine {
	client := stripe.NewClient(stripe.Config{
		SecretKey:     "sk_test",
		WebhookSecret: webhookTestSecret,
	}, logger.NewNop())

	handler := NewWebhookHandler(client, svc, logger.NewNop())

	router := gin.New()
	router.POST("/functions/stripe-webhook", handler.HandleStripeWebhook)
	return router
}

func TestHandleStripeWebhookAcceptsSignedEvent(t *testing.T) {
	svc := &stubWebhookService{}
	router := webhookRouter(svc)

	payload := `{"id":"evt_1","type":"customer.subscription.deleted","created":` +
		`1700000000,"data":{"object":{"id":"sub_1","customer":"cus_1","status":"canceled"}}}`
	signature := stripe.SignPayload([]byte(payload), webhookTestSecret, time.Now())

	rec := doRequest(router, http.MethodPost, "/functions/stripe-webhook", payload, map[string]string{
		"Stripe-Signature": signature,
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"received":true`) {
		t.Errorf("body = %s, want received acknowledgement", rec.Body.String())
	}
	if len(svc.events) != 1 || svc.events[0].ID != "evt_1" {
		t.Errorf("processed events = %v, want evt_1", svc.events)
	}
}

func TestHandleStripeWebhookRejectsBadSignature(t *testing.T) {
	svc := &stubWebhookService{}
	router := webhookRouter(svc)

	payload := `{"id":"evt_1","type":"customer.subscription.deleted","created":1700000000,"data":{"object":{}}}`
	signature := stripe.SignPayload([]byte(payload), "whsec_wrong", time.Now())

	rec := doRequest(router, http.MethodPost, "/functions/stripe-webhook", payload, map[string]string{
		"Stripe-Signature": signature,
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if len(svc.events) != 0 {
		t.Error("event with bad signature must not reach the service")
	}
}

func TestHandleStripeWebhookRejectsMissingSignature(t *testing.T) {
	svc := &stubWebhookService{}
	router := webhookRouter(svc)

	rec := doRequest(router, http.MethodPost, "/functions/stripe-webhook", `{"type":"x"}`, nil)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleStripeWebhookProcessingFailure(t *testing.T) {
	svc := &stubWebhookService{err: errors.New("db down")}
	router := webhookRouter(svc)

	payload := `{"id":"evt_1","type":"customer.subscription.updated","created":1700000000,"data":{"object":{}}}`
	signature := stripe.SignPayload([]byte(payload), webhookTestSecret, time.Now())

	rec := doRequest(router, http.MethodPost, "/functions/stripe-webhook", payload, map[string]string{
		"Stripe-Signature": signature,
	})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 so Stripe retries delivery", rec.Code)
	}
}
