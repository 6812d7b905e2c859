package stripe

import (
	"errors"
	"testing"
	"time"

	"github.com/filmeja/backend/internal/domain"
)

const testWebhookSecret = "whsec_test_secret"

func TestVerifySignatureAcceptsValidHeader(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"customer.subscription.updated"}`)
	now := time.Now()
	header := SignPayload(payload, testWebhookSecret, now)

	if err := verifySignature(payload, header, testWebhookSecret, now); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestVerifySignatureRejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()
	header := SignPayload(payload, "whsec_other", now)

	err := verifySignature(payload, header, testWebhookSecret, now)
	if !errors.Is(err, domain.ErrWebhookValidationFailed) {
		t.Fatalf("err = %v, want ErrWebhookValidationFailed", err)
	}
}

func TestVerifySignatureRejectsTamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()
	header := SignPayload(payload, testWebhookSecret, now)

	tampered := []byte(`{"id":"evt_2"}`)
	if err := verifySignature(tampered, header, testWebhookSecret, now); !errors.Is(err, domain.ErrWebhookValidationFailed) {
		t.Fatalf("err = %v, want ErrWebhookValidationFailed", err)
	}
}

func TestVerifySignatureRejectsOldTimestamp(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	signedAt := time.Now().Add(-10 * time.Minute)
	header := SignPayload(payload, testWebhookSecret, signedAt)

	err := verifySignature(payload, header, testWebhookSecret, time.Now())
	if !errors.Is(err, domain.ErrWebhookValidationFailed) {
		t.Fatalf("err = %v, want ErrWebhookValidationFailed", err)
	}
}

func TestVerifySignatureRejectsMissingHeader(t *testing.T) {
	err := verifySignature([]byte(`{}`), "", testWebhookSecret, time.Now())
	if !errors.Is(err, domain.ErrWebhookValidationFailed) {
		t.Fatalf("err = %v, want ErrWebhookValidationFailed", err)
	}
}

func TestVerifySignatureAcceptsAnyMatchingV1(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	now := time.Now()
	valid := SignPayload(payload, testWebhookSecret, now)

	// Stripe при ротации секрета шлет несколько v1-подписей
	header := valid + ",v1=" + "deadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeefdeadbeef"
	if err := verifySignature(payload, header, testWebhookSecret, now); err != nil {
		t.Fatalf("header with extra v1 rejected: %v", err)
	}
}

func TestParseEvent(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"created": 1700000000,
		"data": {"object": {"id": "cs_1", "subscription": "sub_1"}}
	}`)

	event, err := ParseEvent(payload)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if event.Type != EventCheckoutSessionCompleted {
		t.Errorf("type = %q, want %q", event.Type, EventCheckoutSessionCompleted)
	}
	if event.CreatedAt().Unix() != 1700000000 {
		t.Errorf("created = %d, want 1700000000", event.CreatedAt().Unix())
	}
	if len(event.Data.Object) == 0 {
		t.Error("expected raw data object to be populated")
	}
}

func TestParseEventRejectsGarbage(t *testing.T) {
	if _, err := ParseEvent([]byte(`not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := ParseEvent([]byte(`{"id":"evt_1"}`)); err == nil {
		t.Error("expected error for event without type")
	}
}
