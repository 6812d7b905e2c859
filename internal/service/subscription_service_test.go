package service

import (
	"context"
	"errors"
	"testing"

	"github.com/filmeja/backend/internal/domain"
	"github.com/filmeja/backend/internal/kafka"
	"github.com/filmeja/backend/internal/repository"
	"github.com/filmeja/backend/pkg/logger"
	"github.com/google/uuid"
)

func newSubscriptionFixture(t *testing.T) (SubscriptionService, *repository.InMemorySubscriberRepository, *fakeGateway) {
	t.Helper()
	repo := repository.NewInMemorySubscriberRepository(logger.NewNop())
	gateway := newFakeGateway()
	svc := NewSubscriptionService(repo, gateway, kafka.NopProducer{}, newTestMetrics(), CheckoutConfig{
		PriceID:         "price_test",
		SuccessURL:      "https://filmeja.com.br/planos/sucesso",
		CancelURL:       "https://filmeja.com.br/planos",
		PortalReturnURL: "https://filmeja.com.br/conta",
	}, logger.NewNop())
	return svc, repo, gateway
}

func TestCreateCheckoutSessionCreatesPendingRow(t *testing.T) {
	svc, repo, gateway := newSubscriptionFixture(t)
	userID := uuid.New()

	url, err := svc.CreateCheckoutSession(context.Background(), userID, "user@example.com")
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	if url != gateway.checkoutURL {
		t.Errorf("url = %q, want %q", url, gateway.checkoutURL)
	}

	sub := mustGet(t, repo, userID)
	if sub.SubscriptionStatus != domain.SubscriptionStatusPending {
		t.Errorf("status = %q, want %q", sub.SubscriptionStatus, domain.SubscriptionStatusPending)
	}
	if sub.IsPremium {
		t.Error("pending subscriber must not be premium")
	}
	if sub.Email != "user@example.com" {
		t.Errorf("email = %q, want user@example.com", sub.Email)
	}
	if sub.StripeCustomerID == "" {
		t.Error("expected stripe customer ID to be recorded")
	}
}

func TestCreateCheckoutSessionReusesExistingCustomer(t *testing.T) {
	svc, _, gateway := newSubscriptionFixture(t)
	userID := uuid.New()

	if _, err := svc.CreateCheckoutSession(context.Background(), userID, "user@example.com"); err != nil {
		t.Fatalf("first CreateCheckoutSession: %v", err)
	}
	if _, err := svc.CreateCheckoutSession(context.Background(), userID, "user@example.com"); err != nil {
		t.Fatalf("second CreateCheckoutSession: %v", err)
	}

	if len(gateway.createdCustomers) != 1 {
		t.Errorf("created %d customers, want 1", len(gateway.createdCustomers))
	}
}

func TestCancelDeletesLocalRow(t *testing.T) {
	svc, repo, gateway := newSubscriptionFixture(t)
	userID := uuid.New()

	repo.Upsert(context.Background(), domain.Subscriber{
		UserID:               userID,
		StripeCustomerID:     "cus_1",
		StripeSubscriptionID: "sub_1",
		IsPremium:            true,
		SubscriptionStatus:   domain.SubscriptionStatusActive,
	})

	if err := svc.Cancel(context.Background(), userID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if len(gateway.canceledIDs) != 1 || gateway.canceledIDs[0] != "sub_1" {
		t.Errorf("canceled IDs = %v, want [sub_1]", gateway.canceledIDs)
	}
	if _, err := repo.GetByUserID(context.Background(), userID); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected local row to be deleted, got err=%v", err)
	}
}

func TestCancelRemoteFailureKeepsRow(t *testing.T) {
	svc, repo, gateway := newSubscriptionFixture(t)
	userID := uuid.New()
	gateway.cancelErr = domain.NewExternalServiceError("stripe", "api_error", "boom", 500, nil)

	repo.Upsert(context.Background(), domain.Subscriber{
		UserID:               userID,
		StripeCustomerID:     "cus_1",
		StripeSubscriptionID: "sub_1",
		IsPremium:            true,
		SubscriptionStatus:   domain.SubscriptionStatusActive,
	})

	if err := svc.Cancel(context.Background(), userID); err == nil {
		t.Fatal("expected error when remote cancellation fails")
	}

	sub := mustGet(t, repo, userID)
	if !sub.IsPremium || sub.SubscriptionStatus != domain.SubscriptionStatusActive {
		t.Errorf("row changed after failed cancel: is_premium=%v status=%q", sub.IsPremium, sub.SubscriptionStatus)
	}
}

func TestCancelWithoutSubscription(t *testing.T) {
	svc, repo, _ := newSubscriptionFixture(t)

	if err := svc.Cancel(context.Background(), uuid.New()); !errors.Is(err, domain.ErrNoSubscription) {
		t.Errorf("cancel for unknown user: err = %v, want ErrNoSubscription", err)
	}

	// Запись есть, но подписка в Stripe так и не была создана
	userID := uuid.New()
	repo.Upsert(context.Background(), domain.Subscriber{
		UserID:             userID,
		StripeCustomerID:   "cus_1",
		SubscriptionStatus: domain.SubscriptionStatusPending,
	})

	if err := svc.Cancel(context.Background(), userID); !errors.Is(err, domain.ErrNoSubscription) {
		t.Errorf("cancel for pending user: err = %v, want ErrNoSubscription", err)
	}
}

func TestStatusWithoutRow(t *testing.T) {
	svc, _, _ := newSubscriptionFixture(t)

	result, err := svc.Status(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if result.IsPremium {
		t.Error("unknown user must not be premium")
	}
	if result.Subscription != nil {
		t.Error("unknown user must have nil subscription")
	}
}

func TestStatusReturnsStoredRow(t *testing.T) {
	svc, repo, _ := newSubscriptionFixture(t)
	userID := uuid.New()

	repo.Upsert(context.Background(), domain.Subscriber{
		UserID:             userID,
		Email:              "user@example.com",
		IsPremium:          true,
		SubscriptionStatus: domain.SubscriptionStatusActive,
	})

	result, err := svc.Status(context.Background(), userID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !result.IsPremium {
		t.Error("expected premium status")
	}
	if result.Subscription == nil || result.Subscription.UserID != userID {
		t.Errorf("subscription = %+v, want row for %s", result.Subscription, userID)
	}
}

func TestCreatePortalSessionWithoutCustomer(t *testing.T) {
	svc, _, _ := newSubscriptionFixture(t)

	if _, err := svc.CreatePortalSession(context.Background(), uuid.New()); !errors.Is(err, domain.ErrNoCustomer) {
		t.Errorf("portal for unknown user: err = %v, want ErrNoCustomer", err)
	}
}

func TestCreatePortalSessionReturnsURL(t *testing.T) {
	svc, repo, gateway := newSubscriptionFixture(t)
	userID := uuid.New()

	repo.Upsert(context.Background(), domain.Subscriber{
		UserID:           userID,
		StripeCustomerID: "cus_1",
	})

	url, err := svc.CreatePortalSession(context.Background(), userID)
	if err != nil {
		t.Fatalf("CreatePortalSession: %v", err)
	}
	if url != gateway.portalURL {
		t.Errorf("url = %q, want %q", url, gateway.portalURL)
	}
}
