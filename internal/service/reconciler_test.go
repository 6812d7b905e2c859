package service

import (
	"context"
	"testing"
	"time"

	"github.com/filmeja/backend/internal/domain"
	"github.com/filmeja/backend/internal/integration/stripe"
	"github.com/filmeja/backend/internal/repository"
	"github.com/filmeja/backend/pkg/logger"
	"github.com/google/uuid"
)

func newReconcilerFixture(t *testing.T) (*Reconciler, *repository.InMemorySubscriberRepository, *fakeGateway) {
	t.Helper()
	repo := repository.NewInMemorySubscriberRepository(logger.NewNop())
	gateway := newFakeGateway()
	// Нулевой возраст: любая pending-запись, созданная до прохода, считается застрявшей
	r := NewReconciler(repo, gateway, newTestMetrics(), time.Minute, 0, logger.NewNop())
	return r, repo, gateway
}

func TestSweepOnceRepairsStalePending(t *testing.T) {
	r, repo, gateway := newReconcilerFixture(t)
	userID := uuid.New()

	repo.Upsert(context.Background(), domain.Subscriber{
		UserID:             userID,
		StripeCustomerID:   "cus_1",
		SubscriptionStatus: domain.SubscriptionStatusPending,
	})
	gateway.subscriptionsByCust["cus_1"] = &stripe.Subscription{
		ID:               "sub_1",
		Customer:         "cus_1",
		Status:           "active",
		CurrentPeriodEnd: time.Now().Add(30 * 24 * time.Hour).Unix(),
	}

	repaired, err := r.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if repaired != 1 {
		t.Errorf("repaired = %d, want 1", repaired)
	}

	sub := mustGet(t, repo, userID)
	if !sub.IsPremium {
		t.Error("repaired subscriber must be premium")
	}
	if sub.SubscriptionStatus != domain.SubscriptionStatusActive {
		t.Errorf("status = %q, want %q", sub.SubscriptionStatus, domain.SubscriptionStatusActive)
	}
	if sub.StripeSubscriptionID != "sub_1" {
		t.Errorf("subscription ID = %q, want sub_1", sub.StripeSubscriptionID)
	}
}

func TestSweepOnceLeavesUnpaidPending(t *testing.T) {
	r, repo, _ := newReconcilerFixture(t)
	userID := uuid.New()

	// В Stripe подписки нет: пользователь бросил оплату
	repo.Upsert(context.Background(), domain.Subscriber{
		UserID:             userID,
		StripeCustomerID:   "cus_1",
		SubscriptionStatus: domain.SubscriptionStatusPending,
	})

	if _, err := r.SweepOnce(context.Background()); err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}

	sub := mustGet(t, repo, userID)
	if sub.SubscriptionStatus != domain.SubscriptionStatusPending {
		t.Errorf("status = %q, want pending to remain", sub.SubscriptionStatus)
	}
}

func TestSweepOnceSkipsNonPending(t *testing.T) {
	r, repo, _ := newReconcilerFixture(t)
	userID := uuid.New()

	repo.Upsert(context.Background(), domain.Subscriber{
		UserID:               userID,
		StripeCustomerID:     "cus_1",
		StripeSubscriptionID: "sub_1",
		IsPremium:            true,
		SubscriptionStatus:   domain.SubscriptionStatusActive,
	})

	repaired, err := r.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if repaired != 0 {
		t.Errorf("repaired = %d, want 0", repaired)
	}
}
