package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/filmeja/backend/internal/domain"
	"github.com/filmeja/backend/internal/metrics"
	"github.com/filmeja/backend/internal/repository"
	"go.uber.org/zap"
)

// Reconciler периодически сверяет записи, застрявшие в статусе pending,
// с состоянием подписки в Stripe. Вебхук может потеряться - без такой
// сверки запись осталась бы в pending навсегда.
type Reconciler struct {
	repo       repository.SubscriberRepository
	gateway    StripeGateway
	metrics    metrics.SubscriptionMetrics
	interval   time.Duration
	pendingAge time.Duration
	log        *zap.SugaredLogger
}

// NewReconciler создает новый компонент фоновой сверки
func NewReconciler(
	repo repository.SubscriberRepository,
	gateway StripeGateway,
	m metrics.SubscriptionMetrics,
	interval, pendingAge time.Duration,
	log *zap.SugaredLogger,
) *Reconciler {
	return &Reconciler{
		repo:       repo,
		gateway:    gateway,
		metrics:    m,
		interval:   interval,
		pendingAge: pendingAge,
		log:        log,
	}
}

// Run запускает цикл сверки до отмены контекста
func (r *Reconciler) Run(ctx context.Context) {
	r.log.Infow("Reconciliation sweep started", "interval", r.interval, "pending_age", r.pendingAge)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Infow("Reconciliation sweep stopped")
			return
		case <-ticker.C:
			repaired, err := r.SweepOnce(ctx)
			if err != nil {
				r.log.Errorw("Reconciliation sweep failed", "error", err)
				continue
			}
			if repaired > 0 {
				r.log.Infow("Reconciliation sweep repaired subscribers", "count", repaired)
			}
		}
	}
}

// SweepOnce выполняет один проход сверки и возвращает число исправленных записей
func (r *Reconciler) SweepOnce(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-r.pendingAge)

	stale, err := r.repo.ListStalePending(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale subscribers: %w", err)
	}

	repaired := 0
	for _, sub := range stale {
		if err := r.reconcile(ctx, sub); err != nil {
			r.log.Warnw("Failed to reconcile subscriber", "user_id", sub.UserID, "error", err)
			continue
		}
		repaired++
	}

	r.metrics.ObserveSweep(len(stale), repaired)
	return repaired, nil
}

// reconcile подтягивает фактическое состояние подписки из Stripe.
// Stripe здесь - источник истины, поэтому запись перезаписывается
// временем чтения.
func (r *Reconciler) reconcile(ctx context.Context, sub domain.Subscriber) error {
	var (
		remote *stripeSubscriptionState
		err    error
	)

	if sub.StripeSubscriptionID != "" {
		remote, err = r.lookupByID(ctx, sub.StripeSubscriptionID)
	} else {
		remote, err = r.lookupByCustomer(ctx, sub.StripeCustomerID)
	}
	if err != nil {
		if errors.Is(err, domain.ErrNoSubscription) {
			// Оплата так и не состоялась - запись остается pending
			r.log.Debugw("No remote subscription for pending subscriber", "user_id", sub.UserID)
			return nil
		}
		return err
	}

	status := domain.SubscriptionStatus(remote.status)
	sub.StripeSubscriptionID = remote.id
	sub.IsPremium = status.Premium()
	sub.SubscriptionStatus = status
	sub.CurrentPeriodEnd = periodEnd(remote.currentPeriodEnd)

	applied, err := r.repo.UpsertIfNewer(ctx, sub, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert subscriber: %w", err)
	}
	if !applied {
		return nil
	}

	r.log.Infow("Repaired stale subscriber", "user_id", sub.UserID, "status", status)
	return nil
}

// stripeSubscriptionState срез полей подписки Stripe, нужных для сверки
type stripeSubscriptionState struct {
	id               string
	status           string
	currentPeriodEnd int64
}

func (r *Reconciler) lookupByID(ctx context.Context, subscriptionID string) (*stripeSubscriptionState, error) {
	subscription, err := r.gateway.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription %s: %w", subscriptionID, err)
	}
	return &stripeSubscriptionState{
		id:               subscription.ID,
		status:           subscription.Status,
		currentPeriodEnd: subscription.CurrentPeriodEnd,
	}, nil
}

func (r *Reconciler) lookupByCustomer(ctx context.Context, customerID string) (*stripeSubscriptionState, error) {
	subscription, err := r.gateway.FindSubscriptionByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &stripeSubscriptionState{
		id:               subscription.ID,
		status:           subscription.Status,
		currentPeriodEnd: subscription.CurrentPeriodEnd,
	}, nil
}
