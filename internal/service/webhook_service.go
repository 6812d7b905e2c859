package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/filmeja/backend/internal/domain"
	"github.com/filmeja/backend/internal/integration/stripe"
	"github.com/filmeja/backend/internal/kafka"
	"github.com/filmeja/backend/internal/metrics"
	"github.com/filmeja/backend/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WebhookService интерфейс сервиса сверки состояния подписки по вебхукам
type WebhookService interface {
	// ProcessEvent применяет вебхук-событие Stripe к локальной записи подписчика
	ProcessEvent(ctx context.Context, event stripe.Event) error
}

type webhookService struct {
	repo     repository.SubscriberRepository
	gateway  StripeGateway
	producer kafka.Producer
	metrics  metrics.SubscriptionMetrics
	log      *zap.SugaredLogger
}

// NewWebhookService создает новый сервис обработки вебхуков
func NewWebhookService(
	repo repository.SubscriberRepository,
	gateway StripeGateway,
	producer kafka.Producer,
	m metrics.SubscriptionMetrics,
	log *zap.SugaredLogger,
) WebhookService {
	return &webhookService{
		repo:     repo,
		gateway:  gateway,
		producer: producer,
		metrics:  m,
		log:      log,
	}
}

// ProcessEvent применяет вебхук-событие к записи подписчика.
// Повторная доставка одного и того же события идемпотентна: каждый обработчик
// полностью перезаписывает поля записи, а защита по времени события не дает
// устаревшим событиям откатить более новое состояние.
func (s *webhookService) ProcessEvent(ctx context.Context, event stripe.Event) error {
	s.log.Infow("Processing webhook event", "event_id", event.ID, "type", event.Type)

	var err error
	switch event.Type {
	case stripe.EventCheckoutSessionCompleted:
		err = s.handleCheckoutCompleted(ctx, event)
	case stripe.EventSubscriptionUpdated:
		err = s.handleSubscriptionUpdated(ctx, event)
	case stripe.EventSubscriptionDeleted:
		err = s.handleSubscriptionDeleted(ctx, event)
	default:
		s.log.Debugw("Ignored webhook event type", "type", event.Type)
		s.metrics.IncWebhookEvent(event.Type, "ignored")
		return nil
	}

	if err != nil {
		s.metrics.IncWebhookEvent(event.Type, "error")
		return err
	}

	s.metrics.IncWebhookEvent(event.Type, "processed")
	return nil
}

// handleCheckoutCompleted обрабатывает завершение сессии оплаты.
// Детали подписки запрашиваются у Stripe по ID подписки из сессии.
func (s *webhookService) handleCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Object, &session); err != nil {
		return fmt.Errorf("failed to decode checkout session: %w", err)
	}

	userID, err := sessionUserID(session)
	if err != nil {
		return err
	}

	if session.Subscription == "" {
		return fmt.Errorf("checkout session %s has no subscription", session.ID)
	}

	subscription, err := s.gateway.GetSubscription(ctx, session.Subscription)
	if err != nil {
		return fmt.Errorf("failed to get subscription %s: %w", session.Subscription, err)
	}

	sub := domain.Subscriber{
		UserID:               userID,
		StripeCustomerID:     session.Customer,
		StripeSubscriptionID: subscription.ID,
		IsPremium:            domain.SubscriptionStatus(subscription.Status).Premium(),
		SubscriptionStatus:   domain.SubscriptionStatus(subscription.Status),
		CurrentPeriodEnd:     periodEnd(subscription.CurrentPeriodEnd),
	}

	// Email в событии не приходит - сохраняем email существующей записи
	if existing, err := s.repo.GetByUserID(ctx, userID); err == nil {
		sub.Email = existing.Email
	}

	applied, err := s.repo.UpsertIfNewer(ctx, sub, event.CreatedAt())
	if err != nil {
		return fmt.Errorf("failed to upsert subscriber: %w", err)
	}
	if !applied {
		s.log.Warnw("Skipped stale checkout event", "event_id", event.ID, "user_id", userID)
		return nil
	}

	if sub.IsPremium {
		s.publish(ctx, kafka.TopicSubscriptionActivated, sub)
	}

	s.log.Infow("Checkout completed",
		"user_id", userID, "subscription_id", subscription.ID, "status", subscription.Status)
	return nil
}

// handleSubscriptionUpdated обрабатывает изменение подписки.
// Статус Stripe зеркалируется как есть; is_premium выводится из статуса.
func (s *webhookService) handleSubscriptionUpdated(ctx context.Context, event stripe.Event) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Object, &subscription); err != nil {
		return fmt.Errorf("failed to decode subscription: %w", err)
	}

	existing, err := s.repo.GetByCustomerID(ctx, subscription.Customer)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Клиент нам неизвестен - сверять нечего
			s.log.Warnw("Webhook for unknown customer", "customer_id", subscription.Customer, "event_id", event.ID)
			return nil
		}
		return fmt.Errorf("failed to get subscriber: %w", err)
	}

	status := domain.SubscriptionStatus(subscription.Status)
	sub := existing
	sub.StripeSubscriptionID = subscription.ID
	sub.IsPremium = status.Premium()
	sub.SubscriptionStatus = status
	sub.CurrentPeriodEnd = periodEnd(subscription.CurrentPeriodEnd)

	applied, err := s.repo.UpsertIfNewer(ctx, sub, event.CreatedAt())
	if err != nil {
		return fmt.Errorf("failed to upsert subscriber: %w", err)
	}
	if !applied {
		s.log.Warnw("Skipped stale subscription update", "event_id", event.ID, "user_id", sub.UserID)
		return nil
	}

	if sub.IsPremium && !existing.IsPremium {
		s.publish(ctx, kafka.TopicSubscriptionActivated, sub)
	}

	s.log.Infow("Subscription updated", "user_id", sub.UserID, "status", status, "is_premium", sub.IsPremium)
	return nil
}

// handleSubscriptionDeleted обрабатывает удаление подписки
func (s *webhookService) handleSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var subscription stripe.Subscription
	if err := json.Unmarshal(event.Data.Object, &subscription); err != nil {
		return fmt.Errorf("failed to decode subscription: %w", err)
	}

	existing, err := s.repo.GetByCustomerID(ctx, subscription.Customer)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warnw("Webhook for unknown customer", "customer_id", subscription.Customer, "event_id", event.ID)
			return nil
		}
		return fmt.Errorf("failed to get subscriber: %w", err)
	}

	sub := existing
	sub.IsPremium = false
	sub.SubscriptionStatus = domain.SubscriptionStatusCanceled
	sub.CurrentPeriodEnd = periodEnd(subscription.CurrentPeriodEnd)

	applied, err := s.repo.UpsertIfNewer(ctx, sub, event.CreatedAt())
	if err != nil {
		return fmt.Errorf("failed to upsert subscriber: %w", err)
	}
	if !applied {
		s.log.Warnw("Skipped stale subscription deletion", "event_id", event.ID, "user_id", sub.UserID)
		return nil
	}

	s.publish(ctx, kafka.TopicSubscriptionCanceled, sub)

	s.log.Infow("Subscription deleted", "user_id", sub.UserID)
	return nil
}

// publish отправляет событие в Kafka, не прерывая обработку вебхука при ошибке
func (s *webhookService) publish(ctx context.Context, topic string, sub domain.Subscriber) {
	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.producer.PublishSubscriberEvent(publishCtx, topic, sub); err != nil {
		s.log.Errorw("Failed to publish subscriber event", "topic", topic, "user_id", sub.UserID, "error", err)
	}
}

// sessionUserID извлекает ID пользователя из сессии оплаты.
// Основной источник - client_reference_id, запасной - metadata[user_id].
func sessionUserID(session stripe.CheckoutSession) (uuid.UUID, error) {
	ref := session.ClientReferenceID
	if ref == "" {
		ref = session.Metadata["user_id"]
	}
	if ref == "" {
		return uuid.Nil, fmt.Errorf("checkout session %s has no user reference", session.ID)
	}

	userID, err := uuid.Parse(ref)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user reference in session %s: %w", session.ID, err)
	}
	return userID, nil
}

// periodEnd преобразует unix-время окончания периода в *time.Time
func periodEnd(unix int64) *time.Time {
	if unix == 0 {
		return nil
	}
	t := time.Unix(unix, 0)
	return &t
}
