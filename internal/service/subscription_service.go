package service

import (
	"context"
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

// StripeGateway интерфейс операций Stripe, используемых сервисами.
// Реализуется internal/integration/stripe.Client; в тестах подменяется фейком.
type StripeGateway interface {
	FindCustomerByEmail(ctx context.Context, email string) (*stripe.Customer, error)
	CreateCustomer(ctx context.Context, email string, metadata map[string]string) (*stripe.Customer, error)
	CreateCheckoutSession(ctx context.Context, params stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (*stripe.BillingPortalSession, error)
	GetSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	FindSubscriptionByCustomer(ctx context.Context, customerID string) (*stripe.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
}

// SubscriptionService интерфейс сервиса жизненного цикла подписки
type SubscriptionService interface {
	// CreateCheckoutSession создает сессию оплаты и возвращает URL для редиректа
	CreateCheckoutSession(ctx context.Context, userID uuid.UUID, email string) (string, error)

	// CreatePortalSession создает сессию портала управления подпиской
	CreatePortalSession(ctx context.Context, userID uuid.UUID) (string, error)

	// Cancel отменяет подписку пользователя в Stripe и удаляет локальную запись
	Cancel(ctx context.Context, userID uuid.UUID) error

	// Status возвращает состояние подписки пользователя
	Status(ctx context.Context, userID uuid.UUID) (SubscriptionStatusResult, error)
}

// SubscriptionStatusResult результат проверки подписки
type SubscriptionStatusResult struct {
	IsPremium    bool               `json:"isPremium"`
	Subscription *domain.Subscriber `json:"subscription"`
}

// CheckoutConfig параметры создания сессий оплаты
type CheckoutConfig struct {
	PriceID         string
	SuccessURL      string
	CancelURL       string
	PortalReturnURL string
}

type subscriptionService struct {
	repo     repository.SubscriberRepository
	gateway  StripeGateway
	producer kafka.Producer
	metrics  metrics.SubscriptionMetrics
	cfg      CheckoutConfig
	log      *zap.SugaredLogger
}

// NewSubscriptionService создает новый сервис жизненного цикла подписки
func NewSubscriptionService(
	repo repository.SubscriberRepository,
	gateway StripeGateway,
	producer kafka.Producer,
	m metrics.SubscriptionMetrics,
	cfg CheckoutConfig,
	log *zap.SugaredLogger,
) SubscriptionService {
	return &subscriptionService{
		repo:     repo,
		gateway:  gateway,
		producer: producer,
		metrics:  m,
		cfg:      cfg,
		log:      log,
	}
}

// CreateCheckoutSession создает сессию оплаты подписки.
// Клиент Stripe ищется по email и создается при отсутствии; локальная запись
// подписчика переводится в статус pending до прихода вебхука.
func (s *subscriptionService) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, email string) (string, error) {
	customer, err := s.gateway.FindCustomerByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrNoCustomer) {
			return "", fmt.Errorf("failed to look up customer: %w", err)
		}
		customer, err = s.gateway.CreateCustomer(ctx, email, map[string]string{"user_id": userID.String()})
		if err != nil {
			return "", fmt.Errorf("failed to create customer: %w", err)
		}
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, stripe.CheckoutSessionParams{
		CustomerID:        customer.ID,
		PriceID:           s.cfg.PriceID,
		SuccessURL:        s.cfg.SuccessURL,
		CancelURL:         s.cfg.CancelURL,
		ClientReferenceID: userID.String(),
		Metadata:          map[string]string{"user_id": userID.String()},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create checkout session: %w", err)
	}

	sub := domain.Subscriber{
		UserID:             userID,
		Email:              email,
		StripeCustomerID:   customer.ID,
		IsPremium:          false,
		SubscriptionStatus: domain.SubscriptionStatusPending,
	}
	if err := s.repo.Upsert(ctx, sub); err != nil {
		return "", fmt.Errorf("failed to upsert subscriber: %w", err)
	}

	s.metrics.IncCheckoutSessionCreated()
	s.publish(ctx, kafka.TopicCheckoutStarted, sub)

	s.log.Infow("Checkout session created", "user_id", userID, "session_id", session.ID)
	return session.URL, nil
}

// CreatePortalSession создает сессию портала управления подпиской
func (s *subscriptionService) CreatePortalSession(ctx context.Context, userID uuid.UUID) (string, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", domain.ErrNoCustomer
		}
		return "", fmt.Errorf("failed to get subscriber: %w", err)
	}

	session, err := s.gateway.CreateBillingPortalSession(ctx, sub.StripeCustomerID, s.cfg.PortalReturnURL)
	if err != nil {
		return "", fmt.Errorf("failed to create portal session: %w", err)
	}

	return session.URL, nil
}

// Cancel отменяет подписку пользователя.
// Локальная запись удаляется только после успешной отмены в Stripe;
// при ошибке Stripe запись остается нетронутой.
func (s *subscriptionService) Cancel(ctx context.Context, userID uuid.UUID) error {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrNoSubscription
		}
		return fmt.Errorf("failed to get subscriber: %w", err)
	}

	if sub.StripeSubscriptionID == "" {
		return domain.ErrNoSubscription
	}

	if _, err := s.gateway.CancelSubscription(ctx, sub.StripeSubscriptionID); err != nil {
		return fmt.Errorf("failed to cancel stripe subscription: %w", err)
	}

	if err := s.repo.Delete(ctx, userID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to delete subscriber: %w", err)
	}

	s.metrics.IncSubscriptionCanceled()
	sub.IsPremium = false
	sub.SubscriptionStatus = domain.SubscriptionStatusCanceled
	s.publish(ctx, kafka.TopicSubscriptionCanceled, sub)

	s.log.Infow("Subscription canceled", "user_id", userID, "subscription_id", sub.StripeSubscriptionID)
	return nil
}

// Status возвращает состояние подписки пользователя.
// Отсутствие записи не является ошибкой: возвращается isPremium=false.
func (s *subscriptionService) Status(ctx context.Context, userID uuid.UUID) (SubscriptionStatusResult, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return SubscriptionStatusResult{IsPremium: false, Subscription: nil}, nil
		}
		return SubscriptionStatusResult{}, fmt.Errorf("failed to get subscriber: %w", err)
	}

	return SubscriptionStatusResult{
		IsPremium:    sub.IsPremium,
		Subscription: &sub,
	}, nil
}

// publish отправляет событие в Kafka. Ошибки публикации не прерывают
// основной поток - только логируются.
func (s *subscriptionService) publish(ctx context.Context, topic string, sub domain.Subscriber) {
	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.producer.PublishSubscriberEvent(publishCtx, topic, sub); err != nil {
		s.log.Errorw("Failed to publish subscriber event", "topic", topic, "user_id", sub.UserID, "error", err)
	}
}
