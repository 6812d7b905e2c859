package repository

import (
	"context"
	"sync"
	"time"

	"github.com/filmeja/backend/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubscriberRepository интерфейс репозитория для работы с записями подписчиков.
type SubscriberRepository interface {
	// GetByUserID возвращает запись подписчика по ID пользователя
	GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Subscriber, error)

	// GetByCustomerID возвращает запись подписчика по ID клиента Stripe
	GetByCustomerID(ctx context.Context, customerID string) (domain.Subscriber, error)

	// Upsert создает или полностью перезаписывает запись подписчика.
	// LastEventAt существующей записи при этом сохраняется.
	Upsert(ctx context.Context, sub domain.Subscriber) error

	// UpsertIfNewer перезаписывает запись, только если eventAt не старше
	// уже примененного события. Возвращает true, если запись была применена.
	UpsertIfNewer(ctx context.Context, sub domain.Subscriber, eventAt time.Time) (bool, error)

	// Delete удаляет запись подписчика
	Delete(ctx context.Context, userID uuid.UUID) error

	// ListStalePending возвращает записи, застрявшие в статусе pending
	// дольше заданного момента времени
	ListStalePending(ctx context.Context, olderThan time.Time) ([]domain.Subscriber, error)
}

// InMemorySubscriberRepository реализация репозитория подписчиков в памяти.
// Используется в тестах и при локальной разработке без БД.
type InMemorySubscriberRepository struct {
	subscribers map[uuid.UUID]domain.Subscriber
	mutex       sync.RWMutex
	log         *zap.SugaredLogger
}

// NewInMemorySubscriberRepository создает новый репозиторий подписчиков в памяти
func NewInMemorySubscriberRepository(log *zap.SugaredLogger) *InMemorySubscriberRepository {
	return &InMemorySubscriberRepository{
		subscribers: make(map[uuid.UUID]domain.Subscriber),
		log:         log,
	}
}

// GetByUserID возвращает запись подписчика по ID пользователя
func (r *InMemorySubscriberRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Subscriber, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	sub, exists := r.subscribers[userID]
	if !exists {
		return domain.Subscriber{}, ErrNotFound
	}

	return sub, nil
}

// GetByCustomerID возвращает запись подписчика по ID клиента Stripe
func (r *InMemorySubscriberRepository) GetByCustomerID(ctx context.Context, customerID string) (domain.Subscriber, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, sub := range r.subscribers {
		if sub.StripeCustomerID == customerID {
			return sub, nil
		}
	}

	return domain.Subscriber{}, ErrNotFound
}

// Upsert создает или перезаписывает запись подписчика
func (r *InMemorySubscriberRepository) Upsert(ctx context.Context, sub domain.Subscriber) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if existing, exists := r.subscribers[sub.UserID]; exists {
		sub.LastEventAt = existing.LastEventAt
	}
	sub.UpdatedAt = time.Now()

	r.subscribers[sub.UserID] = sub

	return nil
}

// UpsertIfNewer перезаписывает запись, только если событие не старше примененного
func (r *InMemorySubscriberRepository) UpsertIfNewer(ctx context.Context, sub domain.Subscriber, eventAt time.Time) (bool, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if existing, exists := r.subscribers[sub.UserID]; exists && existing.LastEventAt.After(eventAt) {
		r.log.Debugw("Skipping stale subscriber update",
			"user_id", sub.UserID, "event_at", eventAt, "last_event_at", existing.LastEventAt)
		return false, nil
	}

	sub.LastEventAt = eventAt
	sub.UpdatedAt = time.Now()
	r.subscribers[sub.UserID] = sub

	return true, nil
}

// Delete удаляет запись подписчика
func (r *InMemorySubscriberRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.subscribers[userID]; !exists {
		return ErrNotFound
	}

	delete(r.subscribers, userID)

	return nil
}

// ListStalePending возвращает записи, застрявшие в статусе pending
func (r *InMemorySubscriberRepository) ListStalePending(ctx context.Context, olderThan time.Time) ([]domain.Subscriber, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var stale []domain.Subscriber
	for _, sub := range r.subscribers {
		if sub.SubscriptionStatus == domain.SubscriptionStatusPending && sub.UpdatedAt.Before(olderThan) {
			stale = append(stale, sub)
		}
	}

	return stale, nil
}
