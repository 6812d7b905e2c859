package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/filmeja/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresSubscriberRepository реализация репозитория подписчиков через PostgreSQL
type PostgresSubscriberRepository struct {
	db  *pgxpool.Pool
	log *zap.SugaredLogger
}

// NewPostgresSubscriberRepository создает новый репозиторий подписчиков через PostgreSQL
func NewPostgresSubscriberRepository(db *pgxpool.Pool, log *zap.SugaredLogger) *PostgresSubscriberRepository {
	return &PostgresSubscriberRepository{
		db:  db,
		log: log,
	}
}

const subscriberColumns = `
	user_id, email, stripe_customer_id, stripe_subscription_id,
	is_premium, subscription_status, current_period_end,
	last_event_at, updated_at
`

// scanSubscriber читает одну строку результата в domain.Subscriber
func scanSubscriber(row pgx.Row) (domain.Subscriber, error) {
	var sub domain.Subscriber
	var subscriptionID *string
	var status string

	err := row.Scan(
		&sub.UserID,
		&sub.Email,
		&sub.StripeCustomerID,
		&subscriptionID,
		&sub.IsPremium,
		&status,
		&sub.CurrentPeriodEnd,
		&sub.LastEventAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return domain.Subscriber{}, err
	}

	if subscriptionID != nil {
		sub.StripeSubscriptionID = *subscriptionID
	}
	sub.SubscriptionStatus = domain.SubscriptionStatus(status)

	return sub, nil
}

// GetByUserID возвращает запись подписчика по ID пользователя
func (r *PostgresSubscriberRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (domain.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE user_id = $1`

	sub, err := scanSubscriber(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Subscriber{}, ErrNotFound
		}
		return domain.Subscriber{}, fmt.Errorf("failed to get subscriber: %w", err)
	}

	return sub, nil
}

// GetByCustomerID возвращает запись подписчика по ID клиента Stripe
func (r *PostgresSubscriberRepository) GetByCustomerID(ctx context.Context, customerID string) (domain.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + ` FROM subscribers WHERE stripe_customer_id = $1`

	sub, err := scanSubscriber(r.db.QueryRow(ctx, query, customerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Subscriber{}, ErrNotFound
		}
		return domain.Subscriber{}, fmt.Errorf("failed to get subscriber by customer: %w", err)
	}

	return sub, nil
}

// Upsert создает или перезаписывает запись подписчика.
// LastEventAt существующей записи сохраняется: обычный Upsert не участвует
// в упорядочивании вебхук-событий.
func (r *PostgresSubscriberRepository) Upsert(ctx context.Context, sub domain.Subscriber) error {
	query := `
		INSERT INTO subscribers (
			user_id, email, stripe_customer_id, stripe_subscription_id,
			is_premium, subscription_status, current_period_end,
			last_event_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, to_timestamp(0), $8
		)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			is_premium = EXCLUDED.is_premium,
			subscription_status = EXCLUDED.subscription_status,
			current_period_end = EXCLUDED.current_period_end,
			updated_at = EXCLUDED.updated_at
	`

	var subscriptionID *string
	if sub.StripeSubscriptionID != "" {
		subscriptionID = &sub.StripeSubscriptionID
	}

	_, err := r.db.Exec(ctx, query,
		sub.UserID,
		sub.Email,
		sub.StripeCustomerID,
		subscriptionID,
		sub.IsPremium,
		string(sub.SubscriptionStatus),
		sub.CurrentPeriodEnd,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert subscriber: %w", err)
	}

	return nil
}

// UpsertIfNewer перезаписывает запись, только если событие не старше примененного.
// Возвращает true, если запись была применена.
func (r *PostgresSubscriberRepository) UpsertIfNewer(ctx context.Context, sub domain.Subscriber, eventAt time.Time) (bool, error) {
	query := `
		INSERT INTO subscribers (
			user_id, email, stripe_customer_id, stripe_subscription_id,
			is_premium, subscription_status, current_period_end,
			last_event_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
		ON CONFLICT (user_id) DO UPDATE SET
			email = EXCLUDED.email,
			stripe_customer_id = EXCLUDED.stripe_customer_id,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			is_premium = EXCLUDED.is_premium,
			subscription_status = EXCLUDED.subscription_status,
			current_period_end = EXCLUDED.current_period_end,
			last_event_at = EXCLUDED.last_event_at,
			updated_at = EXCLUDED.updated_at
		WHERE subscribers.last_event_at <= EXCLUDED.last_event_at
	`

	var subscriptionID *string
	if sub.StripeSubscriptionID != "" {
		subscriptionID = &sub.StripeSubscriptionID
	}

	result, err := r.db.Exec(ctx, query,
		sub.UserID,
		sub.Email,
		sub.StripeCustomerID,
		subscriptionID,
		sub.IsPremium,
		string(sub.SubscriptionStatus),
		sub.CurrentPeriodEnd,
		eventAt,
		time.Now(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to upsert subscriber: %w", err)
	}

	if result.RowsAffected() == 0 {
		r.log.Debugw("Skipping stale subscriber update", "user_id", sub.UserID, "event_at", eventAt)
		return false, nil
	}

	return true, nil
}

// Delete удаляет запись подписчика
func (r *PostgresSubscriberRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	query := `DELETE FROM subscribers WHERE user_id = $1`

	result, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to delete subscriber: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// ListStalePending возвращает записи, застрявшие в статусе pending
func (r *PostgresSubscriberRepository) ListStalePending(ctx context.Context, olderThan time.Time) ([]domain.Subscriber, error) {
	query := `SELECT ` + subscriberColumns + `
		FROM subscribers
		WHERE subscription_status = 'pending' AND updated_at < $1
		ORDER BY updated_at ASC
	`

	rows, err := r.db.Query(ctx, query, olderThan)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale subscribers: %w", err)
	}
	defer rows.Close()

	var stale []domain.Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		stale = append(stale, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscribers: %w", err)
	}

	return stale, nil
}
