package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus статус подписки, зеркалирующий статус в Stripe.
type SubscriptionStatus string

const (
	// SubscriptionStatusPending подписка создана локально, оплата еще не подтверждена
	SubscriptionStatusPending SubscriptionStatus = "pending"

	// SubscriptionStatusActive подписка активна и оплачена
	SubscriptionStatusActive SubscriptionStatus = "active"

	// SubscriptionStatusCanceled подписка отменена
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"

	// SubscriptionStatusPastDue оплата просрочена
	SubscriptionStatusPastDue SubscriptionStatus = "past_due"
)

// Subscriber локальное зеркало состояния подписки пользователя в Stripe.
// Одна запись на пользователя, ключ - UserID.
type Subscriber struct {
	UserID               uuid.UUID          `json:"user_id"`
	Email                string             `json:"email"`
	StripeCustomerID     string             `json:"stripe_customer_id"`
	StripeSubscriptionID string             `json:"stripe_subscription_id,omitempty"`
	IsPremium            bool               `json:"is_premium"`
	SubscriptionStatus   SubscriptionStatus `json:"subscription_status"`
	CurrentPeriodEnd     *time.Time         `json:"current_period_end,omitempty"`
	// LastEventAt время события Stripe, которым запись была обновлена в последний раз.
	// Защищает от применения устаревших вебхук-событий, пришедших не по порядку.
	LastEventAt time.Time `json:"-"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Premium вычисляет значение is_premium из статуса.
// Инвариант: is_premium == (status == "active") после любой успешной сверки.
func (s SubscriptionStatus) Premium() bool {
	return s == SubscriptionStatusActive
}
