package stripe

import (
	"context"
	"net/http"
	"net/url"

	"github.com/filmeja/backend/internal/domain"
)

// Subscription представляет подписку Stripe
type Subscription struct {
	ID                 string            `json:"id"`
	Object             string            `json:"object"`
	Customer           string            `json:"customer"`
	Status             string            `json:"status"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	CanceledAt         *int64            `json:"canceled_at"`
	Metadata           map[string]string `json:"metadata"`
	Created            int64             `json:"created"`
}

// subscriptionList представляет страницу списка подписок
type subscriptionList struct {
	Object  string         `json:"object"`
	HasMore bool           `json:"has_more"`
	Data    []Subscription `json:"data"`
}

// GetSubscription получает подписку из Stripe по ID
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	c.log.Debugw("Getting Stripe subscription", "subscription_id", subscriptionID)

	var subscription Subscription
	if err := c.do(ctx, http.MethodGet, "/subscriptions/"+subscriptionID, nil, &subscription); err != nil {
		return nil, err
	}

	return &subscription, nil
}

// FindSubscriptionByCustomer возвращает последнюю подписку клиента.
// Возвращает domain.ErrNoSubscription, если подписок нет.
func (c *Client) FindSubscriptionByCustomer(ctx context.Context, customerID string) (*Subscription, error) {
	c.log.Debugw("Looking up subscription by customer", "customer_id", customerID)

	query := url.Values{}
	query.Add("customer", customerID)
	query.Add("status", "all")
	query.Add("limit", "1")

	var list subscriptionList
	if err := c.do(ctx, http.MethodGet, "/subscriptions?"+query.Encode(), nil, &list); err != nil {
		return nil, err
	}

	if len(list.Data) == 0 {
		return nil, domain.ErrNoSubscription
	}

	return &list.Data[0], nil
}

// CancelSubscription отменяет подписку в Stripe немедленно
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	c.log.Infow("Canceling Stripe subscription", "subscription_id", subscriptionID)

	var subscription Subscription
	if err := c.do(ctx, http.MethodDelete, "/subscriptions/"+subscriptionID, nil, &subscription); err != nil {
		return nil, err
	}

	return &subscription, nil
}
