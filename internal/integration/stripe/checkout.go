package stripe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CheckoutSession представляет сессию оплаты, размещенную на стороне Stripe
type CheckoutSession struct {
	ID                string            `json:"id"`
	Object            string            `json:"object"`
	URL               string            `json:"url"`
	Customer          string            `json:"customer"`
	Subscription      string            `json:"subscription"`
	Status            string            `json:"status"`
	Mode              string            `json:"mode"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
}

// CheckoutSessionParams параметры создания сессии оплаты
type CheckoutSessionParams struct {
	CustomerID        string
	PriceID           string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	Metadata          map[string]string
}

// BillingPortalSession представляет сессию портала управления подпиской
type BillingPortalSession struct {
	ID     string `json:"id"`
	Object string `json:"object"`
	URL    string `json:"url"`
}

// CreateCheckoutSession создает сессию оплаты подписки
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	c.log.Debugw("Creating checkout session", "customer_id", params.CustomerID, "price_id", params.PriceID)

	formData := url.Values{}
	formData.Add("mode", "subscription")
	formData.Add("customer", params.CustomerID)
	formData.Add("line_items[0][price]", params.PriceID)
	formData.Add("line_items[0][quantity]", "1")
	formData.Add("success_url", params.SuccessURL)
	formData.Add("cancel_url", params.CancelURL)
	if params.ClientReferenceID != "" {
		formData.Add("client_reference_id", params.ClientReferenceID)
	}
	for key, value := range params.Metadata {
		formData.Add(fmt.Sprintf("metadata[%s]", key), value)
	}

	var session CheckoutSession
	if err := c.do(ctx, http.MethodPost, "/checkout/sessions", formData, &session); err != nil {
		return nil, err
	}

	c.log.Infow("Created checkout session", "session_id", session.ID)
	return &session, nil
}

// CreateBillingPortalSession создает сессию портала управления подпиской
func (c *Client) CreateBillingPortalSession(ctx context.Context, customerID, returnURL string) (*BillingPortalSession, error) {
	c.log.Debugw("Creating billing portal session", "customer_id", customerID)

	formData := url.Values{}
	formData.Add("customer", customerID)
	formData.Add("return_url", returnURL)

	var session BillingPortalSession
	if err := c.do(ctx, http.MethodPost, "/billing_portal/sessions", formData, &session); err != nil {
		return nil, err
	}

	return &session, nil
}
