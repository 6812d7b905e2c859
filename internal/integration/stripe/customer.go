package stripe

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/filmeja/backend/internal/domain"
)

// Customer представляет клиента Stripe
type Customer struct {
	ID       string            `json:"id"`
	Object   string            `json:"object"`
	Email    string            `json:"email"`
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata"`
	Created  int64             `json:"created"`
	Deleted  bool              `json:"deleted,omitempty"`
}

// customerList представляет страницу списка клиентов
type customerList struct {
	Object  string     `json:"object"`
	HasMore bool       `json:"has_more"`
	Data    []Customer `json:"data"`
}

// CreateCustomer создает нового клиента в Stripe
func (c *Client) CreateCustomer(ctx context.Context, email string, metadata map[string]string) (*Customer, error) {
	c.log.Debugw("Creating Stripe customer", "email", email)

	formData := url.Values{}
	formData.Add("email", email)
	for key, value := range metadata {
		formData.Add(fmt.Sprintf("metadata[%s]", key), value)
	}

	var customer Customer
	if err := c.do(ctx, http.MethodPost, "/customers", formData, &customer); err != nil {
		return nil, err
	}

	c.log.Infow("Created Stripe customer", "customer_id", customer.ID)
	return &customer, nil
}

// FindCustomerByEmail ищет клиента Stripe по email.
// Возвращает domain.ErrNoCustomer, если клиент не найден.
func (c *Client) FindCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	c.log.Debugw("Looking up Stripe customer", "email", email)

	query := url.Values{}
	query.Add("email", email)
	query.Add("limit", "1")

	var list customerList
	if err := c.do(ctx, http.MethodGet, "/customers?"+query.Encode(), nil, &list); err != nil {
		return nil, err
	}

	if len(list.Data) == 0 {
		return nil, domain.ErrNoCustomer
	}

	return &list.Data[0], nil
}
