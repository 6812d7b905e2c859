package stripe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/filmeja/backend/internal/domain"
	"github.com/filmeja/backend/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(Config{
		SecretKey:     "sk_test_123",
		WebhookSecret: "whsec_test",
		BaseURL:       server.URL,
	}, logger.NewNop())
}

func TestCreateCustomerSendsForm(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/customers" {
			t.Errorf("request = %s %s, want POST /customers", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk_test_123" {
			t.Errorf("authorization = %q, want bearer secret key", auth)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if email := r.PostForm.Get("email"); email != "user@example.com" {
			t.Errorf("email = %q, want user@example.com", email)
		}
		if ref := r.PostForm.Get("metadata[user_id]"); ref == "" {
			t.Error("expected metadata[user_id] in form")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"cus_1","object":"customer","email":"user@example.com"}`))
	})

	customer, err := client.CreateCustomer(context.Background(), "user@example.com", map[string]string{"user_id": "u1"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	if customer.ID != "cus_1" {
		t.Errorf("customer ID = %q, want cus_1", customer.ID)
	}
}

func TestFindCustomerByEmailNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[]}`))
	})

	_, err := client.FindCustomerByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, domain.ErrNoCustomer) {
		t.Errorf("err = %v, want ErrNoCustomer", err)
	}
}

func TestFindSubscriptionByCustomerNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[]}`))
	})

	_, err := client.FindSubscriptionByCustomer(context.Background(), "cus_1")
	if !errors.Is(err, domain.ErrNoSubscription) {
		t.Errorf("err = %v, want ErrNoSubscription", err)
	}
}

func TestDoDecodesAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"resource_missing","message":"No such subscription"}}`))
	})

	_, err := client.GetSubscription(context.Background(), "sub_missing")
	if err == nil {
		t.Fatal("expected error for 404 response")
	}

	var extErr *domain.ExternalServiceError
	if !errors.As(err, &extErr) {
		t.Fatalf("err = %v, want ExternalServiceError", err)
	}
	if extErr.Service != "stripe" || extErr.Code != "resource_missing" || extErr.StatusCode != http.StatusNotFound {
		t.Errorf("error = %+v, want stripe/resource_missing/404", extErr)
	}
}

func TestCancelSubscriptionUsesDelete(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/subscriptions/sub_1" {
			t.Errorf("request = %s %s, want DELETE /subscriptions/sub_1", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"sub_1","object":"subscription","status":"canceled"}`))
	})

	sub, err := client.CancelSubscription(context.Background(), "sub_1")
	if err != nil {
		t.Fatalf("CancelSubscription: %v", err)
	}
	if sub.Status != "canceled" {
		t.Errorf("status = %q, want canceled", sub.Status)
	}
}
