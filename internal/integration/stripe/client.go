package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client представляет клиент для работы с API Stripe
type Client struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	httpClient    *http.Client
	log           *zap.SugaredLogger
}

// Config конфигурация для клиента Stripe
type Config struct {
	SecretKey     string
	WebhookSecret string
	// BaseURL переопределяет адрес API (используется в тестах)
	BaseURL string
}

// NewClient создает новый клиент Stripe
func NewClient(cfg Config, log *zap.SugaredLogger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.stripe.com/v1"
	}

	return &Client{
		baseURL:       baseURL,
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		log:           log,
	}
}

// ErrorResponse представляет ошибку от API Stripe
type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Param   string `json:"param"`
}

// errorEnvelope обертка, в которой Stripe возвращает ошибки
type errorEnvelope struct {
	Error *ErrorResponse `json:"error"`
}

// do выполняет запрос к API Stripe и декодирует ответ в out.
// Тело запроса (если есть) кодируется как application/x-www-form-urlencoded.
func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Add("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Add("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Ошибки Stripe возвращает в обертке {"error": {...}}
	if resp.StatusCode >= 400 {
		var envelope errorEnvelope
		if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
			return newAPIError(envelope.Error, resp.StatusCode)
		}
		return fmt.Errorf("stripe API error: unexpected status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
