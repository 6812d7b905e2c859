package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/filmeja/backend/internal/domain"
)

// Типы вебхук-событий, участвующие в сверке состояния подписки
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
	EventSubscriptionUpdated      = "customer.subscription.updated"
	EventSubscriptionDeleted      = "customer.subscription.deleted"
)

// signatureTolerance максимально допустимый возраст подписанного события
const signatureTolerance = 5 * time.Minute

// Event представляет событие от Stripe Webhook
type Event struct {
	ID       string    `json:"id"`
	Object   string    `json:"object"`
	Type     string    `json:"type"`
	Created  int64     `json:"created"`
	Data     EventData `json:"data"`
	Livemode bool      `json:"livemode"`
}

// EventData полезная нагрузка события. Object декодируется
// в конкретный тип в зависимости от Event.Type.
type EventData struct {
	Object json.RawMessage `json:"object"`
}

// CreatedAt возвращает время события
func (e Event) CreatedAt() time.Time {
	return time.Unix(e.Created, 0)
}

// VerifySignature проверяет заголовок Stripe-Signature для сырого тела запроса.
// Формат заголовка: "t=<unix>,v1=<hex hmac>[,v1=...]", где подпись считается
// как HMAC-SHA256 от "<t>.<payload>" на вебхук-секрете.
func (c *Client) VerifySignature(payload []byte, header string) error {
	return verifySignature(payload, header, c.webhookSecret, time.Now())
}

func verifySignature(payload []byte, header, secret string, now time.Time) error {
	if header == "" {
		return fmt.Errorf("%w: missing Stripe-Signature header", domain.ErrWebhookValidationFailed)
	}

	var timestamp int64
	var signatures [][]byte

	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			ts, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return fmt.Errorf("%w: malformed timestamp", domain.ErrWebhookValidationFailed)
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(value)
			if err != nil {
				continue
			}
			signatures = append(signatures, sig)
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return fmt.Errorf("%w: header has no usable signature", domain.ErrWebhookValidationFailed)
	}

	age := now.Sub(time.Unix(timestamp, 0))
	if age > signatureTolerance || age < -signatureTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", domain.ErrWebhookValidationFailed)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}

	return fmt.Errorf("%w: signature mismatch", domain.ErrWebhookValidationFailed)
}

// ParseEvent декодирует конверт вебхук-события
func ParseEvent(payload []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return Event{}, fmt.Errorf("failed to parse webhook event: %w", err)
	}
	if event.Type == "" {
		return Event{}, fmt.Errorf("webhook event has no type")
	}
	return event, nil
}

// SignPayload строит валидный заголовок Stripe-Signature для тела payload.
// Используется в тестах и при локальной эмуляции вебхуков.
func SignPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}
