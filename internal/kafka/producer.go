package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/filmeja/backend/internal/domain"
	"go.uber.org/zap"
)

// Топики событий жизненного цикла подписки
const (
	TopicCheckoutStarted       = "subscription.checkout_started"
	TopicSubscriptionActivated = "subscription.activated"
	TopicSubscriptionCanceled  = "subscription.canceled"
)

// SubscriberEvent представляет событие подписчика для Kafka
type SubscriberEvent struct {
	UserID         string    `json:"user_id"`
	CustomerID     string    `json:"customer_id"`
	SubscriptionID string    `json:"subscription_id,omitempty"`
	IsPremium      bool      `json:"is_premium"`
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
}

// Producer интерфейс для отправки событий подписчиков
type Producer interface {
	// PublishSubscriberEvent отправляет событие подписчика в указанный топик.
	// Ключ сообщения - UserID, чтобы события одного пользователя
	// попадали в одну партицию и сохраняли порядок.
	PublishSubscriberEvent(ctx context.Context, topic string, sub domain.Subscriber) error
	Close() error
}

type kafkaProducer struct {
	producer sarama.SyncProducer
	log      *zap.SugaredLogger
}

// NewSyncProducer создает и настраивает новый продюсер Kafka
func NewSyncProducer(brokers []string, log *zap.SugaredLogger) (Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are not configured")
	}

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = 3
	config.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	log.Infow("Kafka producer initialized", "brokers", brokers)
	return &kafkaProducer{
		producer: producer,
		log:      log,
	}, nil
}

// PublishSubscriberEvent преобразует запись подписчика в JSON и отправляет в топик
func (k *kafkaProducer) PublishSubscriberEvent(ctx context.Context, topic string, sub domain.Subscriber) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("kafka: context canceled before publish: %w", err)
	}

	event := SubscriberEvent{
		UserID:         sub.UserID.String(),
		CustomerID:     sub.StripeCustomerID,
		SubscriptionID: sub.StripeSubscriptionID,
		IsPremium:      sub.IsPremium,
		Status:         string(sub.SubscriptionStatus),
		Timestamp:      time.Now(),
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: failed to marshal event: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(event.UserID),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := k.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("kafka: failed to send message: %w", err)
	}

	k.log.Debugw("Published subscriber event",
		"topic", topic, "user_id", event.UserID, "partition", partition, "offset", offset)
	return nil
}

// Close закрывает продюсер Kafka
func (k *kafkaProducer) Close() error {
	if err := k.producer.Close(); err != nil {
		return fmt.Errorf("kafka: failed to close producer: %w", err)
	}
	return nil
}

// NopProducer заглушка продюсера. Используется, когда Kafka отключена,
// и в тестах.
type NopProducer struct{}

// PublishSubscriberEvent ничего не делает
func (NopProducer) PublishSubscriberEvent(ctx context.Context, topic string, sub domain.Subscriber) error {
	return nil
}

// Close ничего не делает
func (NopProducer) Close() error { return nil }
