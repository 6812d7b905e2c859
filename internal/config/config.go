package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config структура конфигурации приложения
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Stripe   StripeConfig
	Site     SiteConfig
	Kafka    KafkaConfig
	Sweep    SweepConfig
	Logging  LoggingConfig
}

// AppConfig общие параметры приложения
type AppConfig struct {
	Env string
}

// ServerConfig конфигурация HTTP сервера
type ServerConfig struct {
	Port            string
	ReadTimeout     int
	WriteTimeout    int
	ShutdownTimeout int
}

// DatabaseConfig конфигурация базы данных
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// AuthConfig конфигурация проверки токенов
type AuthConfig struct {
	JWTSecret string
}

// StripeConfig конфигурация Stripe
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
}

// SiteConfig публичный адрес сайта, используется для redirect-URL и SEO
type SiteConfig struct {
	BaseURL string
}

// KafkaConfig конфигурация Kafka
type KafkaConfig struct {
	Enabled bool
	Brokers []string
}

// SweepConfig конфигурация фоновой сверки подписок
type SweepConfig struct {
	Enabled           bool
	IntervalMinutes   int
	PendingAgeMinutes int
}

// LoggingConfig конфигурация логгера
type LoggingConfig struct {
	Level string
}

// GetDSN возвращает строку подключения к базе данных
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// SuccessURL адрес возврата после успешной оплаты
func (c *SiteConfig) SuccessURL() string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/planos/sucesso"
}

// CancelURL адрес возврата при отмене оплаты
func (c *SiteConfig) CancelURL() string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/planos"
}

// PortalReturnURL адрес возврата из портала управления подпиской
func (c *SiteConfig) PortalReturnURL() string {
	return strings.TrimSuffix(c.BaseURL, "/") + "/conta"
}

// Load загружает конфигурацию из переменных окружения.
// Вне production сначала подгружается файл .env, если он есть.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Env: getEnv("APP_ENV", "development"),
		},
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout:    getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			ShutdownTimeout: getEnvAsInt("SERVER_SHUTDOWN_TIMEOUT", 30),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Database: getEnv("DB_NAME", "filmeja"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("AUTH_JWT_SECRET", ""),
		},
		Stripe: StripeConfig{
			SecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			PriceID:       getEnv("STRIPE_PRICE_ID", ""),
		},
		Site: SiteConfig{
			BaseURL: getEnv("SITE_BASE_URL", "https://filmeja.com.br"),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvAsBool("KAFKA_ENABLED", false),
			Brokers: getEnvAsSlice("KAFKA_BROKERS", nil),
		},
		Sweep: SweepConfig{
			Enabled:           getEnvAsBool("SWEEP_ENABLED", true),
			IntervalMinutes:   getEnvAsInt("SWEEP_INTERVAL_MINUTES", 30),
			PendingAgeMinutes: getEnvAsInt("SWEEP_PENDING_AGE_MINUTES", 60),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt получает значение переменной окружения как int или возвращает значение по умолчанию
func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool получает значение переменной окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsSlice получает значение переменной окружения как список через запятую
func getEnvAsSlice(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
