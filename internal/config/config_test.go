package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Site.BaseURL != "https://filmeja.com.br" {
		t.Errorf("base URL = %q, want https://filmeja.com.br", cfg.Site.BaseURL)
	}
	if cfg.Kafka.Enabled {
		t.Error("kafka must be disabled by default")
	}
	if !cfg.Sweep.Enabled {
		t.Error("sweep must be enabled by default")
	}
	if cfg.Sweep.IntervalMinutes != 30 || cfg.Sweep.PendingAgeMinutes != 60 {
		t.Errorf("sweep = %d/%d, want 30/60", cfg.Sweep.IntervalMinutes, cfg.Sweep.PendingAgeMinutes)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("SITE_BASE_URL", "https://staging.filmeja.com.br")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Port != 6543 {
		t.Errorf("db port = %d, want 6543", cfg.Database.Port)
	}
	if !cfg.Kafka.Enabled {
		t.Error("kafka must be enabled")
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "broker2:9092" {
		t.Errorf("brokers = %v, want trimmed two-element list", cfg.Kafka.Brokers)
	}
}

func TestSiteURLs(t *testing.T) {
	site := SiteConfig{BaseURL: "https://filmeja.com.br/"}

	if got := site.SuccessURL(); got != "https://filmeja.com.br/planos/sucesso" {
		t.Errorf("success URL = %q", got)
	}
	if got := site.CancelURL(); got != "https://filmeja.com.br/planos" {
		t.Errorf("cancel URL = %q", got)
	}
	if got := site.PortalReturnURL(); got != "https://filmeja.com.br/conta" {
		t.Errorf("portal return URL = %q", got)
	}
}

func TestGetDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		Database: "filmeja",
		SSLMode:  "disable",
	}

	want := "host=localhost port=5432 user=postgres password=secret dbname=filmeja sslmode=disable"
	if got := db.GetDSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}
