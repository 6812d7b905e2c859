package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/filmeja/backend/internal/api/rest"
	"github.com/filmeja/backend/internal/api/rest/handlers"
	"github.com/filmeja/backend/internal/api/rest/middleware"
	"github.com/filmeja/backend/internal/config"
	"github.com/filmeja/backend/internal/integration/stripe"
	"github.com/filmeja/backend/internal/kafka"
	"github.com/filmeja/backend/internal/metrics"
	"github.com/filmeja/backend/internal/repository"
	"github.com/filmeja/backend/internal/seo"
	"github.com/filmeja/backend/internal/service"
	"github.com/filmeja/backend/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.Logging.Level, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zlog.Sync()

	zlog.Infow("Starting FilmeJa API", "env", cfg.App.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// База данных
	pool, err := pgxpool.New(ctx, cfg.Database.GetDSN())
	if err != nil {
		zlog.Fatalw("Failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		zlog.Fatalw("Failed to ping database", "error", err)
	}
	zlog.Infow("Connected to database", "host", cfg.Database.Host, "database", cfg.Database.Database)

	subscriberRepo := repository.NewPostgresSubscriberRepository(pool, zlog)
	contentRepo := repository.NewPostgresContentRepository(pool, zlog)

	// Stripe
	stripeClient := stripe.NewClient(stripe.Config{
		SecretKey:     cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
	}, zlog)

	// Kafka: при выключенном флаге события просто не публикуются
	var producer kafka.Producer = kafka.NopProducer{}
	if cfg.Kafka.Enabled {
		producer, err = kafka.NewSyncProducer(cfg.Kafka.Brokers, zlog)
		if err != nil {
			zlog.Fatalw("Failed to create Kafka producer", "error", err)
		}
	}
	defer producer.Close()

	// Метрики
	registry := prometheus.NewRegistry()
	subscriptionMetrics := metrics.NewSubscriptionMetrics(registry, zlog)

	// Сервисы
	subscriptionSvc := service.NewSubscriptionService(
		subscriberRepo,
		stripeClient,
		producer,
		subscriptionMetrics,
		service.CheckoutConfig{
			PriceID:         cfg.Stripe.PriceID,
			SuccessURL:      cfg.Site.SuccessURL(),
			CancelURL:       cfg.Site.CancelURL(),
			PortalReturnURL: cfg.Site.PortalReturnURL(),
		},
		zlog,
	)
	webhookSvc := service.NewWebhookService(subscriberRepo, stripeClient, producer, subscriptionMetrics, zlog)

	// Фоновая сверка застрявших pending-записей
	if cfg.Sweep.Enabled {
		reconciler := service.NewReconciler(
			subscriberRepo,
			stripeClient,
			subscriptionMetrics,
			time.Duration(cfg.Sweep.IntervalMinutes)*time.Minute,
			time.Duration(cfg.Sweep.PendingAgeMinutes)*time.Minute,
			zlog,
		)
		go reconciler.Run(ctx)
	}

	// SEO
	sitemapBuilder := seo.NewBuilder(
		cfg.Site.BaseURL,
		seo.DefaultStaticRoutes(),
		[]seo.Provider{
			seo.BlogProvider(contentRepo),
			seo.MovieProvider(contentRepo),
			seo.SeriesProvider(contentRepo),
		},
		zlog,
	)

	// HTTP
	router := rest.NewRouter(rest.RouterDeps{
		SubscriptionHandler: handlers.NewSubscriptionHandler(subscriptionSvc, zlog),
		WebhookHandler:      handlers.NewWebhookHandler(stripeClient, webhookSvc, zlog),
		SEOHandler:          handlers.NewSEOHandler(sitemapBuilder, cfg.Site.BaseURL, zlog),
		TokenValidator:      &middleware.DefaultTokenValidator{Secret: []byte(cfg.Auth.JWTSecret)},
		Registry:            registry,
		Log:                 zlog,
	})

	server := rest.NewServer(cfg.Server, router, zlog)

	go func() {
		if err := server.Start(); err != nil {
			zlog.Fatalw("HTTP server failed", "error", err)
		}
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Infow("Shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Errorw("Server shutdown failed", "error", err)
	}

	zlog.Infow("Server stopped")
}
