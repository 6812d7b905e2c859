package rest

import (
	"github.com/filmeja/backend/internal/api/rest/handlers"
	"github.com/filmeja/backend/internal/api/rest/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterDeps зависимости HTTP-роутера
type RouterDeps struct {
	SubscriptionHandler *handlers.SubscriptionHandler
	WebhookHandler      *handlers.WebhookHandler
	SEOHandler          *handlers.SEOHandler
	TokenValidator      middleware.TokenValidator
	Registry            *prometheus.Registry
	Log                 *zap.SugaredLogger
}

// NewRouter настраивает gin-роутер со всеми маршрутами сервиса
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	router.Use(middleware.LoggerMiddleware(deps.Log))
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Authorization", "Content-Type", "Stripe-Signature"},
	}))

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	router.GET("/sitemap.xml", deps.SEOHandler.Sitemap)
	router.GET("/robots.txt", deps.SEOHandler.Robots)

	auth := middleware.NewJWTMiddleware(deps.TokenValidator, deps.Log)

	functions := router.Group("/functions")
	{
		functions.POST("/stripe-webhook", deps.WebhookHandler.HandleStripeWebhook)
		functions.POST("/cancel-subscription", deps.SubscriptionHandler.Cancel)

		authorized := functions.Group("")
		authorized.Use(auth.RequireAuth())
		{
			authorized.POST("/create-checkout-session", deps.SubscriptionHandler.CreateCheckoutSession)
			authorized.GET("/check-subscription", deps.SubscriptionHandler.Status)
			authorized.POST("/customer-portal", deps.SubscriptionHandler.CustomerPortal)
		}
	}

	return router
}
