package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggerMiddleware создает middleware для логирования запросов
func LoggerMiddleware(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		statusCode := c.Writer.Status()

		fields := []any{
			"method", c.Request.Method,
			"path", c.Request.RequestURI,
			"status", statusCode,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		}

		switch {
		case statusCode >= 500:
			log.Errorw("Request completed", fields...)
		case statusCode >= 400:
			log.Warnw("Request completed", fields...)
		default:
			log.Infow("Request completed", fields...)
		}
	}
}
