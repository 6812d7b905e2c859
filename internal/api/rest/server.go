package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/filmeja/backend/internal/config"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server HTTP-сервер сервиса
type Server struct {
	httpServer *http.Server
	log        *zap.SugaredLogger
}

// NewServer создает новый HTTP-сервер поверх gin-роутера
func NewServer(cfg config.ServerConfig, router *gin.Engine, log *zap.SugaredLogger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		},
		log: log,
	}
}

// Start запускает сервер, блокирует до остановки
func (s *Server) Start() error {
	s.log.Infow("Starting HTTP server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown корректно останавливает сервер
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Infow("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
