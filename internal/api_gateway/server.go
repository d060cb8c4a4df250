package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/transfer-ledger/internal/api_gateway/handler"
	"github.com/transfer-ledger/internal/api_gateway/service"
	"github.com/transfer-ledger/internal/config"
	"github.com/transfer-ledger/internal/platform/metrics"
)

// Services groups the application services exposed over HTTP
type Services struct {
	Accounts     service.AccountService
	Transactions service.TransactionService
	Ledger       service.LedgerService
	Journal      service.JournalService
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger          *slog.Logger  // For structured logging
	httpServer      *http.Server  // Underlying HTTP server
	httpRouter      *gin.Engine   // Gin router instance
	shutdownTimeout time.Duration // Grace period for in-flight requests
}

// NewServer creates and configures a new HTTP server with the given services.
// When metrics are enabled, HTTP collectors are registered on registry and exposed
// at the configured path.
func NewServer(log *slog.Logger, cfg *config.Config, services Services, registry *prometheus.Registry) (*Server, error) {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	httpRouter := gin.New()

	var (
		httpMetrics    *metrics.HTTPMetrics
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled && registry != nil {
		httpMetrics = metrics.NewHTTPMetrics(registry)
		metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	}

	setupRouter(log, httpRouter, handlers{
		accounts:     handler.NewAccountHandler(log, services.Accounts),
		transactions: handler.NewTransactionHandler(log, services.Transactions),
		ledger:       handler.NewLedgerHandler(log, services.Ledger),
		journal:      handler.NewJournalHandler(log, services.Journal),
	}, httpMetrics, cfg.Metrics.Path, metricsHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:          log,
		httpServer:      httpServer,
		httpRouter:      httpRouter,
		shutdownTimeout: cfg.Server.ShutdownTimeout,
	}, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting at most the shutdown timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
