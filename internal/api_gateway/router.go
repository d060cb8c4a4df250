package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/transfer-ledger/internal/api_gateway/handler"
	"github.com/transfer-ledger/internal/api_gateway/middleware"
	"github.com/transfer-ledger/internal/platform/metrics"
)

type handlers struct {
	accounts     *handler.AccountHandler
	transactions *handler.TransactionHandler
	ledger       *handler.LedgerHandler
	journal      *handler.JournalHandler
}

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	h handlers,
	httpMetrics *metrics.HTTPMetrics,
	metricsPath string,
	metricsHandler http.Handler,
) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(httpMetrics))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Account operations
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", h.accounts.Create)
			accounts.GET("", h.accounts.List)
			accounts.GET("/:id", h.accounts.GetByID)
			accounts.GET("/:id/balance", h.accounts.GetBalance)
		}

		// Transfer operations
		transfers := v1.Group("/transfers")
		{
			transfers.POST("", h.transactions.Create)
			transfers.POST("/batch", h.transactions.CreateBatch)
			transfers.GET("/:id", h.transactions.GetByID)
		}

		v1.GET("/ledger/:accountId", h.ledger.GetStatement)
		v1.GET("/journal", h.journal.List)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	if metricsHandler != nil {
		r.GET(metricsPath, gin.WrapH(metricsHandler))
	}
}
