package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/transfer-ledger/internal/api_gateway"
	"github.com/transfer-ledger/internal/api_gateway/service"
	"github.com/transfer-ledger/internal/config"
	"github.com/transfer-ledger/internal/data/mongo"
	"github.com/transfer-ledger/internal/data/postgres"
	redisdata "github.com/transfer-ledger/internal/data/redis"
	"github.com/transfer-ledger/internal/logger"
	"github.com/transfer-ledger/internal/platform/metrics"
	"github.com/transfer-ledger/internal/platform/persistence"
	"github.com/transfer-ledger/internal/transfer_engine/components"
	engine "github.com/transfer-ledger/internal/transfer_engine/service"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting API Gateway",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context; pending migrations are applied first
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// The replay cache is optional; the transactions table stays authoritative
	var redisDB *persistence.RedisDB
	var transferCache *redisdata.TransferCache
	if cfg.Redis.Enabled {
		redisDB, err = persistence.NewRedisDB(appCtx, log, &cfg.Redis)
		if err != nil {
			log.Error("Failed to initialize Redis", "error", err)
			os.Exit(1)
		}
		transferCache = redisdata.NewTransferCache(log, redisDB.Client(), cfg.Redis.IdempotencyTTL)
	}

	// Initialize repositories
	stores := engine.Stores{
		Accounts:     postgres.NewAccountRepository(log, postgresDB, cfg.Postgres.LockTimeout),
		Ledger:       postgres.NewLedgerRepository(log, postgresDB),
		Transactions: postgres.NewTransactionRepository(log, postgresDB),
		Outbox:       postgres.NewOutboxRepository(log, postgresDB),
	}
	journalRepo := mongo.NewJournalRepository(log, mongoDB.Database())

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize transfer engine
	transfers, batch, err := components.CreateTransferService(
		engine.NewPostgresUnitOfWork(postgresDB, stores),
		transferCache,
		metrics.NewTransferMetrics(registry),
		log,
		cfg,
	)
	if err != nil {
		log.Error("Failed to initialize transfer engine", "error", err)
		os.Exit(1)
	}

	// Initialize services
	services := api_gateway.Services{
		Accounts:     service.NewAccountService(log, stores.Accounts, stores.Ledger),
		Transactions: service.NewTransactionService(log, transfers, batch),
		Ledger:       service.NewLedgerService(stores.Accounts, stores.Ledger),
		Journal:      service.NewJournalService(journalRepo),
	}

	// Initialize REST server
	server, err := api_gateway.NewServer(log, cfg, services, registry)
	if err != nil {
		log.Error("Failed to initialize REST server", "error", err)
		os.Exit(1)
	}
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before the pool and the stores go away
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	batch.Shutdown()

	postgresDB.Close()

	if redisDB != nil {
		if err = redisDB.Close(); err != nil {
			log.Error("Error closing Redis connection", "error", err)
		}
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
