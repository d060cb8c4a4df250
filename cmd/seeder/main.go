package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/transfer-ledger/internal/config"
	"github.com/transfer-ledger/internal/data/postgres"
	"github.com/transfer-ledger/internal/logger"
	"github.com/transfer-ledger/internal/platform/persistence"
	"github.com/transfer-ledger/internal/seeder"
	"github.com/transfer-ledger/internal/transfer_engine/components"
	engine "github.com/transfer-ledger/internal/transfer_engine/service"
)

func main() {
	var (
		accounts int
		balance  string
		prefix   string
	)
	flag.IntVar(&accounts, "accounts", 10, "Number of accounts to create")
	flag.StringVar(&balance, "balance", "1000.00", "Initial balance credited to every account")
	flag.StringVar(&prefix, "prefix", "SEED", "Document prefix of the seeded accounts")
	flag.Parse()

	amount, err := decimal.NewFromString(balance)
	if err != nil {
		fmt.Printf("Invalid -balance %q: %v\n", balance, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadConfig("seeder")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	postgresDB, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer postgresDB.Close()

	stores := engine.Stores{
		Accounts:     postgres.NewAccountRepository(log, postgresDB, cfg.Postgres.LockTimeout),
		Ledger:       postgres.NewLedgerRepository(log, postgresDB),
		Transactions: postgres.NewTransactionRepository(log, postgresDB),
		Outbox:       postgres.NewOutboxRepository(log, postgresDB),
	}

	transfers, batch, err := components.CreateTransferService(
		engine.NewPostgresUnitOfWork(postgresDB, stores),
		nil,
		nil,
		log,
		cfg,
	)
	if err != nil {
		log.Error("Failed to initialize transfer engine", "error", err)
		os.Exit(1)
	}
	defer batch.Shutdown()

	log.Info("Seeding accounts", "accounts", accounts, "balance", amount.StringFixed(2), "prefix", prefix)

	summary, err := seeder.New(log, stores.Accounts, transfers).Run(ctx, seeder.Options{
		Accounts: accounts,
		Balance:  amount,
		Prefix:   prefix,
	})
	if err != nil {
		log.Error("Seeding failed", "error", err, "created", summary.Created, "funded", summary.Funded)
		// deferred cleanup is skipped by os.Exit
		batch.Shutdown()
		postgresDB.Close()
		os.Exit(1)
	}
}
