package service

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/transfer-ledger/internal/platform/persistence"
)

// PostgresUnitOfWork runs each unit of work in one PostgreSQL transaction
type PostgresUnitOfWork struct {
	db     *persistence.PostgresDB
	stores Stores
}

// NewPostgresUnitOfWork binds the pool-level stores to db
func NewPostgresUnitOfWork(db *persistence.PostgresDB, stores Stores) *PostgresUnitOfWork {
	return &PostgresUnitOfWork{
		db:     db,
		stores: stores,
	}
}

func (u *PostgresUnitOfWork) Stores() Stores {
	return u.stores
}

// Execute hands fn repositories bound to a single pgx.Tx
func (u *PostgresUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error {
	return u.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		return fn(ctx, u.stores.withTx(tx))
	})
}

func (s Stores) withTx(tx pgx.Tx) Stores {
	return Stores{
		Accounts:     s.Accounts.WithTx(tx),
		Ledger:       s.Ledger.WithTx(tx),
		Transactions: s.Transactions.WithTx(tx),
		Outbox:       s.Outbox.WithTx(tx),
	}
}
