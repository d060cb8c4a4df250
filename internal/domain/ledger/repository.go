package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Repository is the append-only entry store. Entries are never updated or deleted.
type Repository interface {
	Append(ctx context.Context, entry *Entry) error
	// ListByAccount returns a page of entries newest first
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Entry, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*Entry, error)

	// Balance recomputes Σ(CREDIT) − Σ(DEBIT) for the account, 0 when it has no entries
	Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	// LatestBalanceAfter returns the cached balance of the most recent entry; ok is false when there is none
	LatestBalanceAfter(ctx context.Context, accountID uuid.UUID) (balance decimal.Decimal, ok bool, err error)
	WithTx(tx pgx.Tx) Repository
}

// ErrInvalidEntry indicates an entry rejected by the store before writing
type ErrInvalidEntry struct {
	EntryID uuid.UUID
	Reason  string
}

func (e ErrInvalidEntry) Error() string {
	return "invalid ledger entry " + e.EntryID.String() + ": " + e.Reason
}
