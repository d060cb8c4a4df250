// Package service implements the transfer engine: the protocol that deduplicates a
// request, locks both accounts in a fixed order, checks funds against the ledger and
// records the balanced entries, all inside one unit of work.
package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/transfer-ledger/internal/domain/account"
	"github.com/transfer-ledger/internal/domain/ledger"
	"github.com/transfer-ledger/internal/domain/outbox"
	"github.com/transfer-ledger/internal/domain/transaction"
	"github.com/transfer-ledger/internal/domain/transfer"
)

// TransferService is the engine surface consumed by the API gateway and the seeder
type TransferService interface {
	ExecuteTransfer(ctx context.Context, req transfer.Request) (*transfer.Result, error)
	GetTransfer(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)
	// Fund credits an account from outside the ledger with a GENESIS transaction
	Fund(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, idempotencyKey string) (*transfer.Result, error)
}

// Stores groups the repositories visible to one unit of work
type Stores struct {
	Accounts     account.Repository
	Ledger       ledger.Repository
	Transactions transaction.Repository
	Outbox       outbox.Repository
}

// UnitOfWork runs a function atomically. Any error returned by fn, or a panic,
// discards every write made through the provided stores and releases all locks.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, stores Stores) error) error
	// Stores returns repositories bound to no unit of work, for plain reads
	Stores() Stores
}

// RequestValidator checks the preconditions that need no store access
type RequestValidator interface {
	Validate(ctx context.Context, req transfer.Request) (transfer.Request, error)
}

// IdempotencyGuard resolves idempotency keys to previously recorded transactions
type IdempotencyGuard interface {
	// Cached consults the replay cache only; a miss or cache fault returns nil
	Cached(ctx context.Context, key string) *transaction.Transaction
	// Find consults the transaction store; nil means the key is unused
	Find(ctx context.Context, transactions transaction.Repository, key string) (*transaction.Transaction, error)
	// Remember stores a completed transaction in the replay cache
	Remember(ctx context.Context, txn *transaction.Transaction)
}

// AccountLocker acquires exclusive locks on accounts in the canonical order
type AccountLocker interface {
	Lock(ctx context.Context, accounts account.Repository, ids ...uuid.UUID) ([]*account.Account, error)
}

// BalanceCalculator derives a balance from ledger entries
type BalanceCalculator interface {
	Balance(ctx context.Context, entries ledger.Repository, accountID uuid.UUID) (decimal.Decimal, error)
}

// EntryPoster appends the ledger legs of a transaction
type EntryPoster interface {
	// PostTransfer appends the DEBIT on the source then the CREDIT on the target
	PostTransfer(ctx context.Context, entries ledger.Repository, txn *transaction.Transaction, sourceBalance decimal.Decimal) (debit, credit *ledger.Entry, err error)
	// PostGenesis appends the single CREDIT of a funding transaction
	PostGenesis(ctx context.Context, entries ledger.Repository, txn *transaction.Transaction, balance decimal.Decimal) (*ledger.Entry, error)
}

// EventRecorder writes the transfer.completed event to the outbox of the unit of work
type EventRecorder interface {
	Record(ctx context.Context, box outbox.Repository, txn *transaction.Transaction, sourceBalanceAfter, targetBalanceAfter decimal.Decimal, correlationID string) error
}
