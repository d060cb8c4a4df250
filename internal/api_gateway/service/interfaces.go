package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/transfer-ledger/internal/domain/account"
	"github.com/transfer-ledger/internal/domain/journal"
	"github.com/transfer-ledger/internal/domain/ledger"
	"github.com/transfer-ledger/internal/domain/transaction"
	"github.com/transfer-ledger/internal/domain/transfer"
	engine "github.com/transfer-ledger/internal/transfer_engine/service"
)

// AccountBalance is an account together with its balance derived from the ledger
type AccountBalance struct {
	Account *account.Account
	Balance decimal.Decimal
}

// BalanceCheck compares the recomputed balance of an account with the balance
// cached on its most recent ledger entry
type BalanceCheck struct {
	AccountID        uuid.UUID
	Balance          decimal.Decimal
	LastBalanceAfter *decimal.Decimal // nil when the account has no entries
	Consistent       bool
}

// Statement is one page of an account's ledger, newest entry first
type Statement struct {
	Account        *account.Account
	CurrentBalance decimal.Decimal
	Entries        []*ledger.Entry
	TotalEntries   int64
}

// AccountService defines the interface for account operations
type AccountService interface {
	// CreateAccount creates a new account with a zero balance
	// Returns ErrDuplicateDocument if an account with the same document exists
	CreateAccount(ctx context.Context, document, name string) (*AccountBalance, error)

	// GetAccount retrieves an account and its current balance
	// Returns ErrAccountNotFound if the account doesn't exist
	GetAccount(ctx context.Context, id uuid.UUID) (*AccountBalance, error)

	// ListAccounts returns a page of accounts with balances and the total number of accounts
	ListAccounts(ctx context.Context, page, perPage int) ([]*AccountBalance, int64, error)

	// CheckBalance recomputes the balance and compares it with the last cached balance
	CheckBalance(ctx context.Context, id uuid.UUID) (*BalanceCheck, error)
}

// TransactionService defines the interface for transfer operations
type TransactionService interface {
	// CreateTransfer executes a transfer at most once per idempotency key
	CreateTransfer(ctx context.Context, req transfer.Request) (*transfer.Result, error)

	// CreateBatch executes independent transfers concurrently, one outcome per request
	CreateBatch(ctx context.Context, requests []transfer.Request) ([]engine.BatchOutcome, error)

	// GetTransfer retrieves a transaction by its ID
	// Returns ErrTransactionNotFound if the transaction doesn't exist
	GetTransfer(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error)
}

// LedgerService defines the interface for statement queries
type LedgerService interface {
	// GetStatement returns the account identity, its current balance and a page of entries
	GetStatement(ctx context.Context, accountID uuid.UUID, page, perPage int) (*Statement, error)
}

// JournalService defines the interface for the reporting journal
type JournalService interface {
	// ListJournal returns records that occurred in [from, to], newest first, and their total count
	ListJournal(ctx context.Context, from, to time.Time, page, perPage int) ([]*journal.Record, int64, error)
}

// MaxPage bounds page numbers so the computed offset cannot overflow
const MaxPage = 100000

func offset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	return (page - 1) * perPage
}
