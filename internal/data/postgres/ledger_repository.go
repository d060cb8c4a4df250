package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/transfer-ledger/internal/domain/ledger"
	"github.com/transfer-ledger/internal/platform/persistence"
)

// LedgerRepository implements the append-only ledger.Repository for PostgreSQL
type LedgerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository that runs every statement on tx
func (r *LedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &LedgerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Append inserts a new entry. There is no update or delete path.
func (r *LedgerRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	if entry.Amount.IsNegative() {
		return ledger.ErrInvalidEntry{EntryID: entry.ID, Reason: "amount must not be negative"}
	}
	if entry.BalanceAfter.IsNegative() {
		return ledger.ErrInvalidEntry{EntryID: entry.ID, Reason: "balance after must not be negative"}
	}

	query := `
		INSERT INTO ledger_entries (id, transaction_id, account_id, entry_type, amount, balance_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, query,
		entry.ID,
		entry.TransactionID,
		entry.AccountID,
		string(entry.Type),
		entry.Amount,
		entry.BalanceAfter,
		entry.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append ledger entry",
			"transaction_id", entry.TransactionID.String(),
			"account_id", entry.AccountID.String(),
			"error", err)
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}

	return nil
}

// ListByAccount returns a page of the account's entries, newest first
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Entry, error) {
	query := `
		SELECT id, transaction_id, account_id, entry_type, amount, balance_after, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY sequence DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list ledger entries", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	return r.collectEntries(rows)
}

// CountByAccount counts the total number of entries for an account
func (r *LedgerRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var total int64
	err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries WHERE account_id = $1`, accountID).Scan(&total)
	if err != nil {
		r.logger.Error("Failed to count ledger entries", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return total, nil
}

// ListByTransaction returns the legs of a transaction in posting order
func (r *LedgerRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*ledger.Entry, error) {
	query := `
		SELECT id, transaction_id, account_id, entry_type, amount, balance_after, created_at
		FROM ledger_entries
		WHERE transaction_id = $1
		ORDER BY sequence ASC
	`

	rows, err := r.querier.Query(ctx, query, transactionID)
	if err != nil {
		r.logger.Error("Failed to list transaction entries", "transaction_id", transactionID.String(), "error", err)
		return nil, fmt.Errorf("failed to list transaction entries: %w", err)
	}
	return r.collectEntries(rows)
}

// Balance recomputes the balance from every entry of the account
func (r *LedgerRepository) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(CASE WHEN entry_type = 'CREDIT' THEN amount ELSE -amount END), 0)
		FROM ledger_entries
		WHERE account_id = $1
	`

	var balance decimal.Decimal
	if err := r.querier.QueryRow(ctx, query, accountID).Scan(&balance); err != nil {
		r.logger.Error("Failed to calculate balance", "account_id", accountID.String(), "error", err)
		return decimal.Zero, fmt.Errorf("failed to calculate balance: %w", err)
	}
	return balance, nil
}

// LatestBalanceAfter reads the balance cached on the most recent entry
func (r *LedgerRepository) LatestBalanceAfter(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, bool, error) {
	query := `
		SELECT balance_after
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY sequence DESC
		LIMIT 1
	`

	var balance decimal.Decimal
	err := r.querier.QueryRow(ctx, query, accountID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, nil
		}
		r.logger.Error("Failed to read latest balance", "account_id", accountID.String(), "error", err)
		return decimal.Zero, false, fmt.Errorf("failed to read latest balance: %w", err)
	}
	return balance, true, nil
}

func (r *LedgerRepository) collectEntries(rows pgx.Rows) ([]*ledger.Entry, error) {
	defer rows.Close()

	entries := make([]*ledger.Entry, 0)
	for rows.Next() {
		var (
			entry     ledger.Entry
			entryType string
		)
		err := rows.Scan(
			&entry.ID,
			&entry.TransactionID,
			&entry.AccountID,
			&entryType,
			&entry.Amount,
			&entry.BalanceAfter,
			&entry.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan ledger entry", "error", err)
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entry.Type = ledger.EntryType(entryType)
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to iterate ledger entries", "error", err)
		return nil, fmt.Errorf("failed to iterate ledger entries: %w", err)
	}
	return entries, nil
}
