// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository can be bound to a pgx.Tx with WithTx so the transfer engine can
// run lock acquisition, balance reads and entry writes in one unit of work.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/transfer-ledger/internal/domain/account"
	"github.com/transfer-ledger/internal/domain/transfer"
	"github.com/transfer-ledger/internal/platform/persistence"
)

const accountDocumentConstraint = "accounts_document_key"

// AccountRepository implements the account.Repository interface for PostgreSQL
type AccountRepository struct {
	querier     persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger      *slog.Logger
	lockTimeout time.Duration
}

// NewAccountRepository creates a new PostgreSQL account repository.
// lockTimeout bounds the wait of LockManyForUpdate; zero leaves the server default.
func NewAccountRepository(logger *slog.Logger, db *persistence.PostgresDB, lockTimeout time.Duration) account.Repository {
	return &AccountRepository{
		querier:     db.Pool(),
		logger:      logger,
		lockTimeout: lockTimeout,
	}
}

// WithTx returns a repository that runs every statement on tx
func (r *AccountRepository) WithTx(tx pgx.Tx) account.Repository {
	return &AccountRepository{
		querier:     tx,
		logger:      r.logger,
		lockTimeout: r.lockTimeout,
	}
}

// Create stores a new account. A second account with the same document fails with ErrDuplicateDocument.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (id, document, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.querier.Exec(ctx, query,
		acc.ID,
		acc.Document,
		acc.Name,
		acc.CreatedAt,
		acc.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := persistence.UniqueViolation(err); ok && constraint == accountDocumentConstraint {
			r.logger.Warn("Duplicate account document", "document", acc.MaskedDocument())
			return account.ErrDuplicateDocument{Document: acc.Document}
		}
		r.logger.Error("Failed to create account", "document", acc.MaskedDocument(), "error", err)
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetByID retrieves an account by its ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	query := `
		SELECT id, document, name, created_at, updated_at
		FROM accounts
		WHERE id = $1
	`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrAccountNotFound{AccountID: id}
		}
		r.logger.Error("Failed to get account", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return acc, nil
}

// GetByDocument retrieves an account by its document; it returns nil, nil when none exists
func (r *AccountRepository) GetByDocument(ctx context.Context, document string) (*account.Account, error) {
	query := `
		SELECT id, document, name, created_at, updated_at
		FROM accounts
		WHERE document = $1
	`

	acc, err := scanAccount(r.querier.QueryRow(ctx, query, document))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get account by document", "document", account.MaskDocument(document), "error", err)
		return nil, fmt.Errorf("failed to get account by document: %w", err)
	}

	return acc, nil
}

// List returns a page of accounts in creation order
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*account.Account, error) {
	query := `
		SELECT id, document, name, created_at, updated_at
		FROM accounts
		ORDER BY created_at ASC, id ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.querier.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list accounts", "limit", limit, "offset", offset, "error", err)
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*account.Account, 0, limit)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			r.logger.Error("Failed to scan account", "error", err)
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Failed to iterate accounts", "error", err)
		return nil, fmt.Errorf("failed to iterate accounts: %w", err)
	}

	return accounts, nil
}

// Count returns the total number of accounts
func (r *AccountRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.querier.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&total); err != nil {
		r.logger.Error("Failed to count accounts", "error", err)
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return total, nil
}

// LockManyForUpdate takes FOR UPDATE row locks one id at a time in account.LockOrder.
// The locks live until the surrounding transaction commits or rolls back, so it must be
// called on a repository obtained from WithTx.
func (r *AccountRepository) LockManyForUpdate(ctx context.Context, ids []uuid.UUID) ([]*account.Account, error) {
	ordered := account.LockOrder(ids...)

	if r.lockTimeout > 0 {
		// is_local=true scopes the setting to the current transaction
		_, err := r.querier.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, formatLockTimeout(r.lockTimeout))
		if err != nil {
			r.logger.Error("Failed to set lock timeout", "error", err)
			return nil, fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	query := `
		SELECT id, document, name, created_at, updated_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE
	`

	locked := make([]*account.Account, 0, len(ordered))
	for _, id := range ordered {
		acc, err := scanAccount(r.querier.QueryRow(ctx, query, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, account.ErrAccountNotFound{AccountID: id}
			}
			if persistence.IsLockNotAvailable(err) {
				r.logger.Warn("Timed out waiting for account lock", "id", id.String(), "timeout", r.lockTimeout.String())
				return nil, fmt.Errorf("account %s: %w", id, transfer.ErrLockTimeout)
			}
			r.logger.Error("Failed to lock account for update", "id", id.String(), "error", err)
			return nil, fmt.Errorf("failed to lock account for update: %w", err)
		}
		locked = append(locked, acc)
	}

	return locked, nil
}

func formatLockTimeout(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}

func scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	err := row.Scan(
		&acc.ID,
		&acc.Document,
		&acc.Name,
		&acc.CreatedAt,
		&acc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &acc, nil
}
