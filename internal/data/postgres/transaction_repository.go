package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/transfer-ledger/internal/domain/shared"
	"github.com/transfer-ledger/internal/domain/transaction"
	"github.com/transfer-ledger/internal/platform/persistence"
)

const transactionIdempotencyConstraint = "transactions_idempotency_key_key"

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository that runs every statement on tx
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// FindByIdempotencyKey returns nil, nil when no transaction carries the key
func (r *TransactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*transaction.Transaction, error) {
	query := `
		SELECT id, idempotency_key, kind, source_account_id, target_account_id, amount, status, created_at, completed_at
		FROM transactions
		WHERE idempotency_key = $1
	`

	txn, err := scanTransaction(r.querier.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to find transaction by idempotency key", "idempotency_key", key, "error", err)
		return nil, fmt.Errorf("failed to find transaction by idempotency key: %w", err)
	}
	return txn, nil
}

// Create inserts the transaction. Losing a race on the idempotency key yields ErrDuplicateIdempotencyKey.
func (r *TransactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	query := `
		INSERT INTO transactions (id, idempotency_key, kind, source_account_id, target_account_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		txn.ID,
		txn.IdempotencyKey,
		string(txn.Kind),
		txn.SourceAccountID,
		txn.TargetAccountID,
		txn.Amount,
		string(txn.Status),
		txn.CreatedAt,
	)
	if err != nil {
		if constraint, ok := persistence.UniqueViolation(err); ok && constraint == transactionIdempotencyConstraint {
			return transaction.ErrDuplicateIdempotencyKey{Key: txn.IdempotencyKey}
		}
		r.logger.Error("Failed to create transaction", "id", txn.ID.String(), "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// MarkCompleted moves a PENDING transaction to COMPLETED and returns the stored row.
// An already COMPLETED transaction is returned unchanged.
func (r *TransactionRepository) MarkCompleted(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `
		UPDATE transactions
		SET status = 'COMPLETED', completed_at = COALESCE(completed_at, NOW())
		WHERE id = $1 AND status IN ('PENDING', 'COMPLETED')
		RETURNING id, idempotency_key, kind, source_account_id, target_account_id, amount, status, created_at, completed_at
	`

	txn, err := scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to mark transaction completed", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to mark transaction completed: %w", err)
	}
	return txn, nil
}

// GetByID retrieves a transaction by its ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	query := `
		SELECT id, idempotency_key, kind, source_account_id, target_account_id, amount, status, created_at, completed_at
		FROM transactions
		WHERE id = $1
	`

	txn, err := scanTransaction(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{TransactionID: id}
		}
		r.logger.Error("Failed to get transaction", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

func scanTransaction(row pgx.Row) (*transaction.Transaction, error) {
	var (
		txn    transaction.Transaction
		kind   string
		status string
	)
	err := row.Scan(
		&txn.ID,
		&txn.IdempotencyKey,
		&kind,
		&txn.SourceAccountID,
		&txn.TargetAccountID,
		&txn.Amount,
		&status,
		&txn.CreatedAt,
		&txn.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	txn.Kind = shared.TransactionKind(kind)
	txn.Status = shared.TransactionStatus(status)
	return &txn, nil
}
