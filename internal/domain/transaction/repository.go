package transaction

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/transfer-ledger/internal/domain/shared"
)

// Repository manages transaction records
type Repository interface {
	// FindByIdempotencyKey returns nil, nil when no transaction carries the key
	FindByIdempotencyKey(ctx context.Context, key string) (*Transaction, error)
	Create(ctx context.Context, txn *Transaction) error
	// MarkCompleted is a no-op for an already COMPLETED transaction
	MarkCompleted(ctx context.Context, id uuid.UUID) (*Transaction, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Transaction, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates missing transaction
type ErrTransactionNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	return "transaction not found: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrTransactionNotFound
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}

// ErrDuplicateIdempotencyKey indicates a concurrent insert won the idempotency key
type ErrDuplicateIdempotencyKey struct {
	Key string
}

func (e ErrDuplicateIdempotencyKey) Error() string {
	return "transaction with idempotency key already exists: " + e.Key
}

// ErrInvalidStatusTransition indicates an attempt to leave a terminal status
type ErrInvalidStatusTransition struct {
	TransactionID uuid.UUID
	From          shared.TransactionStatus
	To            shared.TransactionStatus
}

func (e ErrInvalidStatusTransition) Error() string {
	return "invalid status transition for transaction " + e.TransactionID.String() + ": " + string(e.From) + " -> " + string(e.To)
}
