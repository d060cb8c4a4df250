package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/transfer-ledger/internal/domain/shared"
)

// Transaction records one transfer attempt keyed by its client idempotency key.
// Once COMPLETED or FAILED it is immutable.
type Transaction struct {
	ID              uuid.UUID                `json:"id"`
	IdempotencyKey  string                   `json:"idempotency_key"`
	Kind            shared.TransactionKind   `json:"kind"`
	SourceAccountID uuid.UUID                `json:"source_account_id"`
	TargetAccountID uuid.UUID                `json:"target_account_id"`
	Amount          decimal.Decimal          `json:"amount"`
	Status          shared.TransactionStatus `json:"status"`
	CreatedAt       time.Time                `json:"created_at"`
	CompletedAt     *time.Time               `json:"completed_at,omitempty"`
}

// NewTransfer creates a PENDING transfer between two accounts
func NewTransfer(idempotencyKey string, sourceID, targetID uuid.UUID, amount decimal.Decimal) *Transaction {
	return &Transaction{
		ID:              uuid.New(),
		IdempotencyKey:  idempotencyKey,
		Kind:            shared.TransactionKindTransfer,
		SourceAccountID: sourceID,
		TargetAccountID: targetID,
		Amount:          amount,
		Status:          shared.TransactionStatusPending,
		CreatedAt:       time.Now().UTC(),
	}
}

// NewGenesis creates a PENDING funding transaction whose source and target are the funded account
func NewGenesis(idempotencyKey string, accountID uuid.UUID, amount decimal.Decimal) *Transaction {
	t := NewTransfer(idempotencyKey, accountID, accountID, amount)
	t.Kind = shared.TransactionKindGenesis
	return t
}

// IsGenesis reports whether the transaction funds an account from outside the ledger
func (t *Transaction) IsGenesis() bool {
	return t.Kind == shared.TransactionKindGenesis
}

// MarkCompleted moves PENDING to COMPLETED; it is a no-op when already COMPLETED.
// A rejected transfer rolls back with its unit of work, so FAILED only reaches this
// type from rows written outside the engine and is never completed.
func (t *Transaction) MarkCompleted() error {
	switch t.Status {
	case shared.TransactionStatusCompleted:
		return nil
	case shared.TransactionStatusPending:
		now := time.Now().UTC()
		t.Status = shared.TransactionStatusCompleted
		t.CompletedAt = &now
		return nil
	default:
		return ErrInvalidStatusTransition{TransactionID: t.ID, From: t.Status, To: shared.TransactionStatusCompleted}
	}
}
