// Package journal is the eventually consistent reporting view of committed transfers,
// projected from transfer.completed events.
package journal

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/transfer-ledger/internal/domain/shared"
)

// Record is one committed transaction as seen by reporting
type Record struct {
	TransactionID      uuid.UUID                `json:"transaction_id"`
	IdempotencyKey     string                   `json:"idempotency_key"`
	Kind               shared.TransactionKind   `json:"kind"`
	SourceAccountID    uuid.UUID                `json:"source_account_id"`
	TargetAccountID    uuid.UUID                `json:"target_account_id"`
	Amount             decimal.Decimal          `json:"amount"`
	SourceBalanceAfter decimal.Decimal          `json:"source_balance_after"`
	TargetBalanceAfter decimal.Decimal          `json:"target_balance_after"`
	Status             shared.TransactionStatus `json:"status"`
	CorrelationID      string                   `json:"correlation_id,omitempty"`
	OccurredAt         time.Time                `json:"occurred_at"`
	ProjectedAt        time.Time                `json:"projected_at"`
}

// FromEvent builds the journal record for a transfer event
func FromEvent(event *shared.TransferCompletedEvent) *Record {
	return &Record{
		TransactionID:      event.TransactionID,
		IdempotencyKey:     event.IdempotencyKey,
		Kind:               event.Kind,
		SourceAccountID:    event.SourceAccountID,
		TargetAccountID:    event.TargetAccountID,
		Amount:             event.Amount,
		SourceBalanceAfter: event.SourceBalanceAfter,
		TargetBalanceAfter: event.TargetBalanceAfter,
		Status:             event.Status,
		CorrelationID:      event.CorrelationID,
		OccurredAt:         event.OccurredAt.UTC(),
		ProjectedAt:        time.Now().UTC(),
	}
}
