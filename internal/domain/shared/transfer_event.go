package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventTypeTransferCompleted is emitted once per committed transaction
const EventTypeTransferCompleted = "transfer.completed"

var ErrInvalidEvent = errors.New("invalid transfer event")

// TransferCompletedEvent defines the Kafka message relayed from the transfer outbox
type TransferCompletedEvent struct {
	EventID            uuid.UUID         `json:"event_id"`
	EventType          string            `json:"event_type"`
	TransactionID      uuid.UUID         `json:"transaction_id"`
	IdempotencyKey     string            `json:"idempotency_key"`
	Kind               TransactionKind   `json:"kind"`
	SourceAccountID    uuid.UUID         `json:"source_account_id"`
	TargetAccountID    uuid.UUID         `json:"target_account_id"`
	Amount             decimal.Decimal   `json:"amount"`
	SourceBalanceAfter decimal.Decimal   `json:"source_balance_after"`
	TargetBalanceAfter decimal.Decimal   `json:"target_balance_after"`
	Status             TransactionStatus `json:"status"`
	CorrelationID      string            `json:"correlation_id,omitempty"`
	OccurredAt         time.Time         `json:"occurred_at"`
}

// Validate checks the fields the journal projection relies on
func (e *TransferCompletedEvent) Validate() error {
	if e.EventType != EventTypeTransferCompleted {
		return errors.Join(ErrInvalidEvent, errors.New("unexpected event type "+e.EventType))
	}
	if e.TransactionID == uuid.Nil {
		return errors.Join(ErrInvalidEvent, errors.New("missing transaction id"))
	}
	if !e.Amount.IsPositive() {
		return errors.Join(ErrInvalidEvent, errors.New("amount must be positive"))
	}
	return nil
}
