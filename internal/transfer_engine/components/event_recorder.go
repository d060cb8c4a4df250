package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/transfer-ledger/internal/domain/outbox"
	"github.com/transfer-ledger/internal/domain/shared"
	"github.com/transfer-ledger/internal/domain/transaction"
	"github.com/transfer-ledger/internal/transfer_engine/service"
)

type EventRecorderImpl struct {
	logger *slog.Logger
}

func NewEventRecorder(logger *slog.Logger) service.EventRecorder {
	return &EventRecorderImpl{
		logger: logger,
	}
}

// Record writes a transfer.completed message to the outbox of the current unit of work,
// so the event exists if and only if the entries are committed
func (r *EventRecorderImpl) Record(
	ctx context.Context,
	box outbox.Repository,
	txn *transaction.Transaction,
	sourceBalanceAfter, targetBalanceAfter decimal.Decimal,
	correlationID string,
) error {
	occurredAt := txn.CreatedAt
	if txn.CompletedAt != nil {
		occurredAt = *txn.CompletedAt
	}

	event := &shared.TransferCompletedEvent{
		EventID:            uuid.New(),
		EventType:          shared.EventTypeTransferCompleted,
		TransactionID:      txn.ID,
		IdempotencyKey:     txn.IdempotencyKey,
		Kind:               txn.Kind,
		SourceAccountID:    txn.SourceAccountID,
		TargetAccountID:    txn.TargetAccountID,
		Amount:             txn.Amount,
		SourceBalanceAfter: sourceBalanceAfter,
		TargetBalanceAfter: targetBalanceAfter,
		Status:             txn.Status,
		CorrelationID:      correlationID,
		OccurredAt:         occurredAt,
	}

	message, err := outbox.NewMessage(event)
	if err != nil {
		r.logger.Error("Failed to create outbox message (marshal payload)", "transaction_id", txn.ID.String(), "error", err)
		return fmt.Errorf("failed to create outbox message payload for tx %s: %w", txn.ID, err)
	}

	if err := box.Create(ctx, message); err != nil {
		r.logger.Error("Failed to create outbox message", "transaction_id", txn.ID.String(), "error", err)
		return fmt.Errorf("failed to create outbox message for tx %s: %w", txn.ID, err)
	}

	r.logger.Debug("Outbox message created", "transaction_id", txn.ID.String(), "outbox_id", message.ID)
	return nil
}
