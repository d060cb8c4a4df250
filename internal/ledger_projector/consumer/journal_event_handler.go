package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/transfer-ledger/internal/domain/journal"
	"github.com/transfer-ledger/internal/domain/shared"
	"github.com/transfer-ledger/internal/platform/messaging/producers"
	"github.com/transfer-ledger/internal/platform/metrics"
)

const (
	resultProjected    = "projected"
	resultDeadLettered = "dead_lettered"
	resultFailed       = "failed"
)

// JournalEventHandler projects transfer.completed events into the journal read model
type JournalEventHandler struct {
	journalRepo journal.Repository
	producer    producers.DeadLetterPublisher
	metrics     *metrics.OutboxMetrics
	logger      *slog.Logger
}

func NewJournalEventHandler(
	logger *slog.Logger,
	journalRepo journal.Repository,
	producer producers.DeadLetterPublisher,
	outboxMetrics *metrics.OutboxMetrics,
) *JournalEventHandler {
	return &JournalEventHandler{
		journalRepo: journalRepo,
		producer:    producer,
		metrics:     outboxMetrics,
		logger:      logger,
	}
}

// HandleMessage upserts the journal record of one event. Replays overwrite the same record.
// Events that can never be projected go to the DLQ; a journal failure is returned for retry.
func (h *JournalEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.TransferCompletedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return h.deadLetter(ctx, key, value, "Failed to unmarshal transfer event", err)
	}
	if err := event.Validate(); err != nil {
		return h.deadLetter(ctx, key, value, "Invalid transfer event", err)
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	if err := h.journalRepo.Upsert(ctx, journal.FromEvent(&event)); err != nil {
		h.metrics.IncProjected(resultFailed)
		logger.Error("Failed to project transfer event", "transaction_id", event.TransactionID.String(), "error", err)
		return fmt.Errorf("projecting transaction %s failed: %w", event.TransactionID, err)
	}

	h.metrics.IncProjected(resultProjected)
	logger.Info("Transfer event projected", "transaction_id", event.TransactionID.String(), "kind", string(event.Kind))
	return nil
}

func (h *JournalEventHandler) deadLetter(ctx context.Context, key, value []byte, message string, cause error) error {
	h.logger.Error(message, "error", cause, "message_key", string(key))

	if h.producer == nil {
		return fmt.Errorf("%s: %w", message, cause)
	}

	reason := fmt.Sprintf("%s: %s", message, cause.Error())
	if err := h.producer.PublishToDLQ(ctx, string(key), value, reason); err != nil {
		h.logger.Error("Failed to publish message to DLQ", "dlq_error", err, "original_error", cause, "message_key", string(key))
		return fmt.Errorf("%s: %w", message, cause)
	}

	h.metrics.IncProjected(resultDeadLettered)
	return nil
}
