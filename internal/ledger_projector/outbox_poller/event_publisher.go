package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/transfer-ledger/internal/domain/outbox"
	"github.com/transfer-ledger/internal/domain/shared"
	"github.com/transfer-ledger/internal/platform/messaging/producers"
)

// ErrNotMarkedProcessed reports that the event reached Kafka but the outbox row is
// still PENDING. It is not a publish failure: the row is relayed again on a later
// poll and the journal upsert absorbs the duplicate.
var ErrNotMarkedProcessed = errors.New("published event not marked processed")

// EventPublisher relays one outbox message to the event stream
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

type EventPublisherImpl struct {
	outboxRepo outbox.Repository
	producer   producers.EventPublisher
	logger     *slog.Logger
}

func NewEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.EventPublisher,
	logger *slog.Logger,
) EventPublisher {
	return &EventPublisherImpl{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishEvent writes the message payload to Kafka and marks the message PROCESSED.
// A payload that cannot be decoded is marked FAILED_TO_PUBLISH at once since retries cannot fix it.
func (p *EventPublisherImpl) PublishEvent(ctx context.Context, message *outbox.Message) error {
	event, err := message.GetEvent()
	if err == nil {
		err = event.Validate()
	}
	if err != nil {
		p.logger.Error("Undecodable outbox payload", "outbox_id", message.ID, "transaction_id", message.TransactionID.String(), "error", err)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to mark outbox message FAILED_TO_PUBLISH", "outbox_id", message.ID, "error", updateErr)
		}
		return fmt.Errorf("decode payload of outbox message %d: %w", message.ID, err)
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	if err := p.producer.Publish(ctx, event.TransactionID.String(), event.EventType, message.Payload); err != nil {
		return fmt.Errorf("failed to publish event for transaction %s: %w", event.TransactionID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		return fmt.Errorf("%w: transaction %s, outbox %d: %w", ErrNotMarkedProcessed, event.TransactionID, message.ID, err)
	}

	logger.Info("Transfer event published", "outbox_id", message.ID, "transaction_id", event.TransactionID.String(), "kind", string(event.Kind))
	return nil
}
