package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/transfer-ledger/internal/config"
	"github.com/transfer-ledger/internal/domain/outbox"
	"github.com/transfer-ledger/internal/domain/shared"
	"github.com/transfer-ledger/internal/platform/metrics"
)

// Poller relays pending outbox messages in id order
type Poller struct {
	outboxRepo       outbox.Repository
	publisher        EventPublisher
	metrics          *metrics.OutboxMetrics
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher EventPublisher,
	outboxMetrics *metrics.OutboxMetrics,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		metrics:          outboxMetrics,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start polls until ctx is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting outbox poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopping")
			return
		case <-ticker.C:
			if _, err := p.ProcessPending(ctx); err != nil {
				p.logger.Error("Error while relaying pending outbox messages", "error", err)
			}
		}
	}
}

// ProcessPending relays one batch and returns the number of messages published
func (p *Poller) ProcessPending(ctx context.Context) (int, error) {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages")
		return 0, nil
	}

	p.logger.Debug("Fetched pending outbox messages", "count", len(messages))

	published := 0
	for _, msg := range messages {
		err := p.publisher.PublishEvent(ctx, msg)
		if errors.Is(err, ErrNotMarkedProcessed) {
			p.logger.Warn("Outbox message published but still pending",
				"outbox_id", msg.ID,
				"transaction_id", msg.TransactionID.String(),
				"error", err,
			)
			err = nil
		}
		if err != nil {
			p.metrics.IncPublishFailure()
			p.recordFailure(ctx, msg, err)
			continue
		}
		p.metrics.IncPublished()
		published++
	}
	return published, nil
}

func (p *Poller) recordFailure(ctx context.Context, msg *outbox.Message, cause error) {
	p.logger.Error("Failed to relay outbox message",
		"outbox_id", msg.ID,
		"transaction_id", msg.TransactionID.String(),
		"attempts", msg.Attempts,
		"error", cause,
	)

	if err := p.outboxRepo.IncrementAttempts(ctx, msg.ID); err != nil {
		p.logger.Error("Failed to increment attempts for outbox message", "outbox_id", msg.ID, "error", err)
		return
	}

	if msg.Attempts+1 >= p.maxRetryAttempts {
		p.logger.Warn("Max retry attempts reached, marking outbox message FAILED_TO_PUBLISH",
			"outbox_id", msg.ID,
			"transaction_id", msg.TransactionID.String(),
			"attempts", msg.Attempts+1,
		)
		if err := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); err != nil {
			p.logger.Error("Failed to mark outbox message FAILED_TO_PUBLISH", "outbox_id", msg.ID, "error", err)
		}
	}
}
