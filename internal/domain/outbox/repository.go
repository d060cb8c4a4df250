package outbox

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/transfer-ledger/internal/domain/shared"
)

// Repository is the transfer outbox. The engine writes through Create inside its unit of
// work; the projector reads pending rows and moves them to PROCESSED or FAILED_TO_PUBLISH.
// Rows are kept after publishing so the table doubles as a relay audit trail.
type Repository interface {
	Create(ctx context.Context, message *Message) error
	// GetPending returns up to limit PENDING messages in id order
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error
	IncrementAttempts(ctx context.Context, id int64) error
	WithTx(tx pgx.Tx) Repository
}

// ErrMessageNotFound is returned when a status or attempt update targets an id
// that is not in the outbox
type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return fmt.Sprintf("outbox message %d not found", e.ID)
}

// ErrDuplicateMessage is returned by Create when the transfer already has its
// completion event queued. Every transfer publishes exactly one event.
type ErrDuplicateMessage struct {
	TransactionID uuid.UUID
}

func (e ErrDuplicateMessage) Error() string {
	return fmt.Sprintf("transfer %s already has an outbox message", e.TransactionID)
}
