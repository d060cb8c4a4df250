package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository manages the journal read model
type Repository interface {
	// Upsert stores the record keyed by transaction id; replays overwrite the same document
	Upsert(ctx context.Context, record *Record) error
	GetByTransactionID(ctx context.Context, transactionID uuid.UUID) (*Record, error)
	// ListByTimeRange returns records with OccurredAt in [from, to], newest first
	ListByTimeRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*Record, error)
	CountByTimeRange(ctx context.Context, from, to time.Time) (int64, error)
}

// ErrRecordNotFound indicates missing journal record
type ErrRecordNotFound struct {
	TransactionID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "journal record not found: " + e.TransactionID.String()
}

// Is implements the errors.Is interface for ErrRecordNotFound
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	if t.TransactionID == uuid.Nil {
		return true
	}
	return e.TransactionID == t.TransactionID
}
