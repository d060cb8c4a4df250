package service

import (
	"context"
	"fmt"
	"time"

	"github.com/transfer-ledger/internal/domain/journal"
)

// ErrInvalidTimeRange indicates a journal query whose start is after its end
type ErrInvalidTimeRange struct {
	From time.Time
	To   time.Time
}

func (e ErrInvalidTimeRange) Error() string {
	return fmt.Sprintf("invalid time range: from %s is after to %s", e.From.Format(time.RFC3339), e.To.Format(time.RFC3339))
}

// JournalServiceImpl implements the JournalService interface on the projected read model
type JournalServiceImpl struct {
	journalRepo journal.Repository
}

// NewJournalService creates a new journal service
func NewJournalService(journalRepo journal.Repository) JournalService {
	return &JournalServiceImpl{
		journalRepo: journalRepo,
	}
}

// ListJournal reads the journal; it lags the ledger by the projector delay
func (s *JournalServiceImpl) ListJournal(ctx context.Context, from, to time.Time, page, perPage int) ([]*journal.Record, int64, error) {
	if from.After(to) {
		return nil, 0, ErrInvalidTimeRange{From: from, To: to}
	}

	records, err := s.journalRepo.ListByTimeRange(ctx, from, to, perPage, offset(page, perPage))
	if err != nil {
		return nil, 0, err
	}
	total, err := s.journalRepo.CountByTimeRange(ctx, from, to)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
