package components

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/transfer-ledger/internal/domain/account"
	"github.com/transfer-ledger/internal/domain/transfer"
	"github.com/transfer-ledger/internal/transfer_engine/service"
)

type AccountLockerImpl struct {
	logger *slog.Logger
}

func NewAccountLocker(logger *slog.Logger) service.AccountLocker {
	return &AccountLockerImpl{
		logger: logger,
	}
}

// Lock acquires exclusive locks on ids in account.LockOrder, whatever order the caller used.
// The locks are owned by the unit of work behind accounts.
func (l *AccountLockerImpl) Lock(ctx context.Context, accounts account.Repository, ids ...uuid.UUID) ([]*account.Account, error) {
	ordered := account.LockOrder(ids...)

	locked, err := accounts.LockManyForUpdate(ctx, ordered)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrAccountNotFound{}):
			l.logger.Warn("Account not found for lock", "error", err)
		case errors.Is(err, transfer.ErrLockTimeout):
			l.logger.Warn("Lock wait timed out", "error", err)
		default:
			l.logger.Error("Failed to lock accounts", "error", err)
		}
		return nil, err
	}

	l.logger.Debug("Accounts locked", "count", len(locked))
	return locked, nil
}
