package account

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository defines account persistence operations
type Repository interface {
	Create(ctx context.Context, account *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByDocument(ctx context.Context, document string) (*Account, error)
	List(ctx context.Context, limit, offset int) ([]*Account, error)
	Count(ctx context.Context) (int64, error)

	// LockManyForUpdate acquires exclusive row locks on every id in LockOrder,
	// held until the enclosing transaction ends. Must run inside WithTx.
	LockManyForUpdate(ctx context.Context, ids []uuid.UUID) ([]*Account, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrAccountNotFound indicates missing account
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "account not found: " + e.AccountID.String()
}

// Is implements the errors.Is interface for ErrAccountNotFound
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	// If the target AccountID is empty, consider it a match for any ErrAccountNotFound
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID
}

// ErrDuplicateDocument indicates document uniqueness violation
type ErrDuplicateDocument struct {
	Document string
}

func (e ErrDuplicateDocument) Error() string {
	return "account with document already exists: " + MaskDocument(e.Document)
}
