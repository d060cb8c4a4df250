package transfer

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrMissingIdempotencyKey is returned before the engine runs when no key was supplied
var ErrMissingIdempotencyKey = errors.New("idempotency key is required")

// ErrLockTimeout is an internal failure: the account locks could not be acquired in time.
// Nothing was committed, so the caller may retry with the same idempotency key.
var ErrLockTimeout = errors.New("timed out waiting for account lock")

// ErrInvalidIdempotencyKey indicates a malformed key
type ErrInvalidIdempotencyKey struct {
	Key    string
	Reason string
}

func (e ErrInvalidIdempotencyKey) Error() string {
	return "invalid idempotency key: " + e.Reason
}

// ErrSelfTransfer indicates source and target are the same account
type ErrSelfTransfer struct {
	AccountID uuid.UUID
}

func (e ErrSelfTransfer) Error() string {
	return "cannot transfer funds to the same account: " + e.AccountID.String()
}

// ErrInvalidAmount indicates a non-positive or over-precise amount
type ErrInvalidAmount struct {
	Amount decimal.Decimal
	Reason string
}

func (e ErrInvalidAmount) Error() string {
	return "invalid amount " + e.Amount.String() + ": " + e.Reason
}

// ErrInsufficientFunds indicates the source balance does not cover the amount
type ErrInsufficientFunds struct {
	AccountID uuid.UUID
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e ErrInsufficientFunds) Error() string {
	return "insufficient funds in account " + e.AccountID.String() +
		": available=" + e.Available.StringFixed(2) + ", requested=" + e.Requested.StringFixed(2)
}

// Is matches any ErrInsufficientFunds when the target carries no account id
func (e ErrInsufficientFunds) Is(target error) bool {
	t, ok := target.(ErrInsufficientFunds)
	if !ok {
		return false
	}
	return t.AccountID == uuid.Nil || t.AccountID == e.AccountID
}

// IsBusinessRejection reports failures decided by the rules rather than by the infrastructure
func IsBusinessRejection(err error) bool {
	var selfErr ErrSelfTransfer
	var fundsErr ErrInsufficientFunds
	var amountErr ErrInvalidAmount
	var keyErr ErrInvalidIdempotencyKey
	return errors.As(err, &selfErr) ||
		errors.As(err, &fundsErr) ||
		errors.As(err, &amountErr) ||
		errors.As(err, &keyErr) ||
		errors.Is(err, ErrMissingIdempotencyKey)
}
