// Package transfer holds the request shape and the failure taxonomy of the transfer engine.
package transfer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/transfer-ledger/internal/domain/transaction"
)

const (
	MaxIdempotencyKeyLength = 100
	// AmountScale is the number of fractional digits kept exactly by the store (NUMERIC(19,2))
	AmountScale = 2
)

// Request is a client transfer instruction
type Request struct {
	SourceAccountID uuid.UUID
	TargetAccountID uuid.UUID
	Amount          decimal.Decimal
	IdempotencyKey  string
	CorrelationID   string
}

// Result is the engine outcome; Replayed is set when the key was already recorded
type Result struct {
	Transaction *transaction.Transaction
	Replayed    bool
}

// Validate checks the preconditions that do not need the store, returning the request
// with a normalized idempotency key
func (r Request) Validate() (Request, error) {
	key, err := NormalizeIdempotencyKey(r.IdempotencyKey)
	if err != nil {
		return r, err
	}
	r.IdempotencyKey = key

	if r.SourceAccountID == r.TargetAccountID {
		return r, ErrSelfTransfer{AccountID: r.SourceAccountID}
	}
	if err := ValidateAmount(r.Amount); err != nil {
		return r, err
	}
	return r, nil
}

// NormalizeIdempotencyKey trims the key and rejects empty, oversized or non-printable keys
func NormalizeIdempotencyKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", ErrMissingIdempotencyKey
	}
	if utf8.RuneCountInString(trimmed) > MaxIdempotencyKeyLength {
		return "", ErrInvalidIdempotencyKey{Key: trimmed, Reason: "must not exceed 100 characters"}
	}
	for _, r := range trimmed {
		if !unicode.IsPrint(r) {
			return "", ErrInvalidIdempotencyKey{Key: trimmed, Reason: "must contain printable characters only"}
		}
	}
	return trimmed, nil
}

// ValidateAmount requires a positive amount with at most two fractional digits
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount{Amount: amount, Reason: "must be positive"}
	}
	if !amount.Equal(amount.Truncate(AmountScale)) {
		return ErrInvalidAmount{Amount: amount, Reason: "must have at most 2 decimal places"}
	}
	return nil
}
