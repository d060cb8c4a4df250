package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType is the side of a double-entry posting
type EntryType string

const (
	EntryTypeDebit  EntryType = "DEBIT"
	EntryTypeCredit EntryType = "CREDIT"
)

// Entry is an immutable ledger posting. BalanceAfter caches the account balance
// immediately after this entry was applied.
type Entry struct {
	ID            uuid.UUID       `json:"id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	AccountID     uuid.UUID       `json:"account_id"`
	Type          EntryType       `json:"entry_type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewDebit builds the DEBIT leg of a transfer on the source account
func NewDebit(transactionID, accountID uuid.UUID, amount, balanceBefore decimal.Decimal) *Entry {
	return newEntry(transactionID, accountID, EntryTypeDebit, amount, balanceBefore.Sub(amount))
}

// NewCredit builds the CREDIT leg of a transfer on the target account
func NewCredit(transactionID, accountID uuid.UUID, amount, balanceBefore decimal.Decimal) *Entry {
	return newEntry(transactionID, accountID, EntryTypeCredit, amount, balanceBefore.Add(amount))
}

func newEntry(transactionID, accountID uuid.UUID, entryType EntryType, amount, balanceAfter decimal.Decimal) *Entry {
	return &Entry{
		ID:            uuid.New(),
		TransactionID: transactionID,
		AccountID:     accountID,
		Type:          entryType,
		Amount:        amount,
		BalanceAfter:  balanceAfter,
		CreatedAt:     time.Now().UTC(),
	}
}

// SignedAmount is +amount for credits and -amount for debits
func (e *Entry) SignedAmount() decimal.Decimal {
	if e.Type == EntryTypeDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Balance folds entries into Σ(CREDIT) − Σ(DEBIT); no entries yield zero
func Balance(entries []*Entry) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.SignedAmount())
	}
	return total
}
