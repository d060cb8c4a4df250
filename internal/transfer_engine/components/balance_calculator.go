package components

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/transfer-ledger/internal/domain/ledger"
	"github.com/transfer-ledger/internal/transfer_engine/service"
)

// BalanceCalculatorImpl derives balances as Σ(CREDIT) − Σ(DEBIT). It must be called with the
// ledger repository of the unit of work that holds the account lock.
type BalanceCalculatorImpl struct{}

func NewBalanceCalculator() service.BalanceCalculator {
	return &BalanceCalculatorImpl{}
}

func (c *BalanceCalculatorImpl) Balance(ctx context.Context, entries ledger.Repository, accountID uuid.UUID) (decimal.Decimal, error) {
	balance, err := entries.Balance(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute balance of account %s: %w", accountID, err)
	}
	return balance, nil
}
