package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/transfer-ledger/internal/domain/ledger"
	"github.com/transfer-ledger/internal/domain/transaction"
	"github.com/transfer-ledger/internal/transfer_engine/service"
)

type EntryPosterImpl struct {
	calculator service.BalanceCalculator
	logger     *slog.Logger
}

func NewEntryPoster(calculator service.BalanceCalculator, logger *slog.Logger) service.EntryPoster {
	return &EntryPosterImpl{
		calculator: calculator,
		logger:     logger,
	}
}

// PostTransfer appends the DEBIT on the source with balanceAfter = sourceBalance − amount,
// then recomputes the target balance and appends the CREDIT
func (p *EntryPosterImpl) PostTransfer(ctx context.Context, entries ledger.Repository, txn *transaction.Transaction, sourceBalance decimal.Decimal) (*ledger.Entry, *ledger.Entry, error) {
	debit := ledger.NewDebit(txn.ID, txn.SourceAccountID, txn.Amount, sourceBalance)
	if err := entries.Append(ctx, debit); err != nil {
		p.logger.Error("Failed to append debit entry", "transaction_id", txn.ID.String(), "error", err)
		return nil, nil, fmt.Errorf("failed to post debit for transaction %s: %w", txn.ID, err)
	}

	targetBalance, err := p.calculator.Balance(ctx, entries, txn.TargetAccountID)
	if err != nil {
		return nil, nil, err
	}

	credit := ledger.NewCredit(txn.ID, txn.TargetAccountID, txn.Amount, targetBalance)
	if err := entries.Append(ctx, credit); err != nil {
		p.logger.Error("Failed to append credit entry", "transaction_id", txn.ID.String(), "error", err)
		return nil, nil, fmt.Errorf("failed to post credit for transaction %s: %w", txn.ID, err)
	}

	p.logger.Debug("Posted transfer entries",
		"transaction_id", txn.ID.String(),
		"source_balance_after", debit.BalanceAfter.String(),
		"target_balance_after", credit.BalanceAfter.String())
	return debit, credit, nil
}

// PostGenesis appends the single CREDIT of a funding transaction
func (p *EntryPosterImpl) PostGenesis(ctx context.Context, entries ledger.Repository, txn *transaction.Transaction, balance decimal.Decimal) (*ledger.Entry, error) {
	credit := ledger.NewCredit(txn.ID, txn.TargetAccountID, txn.Amount, balance)
	if err := entries.Append(ctx, credit); err != nil {
		p.logger.Error("Failed to append genesis entry", "transaction_id", txn.ID.String(), "error", err)
		return nil, fmt.Errorf("failed to post genesis credit for transaction %s: %w", txn.ID, err)
	}
	return credit, nil
}
