// Package seeder creates funded accounts for local environments and load tests.
// Seeding is repeatable: accounts are found by document and funding reuses a
// per-account idempotency key, so a second run changes nothing.
package seeder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"github.com/transfer-ledger/internal/domain/account"
	engine "github.com/transfer-ledger/internal/transfer_engine/service"
)

type Options struct {
	Accounts int
	Balance  decimal.Decimal
	Prefix   string
}

// Summary counts what a run actually changed
type Summary struct {
	Created  int
	Existing int
	Funded   int
	Replayed int
}

type Seeder struct {
	accounts  account.Repository
	transfers engine.TransferService
	logger    *slog.Logger
}

func New(logger *slog.Logger, accounts account.Repository, transfers engine.TransferService) *Seeder {
	return &Seeder{
		accounts:  accounts,
		transfers: transfers,
		logger:    logger,
	}
}

// Run creates opts.Accounts accounts and funds each with opts.Balance.
// A zero balance creates the accounts without funding them.
func (s *Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	var summary Summary
	if opts.Accounts <= 0 {
		return summary, fmt.Errorf("accounts must be positive, got %d", opts.Accounts)
	}
	if opts.Balance.IsNegative() {
		return summary, fmt.Errorf("balance must not be negative, got %s", opts.Balance)
	}

	for i := 1; i <= opts.Accounts; i++ {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		document := fmt.Sprintf("%s%08d", opts.Prefix, i)
		acc, created, err := s.ensureAccount(ctx, document, fmt.Sprintf("Seed Account %d", i))
		if err != nil {
			return summary, err
		}
		if created {
			summary.Created++
		} else {
			summary.Existing++
		}

		if opts.Balance.IsZero() {
			continue
		}

		result, err := s.transfers.Fund(ctx, acc.ID, opts.Balance, "seed-"+document)
		if err != nil {
			return summary, fmt.Errorf("failed to fund account %s: %w", acc.ID, err)
		}
		if result.Replayed {
			summary.Replayed++
		} else {
			summary.Funded++
		}
	}

	s.logger.Info("Seeding finished",
		"created", summary.Created,
		"existing", summary.Existing,
		"funded", summary.Funded,
		"replayed", summary.Replayed,
	)
	return summary, nil
}

func (s *Seeder) ensureAccount(ctx context.Context, document, name string) (*account.Account, bool, error) {
	existing, err := s.accounts.GetByDocument(ctx, document)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up seed account: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	acc, err := account.NewAccount(document, name)
	if err != nil {
		return nil, false, err
	}
	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, false, fmt.Errorf("failed to create seed account: %w", err)
	}
	s.logger.Debug("Seed account created", "account_id", acc.ID.String(), "document", acc.MaskedDocument())
	return acc, true, nil
}
