package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/transfer-ledger/internal/domain/account"
	"github.com/transfer-ledger/internal/domain/ledger"
)

// LedgerServiceImpl implements the LedgerService interface
type LedgerServiceImpl struct {
	accountRepo account.Repository
	ledgerRepo  ledger.Repository
}

// NewLedgerService creates a new ledger service
func NewLedgerService(accountRepo account.Repository, ledgerRepo ledger.Repository) LedgerService {
	return &LedgerServiceImpl{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
	}
}

// GetStatement returns ErrAccountNotFound for an unknown account
func (s *LedgerServiceImpl) GetStatement(ctx context.Context, accountID uuid.UUID, page, perPage int) (*Statement, error) {
	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledgerRepo.Balance(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance of account %s: %w", accountID, err)
	}

	entries, err := s.ledgerRepo.ListByAccount(ctx, accountID, perPage, offset(page, perPage))
	if err != nil {
		return nil, fmt.Errorf("failed to list entries of account %s: %w", accountID, err)
	}

	total, err := s.ledgerRepo.CountByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to count entries of account %s: %w", accountID, err)
	}

	return &Statement{
		Account:        acc,
		CurrentBalance: balance,
		Entries:        entries,
		TotalEntries:   total,
	}, nil
}
