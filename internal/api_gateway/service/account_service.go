package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/transfer-ledger/internal/domain/account"
	"github.com/transfer-ledger/internal/domain/ledger"
)

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo account.Repository
	ledgerRepo  ledger.Repository
	logger      *slog.Logger
}

// NewAccountService creates a new account service
func NewAccountService(logger *slog.Logger, accountRepo account.Repository, ledgerRepo ledger.Repository) AccountService {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		logger:      logger,
	}
}

// CreateAccount creates a new account, checking for duplicate documents first
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, document, name string) (*AccountBalance, error) {
	acc, err := account.NewAccount(document, name)
	if err != nil {
		return nil, err
	}

	existing, err := s.accountRepo.GetByDocument(ctx, acc.Document)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Warn("Attempt to create account with duplicate document", "document", acc.MaskedDocument())
		return nil, account.ErrDuplicateDocument{Document: acc.Document}
	}

	// a concurrent insert of the same document still fails here with ErrDuplicateDocument
	if err := s.accountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}

	s.logger.Info("Account created", "account_id", acc.ID.String(), "document", acc.MaskedDocument())
	return &AccountBalance{Account: acc}, nil
}

// GetAccount retrieves an account by its ID with its balance, returns ErrAccountNotFound if not found
func (s *AccountServiceImpl) GetAccount(ctx context.Context, id uuid.UUID) (*AccountBalance, error) {
	acc, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withBalance(ctx, acc)
}

// ListAccounts returns a page of accounts ordered by creation time
func (s *AccountServiceImpl) ListAccounts(ctx context.Context, page, perPage int) ([]*AccountBalance, int64, error) {
	accounts, err := s.accountRepo.List(ctx, perPage, offset(page, perPage))
	if err != nil {
		return nil, 0, err
	}
	total, err := s.accountRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*AccountBalance, 0, len(accounts))
	for _, acc := range accounts {
		withBalance, err := s.withBalance(ctx, acc)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, withBalance)
	}
	return result, total, nil
}

// CheckBalance compares Σ(CREDIT) − Σ(DEBIT) with the balanceAfter of the latest entry
func (s *AccountServiceImpl) CheckBalance(ctx context.Context, id uuid.UUID) (*BalanceCheck, error) {
	if _, err := s.accountRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	balance, err := s.ledgerRepo.Balance(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance of account %s: %w", id, err)
	}
	latest, ok, err := s.ledgerRepo.LatestBalanceAfter(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest balance of account %s: %w", id, err)
	}

	check := &BalanceCheck{
		AccountID:  id,
		Balance:    balance,
		Consistent: true,
	}
	if ok {
		check.LastBalanceAfter = &latest
		check.Consistent = latest.Equal(balance)
	} else {
		check.Consistent = balance.IsZero()
	}

	if !check.Consistent {
		s.logger.Error("Cached balance disagrees with ledger",
			"account_id", id.String(),
			"balance", balance.String(),
			"last_balance_after", latest.String())
	}
	return check, nil
}

func (s *AccountServiceImpl) withBalance(ctx context.Context, acc *account.Account) (*AccountBalance, error) {
	if acc == nil {
		return nil, errors.New("account is nil")
	}
	balance, err := s.ledgerRepo.Balance(ctx, acc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute balance of account %s: %w", acc.ID, err)
	}
	return &AccountBalance{Account: acc, Balance: balance}, nil
}
