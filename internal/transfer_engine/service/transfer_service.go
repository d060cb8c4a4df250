package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/transfer-ledger/internal/domain/account"
	"github.com/transfer-ledger/internal/domain/shared"
	"github.com/transfer-ledger/internal/domain/transaction"
	"github.com/transfer-ledger/internal/domain/transfer"
	"github.com/transfer-ledger/internal/platform/metrics"
)

type TransferServiceImpl struct {
	uow        UnitOfWork
	validator  RequestValidator
	guard      IdempotencyGuard
	locker     AccountLocker
	calculator BalanceCalculator
	poster     EntryPoster
	recorder   EventRecorder
	metrics    *metrics.TransferMetrics
	logger     *slog.Logger
}

func NewTransferService(
	uow UnitOfWork,
	validator RequestValidator,
	guard IdempotencyGuard,
	locker AccountLocker,
	calculator BalanceCalculator,
	poster EntryPoster,
	recorder EventRecorder,
	transferMetrics *metrics.TransferMetrics,
	logger *slog.Logger,
) *TransferServiceImpl {
	return &TransferServiceImpl{
		uow:        uow,
		validator:  validator,
		guard:      guard,
		locker:     locker,
		calculator: calculator,
		poster:     poster,
		recorder:   recorder,
		metrics:    transferMetrics,
		logger:     logger,
	}
}

// ExecuteTransfer moves amount from the source to the target account at most once per idempotency key.
// A key that was already recorded returns the stored transaction with Replayed set, whatever its status.
func (s *TransferServiceImpl) ExecuteTransfer(ctx context.Context, req transfer.Request) (result *transfer.Result, err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe(string(shared.TransactionKindTransfer), outcome(result, err), time.Since(start))
	}()

	logger := s.logger
	if req.CorrelationID != "" {
		logger = s.logger.With("correlation_id", req.CorrelationID)
	}

	req, err = s.validator.Validate(ctx, req)
	if err != nil {
		return nil, err
	}

	if cached := s.guard.Cached(ctx, req.IdempotencyKey); cached != nil {
		logger.Info("Replaying transfer from cache",
			"transaction_id", cached.ID.String(),
			"idempotency_key", req.IdempotencyKey)
		return &transfer.Result{Transaction: cached, Replayed: true}, nil
	}

	err = s.uow.Execute(ctx, func(ctx context.Context, stores Stores) error {
		var txErr error
		result, txErr = s.transfer(ctx, stores, req, logger)
		return txErr
	})
	if err != nil {
		result = nil
		var dupErr transaction.ErrDuplicateIdempotencyKey
		if errors.As(err, &dupErr) {
			// A concurrent request with the same key committed first
			return s.replayCommitted(ctx, req.IdempotencyKey, logger)
		}
		s.logFailure(logger, "Transfer rejected", "Transfer failed", err,
			"source_account_id", req.SourceAccountID.String(),
			"target_account_id", req.TargetAccountID.String(),
			"amount", req.Amount.String())
		return nil, err
	}

	if !result.Replayed {
		logger.Info("Transfer completed",
			"transaction_id", result.Transaction.ID.String(),
			"source_account_id", req.SourceAccountID.String(),
			"target_account_id", req.TargetAccountID.String(),
			"amount", req.Amount.String())
	}
	s.guard.Remember(ctx, result.Transaction)
	return result, nil
}

// transfer runs the locked part of the protocol inside the unit of work
func (s *TransferServiceImpl) transfer(ctx context.Context, stores Stores, req transfer.Request, logger *slog.Logger) (*transfer.Result, error) {
	// 1. Idempotency
	existing, err := s.guard.Find(ctx, stores.Transactions, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Info("Replaying recorded transfer", "transaction_id", existing.ID.String(), "status", string(existing.Status))
		return &transfer.Result{Transaction: existing, Replayed: true}, nil
	}

	// 2. Locks in canonical order
	if _, err := s.locker.Lock(ctx, stores.Accounts, req.SourceAccountID, req.TargetAccountID); err != nil {
		return nil, err
	}

	// The key may have been committed by a duplicate that held the locks before us
	existing, err = s.guard.Find(ctx, stores.Transactions, req.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Info("Replaying transfer recorded while waiting for locks", "transaction_id", existing.ID.String())
		return &transfer.Result{Transaction: existing, Replayed: true}, nil
	}

	// 3. Funds check with the locks held
	sourceBalance, err := s.calculator.Balance(ctx, stores.Ledger, req.SourceAccountID)
	if err != nil {
		return nil, err
	}
	if sourceBalance.LessThan(req.Amount) {
		return nil, transfer.ErrInsufficientFunds{
			AccountID: req.SourceAccountID,
			Available: sourceBalance,
			Requested: req.Amount,
		}
	}

	// 4. Transaction record
	txn := transaction.NewTransfer(req.IdempotencyKey, req.SourceAccountID, req.TargetAccountID, req.Amount)
	if err := stores.Transactions.Create(ctx, txn); err != nil {
		return nil, err
	}

	// 5-6. DEBIT then CREDIT
	debit, credit, err := s.poster.PostTransfer(ctx, stores.Ledger, txn, sourceBalance)
	if err != nil {
		return nil, err
	}

	// 7. Completion
	completed, err := stores.Transactions.MarkCompleted(ctx, txn.ID)
	if err != nil {
		return nil, err
	}

	if err := s.recorder.Record(ctx, stores.Outbox, completed, debit.BalanceAfter, credit.BalanceAfter, req.CorrelationID); err != nil {
		return nil, err
	}

	return &transfer.Result{Transaction: completed}, nil
}

// Fund credits accountID with amount through a GENESIS transaction, at most once per idempotency key
func (s *TransferServiceImpl) Fund(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, idempotencyKey string) (result *transfer.Result, err error) {
	start := time.Now()
	defer func() {
		s.metrics.Observe(string(shared.TransactionKindGenesis), outcome(result, err), time.Since(start))
	}()

	key, err := transfer.NormalizeIdempotencyKey(idempotencyKey)
	if err != nil {
		return nil, err
	}
	if err = transfer.ValidateAmount(amount); err != nil {
		return nil, err
	}

	logger := s.logger.With("account_id", accountID.String())

	err = s.uow.Execute(ctx, func(ctx context.Context, stores Stores) error {
		var txErr error
		result, txErr = s.fund(ctx, stores, accountID, amount, key)
		return txErr
	})
	if err != nil {
		result = nil
		var dupErr transaction.ErrDuplicateIdempotencyKey
		if errors.As(err, &dupErr) {
			return s.replayCommitted(ctx, key, logger)
		}
		s.logFailure(logger, "Funding rejected", "Funding failed", err, "amount", amount.String())
		return nil, err
	}

	if !result.Replayed {
		logger.Info("Account funded", "transaction_id", result.Transaction.ID.String(), "amount", amount.String())
	}
	s.guard.Remember(ctx, result.Transaction)
	return result, nil
}

func (s *TransferServiceImpl) fund(ctx context.Context, stores Stores, accountID uuid.UUID, amount decimal.Decimal, key string) (*transfer.Result, error) {
	existing, err := s.guard.Find(ctx, stores.Transactions, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &transfer.Result{Transaction: existing, Replayed: true}, nil
	}

	if _, err := s.locker.Lock(ctx, stores.Accounts, accountID); err != nil {
		return nil, err
	}

	existing, err = s.guard.Find(ctx, stores.Transactions, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &transfer.Result{Transaction: existing, Replayed: true}, nil
	}

	balance, err := s.calculator.Balance(ctx, stores.Ledger, accountID)
	if err != nil {
		return nil, err
	}

	txn := transaction.NewGenesis(key, accountID, amount)
	if err := stores.Transactions.Create(ctx, txn); err != nil {
		return nil, err
	}

	credit, err := s.poster.PostGenesis(ctx, stores.Ledger, txn, balance)
	if err != nil {
		return nil, err
	}

	completed, err := stores.Transactions.MarkCompleted(ctx, txn.ID)
	if err != nil {
		return nil, err
	}

	if err := s.recorder.Record(ctx, stores.Outbox, completed, credit.BalanceAfter, credit.BalanceAfter, ""); err != nil {
		return nil, err
	}

	return &transfer.Result{Transaction: completed}, nil
}

// GetTransfer retrieves a transaction by id
func (s *TransferServiceImpl) GetTransfer(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return s.uow.Stores().Transactions.GetByID(ctx, id)
}

// replayCommitted answers a request whose key was committed by a concurrent duplicate
func (s *TransferServiceImpl) replayCommitted(ctx context.Context, key string, logger *slog.Logger) (*transfer.Result, error) {
	existing, err := s.uow.Stores().Transactions.FindByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("transaction for idempotency key %q not visible after unique violation", key)
	}

	logger.Info("Replaying transfer committed by a concurrent duplicate", "transaction_id", existing.ID.String())
	s.guard.Remember(ctx, existing)
	return &transfer.Result{Transaction: existing, Replayed: true}, nil
}

func (s *TransferServiceImpl) logFailure(logger *slog.Logger, rejectedMsg, failedMsg string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	if isRejection(err) {
		logger.Warn(rejectedMsg, attrs...)
		return
	}
	logger.Error(failedMsg, attrs...)
}

func isRejection(err error) bool {
	return transfer.IsBusinessRejection(err) || errors.Is(err, account.ErrAccountNotFound{})
}

func outcome(result *transfer.Result, err error) string {
	switch {
	case err == nil && result != nil && result.Replayed:
		return metrics.OutcomeReplayed
	case err == nil:
		return metrics.OutcomeCreated
	case isRejection(err):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}
