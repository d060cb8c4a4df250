package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/transfer-ledger/internal/domain/transaction"
	"github.com/transfer-ledger/internal/domain/transfer"
	engine "github.com/transfer-ledger/internal/transfer_engine/service"
)

// BatchExecutor runs a batch of transfers on the engine worker pool
type BatchExecutor interface {
	ExecuteBatch(ctx context.Context, requests []transfer.Request) ([]engine.BatchOutcome, error)
}

// TransactionServiceImpl implements the TransactionService interface on top of the transfer engine
type TransactionServiceImpl struct {
	engine engine.TransferService
	batch  BatchExecutor
	logger *slog.Logger
}

// NewTransactionService creates a new transaction service
func NewTransactionService(logger *slog.Logger, transfers engine.TransferService, batch BatchExecutor) TransactionService {
	return &TransactionServiceImpl{
		engine: transfers,
		batch:  batch,
		logger: logger,
	}
}

// CreateTransfer rejects a request without idempotency key before it reaches the engine
func (s *TransactionServiceImpl) CreateTransfer(ctx context.Context, req transfer.Request) (*transfer.Result, error) {
	if strings.TrimSpace(req.IdempotencyKey) == "" {
		return nil, transfer.ErrMissingIdempotencyKey
	}
	return s.engine.ExecuteTransfer(ctx, req)
}

// CreateBatch executes every request independently; an item failure never fails the batch
func (s *TransactionServiceImpl) CreateBatch(ctx context.Context, requests []transfer.Request) ([]engine.BatchOutcome, error) {
	outcomes, err := s.batch.ExecuteBatch(ctx, requests)
	if err != nil {
		return nil, err
	}

	failed := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			failed++
		}
	}
	s.logger.Info("Batch transfer processed", "size", len(requests), "failed", failed)
	return outcomes, nil
}

// GetTransfer retrieves a transaction by its ID, returns ErrTransactionNotFound if not found
func (s *TransactionServiceImpl) GetTransfer(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return s.engine.GetTransfer(ctx, id)
}
