package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/transfer-ledger/internal/domain/transfer"
	"github.com/transfer-ledger/internal/platform/metrics"
)

// MaxBatchSize bounds the number of transfers accepted in one batch
const MaxBatchSize = 100

// ErrInvalidBatchSize indicates an empty or oversized batch
type ErrInvalidBatchSize struct {
	Size int
}

func (e ErrInvalidBatchSize) Error() string {
	return fmt.Sprintf("batch must contain between 1 and %d transfers, got %d", MaxBatchSize, e.Size)
}

// BatchOutcome is the result of one item of a batch, in request order
type BatchOutcome struct {
	Index  int
	Result *transfer.Result
	Err    error
}

// BatchTransferService executes independent transfers concurrently on a bounded worker pool.
// Each item keeps its own idempotency key and its own outcome.
type BatchTransferService struct {
	base    TransferService
	pool    *ants.Pool
	metrics *metrics.TransferMetrics
	logger  *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewBatchTransferService(
	base TransferService,
	config WorkerPoolConfig,
	transferMetrics *metrics.TransferMetrics,
	logger *slog.Logger,
) (*BatchTransferService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &BatchTransferService{
		base:    base,
		pool:    pool,
		metrics: transferMetrics,
		logger:  logger,
	}, nil
}

// ExecuteBatch submits every request to the pool and waits for all of them
func (s *BatchTransferService) ExecuteBatch(ctx context.Context, requests []transfer.Request) ([]BatchOutcome, error) {
	if len(requests) == 0 || len(requests) > MaxBatchSize {
		return nil, ErrInvalidBatchSize{Size: len(requests)}
	}
	s.metrics.ObserveBatch(len(requests))

	outcomes := make([]BatchOutcome, len(requests))
	var wg sync.WaitGroup

	for i := range requests {
		req := requests[i]
		outcomes[i].Index = i

		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			outcomes[i].Result, outcomes[i].Err = s.base.ExecuteTransfer(ctx, req)
		})
		if err != nil {
			wg.Done()
			s.logger.Error("Failed to submit transfer to worker pool", "index", i, "error", err)
			outcomes[i].Err = fmt.Errorf("failed to submit transfer to worker pool: %w", err)
		}
	}

	wg.Wait()
	return outcomes, nil
}

// Shutdown gracefully shuts down the worker pool.
func (s *BatchTransferService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *BatchTransferService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *BatchTransferService) Capacity() int {
	return s.pool.Cap()
}
