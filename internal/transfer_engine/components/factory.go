package components

import (
	"log/slog"

	"github.com/transfer-ledger/internal/config"
	redisdata "github.com/transfer-ledger/internal/data/redis"
	"github.com/transfer-ledger/internal/platform/metrics"
	"github.com/transfer-ledger/internal/transfer_engine/service"
)

// CreateTransferService wires the transfer engine and its batch decorator.
// cache may be nil when the replay cache is disabled.
func CreateTransferService(
	uow service.UnitOfWork,
	cache *redisdata.TransferCache,
	transferMetrics *metrics.TransferMetrics,
	logger *slog.Logger,
	cfg *config.Config,
) (*service.TransferServiceImpl, *service.BatchTransferService, error) {
	var replayCache ReplayCache
	if cache != nil {
		replayCache = cache
	}

	calculator := NewBalanceCalculator()
	baseService := service.NewTransferService(
		uow,
		NewRequestValidator(logger),
		NewIdempotencyGuard(replayCache, logger),
		NewAccountLocker(logger),
		calculator,
		NewEntryPoster(calculator, logger),
		NewEventRecorder(logger),
		transferMetrics,
		logger,
	)

	batchService, err := service.NewBatchTransferService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		transferMetrics,
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create batch transfer service", "error", err)
		return nil, nil, err
	}

	logger.Info("Created transfer engine", "pool_size", cfg.WorkerPool.Size, "replay_cache", replayCache != nil)
	return baseService, batchService, nil
}
