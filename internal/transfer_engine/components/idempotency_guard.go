package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/transfer-ledger/internal/domain/transaction"
	"github.com/transfer-ledger/internal/transfer_engine/service"
)

// ReplayCache is the optional cache of completed transactions consulted before the store
type ReplayCache interface {
	Get(ctx context.Context, idempotencyKey string) (*transaction.Transaction, bool, error)
	Put(ctx context.Context, txn *transaction.Transaction) error
}

type IdempotencyGuardImpl struct {
	cache  ReplayCache
	logger *slog.Logger
}

// NewIdempotencyGuard creates a guard; cache may be nil
func NewIdempotencyGuard(cache ReplayCache, logger *slog.Logger) service.IdempotencyGuard {
	return &IdempotencyGuardImpl{
		cache:  cache,
		logger: logger,
	}
}

// Cached returns the transaction cached under key. Cache faults are logged and treated as a miss
// because the transaction store remains authoritative.
func (g *IdempotencyGuardImpl) Cached(ctx context.Context, key string) *transaction.Transaction {
	if g.cache == nil {
		return nil
	}
	txn, hit, err := g.cache.Get(ctx, key)
	if err != nil {
		g.logger.Warn("Replay cache lookup failed", "idempotency_key", key, "error", err)
		return nil
	}
	if !hit {
		return nil
	}
	return txn
}

// Find looks the key up in the transaction store of the current unit of work
func (g *IdempotencyGuardImpl) Find(ctx context.Context, transactions transaction.Repository, key string) (*transaction.Transaction, error) {
	existing, err := transactions.FindByIdempotencyKey(ctx, key)
	if err != nil {
		g.logger.Error("Failed to check idempotency key", "idempotency_key", key, "error", err)
		return nil, fmt.Errorf("idempotency check failed for key %q: %w", key, err)
	}
	return existing, nil
}

// Remember caches a completed transaction; failures only cost a store round trip later
func (g *IdempotencyGuardImpl) Remember(ctx context.Context, txn *transaction.Transaction) {
	if g.cache == nil || txn == nil {
		return
	}
	if err := g.cache.Put(ctx, txn); err != nil {
		g.logger.Warn("Failed to cache transaction", "transaction_id", txn.ID.String(), "error", err)
	}
}
