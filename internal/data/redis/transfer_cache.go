// Package redis caches completed transfers by idempotency key so replays can be
// answered without touching PostgreSQL. The cache is an accelerator only: the
// transactions table stays the source of truth for idempotency.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/transfer-ledger/internal/domain/shared"
	"github.com/transfer-ledger/internal/domain/transaction"
)

const keyPrefix = "transfer-ledger:idempotency:"

type cmdable interface {
	Get(context.Context, string) *redis.StringCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
}

// TransferCache stores completed transactions keyed by idempotency key.
// A nil *TransferCache is a valid, always-missing cache.
type TransferCache struct {
	store  cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewTransferCache wraps client; entries expire after ttl
func NewTransferCache(logger *slog.Logger, client *redis.Client, ttl time.Duration) *TransferCache {
	return &TransferCache{
		store:  client,
		ttl:    ttl,
		logger: logger,
	}
}

// Key returns the redis key for an idempotency key
func Key(idempotencyKey string) string {
	return keyPrefix + idempotencyKey
}

// Get returns the cached transaction and true on a hit
func (c *TransferCache) Get(ctx context.Context, idempotencyKey string) (*transaction.Transaction, bool, error) {
	if c == nil || c.store == nil {
		return nil, false, nil
	}

	raw, err := c.store.Get(ctx, Key(idempotencyKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached transfer: %w", err)
	}

	var txn transaction.Transaction
	if err := json.Unmarshal(raw, &txn); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached transfer: %w", err)
	}
	return &txn, true, nil
}

// Put caches a completed transaction. Non-completed transactions are never cached.
func (c *TransferCache) Put(ctx context.Context, txn *transaction.Transaction) error {
	if c == nil || c.store == nil || txn == nil {
		return nil
	}
	if txn.Status != shared.TransactionStatusCompleted {
		return nil
	}

	payload, err := json.Marshal(txn)
	if err != nil {
		return fmt.Errorf("failed to encode transfer for cache: %w", err)
	}

	if err := c.store.Set(ctx, Key(txn.IdempotencyKey), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache transfer: %w", err)
	}

	c.logger.Debug("Cached completed transfer",
		"transaction_id", txn.ID.String(),
		"ttl", c.ttl.String())
	return nil
}
