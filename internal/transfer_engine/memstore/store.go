// Package memstore is an in-memory implementation of the transfer engine's unit of work.
// It keeps the guarantees the engine relies on from PostgreSQL: per-account exclusive
// locks held until the unit ends with a bounded wait, all-or-nothing commit of buffered
// writes, and a unique idempotency key. It backs the engine and HTTP tests.
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/transfer-ledger/internal/domain/account"
	"github.com/transfer-ledger/internal/domain/ledger"
	"github.com/transfer-ledger/internal/domain/outbox"
	"github.com/transfer-ledger/internal/domain/transaction"
	"github.com/transfer-ledger/internal/domain/transfer"
	"github.com/transfer-ledger/internal/transfer_engine/service"
)

// DefaultLockTimeout matches the default POSTGRES_LOCK_TIMEOUT
const DefaultLockTimeout = 5 * time.Second

var errNoUnitOfWork = errors.New("account locks require a unit of work")

type Store struct {
	mu          sync.Mutex
	lockTimeout time.Duration

	accounts     map[uuid.UUID]*account.Account
	accountOrder []uuid.UUID
	documents    map[string]uuid.UUID
	locks        map[uuid.UUID]chan struct{}

	transactions map[uuid.UUID]*transaction.Transaction
	keys         map[string]uuid.UUID
	entries      []*ledger.Entry
	messages     []*outbox.Message
	nextOutboxID int64
}

// New creates an empty store; lockTimeout <= 0 selects DefaultLockTimeout
func New(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{
		lockTimeout:  lockTimeout,
		accounts:     make(map[uuid.UUID]*account.Account),
		documents:    make(map[string]uuid.UUID),
		locks:        make(map[uuid.UUID]chan struct{}),
		transactions: make(map[uuid.UUID]*transaction.Transaction),
		keys:         make(map[string]uuid.UUID),
	}
}

// Stores returns repositories that read committed state and write through immediately
func (s *Store) Stores() service.Stores {
	return s.storesFor(nil)
}

// Execute runs fn in a unit of work. Writes become visible to other units only when fn
// returns nil; locks are released when Execute returns, including on panic.
func (s *Store) Execute(ctx context.Context, fn func(ctx context.Context, stores service.Stores) error) error {
	u := &unit{
		store:        s,
		held:         make(map[uuid.UUID]struct{}),
		transactions: make(map[uuid.UUID]*transaction.Transaction),
		keys:         make(map[string]uuid.UUID),
	}
	defer u.release()

	if err := fn(ctx, s.storesFor(u)); err != nil {
		return err
	}
	return s.commit(u)
}

func (s *Store) storesFor(u *unit) service.Stores {
	return service.Stores{
		Accounts:     &accountRepository{store: s, unit: u},
		Ledger:       &ledgerRepository{store: s, unit: u},
		Transactions: &transactionRepository{store: s, unit: u},
		Outbox:       &outboxRepository{store: s, unit: u},
	}
}

// Entries returns every committed entry in posting order
func (s *Store) Entries() []*ledger.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ledger.Entry, len(s.entries))
	for i, e := range s.entries {
		cp := *e
		out[i] = &cp
	}
	return out
}

// Messages returns every committed outbox message in id order
func (s *Store) Messages() []*outbox.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*outbox.Message, len(s.messages))
	for i, m := range s.messages {
		cp := *m
		out[i] = &cp
	}
	return out
}

// TransactionCount returns the number of committed transactions
func (s *Store) TransactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transactions)
}

func (s *Store) commit(u *unit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, id := range u.keys {
		if existing, ok := s.keys[key]; ok && existing != id {
			return transaction.ErrDuplicateIdempotencyKey{Key: key}
		}
	}

	for id, txn := range u.transactions {
		s.transactions[id] = txn
		s.keys[txn.IdempotencyKey] = id
	}
	s.entries = append(s.entries, u.entries...)
	s.messages = append(s.messages, u.messages...)
	return nil
}

func (s *Store) lockFor(id uuid.UUID) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.locks[id]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[id] = ch
	}
	return ch
}

func (s *Store) acquire(ctx context.Context, id uuid.UUID) error {
	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()

	select {
	case s.lockFor(id) <- struct{}{}:
		return nil
	case <-timer.C:
		return fmt.Errorf("account %s: %w", id, transfer.ErrLockTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// unit buffers the writes of one Execute call
type unit struct {
	store        *Store
	held         map[uuid.UUID]struct{}
	transactions map[uuid.UUID]*transaction.Transaction
	keys         map[string]uuid.UUID
	entries      []*ledger.Entry
	messages     []*outbox.Message
}

func (u *unit) release() {
	for id := range u.held {
		<-u.store.lockFor(id)
	}
	u.held = nil
}
