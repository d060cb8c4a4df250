package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/transfer-ledger/internal/domain/account"
	"github.com/transfer-ledger/internal/domain/ledger"
	"github.com/transfer-ledger/internal/domain/outbox"
	"github.com/transfer-ledger/internal/domain/shared"
	"github.com/transfer-ledger/internal/domain/transaction"
)

type accountRepository struct {
	store *Store
	unit  *unit
}

func (r *accountRepository) WithTx(pgx.Tx) account.Repository { return r }

func (r *accountRepository) Create(ctx context.Context, acc *account.Account) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[acc.Document]; ok {
		return account.ErrDuplicateDocument{Document: acc.Document}
	}
	cp := *acc
	s.accounts[acc.ID] = &cp
	s.accountOrder = append(s.accountOrder, acc.ID)
	s.documents[acc.Document] = acc.ID
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}
	cp := *acc
	return &cp, nil
}

func (r *accountRepository) GetByDocument(ctx context.Context, document string) (*account.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.documents[document]
	if !ok {
		return nil, nil
	}
	cp := *s.accounts[id]
	return &cp, nil
}

func (r *accountRepository) List(ctx context.Context, limit, offset int) ([]*account.Account, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := make([]*account.Account, 0)
	for _, id := range page(s.accountOrder, limit, offset) {
		cp := *s.accounts[id]
		accounts = append(accounts, &cp)
	}
	return accounts, nil
}

func (r *accountRepository) Count(ctx context.Context) (int64, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.accounts)), nil
}

// LockManyForUpdate locks the distinct ids in account.LockOrder whatever order the caller
// passes; ids already held by the unit are skipped
func (r *accountRepository) LockManyForUpdate(ctx context.Context, ids []uuid.UUID) ([]*account.Account, error) {
	if r.unit == nil {
		return nil, errNoUnitOfWork
	}

	ordered := account.LockOrder(ids...)
	locked := make([]*account.Account, 0, len(ordered))
	for _, id := range ordered {
		acc, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if _, held := r.unit.held[id]; !held {
			if err := r.store.acquire(ctx, id); err != nil {
				return nil, err
			}
			r.unit.held[id] = struct{}{}
		}
		locked = append(locked, acc)
	}
	return locked, nil
}

type ledgerRepository struct {
	store *Store
	unit  *unit
}

func (r *ledgerRepository) WithTx(pgx.Tx) ledger.Repository { return r }

func (r *ledgerRepository) Append(ctx context.Context, entry *ledger.Entry) error {
	if entry.Amount.IsNegative() {
		return ledger.ErrInvalidEntry{EntryID: entry.ID, Reason: "amount must not be negative"}
	}
	if entry.BalanceAfter.IsNegative() {
		return ledger.ErrInvalidEntry{EntryID: entry.ID, Reason: "balance after must not be negative"}
	}

	cp := *entry
	if r.unit != nil {
		r.unit.entries = append(r.unit.entries, &cp)
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.entries = append(r.store.entries, &cp)
	return nil
}

// visible returns committed entries followed by the unit's buffered entries, in posting order
func (r *ledgerRepository) visible(match func(*ledger.Entry) bool) []*ledger.Entry {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*ledger.Entry
	collect := func(entries []*ledger.Entry) {
		for _, e := range entries {
			if match(e) {
				cp := *e
				out = append(out, &cp)
			}
		}
	}
	collect(s.entries)
	if r.unit != nil {
		collect(r.unit.entries)
	}
	return out
}

func (r *ledgerRepository) byAccount(accountID uuid.UUID) []*ledger.Entry {
	return r.visible(func(e *ledger.Entry) bool { return e.AccountID == accountID })
}

func (r *ledgerRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Entry, error) {
	entries := r.byAccount(accountID)
	newestFirst := make([]*ledger.Entry, len(entries))
	for i, e := range entries {
		newestFirst[len(entries)-1-i] = e
	}
	return page(newestFirst, limit, offset), nil
}

func (r *ledgerRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	return int64(len(r.byAccount(accountID))), nil
}

func (r *ledgerRepository) ListByTransaction(ctx context.Context, transactionID uuid.UUID) ([]*ledger.Entry, error) {
	return r.visible(func(e *ledger.Entry) bool { return e.TransactionID == transactionID }), nil
}

func (r *ledgerRepository) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	return ledger.Balance(r.byAccount(accountID)), nil
}

func (r *ledgerRepository) LatestBalanceAfter(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, bool, error) {
	entries := r.byAccount(accountID)
	if len(entries) == 0 {
		return decimal.Zero, false, nil
	}
	return entries[len(entries)-1].BalanceAfter, true, nil
}

type transactionRepository struct {
	store *Store
	unit  *unit
}

func (r *transactionRepository) WithTx(pgx.Tx) transaction.Repository { return r }

// lookup returns the transaction the caller can see; must hold store.mu
func (r *transactionRepository) lookup(id uuid.UUID) (*transaction.Transaction, bool) {
	if r.unit != nil {
		if txn, ok := r.unit.transactions[id]; ok {
			return txn, true
		}
	}
	txn, ok := r.store.transactions[id]
	return txn, ok
}

func (r *transactionRepository) FindByIdempotencyKey(ctx context.Context, key string) (*transaction.Transaction, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.keys[key]
	if !ok && r.unit != nil {
		id, ok = r.unit.keys[key]
	}
	if !ok {
		return nil, nil
	}
	txn, _ := r.lookup(id)
	cp := *txn
	return &cp, nil
}

func (r *transactionRepository) Create(ctx context.Context, txn *transaction.Transaction) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keys[txn.IdempotencyKey]; ok {
		return transaction.ErrDuplicateIdempotencyKey{Key: txn.IdempotencyKey}
	}

	cp := *txn
	if r.unit != nil {
		if _, ok := r.unit.keys[txn.IdempotencyKey]; ok {
			return transaction.ErrDuplicateIdempotencyKey{Key: txn.IdempotencyKey}
		}
		r.unit.transactions[txn.ID] = &cp
		r.unit.keys[txn.IdempotencyKey] = txn.ID
		return nil
	}
	s.transactions[txn.ID] = &cp
	s.keys[txn.IdempotencyKey] = txn.ID
	return nil
}

func (r *transactionRepository) MarkCompleted(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := r.lookup(id)
	if !ok || current.Status == shared.TransactionStatusFailed {
		return nil, transaction.ErrTransactionNotFound{TransactionID: id}
	}

	updated := *current
	if err := updated.MarkCompleted(); err != nil {
		return nil, err
	}
	if r.unit != nil {
		r.unit.transactions[id] = &updated
		r.unit.keys[updated.IdempotencyKey] = id
	} else {
		s.transactions[id] = &updated
	}

	cp := updated
	return &cp, nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := r.lookup(id)
	if !ok {
		return nil, transaction.ErrTransactionNotFound{TransactionID: id}
	}
	cp := *txn
	return &cp, nil
}

type outboxRepository struct {
	store *Store
	unit  *unit
}

func (r *outboxRepository) WithTx(pgx.Tx) outbox.Repository { return r }

func (r *outboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range r.all() {
		if m.TransactionID == message.TransactionID {
			return outbox.ErrDuplicateMessage{TransactionID: message.TransactionID}
		}
	}

	s.nextOutboxID++
	message.ID = s.nextOutboxID
	cp := *message
	if r.unit != nil {
		r.unit.messages = append(r.unit.messages, &cp)
		return nil
	}
	s.messages = append(s.messages, &cp)
	return nil
}

// all returns committed then buffered messages; must hold store.mu
func (r *outboxRepository) all() []*outbox.Message {
	if r.unit == nil {
		return r.store.messages
	}
	out := make([]*outbox.Message, 0, len(r.store.messages)+len(r.unit.messages))
	out = append(out, r.store.messages...)
	return append(out, r.unit.messages...)
}

func (r *outboxRepository) find(id int64) *outbox.Message {
	for _, m := range r.all() {
		if m.ID == id {
			return m
		}
	}
	return nil
}

func (r *outboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*outbox.Message
	for _, m := range r.all() {
		if m.Status == shared.OutboxStatusPending {
			cp := *m
			pending = append(pending, &cp)
		}
	}
	sort.Slice(pending, func(i, j int) bool { return pending[i].ID < pending[j].ID })
	return page(pending, limit, 0), nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	m := r.find(id)
	if m == nil {
		return outbox.ErrMessageNotFound{ID: id}
	}
	switch status {
	case shared.OutboxStatusProcessed:
		m.MarkAsProcessed()
	case shared.OutboxStatusFailedToPublish:
		m.MarkAsFailed()
	default:
		m.Status = status
	}
	return nil
}

func (r *outboxRepository) IncrementAttempts(ctx context.Context, id int64) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	m := r.find(id)
	if m == nil {
		return outbox.ErrMessageNotFound{ID: id}
	}
	m.IncrementAttempts()
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
