package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/transfer-ledger/internal/domain/journal"
	"github.com/transfer-ledger/internal/domain/ledger"
	"github.com/transfer-ledger/internal/domain/transaction"
	"github.com/transfer-ledger/internal/domain/transfer"
	engine "github.com/transfer-ledger/internal/transfer_engine/service"
)

func TestTransactionServiceImpl_CreateTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("MissingKeyNeverReachesEngine", func(t *testing.T) {
		transfers := new(MockTransferEngine)
		svc := NewTransactionService(discardLogger(), transfers, new(MockBatchExecutor))

		_, err := svc.CreateTransfer(ctx, transfer.Request{
			SourceAccountID: uuid.New(),
			TargetAccountID: uuid.New(),
			Amount:          decimal.NewFromInt(1),
		})
		assert.ErrorIs(t, err, transfer.ErrMissingIdempotencyKey)
		transfers.AssertNotCalled(t, "ExecuteTransfer", mock.Anything, mock.Anything)
	})

	t.Run("DelegatesToEngine", func(t *testing.T) {
		transfers := new(MockTransferEngine)
		svc := NewTransactionService(discardLogger(), transfers, new(MockBatchExecutor))

		req := transfer.Request{
			SourceAccountID: uuid.New(),
			TargetAccountID: uuid.New(),
			Amount:          decimal.NewFromInt(150),
			IdempotencyKey:  "key-1",
		}
		txn := transaction.NewTransfer(req.IdempotencyKey, req.SourceAccountID, req.TargetAccountID, req.Amount)
		transfers.On("ExecuteTransfer", ctx, req).Return(&transfer.Result{Transaction: txn}, nil).Once()

		result, err := svc.CreateTransfer(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, txn, result.Transaction)
		assert.False(t, result.Replayed)
		transfers.AssertExpectations(t)
	})
}

func TestTransactionServiceImpl_CreateBatch(t *testing.T) {
	ctx := context.Background()
	batch := new(MockBatchExecutor)
	svc := NewTransactionService(discardLogger(), new(MockTransferEngine), batch)

	requests := []transfer.Request{{IdempotencyKey: "a"}, {IdempotencyKey: "b"}}
	outcomes := []engine.BatchOutcome{
		{Index: 0, Result: &transfer.Result{}},
		{Index: 1, Err: transfer.ErrLockTimeout},
	}
	batch.On("ExecuteBatch", ctx, requests).Return(outcomes, nil).Once()

	got, err := svc.CreateBatch(ctx, requests)
	require.NoError(t, err)
	assert.Equal(t, outcomes, got)

	batch.On("ExecuteBatch", ctx, []transfer.Request(nil)).Return(nil, engine.ErrInvalidBatchSize{Size: 0}).Once()
	_, err = svc.CreateBatch(ctx, nil)
	assert.ErrorAs(t, err, &engine.ErrInvalidBatchSize{})
}

func TestTransactionServiceImpl_GetTransfer(t *testing.T) {
	ctx := context.Background()
	transfers := new(MockTransferEngine)
	svc := NewTransactionService(discardLogger(), transfers, new(MockBatchExecutor))

	id := uuid.New()
	transfers.On("GetTransfer", ctx, id).Return(nil, transaction.ErrTransactionNotFound{TransactionID: id}).Once()

	_, err := svc.GetTransfer(ctx, id)
	assert.ErrorIs(t, err, transaction.ErrTransactionNotFound{})
}

func TestLedgerServiceImpl_GetStatement(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		entries := new(MockLedgerRepository)
		svc := NewLedgerService(accounts, entries)

		acc := newTestAccount(t, "12345678901")
		txID := uuid.New()
		credit := ledger.NewCredit(txID, acc.ID, decimal.NewFromInt(1000), decimal.Zero)
		debit := ledger.NewDebit(uuid.New(), acc.ID, decimal.NewFromInt(150), decimal.NewFromInt(1000))

		accounts.On("GetByID", ctx, acc.ID).Return(acc, nil).Once()
		entries.On("Balance", ctx, acc.ID).Return(decimal.NewFromInt(850), nil).Once()
		entries.On("ListByAccount", ctx, acc.ID, 50, 0).Return([]*ledger.Entry{debit, credit}, nil).Once()
		entries.On("CountByAccount", ctx, acc.ID).Return(int64(2), nil).Once()

		statement, err := svc.GetStatement(ctx, acc.ID, 1, 50)
		require.NoError(t, err)
		assert.Equal(t, acc, statement.Account)
		assert.True(t, statement.CurrentBalance.Equal(decimal.NewFromInt(850)))
		assert.Equal(t, []*ledger.Entry{debit, credit}, statement.Entries)
		assert.Equal(t, int64(2), statement.TotalEntries)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		accounts := new(MockAccountRepository)
		entries := new(MockLedgerRepository)
		svc := NewLedgerService(accounts, entries)

		id := uuid.New()
		accounts.On("GetByID", ctx, id).Return(nil, errors.New("account not found")).Once()

		_, err := svc.GetStatement(ctx, id, 1, 50)
		require.Error(t, err)
		entries.AssertNotCalled(t, "Balance", mock.Anything, mock.Anything)
	})
}

func TestJournalServiceImpl_ListJournal(t *testing.T) {
	ctx := context.Background()
	to := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	from := to.Add(-24 * time.Hour)

	t.Run("Success", func(t *testing.T) {
		repo := new(MockJournalRepository)
		svc := NewJournalService(repo)

		records := []*journal.Record{{TransactionID: uuid.New()}}
		repo.On("ListByTimeRange", ctx, from, to, 10, 10).Return(records, nil).Once()
		repo.On("CountByTimeRange", ctx, from, to).Return(int64(11), nil).Once()

		got, total, err := svc.ListJournal(ctx, from, to, 2, 10)
		require.NoError(t, err)
		assert.Equal(t, records, got)
		assert.Equal(t, int64(11), total)
	})

	t.Run("InvertedRange", func(t *testing.T) {
		repo := new(MockJournalRepository)
		svc := NewJournalService(repo)

		_, _, err := svc.ListJournal(ctx, to, from, 1, 10)
		assert.ErrorAs(t, err, &ErrInvalidTimeRange{})
		repo.AssertNotCalled(t, "ListByTimeRange", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
