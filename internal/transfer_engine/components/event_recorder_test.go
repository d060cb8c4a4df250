package components

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/transfer-ledger/internal/domain/outbox"
	"github.com/transfer-ledger/internal/domain/shared"
)

func TestEventRecorder_Record(t *testing.T) {
	ctx := context.Background()
	recorder := NewEventRecorder(slog.Default())

	t.Run("Success", func(t *testing.T) {
		repo := &MockOutboxRepo{}
		txn := completedTransfer(t, "k1")

		var created *outbox.Message
		repo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Run(func(args mock.Arguments) {
			created = args.Get(1).(*outbox.Message)
		}).Return(nil)

		err := recorder.Record(ctx, repo, txn, decimal.RequireFromString("850.00"), decimal.RequireFromString("150.00"), "corr-1")
		require.NoError(t, err)
		require.NotNil(t, created)

		assert.Equal(t, txn.ID, created.TransactionID)
		assert.Equal(t, shared.EventTypeTransferCompleted, created.EventType)
		assert.Equal(t, shared.OutboxStatusPending, created.Status)

		event, err := created.GetEvent()
		require.NoError(t, err)
		assert.Equal(t, txn.ID, event.TransactionID)
		assert.Equal(t, "k1", event.IdempotencyKey)
		assert.Equal(t, shared.TransactionStatusCompleted, event.Status)
		assert.Equal(t, "corr-1", event.CorrelationID)
		assert.True(t, event.SourceBalanceAfter.Equal(decimal.RequireFromString("850")))
		assert.True(t, event.TargetBalanceAfter.Equal(decimal.RequireFromString("150")))
		assert.True(t, event.OccurredAt.Equal(*txn.CompletedAt))
		assert.NoError(t, event.Validate())
	})

	t.Run("CreateFailure", func(t *testing.T) {
		repo := &MockOutboxRepo{}
		txn := completedTransfer(t, "k2")
		dbErr := errors.New("db down")
		repo.On("Create", ctx, mock.AnythingOfType("*outbox.Message")).Return(dbErr)

		err := recorder.Record(ctx, repo, txn, decimal.Zero, decimal.Zero, "")
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to create outbox message")
	})
}
