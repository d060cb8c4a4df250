package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/transfer-ledger/internal/api_gateway/service"
	"github.com/transfer-ledger/internal/domain/journal"
	"github.com/transfer-ledger/internal/domain/transaction"
	"github.com/transfer-ledger/internal/domain/transfer"
	engine "github.com/transfer-ledger/internal/transfer_engine/service"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, document, name string) (*service.AccountBalance, error) {
	args := m.Called(ctx, document, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AccountBalance), args.Error(1)
}

func (m *MockAccountService) GetAccount(ctx context.Context, id uuid.UUID) (*service.AccountBalance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AccountBalance), args.Error(1)
}

func (m *MockAccountService) ListAccounts(ctx context.Context, page, perPage int) ([]*service.AccountBalance, int64, error) {
	args := m.Called(ctx, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*service.AccountBalance), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountService) CheckBalance(ctx context.Context, id uuid.UUID) (*service.BalanceCheck, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.BalanceCheck), args.Error(1)
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) CreateTransfer(ctx context.Context, req transfer.Request) (*transfer.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Result), args.Error(1)
}

func (m *MockTransactionService) CreateBatch(ctx context.Context, requests []transfer.Request) ([]engine.BatchOutcome, error) {
	args := m.Called(ctx, requests)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]engine.BatchOutcome), args.Error(1)
}

func (m *MockTransactionService) GetTransfer(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Transaction), args.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) GetStatement(ctx context.Context, accountID uuid.UUID, page, perPage int) (*service.Statement, error) {
	args := m.Called(ctx, accountID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Statement), args.Error(1)
}

type MockJournalService struct {
	mock.Mock
}

func (m *MockJournalService) ListJournal(ctx context.Context, from, to time.Time, page, perPage int) ([]*journal.Record, int64, error) {
	args := m.Called(ctx, from, to, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*journal.Record), args.Get(1).(int64), args.Error(2)
}

// envelope mirrors Response with the data left undecoded
type envelope struct {
	Data          json.RawMessage `json:"data"`
	Error         *ErrorInfo      `json:"error"`
	CorrelationID string          `json:"correlation_id"`
	Meta          *MetaInfo       `json:"meta"`
}

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())
	return gin.New()
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), "body: %s", rr.Body.String())
	if data != nil {
		require.NotEmpty(t, env.Data, "'data' field should not be empty")
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}
