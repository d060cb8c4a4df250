package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/transfer-ledger/internal/api_gateway/service"
	"github.com/transfer-ledger/internal/domain/account"
	"github.com/transfer-ledger/internal/domain/journal"
	"github.com/transfer-ledger/internal/domain/ledger"
	"github.com/transfer-ledger/internal/domain/shared"
)

func TestLedgerHandler_GetStatement(t *testing.T) {
	logger := testLogger()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		acc, err := account.NewAccount("12345678901", "Jane Doe")
		require.NoError(t, err)
		credit := ledger.NewCredit(uuid.New(), acc.ID, decimal.NewFromInt(1000), decimal.Zero)
		debit := ledger.NewDebit(uuid.New(), acc.ID, decimal.NewFromInt(150), decimal.NewFromInt(1000))

		mockService.On("GetStatement", mock.Anything, acc.ID, 1, 50).Return(&service.Statement{
			Account:        acc,
			CurrentBalance: decimal.NewFromInt(850),
			Entries:        []*ledger.Entry{debit, credit},
			TotalEntries:   2,
		}, nil)

		router := setupTestRouter(t)
		router.GET("/ledger/:accountId", handler.GetStatement)

		req, _ := http.NewRequest(http.MethodGet, "/ledger/"+acc.ID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var statement StatementResponse
		env := decodeEnvelope(t, rr, &statement)
		assert.Equal(t, "Jane Doe", statement.AccountName)
		assert.Equal(t, "850.00", statement.CurrentBalance)
		require.Len(t, statement.Entries, 2)
		assert.Equal(t, "DEBIT", statement.Entries[0].EntryType)
		assert.Equal(t, "850.00", statement.Entries[0].BalanceAfter)
		assert.Equal(t, "CREDIT", statement.Entries[1].EntryType)
		assert.Equal(t, 50, env.Meta.PerPage)
		assert.Equal(t, int64(2), env.Meta.TotalItems)
	})

	t.Run("UnknownAccount", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		id := uuid.New()
		mockService.On("GetStatement", mock.Anything, id, 2, 10).Return(nil, account.ErrAccountNotFound{AccountID: id})

		router := setupTestRouter(t)
		router.GET("/ledger/:accountId", handler.GetStatement)

		req, _ := http.NewRequest(http.MethodGet, "/ledger/"+id.String()+"?page=2&per_page=10", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("PerPageAboveLimit", func(t *testing.T) {
		mockService := new(MockLedgerService)
		handler := NewLedgerHandler(logger, mockService)

		router := setupTestRouter(t)
		router.GET("/ledger/:accountId", handler.GetStatement)

		req, _ := http.NewRequest(http.MethodGet, "/ledger/"+uuid.NewString()+"?per_page=101", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "GetStatement", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestJournalHandler_List(t *testing.T) {
	logger := testLogger()

	t.Run("ExplicitRange", func(t *testing.T) {
		mockService := new(MockJournalService)
		handler := NewJournalHandler(logger, mockService)

		from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
		record := &journal.Record{
			TransactionID: uuid.New(),
			Kind:          shared.TransactionKindTransfer,
			Amount:        decimal.NewFromInt(150),
			Status:        shared.TransactionStatusCompleted,
			OccurredAt:    from.Add(time.Hour),
		}
		mockService.On("ListJournal", mock.Anything,
			mock.MatchedBy(func(got time.Time) bool { return got.Equal(from) }),
			mock.MatchedBy(func(got time.Time) bool { return got.Equal(to) }),
			1, 20).Return([]*journal.Record{record}, int64(1), nil)

		router := setupTestRouter(t)
		router.GET("/journal", handler.List)

		req, _ := http.NewRequest(http.MethodGet, "/journal?from=2025-03-01T00:00:00Z&to=2025-03-02T00:00:00Z", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var records []JournalRecordResponse
		decodeEnvelope(t, rr, &records)
		require.Len(t, records, 1)
		assert.Equal(t, "150.00", records[0].Amount)
		assert.Equal(t, "2025-03-01T01:00:00Z", records[0].OccurredAt)
		mockService.AssertExpectations(t)
	})

	t.Run("DefaultWindow", func(t *testing.T) {
		mockService := new(MockJournalService)
		handler := NewJournalHandler(logger, mockService)
		now := time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
		handler.now = func() time.Time { return now }

		mockService.On("ListJournal", mock.Anything, now.Add(-24*time.Hour), now, 1, 20).
			Return([]*journal.Record{}, int64(0), nil)

		router := setupTestRouter(t)
		router.GET("/journal", handler.List)

		req, _ := http.NewRequest(http.MethodGet, "/journal", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("InvertedRange", func(t *testing.T) {
		mockService := new(MockJournalService)
		handler := NewJournalHandler(logger, mockService)

		mockService.On("ListJournal", mock.Anything, mock.Anything, mock.Anything, 1, 20).
			Return(nil, int64(0), service.ErrInvalidTimeRange{})

		router := setupTestRouter(t)
		router.GET("/journal", handler.List)

		req, _ := http.NewRequest(http.MethodGet, "/journal?from=2025-03-02T00:00:00Z&to=2025-03-01T00:00:00Z", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		env := decodeEnvelope(t, rr, nil)
		assert.Equal(t, CodeInvalidTimeRange, env.Error.Code)
	})

	t.Run("MalformedTime", func(t *testing.T) {
		mockService := new(MockJournalService)
		handler := NewJournalHandler(logger, mockService)

		router := setupTestRouter(t)
		router.GET("/journal", handler.List)

		req, _ := http.NewRequest(http.MethodGet, "/journal?from=yesterday", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
