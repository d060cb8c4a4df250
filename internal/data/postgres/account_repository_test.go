package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transfer-ledger/internal/domain/account"
	"github.com/transfer-ledger/internal/domain/transfer"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

var accountColumns = []string{"id", "document", "name", "created_at", "updated_at"}

func TestAccountRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: newTestLogger()}

	now := time.Now()
	acc := &account.Account{
		ID:        uuid.New(),
		Document:  "12345678901",
		Name:      "Maria Silva",
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := regexp.QuoteMeta("INSERT INTO accounts (id, document, name, created_at, updated_at)")

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(acc.ID, acc.Document, acc.Name, acc.CreatedAt, acc.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(ctx, acc)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate document", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(acc.ID, acc.Document, acc.Name, acc.CreatedAt, acc.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_document_key"})

		err := repo.Create(ctx, acc)
		var dupErr account.ErrDuplicateDocument
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, acc.Document, dupErr.Document)
		assert.NotContains(t, err.Error(), acc.Document)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation on another constraint", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(acc.ID, acc.Document, acc.Name, acc.CreatedAt, acc.UpdatedAt).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "accounts_pkey"})

		err := repo.Create(ctx, acc)
		assert.Error(t, err)
		var dupErr account.ErrDuplicateDocument
		assert.False(t, errors.As(err, &dupErr))
		assert.Contains(t, err.Error(), "failed to create account")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mock.ExpectExec(query).
			WithArgs(acc.ID, acc.Document, acc.Name, acc.CreatedAt, acc.UpdatedAt).
			WillReturnError(expectedErr)

		err := repo.Create(ctx, acc)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create account")
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: newTestLogger()}
	accID := uuid.New()
	now := time.Now()

	expected := &account.Account{
		ID:        accID,
		Document:  "12345678901",
		Name:      "Maria Silva",
		CreatedAt: now,
		UpdatedAt: now,
	}

	query := regexp.QuoteMeta("FROM accounts WHERE id = $1")

	t.Run("success", func(t *testing.T) {
		rows := pgxmock.NewRows(accountColumns).
			AddRow(expected.ID, expected.Document, expected.Name, expected.CreatedAt, expected.UpdatedAt)
		mock.ExpectQuery(query).WithArgs(accID).WillReturnRows(rows)

		acc, err := repo.GetByID(ctx, accID)
		assert.NoError(t, err)
		assert.Equal(t, expected, acc)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(accID).WillReturnError(pgx.ErrNoRows)

		acc, err := repo.GetByID(ctx, accID)
		assert.Nil(t, acc)
		var notFound account.ErrAccountNotFound
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, accID, notFound.AccountID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("some db error")
		mock.ExpectQuery(query).WithArgs(accID).WillReturnError(dbErr)

		acc, err := repo.GetByID(ctx, accID)
		assert.Nil(t, acc)
		assert.Contains(t, err.Error(), "failed to get account")
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_GetByDocument(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: newTestLogger()}
	document := "12345678901"
	now := time.Now()
	query := regexp.QuoteMeta("FROM accounts WHERE document = $1")

	t.Run("success", func(t *testing.T) {
		id := uuid.New()
		rows := pgxmock.NewRows(accountColumns).AddRow(id, document, "Maria Silva", now, now)
		mock.ExpectQuery(query).WithArgs(document).WillReturnRows(rows)

		acc, err := repo.GetByDocument(ctx, document)
		require.NoError(t, err)
		require.NotNil(t, acc)
		assert.Equal(t, id, acc.ID)
		assert.Equal(t, document, acc.Document)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent returns nil without error", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(document).WillReturnError(pgx.ErrNoRows)

		acc, err := repo.GetByDocument(ctx, document)
		assert.NoError(t, err)
		assert.Nil(t, acc)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(document).WillReturnError(errors.New("boom"))

		acc, err := repo.GetByDocument(ctx, document)
		assert.Nil(t, acc)
		assert.Contains(t, err.Error(), "failed to get account by document")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_ListAndCount(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AccountRepository{querier: mock, logger: newTestLogger()}
	now := time.Now()
	first, second := uuid.New(), uuid.New()

	rows := pgxmock.NewRows(accountColumns).
		AddRow(first, "11111111111", "Ana", now, now).
		AddRow(second, "22222222222", "Bruno", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at ASC, id ASC LIMIT $1 OFFSET $2")).
		WithArgs(20, 0).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM accounts")).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(2)))

	accounts, err := repo.List(ctx, 20, 0)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, first, accounts[0].ID)
	assert.Equal(t, "Bruno", accounts[1].Name)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_LockManyForUpdate(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("ffffffff-0000-0000-0000-000000000001")

	setTimeout := regexp.QuoteMeta("SELECT set_config('lock_timeout', $1, true)")
	lockQuery := regexp.QuoteMeta("FROM accounts WHERE id = $1 FOR UPDATE")

	t.Run("locks in ascending id order regardless of argument order", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := &AccountRepository{querier: mock, logger: newTestLogger(), lockTimeout: 5 * time.Second}

		mock.ExpectExec(setTimeout).WithArgs("5000ms").WillReturnResult(pgxmock.NewResult("SELECT", 1))
		mock.ExpectQuery(lockQuery).WithArgs(low).
			WillReturnRows(pgxmock.NewRows(accountColumns).AddRow(low, "11111111111", "Low", now, now))
		mock.ExpectQuery(lockQuery).WithArgs(high).
			WillReturnRows(pgxmock.NewRows(accountColumns).AddRow(high, "22222222222", "High", now, now))

		locked, err := repo.LockManyForUpdate(ctx, []uuid.UUID{high, low, high})
		require.NoError(t, err)
		require.Len(t, locked, 2)
		assert.Equal(t, low, locked[0].ID)
		assert.Equal(t, high, locked[1].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing account", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := &AccountRepository{querier: mock, logger: newTestLogger()}

		mock.ExpectQuery(lockQuery).WithArgs(low).WillReturnError(pgx.ErrNoRows)

		locked, err := repo.LockManyForUpdate(ctx, []uuid.UUID{high, low})
		assert.Nil(t, locked)
		assert.ErrorIs(t, err, account.ErrAccountNotFound{AccountID: low})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("lock timeout", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := &AccountRepository{querier: mock, logger: newTestLogger(), lockTimeout: 250 * time.Millisecond}

		mock.ExpectExec(setTimeout).WithArgs("250ms").WillReturnResult(pgxmock.NewResult("SELECT", 1))
		mock.ExpectQuery(lockQuery).WithArgs(low).
			WillReturnRows(pgxmock.NewRows(accountColumns).AddRow(low, "11111111111", "Low", now, now))
		mock.ExpectQuery(lockQuery).WithArgs(high).
			WillReturnError(&pgconn.PgError{Code: "55P03", Message: "canceling statement due to lock timeout"})

		locked, err := repo.LockManyForUpdate(ctx, []uuid.UUID{low, high})
		assert.Nil(t, locked)
		assert.ErrorIs(t, err, transfer.ErrLockTimeout)
		assert.Contains(t, err.Error(), high.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("set lock timeout fails", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()
		repo := &AccountRepository{querier: mock, logger: newTestLogger(), lockTimeout: time.Second}

		mock.ExpectExec(setTimeout).WithArgs("1000ms").WillReturnError(errors.New("conn closed"))

		_, err = repo.LockManyForUpdate(ctx, []uuid.UUID{low})
		assert.ErrorContains(t, err, "failed to set lock timeout")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountRepository_WithTx(t *testing.T) {
	repo := &AccountRepository{querier: nil, logger: newTestLogger(), lockTimeout: time.Second}

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	tx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	txRepo, ok := repo.WithTx(tx).(*AccountRepository)
	require.True(t, ok)
	assert.Equal(t, tx, txRepo.querier)
	assert.Equal(t, time.Second, txRepo.lockTimeout)
}
