package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes translated into domain errors by the repositories
const (
	UniqueViolationCode  = "23505"
	LockNotAvailableCode = "55P03"
)

// UniqueViolation reports whether err is a unique constraint violation and returns the constraint name
func UniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == UniqueViolationCode {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// IsLockNotAvailable reports whether err was raised because lock_timeout expired
func IsLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == LockNotAvailableCode
}
