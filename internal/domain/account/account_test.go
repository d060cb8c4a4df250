package account

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAccount(t *testing.T) {
	t.Run("SuccessfulCreation", func(t *testing.T) {
		beforeCreation := time.Now()
		account, err := NewAccount("  12345678901 ", " John Doe ")
		afterCreation := time.Now()

		require.NoError(t, err)
		require.NotNil(t, account)

		assert.NotEqual(t, uuid.Nil, account.ID, "Account ID should not be nil")
		assert.Equal(t, "12345678901", account.Document)
		assert.Equal(t, "John Doe", account.Name)
		assert.WithinDuration(t, beforeCreation, account.CreatedAt, afterCreation.Sub(beforeCreation)+time.Millisecond)
		assert.Equal(t, account.CreatedAt, account.UpdatedAt)
	})

	testCases := []struct {
		name     string
		document string
		owner    string
		expected error
	}{
		{"EmptyDocument", "   ", "John", ErrEmptyDocument},
		{"DocumentTooLong", strings.Repeat("9", MaxDocumentLength+1), "John", ErrDocumentTooLong},
		{"EmptyName", "123", "", ErrEmptyName},
		{"NameTooLong", "123", strings.Repeat("a", MaxNameLength+1), ErrNameTooLong},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			account, err := NewAccount(tc.document, tc.owner)
			assert.Nil(t, account)
			assert.ErrorIs(t, err, tc.expected)
		})
	}
}

func TestMaskDocument(t *testing.T) {
	assert.Equal(t, "123***01", MaskDocument("12345678901"))
	assert.Equal(t, "abc***ef", MaskDocument("abcdef"))
	assert.Equal(t, "123***34", MaskDocument("1234"))
	assert.Equal(t, "***", MaskDocument("123"))
	assert.Equal(t, "***", MaskDocument(""))

	acc := &Account{Document: "98765432100"}
	assert.Equal(t, "987***00", acc.MaskedDocument())
}

func TestLockOrder(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	c := uuid.MustParse("f0000000-0000-0000-0000-000000000000")

	assert.Equal(t, []uuid.UUID{a, b}, LockOrder(b, a))
	assert.Equal(t, []uuid.UUID{a, b}, LockOrder(a, b))
	assert.Equal(t, []uuid.UUID{a, b, c}, LockOrder(c, a, b, a))
	assert.Equal(t, []uuid.UUID{a}, LockOrder(a, a))
	assert.Empty(t, LockOrder())
}

func TestErrAccountNotFound_Is(t *testing.T) {
	id := uuid.New()
	err := fmt.Errorf("lock: %w", ErrAccountNotFound{AccountID: id})

	assert.True(t, errors.Is(err, ErrAccountNotFound{}))
	assert.True(t, errors.Is(err, ErrAccountNotFound{AccountID: id}))
	assert.False(t, errors.Is(err, ErrAccountNotFound{AccountID: uuid.New()}))
	assert.Equal(t, "account not found: "+id.String(), ErrAccountNotFound{AccountID: id}.Error())
}

func TestErrDuplicateDocument_DoesNotLeakDocument(t *testing.T) {
	err := ErrDuplicateDocument{Document: "12345678901"}
	assert.Equal(t, "account with document already exists: 123***01", err.Error())
}
