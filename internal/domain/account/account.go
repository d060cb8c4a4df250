package account

import (
	"errors"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	MaxDocumentLength = 50
	MaxNameLength     = 255
)

// Common errors
var (
	ErrEmptyDocument   = errors.New("document cannot be empty")
	ErrEmptyName       = errors.New("name cannot be empty")
	ErrDocumentTooLong = errors.New("document must not exceed 50 characters")
	ErrNameTooLong     = errors.New("name must not exceed 255 characters")
)

// Account is an identity record. Its balance is never stored; it is derived from ledger entries.
type Account struct {
	ID        uuid.UUID `json:"id"`
	Document  string    `json:"document"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAccount creates a new account with the given parameters
func NewAccount(document, name string) (*Account, error) {
	document = strings.TrimSpace(document)
	name = strings.TrimSpace(name)

	if document == "" {
		return nil, ErrEmptyDocument
	}
	if utf8.RuneCountInString(document) > MaxDocumentLength {
		return nil, ErrDocumentTooLong
	}
	if name == "" {
		return nil, ErrEmptyName
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return nil, ErrNameTooLong
	}

	now := time.Now().UTC()
	return &Account{
		ID:        uuid.New(),
		Document:  document,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MaskedDocument returns the document in a form safe for logs
func (a *Account) MaskedDocument() string {
	return MaskDocument(a.Document)
}

// MaskDocument keeps the first 3 and last 2 characters, e.g. "123***01"
func MaskDocument(document string) string {
	runes := []rune(document)
	if len(runes) < 4 {
		return "***"
	}
	return string(runes[:3]) + "***" + string(runes[len(runes)-2:])
}

// LockOrder returns the distinct ids sorted by their canonical string form.
// Every caller that locks more than one account must lock in this order.
func LockOrder(ids ...uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	ordered := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].String() < ordered[j].String()
	})
	return ordered
}
