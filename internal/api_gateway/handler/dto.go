package handler

import (
	"encoding/json"
	"time"
)

// CreateAccountRequest represents a request to create a new account
type CreateAccountRequest struct {
	Document string `json:"document" binding:"required,max=50"`
	Name     string `json:"name" binding:"required,max=255"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID        string `json:"id"`
	Document  string `json:"document"`
	Name      string `json:"name"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// BalanceResponse exposes the balance identity of an account
type BalanceResponse struct {
	AccountID        string  `json:"account_id"`
	Balance          string  `json:"balance"`
	LastBalanceAfter *string `json:"last_balance_after"`
	Consistent       bool    `json:"consistent"`
}

// CreateTransferRequest represents a transfer body; the idempotency key travels in a header
type CreateTransferRequest struct {
	SourceAccountID string      `json:"source_account_id" binding:"required,uuid"`
	TargetAccountID string      `json:"target_account_id" binding:"required,uuid"`
	Amount          json.Number `json:"amount" binding:"required,money"`
}

// BatchTransferItem is one transfer of a batch. Items are validated one by one so a
// malformed item only fails its own outcome.
type BatchTransferItem struct {
	IdempotencyKey  string      `json:"idempotency_key"`
	SourceAccountID string      `json:"source_account_id"`
	TargetAccountID string      `json:"target_account_id"`
	Amount          json.Number `json:"amount"`
}

// BatchTransferRequest represents a request to execute several transfers
type BatchTransferRequest struct {
	Transfers []BatchTransferItem `json:"transfers" binding:"required"`
}

// TransactionResponse represents a transaction in API responses.
// A GENESIS transaction funds target_account_id from outside the ledger and has no source.
type TransactionResponse struct {
	ID              string `json:"id"`
	IdempotencyKey  string `json:"idempotency_key"`
	Kind            string `json:"kind"`
	SourceAccountID string `json:"source_account_id,omitempty"`
	TargetAccountID string `json:"target_account_id"`
	Amount          string `json:"amount"`
	Status          string `json:"status"`
	CreatedAt       string `json:"created_at"`
	CompletedAt     string `json:"completed_at,omitempty"`
}

// Batch item outcomes
const (
	BatchStatusCreated  = "created"
	BatchStatusReplayed = "replayed"
	BatchStatusFailed   = "failed"
)

// BatchItemResponse is the outcome of one batch item, in request order
type BatchItemResponse struct {
	Index       int                  `json:"index"`
	Status      string               `json:"status"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
	Error       *ErrorInfo           `json:"error,omitempty"`
}

// EntryResponse represents a ledger entry in a statement
type EntryResponse struct {
	ID            string `json:"id"`
	TransactionID string `json:"transaction_id"`
	EntryType     string `json:"entry_type"`
	Amount        string `json:"amount"`
	BalanceAfter  string `json:"balance_after"`
	CreatedAt     string `json:"created_at"`
}

// StatementResponse represents one page of an account statement
type StatementResponse struct {
	AccountID      string          `json:"account_id"`
	AccountName    string          `json:"account_name"`
	CurrentBalance string          `json:"current_balance"`
	Entries        []EntryResponse `json:"entries"`
}

// JournalRecordResponse represents a projected transfer in the reporting journal
type JournalRecordResponse struct {
	TransactionID      string `json:"transaction_id"`
	IdempotencyKey     string `json:"idempotency_key"`
	Kind               string `json:"kind"`
	SourceAccountID    string `json:"source_account_id"`
	TargetAccountID    string `json:"target_account_id"`
	Amount             string `json:"amount"`
	SourceBalanceAfter string `json:"source_balance_after"`
	TargetBalanceAfter string `json:"target_balance_after"`
	Status             string `json:"status"`
	CorrelationID      string `json:"correlation_id,omitempty"`
	OccurredAt         string `json:"occurred_at"`
}

// PaginationParams represents pagination parameters for account listing
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1,max=100000"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}

// StatementParams represents pagination parameters for statements
type StatementParams struct {
	Page    int `form:"page,default=1" binding:"min=1,max=100000"`
	PerPage int `form:"per_page,default=50" binding:"min=1,max=100"`
}

// JournalParams represents the journal query. A missing bound defaults to the last 24 hours.
type JournalParams struct {
	From    time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To      time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page    int       `form:"page,default=1" binding:"min=1,max=100000"`
	PerPage int       `form:"per_page,default=20" binding:"min=1,max=100"`
}
