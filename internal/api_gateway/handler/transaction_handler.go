package handler

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/transfer-ledger/internal/api_gateway/middleware"
	"github.com/transfer-ledger/internal/api_gateway/service"
	"github.com/transfer-ledger/internal/domain/transaction"
	"github.com/transfer-ledger/internal/domain/transfer"
	engine "github.com/transfer-ledger/internal/transfer_engine/service"
)

// IdempotencyKeyHeader carries the client key of a transfer
const IdempotencyKeyHeader = "Idempotency-Key"

// TransactionHandler handles HTTP requests for transfer operations
type TransactionHandler struct {
	transactionService service.TransactionService
	logger             *slog.Logger
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(logger *slog.Logger, transactionService service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
		logger:             logger,
	}
}

// Create executes a transfer. A new transfer answers 201, a replayed key answers 200
// with the recorded transaction.
func (h *TransactionHandler) Create(c *gin.Context) {
	key := c.GetHeader(IdempotencyKeyHeader)
	logger := h.logger.With("correlation_id", middleware.GetCorrelationID(c))
	if strings.TrimSpace(key) == "" {
		RespondWithServiceError(c, logger, "Rejected transfer without idempotency key", transfer.ErrMissingIdempotencyKey)
		return
	}

	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithBindingError(c, logger, err)
		return
	}

	transferReq, err := toTransferRequest(key, req.SourceAccountID, req.TargetAccountID, req.Amount.String())
	if err != nil {
		RespondWithBindingError(c, logger, err)
		return
	}
	transferReq.CorrelationID = middleware.GetCorrelationID(c)

	result, err := h.transactionService.CreateTransfer(c.Request.Context(), transferReq)
	if err != nil {
		RespondWithServiceError(c, logger, "Failed to execute transfer", err)
		return
	}

	if result.Replayed {
		RespondOK(c, mapTransactionToResponse(result.Transaction))
		return
	}
	RespondCreated(c, mapTransactionToResponse(result.Transaction))
}

// CreateBatch executes up to engine.MaxBatchSize transfers concurrently. The batch answers 200
// and every item carries its own status.
func (h *TransactionHandler) CreateBatch(c *gin.Context) {
	logger := h.logger.With("correlation_id", middleware.GetCorrelationID(c))

	var req BatchTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithBindingError(c, logger, err)
		return
	}
	if size := len(req.Transfers); size == 0 || size > engine.MaxBatchSize {
		RespondWithServiceError(c, logger, "Rejected batch", engine.ErrInvalidBatchSize{Size: size})
		return
	}

	items := make([]BatchItemResponse, len(req.Transfers))
	requests := make([]transfer.Request, 0, len(req.Transfers))
	positions := make([]int, 0, len(req.Transfers))

	for i, item := range req.Transfers {
		items[i].Index = i
		transferReq, err := toTransferRequest(item.IdempotencyKey, item.SourceAccountID, item.TargetAccountID, item.Amount.String())
		if err != nil {
			items[i].Status = BatchStatusFailed
			items[i].Error = &ErrorInfo{Code: CodeValidation, Message: err.Error()}
			continue
		}
		transferReq.CorrelationID = middleware.GetCorrelationID(c)
		requests = append(requests, transferReq)
		positions = append(positions, i)
	}

	if len(requests) > 0 {
		outcomes, err := h.transactionService.CreateBatch(c.Request.Context(), requests)
		if err != nil {
			RespondWithServiceError(c, logger, "Failed to execute batch", err)
			return
		}
		for j, outcome := range outcomes {
			item := &items[positions[j]]
			if outcome.Err != nil {
				_, info := classifyError(outcome.Err)
				item.Status = BatchStatusFailed
				item.Error = info
				continue
			}
			response := mapTransactionToResponse(outcome.Result.Transaction)
			item.Transaction = &response
			item.Status = BatchStatusCreated
			if outcome.Result.Replayed {
				item.Status = BatchStatusReplayed
			}
		}
	}

	RespondOK(c, items)
}

// GetByID retrieves transaction details by its ID, returns 404 if not found
func (h *TransactionHandler) GetByID(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Warn("Invalid transaction ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid transaction ID")
		return
	}

	txn, err := h.transactionService.GetTransfer(c.Request.Context(), id)
	if err != nil {
		RespondWithServiceError(c, h.logger, "Failed to get transaction", err)
		return
	}

	RespondOK(c, mapTransactionToResponse(txn))
}

// toTransferRequest parses the wire representation of a transfer. Business rules
// (key format, distinct accounts, amount precision) are left to the engine.
func toTransferRequest(key, source, target, amount string) (transfer.Request, error) {
	sourceID, err := uuid.Parse(source)
	if err != nil {
		return transfer.Request{}, fmt.Errorf("invalid source_account_id: %w", err)
	}
	targetID, err := uuid.Parse(target)
	if err != nil {
		return transfer.Request{}, fmt.Errorf("invalid target_account_id: %w", err)
	}
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return transfer.Request{}, fmt.Errorf("invalid amount: %w", err)
	}

	return transfer.Request{
		SourceAccountID: sourceID,
		TargetAccountID: targetID,
		Amount:          value,
		IdempotencyKey:  key,
	}, nil
}

// mapTransactionToResponse maps a transaction to a transaction response DTO
func mapTransactionToResponse(txn *transaction.Transaction) TransactionResponse {
	response := TransactionResponse{
		ID:              txn.ID.String(),
		IdempotencyKey:  txn.IdempotencyKey,
		Kind:            string(txn.Kind),
		TargetAccountID: txn.TargetAccountID.String(),
		Amount:          txn.Amount.StringFixed(2),
		Status:          string(txn.Status),
		CreatedAt:       txn.CreatedAt.Format(time.RFC3339),
	}

	if !txn.IsGenesis() {
		response.SourceAccountID = txn.SourceAccountID.String()
	}

	if txn.CompletedAt != nil {
		response.CompletedAt = txn.CompletedAt.Format(time.RFC3339)
	}

	return response
}
