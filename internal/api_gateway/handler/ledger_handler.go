package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/transfer-ledger/internal/api_gateway/service"
	"github.com/transfer-ledger/internal/domain/ledger"
)

// LedgerHandler serves account statements
type LedgerHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

func NewLedgerHandler(logger *slog.Logger, ledgerService service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// GetStatement returns the current balance and a page of entries, newest first
func (h *LedgerHandler) GetStatement(c *gin.Context) {
	idParam := c.Param("accountId")
	accountID, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Warn("Invalid account ID", "account_id", idParam, "error", err)
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	var params StatementParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondWithBindingError(c, h.logger, err)
		return
	}

	statement, err := h.ledgerService.GetStatement(c.Request.Context(), accountID, params.Page, params.PerPage)
	if err != nil {
		RespondWithServiceError(c, h.logger, "Failed to build statement", err)
		return
	}

	entries := make([]EntryResponse, 0, len(statement.Entries))
	for _, entry := range statement.Entries {
		entries = append(entries, mapEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, StatementResponse{
		AccountID:      statement.Account.ID.String(),
		AccountName:    statement.Account.Name,
		CurrentBalance: statement.CurrentBalance.StringFixed(2),
		Entries:        entries,
	}, params.Page, params.PerPage, statement.TotalEntries)
}

func mapEntryToResponse(entry *ledger.Entry) EntryResponse {
	return EntryResponse{
		ID:            entry.ID.String(),
		TransactionID: entry.TransactionID.String(),
		EntryType:     string(entry.Type),
		Amount:        entry.Amount.StringFixed(2),
		BalanceAfter:  entry.BalanceAfter.StringFixed(2),
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339Nano),
	}
}
