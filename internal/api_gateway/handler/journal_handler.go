package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/transfer-ledger/internal/api_gateway/service"
	"github.com/transfer-ledger/internal/domain/journal"
)

const defaultJournalWindow = 24 * time.Hour

// JournalHandler serves the eventually consistent transfer journal
type JournalHandler struct {
	journalService service.JournalService
	logger         *slog.Logger
	now            func() time.Time
}

func NewJournalHandler(logger *slog.Logger, journalService service.JournalService) *JournalHandler {
	return &JournalHandler{
		journalService: journalService,
		logger:         logger,
		now:            time.Now,
	}
}

// List returns journal records in [from, to], newest first
func (h *JournalHandler) List(c *gin.Context) {
	var params JournalParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondWithBindingError(c, h.logger, err)
		return
	}

	to := params.To
	if to.IsZero() {
		to = h.now().UTC()
	}
	from := params.From
	if from.IsZero() {
		from = to.Add(-defaultJournalWindow)
	}

	records, total, err := h.journalService.ListJournal(c.Request.Context(), from, to, params.Page, params.PerPage)
	if err != nil {
		RespondWithServiceError(c, h.logger, "Failed to list journal", err)
		return
	}

	response := make([]JournalRecordResponse, 0, len(records))
	for _, record := range records {
		response = append(response, mapJournalRecordToResponse(record))
	}
	RespondWithPaginatedData(c, http.StatusOK, response, params.Page, params.PerPage, total)
}

func mapJournalRecordToResponse(record *journal.Record) JournalRecordResponse {
	return JournalRecordResponse{
		TransactionID:      record.TransactionID.String(),
		IdempotencyKey:     record.IdempotencyKey,
		Kind:               string(record.Kind),
		SourceAccountID:    record.SourceAccountID.String(),
		TargetAccountID:    record.TargetAccountID.String(),
		Amount:             record.Amount.StringFixed(2),
		SourceBalanceAfter: record.SourceBalanceAfter.StringFixed(2),
		TargetBalanceAfter: record.TargetBalanceAfter.StringFixed(2),
		Status:             string(record.Status),
		CorrelationID:      record.CorrelationID,
		OccurredAt:         record.OccurredAt.Format(time.RFC3339),
	}
}
