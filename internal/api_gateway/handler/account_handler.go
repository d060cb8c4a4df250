package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/transfer-ledger/internal/api_gateway/service"
)

// AccountHandler handles HTTP requests for account operations
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Create handles creation of a new account, rejecting duplicate documents with 409
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondWithBindingError(c, h.logger, err)
		return
	}

	acc, err := h.accountService.CreateAccount(c.Request.Context(), req.Document, req.Name)
	if err != nil {
		RespondWithServiceError(c, h.logger, "Failed to create account", err)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// List returns a page of accounts with their balances
func (h *AccountHandler) List(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondWithBindingError(c, h.logger, err)
		return
	}

	accounts, total, err := h.accountService.ListAccounts(c.Request.Context(), pagination.Page, pagination.PerPage)
	if err != nil {
		RespondWithServiceError(c, h.logger, "Failed to list accounts", err)
		return
	}

	response := make([]AccountResponse, 0, len(accounts))
	for _, acc := range accounts {
		response = append(response, mapAccountToResponse(acc))
	}
	RespondWithPaginatedData(c, http.StatusOK, response, pagination.Page, pagination.PerPage, total)
}

// GetByID retrieves an account by its ID, returning 404 if not found
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, ok := h.parseAccountID(c, c.Param("id"))
	if !ok {
		return
	}

	acc, err := h.accountService.GetAccount(c.Request.Context(), id)
	if err != nil {
		RespondWithServiceError(c, h.logger, "Failed to get account", err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// GetBalance reports the recomputed balance next to the cached one of the latest entry
func (h *AccountHandler) GetBalance(c *gin.Context) {
	id, ok := h.parseAccountID(c, c.Param("id"))
	if !ok {
		return
	}

	check, err := h.accountService.CheckBalance(c.Request.Context(), id)
	if err != nil {
		RespondWithServiceError(c, h.logger, "Failed to check balance", err)
		return
	}

	response := BalanceResponse{
		AccountID:  check.AccountID.String(),
		Balance:    check.Balance.StringFixed(2),
		Consistent: check.Consistent,
	}
	if check.LastBalanceAfter != nil {
		last := check.LastBalanceAfter.StringFixed(2)
		response.LastBalanceAfter = &last
	}
	RespondOK(c, response)
}

func (h *AccountHandler) parseAccountID(c *gin.Context, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		h.logger.Warn("Invalid account ID", "id", raw, "error", err)
		RespondBadRequest(c, "Invalid account ID")
		return uuid.Nil, false
	}
	return id, true
}

// mapAccountToResponse maps an account and its balance to an account response DTO
func mapAccountToResponse(acc *service.AccountBalance) AccountResponse {
	return AccountResponse{
		ID:        acc.Account.ID.String(),
		Document:  acc.Account.Document,
		Name:      acc.Account.Name,
		Balance:   acc.Balance.StringFixed(2),
		CreatedAt: acc.Account.CreatedAt.Format(time.RFC3339),
		UpdatedAt: acc.Account.UpdatedAt.Format(time.RFC3339),
	}
}
