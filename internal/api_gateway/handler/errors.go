package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/transfer-ledger/internal/api_gateway/service"
	"github.com/transfer-ledger/internal/domain/account"
	"github.com/transfer-ledger/internal/domain/transaction"
	"github.com/transfer-ledger/internal/domain/transfer"
	engine "github.com/transfer-ledger/internal/transfer_engine/service"
)

// Stable error codes returned in the error envelope
const (
	CodeBadRequest            = "BAD_REQUEST"
	CodeValidation            = "VALIDATION_ERROR"
	CodeMissingIdempotencyKey = "MISSING_IDEMPOTENCY_KEY"
	CodeInvalidIdempotencyKey = "INVALID_IDEMPOTENCY_KEY"
	CodeSelfTransfer          = "SELF_TRANSFER"
	CodeInvalidAmount         = "INVALID_AMOUNT"
	CodeInvalidBatchSize      = "INVALID_BATCH_SIZE"
	CodeInvalidTimeRange      = "INVALID_TIME_RANGE"
	CodeNotFound              = "NOT_FOUND"
	CodeAccountNotFound       = "ACCOUNT_NOT_FOUND"
	CodeTransactionNotFound   = "TRANSACTION_NOT_FOUND"
	CodeDuplicateDocument     = "DUPLICATE_DOCUMENT"
	CodeInsufficientFunds     = "INSUFFICIENT_FUNDS"
	CodeLockTimeout           = "LOCK_TIMEOUT"
	CodeInternal              = "INTERNAL_SERVER_ERROR"
)

// classifyError maps a service error to its HTTP status and error envelope.
// Anything not recognised is an internal error whose message is not disclosed.
func classifyError(err error) (int, *ErrorInfo) {
	var (
		keyErr       transfer.ErrInvalidIdempotencyKey
		selfErr      transfer.ErrSelfTransfer
		amountErr    transfer.ErrInvalidAmount
		fundsErr     transfer.ErrInsufficientFunds
		batchErr     engine.ErrInvalidBatchSize
		rangeErr     service.ErrInvalidTimeRange
		accountErr   account.ErrAccountNotFound
		txnErr       transaction.ErrTransactionNotFound
		duplicateErr account.ErrDuplicateDocument
	)

	switch {
	case errors.Is(err, transfer.ErrMissingIdempotencyKey):
		return http.StatusBadRequest, &ErrorInfo{Code: CodeMissingIdempotencyKey, Message: "Idempotency-Key header is required"}
	case errors.As(err, &keyErr):
		return http.StatusBadRequest, &ErrorInfo{Code: CodeInvalidIdempotencyKey, Message: keyErr.Error()}
	case errors.As(err, &selfErr):
		return http.StatusBadRequest, &ErrorInfo{Code: CodeSelfTransfer, Message: "Source and target accounts must differ"}
	case errors.As(err, &amountErr):
		return http.StatusBadRequest, &ErrorInfo{Code: CodeInvalidAmount, Message: amountErr.Error()}
	case errors.As(err, &batchErr):
		return http.StatusBadRequest, &ErrorInfo{Code: CodeInvalidBatchSize, Message: batchErr.Error()}
	case errors.As(err, &rangeErr):
		return http.StatusBadRequest, &ErrorInfo{Code: CodeInvalidTimeRange, Message: rangeErr.Error()}
	case isAccountInputError(err):
		return http.StatusBadRequest, &ErrorInfo{Code: CodeValidation, Message: err.Error()}
	case errors.As(err, &accountErr):
		return http.StatusNotFound, &ErrorInfo{
			Code:    CodeAccountNotFound,
			Message: "Account not found",
			Details: map[string]interface{}{"account_id": accountErr.AccountID.String()},
		}
	case errors.As(err, &txnErr):
		return http.StatusNotFound, &ErrorInfo{Code: CodeTransactionNotFound, Message: "Transaction not found"}
	case errors.As(err, &duplicateErr):
		return http.StatusConflict, &ErrorInfo{Code: CodeDuplicateDocument, Message: "Account with this document already exists"}
	case errors.As(err, &fundsErr):
		return http.StatusUnprocessableEntity, &ErrorInfo{
			Code:    CodeInsufficientFunds,
			Message: "Insufficient funds in source account",
			Details: map[string]interface{}{
				"account_id": fundsErr.AccountID.String(),
				"available":  fundsErr.Available.StringFixed(2),
				"requested":  fundsErr.Requested.StringFixed(2),
			},
		}
	case errors.Is(err, transfer.ErrLockTimeout):
		return http.StatusServiceUnavailable, &ErrorInfo{Code: CodeLockTimeout, Message: "Accounts are busy, retry with the same Idempotency-Key"}
	default:
		return http.StatusInternalServerError, &ErrorInfo{Code: CodeInternal, Message: "An internal server error occurred"}
	}
}

func isAccountInputError(err error) bool {
	return errors.Is(err, account.ErrEmptyDocument) ||
		errors.Is(err, account.ErrEmptyName) ||
		errors.Is(err, account.ErrDocumentTooLong) ||
		errors.Is(err, account.ErrNameTooLong)
}

// RespondWithServiceError maps err to the error envelope. Server-side failures are
// logged at error level, client-side ones at warn.
func RespondWithServiceError(c *gin.Context, logger *slog.Logger, msg string, err error) {
	status, info := classifyError(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, "error", err, "status", status)
	} else {
		logger.Warn(msg, "error", err, "status", status)
	}
	RespondWithError(c, status, info)
}

// RespondWithBindingError reports a request that failed to bind. Validator failures carry
// one detail per offending field.
func RespondWithBindingError(c *gin.Context, logger *slog.Logger, err error) {
	logger.Warn("Invalid request", "error", err)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make(map[string]interface{}, len(validationErrs))
		for _, fieldErr := range validationErrs {
			details[fieldErr.Field()] = fieldErr.Tag()
		}
		RespondWithError(c, http.StatusBadRequest, &ErrorInfo{
			Code:    CodeValidation,
			Message: "Request validation failed",
			Details: details,
		})
		return
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		RespondBadRequest(c, "Malformed JSON body")
		return
	}
	RespondBadRequest(c, "Invalid request: "+err.Error())
}
