package components

import (
	"context"
	"log/slog"

	"github.com/transfer-ledger/internal/domain/transfer"
	"github.com/transfer-ledger/internal/transfer_engine/service"
)

type RequestValidatorImpl struct {
	logger *slog.Logger
}

func NewRequestValidator(logger *slog.Logger) service.RequestValidator {
	return &RequestValidatorImpl{
		logger: logger,
	}
}

// Validate normalizes the idempotency key and checks the transfer preconditions
func (v *RequestValidatorImpl) Validate(ctx context.Context, req transfer.Request) (transfer.Request, error) {
	normalized, err := req.Validate()
	if err != nil {
		logger := v.logger
		if req.CorrelationID != "" {
			logger = v.logger.With("correlation_id", req.CorrelationID)
		}
		logger.Warn("Transfer request rejected",
			"source_account_id", req.SourceAccountID.String(),
			"target_account_id", req.TargetAccountID.String(),
			"amount", req.Amount.String(),
			"error", err)
		return req, err
	}
	return normalized, nil
}
