package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/ecopoints/internal/apperrors"
	"github.com/nkiryanov/ecopoints/internal/handlers/render"
	"github.com/nkiryanov/ecopoints/internal/logger"
)

type ledgerErrorKind struct {
	err     error
	kind    string
	message string
	code    int
}

// Order matters: more specific errors first
var ledgerErrorKinds = []ledgerErrorKind{
	{apperrors.ErrInsufficientPoints, "insufficient_points", "Insufficient points", http.StatusPaymentRequired},
	{apperrors.ErrRewardNotFound, "reward_not_found", "Reward not found", http.StatusNotFound},
	{apperrors.ErrDeviceNotFound, "device_not_found", "Device not found", http.StatusNotFound},
	{apperrors.ErrVoucherNotFound, "voucher_not_found", "Voucher not found", http.StatusNotFound},
	{apperrors.ErrVoucherNotActive, "voucher_not_active", "Voucher is not active", http.StatusConflict},
	{apperrors.ErrInvalidStateTransition, "invalid_state_transition", "Voucher is not active", http.StatusConflict},
	{apperrors.ErrAmountExceedsValue, "amount_exceeds_value", "Amount exceeds voucher value", http.StatusUnprocessableEntity},
	{apperrors.ErrInvalidDelta, "invalid_delta", "Points delta must be positive", http.StatusUnprocessableEntity},
	{apperrors.ErrInvalidValue, "invalid_value", "Invalid amount", http.StatusUnprocessableEntity},
}

// Render ledger error with matching status; unknown errors are logged and hidden
func renderLedgerError(w http.ResponseWriter, l logger.Logger, err error) {
	for _, k := range ledgerErrorKinds {
		if errors.Is(err, k.err) {
			render.KindError(w, k.kind, k.message, k.code)
			return
		}
	}

	if errors.Is(err, apperrors.ErrLedgerCorrupted) {
		l.Error("Account ledger does not reconcile", "error", err)
	} else {
		l.Error("Ledger operation failed", "error", err)
	}
	render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
}
