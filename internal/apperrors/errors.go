package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrTokenInvalid      = errors.New("access token is invalid")

	ErrAccountNotFound = errors.New("account not found")
	ErrPersistence     = errors.New("persistence error")
	ErrLedgerCorrupted = errors.New("ledger history does not reconcile")

	ErrInsufficientPoints = errors.New("insufficient points")
	ErrInvalidDelta       = errors.New("invalid points delta")

	ErrInvalidValue           = errors.New("invalid value")
	ErrVoucherNotFound        = errors.New("voucher not found")
	ErrVoucherNotActive       = errors.New("voucher is not active")
	ErrAmountExceedsValue     = errors.New("amount exceeds voucher value")
	ErrInvalidStateTransition = errors.New("invalid voucher state transition")

	ErrRewardNotFound = errors.New("reward not found")
	ErrDeviceNotFound = errors.New("device not found")
)
