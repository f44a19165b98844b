package models

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ecopoints/internal/apperrors"
)

// Currency amounts are kept with cent precision
const MoneyPlaces = 2

// CheckMoney validates a non-negative currency amount with at most MoneyPlaces decimals
func CheckMoney(amount decimal.Decimal) error {
	switch {
	case amount.IsNegative():
		return fmt.Errorf("amount %s is negative: %w", amount, apperrors.ErrInvalidValue)
	case !amount.Equal(amount.Truncate(MoneyPlaces)):
		return fmt.Errorf("amount %s has more than %d decimal places: %w", amount, MoneyPlaces, apperrors.ErrInvalidValue)
	default:
		return nil
	}
}

// CheckPositiveMoney is CheckMoney that also rejects zero
func CheckPositiveMoney(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("amount %s must be positive: %w", amount, apperrors.ErrInvalidValue)
	}
	return CheckMoney(amount)
}
