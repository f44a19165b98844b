package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ecopoints/internal/models"
)

// Calculate returns how much of cartTotal is covered by voucherBalance
// It never blocks a purchase: the uncovered part is settled elsewhere
func Calculate(cartTotal decimal.Decimal, voucherBalance decimal.Decimal) (models.DiscountResult, error) {
	if err := models.CheckMoney(cartTotal); err != nil {
		return models.DiscountResult{}, err
	}
	if voucherBalance.IsNegative() {
		return models.DiscountResult{}, models.CheckMoney(voucherBalance)
	}

	if cartTotal.LessThanOrEqual(voucherBalance) {
		return models.DiscountResult{
			DiscountApplied:         cartTotal,
			RemainingCartAmount:     decimal.Zero,
			RemainingVoucherBalance: voucherBalance.Sub(cartTotal),
			CanProceed:              true,
		}, nil
	}

	return models.DiscountResult{
		DiscountApplied:         voucherBalance,
		RemainingCartAmount:     cartTotal.Sub(voucherBalance),
		RemainingVoucherBalance: decimal.Zero,
		CanProceed:              true,
	}, nil
}
