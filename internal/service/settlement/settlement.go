package settlement

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ecopoints/internal/ledger"
	"github.com/nkiryanov/ecopoints/internal/models"
)

// Settle spends active vouchers oldest first against cartTotal
// No active vouchers is a plain zero discount, not an error
// Persisting the account is the caller's job
func Settle(account *ledger.Account, cartTotal decimal.Decimal, reference string, now time.Time) (models.SettlementResult, error) {
	if err := models.CheckMoney(cartTotal); err != nil {
		return models.SettlementResult{}, err
	}

	result := models.SettlementResult{
		ConsumedVouchers: []models.VoucherConsumption{},
	}

	remaining := cartTotal
	for _, v := range account.Vouchers.ActiveVouchers(now) {
		if !remaining.IsPositive() {
			break
		}

		take := decimal.Min(v.Value, remaining)
		res, err := account.Vouchers.ConsumeAt(v.ID, take, reference, now)
		if err != nil {
			return models.SettlementResult{}, fmt.Errorf("consume voucher %s: %w", v.ID, err)
		}

		result.ConsumedVouchers = append(result.ConsumedVouchers, models.VoucherConsumption{
			VoucherID:  v.ID,
			AmountUsed: take,
			Remainder:  res.Remainder,
		})
		remaining = remaining.Sub(take)
	}

	result.DiscountApplied = cartTotal.Sub(remaining)
	result.RemainingCartAmount = remaining
	return result, nil
}
