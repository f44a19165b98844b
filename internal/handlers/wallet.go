package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ecopoints/internal/handlers/render"
	"github.com/nkiryanov/ecopoints/internal/handlers/userctx"
	"github.com/nkiryanov/ecopoints/internal/logger"
	"github.com/nkiryanov/ecopoints/internal/models"
)

type entryResponse struct {
	CreatedAt        time.Time `json:"created_at"`
	Delta            int64     `json:"delta"`
	Reason           string    `json:"reason"`
	ResultingBalance int64     `json:"resulting_balance"`
}

func newEntryResponse(e models.LedgerEntry) entryResponse {
	return entryResponse{
		CreatedAt:        e.CreatedAt,
		Delta:            e.Delta,
		Reason:           e.Reason,
		ResultingBalance: e.ResultingBalance,
	}
}

type voucherResponse struct {
	ID         uuid.UUID  `json:"id"`
	Value      float64    `json:"value"`
	IssuedAt   time.Time  `json:"issued_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	State      string     `json:"state"`
	AmountUsed float64    `json:"amount_used"`
	UsedFor    string     `json:"used_for,omitempty"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	RewardID   string     `json:"reward_id,omitempty"`
	ParentID   *uuid.UUID `json:"parent_id,omitempty"`
}

func newVoucherResponse(v models.Voucher) voucherResponse {
	value, _ := v.Value.Float64()
	used, _ := v.AmountUsed.Float64()
	return voucherResponse{
		ID:         v.ID,
		Value:      value,
		IssuedAt:   v.IssuedAt,
		ExpiresAt:  v.ExpiresAt,
		State:      string(v.State),
		AmountUsed: used,
		UsedFor:    v.UsedFor,
		UsedAt:     v.UsedAt,
		RewardID:   v.RewardID,
		ParentID:   v.ParentID,
	}
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// Wraps handler that works with the account of authenticated user
func withAccount(fn func(w http.ResponseWriter, r *http.Request, account string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := userctx.AccountKey(r.Context())
		if !ok {
			render.ServiceError(w, "Internal service error", http.StatusInternalServerError)
			return
		}
		fn(w, r, account)
	}
}

func handleBalance(walletService walletService, l logger.Logger) http.HandlerFunc {
	type response struct {
		Points       int64   `json:"points"`
		VoucherTotal float64 `json:"voucher_total"`
	}

	return withAccount(func(w http.ResponseWriter, r *http.Request, account string) {
		summary, err := walletService.GetSummary(r.Context(), account)
		if err != nil {
			renderLedgerError(w, l, err)
			return
		}

		render.JSON(w, response{Points: summary.Points, VoucherTotal: toFloat(summary.VoucherTotal)})
	})
}

func handleHistory(walletService walletService, l logger.Logger) http.HandlerFunc {
	return withAccount(func(w http.ResponseWriter, r *http.Request, account string) {
		history, err := walletService.GetHistory(r.Context(), account)
		if err != nil {
			renderLedgerError(w, l, err)
			return
		}

		res := make([]entryResponse, 0, len(history))
		for _, e := range history {
			res = append(res, newEntryResponse(e))
		}
		render.JSON(w, res)
	})
}

func handleListVouchers(walletService walletService, l logger.Logger) http.HandlerFunc {
	return withAccount(func(w http.ResponseWriter, r *http.Request, account string) {
		vouchers, err := walletService.ListVouchers(r.Context(), account)
		if err != nil {
			renderLedgerError(w, l, err)
			return
		}

		res := make([]voucherResponse, 0, len(vouchers))
		for _, v := range vouchers {
			res = append(res, newVoucherResponse(v))
		}
		render.JSON(w, res)
	})
}

func handleRecycle(walletService walletService, l logger.Logger) http.HandlerFunc {
	type request struct {
		DeviceID string `json:"device_id" validate:"required"`
	}

	return withAccount(func(w http.ResponseWriter, r *http.Request, account string) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		entry, err := walletService.Recycle(r.Context(), account, data.DeviceID)
		if err != nil {
			renderLedgerError(w, l, err)
			return
		}
		render.JSON(w, newEntryResponse(entry))
	})
}

func handleRedeem(walletService walletService, l logger.Logger) http.HandlerFunc {
	type request struct {
		RewardID string `json:"reward_id" validate:"required"`
	}

	return withAccount(func(w http.ResponseWriter, r *http.Request, account string) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		voucher, err := walletService.Redeem(r.Context(), account, data.RewardID)
		if err != nil {
			renderLedgerError(w, l, err)
			return
		}
		render.Created(w, newVoucherResponse(voucher))
	})
}

func handlePreviewDiscount(walletService walletService, l logger.Logger) http.HandlerFunc {
	type request struct {
		CartTotal decimal.Decimal `json:"cart_total" validate:"money"`
	}

	type response struct {
		DiscountApplied         float64 `json:"discount_applied"`
		RemainingCartAmount     float64 `json:"remaining_cart_amount"`
		RemainingVoucherBalance float64 `json:"remaining_voucher_balance"`
		CanProceed              bool    `json:"can_proceed"`
	}

	return withAccount(func(w http.ResponseWriter, r *http.Request, account string) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		res, err := walletService.PreviewDiscount(r.Context(), account, data.CartTotal)
		if err != nil {
			renderLedgerError(w, l, err)
			return
		}

		render.JSON(w, response{
			DiscountApplied:         toFloat(res.DiscountApplied),
			RemainingCartAmount:     toFloat(res.RemainingCartAmount),
			RemainingVoucherBalance: toFloat(res.RemainingVoucherBalance),
			CanProceed:              res.CanProceed,
		})
	})
}

func handleSettlePurchase(walletService walletService, l logger.Logger) http.HandlerFunc {
	type request struct {
		CartTotal decimal.Decimal `json:"cart_total" validate:"money"`
		Reference string          `json:"reference" validate:"max=254"`
	}

	type consumed struct {
		VoucherID  uuid.UUID        `json:"voucher_id"`
		AmountUsed float64          `json:"amount_used"`
		Remainder  *voucherResponse `json:"remainder,omitempty"`
	}

	type response struct {
		DiscountApplied     float64    `json:"discount_applied"`
		RemainingCartAmount float64    `json:"remaining_cart_amount"`
		ConsumedVouchers    []consumed `json:"consumed_vouchers"`
	}

	return withAccount(func(w http.ResponseWriter, r *http.Request, account string) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		res, err := walletService.SettlePurchase(r.Context(), account, data.CartTotal, data.Reference)
		if err != nil {
			renderLedgerError(w, l, err)
			return
		}

		vouchers := make([]consumed, 0, len(res.ConsumedVouchers))
		for _, c := range res.ConsumedVouchers {
			item := consumed{VoucherID: c.VoucherID, AmountUsed: toFloat(c.AmountUsed)}
			if c.Remainder != nil {
				remainder := newVoucherResponse(*c.Remainder)
				item.Remainder = &remainder
			}
			vouchers = append(vouchers, item)
		}

		render.JSON(w, response{
			DiscountApplied:     toFloat(res.DiscountApplied),
			RemainingCartAmount: toFloat(res.RemainingCartAmount),
			ConsumedVouchers:    vouchers,
		})
	})
}
