package redemption

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/ecopoints/internal/apperrors"
	"github.com/nkiryanov/ecopoints/internal/ledger"
	"github.com/nkiryanov/ecopoints/internal/models"
	"github.com/nkiryanov/ecopoints/internal/testutil"
)

func TestRedeem(t *testing.T) {
	reward := models.Reward{
		ID:         "voucher-10",
		Name:       "10 EUR voucher",
		PointsCost: 100,
		Value:      decimal.RequireFromString("10"),
		ValidDays:  90,
	}

	newAccount := func(t *testing.T, balance int64) *ledger.Account {
		clock := testutil.NewClock(t, "2025-03-01 10:00:00Z")
		a := ledger.NewAccount("user@example.com", clock.Now)
		if balance > 0 {
			_, err := a.Points.Apply(balance, "Recycled phone")
			require.NoError(t, err)
		}
		return a
	}

	t.Run("insufficient points", func(t *testing.T) {
		a := newAccount(t, 0)

		_, _, err := Redeem(a, reward)

		require.ErrorIs(t, err, apperrors.ErrInsufficientPoints)
		require.Equal(t, int64(0), a.Points.Balance())
		require.Empty(t, a.Vouchers.All(), "no voucher must be issued")
	})

	t.Run("redeem ok", func(t *testing.T) {
		a := newAccount(t, 150)

		voucher, entry, err := Redeem(a, reward)

		require.NoError(t, err)
		require.Equal(t, int64(50), a.Points.Balance())
		require.Equal(t, int64(-100), entry.Delta)
		require.Equal(t, int64(50), entry.ResultingBalance)
		require.Equal(t, "Redeemed 10 EUR voucher", entry.Reason)

		require.Equal(t, models.VoucherActive, voucher.State)
		require.True(t, voucher.Value.Equal(reward.Value))
		require.Equal(t, reward.ID, voucher.RewardID)
		require.Len(t, a.Vouchers.ActiveVouchers(voucher.IssuedAt), 1)
	})

	t.Run("exact balance", func(t *testing.T) {
		a := newAccount(t, 100)

		_, _, err := Redeem(a, reward)

		require.NoError(t, err)
		require.Equal(t, int64(0), a.Points.Balance())
	})

	t.Run("invalid reward leaves account untouched", func(t *testing.T) {
		tests := []struct {
			name   string
			modify func(r *models.Reward)
		}{
			{"zero value", func(r *models.Reward) { r.Value = decimal.Zero }},
			{"zero cost", func(r *models.Reward) { r.PointsCost = 0 }},
			{"no validity", func(r *models.Reward) { r.ValidDays = 0 }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				a := newAccount(t, 500)
				r := reward
				tt.modify(&r)

				_, _, err := Redeem(a, r)

				require.ErrorIs(t, err, apperrors.ErrInvalidValue)
				require.Equal(t, int64(500), a.Points.Balance(), "points must not be deducted")
				require.Len(t, a.Points.Entries(), 1)
				require.Empty(t, a.Vouchers.All())
			})
		}
	})
}
