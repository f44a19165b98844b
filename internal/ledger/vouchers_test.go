package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/ecopoints/internal/apperrors"
	"github.com/nkiryanov/ecopoints/internal/models"
	"github.com/nkiryanov/ecopoints/internal/testutil"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestVoucherStore_Issue(t *testing.T) {
	t.Run("issue ok", func(t *testing.T) {
		clock := testutil.NewClock(t, "2025-03-01 10:00:00Z")
		s := NewVoucherStore(clock.Now)

		v, err := s.Issue(dec("10.50"), 30, WithRewardID("coffee"))

		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, v.ID)
		require.True(t, v.Value.Equal(dec("10.50")))
		require.Equal(t, models.VoucherActive, v.State)
		require.Equal(t, clock.Now(), v.IssuedAt)
		require.Equal(t, testutil.MustParseTime(t, "2025-03-31 10:00:00Z"), v.ExpiresAt)
		require.Equal(t, "coffee", v.RewardID)
		require.Nil(t, v.ParentID)

		stored, err := s.Get(v.ID)
		require.NoError(t, err)
		require.Equal(t, v, stored)
	})

	t.Run("invalid value", func(t *testing.T) {
		tests := []struct {
			name      string
			value     string
			validDays int
		}{
			{"zero value", "0", 30},
			{"negative value", "-1", 30},
			{"fraction of cent", "1.001", 30},
			{"zero days", "10", 0},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				s := NewVoucherStore(nil)

				_, err := s.Issue(dec(tt.value), tt.validDays)

				require.ErrorIs(t, err, apperrors.ErrInvalidValue)
				require.Empty(t, s.All(), "nothing must be stored on failure")
			})
		}
	})
}

func TestVoucherStore_ActiveVouchers(t *testing.T) {
	clock := testutil.NewClock(t, "2025-03-01 10:00:00Z")
	s := NewVoucherStore(clock.Now)

	first, err := s.Issue(dec("10"), 10)
	require.NoError(t, err)
	clock.Advance(time.Hour)
	second, err := s.Issue(dec("20"), 1)
	require.NoError(t, err)
	clock.Advance(time.Hour)
	third, err := s.Issue(dec("30"), 10)
	require.NoError(t, err)

	t.Run("oldest first", func(t *testing.T) {
		active := s.ActiveVouchers(clock.Now())

		require.Len(t, active, 3)
		require.Equal(t, []uuid.UUID{first.ID, second.ID, third.ID}, []uuid.UUID{active[0].ID, active[1].ID, active[2].ID})
		require.True(t, s.TotalActiveValue(clock.Now()).Equal(dec("60")))
	})

	t.Run("expired excluded lazily", func(t *testing.T) {
		asOf := second.ExpiresAt // expiry moment is not active anymore

		active := s.ActiveVouchers(asOf)

		require.Len(t, active, 2)
		require.Equal(t, first.ID, active[0].ID)
		require.Equal(t, third.ID, active[1].ID)
		require.True(t, s.TotalActiveValue(asOf).Equal(dec("40")))

		stored, err := s.Get(second.ID)
		require.NoError(t, err)
		require.Equal(t, models.VoucherActive, stored.State, "expiry is never written eagerly")
		require.Equal(t, models.VoucherExpired, stored.StateAt(asOf))
	})

	t.Run("empty store", func(t *testing.T) {
		empty := NewVoucherStore(nil)

		require.Empty(t, empty.ActiveVouchers(time.Now()))
		require.True(t, empty.TotalActiveValue(time.Now()).IsZero())
	})
}

func TestVoucherStore_Consume(t *testing.T) {
	newStore := func(t *testing.T, value string) (*VoucherStore, models.Voucher, *testutil.Clock) {
		clock := testutil.NewClock(t, "2025-03-01 10:00:00Z")
		s := NewVoucherStore(clock.Now)
		v, err := s.Issue(dec(value), 30)
		require.NoError(t, err)
		clock.Advance(time.Minute)
		return s, v, clock
	}

	t.Run("full", func(t *testing.T) {
		s, v, clock := newStore(t, "100")

		res, err := s.Consume(v.ID, dec("100"), "order-1")

		require.NoError(t, err)
		require.True(t, res.FullyConsumed)
		require.Nil(t, res.Remainder)

		stored, err := s.Get(v.ID)
		require.NoError(t, err)
		require.Equal(t, models.VoucherUsed, stored.State)
		require.True(t, stored.AmountUsed.Equal(dec("100")))
		require.Equal(t, "order-1", stored.UsedFor)
		require.Equal(t, clock.Now(), *stored.UsedAt)
		require.Empty(t, s.ActiveVouchers(clock.Now()))
	})

	t.Run("partial splits remainder", func(t *testing.T) {
		s, v, clock := newStore(t, "100")

		res, err := s.Consume(v.ID, dec("75"), "")

		require.NoError(t, err)
		require.False(t, res.FullyConsumed)
		require.NotNil(t, res.Remainder)

		stored, err := s.Get(v.ID)
		require.NoError(t, err)
		require.Equal(t, models.VoucherPartiallyUsed, stored.State)
		require.True(t, stored.Value.Equal(dec("100")), "original value is never mutated")
		require.True(t, stored.AmountUsed.Equal(dec("75")))

		r := *res.Remainder
		require.True(t, r.Value.Equal(dec("25")))
		require.Equal(t, models.VoucherActive, r.State)
		require.Equal(t, v.ExpiresAt, r.ExpiresAt, "remainder inherits expiry")
		require.Equal(t, v.IssuedAt, r.IssuedAt, "remainder keeps issue date of the parent")
		require.Equal(t, clock.Now(), *stored.UsedAt, "split time is recorded on the parent")
		require.NotNil(t, r.ParentID)
		require.Equal(t, v.ID, *r.ParentID)
		require.True(t, stored.AmountUsed.Add(r.Value).Equal(stored.Value), "split must conserve value")

		active := s.ActiveVouchers(clock.Now())
		require.Len(t, active, 1)
		require.Equal(t, r.ID, active[0].ID)
	})

	t.Run("split conserves value", func(t *testing.T) {
		tests := []struct{ value, amount string }{
			{"100", "0.01"},
			{"100", "99.99"},
			{"0.03", "0.01"},
			{"12.34", "5.67"},
		}
		for _, tt := range tests {
			t.Run(tt.value+"-"+tt.amount, func(t *testing.T) {
				s, v, _ := newStore(t, tt.value)

				res, err := s.Consume(v.ID, dec(tt.amount), "")

				require.NoError(t, err)
				require.True(t, dec(tt.amount).Add(res.Remainder.Value).Equal(dec(tt.value)))
			})
		}
	})

	t.Run("not found", func(t *testing.T) {
		s, _, _ := newStore(t, "100")

		_, err := s.Consume(uuid.New(), dec("1"), "")

		require.ErrorIs(t, err, apperrors.ErrVoucherNotFound)
	})

	t.Run("used twice", func(t *testing.T) {
		s, v, _ := newStore(t, "100")
		_, err := s.Consume(v.ID, dec("40"), "")
		require.NoError(t, err)

		_, err = s.Consume(v.ID, dec("10"), "")

		require.ErrorIs(t, err, apperrors.ErrVoucherNotActive)
		require.Len(t, s.All(), 2, "no extra remainder created")
	})

	t.Run("expired", func(t *testing.T) {
		s, v, clock := newStore(t, "100")
		clock.Advance(31 * 24 * time.Hour)

		_, err := s.Consume(v.ID, dec("10"), "")

		require.ErrorIs(t, err, apperrors.ErrVoucherNotActive)
	})

	t.Run("at given time", func(t *testing.T) {
		s, v, clock := newStore(t, "100")
		asOf := clock.Now()
		clock.Advance(31 * 24 * time.Hour) // store clock is past expiry

		res, err := s.ConsumeAt(v.ID, dec("10"), "order-2", asOf)

		require.NoError(t, err, "voucher is active at asOf")
		require.NotNil(t, res.Remainder)
		stored, err := s.Get(v.ID)
		require.NoError(t, err)
		require.Equal(t, asOf, *stored.UsedAt)
	})

	t.Run("at given time after expiry", func(t *testing.T) {
		s, v, _ := newStore(t, "100")

		_, err := s.ConsumeAt(v.ID, dec("10"), "", v.ExpiresAt)

		require.ErrorIs(t, err, apperrors.ErrVoucherNotActive)
	})

	t.Run("amount exceeds value", func(t *testing.T) {
		s, v, _ := newStore(t, "100")

		_, err := s.Consume(v.ID, dec("100.01"), "")

		require.ErrorIs(t, err, apperrors.ErrAmountExceedsValue)
		stored, err := s.Get(v.ID)
		require.NoError(t, err)
		require.Equal(t, models.VoucherActive, stored.State)
	})

	t.Run("non positive amount", func(t *testing.T) {
		s, v, _ := newStore(t, "100")

		_, err := s.Consume(v.ID, dec("0"), "")

		require.ErrorIs(t, err, apperrors.ErrInvalidValue)
	})
}

func TestRestoreVoucherStore(t *testing.T) {
	at := testutil.MustParseTime(t, "2025-03-01 10:00:00Z")
	valid := models.Voucher{ID: uuid.New(), Value: dec("5"), IssuedAt: at, ExpiresAt: at.Add(time.Hour), State: models.VoucherActive}

	t.Run("restore ok", func(t *testing.T) {
		s, err := RestoreVoucherStore([]models.Voucher{valid}, nil)

		require.NoError(t, err)
		got, err := s.Get(valid.ID)
		require.NoError(t, err)
		require.Equal(t, valid, got)
	})

	t.Run("corrupted", func(t *testing.T) {
		unknownState := valid
		unknownState.ID = uuid.New()
		unknownState.State = "SPENT"
		noID := valid
		noID.ID = uuid.Nil
		zeroValue := valid
		zeroValue.ID = uuid.New()
		zeroValue.Value = decimal.Zero

		tests := []struct {
			name     string
			vouchers []models.Voucher
		}{
			{"unknown state", []models.Voucher{unknownState}},
			{"no id", []models.Voucher{noID}},
			{"zero value", []models.Voucher{zeroValue}},
			{"duplicate", []models.Voucher{valid, valid}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := RestoreVoucherStore(tt.vouchers, nil)

				require.ErrorIs(t, err, apperrors.ErrLedgerCorrupted)
			})
		}
	})
}
