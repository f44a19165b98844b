package ledger

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ecopoints/internal/apperrors"
	"github.com/nkiryanov/ecopoints/internal/models"
)

// IssueOption customizes a voucher before it is stored
type IssueOption func(*models.Voucher)

func WithRewardID(rewardID string) IssueOption {
	return func(v *models.Voucher) {
		v.RewardID = rewardID
	}
}

// ConsumeResult is returned by VoucherStore.Consume
// Remainder is nil when the voucher was fully consumed
type ConsumeResult struct {
	FullyConsumed bool
	Remainder     *models.Voucher
}

// VoucherStore owns every voucher of one account
type VoucherStore struct {
	vouchers []models.Voucher // insertion order
	index    map[uuid.UUID]int

	now func() time.Time
}

func NewVoucherStore(now func() time.Time) *VoucherStore {
	if now == nil {
		now = time.Now
	}
	return &VoucherStore{
		index: make(map[uuid.UUID]int),
		now:   now,
	}
}

// RestoreVoucherStore rebuilds the store from persisted vouchers
func RestoreVoucherStore(vouchers []models.Voucher, now func() time.Time) (*VoucherStore, error) {
	s := NewVoucherStore(now)
	for _, v := range vouchers {
		switch {
		case v.ID == uuid.Nil:
			return nil, fmt.Errorf("voucher without id: %w", apperrors.ErrLedgerCorrupted)
		case !v.State.Valid():
			return nil, fmt.Errorf("voucher %s has unknown state %q: %w", v.ID, v.State, apperrors.ErrLedgerCorrupted)
		case !v.Value.IsPositive():
			return nil, fmt.Errorf("voucher %s has non-positive value: %w", v.ID, apperrors.ErrLedgerCorrupted)
		}
		if _, ok := s.index[v.ID]; ok {
			return nil, fmt.Errorf("duplicate voucher %s: %w", v.ID, apperrors.ErrLedgerCorrupted)
		}
		s.add(v)
	}
	return s, nil
}

// Issue creates a new Active voucher that expires validDays from now
func (s *VoucherStore) Issue(value decimal.Decimal, validDays int, opts ...IssueOption) (models.Voucher, error) {
	if err := models.CheckPositiveMoney(value); err != nil {
		return models.Voucher{}, err
	}
	if validDays <= 0 {
		return models.Voucher{}, fmt.Errorf("valid days %d must be positive: %w", validDays, apperrors.ErrInvalidValue)
	}

	now := s.now()
	v := models.Voucher{
		ID:         uuid.New(),
		Value:      value,
		IssuedAt:   now,
		ExpiresAt:  now.AddDate(0, 0, validDays),
		State:      models.VoucherActive,
		AmountUsed: decimal.Zero,
	}
	for _, opt := range opts {
		opt(&v)
	}

	s.add(v)
	return v, nil
}

// Get returns stored voucher as is, without expiry evaluation
func (s *VoucherStore) Get(id uuid.UUID) (models.Voucher, error) {
	i, ok := s.index[id]
	if !ok {
		return models.Voucher{}, fmt.Errorf("voucher %s: %w", id, apperrors.ErrVoucherNotFound)
	}
	return s.vouchers[i], nil
}

// ActiveVouchers returns vouchers spendable at asOf, oldest issued first
// The order is the consumption order of purchase settlement
func (s *VoucherStore) ActiveVouchers(asOf time.Time) []models.Voucher {
	active := make([]models.Voucher, 0, len(s.vouchers))
	for _, v := range s.vouchers {
		if v.IsActiveAt(asOf) {
			active = append(active, v)
		}
	}

	slices.SortStableFunc(active, func(a, b models.Voucher) int {
		return a.IssuedAt.Compare(b.IssuedAt)
	})
	return active
}

func (s *VoucherStore) TotalActiveValue(asOf time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, v := range s.ActiveVouchers(asOf) {
		total = total.Add(v.Value)
	}
	return total
}

// Consume spends amount of the voucher at the store clock time
// Amount equal to the value closes the voucher as Used
// Smaller amount closes it as PartiallyUsed and issues a remainder voucher
// The remainder keeps issue date and expiry of the parent, so it keeps its place in consumption order
func (s *VoucherStore) Consume(id uuid.UUID, amount decimal.Decimal, usedFor string) (ConsumeResult, error) {
	return s.ConsumeAt(id, amount, usedFor, s.now())
}

// ConsumeAt is Consume with expiry checked and usage recorded at the given time
// Callers that picked vouchers with ActiveVouchers(now) pass the same now
func (s *VoucherStore) ConsumeAt(id uuid.UUID, amount decimal.Decimal, usedFor string, now time.Time) (ConsumeResult, error) {
	i, ok := s.index[id]
	if !ok {
		return ConsumeResult{}, fmt.Errorf("voucher %s: %w", id, apperrors.ErrVoucherNotFound)
	}
	v := s.vouchers[i]

	if !v.IsActiveAt(now) {
		return ConsumeResult{}, fmt.Errorf("voucher %s is %s: %w", id, v.StateAt(now), apperrors.ErrVoucherNotActive)
	}
	if err := models.CheckPositiveMoney(amount); err != nil {
		return ConsumeResult{}, err
	}
	if amount.GreaterThan(v.Value) {
		return ConsumeResult{}, fmt.Errorf("voucher %s value %s, amount %s: %w", id, v.Value, amount, apperrors.ErrAmountExceedsValue)
	}

	next := models.VoucherUsed
	if amount.LessThan(v.Value) {
		next = models.VoucherPartiallyUsed
	}
	state, err := v.State.Transition(next)
	if err != nil {
		return ConsumeResult{}, err
	}

	var remainder *models.Voucher
	if state == models.VoucherPartiallyUsed {
		parentID := v.ID
		remainder = &models.Voucher{
			ID:         uuid.New(),
			Value:      v.Value.Sub(amount),
			IssuedAt:   v.IssuedAt,
			ExpiresAt:  v.ExpiresAt,
			State:      models.VoucherActive,
			AmountUsed: decimal.Zero,
			ParentID:   &parentID,
		}
	}

	v.State = state
	v.AmountUsed = amount
	v.UsedFor = usedFor
	v.UsedAt = &now
	s.vouchers[i] = v

	if remainder != nil {
		s.add(*remainder)
	}

	return ConsumeResult{FullyConsumed: remainder == nil, Remainder: remainder}, nil
}

// All returns every voucher in issue order, the way it is persisted
func (s *VoucherStore) All() []models.Voucher {
	return slices.Clone(s.vouchers)
}

func (s *VoucherStore) add(v models.Voucher) {
	s.index[v.ID] = len(s.vouchers)
	s.vouchers = append(s.vouchers, v)
}
