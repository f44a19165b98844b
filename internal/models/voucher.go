package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ecopoints/internal/apperrors"
)

type VoucherState string

const (
	VoucherActive        VoucherState = "ACTIVE"
	VoucherPartiallyUsed VoucherState = "PARTIALLY_USED"
	VoucherUsed          VoucherState = "USED"
	VoucherExpired       VoucherState = "EXPIRED"
)

// Allowed transitions. Every state except Active is terminal
var voucherTransitions = map[VoucherState][]VoucherState{
	VoucherActive: {VoucherPartiallyUsed, VoucherUsed, VoucherExpired},
}

func (s VoucherState) Valid() bool {
	switch s {
	case VoucherActive, VoucherPartiallyUsed, VoucherUsed, VoucherExpired:
		return true
	default:
		return false
	}
}

// Transition returns the next state or apperrors.ErrInvalidStateTransition
func (s VoucherState) Transition(next VoucherState) (VoucherState, error) {
	for _, allowed := range voucherTransitions[s] {
		if allowed == next {
			return next, nil
		}
	}
	return s, fmt.Errorf("%s -> %s: %w", s, next, apperrors.ErrInvalidStateTransition)
}

type Voucher struct {
	ID        uuid.UUID       `json:"id"`
	Value     decimal.Decimal `json:"value"`
	IssuedAt  time.Time       `json:"issued_at"`
	ExpiresAt time.Time       `json:"expires_at"`
	State     VoucherState    `json:"state"`

	// Set when the voucher is closed by a purchase
	AmountUsed decimal.Decimal `json:"amount_used"`
	UsedFor    string          `json:"used_for,omitempty"`
	UsedAt     *time.Time      `json:"used_at,omitempty"`

	// Reward the voucher was redeemed for; empty for split remainders
	RewardID string `json:"reward_id,omitempty"`

	// Set when the voucher holds the remainder of a partially used one
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
}

// StateAt evaluates expiry lazily: an Active voucher is reported Expired once asOf reaches ExpiresAt
func (v Voucher) StateAt(asOf time.Time) VoucherState {
	if v.State == VoucherActive && !v.ExpiresAt.After(asOf) {
		return VoucherExpired
	}
	return v.State
}

func (v Voucher) IsActiveAt(asOf time.Time) bool {
	return v.StateAt(asOf) == VoucherActive
}
