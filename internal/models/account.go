package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntry is an immutable record of one points balance change
type LedgerEntry struct {
	CreatedAt        time.Time `json:"created_at"`
	Delta            int64     `json:"delta"`
	Reason           string    `json:"reason"`
	ResultingBalance int64     `json:"resulting_balance"`
}

// AccountState is the persisted document of one account
// History is stored oldest first
type AccountState struct {
	Key       string        `json:"key"`
	Balance   int64         `json:"balance"`
	History   []LedgerEntry `json:"history"`
	Vouchers  []Voucher     `json:"vouchers"`
	Version   int64         `json:"version"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func NewAccountState(key string) AccountState {
	return AccountState{
		Key:      key,
		History:  []LedgerEntry{},
		Vouchers: []Voucher{},
	}
}

// AccountSummary is points and active voucher total taken from one account snapshot
type AccountSummary struct {
	Points       int64
	VoucherTotal decimal.Decimal
}

type DiscountResult struct {
	DiscountApplied         decimal.Decimal
	RemainingCartAmount     decimal.Decimal
	RemainingVoucherBalance decimal.Decimal

	// Always true: the uncovered remainder is paid through another channel
	CanProceed bool
}

type VoucherConsumption struct {
	VoucherID  uuid.UUID
	AmountUsed decimal.Decimal

	// Remainder voucher created when the voucher was used partially
	Remainder *Voucher
}

type SettlementResult struct {
	DiscountApplied     decimal.Decimal
	RemainingCartAmount decimal.Decimal
	ConsumedVouchers    []VoucherConsumption
}
