package models

import (
	"github.com/shopspring/decimal"
)

// Reward can be bought with points and is issued as a voucher
type Reward struct {
	ID         string
	Name       string
	PointsCost int64
	Value      decimal.Decimal
	ValidDays  int
}

// Device that can be recycled to earn points
type Device struct {
	ID     string
	Name   string
	Points int64
}
