package ledger

import (
	"fmt"
	"time"

	"github.com/nkiryanov/ecopoints/internal/models"
)

// Account is the in-memory aggregate mutated by redemption and settlement
type Account struct {
	Key      string
	Points   *PointsLedger
	Vouchers *VoucherStore

	version int64
}

func NewAccount(key string, now func() time.Time) *Account {
	return &Account{
		Key:      key,
		Points:   NewPointsLedger(now),
		Vouchers: NewVoucherStore(now),
	}
}

// FromState rebuilds the account and reconciles its history
func FromState(state models.AccountState, now func() time.Time) (*Account, error) {
	points, err := RestorePointsLedger(state.Balance, state.History, now)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", state.Key, err)
	}

	vouchers, err := RestoreVoucherStore(state.Vouchers, now)
	if err != nil {
		return nil, fmt.Errorf("account %s: %w", state.Key, err)
	}

	return &Account{
		Key:      state.Key,
		Points:   points,
		Vouchers: vouchers,
		version:  state.Version,
	}, nil
}

// State flattens the account into the document persisted by the repository
// Version is the one the account was loaded with; repositories bump it on save
func (a *Account) State() models.AccountState {
	state := models.NewAccountState(a.Key)
	state.Balance = a.Points.Balance()
	state.Version = a.version

	if entries := a.Points.Entries(); len(entries) > 0 {
		state.History = entries
	}
	if vouchers := a.Vouchers.All(); len(vouchers) > 0 {
		state.Vouchers = vouchers
	}
	return state
}
