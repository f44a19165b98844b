// Package wallet is the entry point for everything that reads or changes an account.
//
// Reads load the account without locks. Every change runs as one
// load → mutate → save unit inside a storage transaction, serialized per account.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ecopoints/internal/apperrors"
	"github.com/nkiryanov/ecopoints/internal/ledger"
	"github.com/nkiryanov/ecopoints/internal/logger"
	"github.com/nkiryanov/ecopoints/internal/models"
	"github.com/nkiryanov/ecopoints/internal/repository"
	"github.com/nkiryanov/ecopoints/internal/service/redemption"
	"github.com/nkiryanov/ecopoints/internal/service/settlement"
)

type Catalog interface {
	Reward(id string) (models.Reward, error)
	Device(id string) (models.Device, error)
}

type Service struct {
	storage repository.Storage
	catalog Catalog
	logger  logger.Logger
	locks   *keyedMutex
	now     func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now, used to evaluate expiry and stamp entries
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(storage repository.Storage, catalog Catalog, l logger.Logger, opts ...Option) *Service {
	s := &Service{
		storage: storage,
		catalog: catalog,
		logger:  l,
		locks:   newKeyedMutex(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// GetBalance returns current points; unknown account has zero points
func (s *Service) GetBalance(ctx context.Context, key string) (int64, error) {
	account, err := s.read(ctx, key)
	if err != nil {
		return 0, err
	}
	return account.Points.Balance(), nil
}

func (s *Service) GetActiveVoucherTotal(ctx context.Context, key string) (decimal.Decimal, error) {
	account, err := s.read(ctx, key)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Vouchers.TotalActiveValue(s.now()), nil
}

// GetSummary returns points and active voucher total read from one load of the account
func (s *Service) GetSummary(ctx context.Context, key string) (models.AccountSummary, error) {
	account, err := s.read(ctx, key)
	if err != nil {
		return models.AccountSummary{}, err
	}
	return models.AccountSummary{
		Points:       account.Points.Balance(),
		VoucherTotal: account.Vouchers.TotalActiveValue(s.now()),
	}, nil
}

// GetHistory returns ledger entries newest first
func (s *Service) GetHistory(ctx context.Context, key string) ([]models.LedgerEntry, error) {
	account, err := s.read(ctx, key)
	if err != nil {
		return nil, err
	}

	history := slices.Collect(account.Points.History())
	if history == nil {
		history = []models.LedgerEntry{}
	}
	return history, nil
}

// ListVouchers returns every voucher in issue order with expiry applied to its state
func (s *Service) ListVouchers(ctx context.Context, key string) ([]models.Voucher, error) {
	account, err := s.read(ctx, key)
	if err != nil {
		return nil, err
	}

	now := s.now()
	vouchers := account.Vouchers.All()
	for i := range vouchers {
		vouchers[i].State = vouchers[i].StateAt(now)
	}
	return vouchers, nil
}

// PreviewDiscount computes how active vouchers would cover cartTotal. Nothing is changed
func (s *Service) PreviewDiscount(ctx context.Context, key string, cartTotal decimal.Decimal) (models.DiscountResult, error) {
	account, err := s.read(ctx, key)
	if err != nil {
		return models.DiscountResult{}, err
	}
	return ledger.Calculate(cartTotal, account.Vouchers.TotalActiveValue(s.now()))
}

// Redeem spends reward points cost and issues the reward voucher
func (s *Service) Redeem(ctx context.Context, key string, rewardID string) (models.Voucher, error) {
	reward, err := s.catalog.Reward(rewardID)
	if err != nil {
		return models.Voucher{}, err
	}

	var voucher models.Voucher
	err = s.update(ctx, key, "redeem", func(account *ledger.Account) error {
		v, entry, err := redemption.Redeem(account, reward)
		if err != nil {
			return err
		}

		voucher = v
		s.logger.Info("Reward redeemed",
			"account", key, "reward", reward.ID, "voucher", v.ID.String(), "balance", entry.ResultingBalance)
		return nil
	})

	return voucher, err
}

// SettlePurchase spends active vouchers oldest first against cartTotal
// reference is stored on every consumed voucher
func (s *Service) SettlePurchase(ctx context.Context, key string, cartTotal decimal.Decimal, reference string) (models.SettlementResult, error) {
	if err := models.CheckMoney(cartTotal); err != nil {
		return models.SettlementResult{}, err
	}

	var result models.SettlementResult
	err := s.update(ctx, key, "settle", func(account *ledger.Account) error {
		res, err := settlement.Settle(account, cartTotal, reference, s.now())
		if err != nil {
			return err
		}

		result = res
		s.logger.Info("Purchase settled",
			"account", key, "reference", reference, "discount", res.DiscountApplied.String(),
			"remaining", res.RemainingCartAmount.String(), "vouchers", len(res.ConsumedVouchers))
		return nil
	})

	return result, err
}

// Earn credits points to the account
func (s *Service) Earn(ctx context.Context, key string, points int64, reason string) (models.LedgerEntry, error) {
	if points <= 0 {
		return models.LedgerEntry{}, fmt.Errorf("earn %d points: %w", points, apperrors.ErrInvalidDelta)
	}

	var entry models.LedgerEntry
	err := s.update(ctx, key, "earn", func(account *ledger.Account) error {
		e, err := account.Points.Apply(points, reason)
		if err != nil {
			return err
		}

		entry = e
		s.logger.Info("Points earned", "account", key, "points", points, "reason", reason, "balance", e.ResultingBalance)
		return nil
	})

	return entry, err
}

// Recycle credits the catalog award of the device
func (s *Service) Recycle(ctx context.Context, key string, deviceID string) (models.LedgerEntry, error) {
	device, err := s.catalog.Device(deviceID)
	if err != nil {
		return models.LedgerEntry{}, err
	}

	name := device.Name
	if name == "" {
		name = device.ID
	}
	return s.Earn(ctx, key, device.Points, "Recycled "+name)
}

func (s *Service) read(ctx context.Context, key string) (*ledger.Account, error) {
	state, err := s.storage.Account().Load(ctx, key, false)

	switch {
	case err == nil:
		return ledger.FromState(state, s.now)
	case errors.Is(err, apperrors.ErrAccountNotFound):
		return ledger.NewAccount(key, s.now), nil
	default:
		return nil, persistenceError(err)
	}
}

// update runs load → fn → save in transaction holding the account lock
// Account is saved only when fn succeeds; any failure leaves stored state unchanged
func (s *Service) update(ctx context.Context, key string, operation string, fn func(*ledger.Account) error) error {
	unlock := s.locks.Lock(key)
	defer unlock()

	var opErr error
	err := s.storage.InTx(ctx, func(tx repository.Storage) error {
		state, err := tx.Account().Load(ctx, key, true)

		var account *ledger.Account
		switch {
		case err == nil:
			account, opErr = ledger.FromState(state, s.now)
			if opErr != nil {
				return opErr
			}
		case errors.Is(err, apperrors.ErrAccountNotFound):
			account = ledger.NewAccount(key, s.now)
		default:
			return err
		}

		if opErr = fn(account); opErr != nil {
			return opErr
		}

		_, err = tx.Account().Save(ctx, account.State())
		return err
	})

	switch {
	case opErr != nil:
		return opErr
	case err != nil:
		s.logger.Error("Account not saved", "account", key, "operation", operation, "error", err)
		return persistenceError(err)
	default:
		return nil
	}
}

func persistenceError(err error) error {
	return fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
}
