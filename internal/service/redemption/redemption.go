package redemption

import (
	"fmt"

	"github.com/nkiryanov/ecopoints/internal/apperrors"
	"github.com/nkiryanov/ecopoints/internal/ledger"
	"github.com/nkiryanov/ecopoints/internal/models"
)

// Redeem converts reward points cost into a new voucher worth the reward value
// All checks run before the account is touched, so a failed redemption leaves it unchanged
// Persisting the account is the caller's job
func Redeem(account *ledger.Account, reward models.Reward) (models.Voucher, models.LedgerEntry, error) {
	switch {
	case reward.PointsCost <= 0:
		return models.Voucher{}, models.LedgerEntry{}, fmt.Errorf("reward %s points cost %d: %w", reward.ID, reward.PointsCost, apperrors.ErrInvalidValue)
	case reward.ValidDays <= 0:
		return models.Voucher{}, models.LedgerEntry{}, fmt.Errorf("reward %s valid days %d: %w", reward.ID, reward.ValidDays, apperrors.ErrInvalidValue)
	}
	if err := models.CheckPositiveMoney(reward.Value); err != nil {
		return models.Voucher{}, models.LedgerEntry{}, fmt.Errorf("reward %s: %w", reward.ID, err)
	}

	if balance := account.Points.Balance(); balance < reward.PointsCost {
		return models.Voucher{}, models.LedgerEntry{}, fmt.Errorf("balance %d, reward %s costs %d: %w",
			balance, reward.ID, reward.PointsCost, apperrors.ErrInsufficientPoints)
	}

	entry, err := account.Points.Apply(-reward.PointsCost, "Redeemed "+rewardName(reward))
	if err != nil {
		return models.Voucher{}, models.LedgerEntry{}, err
	}

	voucher, err := account.Vouchers.Issue(reward.Value, reward.ValidDays, ledger.WithRewardID(reward.ID))
	if err != nil {
		// Unreachable after the checks above; the caller drops the account without saving
		return models.Voucher{}, models.LedgerEntry{}, fmt.Errorf("voucher not issued after points deducted: %w", err)
	}

	return voucher, entry, nil
}

func rewardName(r models.Reward) string {
	if r.Name != "" {
		return r.Name
	}
	return r.ID
}
