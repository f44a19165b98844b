package ledger

import (
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/nkiryanov/ecopoints/internal/apperrors"
	"github.com/nkiryanov/ecopoints/internal/models"
)

// PointsLedger keeps the points balance of one account and its append-only history
type PointsLedger struct {
	balance int64
	entries []models.LedgerEntry // oldest first

	now func() time.Time
}

func NewPointsLedger(now func() time.Time) *PointsLedger {
	if now == nil {
		now = time.Now
	}
	return &PointsLedger{now: now}
}

// RestorePointsLedger rebuilds the ledger from stored entries
// Fails with apperrors.ErrLedgerCorrupted if entries do not chain or do not match the stored balance
func RestorePointsLedger(balance int64, entries []models.LedgerEntry, now func() time.Time) (*PointsLedger, error) {
	l := NewPointsLedger(now)

	var running int64
	for i, e := range entries {
		running += e.Delta
		if e.Delta == 0 || running < 0 || e.ResultingBalance != running {
			return nil, fmt.Errorf("entry %d (delta %d, resulting %d, expected %d): %w",
				i, e.Delta, e.ResultingBalance, running, apperrors.ErrLedgerCorrupted)
		}
	}
	if running != balance {
		return nil, fmt.Errorf("stored balance %d, history sums to %d: %w", balance, running, apperrors.ErrLedgerCorrupted)
	}

	l.balance = running
	l.entries = slices.Clone(entries)
	return l, nil
}

// Apply appends an entry and moves the balance by delta
// Fails with apperrors.ErrInvalidDelta if delta is zero or the balance would become negative
func (l *PointsLedger) Apply(delta int64, reason string) (models.LedgerEntry, error) {
	if delta == 0 {
		return models.LedgerEntry{}, fmt.Errorf("zero delta: %w", apperrors.ErrInvalidDelta)
	}

	next := l.balance + delta
	if next < 0 {
		return models.LedgerEntry{}, fmt.Errorf("balance %d, delta %d: %w", l.balance, delta, apperrors.ErrInvalidDelta)
	}

	entry := models.LedgerEntry{
		CreatedAt:        l.now(),
		Delta:            delta,
		Reason:           reason,
		ResultingBalance: next,
	}

	// Both fields are updated together, nothing is observable in between
	l.entries = append(l.entries, entry)
	l.balance = next

	return entry, nil
}

func (l *PointsLedger) Balance() int64 {
	return l.balance
}

// History yields entries newest first
// The sequence may be ranged over many times; entries appended later are not seen by a running iteration
func (l *PointsLedger) History() iter.Seq[models.LedgerEntry] {
	entries := l.entries
	return func(yield func(models.LedgerEntry) bool) {
		for i := len(entries) - 1; i >= 0; i-- {
			if !yield(entries[i]) {
				return
			}
		}
	}
}

// Entries returns a copy of the history oldest first, the way it is persisted
func (l *PointsLedger) Entries() []models.LedgerEntry {
	return slices.Clone(l.entries)
}
