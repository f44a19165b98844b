package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nkiryanov/ecopoints/internal/apperrors"
	"github.com/nkiryanov/ecopoints/internal/models"
)

type AccountRepo struct {
	q querier
}

const loadAccount = `
SELECT document, version, updated_at FROM accounts
WHERE account_key = ?
`

// Load reads the account document. forUpdate is a no-op: write transactions are exclusive already
func (r *AccountRepo) Load(ctx context.Context, key string, _ bool) (models.AccountState, error) {
	state, err := scanAccount(r.q.QueryRowContext(ctx, loadAccount, key))

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return state, fmt.Errorf("account %s: %w", key, apperrors.ErrAccountNotFound)
	case err != nil:
		return state, fmt.Errorf("db error: %w", err)
	}

	return state, nil
}

const saveAccount = `
INSERT INTO accounts (account_key, document, balance, version, updated_at)
VALUES (?, ?, ?, 1, ?)
ON CONFLICT (account_key) DO UPDATE
SET document = excluded.document,
	balance = excluded.balance,
	version = accounts.version + 1,
	updated_at = excluded.updated_at
RETURNING document, version, updated_at
`

func (r *AccountRepo) Save(ctx context.Context, state models.AccountState) (models.AccountState, error) {
	document, err := json.Marshal(state)
	if err != nil {
		return state, fmt.Errorf("can't encode account %s: %w", state.Key, err)
	}

	updatedAt := time.Now().UTC().Format(time.RFC3339Nano)
	saved, err := scanAccount(r.q.QueryRowContext(ctx, saveAccount, state.Key, string(document), state.Balance, updatedAt))
	if err != nil {
		return state, fmt.Errorf("db error: %w", err)
	}

	return saved, nil
}

func scanAccount(row *sql.Row) (models.AccountState, error) {
	var (
		state     models.AccountState
		document  string
		version   int64
		updatedAt string
	)

	if err := row.Scan(&document, &version, &updatedAt); err != nil {
		return state, err
	}

	if err := json.Unmarshal([]byte(document), &state); err != nil {
		return state, fmt.Errorf("can't decode account document: %w", err)
	}

	state.Version = version
	t, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return state, fmt.Errorf("bad account updated_at %q: %w", updatedAt, err)
	}
	state.UpdatedAt = t

	return state, nil
}
