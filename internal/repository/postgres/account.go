package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/ecopoints/internal/apperrors"
	"github.com/nkiryanov/ecopoints/internal/models"
)

type AccountRepo struct {
	DB DBTX
}

const loadAccount = `-- name: LoadAccount
SELECT document, version, updated_at FROM accounts
WHERE account_key = $1
`

// Transaction scoped lock on the account key
// Row lock alone does not cover accounts which are not created yet
const lockAccountKey = `-- name: LockAccountKey
SELECT pg_advisory_xact_lock(hashtextextended($1, 0))
`

func (r *AccountRepo) Load(ctx context.Context, key string, forUpdate bool) (models.AccountState, error) {
	query := loadAccount
	if forUpdate {
		if _, err := r.DB.Exec(ctx, lockAccountKey, key); err != nil {
			return models.AccountState{}, fmt.Errorf("db error: %w", err)
		}
		query += "FOR UPDATE\n"
	}

	rows, _ := r.DB.Query(ctx, query, key)
	state, err := pgx.CollectOneRow(rows, rowToAccount)

	switch {
	case err == nil:
		return state, nil
	case errors.Is(err, pgx.ErrNoRows):
		return state, fmt.Errorf("account %s: %w", key, apperrors.ErrAccountNotFound)
	default:
		return state, fmt.Errorf("db error: %w", err)
	}
}

// Upsert the document; version and updated_at are owned by database
const saveAccount = `-- name: SaveAccount
INSERT INTO accounts (account_key, document, version, updated_at)
VALUES ($1, $2, 1, now())
ON CONFLICT (account_key) DO UPDATE
SET document = EXCLUDED.document,
	version = accounts.version + 1,
	updated_at = EXCLUDED.updated_at
RETURNING document, version, updated_at
`

func (r *AccountRepo) Save(ctx context.Context, state models.AccountState) (models.AccountState, error) {
	document, err := json.Marshal(state)
	if err != nil {
		return state, fmt.Errorf("can't encode account %s: %w", state.Key, err)
	}

	rows, _ := r.DB.Query(ctx, saveAccount, state.Key, document)
	saved, err := pgx.CollectOneRow(rows, rowToAccount)
	if err != nil {
		return state, fmt.Errorf("db error: %w", err)
	}

	return saved, nil
}

func rowToAccount(row pgx.CollectableRow) (models.AccountState, error) {
	var (
		state    models.AccountState
		document []byte
	)

	if err := row.Scan(&document, &state.Version, &state.UpdatedAt); err != nil {
		return state, err
	}

	version, updatedAt := state.Version, state.UpdatedAt
	if err := json.Unmarshal(document, &state); err != nil {
		return state, fmt.Errorf("can't decode account document: %w", err)
	}
	state.Version, state.UpdatedAt = version, updatedAt

	return state, nil
}
