package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/nkiryanov/ecopoints/internal/apperrors"
	"github.com/nkiryanov/ecopoints/internal/models"
)

type UserRepo struct {
	q querier
}

const createUser = `
INSERT INTO users (id, created_at, username, password_hash)
VALUES (?, ?, ?, ?)
`

func (r *UserRepo) CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error) {
	user := models.User{
		ID:             uuid.New(),
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
		Username:       username,
		HashedPassword: hashedPassword,
	}

	_, err := r.q.ExecContext(ctx, createUser,
		user.ID.String(), user.CreatedAt.Format(time.RFC3339Nano), user.Username, user.HashedPassword)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return models.User{}, apperrors.ErrUserAlreadyExists
		}
		return models.User{}, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const getUserByID = `
SELECT id, created_at, username, password_hash FROM users
WHERE id = ?
`

func (r *UserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (models.User, error) {
	return scanUser(r.q.QueryRowContext(ctx, getUserByID, id.String()))
}

const getUserByUsername = `
SELECT id, created_at, username, password_hash FROM users
WHERE username = ?
`

func (r *UserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return scanUser(r.q.QueryRowContext(ctx, getUserByUsername, username))
}

func scanUser(row *sql.Row) (models.User, error) {
	var (
		u         models.User
		id        string
		createdAt string
	)

	err := row.Scan(&id, &createdAt, &u.Username, &u.HashedPassword)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return u, apperrors.ErrUserNotFound
	case err != nil:
		return u, fmt.Errorf("db error: %w", err)
	}

	if u.ID, err = uuid.Parse(id); err != nil {
		return u, fmt.Errorf("bad user id %q: %w", id, err)
	}
	if u.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return u, fmt.Errorf("bad user created_at %q: %w", createdAt, err)
	}

	return u, nil
}
