package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/ecopoints/internal/models"
)

// Account repository: one document per account key
type AccountRepo interface {
	// Load full account state
	// If account not exists must return apperrors.ErrAccountNotFound
	// forUpdate locks the account until the surrounding transaction ends (where the backend supports row locks)
	Load(ctx context.Context, key string, forUpdate bool) (models.AccountState, error)

	// Save the whole state in one write, creating the account if needed
	// Returns the saved state with bumped Version and UpdatedAt
	Save(ctx context.Context, state models.AccountState) (models.AccountState, error)
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with username exists already has to return error apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, username string, hashedPassword string) (models.User, error)

	// Get user by it's id or username
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
}

type Storage interface {
	Account() AccountRepo
	User() UserRepo

	// Run fn in transaction: commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
