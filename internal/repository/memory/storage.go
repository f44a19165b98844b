// Package memory is an in-process storage for development and tests
package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/ecopoints/internal/apperrors"
	"github.com/nkiryanov/ecopoints/internal/models"
	"github.com/nkiryanov/ecopoints/internal/repository"
)

var errNegativeBalance = errors.New("account balance can't be negative")

type tables struct {
	accounts map[string]models.AccountState
	users    map[uuid.UUID]models.User
}

func (t *tables) clone() *tables {
	return &tables{
		accounts: maps.Clone(t.accounts),
		users:    maps.Clone(t.users),
	}
}

// Storage serializes every operation with one mutex
// Transactions work on a copy of the tables which replaces the original on commit
type Storage struct {
	mu   *sync.Mutex
	t    *tables
	inTx bool
}

func New() *Storage {
	return &Storage{
		mu: &sync.Mutex{},
		t: &tables{
			accounts: make(map[string]models.AccountState),
			users:    make(map[uuid.UUID]models.User),
		},
	}
}

func (s *Storage) Account() repository.AccountRepo {
	return &AccountRepo{s: s}
}

func (s *Storage) User() repository.UserRepo {
	return &UserRepo{s: s}
}

func (s *Storage) InTx(_ context.Context, fn func(repository.Storage) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := &Storage{mu: s.mu, t: s.t.clone(), inTx: true}
	if err := fn(staged); err != nil {
		return err
	}

	s.t = staged.t
	return nil
}

// Lock for single statement outside of transaction
func (s *Storage) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type AccountRepo struct {
	s *Storage
}

func (r *AccountRepo) Load(_ context.Context, key string, _ bool) (models.AccountState, error) {
	defer r.s.lock()()

	state, ok := r.s.t.accounts[key]
	if !ok {
		return models.AccountState{}, apperrors.ErrAccountNotFound
	}
	return copyState(state), nil
}

func (r *AccountRepo) Save(_ context.Context, state models.AccountState) (models.AccountState, error) {
	defer r.s.lock()()

	if state.Balance < 0 {
		return state, errNegativeBalance
	}

	saved := copyState(state)
	saved.Version = r.s.t.accounts[state.Key].Version + 1
	saved.UpdatedAt = time.Now().UTC()
	r.s.t.accounts[state.Key] = saved

	return copyState(saved), nil
}

type UserRepo struct {
	s *Storage
}

func (r *UserRepo) CreateUser(_ context.Context, username string, hashedPassword string) (models.User, error) {
	defer r.s.lock()()

	for _, u := range r.s.t.users {
		if u.Username == username {
			return models.User{}, apperrors.ErrUserAlreadyExists
		}
	}

	user := models.User{
		ID:             uuid.New(),
		CreatedAt:      time.Now().UTC(),
		Username:       username,
		HashedPassword: hashedPassword,
	}
	r.s.t.users[user.ID] = user

	return user, nil
}

func (r *UserRepo) GetUserByID(_ context.Context, userID uuid.UUID) (models.User, error) {
	defer r.s.lock()()

	user, ok := r.s.t.users[userID]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}
	return user, nil
}

func (r *UserRepo) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	defer r.s.lock()()

	for _, u := range r.s.t.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, apperrors.ErrUserNotFound
}

func copyState(state models.AccountState) models.AccountState {
	state.History = slices.Clone(state.History)
	state.Vouchers = slices.Clone(state.Vouchers)
	if state.History == nil {
		state.History = []models.LedgerEntry{}
	}
	if state.Vouchers == nil {
		state.Vouchers = []models.Voucher{}
	}
	return state
}
