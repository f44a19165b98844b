package memory

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/ecopoints/internal/apperrors"
	"github.com/nkiryanov/ecopoints/internal/models"
	"github.com/nkiryanov/ecopoints/internal/repository"
)

func TestAccountRepo(t *testing.T) {
	s := New()

	_, err := s.Account().Load(t.Context(), "user@example.com", false)
	require.ErrorIs(t, err, apperrors.ErrAccountNotFound)

	state := models.NewAccountState("user@example.com")
	state.Balance = 10
	state.History = append(state.History, models.LedgerEntry{Delta: 10, ResultingBalance: 10})

	saved, err := s.Account().Save(t.Context(), state)
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)

	// Mutating returned copy must not leak into storage
	saved.History[0].Reason = "changed"

	loaded, err := s.Account().Load(t.Context(), "user@example.com", false)
	require.NoError(t, err)
	assert.Equal(t, "", loaded.History[0].Reason)
	assert.Equal(t, int64(1), loaded.Version)
}

func TestAccountRepo_NegativeBalance(t *testing.T) {
	s := New()
	state := models.NewAccountState("user@example.com")
	state.Balance = -1

	_, err := s.Account().Save(t.Context(), state)

	require.Error(t, err)
}

func TestUserRepo(t *testing.T) {
	s := New()

	created, err := s.User().CreateUser(t.Context(), "user@example.com", "hash")
	require.NoError(t, err)

	_, err = s.User().CreateUser(t.Context(), "user@example.com", "hash")
	require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)

	byID, err := s.User().GetUserByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, byID)

	byName, err := s.User().GetUserByUsername(t.Context(), "user@example.com")
	require.NoError(t, err)
	assert.Equal(t, created, byName)

	_, err = s.User().GetUserByUsername(t.Context(), "nobody@example.com")
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestStorage_InTx(t *testing.T) {
	t.Run("rollback restores tables", func(t *testing.T) {
		s := New()
		fail := errors.New("fail")

		err := s.InTx(t.Context(), func(tx repository.Storage) error {
			_, err := tx.Account().Save(t.Context(), models.NewAccountState("user@example.com"))
			require.NoError(t, err)
			_, err = tx.User().CreateUser(t.Context(), "user@example.com", "hash")
			require.NoError(t, err)
			return fail
		})

		require.ErrorIs(t, err, fail)
		_, err = s.Account().Load(t.Context(), "user@example.com", false)
		require.ErrorIs(t, err, apperrors.ErrAccountNotFound)
		_, err = s.User().GetUserByUsername(t.Context(), "user@example.com")
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	t.Run("nested joins outer", func(t *testing.T) {
		s := New()

		err := s.InTx(t.Context(), func(tx repository.Storage) error {
			return tx.InTx(t.Context(), func(inner repository.Storage) error {
				_, err := inner.Account().Save(t.Context(), models.NewAccountState("user@example.com"))
				return err
			})
		})

		require.NoError(t, err)
		_, err = s.Account().Load(t.Context(), "user@example.com", false)
		require.NoError(t, err)
	})

	t.Run("concurrent transactions serialized", func(t *testing.T) {
		s := New()
		_, err := s.Account().Save(t.Context(), models.NewAccountState("user@example.com"))
		require.NoError(t, err)

		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.InTx(t.Context(), func(tx repository.Storage) error {
					state, err := tx.Account().Load(t.Context(), "user@example.com", true)
					if err != nil {
						return err
					}
					state.Balance++
					_, err = tx.Account().Save(t.Context(), state)
					return err
				})
			}()
		}
		wg.Wait()

		state, err := s.Account().Load(t.Context(), "user@example.com", false)
		require.NoError(t, err)
		assert.Equal(t, int64(50), state.Balance)
	})
}
