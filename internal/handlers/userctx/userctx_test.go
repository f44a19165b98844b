package userctx

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/ecopoints/internal/models"
)

func TestUserctx(t *testing.T) {
	t.Run("empty context", func(t *testing.T) {
		_, ok := FromContext(context.Background())
		require.False(t, ok)

		_, ok = AccountKey(context.Background())
		require.False(t, ok)
	})

	t.Run("user in context", func(t *testing.T) {
		u := models.User{ID: uuid.New(), Username: "user@example.com"}

		ctx := New(context.Background(), u)

		got, ok := FromContext(ctx)
		require.True(t, ok)
		require.Equal(t, u, got)

		key, ok := AccountKey(ctx)
		require.True(t, ok)
		require.Equal(t, "user@example.com", key)
	})

	t.Run("user without username has no account", func(t *testing.T) {
		ctx := New(context.Background(), models.User{ID: uuid.New()})

		_, ok := AccountKey(ctx)
		require.False(t, ok)
	})
}
