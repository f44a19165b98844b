// Package userctx carries the authenticated user through request context
package userctx

import (
	"context"

	"github.com/nkiryanov/ecopoints/internal/models"
)

type userKey struct{}

func New(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey{}).(models.User)
	return u, ok
}

// AccountKey returns ledger account of the authenticated user
// Every user owns exactly one account keyed by username
func AccountKey(ctx context.Context) (string, bool) {
	u, ok := FromContext(ctx)
	if !ok || u.Username == "" {
		return "", false
	}
	return u.Username, true
}
