package middleware

import (
	"context"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nkiryanov/ecopoints/internal/handlers/render"
	"github.com/nkiryanov/ecopoints/internal/handlers/userctx"
	"github.com/nkiryanov/ecopoints/internal/models"
)

type authService interface {
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

// RequireUser puts authenticated user to request context or responds 401
func RequireUser(as authService, l logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := as.Auth(r.Context(), r)
			if err != nil {
				l.Debug("request is not authenticated", "error", err, "request_id", chimw.GetReqID(r.Context()))

				w.Header().Set("WWW-Authenticate", `Bearer realm="ecopoints"`)
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(userctx.New(r.Context(), user)))
		})
	}
}
