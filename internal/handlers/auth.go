package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/nkiryanov/ecopoints/internal/apperrors"
	"github.com/nkiryanov/ecopoints/internal/handlers/render"
	"github.com/nkiryanov/ecopoints/internal/logger"
)

type tokenResponse struct {
	Message     string    `json:"message"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func handleRegister(authService authService, l logger.Logger) http.HandlerFunc {
	type request struct {
		Login    string `json:"login" validate:"required,email,max=254"`
		Password string `json:"password" validate:"required,min=8"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		token, err := authService.Register(r.Context(), data.Login, data.Password)
		switch {
		case err == nil:
			authService.SetTokenToResponse(w, token)
			render.JSON(w, tokenResponse{Message: "User registered successfully", AccessToken: token.Value, ExpiresAt: token.ExpiresAt})
		case errors.Is(err, apperrors.ErrUserAlreadyExists):
			render.ServiceError(w, "User already exists", http.StatusConflict)
		default:
			l.Error("Failed to register user", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	}
}

func handleLogin(authService authService, l logger.Logger) http.HandlerFunc {
	type request struct {
		Login    string `json:"login" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[request](w, r)
		if err != nil {
			return
		}

		token, err := authService.Login(r.Context(), data.Login, data.Password)
		switch {
		case err == nil:
			authService.SetTokenToResponse(w, token)
			render.JSON(w, tokenResponse{Message: "User logged in successfully", AccessToken: token.Value, ExpiresAt: token.ExpiresAt})
		case errors.Is(err, apperrors.ErrUserNotFound):
			render.ServiceError(w, "User not found", http.StatusUnauthorized)
		default:
			l.Error("Failed to login user", "error", err)
			render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
		}
	}
}
