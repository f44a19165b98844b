package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/ecopoints/internal/handlers/middleware"
	"github.com/nkiryanov/ecopoints/internal/logger"
	"github.com/nkiryanov/ecopoints/internal/models"
)

type RouterConfig struct {
	// Origins allowed to call API from browser. Empty disables CORS
	CORSOrigins []string
}

func NewRouter(
	cfg RouterConfig,
	authService authService,
	walletService walletService,
	catalogService catalogService,
	logger logger.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimw.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders: []string{"Authorization"},
		}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", handleRegister(authService, logger))
		r.Post("/auth/login", handleLogin(authService, logger))

		r.Get("/rewards", handleListRewards(catalogService))
		r.Get("/devices", handleListDevices(catalogService))

		r.Route("/user", func(r chi.Router) {
			r.Use(middleware.RequireUser(authService, logger))

			r.Get("/balance", handleBalance(walletService, logger))
			r.Get("/history", handleHistory(walletService, logger))
			r.Get("/vouchers", handleListVouchers(walletService, logger))
			r.Post("/recycle", handleRecycle(walletService, logger))
			r.Post("/redeem", handleRedeem(walletService, logger))
			r.Post("/discount/preview", handlePreviewDiscount(walletService, logger))
			r.Post("/purchases", handleSettlePurchase(walletService, logger))
		})
	})

	return r
}

type authService interface {
	// Register user with username and password
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, username string, password string) (models.IssuedToken, error)

	// Login user with username and password
	// Has to return apperrors.ErrUserNotFound if user not found or password is wrong
	Login(ctx context.Context, username string, password string) (models.IssuedToken, error)

	// Set access token to response
	SetTokenToResponse(w http.ResponseWriter, token models.IssuedToken)

	// Get request and return user if it authenticated or error
	Auth(ctx context.Context, r *http.Request) (models.User, error)
}

// Account key is the username of authenticated user
type walletService interface {
	GetSummary(ctx context.Context, key string) (models.AccountSummary, error)
	GetHistory(ctx context.Context, key string) ([]models.LedgerEntry, error)
	ListVouchers(ctx context.Context, key string) ([]models.Voucher, error)
	PreviewDiscount(ctx context.Context, key string, cartTotal decimal.Decimal) (models.DiscountResult, error)
	Redeem(ctx context.Context, key string, rewardID string) (models.Voucher, error)
	SettlePurchase(ctx context.Context, key string, cartTotal decimal.Decimal, reference string) (models.SettlementResult, error)
	Recycle(ctx context.Context, key string, deviceID string) (models.LedgerEntry, error)
}

type catalogService interface {
	Rewards() []models.Reward
	Devices() []models.Device
}
