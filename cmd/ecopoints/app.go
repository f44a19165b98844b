package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nkiryanov/ecopoints/internal/db"
	"github.com/nkiryanov/ecopoints/internal/handlers"
	"github.com/nkiryanov/ecopoints/internal/logger"
	"github.com/nkiryanov/ecopoints/internal/repository"
	"github.com/nkiryanov/ecopoints/internal/repository/memory"
	"github.com/nkiryanov/ecopoints/internal/repository/postgres"
	"github.com/nkiryanov/ecopoints/internal/repository/sqlite"
	"github.com/nkiryanov/ecopoints/internal/service/auth"
	"github.com/nkiryanov/ecopoints/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/ecopoints/internal/service/catalog"
	"github.com/nkiryanov/ecopoints/internal/service/wallet"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger
	close  func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	rewards, err := catalog.Load(c.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("error while loading catalog. Err: %w", err)
	}

	storage, closeStorage, err := openStorage(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while opening storage. Err: %w", err)
	}

	// Initialize services
	tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: c.SecretKey, AccessTTL: c.AccessTokenTTL})
	if err != nil {
		closeStorage()
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}
	authService, err := auth.NewService(auth.Config{}, tokenManager, storage.User())
	if err != nil {
		closeStorage()
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}
	walletService := wallet.NewService(storage, rewards, logger.WithGroup("wallet"))

	mux := handlers.NewRouter(
		handlers.RouterConfig{CORSOrigins: c.CORSOrigins},
		authService,
		walletService,
		rewards,
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		logger:     logger,
		close:      closeStorage,
	}, nil
}

// Storage is picked by DSN scheme
func openStorage(ctx context.Context, dsn string) (repository.Storage, func(), error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		pool, err := db.ConnectAndMigrate(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewStorage(pool), pool.Close, nil

	case strings.HasPrefix(dsn, "sqlite://"):
		s, err := sqlite.New(ctx, strings.TrimPrefix(dsn, "sqlite://"))
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil

	case dsn == "memory://":
		return memory.New(), func() {}, nil

	default:
		return nil, nil, errors.New("unsupported database DSN, expected postgres://, sqlite:// or memory://")
	}
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.close()

	httpServer := &http.Server{
		Addr:              s.ListenAddr,
		Handler:           s.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
