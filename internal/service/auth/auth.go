package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/ecopoints/internal/apperrors"
	"github.com/nkiryanov/ecopoints/internal/models"
	"github.com/nkiryanov/ecopoints/internal/repository"
)

const (
	defaultAccessHeaderName = "Authorization"
	defaultAccessAuthScheme = "Bearer"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type TokenManager interface {
	Generate(user models.User) (models.IssuedToken, error)
	ParseAccess(access string) (uuid.UUID, error)
}

type Config struct {
	// Hasher to use during user registration or login process
	// BcryptHasher if not set
	Hasher PasswordHasher

	// Header and scheme access token is read from and written to
	AccessHeaderName string
	AccessAuthScheme string
}

type AuthService struct {
	tokenManager TokenManager
	hasher       PasswordHasher
	userRepo     repository.UserRepo

	accessHeaderName string
	accessAuthScheme string

	// Hash compared when user not found, so login takes the same time
	dummyHash string
}

func NewService(cfg Config, tokenManager TokenManager, userRepo repository.UserRepo) (*AuthService, error) {
	if cfg.Hasher == nil {
		cfg.Hasher = BcryptHasher{}
	}
	if cfg.AccessHeaderName == "" {
		cfg.AccessHeaderName = defaultAccessHeaderName
	}
	if cfg.AccessAuthScheme == "" {
		cfg.AccessAuthScheme = defaultAccessAuthScheme
	}

	dummyHash, err := cfg.Hasher.Hash("dummy-password")
	if err != nil {
		return nil, fmt.Errorf("hasher is broken: %w", err)
	}

	return &AuthService{
		tokenManager:     tokenManager,
		hasher:           cfg.Hasher,
		userRepo:         userRepo,
		accessHeaderName: cfg.AccessHeaderName,
		accessAuthScheme: cfg.AccessAuthScheme,
		dummyHash:        dummyHash,
	}, nil
}

func (s *AuthService) Register(ctx context.Context, username string, password string) (models.IssuedToken, error) {
	if password == "" {
		return models.IssuedToken{}, errors.New("password must not be empty")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, username, hash)
	if err != nil {
		return models.IssuedToken{}, err
	}

	token, err := s.tokenManager.Generate(user)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return token, nil
}

// Login returns apperrors.ErrUserNotFound both for unknown user and wrong password
func (s *AuthService) Login(ctx context.Context, username string, password string) (models.IssuedToken, error) {
	user, err := s.userRepo.GetUserByUsername(ctx, username)

	switch {
	case err == nil:
		if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
			return models.IssuedToken{}, apperrors.ErrUserNotFound
		}
	case errors.Is(err, apperrors.ErrUserNotFound):
		_ = s.hasher.Compare(s.dummyHash, password)
		return models.IssuedToken{}, apperrors.ErrUserNotFound
	default:
		return models.IssuedToken{}, err
	}

	token, err := s.tokenManager.Generate(user)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return token, nil
}

// Set access token to response header
func (s *AuthService) SetTokenToResponse(w http.ResponseWriter, token models.IssuedToken) {
	w.Header().Set(s.accessHeaderName, s.accessAuthScheme+" "+token.Value)
}

// Auth returns the user the request is authenticated as
func (s *AuthService) Auth(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get(s.accessHeaderName)
	scheme, access, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, s.accessAuthScheme) || access == "" {
		return models.User{}, apperrors.ErrTokenInvalid
	}

	userID, err := s.tokenManager.ParseAccess(access)
	if err != nil {
		return models.User{}, err
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("token user: %w", err)
	}

	return user, nil
}
