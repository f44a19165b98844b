package tokenmanager

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/ecopoints/internal/apperrors"
	"github.com/nkiryanov/ecopoints/internal/models"
	"github.com/nkiryanov/ecopoints/internal/testutil"
)

func Test_TokenManager(t *testing.T) {
	t.Parallel()

	testUser := models.User{
		ID:             uuid.New(),
		CreatedAt:      testutil.MustParseTime(t, "2024-01-01 19:00:01Z"),
		Username:       "user@example.com",
		HashedPassword: "hashed_password",
	}

	newManager := func(t *testing.T, accessTTL time.Duration) *TokenManager {
		m, err := New(Config{SecretKey: "test-secret-key", AccessTTL: accessTTL})
		require.NoError(t, err, "token manager should be created without errors")
		return m
	}

	t.Run("new defaults", func(t *testing.T) {
		m, err := New(Config{SecretKey: "secret"})
		require.NoError(t, err, "token manager should be created without errors")

		require.Equal(t, "secret", m.key, "secret key should be set")
		require.Equal(t, defaultAccessTokenTTL, m.accessTTL, "default access token TTL should be set")
		require.Equal(t, defaultSigningMethod, m.alg.Alg(), "default signing method should be set")
	})

	t.Run("new fail", func(t *testing.T) {
		_, err := New(Config{})
		require.Error(t, err, "secret key is required")

		_, err = New(Config{SecretKey: "secret", Alg: "RS256"})
		require.Error(t, err, "only HMAC methods are supported")
	})

	t.Run("Generate", func(t *testing.T) {
		t.Run("access claims", func(t *testing.T) {
			m := newManager(t, 15*time.Minute)

			issued, err := m.Generate(testUser)
			require.NoError(t, err)
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), issued.ExpiresAt, time.Second)

			token, err := jwt.ParseWithClaims(issued.Value, &AccessTokenClaims{}, func(token *jwt.Token) (any, error) {
				return []byte("test-secret-key"), nil
			})
			require.NoError(t, err)
			require.True(t, token.Valid, "access token should be valid")

			claims, ok := token.Claims.(*AccessTokenClaims)
			require.True(t, ok, "claims should be of type AccessTokenClaims")
			assert.Equal(t, testUser.ID, claims.UserID, "user ID in token should match")
			assert.Equal(t, testUser.Username, claims.Subject, "subject is the username")
			assert.NotEmpty(t, claims.ID, "token has to has jti")
			assert.WithinDuration(t, issued.ExpiresAt, claims.ExpiresAt.Time, 0, "expires at should match issued token")
		})

		t.Run("generate different tokens", func(t *testing.T) {
			m := newManager(t, 15*time.Minute)

			first, err := m.Generate(testUser)
			require.NoError(t, err)
			second, err := m.Generate(testUser)
			require.NoError(t, err)

			assert.NotEqual(t, first.Value, second.Value, "access tokens should be different")
		})
	})

	t.Run("ParseAccess", func(t *testing.T) {
		t.Run("valid token", func(t *testing.T) {
			m := newManager(t, 15*time.Minute)
			issued, err := m.Generate(testUser)
			require.NoError(t, err)

			userID, err := m.ParseAccess(issued.Value)

			require.NoError(t, err, "valid token should be parsed without errors")
			require.Equal(t, testUser.ID, userID)
		})

		t.Run("not a token", func(t *testing.T) {
			m := newManager(t, 15*time.Minute)

			_, err := m.ParseAccess("invalid token")

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		})

		t.Run("expired token", func(t *testing.T) {
			m := newManager(t, -time.Minute)
			issued, err := m.Generate(testUser)
			require.NoError(t, err)

			_, err = m.ParseAccess(issued.Value)

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid, "token has to become expired")
		})

		t.Run("signed with other key", func(t *testing.T) {
			other, err := New(Config{SecretKey: "other-key"})
			require.NoError(t, err)
			issued, err := other.Generate(testUser)
			require.NoError(t, err)

			_, err = newManager(t, 15*time.Minute).ParseAccess(issued.Value)

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		})

		t.Run("other issuer", func(t *testing.T) {
			m := newManager(t, 15*time.Minute)
			token := jwt.NewWithClaims(
				jwt.SigningMethodHS256,
				AccessTokenClaims{
					RegisteredClaims: jwt.RegisteredClaims{
						ID:        uuid.NewString(),
						Issuer:    "somebody-else",
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
					},
					UserID: testUser.ID,
				},
			)
			access, err := token.SignedString([]byte("test-secret-key"))
			require.NoError(t, err)

			_, err = m.ParseAccess(access)

			require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
		})

		t.Run("not signed token", func(t *testing.T) {
			m := newManager(t, 15*time.Minute)
			token := jwt.NewWithClaims(
				jwt.SigningMethodNone,
				AccessTokenClaims{
					RegisteredClaims: jwt.RegisteredClaims{
						ID:        uuid.NewString(),
						IssuedAt:  jwt.NewNumericDate(time.Now()),
						ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
					},
					UserID: testUser.ID,
				},
			)
			access, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)

			_, err = m.ParseAccess(access)

			require.Error(t, err, "Valid token with empty alg must fail")
		})
	})
}
