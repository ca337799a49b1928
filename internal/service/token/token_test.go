package token

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/makeathera-byte/3layered/internal/models"
)

func newTestService(t *testing.T) *TokenService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.RefreshToken{}))

	return &TokenService{
		DB:            db,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	raw, err := svc.SignAccessToken(42, "admin")
	require.NoError(t, err)

	claims, err := svc.ValidateAccess(raw)
	require.NoError(t, err)
	assert.Equal(t, float64(42), claims["sub"])
	assert.Equal(t, "admin", claims["role"])
}

func TestExpiredTokenFailsValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	// A correctly signed token whose expiry is in the past must fail, no
	// matter how well-formed the rest of it is.
	claims := jwt.MapClaims{
		"sub":  float64(42),
		"role": "admin",
		"exp":  time.Now().Add(-time.Minute).Unix(),
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(svc.JWTSecret)
	require.NoError(t, err)

	_, err = svc.ValidateAccess(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestWrongSecretFailsValidation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	other := &TokenService{JWTSecret: []byte("different-secret")}

	raw, err := other.SignAccessToken(1, "user")
	require.NoError(t, err)

	_, err = svc.ValidateAccess(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestAdminSessionTTLIsTwoHours(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	_, adminExp, err := svc.SignRefreshToken(1, "admin")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(AdminSessionTTL), adminExp, 5*time.Second)

	_, userExp, err := svc.SignRefreshToken(2, "user")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(RefreshTTL), userExp, 5*time.Second)
}

func TestRotateTokenRevokesOld(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	refresh, exp, err := svc.SignRefreshToken(7, "user")
	require.NoError(t, err)
	require.NoError(t, svc.SaveRefreshToken(refresh, 7, "user", exp))

	newAccess, newRefresh, claims, err := svc.RotateToken(refresh)
	require.NoError(t, err)
	require.NotEmpty(t, newAccess)
	require.NotEmpty(t, newRefresh)
	assert.Equal(t, float64(7), claims["sub"])

	// The old token cannot be replayed.
	_, _, _, err = svc.RotateToken(refresh)
	require.ErrorIs(t, err, ErrInvalidToken)

	// The new one rotates fine.
	_, _, _, err = svc.RotateToken(newRefresh)
	require.NoError(t, err)
}

func TestValidateRefreshRejectsUnknownAndRevoked(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)

	refresh, exp, err := svc.SignRefreshToken(9, "user")
	require.NoError(t, err)

	// Signed but never stored.
	_, err = svc.ValidateRefresh(refresh)
	require.ErrorIs(t, err, ErrInvalidToken)

	require.NoError(t, svc.SaveRefreshToken(refresh, 9, "user", exp))
	_, err = svc.ValidateRefresh(refresh)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(refresh))
	_, err = svc.ValidateRefresh(refresh)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRefreshRejectsAccessToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	access, err := svc.SignAccessToken(1, "user")
	require.NoError(t, err)

	_, err = svc.ValidateRefresh(access)
	require.ErrorIs(t, err, ErrInvalidToken)
}
