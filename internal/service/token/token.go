// Package token issues and validates the server-signed session tokens.
// Admin sessions are capped at two hours; the signing secrets never leave
// the server.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/makeathera-byte/3layered/internal/models"
)

const (
	AccessTTL       = 15 * time.Minute
	RefreshTTL      = 7 * 24 * time.Hour
	AdminSessionTTL = 2 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

type TokenService struct {
	DB            *gorm.DB
	JWTSecret     []byte
	RefreshSecret []byte
}

func (t *TokenService) SignAccessToken(userID uint, role string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  time.Now().Add(AccessTTL).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.JWTSecret)
}

// SignRefreshToken issues the rotating session token. Admin sessions get
// the short TTL; an admin login is fully dead two hours after sign-in.
func (t *TokenService) SignRefreshToken(userID uint, role string) (string, time.Time, error) {
	exp := time.Now().Add(sessionTTL(role))
	claims := jwt.MapClaims{
		"sub":  userID,
		"role": role,
		"exp":  exp.Unix(),
		"typ":  "refresh",
		"jti":  uuid.NewString(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.RefreshSecret)
	return signed, exp, err
}

func sessionTTL(role string) time.Duration {
	if role == "admin" {
		return AdminSessionTTL
	}
	return RefreshTTL
}

func (t *TokenService) SaveRefreshToken(token string, userID uint, role string, expiresAt time.Time) error {
	row := models.RefreshToken{
		Token:     token,
		UserID:    userID,
		Role:      role,
		ExpiresAt: expiresAt.Unix(),
		Revoked:   false,
	}
	if err := t.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ValidateAccess parses and checks signature, method and expiry. An
// expired token fails here no matter how well-formed it is.
func (t *TokenService) ValidateAccess(raw string) (jwt.MapClaims, error) {
	return parseHS256(raw, t.JWTSecret)
}

// ValidateRefresh additionally checks the stored row: unknown, revoked or
// expired tokens are all rejected.
func (t *TokenService) ValidateRefresh(raw string) (jwt.MapClaims, error) {
	claims, err := parseHS256(raw, t.RefreshSecret)
	if err != nil {
		return nil, err
	}
	if typ, ok := claims["typ"]; !ok || typ != "refresh" {
		return nil, fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}

	var stored models.RefreshToken
	if err := t.DB.Where("token = ?", raw).First(&stored).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: refresh token unknown", ErrInvalidToken)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if stored.Revoked {
		return nil, fmt.Errorf("%w: refresh token revoked", ErrInvalidToken)
	}
	if time.Now().Unix() > stored.ExpiresAt {
		return nil, fmt.Errorf("%w: refresh token expired", ErrInvalidToken)
	}
	return claims, nil
}

// RotateToken exchanges a valid refresh token for a fresh pair. The old
// token is revoked so it cannot be replayed.
func (t *TokenService) RotateToken(raw string) (string, string, jwt.MapClaims, error) {
	claims, err := t.ValidateRefresh(raw)
	if err != nil {
		return "", "", nil, err
	}

	userID, role, err := subjectFromClaims(claims)
	if err != nil {
		return "", "", nil, err
	}

	newAccess, err := t.SignAccessToken(userID, role)
	if err != nil {
		return "", "", nil, err
	}
	newRefresh, exp, err := t.SignRefreshToken(userID, role)
	if err != nil {
		return "", "", nil, err
	}
	if err := t.Revoke(raw); err != nil {
		return "", "", nil, err
	}
	if err := t.SaveRefreshToken(newRefresh, userID, role, exp); err != nil {
		return "", "", nil, err
	}
	return newAccess, newRefresh, claims, nil
}

func (t *TokenService) Revoke(raw string) error {
	if err := t.DB.Model(&models.RefreshToken{}).
		Where("token = ?", raw).
		Update("revoked", true).Error; err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func parseHS256(raw string, secret []byte) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tok.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: cannot parse claims", ErrInvalidToken)
	}
	return claims, nil
}

func subjectFromClaims(claims jwt.MapClaims) (uint, string, error) {
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	role, ok := claims["role"].(string)
	if !ok {
		return 0, "", fmt.Errorf("%w: missing role", ErrInvalidToken)
	}
	return uint(sub), role, nil
}
