package token

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

func CreateCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie(name, path string) *http.Cookie {
	return CreateCookie(name, "", path, time.Now().Add(-time.Hour))
}

// RequireAuth guards a route with the access cookie and transparently
// rotates an expired access token through the refresh token.
func (t *TokenService) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return t.requireRole(next, "")
}

// RequireAdmin additionally demands the admin role.
func (t *TokenService) RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return t.requireRole(next, "admin")
}

func (t *TokenService) requireRole(next echo.HandlerFunc, wantRole string) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, err := t.claimsFromCookies(c)
		if err != nil {
			return err
		}

		userID, role, err := subjectFromClaims(claims)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}
		if wantRole != "" && role != wantRole {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}

		c.Set("userID", userID)
		c.Set("role", role)
		return next(c)
	}
}

func (t *TokenService) claimsFromCookies(c echo.Context) (jwt.MapClaims, error) {
	if asCookie, err := c.Cookie("accessToken"); err == nil && asCookie.Value != "" {
		claims, err := t.ValidateAccess(asCookie.Value)
		if err == nil {
			return claims, nil
		}
		if !errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, ErrInvalidToken) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid access token")
		}
	}

	rfCookie, err := c.Cookie("refreshToken")
	if err != nil || rfCookie.Value == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing session")
	}

	newAccess, newRefresh, claims, err := t.RotateToken(rfCookie.Value)
	if err != nil {
		c.SetCookie(DeleteCookie("accessToken", "/"))
		c.SetCookie(DeleteCookie("refreshToken", "/"))
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "session expired")
	}

	_, role, _ := subjectFromClaims(claims)
	c.SetCookie(CreateCookie("accessToken", newAccess, "/", time.Now().Add(AccessTTL)))
	c.SetCookie(CreateCookie("refreshToken", newRefresh, "/", time.Now().Add(sessionTTL(role))))
	return claims, nil
}

// UserID reads the authenticated user from the request context set by the
// middleware.
func UserID(c echo.Context) (uint, error) {
	v, ok := c.Get("userID").(uint)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
	}
	return v, nil
}
