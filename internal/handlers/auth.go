package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/makeathera-byte/3layered/internal/hash"
	"github.com/makeathera-byte/3layered/internal/models"
	"github.com/makeathera-byte/3layered/internal/mykafka"
	"github.com/makeathera-byte/3layered/internal/service/token"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

type AuthHandler struct {
	DB       *gorm.DB
	Tokens   *token.TokenService
	Producer *mykafka.Producer
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicUserEvents, fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

// issueSession signs both tokens, persists the refresh token and sets the
// cookies. Admin refresh tokens carry a much shorter lifetime.
func (h *AuthHandler) issueSession(c echo.Context, user models.User) error {
	access, err := h.Tokens.SignAccessToken(user.ID, user.Role)
	if err != nil {
		return err
	}
	refresh, refreshExp, err := h.Tokens.SignRefreshToken(user.ID, user.Role)
	if err != nil {
		return err
	}
	if err := h.Tokens.SaveRefreshToken(refresh, user.ID, user.Role, refreshExp); err != nil {
		return err
	}

	c.SetCookie(token.CreateCookie("accessToken", access, "/", time.Now().Add(token.AccessTTL)))
	c.SetCookie(token.CreateCookie("refreshToken", refresh, "/", refreshExp))
	return nil
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Username == "" || len(req.Password) < 8 {
		return errorResponse(c, http.StatusBadRequest,
			errors.New("username and a password of at least 8 characters are required"))
	}
	if req.Email != "" && !emailRe.MatchString(req.Email) {
		return errorResponse(c, http.StatusBadRequest, errors.New("invalid email"))
	}

	var existing models.User
	err := h.DB.Where("username = ?", req.Username).First(&existing).Error
	if err == nil {
		return errorResponse(c, http.StatusConflict, errors.New("user already exists"))
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	user := models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         "user",
	}
	if err := h.DB.Create(&user).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]any{
		"type":     "user_registered",
		"userID":   user.ID,
		"username": user.Username,
	})

	if err := h.issueSession(c, user); err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req credentials
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var user models.User
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		// Same answer for an unknown user and a wrong password.
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	if err := h.issueSession(c, user); err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]any{
		"type":   "user_logged_in",
		"userID": user.ID,
	})
	return c.JSON(http.StatusOK, user)
}

// Logout revokes the refresh token and drops both cookies. It succeeds
// even when the session is already gone.
func (h *AuthHandler) Logout(c echo.Context) error {
	if rf, err := c.Cookie("refreshToken"); err == nil && rf.Value != "" {
		if err := h.Tokens.Revoke(rf.Value); err != nil {
			c.Logger().Errorf("refresh revoke error: %v", err)
		}
	}

	c.SetCookie(token.DeleteCookie("accessToken", "/"))
	c.SetCookie(token.DeleteCookie("refreshToken", "/"))
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, user)
}

// MyOrders lists the authenticated user's order history.
func (h *AuthHandler) MyOrders(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var orders []models.Order
	if err := h.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&orders).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, orders)
}
