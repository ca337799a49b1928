package handlers

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makeathera-byte/3layered/internal/checkout"
	"github.com/makeathera-byte/3layered/internal/models"
	"github.com/makeathera-byte/3layered/internal/service"
)

func newAdminHandler(t *testing.T) *AdminHandler {
	t.Helper()

	db := initTestDB(t)
	return &AdminHandler{
		DB: db,
		Orders: &service.OrderService{
			DB:   db,
			Fees: checkout.FeeSchedule{CustomizationFee: 300, CODFee: 25},
		},
	}
}

func seedOrder(t *testing.T, h *AdminHandler, number, status string, total int64) {
	t.Helper()
	require.NoError(t, h.DB.Create(&models.Order{
		OrderNumber:   number,
		UserName:      "Asha Rao",
		UserEmail:     "asha@example.com",
		UserPhone:     "9876543210",
		Subtotal:      total,
		TotalAmount:   total,
		PaymentMethod: "cod",
		PaymentStatus: models.PaymentStatusPending,
		Status:        status,
	}).Error)
}

func TestAdminListOrdersFiltersByStatus(t *testing.T) {
	h := newAdminHandler(t)
	e := echo.New()
	seedOrder(t, h, "ORD-AAA", models.OrderStatusPending, 500)
	seedOrder(t, h, "ORD-BBB", models.OrderStatusShipped, 700)

	c, rec := jsonContext(t, e, http.MethodGet, "/admin/orders?status=shipped", nil)
	require.NoError(t, h.ListOrders(c))
	requireStatus(t, rec, http.StatusOK)

	page := decode[struct {
		Data []models.Order `json:"data"`
	}](t, rec)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "ORD-BBB", page.Data[0].OrderNumber)
}

func TestAdminUpdateOrderStatus(t *testing.T) {
	h := newAdminHandler(t)
	e := echo.New()
	seedOrder(t, h, "ORD-AAA", models.OrderStatusPending, 500)

	c, rec := jsonContext(t, e, http.MethodPatch, "/admin/orders/ORD-AAA/status", map[string]any{
		"status": models.OrderStatusProcessing,
	})
	c.SetParamNames("number")
	c.SetParamValues("ORD-AAA")
	require.NoError(t, h.UpdateOrderStatus(c))
	requireStatus(t, rec, http.StatusOK)

	// pending cannot jump straight to delivered
	c2, rec2 := jsonContext(t, e, http.MethodPatch, "/admin/orders/ORD-AAA/status", map[string]any{
		"status": models.OrderStatusPending,
	})
	c2.SetParamNames("number")
	c2.SetParamValues("ORD-AAA")
	require.NoError(t, h.UpdateOrderStatus(c2))
	requireStatus(t, rec2, http.StatusConflict)
}

func TestAdminBannerLifecycle(t *testing.T) {
	h := newAdminHandler(t)
	e := echo.New()

	c, rec := jsonContext(t, e, http.MethodPost, "/admin/banners", map[string]any{
		"title": "Monsoon Sale", "image": "https://cdn.example.com/sale.png", "active": true,
	})
	require.NoError(t, h.CreateBanner(c))
	requireStatus(t, rec, http.StatusCreated)

	banner := decode[models.Banner](t, rec)
	require.NotZero(t, banner.ID)

	// Deactivated banners disappear from the public view.
	c2, rec2 := jsonContext(t, e, http.MethodPatch, "/admin/banners/1", map[string]any{
		"title": "Monsoon Sale", "image": "https://cdn.example.com/sale.png", "active": false,
	})
	c2.SetParamNames("id")
	c2.SetParamValues("1")
	require.NoError(t, h.UpdateBanner(c2))
	requireStatus(t, rec2, http.StatusOK)

	c3, rec3 := jsonContext(t, e, http.MethodGet, "/banners", nil)
	require.NoError(t, h.ActiveBanners(c3))
	banners := decode[[]models.Banner](t, rec3)
	assert.Empty(t, banners)
}

func TestAdminRegisterMedia(t *testing.T) {
	h := newAdminHandler(t)
	e := echo.New()

	c, rec := jsonContext(t, e, http.MethodPost, "/admin/media", map[string]any{
		"file_name": "hero.png",
		"url":       "https://cdn.example.com/hero.png",
		"mime_type": "image/png",
	})
	require.NoError(t, h.RegisterMedia(c))
	requireStatus(t, rec, http.StatusCreated)

	asset := decode[models.MediaAsset](t, rec)
	assert.Equal(t, "hero.png", asset.FileName)

	// Missing URL is rejected.
	c2, rec2 := jsonContext(t, e, http.MethodPost, "/admin/media", map[string]any{
		"file_name": "hero.png",
	})
	require.NoError(t, h.RegisterMedia(c2))
	requireStatus(t, rec2, http.StatusBadRequest)
}

func TestAdminUpdateUserRole(t *testing.T) {
	h := newAdminHandler(t)
	e := echo.New()
	require.NoError(t, h.DB.Create(&models.User{Username: "asha", PasswordHash: "x", Role: "user"}).Error)

	c, rec := jsonContext(t, e, http.MethodPatch, "/admin/users/1/role", map[string]any{"role": "admin"})
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.UpdateUserRole(c))
	requireStatus(t, rec, http.StatusOK)

	user := decode[models.User](t, rec)
	assert.Equal(t, "admin", user.Role)

	c2, rec2 := jsonContext(t, e, http.MethodPatch, "/admin/users/1/role", map[string]any{"role": "superuser"})
	c2.SetParamNames("id")
	c2.SetParamValues("1")
	require.NoError(t, h.UpdateUserRole(c2))
	requireStatus(t, rec2, http.StatusBadRequest)
}

func TestAdminDeleteUserKeepsOrders(t *testing.T) {
	h := newAdminHandler(t)
	e := echo.New()
	require.NoError(t, h.DB.Create(&models.User{Username: "asha", PasswordHash: "x", Role: "user"}).Error)
	require.NoError(t, h.DB.Create(&models.CartItem{UserID: 1, ProductID: 1, Quantity: 1}).Error)
	seedOrder(t, h, "ORD-AAA", models.OrderStatusPending, 500)
	require.NoError(t, h.DB.Model(&models.Order{}).Where("order_number = ?", "ORD-AAA").Update("user_id", 1).Error)

	c, rec := jsonContext(t, e, http.MethodDelete, "/admin/users/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, h.DeleteUser(c))
	requireStatus(t, rec, http.StatusNoContent)

	var users, carts, orders int64
	require.NoError(t, h.DB.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, h.DB.Model(&models.CartItem{}).Count(&carts).Error)
	require.NoError(t, h.DB.Model(&models.Order{}).Count(&orders).Error)
	assert.Zero(t, users)
	assert.Zero(t, carts)
	assert.Equal(t, int64(1), orders, "orders survive account deletion")
}

func TestAdminStatsEmpty(t *testing.T) {
	h := newAdminHandler(t)
	e := echo.New()

	c, rec := jsonContext(t, e, http.MethodGet, "/admin/stats", nil)
	require.NoError(t, h.Stats(c))
	requireStatus(t, rec, http.StatusOK)

	st := decode[service.Stats](t, rec)
	assert.Zero(t, st.TotalOrders)
	assert.Zero(t, st.Revenue)
}
