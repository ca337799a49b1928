package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/makeathera-byte/3layered/internal/models"
	"github.com/makeathera-byte/3layered/internal/service"
	"github.com/makeathera-byte/3layered/internal/util"
)

// AdminHandler is the back-office surface: dashboard stats, order
// fulfillment, user listing and storefront content.
type AdminHandler struct {
	DB     *gorm.DB
	Orders *service.OrderService
}

func (h *AdminHandler) Stats(c echo.Context) error {
	st, err := h.Orders.Stats(c.Request().Context())
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *AdminHandler) ListOrders(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Paginate(page, size)

	orders, total, err := h.Orders.List(c.Request().Context(), c.QueryParam("status"), offset, limit)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": orders,
		"meta": pageMeta(page, limit, offset, total),
	})
}

func (h *AdminHandler) GetOrder(c echo.Context) error {
	order, items, err := h.Orders.GetByNumber(c.Request().Context(), c.Param("number"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"order": order,
		"items": items,
	})
}

func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	order, err := h.Orders.UpdateStatus(c.Request().Context(), c.Param("number"), req.Status)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *AdminHandler) DeleteOrder(c echo.Context) error {
	if err := h.Orders.Delete(c.Request().Context(), c.Param("number")); err != nil {
		return serviceError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Paginate(page, size)

	var total int64
	if err := h.DB.Model(&models.User{}).Count(&total).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var users []models.User
	if err := h.DB.Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": users,
		"meta": pageMeta(page, limit, offset, total),
	})
}

// UpdateUserRole promotes or demotes an account. Only the two known roles
// are accepted.
func (h *AdminHandler) UpdateUserRole(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Role != "user" && req.Role != "admin" {
		return errorResponse(c, http.StatusBadRequest, errors.New("role must be user or admin"))
	}

	var user models.User
	if err := h.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	user.Role = req.Role
	if err := h.DB.Save(&user).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser removes the account along with its cart and refresh tokens.
// Orders stay for bookkeeping.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if txErr != nil {
		return errorResponse(c, http.StatusInternalServerError, txErr)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHandler) ListBanners(c echo.Context) error {
	var banners []models.Banner
	if err := h.DB.Order("position ASC, id ASC").Find(&banners).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, banners)
}

func (h *AdminHandler) CreateBanner(c echo.Context) error {
	var banner models.Banner
	if err := c.Bind(&banner); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if banner.Title == "" || banner.ImageURL == "" {
		return errorResponse(c, http.StatusBadRequest, errors.New("title and image are required"))
	}
	banner.ID = 0

	if err := h.DB.Create(&banner).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusCreated, banner)
}

func (h *AdminHandler) UpdateBanner(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var banner models.Banner
	if err := h.DB.First(&banner, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var req models.Banner
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Title != "" {
		banner.Title = req.Title
	}
	if req.ImageURL != "" {
		banner.ImageURL = req.ImageURL
	}
	banner.LinkURL = req.LinkURL
	banner.Active = req.Active
	banner.Position = req.Position

	if err := h.DB.Save(&banner).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, banner)
}

func (h *AdminHandler) DeleteBanner(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if err := h.DB.Delete(&models.Banner{}, id).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ActiveBanners is the public storefront view, active banners only.
func (h *AdminHandler) ActiveBanners(c echo.Context) error {
	var banners []models.Banner
	if err := h.DB.Where("active = ?", true).Order("position ASC, id ASC").Find(&banners).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, banners)
}

func (h *AdminHandler) ListMedia(c echo.Context) error {
	var assets []models.MediaAsset
	if err := h.DB.Order("created_at DESC").Find(&assets).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, assets)
}

// RegisterMedia records the metadata of a file that already lives in
// external storage. Binaries are never stored here.
func (h *AdminHandler) RegisterMedia(c echo.Context) error {
	var asset models.MediaAsset
	if err := c.Bind(&asset); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if asset.FileName == "" || asset.URL == "" {
		return errorResponse(c, http.StatusBadRequest, errors.New("file_name and url are required"))
	}
	asset.ID = 0
	asset.CreatedAt = time.Now()

	if err := h.DB.Create(&asset).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusCreated, asset)
}

func (h *AdminHandler) DeleteMedia(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if err := h.DB.Delete(&models.MediaAsset{}, id).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}
