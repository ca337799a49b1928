package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/makeathera-byte/3layered/internal/cart"
	"github.com/makeathera-byte/3layered/internal/checkout"
	"github.com/makeathera-byte/3layered/internal/models"
	"github.com/makeathera-byte/3layered/internal/mykafka"
	"github.com/makeathera-byte/3layered/internal/pricing"
	"github.com/makeathera-byte/3layered/internal/service/token"
)

type CartHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	Fees     checkout.FeeSchedule
}

func (h *CartHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicCartEvents, fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

// cartState is the persisted cart priced against the current catalog.
type cartState struct {
	Items            []cartLine `json:"items"`
	TotalItems       uint       `json:"total_items"`
	Subtotal         int64      `json:"subtotal"`
	OriginalSubtotal int64      `json:"original_subtotal"`
	TotalSavings     int64      `json:"total_savings"`
	CustomizationFee int64      `json:"customization_fee"`
}

type cartLine struct {
	ID            uint   `json:"id"`
	ProductID     uint   `json:"product_id"`
	Name          string `json:"name"`
	Image         string `json:"image,omitempty"`
	Price         int64  `json:"price"`
	OriginalPrice int64  `json:"original_price,omitempty"`
	DiscountPct   int    `json:"discount_percentage,omitempty"`
	Quantity      uint   `json:"quantity"`
	Customization string `json:"customization,omitempty"`
	DriveLink     string `json:"drive_link,omitempty"`
	Subtotal      int64  `json:"subtotal"`
}

// loadState reprices every row from the product table. Rows whose product
// has been removed from the catalog are dropped silently.
func (h *CartHandler) loadState(userID uint) (*cartState, error) {
	var rows []models.CartItem
	if err := h.DB.Where("user_id = ?", userID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	agg := cart.New()
	state := &cartState{Items: make([]cartLine, 0, len(rows))}
	for _, row := range rows {
		var p models.Product
		if err := h.DB.First(&p, row.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		listed := pricing.Round(p.Price)
		eff, err := pricing.EffectivePrice(float64(listed), p.DiscountPct)
		if err != nil {
			continue
		}

		line := cart.Line{
			ProductID:     p.ID,
			Name:          p.Name,
			Image:         p.ImageURL,
			Price:         eff,
			Quantity:      row.Quantity,
			Customization: row.Customization,
			DriveLink:     row.DriveLink,
		}
		if p.DiscountPct > 0 {
			line.OriginalPrice = listed
			line.DiscountPct = p.DiscountPct
		}
		if err := agg.AddItem(line); err != nil {
			return nil, err
		}

		state.Items = append(state.Items, cartLine{
			ID:            row.ID,
			ProductID:     p.ID,
			Name:          p.Name,
			Image:         p.ImageURL,
			Price:         eff,
			OriginalPrice: line.OriginalPrice,
			DiscountPct:   line.DiscountPct,
			Quantity:      row.Quantity,
			Customization: row.Customization,
			DriveLink:     row.DriveLink,
			Subtotal:      eff * int64(row.Quantity),
		})
	}

	state.TotalItems = agg.TotalItems()
	state.Subtotal = agg.Subtotal()
	state.OriginalSubtotal = agg.OriginalSubtotal()
	state.TotalSavings = agg.TotalSavings()
	state.CustomizationFee = agg.CustomizationFee(h.Fees.CustomizationFee)
	return state, nil
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	state, err := h.loadState(userID)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, state)
}

type cartItemRequest struct {
	ProductID     uint   `json:"product_id"`
	Quantity      uint   `json:"quantity"`
	Customization string `json:"customization"`
	DriveLink     string `json:"drive_link"`
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	var req cartItemRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}
	req.Customization = strings.TrimSpace(req.Customization)
	req.DriveLink = strings.TrimSpace(req.DriveLink)

	var product models.Product
	if err := h.DB.First(&product, req.ProductID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	// Same product with a different customization or drive link is a
	// separate line; only an exact key match merges.
	var item models.CartItem
	err = h.DB.Where("user_id = ? AND product_id = ? AND customization = ? AND drive_link = ?",
		userID, req.ProductID, req.Customization, req.DriveLink).First(&item).Error
	switch {
	case err == nil:
		item.Quantity += req.Quantity
		if err := h.DB.Save(&item).Error; err != nil {
			return errorResponse(c, http.StatusInternalServerError, err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{
			UserID:        userID,
			ProductID:     req.ProductID,
			Quantity:      req.Quantity,
			Customization: req.Customization,
			DriveLink:     req.DriveLink,
		}
		if err := h.DB.Create(&item).Error; err != nil {
			return errorResponse(c, http.StatusInternalServerError, err)
		}
	default:
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]any{
		"type":      "cart_item_added",
		"userID":    userID,
		"productID": req.ProductID,
		"quantity":  item.Quantity,
	})

	state, err := h.loadState(userID)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, state)
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateQuantity sets a line's quantity; anything below one removes the
// line entirely.
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var req quantityRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var item models.CartItem
	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	if req.Quantity < 1 {
		if err := h.DB.Delete(&item).Error; err != nil {
			return errorResponse(c, http.StatusInternalServerError, err)
		}
		h.publish(c, map[string]any{
			"type":      "cart_item_removed",
			"userID":    userID,
			"productID": item.ProductID,
		})
	} else {
		item.Quantity = uint(req.Quantity)
		if err := h.DB.Save(&item).Error; err != nil {
			return errorResponse(c, http.StatusInternalServerError, err)
		}
		h.publish(c, map[string]any{
			"type":      "cart_quantity_updated",
			"userID":    userID,
			"productID": item.ProductID,
			"quantity":  item.Quantity,
		})
	}

	state, err := h.loadState(userID)
	if err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, state)
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	if err := h.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&models.CartItem{}).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]any{
		"type":   "cart_item_removed",
		"userID": userID,
		"itemID": id,
	})
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	userID, err := token.UserID(c)
	if err != nil {
		return err
	}

	if err := h.DB.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]any{
		"type":   "cart_cleared",
		"userID": userID,
	})
	return c.NoContent(http.StatusNoContent)
}
