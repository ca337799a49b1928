package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/makeathera-byte/3layered/internal/models"
	"github.com/makeathera-byte/3layered/internal/mykafka"
	"github.com/makeathera-byte/3layered/internal/pricing"
	"github.com/makeathera-byte/3layered/internal/service/search"
	"github.com/makeathera-byte/3layered/internal/util"
)

type ProductHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
	ES       *elasticsearch.Client
	ESIndex  string
}

// productView is a catalog product plus its charged price.
type productView struct {
	models.Product
	EffectivePrice int64 `json:"effective_price"`
}

func viewOf(p models.Product) productView {
	listed := pricing.Round(p.Price)
	eff, err := pricing.EffectivePrice(float64(listed), p.DiscountPct)
	if err != nil {
		eff = listed
	}
	return productView{Product: p, EffectivePrice: eff}
}

func (h *ProductHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicProductEvents, fmt.Sprint(event["productID"]), event); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}
}

func (h *ProductHandler) index(c echo.Context, p models.Product) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexProduct(ctx, h.ES, h.ESIndex, p); err != nil {
		c.Logger().Errorf("es index error: %v", err)
	}
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, viewOf(product))
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Paginate(page, size)

	q := h.DB.Model(&models.Product{})
	if category := c.QueryParam("category"); category != "" {
		q = q.Where("category = ?", category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var items []models.Product
	if err := q.Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	views := make([]productView, 0, len(items))
	for _, p := range items {
		views = append(views, viewOf(p))
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": views,
		"meta": pageMeta(page, limit, offset, total),
	})
}

type productRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Image       string  `json:"image"`
	Price       float64 `json:"price"`
	// FinalPrice lets the admin enter the price a customer should pay;
	// the listed price is then back-solved from the discount.
	FinalPrice  float64 `json:"final_price"`
	DiscountPct int     `json:"discount_percentage"`
	Count       uint    `json:"count"`
}

func (r productRequest) listedPrice() (float64, error) {
	if r.FinalPrice > 0 {
		listed, err := pricing.ListedPrice(r.FinalPrice, r.DiscountPct)
		if err != nil {
			return 0, err
		}
		return float64(listed), nil
	}
	if _, err := pricing.EffectivePrice(r.Price, r.DiscountPct); err != nil {
		return 0, err
	}
	return r.Price, nil
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.Name == "" {
		return errorResponse(c, http.StatusBadRequest, errors.New("name is required"))
	}

	listed, err := req.listedPrice()
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	prod := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.Image,
		Price:       listed,
		DiscountPct: req.DiscountPct,
		Count:       req.Count,
	}
	if err := h.DB.Create(&prod).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
	})
	h.index(c, prod)

	return c.JSON(http.StatusCreated, viewOf(prod))
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	// Pointer fields distinguish "omitted" from a zero value; a patch
	// only touches what the payload actually carries.
	var req struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Category    *string  `json:"category"`
		Image       *string  `json:"image"`
		Price       *float64 `json:"price"`
		FinalPrice  *float64 `json:"final_price"`
		DiscountPct *int     `json:"discount_percentage"`
		Count       *uint    `json:"count"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var prod models.Product
	if err := h.DB.First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	if req.Name != nil {
		prod.Name = *req.Name
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.Category != nil {
		prod.Category = *req.Category
	}
	if req.Image != nil {
		prod.ImageURL = *req.Image
	}
	if req.DiscountPct != nil {
		prod.DiscountPct = *req.DiscountPct
	}
	switch {
	case req.FinalPrice != nil:
		listed, err := pricing.ListedPrice(*req.FinalPrice, prod.DiscountPct)
		if err != nil {
			return errorResponse(c, http.StatusBadRequest, err)
		}
		prod.Price = float64(listed)
	case req.Price != nil:
		if _, err := pricing.EffectivePrice(*req.Price, prod.DiscountPct); err != nil {
			return errorResponse(c, http.StatusBadRequest, err)
		}
		prod.Price = *req.Price
	default:
		if _, err := pricing.EffectivePrice(prod.Price, prod.DiscountPct); err != nil {
			return errorResponse(c, http.StatusBadRequest, err)
		}
	}
	if req.Count != nil {
		prod.Count = *req.Count
	}

	if err := h.DB.Save(&prod).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
	})
	h.index(c, prod)

	return c.JSON(http.StatusOK, viewOf(prod))
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if err := h.DB.Delete(&models.Product{}, id).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	h.publish(c, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})
	if h.ES != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := search.DeleteProduct(ctx, h.ES, h.ESIndex, uint(id)); err != nil {
			c.Logger().Errorf("es delete error: %v", err)
		}
	}

	return c.NoContent(http.StatusNoContent)
}
