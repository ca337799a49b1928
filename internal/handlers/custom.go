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

	"github.com/makeathera-byte/3layered/internal/models"
	"github.com/makeathera-byte/3layered/internal/mykafka"
	"github.com/makeathera-byte/3layered/internal/util"
)

// CustomRequestHandler takes custom-print intakes from the storefront and
// lets the admin work through them.
type CustomRequestHandler struct {
	DB       *gorm.DB
	Producer *mykafka.Producer
}

var requestTransitions = map[string][]string{
	models.RequestStatusNew:      {models.RequestStatusReviewed, models.RequestStatusClosed},
	models.RequestStatusReviewed: {models.RequestStatusQuoted, models.RequestStatusClosed},
	models.RequestStatusQuoted:   {models.RequestStatusClosed},
	models.RequestStatusClosed:   {},
}

type customRequestPayload struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Description string `json:"description"`
	DriveLink   string `json:"drive_link"`
	FileURLs    string `json:"file_urls"`
}

func (h *CustomRequestHandler) Create(c echo.Context) error {
	var req customRequestPayload
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" || req.Description == "" {
		return errorResponse(c, http.StatusBadRequest, errors.New("name and description are required"))
	}
	if !emailRe.MatchString(req.Email) {
		return errorResponse(c, http.StatusBadRequest, errors.New("invalid email"))
	}

	cr := models.CustomRequest{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       strings.TrimSpace(req.Phone),
		Description: req.Description,
		DriveLink:   strings.TrimSpace(req.DriveLink),
		FileURLs:    strings.TrimSpace(req.FileURLs),
		Status:      models.RequestStatusNew,
		CreatedAt:   time.Now(),
	}
	if err := h.DB.Create(&cr).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicOrderEvents, fmt.Sprint(cr.ID), map[string]any{
		"type":       "custom_request_created",
		"request_id": cr.ID,
	}); err != nil {
		c.Logger().Errorf("kafka publish error: %v", err)
	}

	return c.JSON(http.StatusCreated, cr)
}

func (h *CustomRequestHandler) List(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Paginate(page, size)

	q := h.DB.Model(&models.CustomRequest{})
	if status := c.QueryParam("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	var reqs []models.CustomRequest
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&reqs).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": reqs,
		"meta": pageMeta(page, limit, offset, total),
	})
}

func (h *CustomRequestHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	var cr models.CustomRequest
	if err := h.DB.First(&cr, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, err)
		}
		return errorResponse(c, http.StatusInternalServerError, err)
	}

	allowed := false
	for _, next := range requestTransitions[cr.Status] {
		if next == req.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		return errorResponse(c, http.StatusConflict,
			fmt.Errorf("cannot move request from %s to %s", cr.Status, req.Status))
	}

	cr.Status = req.Status
	if err := h.DB.Save(&cr).Error; err != nil {
		return errorResponse(c, http.StatusInternalServerError, err)
	}
	return c.JSON(http.StatusOK, cr)
}
