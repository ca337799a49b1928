package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/makeathera-byte/3layered/internal/checkout"
	"github.com/makeathera-byte/3layered/internal/service"
	"github.com/makeathera-byte/3layered/internal/service/token"
)

type CheckoutHandler struct {
	Orders        *service.OrderService
	RazorpayKeyID string
}

// Quote prices a prospective order without creating anything, so the
// storefront can show the exact amount before the customer commits.
func (h *CheckoutHandler) Quote(c echo.Context) error {
	var req service.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	method := checkout.MethodOnline
	if req.PaymentMethod == string(checkout.MethodCOD) {
		method = checkout.MethodCOD
	}

	q, err := h.Orders.QuoteFor(c.Request().Context(), req.Items, method)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, q)
}

// CreateOrder handles cash-on-delivery checkout. Online payments never
// reach this endpoint; they go through InitPayment and VerifyPayment.
func (h *CheckoutHandler) CreateOrder(c echo.Context) error {
	var req service.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if req.PaymentMethod != string(checkout.MethodCOD) {
		return errorResponse(c, http.StatusBadRequest, errors.New("online payment must use the payment endpoints"))
	}
	// Guest checkout is allowed; a signed-in user gets the order attached
	// to their account and their persisted cart cleared.
	if uid, err := token.UserID(c); err == nil {
		req.UserID = uid
	}

	order, err := h.Orders.CreateCODOrder(c.Request().Context(), req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"order":        order,
	})
}

// InitPayment registers the recomputed total with the gateway and returns
// what the payment widget needs. No local order exists yet.
func (h *CheckoutHandler) InitPayment(c echo.Context) error {
	var req service.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}

	gw, err := h.Orders.InitGatewayOrder(c.Request().Context(), req)
	if err != nil {
		return serviceError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"gateway_order_id": gw.ID,
		"amount":           gw.Amount,
		"currency":         gw.Currency,
		"key_id":           h.RazorpayKeyID,
	})
}

// VerifyPayment checks the gateway signature and only then creates the
// order, already marked paid.
func (h *CheckoutHandler) VerifyPayment(c echo.Context) error {
	var req service.VerifyRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, err)
	}
	if uid, err := token.UserID(c); err == nil {
		req.OrderData.UserID = uid
	}

	order, err := h.Orders.ConfirmPayment(c.Request().Context(), req)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"verified":     true,
		"order_number": order.OrderNumber,
		"order":        order,
	})
}

func (h *CheckoutHandler) GetOrder(c echo.Context) error {
	order, items, err := h.Orders.GetByNumber(c.Request().Context(), c.Param("number"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"order": order,
		"items": items,
	})
}
