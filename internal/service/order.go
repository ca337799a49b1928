package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/makeathera-byte/3layered/internal/cart"
	"github.com/makeathera-byte/3layered/internal/checkout"
	"github.com/makeathera-byte/3layered/internal/logging"
	"github.com/makeathera-byte/3layered/internal/models"
	"github.com/makeathera-byte/3layered/internal/mykafka"
	"github.com/makeathera-byte/3layered/internal/payment"
	"github.com/makeathera-byte/3layered/internal/pricing"
)

var (
	ErrValidation = errors.New("validation") // 400
	ErrNotFound   = errors.New("not found")  // 404
	ErrConflict   = errors.New("conflict")   // 409
	ErrGateway    = errors.New("gateway")    // 502
)

// ValidationError carries the field-scoped messages back to the form.
type ValidationError struct {
	Fields checkout.FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%v: %d field error(s)", ErrValidation, len(e.Fields))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

type GatewayClient interface {
	CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*payment.GatewayOrder, error)
}

type OrderService struct {
	DB            *gorm.DB
	Gateway       GatewayClient
	GatewaySecret []byte
	Producer      *mykafka.Producer
	Fees          checkout.FeeSchedule
	Currency      string
}

// ShippingAddress mirrors the order-creation payload.
type ShippingAddress struct {
	FlatNumber string `json:"flat_number"`
	Colony     string `json:"colony"`
	City       string `json:"city"`
	State      string `json:"state"`
	Pincode    string `json:"pincode"`
}

// OrderItemRequest is a client-submitted line. Prices and subtotals in it
// are ignored: the authoritative numbers come from the product table.
type OrderItemRequest struct {
	ProductID     uint   `json:"product_id"`
	ProductName   string `json:"product_name"`
	Price         int64  `json:"price"`
	Quantity      uint   `json:"quantity"`
	Customization string `json:"customization"`
	DriveLink     string `json:"drive_link"`
	Subtotal      int64  `json:"subtotal"`
}

type CreateOrderRequest struct {
	UserID           uint               `json:"user_id"`
	UserName         string             `json:"user_name"`
	UserEmail        string             `json:"user_email"`
	UserPhone        string             `json:"user_phone"`
	ShippingAddress  ShippingAddress    `json:"shipping_address"`
	Items            []OrderItemRequest `json:"items"`
	Subtotal         int64              `json:"subtotal"`
	CustomizationFee int64              `json:"customization_fee"`
	CODFee           int64              `json:"cod_fee"`
	TotalAmount      int64              `json:"total_amount"`
	PaymentMethod    string             `json:"payment_method"`
	OrderNotes       string             `json:"order_notes"`
}

// VerifyRequest is the payment-callback payload: the widget's ids and
// signature plus the original order data.
type VerifyRequest struct {
	GatewayOrderID   string             `json:"razorpay_order_id"`
	GatewayPaymentID string             `json:"razorpay_payment_id"`
	GatewaySignature string             `json:"razorpay_signature"`
	OrderData        CreateOrderRequest `json:"order_data"`
}

func (r CreateOrderRequest) form() checkout.CheckoutForm {
	return checkout.Sanitize(checkout.CheckoutForm{
		Name:       r.UserName,
		Email:      r.UserEmail,
		Phone:      r.UserPhone,
		FlatNumber: r.ShippingAddress.FlatNumber,
		Colony:     r.ShippingAddress.Colony,
		City:       r.ShippingAddress.City,
		State:      r.ShippingAddress.State,
		Pincode:    r.ShippingAddress.Pincode,
		OrderNotes: r.OrderNotes,
	})
}

func newOrderNumber() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

// buildCart prices every requested line from the product table. Whatever
// price the client sent is irrelevant here.
func (s *OrderService) buildCart(ctx context.Context, items []OrderItemRequest) (*cart.Cart, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}

	c := cart.New()
	for _, it := range items {
		if it.Quantity == 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrValidation)
		}

		var p models.Product
		if err := s.DB.WithContext(ctx).First(&p, it.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: product %d", ErrNotFound, it.ProductID)
			}
			return nil, err
		}
		if p.Count < it.Quantity {
			return nil, fmt.Errorf("%w: product %q has %d in stock", ErrConflict, p.Name, p.Count)
		}

		listed := pricing.Round(p.Price)
		eff, err := pricing.EffectivePrice(float64(listed), p.DiscountPct)
		if err != nil {
			return nil, fmt.Errorf("%w: product %d: %v", ErrValidation, p.ID, err)
		}
		line := cart.Line{
			ProductID:     p.ID,
			Name:          p.Name,
			Image:         p.ImageURL,
			Price:         eff,
			Quantity:      it.Quantity,
			Customization: strings.TrimSpace(it.Customization),
			DriveLink:     strings.TrimSpace(it.DriveLink),
		}
		if p.DiscountPct > 0 {
			line.OriginalPrice = listed
			line.DiscountPct = p.DiscountPct
		}
		if err := c.AddItem(line); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	return c, nil
}

// checkRequest validates the form, prices the cart server-side and
// rejects the request when the client-submitted total disagrees with the
// recomputed one. Client totals are attacker-controllable.
func (s *OrderService) checkRequest(ctx context.Context, req CreateOrderRequest, method checkout.PaymentMethod) (checkout.CheckoutForm, *cart.Cart, checkout.Quote, error) {
	form := req.form()
	if errs := checkout.Validate(form); errs.Any() {
		return form, nil, checkout.Quote{}, &ValidationError{Fields: errs}
	}

	c, err := s.buildCart(ctx, req.Items)
	if err != nil {
		return form, nil, checkout.Quote{}, err
	}

	q := s.Fees.Compute(c.Subtotal(), c.CustomizationFee(s.Fees.CustomizationFee), method)
	if req.TotalAmount != q.Total {
		return form, nil, q, fmt.Errorf("%w: total mismatch: client sent %d, server computed %d",
			ErrConflict, req.TotalAmount, q.Total)
	}
	return form, c, q, nil
}

// QuoteFor prices a prospective order from the product table, without any
// form validation or persistence.
func (s *OrderService) QuoteFor(ctx context.Context, items []OrderItemRequest, method checkout.PaymentMethod) (checkout.Quote, error) {
	c, err := s.buildCart(ctx, items)
	if err != nil {
		return checkout.Quote{}, err
	}
	return s.Fees.Compute(c.Subtotal(), c.CustomizationFee(s.Fees.CustomizationFee), method), nil
}

// CreateCODOrder persists a cash-on-delivery order immediately; there is
// no pre-payment to verify.
func (s *OrderService) CreateCODOrder(ctx context.Context, req CreateOrderRequest) (*models.Order, error) {
	form, c, q, err := s.checkRequest(ctx, req, checkout.MethodCOD)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, form, c, q, checkout.MethodCOD, models.PaymentStatusPending, "", "", req.UserID)
}

// InitGatewayOrder registers the recomputed total with the payment
// gateway and records it as a payment intent. No Order is written: for
// online payment no order may exist before verification succeeds.
func (s *OrderService) InitGatewayOrder(ctx context.Context, req CreateOrderRequest) (*payment.GatewayOrder, error) {
	form, _, q, err := s.checkRequest(ctx, req, checkout.MethodOnline)
	if err != nil {
		return nil, err
	}

	receipt := "rcpt_" + uuid.NewString()
	gw, err := s.Gateway.CreateOrder(ctx, q.Total*100, s.Currency, receipt, map[string]string{
		"customer_email": form.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	intent := models.PaymentIntent{
		GatewayOrderID: gw.ID,
		Amount:         gw.Amount,
		Currency:       gw.Currency,
		Receipt:        receipt,
		CreatedAt:      time.Now().Unix(),
	}
	if err := s.DB.WithContext(ctx).Create(&intent).Error; err != nil {
		return nil, err
	}
	return gw, nil
}

// ConfirmPayment recomputes the callback signature and, only on a match,
// persists the order and marks it paid, atomically. The gateway order id
// must resolve to a recorded intent whose amount equals the recomputed
// total: the signature binds the id pair, the intent binds the money. On
// any mismatch nothing is created. Verify-then-create, never
// create-then-verify.
func (s *OrderService) ConfirmPayment(ctx context.Context, vr VerifyRequest) (*models.Order, error) {
	form, c, q, err := s.checkRequest(ctx, vr.OrderData, checkout.MethodOnline)
	if err != nil {
		return nil, err
	}

	if !payment.VerifySignature(vr.GatewayOrderID, vr.GatewayPaymentID, vr.GatewaySignature, s.GatewaySecret) {
		s.rejectPayment(ctx, vr, "signature mismatch")
		return nil, fmt.Errorf("%w: signature mismatch", checkout.ErrVerification)
	}

	var intent models.PaymentIntent
	if err := s.DB.WithContext(ctx).Where("gateway_order_id = ?", vr.GatewayOrderID).First(&intent).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.rejectPayment(ctx, vr, "unknown gateway order")
			return nil, fmt.Errorf("%w: unknown gateway order", checkout.ErrVerification)
		}
		return nil, err
	}
	if intent.Amount != q.Total*100 {
		s.rejectPayment(ctx, vr, "amount mismatch")
		return nil, fmt.Errorf("%w: amount mismatch: gateway order holds %d, order data totals %d",
			checkout.ErrVerification, intent.Amount, q.Total*100)
	}

	order, err := s.persist(ctx, form, c, q, checkout.MethodOnline, models.PaymentStatusPaid,
		vr.GatewayOrderID, vr.GatewayPaymentID, vr.OrderData.UserID)
	if err != nil {
		return nil, err
	}

	// The intent is spent; a replayed callback will no longer resolve.
	if err := s.DB.WithContext(ctx).Where("gateway_order_id = ?", vr.GatewayOrderID).
		Delete(&models.PaymentIntent{}).Error; err != nil {
		logging.FromContext(ctx).Warn("payment intent cleanup failed", "error", err)
	}
	return order, nil
}

// rejectPayment records a failed verification on the event stream.
func (s *OrderService) rejectPayment(ctx context.Context, vr VerifyRequest, reason string) {
	s.publish(ctx, vr.GatewayOrderID, map[string]any{
		"type":             "payment_verification_failed",
		"gateway_order_id": vr.GatewayOrderID,
		"payment_status":   models.PaymentStatusFailed,
		"reason":           reason,
	})
}

func (s *OrderService) persist(ctx context.Context, form checkout.CheckoutForm, c *cart.Cart, q checkout.Quote,
	method checkout.PaymentMethod, paymentStatus, gwOrderID, gwPaymentID string, userID uint) (*models.Order, error) {

	order := models.Order{
		OrderNumber:      newOrderNumber(),
		UserID:           userID,
		UserName:         form.Name,
		UserEmail:        form.Email,
		UserPhone:        form.Phone,
		FlatNumber:       form.FlatNumber,
		Colony:           form.Colony,
		City:             form.City,
		State:            form.State,
		Pincode:          form.Pincode,
		Subtotal:         q.Subtotal,
		CustomizationFee: q.CustomizationFee,
		CODFee:           q.CODFee,
		TotalAmount:      q.Total,
		PaymentMethod:    string(method),
		PaymentStatus:    paymentStatus,
		Status:           models.OrderStatusPending,
		GatewayOrderID:   gwOrderID,
		GatewayPaymentID: gwPaymentID,
		OrderNotes:       form.OrderNotes,
		CreatedAt:        time.Now().Unix(),
	}

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for _, l := range c.Lines() {
			oi := models.OrderItem{
				OrderID:       order.ID,
				ProductID:     l.ProductID,
				ProductName:   l.Name,
				Price:         l.Price,
				Quantity:      l.Quantity,
				Customization: l.Customization,
				DriveLink:     l.DriveLink,
				Subtotal:      l.Price * int64(l.Quantity),
			}
			if err := tx.Create(&oi).Error; err != nil {
				return err
			}
			res := tx.Model(&models.Product{}).
				Where("id = ? AND count >= ?", l.ProductID, l.Quantity).
				UpdateColumn("count", gorm.Expr("count - ?", l.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: insufficient stock for product %d", ErrConflict, l.ProductID)
			}
		}
		if userID > 0 {
			if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	s.publish(ctx, order.OrderNumber, map[string]any{
		"type":           "order_created",
		"order_number":   order.OrderNumber,
		"payment_method": order.PaymentMethod,
		"total_amount":   order.TotalAmount,
	})
	return &order, nil
}

// SubmitCOD and VerifyAndCreate make the service usable as the
// orchestrator's submitter.
func (s *OrderService) SubmitCOD(ctx context.Context, form checkout.CheckoutForm, c *cart.Cart, q checkout.Quote) (string, error) {
	order, err := s.persist(ctx, form, c, q, checkout.MethodCOD, models.PaymentStatusPending, "", "", 0)
	if err != nil {
		return "", err
	}
	return order.OrderNumber, nil
}

func (s *OrderService) VerifyAndCreate(ctx context.Context, form checkout.CheckoutForm, c *cart.Cart, q checkout.Quote,
	gatewayOrderID, paymentID, signature string) (string, error) {
	if !payment.VerifySignature(gatewayOrderID, paymentID, signature, s.GatewaySecret) {
		return "", fmt.Errorf("%w: signature mismatch", checkout.ErrVerification)
	}
	order, err := s.persist(ctx, form, c, q, checkout.MethodOnline, models.PaymentStatusPaid, gatewayOrderID, paymentID, 0)
	if err != nil {
		return "", err
	}
	return order.OrderNumber, nil
}

func (s *OrderService) GetByNumber(ctx context.Context, number string) (*models.Order, []models.OrderItem, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).Where("order_number = ?", number).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: order %s", ErrNotFound, number)
		}
		return nil, nil, err
	}

	var items []models.OrderItem
	if err := s.DB.WithContext(ctx).Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return nil, nil, err
	}
	return &order, items, nil
}

func (s *OrderService) List(ctx context.Context, status string, offset, limit int) ([]models.Order, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

var statusTransitions = map[string][]string{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:    {models.OrderStatusDelivered, models.OrderStatusCancelled},
	models.OrderStatusDelivered:  {},
	models.OrderStatusCancelled:  {},
}

// UpdateStatus applies an admin fulfillment transition; anything outside
// the transition table is a conflict.
func (s *OrderService) UpdateStatus(ctx context.Context, number, newStatus string) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).Where("order_number = ?", number).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, number)
		}
		return nil, err
	}

	allowed := false
	for _, next := range statusTransitions[order.Status] {
		if next == newStatus {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: cannot move order from %s to %s", ErrConflict, order.Status, newStatus)
	}

	order.Status = newStatus
	if err := s.DB.WithContext(ctx).Save(&order).Error; err != nil {
		return nil, err
	}

	s.publish(ctx, order.OrderNumber, map[string]any{
		"type":         "order_status_changed",
		"order_number": order.OrderNumber,
		"status":       order.Status,
	})
	return &order, nil
}

// Delete hard-deletes an order and its items; admin-only, irreversible.
func (s *OrderService) Delete(ctx context.Context, number string) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("order_number = ?", number).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: order %s", ErrNotFound, number)
			}
			return err
		}
		if err := tx.Where("order_id = ?", order.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&order).Error
	})
}

type Stats struct {
	TotalOrders   int64 `json:"total_orders"`
	PendingOrders int64 `json:"pending_orders"`
	Revenue       int64 `json:"revenue"`
	TotalProducts int64 `json:"total_products"`
	TotalUsers    int64 `json:"total_users"`
}

func (s *OrderService) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	db := s.DB.WithContext(ctx)

	if err := db.Model(&models.Order{}).Count(&st.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).Where("status = ?", models.OrderStatusPending).Count(&st.PendingOrders).Error; err != nil {
		return nil, err
	}
	var revenue *int64
	if err := db.Model(&models.Order{}).
		Where("payment_status = ? OR status = ?", models.PaymentStatusPaid, models.OrderStatusDelivered).
		Select("SUM(total_amount)").Scan(&revenue).Error; err != nil {
		return nil, err
	}
	if revenue != nil {
		st.Revenue = *revenue
	}
	if err := db.Model(&models.Product{}).Count(&st.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Count(&st.TotalUsers).Error; err != nil {
		return nil, err
	}
	return &st, nil
}

func (s *OrderService) publish(ctx context.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.Producer.PublishEvent(ctx, mykafka.TopicOrderEvents, key, event); err != nil {
		// Events are best effort; an order must not fail on kafka.
		logging.FromContext(ctx).Warn("kafka publish error", "error", err)
	}
}
