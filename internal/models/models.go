package models

import "time"

// Product keeps the admin-entered listed price; the charged price is
// derived from the discount percentage by the pricing package.
type Product struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"       json:"id"`
	Name        string  `gorm:"not null"                       json:"name"`
	Description string  `gorm:"not null"                       json:"description"`
	Category    string  `gorm:"index"                          json:"category"`
	ImageURL    string  `json:"image"`
	Price       float64 `gorm:"not null"                       json:"price"`
	DiscountPct int     `gorm:"default:0"                      json:"discount_percentage"`
	Count       uint    `json:"count"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	Email        string `gorm:"index"                    json:"email"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"unique;not null"     json:"token"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	Role      string `gorm:"not null"            json:"role"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}

// CartItem is one persisted cart line. Two rows may share a product when
// the customization or drive link differs; they stay separate lines.
type CartItem struct {
	ID            uint   `gorm:"primaryKey"                  json:"id"`
	UserID        uint   `gorm:"index;not null"              json:"user_id"`
	ProductID     uint   `gorm:"not null"                    json:"product_id"`
	Quantity      uint   `gorm:"default:1;check:quantity>0"  json:"quantity"`
	Customization string `json:"customization,omitempty"`
	DriveLink     string `json:"drive_link,omitempty"`
}

// Order statuses (fulfillment) and payment statuses.
const (
	OrderStatusPending    = "pending"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Order is created after payment verification for online payments and
// immediately for COD. Amounts are whole rupees.
type Order struct {
	ID               uint   `gorm:"primaryKey"       json:"id"`
	OrderNumber      string `gorm:"unique;not null"  json:"order_number"`
	UserID           uint   `gorm:"index"            json:"user_id"`
	UserName         string `gorm:"not null"         json:"user_name"`
	UserEmail        string `gorm:"not null"         json:"user_email"`
	UserPhone        string `gorm:"not null"         json:"user_phone"`
	FlatNumber       string `json:"flat_number"`
	Colony           string `json:"colony"`
	City             string `json:"city"`
	State            string `json:"state"`
	Pincode          string `json:"pincode"`
	Subtotal         int64  `gorm:"not null"         json:"subtotal"`
	CustomizationFee int64  `json:"customization_fee"`
	CODFee           int64  `json:"cod_fee"`
	TotalAmount      int64  `gorm:"not null"         json:"total_amount"`
	PaymentMethod    string `gorm:"not null"         json:"payment_method"`
	PaymentStatus    string `gorm:"not null"         json:"payment_status"`
	Status           string `gorm:"not null;index"   json:"status"`
	GatewayOrderID   string `gorm:"index"            json:"gateway_order_id,omitempty"`
	GatewayPaymentID string `json:"gateway_payment_id,omitempty"`
	OrderNotes       string `json:"order_notes,omitempty"`
	CreatedAt        int64  `gorm:"not null"         json:"created_at"`
}

// PaymentIntent records a gateway order created at checkout init, before
// any local Order exists. Verification looks the gateway order id back up
// here so the amount registered with the gateway is the amount charged.
// The row is consumed when the order is persisted.
type PaymentIntent struct {
	ID             uint   `gorm:"primaryKey"      json:"id"`
	GatewayOrderID string `gorm:"unique;not null" json:"gateway_order_id"`
	Amount         int64  `gorm:"not null"        json:"amount"`
	Currency       string `gorm:"not null"        json:"currency"`
	Receipt        string `json:"receipt"`
	CreatedAt      int64  `gorm:"not null"        json:"created_at"`
}

type OrderItem struct {
	ID            uint   `gorm:"primaryKey"     json:"id"`
	OrderID       uint   `gorm:"index;not null" json:"order_id"`
	ProductID     uint   `gorm:"not null"       json:"product_id"`
	ProductName   string `gorm:"not null"       json:"product_name"`
	Price         int64  `gorm:"not null"       json:"price"`
	Quantity      uint   `gorm:"not null"       json:"quantity"`
	Customization string `json:"customization,omitempty"`
	DriveLink     string `json:"drive_link,omitempty"`
	Subtotal      int64  `gorm:"not null"       json:"subtotal"`
}

// Custom-print request statuses.
const (
	RequestStatusNew      = "new"
	RequestStatusReviewed = "reviewed"
	RequestStatusQuoted   = "quoted"
	RequestStatusClosed   = "closed"
)

// CustomRequest is a custom-print intake: the customer describes the part
// and attaches file references; the binaries live in external storage.
type CustomRequest struct {
	ID          uint      `gorm:"primaryKey"     json:"id"`
	Name        string    `gorm:"not null"       json:"name"`
	Email       string    `gorm:"not null"       json:"email"`
	Phone       string    `json:"phone"`
	Description string    `gorm:"not null"       json:"description"`
	DriveLink   string    `json:"drive_link,omitempty"`
	FileURLs    string    `json:"file_urls,omitempty"`
	Status      string    `gorm:"not null;index" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// MediaAsset is uploaded-file metadata; only the URL is tracked here.
type MediaAsset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FileName  string    `gorm:"not null"   json:"file_name"`
	URL       string    `gorm:"not null"   json:"url"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// Banner is a piece of storefront content managed from the admin console.
type Banner struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Title    string `gorm:"not null"   json:"title"`
	ImageURL string `gorm:"not null"   json:"image"`
	LinkURL  string `json:"link,omitempty"`
	Active   bool   `gorm:"default:true;index" json:"active"`
	Position int    `gorm:"default:0"  json:"position"`
}
