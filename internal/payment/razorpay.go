// Package payment talks to the hosted payment gateway. Only the backend
// holds the key secret; clients ever see the public key id.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

type Client struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	HTTP      *http.Client
}

func NewClient(keyID, keySecret, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		KeyID:     keyID,
		KeySecret: keySecret,
		BaseURL:   baseURL,
		HTTP:      &http.Client{Timeout: 15 * time.Second},
	}
}

// GatewayOrder is the gateway-side order the hosted widget is opened with.
// Amount is in the currency's smallest unit (paise).
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status,omitempty"`
}

type gatewayError struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder registers an order with the gateway before the widget opens.
// No local order exists at this point.
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*GatewayOrder, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("gateway: amount must be positive, got %d", amount)
	}

	body, err := json.Marshal(map[string]any{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	})
	if err != nil {
		return nil, fmt.Errorf("gateway: marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gateway: build request: %w", err)
	}
	req.SetBasicAuth(c.KeyID, c.KeySecret)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway: create order: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway: read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		var ge gatewayError
		if json.Unmarshal(data, &ge) == nil && ge.Error.Description != "" {
			return nil, fmt.Errorf("gateway: %s (%s)", ge.Error.Description, ge.Error.Code)
		}
		return nil, fmt.Errorf("gateway: unexpected status %d", res.StatusCode)
	}

	var order GatewayOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("gateway: decode order: %w", err)
	}
	return &order, nil
}

// VerifySignature recomputes the callback signature server-side:
// HMAC-SHA256 over "<order_id>|<payment_id>" keyed with the key secret,
// compared in constant time.
func VerifySignature(orderID, paymentID, signature string, secret []byte) bool {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(signature))
}

// Sign produces the signature the gateway would send for an order/payment
// pair. Tests and the local sandbox use it; production signatures come
// from the gateway.
func Sign(orderID, paymentID string, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	return hex.EncodeToString(mac.Sum(nil))
}
