package notify

import (
	"context"
	"encoding/json"
)

// Type identifies a notification; Payload's concrete type depends on it.
type Type string

const (
	// TypeShipOrder is sent when an order is paid. The game must deliver the
	// goods; returning an error makes Combo retry the notification later.
	TypeShipOrder Type = "ship_order"
	// TypeRefund is sent when a paid order is refunded.
	TypeRefund Type = "refund"
)

// Notification is a validated notification webhook.
type Notification struct {
	Version string
	ID      string
	Type    Type
	// Payload is *ShipOrder or *Refund.
	Payload any
	// Data is the payload as received.
	Data json.RawMessage
}

// ShipOrder asks the game to deliver an order.
type ShipOrder struct {
	OrderID     string `json:"order_id" validate:"required"`
	ReferenceID string `json:"reference_id"`
	ComboID     string `json:"combo_id" validate:"required"`
	ProductID   string `json:"product_id"`
	Quantity    int64  `json:"quantity"`
	// Currency is an ISO 4217 code such as USD or CNY.
	Currency string `json:"currency"`
	// Amount is in the currency's minor unit.
	Amount  int64  `json:"amount"`
	Context string `json:"context,omitempty"`
	// IsSandbox marks orders without a real payment. Games ship them anyway.
	IsSandbox bool `json:"is_sandbox"`
}

// Refund reports a refunded order.
type Refund struct {
	OrderID     string `json:"order_id" validate:"required"`
	ReferenceID string `json:"reference_id"`
	ComboID     string `json:"combo_id" validate:"required"`
	ProductID   string `json:"product_id"`
	Quantity    int64  `json:"quantity"`
	Currency    string `json:"currency"`
	Amount      int64  `json:"amount"`
	Context     string `json:"context,omitempty"`
}

// Handler processes a notification. A returned error is sent back as a 500
// with the error text, and Combo redelivers later.
type Handler interface {
	HandleNotification(ctx context.Context, n *Notification) error
}

type HandlerFunc func(ctx context.Context, n *Notification) error

func (f HandlerFunc) HandleNotification(ctx context.Context, n *Notification) error {
	return f(ctx, n)
}
