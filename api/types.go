package api

import combo "github.com/seayoo-io/combo-sdk-go"

// CreateOrderInput describes an order to create.
type CreateOrderInput struct {
	// ReferenceID identifies the create request on the game side.
	ReferenceID string         `json:"reference_id" validate:"required"`
	ComboID     string         `json:"combo_id" validate:"required"`
	ProductID   string         `json:"product_id" validate:"required"`
	Platform    combo.Platform `json:"platform" validate:"required"`
	// NotifyURL receives the ship_order notification for this order.
	NotifyURL string `json:"notify_url" validate:"required,url"`
	// Quantity is raised to at least 1.
	Quantity int64 `json:"quantity"`
	// Context is passed back unchanged in the ship_order notification.
	Context string         `json:"context,omitempty"`
	Meta    *OrderMetadata `json:"meta,omitempty"`
}

// OrderMetadata is mostly used for analytics. The Weixin fields are
// required for iOS payments in Weixin mini games.
type OrderMetadata struct {
	ZoneID       string `json:"zone_id,omitempty"`
	ServerID     string `json:"server_id,omitempty"`
	RoleID       string `json:"role_id,omitempty"`
	RoleName     string `json:"role_name,omitempty"`
	RoleLevel    int    `json:"role_level,omitempty"`
	WeixinAppID  string `json:"weixin_appid,omitempty"`
	WeixinOpenID string `json:"weixin_openid,omitempty"`
}

type CreateOrderOutput struct {
	OrderID    string `json:"order_id" validate:"required"`
	OrderToken string `json:"order_token" validate:"required"`
	// ExpiresAt is a unix timestamp in seconds.
	ExpiresAt int64 `json:"expires_at" validate:"required"`
}

type sessionInput struct {
	ComboID   string `json:"combo_id" validate:"required"`
	SessionID string `json:"session_id" validate:"required"`
}
