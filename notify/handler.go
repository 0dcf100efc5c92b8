// Package notify receives Combo notification webhooks such as order shipping
// and refunds.
//
// Responses are plain text: "OK" with 200 on success, otherwise a short
// message with 400, 401, 405, 415 or 500.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	combo "github.com/seayoo-io/combo-sdk-go"
	"github.com/seayoo-io/combo-sdk-go/webhook"
	"go.uber.org/zap"
)

// NotificationHandler is the http entry point for notifications.
type NotificationHandler struct {
	auth     *webhook.Authenticator
	handler  Handler
	settings webhook.Settings
}

var _ webhook.Handler = (*NotificationHandler)(nil)

// NewHandler validates cfg and returns a handler dispatching to h.
func NewHandler(cfg combo.Config, h Handler, opts ...webhook.Option) (*NotificationHandler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("notify: nil handler")
	}
	s := webhook.NewSettings(opts...)
	return &NotificationHandler{
		auth:     webhook.NewAuthenticator(cfg.Game, string(cfg.Secret), s),
		handler:  h,
		settings: s,
	}, nil
}

func (n *NotificationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n.ServeWebhook(w, r, nil)
}

// ServeWebhook handles one delivery. rawBody is used when r.Body has
// already been read.
func (n *NotificationHandler) ServeWebhook(w http.ResponseWriter, r *http.Request, rawBody []byte) {
	status, message := n.serve(r, rawBody)
	n.settings.Observe(status)
	webhook.WriteText(w, status, message)
}

func (n *NotificationHandler) serve(r *http.Request, rawBody []byte) (int, string) {
	body, rej := n.auth.Authenticate(r, rawBody)
	if rej != nil {
		return rej.Status, ""
	}

	notification, msg := Parse(body)
	if notification == nil {
		return http.StatusBadRequest, msg
	}

	logger := n.settings.Logger.With(
		zap.String("notification_id", notification.ID),
		zap.String("notification_type", string(notification.Type)),
	)
	if err := n.invoke(r.Context(), notification, logger); err != nil {
		return http.StatusInternalServerError, err.Error()
	}
	return http.StatusOK, "OK"
}

func (n *NotificationHandler) invoke(ctx context.Context, notification *Notification, logger *zap.Logger) (err error) {
	defer func() {
		if p := recover(); p != nil {
			logger.Error("notification handler panicked", zap.Any("panic", p), zap.Stack("stack"))
			err = fmt.Errorf("%v", p)
		}
	}()
	return n.handler.HandleNotification(ctx, notification)
}

// Parse checks a verified body against the envelope and payload schemas.
// On failure it returns nil and a message safe to send back.
func Parse(body []byte) (*Notification, string) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, "Notification body Format Error"
	}
	if err := envelopeSchema.VisitJSON(raw); err != nil {
		return nil, "Notification body Format Error"
	}

	var env struct {
		Version string          `json:"version"`
		ID      string          `json:"notification_id"`
		Type    Type            `json:"notification_type"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, "Notification body Format Error"
	}

	g, ok := guards[env.Type]
	if !ok {
		return nil, "Unknown Notification Type: " + string(env.Type)
	}
	data := raw.(map[string]any)["data"]
	if err := g.schema.VisitJSON(data); err != nil {
		return nil, g.message
	}
	payload, err := g.decode(env.Data)
	if err != nil {
		return nil, g.message
	}

	return &Notification{
		Version: env.Version,
		ID:      env.ID,
		Type:    env.Type,
		Payload: payload,
		Data:    env.Data,
	}, ""
}

func decodeAs[T any](data []byte) (any, error) {
	v := new(T)
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	if err := validate.Struct(v); err != nil {
		return nil, err
	}
	return v, nil
}
