package notify_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	combo "github.com/seayoo-io/combo-sdk-go"
	"github.com/seayoo-io/combo-sdk-go/notify"
	"github.com/seayoo-io/combo-sdk-go/signer"
	"github.com/seayoo-io/combo-sdk-go/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cfg = combo.Config{
	Endpoint: combo.EndpointGlobal,
	Game:     "xcom",
	Secret:   "sk_notify_secret",
}

const shipOrderBody = `{
	"version": "2.0",
	"notification_id": "n-1",
	"notification_type": "ship_order",
	"data": {
		"order_id": "o-1",
		"reference_id": "r-1",
		"combo_id": "c-1",
		"product_id": "gem_60",
		"quantity": 2,
		"currency": "USD",
		"amount": 199,
		"context": "ctx",
		"is_sandbox": true
	}
}`

const refundBody = `{
	"version": "2.0",
	"notification_id": "n-2",
	"notification_type": "refund",
	"data": {
		"order_id": "o-1",
		"reference_id": "r-1",
		"combo_id": "c-1",
		"product_id": "gem_60",
		"quantity": 1,
		"currency": "CNY",
		"amount": 600
	}
}`

type recordingHandler struct {
	calls atomic.Int32
	last  *notify.Notification
	fn    func(ctx context.Context, n *notify.Notification) error
}

func (h *recordingHandler) HandleNotification(ctx context.Context, n *notify.Notification) error {
	h.calls.Add(1)
	h.last = n
	if h.fn != nil {
		return h.fn(ctx, n)
	}
	return nil
}

func send(t *testing.T, h http.Handler, body string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/notify", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	auth, err := signer.New(cfg.Game, string(cfg.Secret), "").Authorization(http.MethodPost, "/notify", []byte(body))
	require.NoError(t, err)
	req.Header.Set(signer.AuthorizationHeader, auth)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newHandler(t *testing.T, h notify.Handler, opts ...webhook.Option) *notify.NotificationHandler {
	t.Helper()
	nh, err := notify.NewHandler(cfg, h, opts...)
	require.NoError(t, err)
	return nh
}

func TestNotification_ShipOrder(t *testing.T) {
	h := &recordingHandler{}
	rec := send(t, newHandler(t, h), shipOrderBody, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	require.Equal(t, int32(1), h.calls.Load())

	assert.Equal(t, notify.TypeShipOrder, h.last.Type)
	assert.Equal(t, "n-1", h.last.ID)
	assert.Equal(t, "2.0", h.last.Version)
	order, ok := h.last.Payload.(*notify.ShipOrder)
	require.True(t, ok)
	assert.Equal(t, "o-1", order.OrderID)
	assert.Equal(t, int64(2), order.Quantity)
	assert.Equal(t, int64(199), order.Amount)
	assert.True(t, order.IsSandbox)
}

func TestNotification_Refund(t *testing.T) {
	h := &recordingHandler{}
	rec := send(t, newHandler(t, h), refundBody, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	refund, ok := h.last.Payload.(*notify.Refund)
	require.True(t, ok)
	assert.Equal(t, int64(600), refund.Amount)
	assert.Empty(t, refund.Context)
}

func TestNotification_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		mutate func(*http.Request)
		status int
		msg    string
	}{
		{
			name:   "wrong method",
			body:   shipOrderBody,
			mutate: func(r *http.Request) { r.Method = http.MethodPut },
			status: http.StatusMethodNotAllowed,
		},
		{
			name:   "text content type",
			body:   shipOrderBody,
			mutate: func(r *http.Request) { r.Header.Set("Content-Type", "text/plain") },
			status: http.StatusUnsupportedMediaType,
		},
		{
			name:   "missing credential",
			body:   shipOrderBody,
			mutate: func(r *http.Request) { r.Header.Del(signer.AuthorizationHeader) },
			status: http.StatusUnauthorized,
		},
		{
			name:   "not json",
			body:   `not json`,
			status: http.StatusBadRequest,
			msg:    "Notification body Format Error",
		},
		{
			name:   "empty notification id",
			body:   `{"version":"2.0","notification_id":"","notification_type":"ship_order","data":{}}`,
			status: http.StatusBadRequest,
			msg:    "Notification body Format Error",
		},
		{
			name:   "unknown type",
			body:   `{"version":"2.0","notification_id":"n","notification_type":"gift","data":{}}`,
			status: http.StatusBadRequest,
			msg:    "Unknown Notification Type: gift",
		},
		{
			name:   "guard failure",
			body:   `{"version":"2.0","notification_id":"n","notification_type":"ship_order","data":{"order_id":"o"}}`,
			status: http.StatusBadRequest,
			msg:    "ShipOrder Data Format Error",
		},
		{
			name: "fractional quantity",
			body: `{"version":"2.0","notification_id":"n","notification_type":"refund","data":{
				"order_id":"o","reference_id":"r","combo_id":"c","product_id":"p",
				"quantity":1.5,"currency":"USD","amount":1}}`,
			status: http.StatusBadRequest,
			msg:    "Refund Data Format Error",
		},
		{
			name: "empty combo id",
			body: `{"version":"2.0","notification_id":"n","notification_type":"refund","data":{
				"order_id":"o","reference_id":"r","combo_id":"","product_id":"p",
				"quantity":1,"currency":"USD","amount":1}}`,
			status: http.StatusBadRequest,
			msg:    "Refund Data Format Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &recordingHandler{}
			rec := send(t, newHandler(t, h), tt.body, tt.mutate)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.msg, rec.Body.String())
			assert.Zero(t, h.calls.Load())
		})
	}
}

func TestNotification_HandlerFailures(t *testing.T) {
	t.Run("error", func(t *testing.T) {
		h := &recordingHandler{fn: func(context.Context, *notify.Notification) error {
			return errors.New("inventory offline")
		}}
		rec := send(t, newHandler(t, h), shipOrderBody, nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "inventory offline", rec.Body.String())
	})

	t.Run("panic", func(t *testing.T) {
		h := &recordingHandler{fn: func(context.Context, *notify.Notification) error {
			panic("nil map")
		}}
		rec := send(t, newHandler(t, h), shipOrderBody, nil)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "nil map", rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "goroutine")
	})
}

func TestNotification_RawBodyFallback(t *testing.T) {
	h := &recordingHandler{}
	nh := newHandler(t, h)

	req := httptest.NewRequest(http.MethodPost, "/notify", http.NoBody)
	req.Header.Set("Content-Type", "application/json")
	auth, err := signer.New(cfg.Game, string(cfg.Secret), "").Authorization(http.MethodPost, "/notify", []byte(shipOrderBody))
	require.NoError(t, err)
	req.Header.Set(signer.AuthorizationHeader, auth)

	rec := httptest.NewRecorder()
	nh.ServeWebhook(rec, req, []byte(shipOrderBody))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int32(1), h.calls.Load())
}

func TestNotification_Observer(t *testing.T) {
	var statuses []int
	nh := newHandler(t, notify.HandlerFunc(func(context.Context, *notify.Notification) error { return nil }),
		webhook.WithObserver(func(status int) { statuses = append(statuses, status) }))

	send(t, nh, shipOrderBody, nil)
	send(t, nh, shipOrderBody, func(r *http.Request) { r.Header.Set("Content-Type", "text/xml") })

	assert.Equal(t, []int{http.StatusOK, http.StatusUnsupportedMediaType}, statuses)
}

func TestNewHandler_InvalidConfig(t *testing.T) {
	_, err := notify.NewHandler(combo.Config{Game: "xcom", Secret: "sk_x"}, notify.HandlerFunc(nil))
	assert.Error(t, err)

	_, err = notify.NewHandler(cfg, nil)
	assert.Error(t, err)
}
