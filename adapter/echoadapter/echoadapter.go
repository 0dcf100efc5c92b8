// Package echoadapter mounts Combo webhook handlers on an echo server.
package echoadapter

import (
	"bytes"
	"io"

	"github.com/labstack/echo/v4"
	"github.com/seayoo-io/combo-sdk-go/webhook"
)

// RawBodyKey is the context key Wrap reads the raw body from.
const RawBodyKey = "combo_raw_body"

// Wrap serves h as an echo handler.
func Wrap(h webhook.Handler) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, _ := c.Get(RawBodyKey).([]byte)
		h.ServeWebhook(c.Response(), c.Request(), raw)
		return nil
	}
}

// KeepRawBody stores a copy of the request body under RawBodyKey and
// restores the stream for later readers. Bodies over limit bytes are left
// alone.
func KeepRawBody(limit int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.ContentLength > limit {
				return next(c)
			}
			raw, err := io.ReadAll(io.LimitReader(req.Body, limit+1))
			if err != nil {
				return err
			}
			if int64(len(raw)) <= limit {
				c.Set(RawBodyKey, raw)
			}
			req.Body = io.NopCloser(io.MultiReader(bytes.NewReader(raw), req.Body))
			return next(c)
		}
	}
}
