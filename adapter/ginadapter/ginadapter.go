// Package ginadapter mounts Combo webhook handlers on a gin engine.
package ginadapter

import (
	"github.com/gin-gonic/gin"
	"github.com/seayoo-io/combo-sdk-go/webhook"
)

// Wrap serves h as a gin handler. If an earlier middleware consumed the
// body through ShouldBindBodyWith, the cached copy is used as the raw body.
func Wrap(h webhook.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		var raw []byte
		if v, ok := c.Get(gin.BodyBytesKey); ok {
			raw, _ = v.([]byte)
		}
		h.ServeWebhook(c.Writer, c.Request, raw)
		c.Abort()
	}
}
