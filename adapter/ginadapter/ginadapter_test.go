package ginadapter_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/seayoo-io/combo-sdk-go/adapter/ginadapter"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	raw  []byte
	body []byte
}

func (h *recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.ServeWebhook(w, r, nil)
}

func (h *recorder) ServeWebhook(w http.ResponseWriter, r *http.Request, raw []byte) {
	h.raw = raw
	h.body, _ = io.ReadAll(r.Body)
	w.WriteHeader(http.StatusTeapot)
}

func TestWrap(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const payload = `{"version":"2.0"}`

	t.Run("untouched body", func(t *testing.T) {
		h := &recorder{}
		r := gin.New()
		r.POST("/notify", ginadapter.Wrap(h))

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader(payload)))

		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.Nil(t, h.raw)
		assert.Equal(t, payload, string(h.body))
	})

	t.Run("body consumed by earlier binding", func(t *testing.T) {
		h := &recorder{}
		r := gin.New()
		r.Use(func(c *gin.Context) {
			var v map[string]any
			_ = c.ShouldBindBodyWith(&v, binding.JSON)
			c.Next()
		})
		r.POST("/notify", ginadapter.Wrap(h))

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.Equal(t, payload, string(h.raw))
		assert.Empty(t, h.body)
	})
}
