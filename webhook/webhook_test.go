package webhook_test

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/seayoo-io/combo-sdk-go/signer"
	"github.com/seayoo-io/combo-sdk-go/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	game   = "xcom"
	secret = "sk_webhook_secret"
)

func signedRequest(t *testing.T, target string, body []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	auth, err := signer.New(game, secret, "").Authorization(http.MethodPost, target, body)
	require.NoError(t, err)
	req.Header.Set(signer.AuthorizationHeader, auth)
	return req
}

func newAuthenticator(opts ...webhook.Option) *webhook.Authenticator {
	return webhook.NewAuthenticator(game, secret, webhook.NewSettings(opts...))
}

func TestAuthenticate_Order(t *testing.T) {
	body := []byte(`{"version":"2.0"}`)

	t.Run("method first", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/notify", nil)
		req.Header.Set("Content-Type", "text/plain")

		_, rej := newAuthenticator().Authenticate(req, nil)
		require.NotNil(t, rej)
		assert.Equal(t, http.StatusMethodNotAllowed, rej.Status)
		assert.Equal(t, webhook.KindMethod, rej.Kind)
	})

	t.Run("content type before signature", func(t *testing.T) {
		req := signedRequest(t, "/notify", body)
		req.Header.Set("Content-Type", "text/plain")

		_, rej := newAuthenticator().Authenticate(req, nil)
		require.NotNil(t, rej)
		assert.Equal(t, http.StatusUnsupportedMediaType, rej.Status)
	})

	t.Run("bad signature", func(t *testing.T) {
		req := signedRequest(t, "/notify", body)
		req.Header.Set(signer.AuthorizationHeader, "SEAYOO-HMAC-SHA256 Game=xcom,Timestamp=20240101T000000Z,Signature=00")

		_, rej := newAuthenticator().Authenticate(req, nil)
		require.NotNil(t, rej)
		assert.Equal(t, http.StatusUnauthorized, rej.Status)
		assert.Equal(t, "Signature failed", rej.Message)
	})

	t.Run("empty body", func(t *testing.T) {
		req := signedRequest(t, "/notify", nil)

		_, rej := newAuthenticator().Authenticate(req, nil)
		require.NotNil(t, rej)
		assert.Equal(t, http.StatusUnauthorized, rej.Status)
	})

	t.Run("valid", func(t *testing.T) {
		req := signedRequest(t, "/notify?x=1", body)

		got, rej := newAuthenticator().Authenticate(req, nil)
		require.Nil(t, rej)
		assert.Equal(t, body, got)
	})
}

func TestAuthenticate_RawBodyFallback(t *testing.T) {
	body := []byte(`{"version":"2.0"}`)
	req := signedRequest(t, "/gm", body)
	req.Body = http.NoBody

	got, rej := newAuthenticator().Authenticate(req, body)
	require.Nil(t, rej)
	assert.Equal(t, body, got)
}

func TestAuthenticate_ContentTypeVariants(t *testing.T) {
	for _, ct := range []string{"application/json", "Application/JSON; charset=utf-8", "application/json;v=2"} {
		assert.True(t, webhook.IsJSON(ct), ct)
	}
	for _, ct := range []string{"", "text/plain", "application/xml", "text/json"} {
		assert.False(t, webhook.IsJSON(ct), ct)
	}
}

func TestReadBody(t *testing.T) {
	t.Run("limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789"))
		assert.Nil(t, webhook.ReadBody(req, nil, 4))
	})

	t.Run("read error falls back", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Body = io.NopCloser(iotest.ErrReader(errors.New("boom")))
		assert.Equal(t, []byte("raw"), webhook.ReadBody(req, []byte("raw"), 10))
	})

	t.Run("oversized fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		assert.Nil(t, webhook.ReadBody(req, []byte("0123456789"), 4))
	})
}

func TestMiddleware(t *testing.T) {
	hook := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := webhook.Middleware([]string{"/gm", "/notify"}, hook)(next)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPost, "/gm", http.StatusTeapot},
		{http.MethodPost, "/notify", http.StatusTeapot},
		{http.MethodGet, "/gm", http.StatusNoContent},
		{http.MethodPost, "/other", http.StatusNoContent},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.want, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func TestWriters(t *testing.T) {
	rec := httptest.NewRecorder()
	webhook.WriteText(rec, http.StatusOK, "OK")
	assert.Equal(t, "OK", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	rec = httptest.NewRecorder()
	webhook.WriteJSON(rec, http.StatusConflict, []byte(`{"a":1}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	b, err := webhook.EncodeJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
}
