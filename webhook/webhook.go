// Package webhook holds the request checks shared by Combo notification and
// GM command webhooks. The checks run in a fixed order and none of the
// rejections before signature verification depend on the request body.
package webhook

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/seayoo-io/combo-sdk-go/signer"
)

// Handler is implemented by the webhook handlers. ServeWebhook accepts the
// raw body for hosts that consume the request stream before the handler
// runs; ServeHTTP is ServeWebhook with no fallback.
type Handler interface {
	http.Handler
	ServeWebhook(w http.ResponseWriter, r *http.Request, rawBody []byte)
}

// Rejection kinds. The values double as GM error kinds.
const (
	KindMethod      = "invalid_http_method"
	KindContentType = "invalid_content_type"
	KindSignature   = "invalid_signature"
)

// Rejection is a request refused by Authenticate.
type Rejection struct {
	Status  int
	Kind    string
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%d %s: %s", r.Status, r.Kind, r.Message)
}

// Authenticator runs the method, content type, body and signature checks.
type Authenticator struct {
	signer  *signer.Signer
	maxBody int64
}

func NewAuthenticator(game, secret string, s Settings) *Authenticator {
	return &Authenticator{
		signer:  signer.New(game, secret, "", signer.WithClock(s.Clock), signer.WithLogger(s.Logger)),
		maxBody: s.MaxBodyBytes,
	}
}

// Authenticate returns the verified body or the first failed check.
func (a *Authenticator) Authenticate(r *http.Request, rawBody []byte) ([]byte, *Rejection) {
	if r.Method != http.MethodPost {
		return nil, &Rejection{
			Status:  http.StatusMethodNotAllowed,
			Kind:    KindMethod,
			Message: "Expecting POST, got " + r.Method,
		}
	}
	if ct := r.Header.Get("Content-Type"); !IsJSON(ct) {
		return nil, &Rejection{
			Status:  http.StatusUnsupportedMediaType,
			Kind:    KindContentType,
			Message: "Expecting application/json, got " + ct,
		}
	}

	body := ReadBody(r, rawBody, a.maxBody)
	// Only path and query are signed, so the host is a placeholder.
	target := "http://" + r.Host + r.URL.RequestURI()
	if len(body) == 0 || !a.signer.Verify(r.Header.Get(signer.AuthorizationHeader), http.MethodPost, target, body) {
		return nil, &Rejection{
			Status:  http.StatusUnauthorized,
			Kind:    KindSignature,
			Message: "Signature failed",
		}
	}
	return body, nil
}

// IsJSON reports whether a Content-Type value starts with application/json,
// ignoring case.
func IsJSON(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "application/json")
}

// ReadBody reads at most limit bytes of the request body. When the stream
// is empty, already consumed or larger than limit, rawBody is used instead.
func ReadBody(r *http.Request, rawBody []byte, limit int64) []byte {
	if r.Body != nil {
		body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, limit))
		if err == nil && len(body) > 0 {
			return body
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil
		}
	}
	if int64(len(rawBody)) > limit {
		return nil
	}
	return rawBody
}
