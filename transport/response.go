package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Local failure statuses.
const (
	StatusNetworkError = -1
	StatusRequestError = -2
)

// Response is the outcome of a call. A negative Status means no response
// was received; Cause then holds the reason. Responses may be shared between
// coalesced GET callers and must not be modified.
type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	Body       []byte
	// Attempts is the number of physical requests sent.
	Attempts int
	Cause    error
}

// OK reports whether Status is in 200-399.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 400
}

// APIError describes a failed call.
type APIError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("combo api error [%s]: %s (status: %d)", e.Code, e.Message, e.Status)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether retrying the same call may succeed.
func (e *APIError) IsRetryable() bool {
	return e.Status < 0 || e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// Err returns nil for an OK response, otherwise an *APIError.
//
// Failed bodies are read as {"error": code, "message": text}. An HTML
// <title> or XML <message> in the body wins over the JSON message.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	apiErr := &APIError{Status: r.Status, Code: r.StatusText, Err: r.Cause}
	if r.Status < 0 {
		if r.Cause != nil {
			apiErr.Message = r.Cause.Error()
		}
		return apiErr
	}

	body := string(r.Body)
	apiErr.Message = body
	var payload struct {
		Error   any `json:"error"`
		Message any `json:"message"`
	}
	if looksLikeJSON(body) && json.Unmarshal(r.Body, &payload) == nil {
		if code := stringify(payload.Error); code != "" {
			apiErr.Code = code
		}
		if msg := stringify(payload.Message); msg != "" {
			apiErr.Message = msg
		}
	}
	if msg := presetMessage(body); msg != "" {
		apiErr.Message = msg
	}
	return apiErr
}

// DecodeJSON decodes an OK response body into T.
func DecodeJSON[T any](r *Response) (*T, error) {
	if err := r.Err(); err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, &APIError{
			Status:  r.Status,
			Code:    "ResponseFormatError",
			Message: "cannot decode response body",
			Err:     err,
		}
	}
	return &v, nil
}

var (
	htmlTitle  = regexp.MustCompile(`(?i)<title>([^<]+)</title>`)
	xmlMessage = regexp.MustCompile(`(?i)<message>([^<]+)</message>`)
)

func presetMessage(body string) string {
	if m := htmlTitle.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	if m := xmlMessage.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}

func looksLikeJSON(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
