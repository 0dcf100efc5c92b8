package webhook

import (
	"encoding/json"
	"net/http"
)

// WriteText writes a plain text response. An empty message sends no body.
func WriteText(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	if message != "" {
		_, _ = w.Write([]byte(message))
	}
}

// WriteJSON writes body, which must already be encoded JSON.
func WriteJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// EncodeJSON marshals v, falling back to an empty object for nil.
func EncodeJSON(v any) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}
