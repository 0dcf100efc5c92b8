package middleware

import (
	"net/http"
	"time"
)

// Timeout cancels the request context after timeout and answers 503 if
// the handler has not written a response by then.
func Timeout(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, timeout, `{"error":"timeout","message":"Request timeout"}`)
	}
}
