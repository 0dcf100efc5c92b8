package webhook

import (
	"net/http"
	"strings"
)

// Middleware serves POST requests for any of paths with h and hands every
// other request to the next handler. It must run before anything that reads
// the request body.
func Middleware(paths []string, h http.Handler) func(http.Handler) http.Handler {
	match := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		match[p] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := match[r.URL.Path]; ok && strings.EqualFold(r.Method, http.MethodPost) {
				h.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
