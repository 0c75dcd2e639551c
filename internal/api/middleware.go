// Package api implements the todoseq REST API using chi.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// tokenParam carries the token for clients that cannot set headers,
// such as a browser EventSource subscribing to /events.
const tokenParam = "access_token"

// AuthMiddleware returns middleware that validates a Bearer token.
// With enabled false every request passes. Otherwise the token is read
// from "Authorization: Bearer <token>", falling back to the access_token
// query parameter on GET requests.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	want := []byte(token)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			got, ok := requestToken(r)
			if !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.CutPrefix(h, "Bearer ")
	}
	if r.Method != http.MethodGet {
		return "", false
	}
	t := r.URL.Query().Get(tokenParam)
	return t, t != ""
}
