// Package middleware provides HTTP middleware for the quiz API.
package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/ashureev/quizzical/internal/identity"
)

var (
	allowedMethods = strings.Join([]string{http.MethodGet, http.MethodPost, http.MethodOptions}, ", ")
	allowedHeaders = strings.Join([]string{"Content-Type", identity.SessionHeaderName}, ", ")
)

// CORS returns middleware that handles CORS headers for the given origins.
// "*" allows any origin but never sends Allow-Credentials.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	wildcard := slices.Contains(allowedOrigins, "*")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			w.Header().Add("Vary", "Origin")

			explicit := origin != "" && slices.Contains(allowedOrigins, origin)
			if origin != "" && (explicit || wildcard) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
				w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)
				// The anonymous cookie only travels to explicitly listed origins.
				if explicit {
					w.Header().Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
