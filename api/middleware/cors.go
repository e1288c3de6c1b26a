package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

var localOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// CORS allows the configured origins; blank entries are ignored and an empty
// list means the local front-end dev servers. Idempotency and request id
// headers are allowed in and the replay and request id headers exposed.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		allowed = localOrigins
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Content-Type", IdempotencyHeader, RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, ReplayHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
