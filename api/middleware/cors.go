package middleware

import (
	"net/http"

	"github.com/go-chi/cors"

	"github.com/saborhub/saborhub-backend/pkg/config"
)

// CORS lets the storefront and back-office SPAs call the API. Browsers must be able to
// read X-Cart-Session to keep the minted cart session.
func CORS(cfg config.CORSConfig) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type",
			idempotencyHeader, CartSessionHeader, requestIDHeader,
		},
		ExposedHeaders: []string{CartSessionHeader, requestIDHeader, replayedHeader, "Retry-After"},
		MaxAge:         300,
	}
	// Credentials are never sent to a wildcard origin.
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			return cors.New(opts).Handler
		}
	}
	opts.AllowCredentials = true
	return cors.New(opts).Handler
}
