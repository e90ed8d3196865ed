package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// NewCORS lets the browser client call the API from allowedOrigin, "*" when empty.
func NewCORS(allowedOrigin string) func(http.Handler) http.Handler {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{allowedOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}
