package middleware

import (
	"net/http"
	"strings"
)

// CORSConfig lists the headers sent on every response of a wrapped handler
type CORSConfig struct {
	AllowOrigin  string
	AllowHeaders []string
	AllowMethods []string
}

// DefaultAdminCORSConfig is the permissive policy used by the admin functions
func DefaultAdminCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigin:  "*",
		AllowHeaders: []string{"authorization", "x-client-info", "apikey", "content-type", "x-admin-secret"},
		AllowMethods: []string{http.MethodPost, http.MethodOptions},
	}
}

// CORS sets the configured headers on every response and answers
// preflight OPTIONS requests with 204 and an empty body.
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	headers := strings.Join(config.AllowHeaders, ", ")
	methods := strings.Join(config.AllowMethods, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", config.AllowOrigin)
			h.Set("Access-Control-Allow-Headers", headers)
			h.Set("Access-Control-Allow-Methods", methods)

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
