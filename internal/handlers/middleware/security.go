package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/remnant-dksh/origin-engine/internal/logger"
)

const contentSecurityPolicy = "default-src 'self'; script-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data: https:"

// SecurityHeaders sets the static response security headers on every response
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", contentSecurityPolicy)
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")

		next.ServeHTTP(w, r)
	})
}

// HTTPSRedirect sends plain HTTP requests to the HTTPS origin.
// Active in production only; the proto is taken from the X-Forwarded-Proto
// header the TLS-terminating proxy sets.
func HTTPSRedirect(environment string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if environment != logger.EnvProduction {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-Forwarded-Proto") != "https" && r.TLS == nil {
				http.Redirect(w, r, "https://"+r.Host+r.URL.RequestURI(), http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CORS allows the configured frontend origin with credentials and the
// custom headers the API requires
func CORS(origin string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-CSRF-Token", "X-Session-Id"},
		ExposedHeaders:   []string{"X-CSRF-Token"},
		AllowCredentials: true,
	})

	return c.Handler
}

// MaxBody caps the request body size; reads past the limit fail with
// *http.MaxBytesError which the render package maps to 413
func MaxBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
