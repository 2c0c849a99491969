package middleware

import (
	"net/http"

	"github.com/remnant-dksh/origin-engine/internal/handlers/render"
)

type csrfChecker interface {
	Check(sessionID string, token string) bool
}

// CSRFProtect verifies state-changing requests carry the CSRF token issued
// for their session. Reads (GET/HEAD/OPTIONS) pass through. A real session
// identifier is required: there is no client-IP fallback, since IPs are
// shared behind NAT and would let one client spend another's token.
func CSRFProtect(store csrfChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			sessionID := r.Header.Get("X-Session-Id")
			if sessionID == "" {
				render.Error(w, "Session ID required", http.StatusForbidden)
				return
			}

			if !store.Check(sessionID, r.Header.Get("X-CSRF-Token")) {
				render.Error(w, "Invalid CSRF token", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
