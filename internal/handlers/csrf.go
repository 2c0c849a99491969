package handlers

import (
	"net/http"

	"github.com/remnant-dksh/origin-engine/internal/handlers/render"
	"github.com/remnant-dksh/origin-engine/internal/logger"
	"github.com/remnant-dksh/origin-engine/internal/session"
)

// handleCSRFToken issues a token bound to the caller's session. The session
// id header is mandatory: tokens keyed by client IP would be shared by
// everyone behind the same NAT.
func handleCSRFToken(sessions *session.Store, logger logger.Logger) http.Handler {
	type response struct {
		Token string `json:"token"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.Header.Get("X-Session-Id")
		if sessionID == "" {
			render.Error(w, "X-Session-Id header required", http.StatusBadRequest)
			return
		}

		token, err := sessions.Issue(sessionID)
		if err != nil {
			logger.Error("csrf token issue failed", "error", err.Error())
			render.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("X-CSRF-Token", token)
		render.Success(w, "CSRF token issued", response{Token: token})
	})
}
