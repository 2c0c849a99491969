package handlers

import (
	"errors"
	"net/http"

	"github.com/remnant-dksh/origin-engine/internal/apperrors"
	"github.com/remnant-dksh/origin-engine/internal/handlers/render"
	"github.com/remnant-dksh/origin-engine/internal/handlers/userctx"
	"github.com/remnant-dksh/origin-engine/internal/logger"
	"github.com/remnant-dksh/origin-engine/internal/service/auth"
)

func handleUserMe(authService *auth.AuthService, logger logger.Logger) http.Handler {
	type response struct {
		User UserData `json:"user"`
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, _ := userctx.FromContext(r.Context())

		// The token may outlive the account, so resolve against the store
		user, err := authService.User(r.Context(), identity.UserID)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.Error(w, "User not found", http.StatusNotFound)
			default:
				logger.Error("user lookup failed", "error", err.Error())
				render.Error(w, "Internal server error", http.StatusInternalServerError)
			}
			return
		}

		render.Success(w, "", response{User: toUserData(user)})
	})
}
