package middleware

import (
	"net/http"
	"strings"

	"github.com/remnant-dksh/origin-engine/internal/handlers/render"
	"github.com/remnant-dksh/origin-engine/internal/handlers/userctx"
	"github.com/remnant-dksh/origin-engine/internal/service/auth/tokenmanager"
)

type accessParser interface {
	ParseAccess(access string) (tokenmanager.Claims, error)
}

// RequireAuth gates protected routes on a bearer access token.
// Status codes are split on purpose: a missing credential is 401,
// a present but invalid or expired one is 403.
func RequireAuth(p accessParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, ok := bearerToken(r)
			if !ok {
				render.Error(w, "Authentication token required", http.StatusUnauthorized)
				return
			}

			claims, err := p.ParseAccess(access)
			if err != nil {
				render.Error(w, "Invalid or expired token", http.StatusForbidden)
				return
			}

			ctx := userctx.New(r.Context(), userctx.Identity{UserID: claims.UserID, Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth attaches the identity when a valid token is present and
// proceeds unauthenticated otherwise. Handlers behind it must treat the
// identity as possibly absent.
func OptionalAuth(p accessParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if access, ok := bearerToken(r); ok {
				if claims, err := p.ParseAccess(access); err == nil {
					ctx := userctx.New(r.Context(), userctx.Identity{UserID: claims.UserID, Email: claims.Email})
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", false
	}

	return token, true
}
