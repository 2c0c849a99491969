package handlers

import (
	"net/http"
	"time"

	"github.com/remnant-dksh/origin-engine/internal/handlers/middleware"
	"github.com/remnant-dksh/origin-engine/internal/handlers/render"
	"github.com/remnant-dksh/origin-engine/internal/logger"
	"github.com/remnant-dksh/origin-engine/internal/service/auth"
	"github.com/remnant-dksh/origin-engine/internal/session"
)

// Request bodies over this size fail with 413
const maxBodyBytes = 10 << 20 // 10 MB

type Config struct {
	// Deployment environment; HTTPS redirect activates in production only
	Environment string

	// Frontend origin allowed by CORS (credentials enabled)
	CORSOrigin string

	// Rate limit tiers. Zero values fall back to the defaults below;
	// tests override them to exercise the limiters quickly.
	APILimit      middleware.RateLimit
	LoginLimit    middleware.RateLimit
	RegisterLimit middleware.RateLimit
}

func (c Config) withDefaults() Config {
	if c.APILimit.Requests == 0 {
		c.APILimit = middleware.RateLimit{
			Requests: 100,
			Window:   15 * time.Minute,
		}
	}
	if c.LoginLimit.Requests == 0 {
		c.LoginLimit = middleware.RateLimit{
			Requests:       5,
			Window:         15 * time.Minute,
			SkipSuccessful: true,
			Message:        "Too many login attempts, please try again after 15 minutes.",
		}
	}
	if c.RegisterLimit.Requests == 0 {
		c.RegisterLimit = middleware.RateLimit{
			Requests: 3,
			Window:   time.Hour,
			Message:  "Too many registration attempts, please try again later.",
		}
	}
	return c
}

func handleNotFound() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.Error(w, "Route not found", http.StatusNotFound)
	})
}

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// NewRouter assembles routes and the security pipeline. Middleware order is
// a contract: headers first, then HTTPS redirect, CORS, the body size cap,
// sanitization (so no handler ever sees unescaped input), and per-tier rate
// limits plus CSRF checks on the API subtree.
func NewRouter(
	authService *auth.AuthService,
	sessions *session.Store,
	cfg Config,
	logger logger.Logger,
) http.Handler {
	cfg = cfg.withDefaults()

	authHandler := NewAuth(authService, logger)
	withAuth := middleware.RequireAuth(authService)

	apiLimiter := middleware.NewRateLimiter(cfg.APILimit)
	loginLimiter := middleware.NewRateLimiter(cfg.LoginLimit)
	registerLimiter := middleware.NewRateLimiter(cfg.RegisterLimit)

	api := http.NewServeMux()

	api.Handle("POST /auth/register", registerLimiter.Middleware(http.HandlerFunc(authHandler.register)))
	api.Handle("POST /auth/login", loginLimiter.Middleware(http.HandlerFunc(authHandler.login)))
	api.Handle("POST /auth/refresh", http.HandlerFunc(authHandler.refresh))
	api.Handle("POST /auth/logout", withAuth(http.HandlerFunc(authHandler.logout)))
	api.Handle("GET /auth/me", withAuth(handleUserMe(authService, logger)))
	api.Handle("GET /csrf-token", handleCSRFToken(sessions, logger))
	// Unknown API routes answer with the same envelope as everything else
	api.Handle("/", handleNotFound())

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", chain(api,
		apiLimiter.Middleware,
		middleware.CSRFProtect(sessions),
	)))
	root.Handle("GET /health", handleHealth())

	return chain(root,
		middleware.LoggerMiddleware(logger),
		middleware.SecurityHeaders,
		middleware.HTTPSRedirect(cfg.Environment),
		middleware.CORS(cfg.CORSOrigin),
		middleware.MaxBody(maxBodyBytes),
		middleware.SanitizeBody,
	)
}
