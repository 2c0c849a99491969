package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/remnant-dksh/origin-engine/internal/handlers"
	"github.com/remnant-dksh/origin-engine/internal/handlers/middleware"
	"github.com/remnant-dksh/origin-engine/internal/testutil"
	"github.com/remnant-dksh/origin-engine/tests/integration"
)

// The middleware pipeline as a whole: headers on every response, the health
// probe outside the protected subtree, and the general API limiter.
func Test_Pipeline(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("security headers on every response", func(t *testing.T) {
		integration.ServeWithTx(pg.Pool, t, handlers.Config{}, func(tx pgx.Tx, srvURL string, s integration.Services) {
			resp, err := http.Get(srvURL + "/health")
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck

			require.Equal(t, http.StatusOK, resp.StatusCode)
			require.NotEmpty(t, resp.Header.Get("Content-Security-Policy"))
			require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
			require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
			require.NotEmpty(t, resp.Header.Get("Strict-Transport-Security"))
		})
	})

	t.Run("health needs no session or csrf", func(t *testing.T) {
		integration.ServeWithTx(pg.Pool, t, handlers.Config{}, func(tx pgx.Tx, srvURL string, s integration.Services) {
			resp, err := http.Get(srvURL + "/health")
			require.NoError(t, err)
			defer resp.Body.Close() // nolint:errcheck

			require.Equal(t, http.StatusOK, resp.StatusCode)
		})
	})

	t.Run("unknown api route is 404 not 403", func(t *testing.T) {
		integration.ServeWithTx(pg.Pool, t, handlers.Config{}, func(tx pgx.Tx, srvURL string, s integration.Services) {
			client := integration.NewClient(t, srvURL)

			resp, body := client.Get(t, "/api/does-not-exist", "")
			require.Equal(t, http.StatusNotFound, resp.StatusCode, "reads pass csrf and fall through to the mux")
			require.JSONEq(t, `{
					"success": false,
					"message": "Route not found"
				}`, body, "unknown routes answer with the shared envelope")
		})
	})

	t.Run("general api limiter", func(t *testing.T) {
		cfg := handlers.Config{
			APILimit: middleware.RateLimit{Requests: 3, Window: time.Hour},
		}

		integration.ServeWithTx(pg.Pool, t, cfg, func(tx pgx.Tx, srvURL string, s integration.Services) {
			// Every /api request counts against the tier, the csrf fetch included
			client := integration.NewClient(t, srvURL)

			resp, _ := client.Get(t, "/api/csrf-token", "")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			resp, _ = client.Get(t, "/api/csrf-token", "")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			resp, body := client.Get(t, "/api/csrf-token", "")
			require.Equalf(t, http.StatusTooManyRequests, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `{
					"success": false,
					"message": "Too many requests from this IP, please try again later."
				}`, body)
		})
	})

	t.Run("health is outside the api limiter", func(t *testing.T) {
		cfg := handlers.Config{
			APILimit: middleware.RateLimit{Requests: 1, Window: time.Hour},
		}

		integration.ServeWithTx(pg.Pool, t, cfg, func(tx pgx.Tx, srvURL string, s integration.Services) {
			_ = integration.NewClient(t, srvURL) // consumes the single api slot

			for i := 0; i < 5; i++ {
				resp, err := http.Get(srvURL + "/health")
				require.NoError(t, err)
				resp.Body.Close() // nolint:errcheck
				require.Equal(t, http.StatusOK, resp.StatusCode, "health must not be rate limited")
			}
		})
	})
}
