package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/remnant-dksh/origin-engine/internal/service/auth"
	"github.com/remnant-dksh/origin-engine/internal/testutil"
)

func Test_UserMe(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	getMe := func(t *testing.T, url string, authHeader string) (*http.Response, string) {
		req, err := http.NewRequest(http.MethodGet, url+"/auth/me", nil)
		require.NoError(t, err)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		return resp, string(body)
	}

	t.Run("me ok", func(t *testing.T) {
		withAuthServer(pg.Pool, t, func(url string, s *auth.AuthService, tx pgx.Tx) {
			registered, pair, err := s.Register(t.Context(), "dk@origin.ai", "DK", "pwd123")
			require.NoError(t, err)

			resp, body := getMe(t, url, "Bearer "+pair.Access.Value)

			require.Equalf(t, http.StatusOK, resp.StatusCode, "not expected code. Body: %s", body)

			var envelope struct {
				Success bool `json:"success"`
				Data    struct {
					User UserData `json:"user"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(body), &envelope))
			require.True(t, envelope.Success)
			require.Equal(t, registered.ID, envelope.Data.User.ID)
			require.Equal(t, "dk@origin.ai", envelope.Data.User.Email)
			require.Equal(t, "DK", envelope.Data.User.Name)
		})
	})

	t.Run("missing token is 401", func(t *testing.T) {
		withAuthServer(pg.Pool, t, func(url string, s *auth.AuthService, tx pgx.Tx) {
			resp, body := getMe(t, url, "")

			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			require.JSONEq(t, `{
					"success": false,
					"message": "Authentication token required"
				}`, body)
		})
	})

	t.Run("invalid token is 403", func(t *testing.T) {
		withAuthServer(pg.Pool, t, func(url string, s *auth.AuthService, tx pgx.Tx) {
			resp, body := getMe(t, url, "Bearer definitely-not-a-token")

			require.Equal(t, http.StatusForbidden, resp.StatusCode)
			require.JSONEq(t, `{
					"success": false,
					"message": "Invalid or expired token"
				}`, body)
		})
	})

	t.Run("deleted account is 404", func(t *testing.T) {
		withAuthServer(pg.Pool, t, func(url string, s *auth.AuthService, tx pgx.Tx) {
			registered, pair, err := s.Register(t.Context(), "dk@origin.ai", "DK", "pwd123")
			require.NoError(t, err)

			// Token still cryptographically valid, account gone
			_, err = tx.Exec(t.Context(), "DELETE FROM users WHERE id = $1", registered.ID)
			require.NoError(t, err)

			resp, body := getMe(t, url, "Bearer "+pair.Access.Value)

			require.Equalf(t, http.StatusNotFound, resp.StatusCode, "not expected code. Body: %s", body)
			require.JSONEq(t, `{
					"success": false,
					"message": "User not found"
				}`, body)
		})
	})
}
