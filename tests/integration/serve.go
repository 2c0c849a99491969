package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/remnant-dksh/origin-engine/internal/handlers"
	"github.com/remnant-dksh/origin-engine/internal/logger"
	"github.com/remnant-dksh/origin-engine/internal/repository/postgres"
	"github.com/remnant-dksh/origin-engine/internal/service/auth"
	"github.com/remnant-dksh/origin-engine/internal/service/auth/tokenmanager"
	"github.com/remnant-dksh/origin-engine/internal/session"
	"github.com/remnant-dksh/origin-engine/internal/testutil"
)

type Services struct {
	AuthService *auth.AuthService
	Sessions    *session.Store
}

// Create db transaction and run the full server over that connection: the
// whole middleware pipeline is active, so requests need CSRF headers like a
// real client. Rate limit tiers may be overridden through cfg.
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, cfg handlers.Config, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		userRepo := &postgres.UserRepo{DB: tx}
		refreshRepo := &postgres.RefreshTokenRepo{DB: tx}

		tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"}, refreshRepo)
		require.NoError(t, err, "token manager should be created without errors")

		as, err := auth.NewService(auth.Config{}, tokenManager, userRepo, refreshRepo)
		require.NoError(t, err, "auth service starting error", err)

		sessions := session.NewStore(session.Config{})
		defer sessions.Stop()

		if cfg.Environment == "" {
			cfg.Environment = logger.EnvDevelopment
		}
		if cfg.CORSOrigin == "" {
			cfg.CORSOrigin = "http://localhost:5173"
		}

		router := handlers.NewRouter(as, sessions, cfg, logger.NewNoOpLogger())

		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{AuthService: as, Sessions: sessions})
	})
}

// Client keeps the session id and CSRF token a browser client would hold
// and sends them with every state-changing request
type Client struct {
	SessionID string
	CSRFToken string

	srvURL string
}

// NewClient generates a session id and fetches a CSRF token for it
func NewClient(t *testing.T, srvURL string) *Client {
	t.Helper()

	c := &Client{SessionID: uuid.NewString(), srvURL: srvURL}

	resp, body := c.Get(t, "/api/csrf-token", "")
	require.Equalf(t, http.StatusOK, resp.StatusCode, "csrf token should be issued. Body: %s", body)

	c.CSRFToken = resp.Header.Get("X-CSRF-Token")
	require.NotEmpty(t, c.CSRFToken, "csrf token header should be set")

	return c
}

// Post sends a JSON body with the client's session and CSRF headers
func (c *Client) Post(t *testing.T, path string, data string, accessToken string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, c.srvURL+path, strings.NewReader(data))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-Id", c.SessionID)
	req.Header.Set("X-CSRF-Token", c.CSRFToken)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	return do(t, req)
}

// Get sends a GET request; session header goes along so token endpoints work
func (c *Client) Get(t *testing.T, path string, accessToken string) (*http.Response, string) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, c.srvURL+path, nil)
	require.NoError(t, err)
	req.Header.Set("X-Session-Id", c.SessionID)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	return do(t, req)
}

func do(t *testing.T, req *http.Request) (*http.Response, string) {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	return resp, string(body)
}

// Envelope mirrors the response shape every endpoint uses
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

// Decode unmarshals the envelope and fails the test on malformed output
func Decode(t *testing.T, body string) Envelope {
	t.Helper()

	var e Envelope
	require.NoError(t, json.Unmarshal([]byte(body), &e), "response should be an envelope. Body: %s", body)
	return e
}
