package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/remnant-dksh/origin-engine/internal/db"
	"github.com/remnant-dksh/origin-engine/internal/handlers"
	"github.com/remnant-dksh/origin-engine/internal/logger"
	"github.com/remnant-dksh/origin-engine/internal/repository/postgres"
	"github.com/remnant-dksh/origin-engine/internal/service/auth"
	"github.com/remnant-dksh/origin-engine/internal/service/auth/tokenmanager"
	"github.com/remnant-dksh/origin-engine/internal/session"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	// Shutdown hooks: session sweeper, db pool
	cleanup []func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	// Initialize logger
	logger, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	tokenManager, err := tokenmanager.New(
		tokenmanager.Config{SecretKey: c.SecretKey, AccessTTL: c.AccessTokenTTL},
		storage.Refresh(),
	)
	if err != nil {
		return nil, fmt.Errorf("error while creating token manager. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{}, tokenManager, storage.User(), storage.Refresh())
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	sessions := session.NewStore(session.Config{})

	mux := handlers.NewRouter(
		authService,
		sessions,
		handlers.Config{
			Environment: c.Environment,
			CORSOrigin:  c.CORSOrigin,
		},
		logger,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		cleanup:    []func(){sessions.Stop, pool.Close},
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	for _, fn := range s.cleanup {
		fn()
	}

	return err
}
