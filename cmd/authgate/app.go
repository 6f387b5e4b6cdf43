package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/vkuznetsov/authgate/internal/db"
	"github.com/vkuznetsov/authgate/internal/handlers"
	"github.com/vkuznetsov/authgate/internal/handlers/middleware"
	"github.com/vkuznetsov/authgate/internal/logger"
	"github.com/vkuznetsov/authgate/internal/repository/postgres"
	"github.com/vkuznetsov/authgate/internal/service/auth"
	"github.com/vkuznetsov/authgate/internal/service/user"
)

const (
	appName    = "authgate"
	appVersion = "1.0.0"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Logger     logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config. Err: %w", err)
	}

	// Initialize logger
	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger. Err: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	userService := user.NewService(auth.DefaultHasher, storage)
	authService, err := auth.NewService(auth.Config{
		SecretKey:  c.SecretKey,
		Alg:        c.JWTAlgorithm,
		AccessTTL:  c.AccessTTL,
		RefreshTTL: c.RefreshTTL,
	}, userService)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	// Initialize handlers
	authHandler := handlers.NewAuth(authService, userService, log)
	userHandler := handlers.NewUser(userService, log)

	routerCfg := handlers.RouterConfig{
		Info: handlers.ServiceInfo{
			Name:        appName,
			Version:     appVersion,
			Environment: c.Environment,
		},
		AuthMiddleware: middleware.Auth(authService),
		GlobalMiddlewares: []func(http.Handler) http.Handler{
			middleware.Logger(log),
			cors.New(cors.Options{
				AllowedOrigins:   c.CORSOrigins,
				AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
				AllowedHeaders:   []string{"Authorization", "Content-Type"},
				AllowCredentials: true,
			}).Handler,
		},
	}
	if c.RateLimitPerMinute > 0 {
		routerCfg.RateLimitMiddleware = middleware.RateLimit(c.RateLimitPerMinute, c.RateLimitBurst)
	}

	mux := handlers.NewRouter(authHandler, userHandler, routerCfg)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		Logger:     log,
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
			s.Logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.Logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.Logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
