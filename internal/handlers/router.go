package handlers

import (
	"net/http"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	Info ServiceInfo

	// Middleware protecting authenticated routes
	AuthMiddleware func(http.Handler) http.Handler

	// Middleware throttling the auth endpoints, optional
	RateLimitMiddleware func(http.Handler) http.Handler

	// Middlewares wrapping the whole router, applied in order
	GlobalMiddlewares []func(http.Handler) http.Handler
}

func NewRouter(auth *AuthHandler, users *UserHandler, cfg RouterConfig) http.Handler {
	passthrough := func(h http.Handler) http.Handler { return h }

	throttled := cfg.RateLimitMiddleware
	if throttled == nil {
		throttled = passthrough
	}
	withAuth := cfg.AuthMiddleware
	if withAuth == nil {
		withAuth = passthrough
	}

	mux := http.NewServeMux()

	mux.Handle("POST /api/v1/auth/register", throttled(http.HandlerFunc(auth.register)))
	mux.Handle("POST /api/v1/auth/login", throttled(http.HandlerFunc(auth.login)))
	mux.Handle("POST /api/v1/auth/refresh", throttled(http.HandlerFunc(auth.refresh)))
	mux.Handle("POST /api/v1/auth/logout", http.HandlerFunc(auth.logout))

	mux.Handle("GET /api/v1/users", withAuth(http.HandlerFunc(users.list)))
	mux.Handle("GET /api/v1/users/me", withAuth(http.HandlerFunc(users.me)))
	mux.Handle("PUT /api/v1/users/me", withAuth(http.HandlerFunc(users.updateMe)))
	mux.Handle("DELETE /api/v1/users/me", withAuth(http.HandlerFunc(users.deleteMe)))
	mux.Handle("GET /api/v1/users/{id}", withAuth(http.HandlerFunc(users.get)))

	mux.Handle("GET /health", handleHealth(cfg.Info))
	mux.Handle("GET /{$}", handleRoot(cfg.Info))

	return chain(mux, cfg.GlobalMiddlewares...)
}
