package server

import (
	"context"
	"net/http"
	"time"

	"github.com/policynav/policynav/internal/auth"
	"github.com/policynav/policynav/internal/config"
	"github.com/policynav/policynav/internal/http/handlers"
	"github.com/policynav/policynav/internal/middleware"
	"github.com/policynav/policynav/internal/ratelimit"
	"github.com/policynav/policynav/internal/service"
	"github.com/policynav/policynav/pkg/readability"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// Deps carries the wired services the routes depend on.
type Deps struct {
	AuthService  *service.AuthService
	OtpService   *service.OtpService
	AdminService *service.AdminService
	Tokens       *auth.TokenManager
	Limiter      *ratelimit.Limiter
	Analyzer     *readability.Analyzer
}

// New wires up middleware, routes, and returns a ready server.
func New(cfg *config.Config, deps Deps) *Server {
	mux := http.NewServeMux()

	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewAuthHandler(deps.AuthService, deps.OtpService, deps.Tokens, deps.Limiter).Register(mux)
	handlers.NewAdminHandler(deps.AdminService, deps.Tokens).Register(mux)
	handlers.NewReadabilityHandler(deps.Analyzer, deps.Tokens).Register(mux)

	handler := middleware.CORS(middleware.Logging(mux))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
