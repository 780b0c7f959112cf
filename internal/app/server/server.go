package server

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/shorty/config"
	"github.com/sifan077/shorty/internal/app/repository"
	"github.com/sifan077/shorty/internal/app/service"
	inthttp "github.com/sifan077/shorty/internal/http/handler"
	"github.com/sifan077/shorty/internal/http/middleware"
	infraPrometheus "github.com/sifan077/shorty/internal/infra/prometheus"
	"go.uber.org/zap"
)

// Dependencies bundles everything the HTTP server needs.
type Dependencies struct {
	Logger    *zap.Logger
	Server    config.ServerConfig
	RateLimit config.RateLimitConfig
	Mappings  repository.MappingRepository
	Shortener service.Shortener
	Metrics   *infraPrometheus.Metrics

	// Limiter backs rate limiting of POST /api/shorten. Nil disables it.
	Limiter middleware.RateLimitStore
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates a new HTTP server instance with every route registered.
func New(deps Dependencies) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "shorty",
		CaseSensitive:         true,
		Immutable:             true,
		DisableStartupMessage: true,
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

// App exposes the underlying Fiber application, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerRoutes() error {
	s.app.Use(
		middleware.Recovery(s.deps.Logger),
		middleware.RequestID(),
		middleware.Logger(s.deps.Logger, "/health", "/ready"),
		middleware.Metrics(s.deps.Metrics),
		middleware.CORS(s.deps.Server.AllowOrigins),
	)

	redirectHandler := inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger:    s.deps.Logger,
		Shortener: s.deps.Shortener,
		Store:     s.deps.Mappings,
	})
	redirectHandler.Register(s.app)

	// The pages call the API on the same origin.
	pageHandler, err := inthttp.NewPageHandler("")
	if err != nil {
		return fmt.Errorf("server: build pages: %w", err)
	}
	pageHandler.Register(s.app)

	var shortenMiddleware []fiber.Handler
	if s.deps.Limiter != nil && s.deps.RateLimit.Enabled {
		shortenMiddleware = append(shortenMiddleware, middleware.RateLimit(
			s.deps.Limiter,
			middleware.RateLimitConfig{
				MaxRequests: s.deps.RateLimit.MaxRequests,
				Window:      s.deps.RateLimit.Window,
			},
			s.deps.Logger,
		))
	}

	apiHandler := inthttp.NewAPIHandler(inthttp.APIDeps{
		Logger:    s.deps.Logger,
		Shortener: s.deps.Shortener,
		BaseURL:   s.deps.Server.BaseURL,
	})
	apiHandler.Register(s.app, shortenMiddleware...)

	// Catch-all last so it never shadows the fixed paths above.
	redirectHandler.RegisterResolve(s.app)
	return nil
}
