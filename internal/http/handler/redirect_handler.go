package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/shorty/internal/app/repository"
	"github.com/sifan077/shorty/internal/app/service"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store can serve queries.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RedirectDeps groups dependencies required by redirect handlers.
type RedirectDeps struct {
	Logger    *zap.Logger
	Shortener service.Shortener
	Store     Pinger
}

// RedirectHandler implements the probes and the short code redirect.
type RedirectHandler struct {
	logger    *zap.Logger
	shortener service.Shortener
	store     Pinger
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:    logger,
		shortener: deps.Shortener,
		store:     deps.Store,
	}
}

// Register wires probe routes onto the provided router.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
	router.Get("/ready", h.Ready)
}

// RegisterResolve wires the catch-all /:shortCode route. It must be
// registered after every fixed path.
func (h *RedirectHandler) RegisterResolve(router fiber.Router) {
	router.Get("/:shortCode", h.Resolve)
}

// Health is a liveness probe; it never touches the database.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).SendString("OK")
}

// Ready reports whether the mapping store answers.
func (h *RedirectHandler) Ready(c *fiber.Ctx) error {
	if h.store == nil {
		return c.Status(fiber.StatusOK).SendString("OK")
	}
	if err := h.store.Ping(userContext(c)); err != nil {
		h.logger.Warn("readiness check failed", zap.Error(err))
		return c.Status(fiber.StatusServiceUnavailable).SendString("Service Unavailable")
	}
	return c.Status(fiber.StatusOK).SendString("OK")
}

// Resolve handles GET /:shortCode.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	code := c.Params("shortCode")

	longURL, err := h.shortener.Resolve(userContext(c), code, service.Visit{
		IP:        c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Referer:   c.Get(fiber.HeaderReferer),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).SendString("Short URL not found")
		}
		h.logger.Error("failed to resolve short url", zap.Error(err), zap.String("code", code))
		return c.Status(fiber.StatusInternalServerError).SendString("Server Error")
	}

	h.logger.Debug("redirecting short link", zap.String("code", code), zap.String("target", longURL))
	return c.Redirect(longURL, fiber.StatusFound)
}
