package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/shorty/internal/app/repository"
	"github.com/sifan077/shorty/internal/app/service"
	"go.uber.org/zap"
)

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger    *zap.Logger
	Shortener service.Shortener
	// BaseURL prefixes returned short URLs. Empty means the request's own
	// scheme and host.
	BaseURL string
}

// APIHandler implements the JSON API endpoints.
type APIHandler struct {
	logger    *zap.Logger
	shortener service.Shortener
	baseURL   string
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:    logger,
		shortener: deps.Shortener,
		baseURL:   strings.TrimRight(deps.BaseURL, "/"),
	}
}

// Register wires API routes onto the provided router.
func (h *APIHandler) Register(router fiber.Router, shortenMiddleware ...fiber.Handler) {
	api := router.Group("/api")
	{
		api.Post("/shorten", append(shortenMiddleware, h.Shorten)...)
		api.Get("/stats/:shortCode", h.Stats)
	}
}

// ShortenRequest represents the request body for creating a mapping.
type ShortenRequest struct {
	LongURL string `json:"longUrl"`
}

// ShortenResponse represents the response for creating a mapping.
type ShortenResponse struct {
	ShortURL string `json:"shortUrl"`
}

// Shorten handles POST /api/shorten
func (h *APIHandler) Shorten(c *fiber.Ctx) error {
	// Only JSON bodies are read; anything else carries no longUrl.
	var req ShortenRequest
	if c.Is("json") {
		if err := c.BodyParser(&req); err != nil {
			h.logger.Debug("unparseable shorten body", zap.Error(err))
			req = ShortenRequest{}
		}
	}

	mapping, err := h.shortener.Shorten(userContext(c), req.LongURL)
	if err != nil {
		if errors.Is(err, service.ErrLongURLRequired) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "longUrl is required",
			})
		}
		h.logger.Error("failed to shorten url", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to shorten URL",
		})
	}

	return c.JSON(ShortenResponse{
		ShortURL: h.publicBase(c) + "/" + mapping.ShortCode,
	})
}

// Stats handles GET /api/stats/:shortCode
func (h *APIHandler) Stats(c *fiber.Ctx) error {
	code := c.Params("shortCode")

	stats, err := h.shortener.Stats(userContext(c), code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Short URL not found",
			})
		}
		h.logger.Error("failed to load stats", zap.Error(err), zap.String("code", code))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load stats",
		})
	}

	return c.JSON(stats)
}

func (h *APIHandler) publicBase(c *fiber.Ctx) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	return c.BaseURL()
}

func userContext(c *fiber.Ctx) context.Context {
	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}
	return ctx
}
