package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/shorty/internal/http/view"
)

// PageHandler serves the browser client: the shorten form and the status page.
type PageHandler struct {
	index  string
	status string
}

// NewPageHandler renders both pages up front; they only depend on apiBase.
func NewPageHandler(apiBase string) (*PageHandler, error) {
	index, err := view.RenderIndexPage(view.PageData{APIBase: apiBase})
	if err != nil {
		return nil, fmt.Errorf("render index page: %w", err)
	}
	status, err := view.RenderStatusPage(view.PageData{APIBase: apiBase})
	if err != nil {
		return nil, fmt.Errorf("render status page: %w", err)
	}
	return &PageHandler{index: index, status: status}, nil
}

// Register wires page routes onto the provided router.
func (h *PageHandler) Register(router fiber.Router) {
	router.Get("/", h.Index)
	router.Get("/status", h.Status)
}

func (h *PageHandler) Index(c *fiber.Ctx) error {
	return c.Type("html", "utf-8").SendString(h.index)
}

func (h *PageHandler) Status(c *fiber.Ctx) error {
	return c.Type("html", "utf-8").SendString(h.status)
}
