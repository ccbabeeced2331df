package handler

import (
	"log/slog"

	"go-vetpos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
	log     *slog.Logger
}

func NewDashboardHandler(s service.DashboardService, log *slog.Logger) *DashboardHandler {
	return &DashboardHandler{service: s, log: log}
}

// GetSummary returns overview statistics
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.UserContext())
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(summary)
}

// GetMovement returns daily sales and stock movement for charts
// Query params: days (default 7)
func (h *DashboardHandler) GetMovement(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	data, err := h.service.Movement(c.UserContext(), days)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"period": len(data),
		"data":   data,
	})
}

// GetTopProducts
// Query params: limit (default 5)
func (h *DashboardHandler) GetTopProducts(c *fiber.Ctx) error {
	top, err := h.service.TopProducts(c.UserContext(), c.QueryInt("limit", 5))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(top)
}

// GetExpiring
// Query params: days (default 30)
func (h *DashboardHandler) GetExpiring(c *fiber.Ctx) error {
	products, err := h.service.Expiring(c.UserContext(), c.QueryInt("days", 30))
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(products)
}
