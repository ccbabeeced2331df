package handler

import (
	"log/slog"
	"time"

	"go-vetpos/internal/model"
	"go-vetpos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type SalesHandler struct {
	service service.SalesService
	loc     *time.Location
	log     *slog.Logger
}

func NewSalesHandler(s service.SalesService, loc *time.Location, log *slog.Logger) *SalesHandler {
	return &SalesHandler{service: s, loc: loc, log: log}
}

// RecordSale
// POST /api/v1/sales
func (h *SalesHandler) RecordSale(c *fiber.Ctx) error {
	var req service.SaleInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := h.service.RecordSale(c.UserContext(), actor(c), req)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Sale recorded", "data": result})
}

// GetSales lists sales, newest first
// Query params: cashier_id, date (YYYY-MM-DD, store time zone).
// Cashiers only ever see their own sales.
func (h *SalesHandler) GetSales(c *fiber.Ctx) error {
	filter := model.SaleFilter{CashierID: c.Query("cashier_id")}
	if a := actor(c); a.Role == model.RoleCashier {
		filter.CashierID = a.ID
	}
	if raw := c.Query("date"); raw != "" {
		day, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid date, expected YYYY-MM-DD"})
		}
		filter.Date = &day
	}

	sales, err := h.service.ListSales(c.UserContext(), filter)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(sales)
}

func (h *SalesHandler) GetSale(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid sale ID"})
	}
	sale, err := h.service.GetSale(c.UserContext(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	if a := actor(c); a.Role == model.RoleCashier && sale.CashierID != a.ID {
		return c.Status(404).JSON(fiber.Map{"error": "not found: sale"})
	}
	return c.JSON(sale)
}
