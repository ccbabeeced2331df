package handler

import (
	"log/slog"

	"go-vetpos/internal/model"
	"go-vetpos/internal/service"

	"github.com/gofiber/fiber/v2"
)

type PurchaseHandler struct {
	purchases service.PurchaseService
	replenish service.ReplenishService
	log       *slog.Logger
}

func NewPurchaseHandler(p service.PurchaseService, r service.ReplenishService, log *slog.Logger) *PurchaseHandler {
	return &PurchaseHandler{purchases: p, replenish: r, log: log}
}

// RecordPurchase
// POST /api/v1/purchases
func (h *PurchaseHandler) RecordPurchase(c *fiber.Ctx) error {
	var req service.PurchaseInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	result, err := h.purchases.RecordPurchase(c.UserContext(), actor(c), req)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Purchase recorded", "data": result})
}

// ReceivePurchase marks a requested purchase as received
// POST /api/v1/purchases/:id/receive
func (h *PurchaseHandler) ReceivePurchase(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid purchase ID"})
	}
	result, err := h.purchases.ReceivePurchase(c.UserContext(), actor(c), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(result)
}

// GetPurchases
// Query params: supplier_id, status
func (h *PurchaseHandler) GetPurchases(c *fiber.Ctx) error {
	supplierID, err := optionalUUID(c.Query("supplier_id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid supplier_id"})
	}
	filter := model.PurchaseFilter{
		SupplierID: supplierID,
		Status:     model.PurchaseStatus(c.Query("status")),
	}
	purchases, err := h.purchases.ListPurchases(c.UserContext(), filter)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(purchases)
}

func (h *PurchaseHandler) GetPurchase(c *fiber.Ctx) error {
	id, err := parseUUID(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid purchase ID"})
	}
	purchase, err := h.purchases.GetPurchase(c.UserContext(), id)
	if err != nil {
		return fail(c, h.log, err)
	}
	return c.JSON(purchase)
}

// RunAutoReplenish creates a requested purchase for every low-stock product
// POST /api/v1/replenish?supplier_id=
func (h *PurchaseHandler) RunAutoReplenish(c *fiber.Ctx) error {
	supplierID, err := optionalUUID(c.Query("supplier_id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid supplier_id"})
	}
	result, err := h.replenish.RunAutoReplenish(c.UserContext(), actor(c), supplierID)
	if err != nil {
		return fail(c, h.log, err)
	}
	if result.Created {
		return c.Status(201).JSON(result)
	}
	return c.JSON(result)
}
