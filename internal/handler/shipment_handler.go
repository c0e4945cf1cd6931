package handler

import (
	"go-gearbox-mes/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ShipmentHandler struct {
	shipmentService service.ShipmentService
}

func NewShipmentHandler(shipmentService service.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipmentService: shipmentService}
}

// CreateShipment creates a batch and ships every listed unit atomically
// POST /api/v1/shipments
func (h *ShipmentHandler) CreateShipment(c *fiber.Ctx) error {
	var req service.CreateShipmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	batch, err := h.shipmentService.CreateShipment(req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Shipment created successfully",
		"data":    batch,
	})
}

// GetBatches returns all shipment batches, newest first
// GET /api/v1/shipments
func (h *ShipmentHandler) GetBatches(c *fiber.Ctx) error {
	batches, err := h.shipmentService.GetBatches()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(batches)
}

// GetBatch returns one shipment batch with its units
// GET /api/v1/shipments/:id
func (h *ShipmentHandler) GetBatch(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid batch ID"})
	}

	batch, err := h.shipmentService.GetBatch(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(batch)
}

// RecordAssembly records a vehicle assembly and installs the unit
// POST /api/v1/assemblies
func (h *ShipmentHandler) RecordAssembly(c *fiber.Ctx) error {
	var req service.RecordAssemblyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	assembly, err := h.shipmentService.RecordAssembly(req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Assembly recorded successfully",
		"data":    assembly,
	})
}
