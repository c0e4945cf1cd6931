package handler

import (
	"go-gearbox-mes/internal/model"
	"go-gearbox-mes/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UnitHandler struct {
	unitService      service.UnitService
	lifecycleService service.LifecycleService
}

func NewUnitHandler(unitService service.UnitService, lifecycleService service.LifecycleService) *UnitHandler {
	return &UnitHandler{unitService: unitService, lifecycleService: lifecycleService}
}

// CreateUnit starts production of one unit: serial assignment, BOM-wide
// stock allocation and part mapping happen atomically
// POST /api/v1/units
func (h *UnitHandler) CreateUnit(c *fiber.Ctx) error {
	var req service.CreateUnitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	unit, err := h.unitService.CreateUnit(req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Unit created successfully",
		"data":    unit,
	})
}

// GetUnits returns units, optionally filtered by status
// GET /api/v1/units?status=
func (h *UnitHandler) GetUnits(c *fiber.Ctx) error {
	var status *model.UnitStatus
	if raw := c.Query("status"); raw != "" {
		s := model.UnitStatus(raw)
		status = &s
	}

	units, err := h.unitService.GetUnits(status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(units)
}

// GetUnit returns a single unit with its BOM revision and part mappings
// GET /api/v1/units/:id
func (h *UnitHandler) GetUnit(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid unit ID"})
	}

	unit, err := h.unitService.GetUnit(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(unit)
}

// MapPart consumes a quantity from a specific lot and records it against
// the unit
// POST /api/v1/units/:id/mappings
func (h *UnitHandler) MapPart(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid unit ID"})
	}

	var req service.MapPartRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	req.UnitID = id

	mapping, err := h.unitService.MapPart(req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Part mapped successfully",
		"data":    mapping,
	})
}

// GetMappings returns the part mappings of a unit
// GET /api/v1/units/:id/mappings
func (h *UnitHandler) GetMappings(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid unit ID"})
	}

	mappings, err := h.unitService.GetMappings(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(mappings)
}

// Transition moves a unit through its lifecycle
// POST /api/v1/units/:id/transition
func (h *UnitHandler) Transition(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid unit ID"})
	}

	var req struct {
		To     model.UnitStatus `json:"to"`
		Reason string           `json:"reason,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	unit, err := h.lifecycleService.Transition(id, req.To, req.Reason, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Unit transitioned successfully",
		"data":    unit,
	})
}

// GetStatusLogs returns the append-only status history of a unit
// GET /api/v1/units/:id/logs
func (h *UnitHandler) GetStatusLogs(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid unit ID"})
	}

	logs, err := h.unitService.GetStatusLogs(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(logs)
}
