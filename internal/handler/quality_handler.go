package handler

import (
	"go-gearbox-mes/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type QualityHandler struct {
	qualityService service.QualityService
}

func NewQualityHandler(qualityService service.QualityService) *QualityHandler {
	return &QualityHandler{qualityService: qualityService}
}

// ActivateControlPlan registers and activates a control plan revision
// POST /api/v1/control-plans/activate
func (h *QualityHandler) ActivateControlPlan(c *fiber.Ctx) error {
	var req service.ActivateControlPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	rev, err := h.qualityService.ActivateControlPlan(req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Control plan activated",
		"data":    rev,
	})
}

// SubmitInspection submits a draft or finalized inspection sheet
// POST /api/v1/inspections
func (h *QualityHandler) SubmitInspection(c *fiber.Ctx) error {
	var req service.SubmitInspectionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	inspection, err := h.qualityService.SubmitInspection(req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Inspection submitted",
		"data":    inspection,
	})
}

// GetInspection returns one inspection with its measurements
// GET /api/v1/inspections/:id
func (h *QualityHandler) GetInspection(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid inspection ID"})
	}

	inspection, err := h.qualityService.GetInspection(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inspection)
}

// GetUnitInspections returns the inspection history of a unit
// GET /api/v1/units/:id/inspections
func (h *QualityHandler) GetUnitInspections(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid unit ID"})
	}

	inspections, err := h.qualityService.GetUnitInspections(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(inspections)
}
