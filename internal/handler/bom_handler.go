package handler

import (
	"go-gearbox-mes/internal/service"

	"github.com/gofiber/fiber/v2"
)

type BomHandler struct {
	bomService      service.BomService
	capacityService service.CapacityService
}

func NewBomHandler(bomService service.BomService, capacityService service.CapacityService) *BomHandler {
	return &BomHandler{bomService: bomService, capacityService: capacityService}
}

// ActivateRevision registers and activates a new BOM revision for a model
// POST /api/v1/bom/:model/activate
func (h *BomHandler) ActivateRevision(c *fiber.Ctx) error {
	var req struct {
		Items []service.BomItemRequest `json:"items"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	rev, err := h.bomService.ActivateRevision(c.Params("model"), req.Items, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "BOM revision activated",
		"data":    rev,
	})
}

// GetActive returns the active BOM revision of a model
// GET /api/v1/bom/:model/active
func (h *BomHandler) GetActive(c *fiber.Ctx) error {
	rev, err := h.bomService.GetActive(c.Params("model"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(rev)
}

// ListRevisions returns all BOM revisions of a model, newest first
// GET /api/v1/bom/:model/revisions
func (h *BomHandler) ListRevisions(c *fiber.Ctx) error {
	revs, err := h.bomService.ListRevisions(c.Params("model"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(revs)
}

// GetCapacity returns how many units of a model current stock supports
// GET /api/v1/capacity/:model
func (h *BomHandler) GetCapacity(c *fiber.Ctx) error {
	reportData, err := h.capacityService.GetCapacity(c.Params("model"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(reportData)
}

// GetProcurementNeeds returns per-material purchase quantities to reach the
// target stock plus an optional number of extra units
// GET /api/v1/capacity/:model/procurement?extra_units=
func (h *BomHandler) GetProcurementNeeds(c *fiber.Ctx) error {
	extra := c.QueryInt("extra_units", 0)

	lines, err := h.capacityService.GetProcurementNeeds(c.Params("model"), int64(extra))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(lines)
}
