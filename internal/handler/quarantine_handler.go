package handler

import (
	"go-gearbox-mes/internal/model"
	"go-gearbox-mes/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type QuarantineHandler struct {
	quarantineService service.QuarantineService
}

func NewQuarantineHandler(quarantineService service.QuarantineService) *QuarantineHandler {
	return &QuarantineHandler{quarantineService: quarantineService}
}

// GetItems returns quarantine items, optionally filtered by state
// GET /api/v1/quarantine?state=
func (h *QuarantineHandler) GetItems(c *fiber.Ctx) error {
	var state *model.QuarantineState
	if raw := c.Query("state"); raw != "" {
		s := model.QuarantineState(raw)
		state = &s
	}

	items, err := h.quarantineService.GetItems(state)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// GetItem returns one quarantine item
// GET /api/v1/quarantine/:id
func (h *QuarantineHandler) GetItem(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid quarantine ID"})
	}

	item, err := h.quarantineService.GetItem(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// Decide closes a quarantine item with a return or release disposition
// POST /api/v1/quarantine/:id/decide
func (h *QuarantineHandler) Decide(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid quarantine ID"})
	}

	var req service.DecideQuarantineRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	item, err := h.quarantineService.Decide(id, req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Quarantine item decided",
		"data":    item,
	})
}
