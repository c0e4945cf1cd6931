package handler

import (
	"go-gearbox-mes/internal/model"
	"go-gearbox-mes/internal/report"
	"go-gearbox-mes/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type MaterialHandler struct {
	ledgerService service.LedgerService
	stockReporter *report.StockReporter
}

func NewMaterialHandler(ledgerService service.LedgerService, stockReporter *report.StockReporter) *MaterialHandler {
	return &MaterialHandler{ledgerService: ledgerService, stockReporter: stockReporter}
}

// CreateMaterial registers a new material master record
// POST /api/v1/materials
func (h *MaterialHandler) CreateMaterial(c *fiber.Ctx) error {
	var req model.Material
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	if err := h.ledgerService.CreateMaterial(&req, actorFrom(c)); err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Material created successfully",
		"data":    req,
	})
}

// GetMaterials returns all materials
// GET /api/v1/materials
func (h *MaterialHandler) GetMaterials(c *fiber.Ctx) error {
	materials, err := h.ledgerService.GetMaterials()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(materials)
}

// GetMaterial returns a single material by ID
// GET /api/v1/materials/:id
func (h *MaterialHandler) GetMaterial(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid material ID"})
	}

	material, err := h.ledgerService.GetMaterial(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(material)
}

// GetMaterialLots returns the lots of a material, oldest first
// GET /api/v1/materials/:id/lots
func (h *MaterialHandler) GetMaterialLots(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid material ID"})
	}

	lots, err := h.ledgerService.GetMaterialLots(id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(lots)
}

// ReceiveStock books a verified goods receipt into a new lot
// POST /api/v1/materials/receive
func (h *MaterialHandler) ReceiveStock(c *fiber.Ctx) error {
	var req service.ReceiveStockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	lot, err := h.ledgerService.ReceiveStock(req, actorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{
		"message": "Stock received successfully",
		"data":    lot,
	})
}

// GetMovements returns the movement journal, newest first
// GET /api/v1/movements?material_id=&limit=
func (h *MaterialHandler) GetMovements(c *fiber.Ctx) error {
	var materialID *uuid.UUID
	if raw := c.Query("material_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "Invalid material ID"})
		}
		materialID = &id
	}
	limit := c.QueryInt("limit", 100)

	movements, err := h.ledgerService.GetMovements(materialID, limit)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(movements)
}

// DownloadStockReport streams the stock position as an xlsx workbook
// GET /api/v1/reports/stock
func (h *MaterialHandler) DownloadStockReport(c *fiber.Ctx) error {
	data, err := h.stockReporter.Generate()
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+h.stockReporter.FileName()+`"`)
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(data)
}
