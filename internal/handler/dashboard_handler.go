package handler

import (
	"go-gearbox-mes/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
}

func NewDashboardHandler(dashboardService service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetSummary returns the shop-floor overview counters
// GET /api/v1/dashboard/summary
func (h *DashboardHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.dashboardService.GetSummary()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// GetMovementSeries returns daily receive/consume totals for charts
// GET /api/v1/dashboard/movements?days=
func (h *DashboardHandler) GetMovementSeries(c *fiber.Ctx) error {
	days := c.QueryInt("days", 30)

	series, err := h.dashboardService.GetMovementSeries(days)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(series)
}
