package service

import (
	"time"

	"go-gearbox-mes/internal/model"
	"go-gearbox-mes/internal/repository"
)

type DashboardService interface {
	GetSummary() (*DashboardSummary, error)
	GetMovementSeries(days int) ([]repository.MovementSeriesPoint, error)
}

// DashboardSummary is the shop-floor overview: how many units sit in each
// lifecycle state, plus the alert counters the floor cares about.
type DashboardSummary struct {
	UnitsByStatus   map[model.UnitStatus]int64 `json:"units_by_status"`
	LowStockCount   int64                      `json:"low_stock_count"`
	OpenQuarantines int64                      `json:"open_quarantines"`
}

type dashboardService struct {
	unitRepo       repository.UnitRepository
	materialRepo   repository.MaterialRepository
	quarantineRepo repository.QuarantineRepository
}

func NewDashboardService(unitRepo repository.UnitRepository, materialRepo repository.MaterialRepository, quarantineRepo repository.QuarantineRepository) DashboardService {
	return &dashboardService{
		unitRepo:       unitRepo,
		materialRepo:   materialRepo,
		quarantineRepo: quarantineRepo,
	}
}

func (s *dashboardService) GetSummary() (*DashboardSummary, error) {
	byStatus, err := s.unitRepo.CountByStatus()
	if err != nil {
		return nil, err
	}
	lowStock, err := s.materialRepo.CountBelowMin()
	if err != nil {
		return nil, err
	}
	openQuarantines, err := s.quarantineRepo.CountOpen()
	if err != nil {
		return nil, err
	}
	return &DashboardSummary{
		UnitsByStatus:   byStatus,
		LowStockCount:   lowStock,
		OpenQuarantines: openQuarantines,
	}, nil
}

func (s *dashboardService) GetMovementSeries(days int) ([]repository.MovementSeriesPoint, error) {
	if days <= 0 {
		days = 30
	}
	end := time.Now()
	start := end.AddDate(0, 0, -days)
	return s.materialRepo.GetMovementSeries(start, end)
}
