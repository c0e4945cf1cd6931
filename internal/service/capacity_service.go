package service

import (
	"errors"

	"go-gearbox-mes/internal/apperr"
	"go-gearbox-mes/internal/model"
	"go-gearbox-mes/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CapacityService answers "how many units can we build" and "what do we need
// to buy to build N more". Both are UI pre-flight hints; the authoritative
// check happens inside CreateUnit's transaction.
type CapacityService interface {
	GetCapacity(modelCode string) (*CapacityReport, error)
	GetProcurementNeeds(modelCode string, extraUnits int64) ([]ProcurementLine, error)
}

type capacityService struct {
	bomRepo      repository.BomRepository
	materialRepo repository.MaterialRepository
}

func NewCapacityService(bomRepo repository.BomRepository, materialRepo repository.MaterialRepository) CapacityService {
	return &capacityService{
		bomRepo:      bomRepo,
		materialRepo: materialRepo,
	}
}

func (s *capacityService) loadActiveBom(modelCode string) ([]model.BomItem, map[uuid.UUID]model.Material, error) {
	rev, err := s.bomRepo.GetActive(modelCode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	ids := make([]uuid.UUID, 0, len(rev.Items))
	for _, item := range rev.Items {
		ids = append(ids, item.MaterialID)
	}
	mats, err := s.materialRepo.FindByIDs(ids)
	if err != nil {
		return nil, nil, err
	}
	stockByID := make(map[uuid.UUID]model.Material, len(mats))
	for _, m := range mats {
		stockByID[m.ID] = m
	}
	return rev.Items, stockByID, nil
}

func (s *capacityService) GetCapacity(modelCode string) (*CapacityReport, error) {
	if modelCode == "" {
		return nil, apperr.Validation("model", "must not be empty")
	}
	items, stockByID, err := s.loadActiveBom(modelCode)
	if err != nil {
		return nil, err
	}
	report := ComputeCapacity(modelCode, items, stockByID)
	return &report, nil
}

func (s *capacityService) GetProcurementNeeds(modelCode string, extraUnits int64) ([]ProcurementLine, error) {
	if extraUnits < 0 {
		return nil, apperr.Validation("extra_units", "must not be negative")
	}
	items, stockByID, err := s.loadActiveBom(modelCode)
	if err != nil {
		return nil, err
	}
	report := ComputeCapacity(modelCode, items, stockByID)
	return ComputeProcurementNeeds(items, stockByID, report.MaxUnits, extraUnits), nil
}
