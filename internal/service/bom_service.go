package service

import (
	"errors"
	"fmt"

	"go-gearbox-mes/internal/apperr"
	"go-gearbox-mes/internal/model"
	"go-gearbox-mes/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BomService manages versioned bills of material: strictly increasing
// revision numbers, exactly one active revision per model.
type BomService interface {
	ActivateRevision(modelCode string, items []BomItemRequest, actor string) (*model.BomRevision, error)
	GetActive(modelCode string) (*model.BomRevision, error)
	ListRevisions(modelCode string) ([]model.BomRevision, error)
}

type BomItemRequest struct {
	MaterialID uuid.UUID       `json:"material_id"`
	QtyPerUnit decimal.Decimal `json:"qty_per_unit"`
	IsCritical bool            `json:"is_critical"`
}

type bomService struct {
	bomRepo      repository.BomRepository
	materialRepo repository.MaterialRepository
	db           txRunner
}

func NewBomService(bomRepo repository.BomRepository, materialRepo repository.MaterialRepository, db *gorm.DB) BomService {
	return &bomService{
		bomRepo:      bomRepo,
		materialRepo: materialRepo,
		db:           db,
	}
}

func (s *bomService) ActivateRevision(modelCode string, items []BomItemRequest, actor string) (*model.BomRevision, error) {
	if modelCode == "" {
		return nil, apperr.Validation("model", "must not be empty")
	}
	if len(items) == 0 {
		return nil, apperr.Validation("items", "a revision needs at least one item")
	}

	seen := make(map[uuid.UUID]bool, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for i, item := range items {
		if item.QtyPerUnit.Sign() <= 0 {
			return nil, apperr.Validation(fmt.Sprintf("items[%d].qty_per_unit", i), "must be positive")
		}
		if seen[item.MaterialID] {
			return nil, apperr.Validation(fmt.Sprintf("items[%d].material_id", i), "duplicate material")
		}
		seen[item.MaterialID] = true
		ids = append(ids, item.MaterialID)
	}

	mats, err := s.materialRepo.FindByIDs(ids)
	if err != nil {
		return nil, err
	}
	if len(mats) != len(ids) {
		known := make(map[uuid.UUID]bool, len(mats))
		for _, m := range mats {
			known[m.ID] = true
		}
		for _, id := range ids {
			if !known[id] {
				return nil, apperr.NotFound("material", id.String())
			}
		}
	}

	rev := &model.BomRevision{Model: modelCode}
	rev.CreatedBy = actor
	rev.UpdatedBy = actor
	for _, item := range items {
		bi := model.BomItem{
			MaterialID: item.MaterialID,
			QtyPerUnit: item.QtyPerUnit,
			IsCritical: item.IsCritical,
		}
		bi.CreatedBy = actor
		bi.UpdatedBy = actor
		rev.Items = append(rev.Items, bi)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return s.bomRepo.ActivateRevision(tx, rev)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &apperr.ConcurrencyConflictError{Op: "BOM revision activation"}
		}
		return nil, err
	}
	return rev, nil
}

func (s *bomService) GetActive(modelCode string) (*model.BomRevision, error) {
	rev, err := s.bomRepo.GetActive(modelCode)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("active BOM revision", modelCode)
	}
	return rev, err
}

func (s *bomService) ListRevisions(modelCode string) ([]model.BomRevision, error) {
	return s.bomRepo.ListByModel(modelCode)
}
