package repository

import (
	"go-gearbox-mes/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ControlPlanRepository interface {
	GetActiveForModel(modelCode string) (*model.ControlPlanRevision, error)
	GetActiveForMaterial(materialID uuid.UUID) (*model.ControlPlanRevision, error)
	FindByID(id uuid.UUID) (*model.ControlPlanRevision, error)
	// ActivateRevision mirrors BomRepository.ActivateRevision for plans:
	// deactivate-then-insert under row locks in one transaction.
	ActivateRevision(tx *gorm.DB, rev *model.ControlPlanRevision) error
}

type controlPlanRepo struct {
	db *gorm.DB
}

func NewControlPlanRepo(db *gorm.DB) ControlPlanRepository {
	return &controlPlanRepo{db}
}

func (r *controlPlanRepo) GetActiveForModel(modelCode string) (*model.ControlPlanRevision, error) {
	var rev model.ControlPlanRevision
	err := r.db.Preload("Items").
		Where("scope = ? AND model = ? AND is_active", model.PlanScopeModel, modelCode).
		First(&rev).Error
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *controlPlanRepo) GetActiveForMaterial(materialID uuid.UUID) (*model.ControlPlanRevision, error) {
	var rev model.ControlPlanRevision
	err := r.db.Preload("Items").
		Where("scope = ? AND material_id = ? AND is_active", model.PlanScopeMaterial, materialID).
		First(&rev).Error
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *controlPlanRepo) FindByID(id uuid.UUID) (*model.ControlPlanRevision, error) {
	var rev model.ControlPlanRevision
	err := r.db.Preload("Items").First(&rev, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *controlPlanRepo) ActivateRevision(tx *gorm.DB, rev *model.ControlPlanRevision) error {
	scopeFilter := func(q *gorm.DB) *gorm.DB {
		if rev.Scope == model.PlanScopeModel {
			return q.Where("scope = ? AND model = ?", model.PlanScopeModel, rev.Model)
		}
		return q.Where("scope = ? AND material_id = ?", model.PlanScopeMaterial, rev.MaterialID)
	}

	var existing []model.ControlPlanRevision
	if err := scopeFilter(tx.Clauses(clause.Locking{Strength: "UPDATE"})).
		Find(&existing).Error; err != nil {
		return err
	}

	maxNo := 0
	for _, e := range existing {
		if e.RevisionNo > maxNo {
			maxNo = e.RevisionNo
		}
	}

	if err := scopeFilter(tx.Model(&model.ControlPlanRevision{})).
		Where("is_active").
		Update("is_active", false).Error; err != nil {
		return err
	}

	rev.RevisionNo = maxNo + 1
	rev.IsActive = true
	return tx.Create(rev).Error
}
