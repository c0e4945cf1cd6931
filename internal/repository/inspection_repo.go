package repository

import (
	"go-gearbox-mes/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InspectionRepository interface {
	Create(tx *gorm.DB, inspection *model.Inspection) error
	Save(tx *gorm.DB, inspection *model.Inspection) error
	FindByID(id uuid.UUID) (*model.Inspection, error)
	// FindDraft returns the existing draft for the same target and plan, if
	// any, so a resubmitted draft replaces it instead of piling up.
	FindDraft(tx *gorm.DB, planRevisionID uuid.UUID, unitID, materialID *uuid.UUID) (*model.Inspection, error)
	DeleteMeasurements(tx *gorm.DB, inspectionID uuid.UUID) error
	// LatestFinalized returns the most recent non-draft inspection of a unit.
	LatestFinalized(tx *gorm.DB, unitID uuid.UUID) (*model.Inspection, error)
	ListByUnit(unitID uuid.UUID) ([]model.Inspection, error)
	CreateNonconformance(tx *gorm.DB, nc *model.Nonconformance) error
}

type inspectionRepo struct {
	db *gorm.DB
}

func NewInspectionRepo(db *gorm.DB) InspectionRepository {
	return &inspectionRepo{db}
}

func (r *inspectionRepo) Create(tx *gorm.DB, inspection *model.Inspection) error {
	return tx.Create(inspection).Error
}

func (r *inspectionRepo) Save(tx *gorm.DB, inspection *model.Inspection) error {
	return tx.Session(&gorm.Session{FullSaveAssociations: true}).Save(inspection).Error
}

func (r *inspectionRepo) FindByID(id uuid.UUID) (*model.Inspection, error) {
	var inspection model.Inspection
	err := r.db.Preload("Measurements.PlanItem").
		Preload("PlanRevision").
		First(&inspection, "id = ?", id).Error
	return &inspection, err
}

func (r *inspectionRepo) FindDraft(tx *gorm.DB, planRevisionID uuid.UUID, unitID, materialID *uuid.UUID) (*model.Inspection, error) {
	q := tx.Where("plan_revision_id = ? AND is_draft", planRevisionID)
	if unitID != nil {
		q = q.Where("unit_id = ?", *unitID)
	}
	if materialID != nil {
		q = q.Where("material_id = ?", *materialID)
	}
	var inspection model.Inspection
	if err := q.First(&inspection).Error; err != nil {
		return nil, err
	}
	return &inspection, nil
}

func (r *inspectionRepo) DeleteMeasurements(tx *gorm.DB, inspectionID uuid.UUID) error {
	return tx.Unscoped().
		Where("inspection_id = ?", inspectionID).
		Delete(&model.Measurement{}).Error
}

func (r *inspectionRepo) LatestFinalized(tx *gorm.DB, unitID uuid.UUID) (*model.Inspection, error) {
	var inspection model.Inspection
	err := tx.Where("unit_id = ? AND NOT is_draft", unitID).
		Order("updated_at DESC").
		First(&inspection).Error
	if err != nil {
		return nil, err
	}
	return &inspection, nil
}

func (r *inspectionRepo) ListByUnit(unitID uuid.UUID) ([]model.Inspection, error) {
	var inspections []model.Inspection
	err := r.db.Preload("Measurements.PlanItem").
		Where("unit_id = ?", unitID).
		Order("created_at DESC").
		Find(&inspections).Error
	return inspections, err
}

func (r *inspectionRepo) CreateNonconformance(tx *gorm.DB, nc *model.Nonconformance) error {
	return tx.Create(nc).Error
}
