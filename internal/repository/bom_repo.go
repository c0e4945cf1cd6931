package repository

import (
	"errors"

	"go-gearbox-mes/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BomRepository interface {
	// GetActive returns the active revision with items, or gorm.ErrRecordNotFound.
	GetActive(modelCode string) (*model.BomRevision, error)
	FindByID(id uuid.UUID) (*model.BomRevision, error)
	ListByModel(modelCode string) ([]model.BomRevision, error)
	// ActivateRevision deactivates the current active revision of the model
	// (if any) and inserts rev with revision_no = max(existing)+1, all inside
	// the given transaction. The model's revision rows are locked first so
	// two concurrent activations serialize instead of both inserting.
	ActivateRevision(tx *gorm.DB, rev *model.BomRevision) error
}

type bomRepo struct {
	db *gorm.DB
}

func NewBomRepo(db *gorm.DB) BomRepository {
	return &bomRepo{db}
}

func (r *bomRepo) GetActive(modelCode string) (*model.BomRevision, error) {
	var rev model.BomRevision
	err := r.db.Preload("Items.Material").
		Where("model = ? AND is_active", modelCode).
		First(&rev).Error
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *bomRepo) FindByID(id uuid.UUID) (*model.BomRevision, error) {
	var rev model.BomRevision
	err := r.db.Preload("Items.Material").First(&rev, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *bomRepo) ListByModel(modelCode string) ([]model.BomRevision, error) {
	var revs []model.BomRevision
	err := r.db.Preload("Items").
		Where("model = ?", modelCode).
		Order("revision_no DESC").
		Find(&revs).Error
	return revs, err
}

func (r *bomRepo) ActivateRevision(tx *gorm.DB, rev *model.BomRevision) error {
	// Lock existing revisions of this model to serialize activations.
	var existing []model.BomRevision
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("model = ?", rev.Model).
		Find(&existing).Error; err != nil {
		return err
	}

	maxNo := 0
	for _, e := range existing {
		if e.RevisionNo > maxNo {
			maxNo = e.RevisionNo
		}
	}

	if err := tx.Model(&model.BomRevision{}).
		Where("model = ? AND is_active", rev.Model).
		Update("is_active", false).Error; err != nil {
		return err
	}

	rev.RevisionNo = maxNo + 1
	rev.IsActive = true
	if err := tx.Create(rev).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return gorm.ErrDuplicatedKey
		}
		return err
	}
	return nil
}
