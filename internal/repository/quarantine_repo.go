package repository

import (
	"go-gearbox-mes/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuarantineRepository interface {
	Create(tx *gorm.DB, item *model.QuarantineItem) error
	FindByID(id uuid.UUID) (*model.QuarantineItem, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.QuarantineItem, error)
	Save(tx *gorm.DB, item *model.QuarantineItem) error
	FindAll(state *model.QuarantineState) ([]model.QuarantineItem, error)
	CountOpen() (int64, error)
}

type quarantineRepo struct {
	db *gorm.DB
}

func NewQuarantineRepo(db *gorm.DB) QuarantineRepository {
	return &quarantineRepo{db}
}

func (r *quarantineRepo) Create(tx *gorm.DB, item *model.QuarantineItem) error {
	return tx.Create(item).Error
}

func (r *quarantineRepo) FindByID(id uuid.UUID) (*model.QuarantineItem, error) {
	var item model.QuarantineItem
	err := r.db.Preload("Material").First(&item, "id = ?", id).Error
	return &item, err
}

func (r *quarantineRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.QuarantineItem, error) {
	var item model.QuarantineItem
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&item, "id = ?", id).Error
	return &item, err
}

func (r *quarantineRepo) Save(tx *gorm.DB, item *model.QuarantineItem) error {
	return tx.Save(item).Error
}

func (r *quarantineRepo) FindAll(state *model.QuarantineState) ([]model.QuarantineItem, error) {
	q := r.db.Preload("Material").Order("created_at DESC")
	if state != nil {
		q = q.Where("state = ?", *state)
	}
	var items []model.QuarantineItem
	err := q.Find(&items).Error
	return items, err
}

func (r *quarantineRepo) CountOpen() (int64, error) {
	var count int64
	err := r.db.Model(&model.QuarantineItem{}).
		Where("state = ?", model.QuarantineOpen).
		Count(&count).Error
	return count, err
}
