package repository

import (
	"go-gearbox-mes/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShipmentRepository interface {
	CreateBatch(tx *gorm.DB, batch *model.ShipmentBatch) error
	FindBatchByID(id uuid.UUID) (*model.ShipmentBatch, error)
	ListBatches() ([]model.ShipmentBatch, error)
	// UnitInBatch reports whether the unit belongs to any shipment batch;
	// this is the guard input for in_stock -> shipped.
	UnitInBatch(tx *gorm.DB, unitID uuid.UUID) (bool, error)

	CreateAssembly(tx *gorm.DB, assembly *model.VehicleAssembly) error
	// HasAssembly reports whether a vehicle-assembly record exists for the
	// unit; this is the guard input for shipped -> installed.
	HasAssembly(tx *gorm.DB, unitID uuid.UUID) (bool, error)
}

type shipmentRepo struct {
	db *gorm.DB
}

func NewShipmentRepo(db *gorm.DB) ShipmentRepository {
	return &shipmentRepo{db}
}

func (r *shipmentRepo) CreateBatch(tx *gorm.DB, batch *model.ShipmentBatch) error {
	return tx.Create(batch).Error
}

func (r *shipmentRepo) FindBatchByID(id uuid.UUID) (*model.ShipmentBatch, error) {
	var batch model.ShipmentBatch
	err := r.db.Preload("Items.Unit").First(&batch, "id = ?", id).Error
	return &batch, err
}

func (r *shipmentRepo) ListBatches() ([]model.ShipmentBatch, error) {
	var batches []model.ShipmentBatch
	err := r.db.Preload("Items").Order("shipped_at DESC").Find(&batches).Error
	return batches, err
}

func (r *shipmentRepo) UnitInBatch(tx *gorm.DB, unitID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&model.ShipmentItem{}).
		Where("unit_id = ?", unitID).
		Count(&count).Error
	return count > 0, err
}

func (r *shipmentRepo) CreateAssembly(tx *gorm.DB, assembly *model.VehicleAssembly) error {
	return tx.Create(assembly).Error
}

func (r *shipmentRepo) HasAssembly(tx *gorm.DB, unitID uuid.UUID) (bool, error) {
	var count int64
	err := tx.Model(&model.VehicleAssembly{}).
		Where("unit_id = ?", unitID).
		Count(&count).Error
	return count > 0, err
}
