package repository

import (
	"go-gearbox-mes/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UnitRepository interface {
	Create(tx *gorm.DB, unit *model.Unit) error
	FindByID(id uuid.UUID) (*model.Unit, error)
	FindBySerial(serial string) (*model.Unit, error)
	LockByID(tx *gorm.DB, id uuid.UUID) (*model.Unit, error)
	FindAll(status *model.UnitStatus) ([]model.Unit, error)
	UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.UnitStatus, updatedBy string) error
	Save(tx *gorm.DB, unit *model.Unit) error
	CountByStatus() (map[model.UnitStatus]int64, error)

	// NextSerial atomically increments the per-(date, model) counter and
	// returns the new sequence. Runs on the caller's transaction so the
	// serial allocation commits or rolls back with the unit itself.
	NextSerial(tx *gorm.DB, date, modelCode string) (int, error)

	CreateMapping(tx *gorm.DB, mapping *model.PartMapping) error
	FindMappings(unitID uuid.UUID) ([]model.PartMapping, error)
	// SumMappedByMaterial returns total mapped quantity per material for a unit.
	SumMappedByMaterial(tx *gorm.DB, unitID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)

	CreateStatusLog(tx *gorm.DB, log *model.UnitStatusLog) error
	ListStatusLogs(unitID uuid.UUID) ([]model.UnitStatusLog, error)
}

type unitRepo struct {
	db *gorm.DB
}

func NewUnitRepo(db *gorm.DB) UnitRepository {
	return &unitRepo{db}
}

func (r *unitRepo) Create(tx *gorm.DB, unit *model.Unit) error {
	return tx.Create(unit).Error
}

func (r *unitRepo) FindByID(id uuid.UUID) (*model.Unit, error) {
	var unit model.Unit
	err := r.db.Preload("BomRevision.Items.Material").
		Preload("Mappings.Material").
		Preload("Mappings.Lot").
		First(&unit, "id = ?", id).Error
	return &unit, err
}

func (r *unitRepo) FindBySerial(serial string) (*model.Unit, error) {
	var unit model.Unit
	err := r.db.First(&unit, "serial_no = ?", serial).Error
	return &unit, err
}

func (r *unitRepo) LockByID(tx *gorm.DB, id uuid.UUID) (*model.Unit, error) {
	var unit model.Unit
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&unit, "id = ?", id).Error
	return &unit, err
}

func (r *unitRepo) FindAll(status *model.UnitStatus) ([]model.Unit, error) {
	q := r.db.Order("created_at DESC")
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var units []model.Unit
	err := q.Find(&units).Error
	return units, err
}

func (r *unitRepo) UpdateStatus(tx *gorm.DB, id uuid.UUID, status model.UnitStatus, updatedBy string) error {
	return tx.Model(&model.Unit{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_by": updatedBy,
		}).Error
}

func (r *unitRepo) Save(tx *gorm.DB, unit *model.Unit) error {
	return tx.Save(unit).Error
}

func (r *unitRepo) CountByStatus() (map[model.UnitStatus]int64, error) {
	type row struct {
		Status model.UnitStatus
		Count  int64
	}
	var rows []row
	err := r.db.Model(&model.Unit{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[model.UnitStatus]int64, len(rows))
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}

func (r *unitRepo) NextSerial(tx *gorm.DB, date, modelCode string) (int, error) {
	var next int
	err := tx.Raw(`
		INSERT INTO serial_counters (date, model, last_value)
		VALUES (?, ?, 1)
		ON CONFLICT (date, model)
		DO UPDATE SET last_value = serial_counters.last_value + 1
		RETURNING last_value
	`, date, modelCode).Scan(&next).Error
	return next, err
}

func (r *unitRepo) CreateMapping(tx *gorm.DB, mapping *model.PartMapping) error {
	return tx.Create(mapping).Error
}

func (r *unitRepo) FindMappings(unitID uuid.UUID) ([]model.PartMapping, error) {
	var mappings []model.PartMapping
	err := r.db.Preload("Material").Preload("Lot").
		Where("unit_id = ?", unitID).
		Order("created_at ASC").
		Find(&mappings).Error
	return mappings, err
}

func (r *unitRepo) SumMappedByMaterial(tx *gorm.DB, unitID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	type row struct {
		MaterialID uuid.UUID
		Total      decimal.Decimal
	}
	var rows []row
	err := tx.Model(&model.PartMapping{}).
		Select("material_id, COALESCE(SUM(quantity), 0) as total").
		Where("unit_id = ?", unitID).
		Group("material_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	sums := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, rw := range rows {
		sums[rw.MaterialID] = rw.Total
	}
	return sums, nil
}

func (r *unitRepo) CreateStatusLog(tx *gorm.DB, log *model.UnitStatusLog) error {
	return tx.Create(log).Error
}

func (r *unitRepo) ListStatusLogs(unitID uuid.UUID) ([]model.UnitStatusLog, error) {
	var logs []model.UnitStatusLog
	err := r.db.Where("unit_id = ?", unitID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
