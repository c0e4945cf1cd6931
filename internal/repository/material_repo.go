package repository

import (
	"time"

	"go-gearbox-mes/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MaterialRepository interface {
	Create(material *model.Material) error
	FindAll() ([]model.Material, error)
	FindByID(id uuid.UUID) (*model.Material, error)
	FindByCode(code string) (*model.Material, error)
	FindByIDs(ids []uuid.UUID) ([]model.Material, error)
	// LockByIDs loads and row-locks materials inside tx, ordered by id to
	// keep lock acquisition order stable across concurrent allocations.
	LockByIDs(tx *gorm.DB, ids []uuid.UUID) ([]model.Material, error)
	UpdateStock(tx *gorm.DB, id uuid.UUID, newStock decimal.Decimal, updatedBy string) error
	CountBelowMin() (int64, error)

	CreateLot(tx *gorm.DB, lot *model.StockLot) error
	FindLotByID(id uuid.UUID) (*model.StockLot, error)
	LockLot(tx *gorm.DB, id uuid.UUID) (*model.StockLot, error)
	// LockLotsFIFO row-locks a material's non-empty lots in
	// oldest-entry-date-first order for bulk allocation.
	LockLotsFIFO(tx *gorm.DB, materialID uuid.UUID) ([]model.StockLot, error)
	UpdateLotRemaining(tx *gorm.DB, id uuid.UUID, remaining decimal.Decimal) error
	FindLotsByMaterial(materialID uuid.UUID) ([]model.StockLot, error)

	CreateMovement(tx *gorm.DB, mv *model.StockMovement) error
	ListMovements(materialID *uuid.UUID, limit int) ([]model.StockMovement, error)
	GetMovementSeries(startDate, endDate time.Time) ([]MovementSeriesPoint, error)
}

// MovementSeriesPoint aggregates daily receive/consume totals for charts.
type MovementSeriesPoint struct {
	Date     string          `json:"date"`
	Received decimal.Decimal `json:"received"`
	Consumed decimal.Decimal `json:"consumed"`
}

type materialRepo struct {
	db *gorm.DB
}

func NewMaterialRepo(db *gorm.DB) MaterialRepository {
	return &materialRepo{db}
}

func (r *materialRepo) Create(material *model.Material) error {
	return r.db.Create(material).Error
}

func (r *materialRepo) FindAll() ([]model.Material, error) {
	var materials []model.Material
	err := r.db.Order("code ASC").Find(&materials).Error
	return materials, err
}

func (r *materialRepo) FindByID(id uuid.UUID) (*model.Material, error) {
	var material model.Material
	err := r.db.First(&material, "id = ?", id).Error
	return &material, err
}

func (r *materialRepo) FindByCode(code string) (*model.Material, error) {
	var material model.Material
	err := r.db.First(&material, "code = ?", code).Error
	return &material, err
}

func (r *materialRepo) FindByIDs(ids []uuid.UUID) ([]model.Material, error) {
	var materials []model.Material
	err := r.db.Where("id IN ?", ids).Find(&materials).Error
	return materials, err
}

func (r *materialRepo) LockByIDs(tx *gorm.DB, ids []uuid.UUID) ([]model.Material, error) {
	var materials []model.Material
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&materials).Error
	return materials, err
}

func (r *materialRepo) UpdateStock(tx *gorm.DB, id uuid.UUID, newStock decimal.Decimal, updatedBy string) error {
	return tx.Model(&model.Material{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"current_stock": newStock,
			"updated_by":    updatedBy,
		}).Error
}

func (r *materialRepo) CountBelowMin() (int64, error) {
	var count int64
	err := r.db.Model(&model.Material{}).
		Where("current_stock < min_stock").
		Count(&count).Error
	return count, err
}

func (r *materialRepo) CreateLot(tx *gorm.DB, lot *model.StockLot) error {
	return tx.Create(lot).Error
}

func (r *materialRepo) FindLotByID(id uuid.UUID) (*model.StockLot, error) {
	var lot model.StockLot
	err := r.db.Preload("Material").First(&lot, "id = ?", id).Error
	return &lot, err
}

func (r *materialRepo) LockLot(tx *gorm.DB, id uuid.UUID) (*model.StockLot, error) {
	var lot model.StockLot
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&lot, "id = ?", id).Error
	return &lot, err
}

func (r *materialRepo) LockLotsFIFO(tx *gorm.DB, materialID uuid.UUID) ([]model.StockLot, error) {
	var lots []model.StockLot
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("material_id = ? AND remaining > 0", materialID).
		Order("entry_date ASC, created_at ASC").
		Find(&lots).Error
	return lots, err
}

func (r *materialRepo) UpdateLotRemaining(tx *gorm.DB, id uuid.UUID, remaining decimal.Decimal) error {
	return tx.Model(&model.StockLot{}).
		Where("id = ?", id).
		Update("remaining", remaining).Error
}

func (r *materialRepo) FindLotsByMaterial(materialID uuid.UUID) ([]model.StockLot, error) {
	var lots []model.StockLot
	err := r.db.Where("material_id = ?", materialID).
		Order("entry_date ASC").
		Find(&lots).Error
	return lots, err
}

func (r *materialRepo) CreateMovement(tx *gorm.DB, mv *model.StockMovement) error {
	return tx.Create(mv).Error
}

func (r *materialRepo) ListMovements(materialID *uuid.UUID, limit int) ([]model.StockMovement, error) {
	q := r.db.Preload("Material").Order("created_at DESC")
	if materialID != nil {
		q = q.Where("material_id = ?", *materialID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var movements []model.StockMovement
	err := q.Find(&movements).Error
	return movements, err
}

func (r *materialRepo) GetMovementSeries(startDate, endDate time.Time) ([]MovementSeriesPoint, error) {
	var results []MovementSeriesPoint

	rows, err := r.db.Model(&model.StockMovement{}).
		Select(`
			DATE(created_at) as date,
			COALESCE(SUM(CASE WHEN type = 'RECEIVE' THEN quantity ELSE 0 END), 0) as received,
			COALESCE(SUM(CASE WHEN type = 'CONSUME' THEN quantity ELSE 0 END), 0) as consumed
		`).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Group("DATE(created_at)").
		Order("date ASC").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var point MovementSeriesPoint
		if err := rows.Scan(&point.Date, &point.Received, &point.Consumed); err != nil {
			return nil, err
		}
		results = append(results, point)
	}

	return results, nil
}
