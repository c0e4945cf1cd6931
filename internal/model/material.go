package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Material represents a raw material consumed in gearbox production.
// CurrentStock is the aggregate of all lot remaining quantities; the ledger
// keeps the two in sync inside every mutating transaction.
type Material struct {
	BaseModel
	Code         string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code" validate:"required"`
	Name         string          `gorm:"type:varchar(255);not null" json:"name" validate:"required"`
	Category     string          `gorm:"type:varchar(100)" json:"category"`
	Unit         string          `gorm:"type:varchar(20)" json:"unit"`
	CurrentStock decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"current_stock"`
	MinStock     decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"min_stock"`
	TargetStock  decimal.Decimal `gorm:"type:decimal(14,4);not null;default:0" json:"target_stock"`
	IsCritical   bool            `gorm:"default:false" json:"is_critical"`

	Lots []StockLot `json:"lots,omitempty"`
}

// StockLot is a traceable batch of received material. Lots are never deleted
// and Remaining is only ever decremented; a quarantine release produces a
// brand-new lot instead of restoring this one.
type StockLot struct {
	BaseModel
	MaterialID uuid.UUID       `gorm:"type:uuid;not null;index" json:"material_id" validate:"uuid_required"`
	Material   *Material       `gorm:"foreignKey:MaterialID" json:"material,omitempty" validate:"-"`
	SupplierID *uuid.UUID      `gorm:"type:uuid" json:"supplier_id,omitempty"`
	InvoiceNo  string          `gorm:"type:varchar(100)" json:"invoice_no"`
	LotNo      string          `gorm:"type:varchar(100);index" json:"lot_no"`
	Quantity   decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"quantity"`
	Remaining  decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"remaining"`
	EntryDate  time.Time       `gorm:"not null;index" json:"entry_date"`
}

type MovementType string

const (
	MovementReceive MovementType = "RECEIVE"
	MovementConsume MovementType = "CONSUME"
)

// StockMovement is the immutable ledger journal. One row is appended for
// every Receive and every Consume; rows are never updated or deleted.
type StockMovement struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	Type       MovementType    `gorm:"type:varchar(10);not null;index" json:"type"`
	MaterialID uuid.UUID       `gorm:"type:uuid;not null;index" json:"material_id"`
	Material   *Material       `gorm:"foreignKey:MaterialID" json:"material,omitempty"`
	LotID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"lot_id"`
	Quantity   decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"quantity"`
	Actor      string          `gorm:"type:varchar(255);not null" json:"actor"`
	Reference  string          `gorm:"type:varchar(255)" json:"reference"` // e.g. unit serial, quarantine id
	CreatedAt  time.Time       `json:"created_at"`
}

func (m *StockMovement) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
