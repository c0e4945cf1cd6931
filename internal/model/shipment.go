package model

import (
	"time"

	"github.com/google/uuid"
)

// ShipmentBatch groups units leaving stock together. Membership in a batch
// is the guard for the in_stock -> shipped transition.
type ShipmentBatch struct {
	BaseModel
	BatchNo     string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"batch_no"`
	Destination string    `gorm:"type:varchar(255)" json:"destination"`
	ShippedAt   time.Time `gorm:"not null" json:"shipped_at"`
	Note        string    `gorm:"type:text" json:"note,omitempty"`

	Items []ShipmentItem `gorm:"foreignKey:BatchID" json:"items,omitempty"`
}

// ShipmentItem links one unit to a batch.
type ShipmentItem struct {
	BaseModel
	BatchID uuid.UUID `gorm:"type:uuid;not null;index" json:"batch_id"`
	UnitID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"unit_id"`
	Unit    *Unit     `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
}

// VehicleAssembly records that a shipped unit was built into a vehicle.
// Its existence is the guard for the shipped -> installed transition.
type VehicleAssembly struct {
	BaseModel
	UnitID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"unit_id" validate:"uuid_required"`
	Unit        *Unit     `gorm:"foreignKey:UnitID" json:"unit,omitempty" validate:"-"`
	VehicleNo   string    `gorm:"type:varchar(100);not null" json:"vehicle_no" validate:"required"`
	AssembledAt time.Time `gorm:"not null" json:"assembled_at"`
	Note        string    `gorm:"type:text" json:"note,omitempty"`
}
