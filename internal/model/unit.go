package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnitStatus is the lifecycle state of a manufactured gearbox.
type UnitStatus string

const (
	StatusProducing              UnitStatus = "producing"
	StatusPendingFinalInspection UnitStatus = "pending_final_inspection"
	StatusInStock                UnitStatus = "in_stock"
	StatusShipped                UnitStatus = "shipped"
	StatusInstalled              UnitStatus = "installed"
	StatusRevisionReturn         UnitStatus = "revision_return"
	StatusScrapped               UnitStatus = "scrapped"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s UnitStatus) IsTerminal() bool {
	return s == StatusInstalled || s == StatusScrapped
}

// Unit is a single manufactured gearbox. BomRevisionID is bound at creation
// and never changes, so consumption stays traceable against the exact
// revision the unit was built from even after later BOM activations.
type Unit struct {
	BaseModel
	SerialNo             string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"serial_no"`
	Model                string       `gorm:"type:varchar(50);not null;index" json:"model"`
	Status               UnitStatus   `gorm:"type:varchar(30);not null;index" json:"status"`
	BomRevisionID        uuid.UUID    `gorm:"type:uuid;not null" json:"bom_revision_id"`
	BomRevision          *BomRevision `gorm:"foreignKey:BomRevisionID" json:"bom_revision,omitempty"`
	PartsMappingComplete bool         `gorm:"default:false" json:"parts_mapping_complete"`
	Responsible          string       `gorm:"type:varchar(255)" json:"responsible"`
	ProducedAt           *time.Time   `json:"produced_at,omitempty"`

	Mappings []PartMapping `json:"mappings,omitempty"`
}

// PartMapping records consumption of a specific lot against a unit.
type PartMapping struct {
	BaseModel
	UnitID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"unit_id" validate:"uuid_required"`
	MaterialID uuid.UUID       `gorm:"type:uuid;not null;index" json:"material_id" validate:"uuid_required"`
	Material   *Material       `gorm:"foreignKey:MaterialID" json:"material,omitempty" validate:"-"`
	LotID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"lot_id" validate:"uuid_required"`
	Lot        *StockLot       `gorm:"foreignKey:LotID" json:"lot,omitempty" validate:"-"`
	Quantity   decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"quantity"`
}

// UnitStatusLog is the audit trail of lifecycle transitions. A scrap entry
// must record the prior state and the operator's reason.
type UnitStatusLog struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UnitID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"unit_id"`
	From      UnitStatus `gorm:"type:varchar(30);not null" json:"from"`
	To        UnitStatus `gorm:"type:varchar(30);not null" json:"to"`
	Reason    string     `gorm:"type:text" json:"reason"`
	Actor     string     `gorm:"type:varchar(255);not null" json:"actor"`
	CreatedAt time.Time  `json:"created_at"`
}

func (l *UnitStatusLog) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// SerialCounter backs serial-number allocation: one row per (date, model),
// incremented atomically so two concurrent unit creations never collide.
type SerialCounter struct {
	Date      string `gorm:"type:varchar(8);primaryKey" json:"date"` // YYYYMMDD
	Model     string `gorm:"type:varchar(50);primaryKey" json:"model"`
	LastValue int    `gorm:"not null" json:"last_value"`
}

// FormatSerial builds the serial number a unit is stamped with:
// model, production date and per-day sequence, e.g. "GX200-20260830-003".
func FormatSerial(model string, date time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", model, date.Format("20060102"), seq)
}
