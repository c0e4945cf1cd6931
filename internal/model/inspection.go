package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MeasurementResult is the verdict for one measured characteristic, and by
// aggregation for a whole inspection.
type MeasurementResult string

const (
	ResultOK      MeasurementResult = "ok"
	ResultRet     MeasurementResult = "ret"
	ResultPending MeasurementResult = "pending"
)

// TargetType says what an inspection inspects.
type TargetType string

const (
	TargetUnit     TargetType = "UNIT"
	TargetMaterial TargetType = "MATERIAL"
)

// Inspection is one submitted inspection sheet against a control plan.
// While IsDraft is true the stored Overall is always pending and the
// inspection has no downstream effect on units or the ledger.
type Inspection struct {
	BaseModel
	PlanRevisionID uuid.UUID            `gorm:"type:uuid;not null;index" json:"plan_revision_id"`
	PlanRevision   *ControlPlanRevision `gorm:"foreignKey:PlanRevisionID" json:"plan_revision,omitempty"`
	TargetType     TargetType           `gorm:"type:varchar(10);not null" json:"target_type"`
	UnitID         *uuid.UUID           `gorm:"type:uuid;index" json:"unit_id,omitempty"`
	MaterialID     *uuid.UUID           `gorm:"type:uuid;index" json:"material_id,omitempty"`
	// Incoming-material context: identifiers of the inspected delivery and the
	// quantity that becomes a fresh lot on an ok verdict.
	SupplierID *uuid.UUID       `gorm:"type:uuid" json:"supplier_id,omitempty"`
	InvoiceNo  string           `gorm:"type:varchar(100)" json:"invoice_no,omitempty"`
	LotNo      string           `gorm:"type:varchar(100)" json:"lot_no,omitempty"`
	Quantity   *decimal.Decimal `gorm:"type:decimal(14,4)" json:"quantity,omitempty"`

	Overall MeasurementResult `gorm:"type:varchar(10);not null" json:"overall"`
	IsDraft bool              `gorm:"not null;default:true" json:"is_draft"`

	Measurements []Measurement `gorm:"foreignKey:InspectionID" json:"measurements,omitempty"`
}

// Measurement captures one measured value and its evaluated result. Numeric
// items use Value, textual items use TextValue; a nil/empty value leaves the
// item pending.
type Measurement struct {
	BaseModel
	InspectionID uuid.UUID         `gorm:"type:uuid;not null;index" json:"inspection_id"`
	PlanItemID   uuid.UUID         `gorm:"type:uuid;not null" json:"plan_item_id"`
	PlanItem     *ControlPlanItem  `gorm:"foreignKey:PlanItemID" json:"plan_item,omitempty"`
	Value        *decimal.Decimal  `gorm:"type:decimal(14,4)" json:"value,omitempty"`
	TextValue    *string           `gorm:"type:varchar(255)" json:"text_value,omitempty"`
	Result       MeasurementResult `gorm:"type:varchar(10);not null" json:"result"`
}

// Nonconformance is opened when a unit's final inspection finalizes ret.
type Nonconformance struct {
	BaseModel
	UnitID       uuid.UUID   `gorm:"type:uuid;not null;index" json:"unit_id"`
	Unit         *Unit       `gorm:"foreignKey:UnitID" json:"unit,omitempty"`
	InspectionID uuid.UUID   `gorm:"type:uuid;not null" json:"inspection_id"`
	Inspection   *Inspection `gorm:"foreignKey:InspectionID" json:"inspection,omitempty"`
	Description  string      `gorm:"type:text" json:"description"`
	IsOpen       bool        `gorm:"not null;default:true" json:"is_open"`
}
