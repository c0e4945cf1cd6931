package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuarantineState is the disposition of rejected material.
type QuarantineState string

const (
	QuarantineOpen     QuarantineState = "quarantined"
	QuarantineReturned QuarantineState = "returned"
	QuarantineReleased QuarantineState = "released"
)

// QuarantineItem holds rejected material pending a return-or-release
// decision. A release never reopens the rejected lot; it receives the
// quarantined quantity into a brand-new lot with fresh traceability identity.
type QuarantineItem struct {
	BaseModel
	MaterialID uuid.UUID       `gorm:"type:uuid;not null;index" json:"material_id"`
	Material   *Material       `gorm:"foreignKey:MaterialID" json:"material,omitempty"`
	SupplierID *uuid.UUID      `gorm:"type:uuid" json:"supplier_id,omitempty"`
	InvoiceNo  string          `gorm:"type:varchar(100)" json:"invoice_no"`
	LotNo      string          `gorm:"type:varchar(100)" json:"lot_no"`
	Quantity   decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"quantity"`
	Reason     string          `gorm:"type:text" json:"reason"`

	State        QuarantineState `gorm:"type:varchar(15);not null;index" json:"state"`
	DecisionNote string          `gorm:"type:text" json:"decision_note,omitempty"`
	DecidedBy    string          `gorm:"type:varchar(255)" json:"decided_by,omitempty"`
	DecidedAt    *time.Time      `json:"decided_at,omitempty"`
	// Set on release: the fresh lot created from the quarantined quantity.
	ReleasedLotID *uuid.UUID `gorm:"type:uuid" json:"released_lot_id,omitempty"`
}
