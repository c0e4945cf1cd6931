package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BomRevision is one version of the bill of materials for a gearbox model.
// At most one revision per model is active at any instant; RevisionNo is
// strictly increasing per model.
type BomRevision struct {
	BaseModel
	Model      string    `gorm:"type:varchar(50);not null;index:idx_bom_model" json:"model" validate:"required"`
	RevisionNo int       `gorm:"not null" json:"revision_no"`
	IsActive   bool      `gorm:"not null;default:false;index:idx_bom_model_active,where:is_active" json:"is_active"`
	Items      []BomItem `gorm:"foreignKey:RevisionID" json:"items,omitempty"`
}

func (BomRevision) TableName() string {
	return "bom_revisions"
}

// BomItem is one material requirement line of a revision.
type BomItem struct {
	BaseModel
	RevisionID uuid.UUID       `gorm:"type:uuid;not null;index" json:"revision_id"`
	MaterialID uuid.UUID       `gorm:"type:uuid;not null" json:"material_id" validate:"uuid_required"`
	Material   *Material       `gorm:"foreignKey:MaterialID" json:"material,omitempty" validate:"-"`
	QtyPerUnit decimal.Decimal `gorm:"type:decimal(14,4);not null" json:"qty_per_unit"`
	IsCritical bool            `gorm:"default:false" json:"is_critical"`
}

func (BomItem) TableName() string {
	return "bom_items"
}
