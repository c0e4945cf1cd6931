package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PlanScope distinguishes final-inspection plans (per gearbox model) from
// incoming-material plans (per material).
type PlanScope string

const (
	PlanScopeModel    PlanScope = "MODEL"
	PlanScopeMaterial PlanScope = "MATERIAL"
)

// SpecType is the tagged variant of a control-plan item: numeric items carry
// tolerance bounds, textual items carry an expected token.
type SpecType string

const (
	SpecNumeric SpecType = "NUMERIC"
	SpecTextual SpecType = "TEXTUAL"
)

// ControlPlanRevision versions the inspection spec for one scope target.
// Activation semantics mirror BOM revisions: strictly increasing RevisionNo,
// at most one active revision per target.
type ControlPlanRevision struct {
	BaseModel
	Scope      PlanScope  `gorm:"type:varchar(10);not null" json:"scope"`
	Model      string     `gorm:"type:varchar(50);index:idx_plan_model" json:"model,omitempty"`
	MaterialID *uuid.UUID `gorm:"type:uuid;index:idx_plan_material" json:"material_id,omitempty"`
	Material   *Material  `gorm:"foreignKey:MaterialID" json:"material,omitempty"`
	RevisionNo int        `gorm:"not null" json:"revision_no"`
	IsActive   bool       `gorm:"not null;default:false" json:"is_active"`

	Items []ControlPlanItem `gorm:"foreignKey:RevisionID" json:"items,omitempty"`
}

func (ControlPlanRevision) TableName() string {
	return "control_plan_revisions"
}

// ControlPlanItem is one characteristic to be measured. Exactly one of the
// numeric bounds pair or the expected token is meaningful, selected by Spec.
type ControlPlanItem struct {
	BaseModel
	RevisionID uuid.UUID        `gorm:"type:uuid;not null;index" json:"revision_id"`
	Name       string           `gorm:"type:varchar(255);not null" json:"name"`
	Spec       SpecType         `gorm:"type:varchar(10);not null" json:"spec"`
	LowerLimit *decimal.Decimal `gorm:"type:decimal(14,4)" json:"lower_limit,omitempty"`
	UpperLimit *decimal.Decimal `gorm:"type:decimal(14,4)" json:"upper_limit,omitempty"`
	Expected   string           `gorm:"type:varchar(255)" json:"expected,omitempty"`
	IsCritical bool             `gorm:"default:false" json:"is_critical"`
}

func (ControlPlanItem) TableName() string {
	return "control_plan_items"
}
