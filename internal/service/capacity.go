package service

import (
	"go-gearbox-mes/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NoBomDefined is the bottleneck sentinel when a model has no active BOM or
// the active BOM has no usable items.
const NoBomDefined = "no BOM defined"

// CapacityLine is the per-material capacity breakdown.
type CapacityLine struct {
	MaterialID    uuid.UUID       `json:"material_id"`
	MaterialCode  string          `json:"material_code"`
	MaterialName  string          `json:"material_name"`
	QtyPerUnit    decimal.Decimal `json:"qty_per_unit"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	PossibleUnits int64           `json:"possible_units"`
}

// CapacityReport is the result of a capacity query. It is a pre-flight hint
// only: CreateUnit re-runs the same check under row locks before consuming.
type CapacityReport struct {
	Model        string         `json:"model"`
	MaxUnits     int64          `json:"max_units"`
	Bottleneck   string         `json:"bottleneck"`
	BottleneckID *uuid.UUID     `json:"bottleneck_id,omitempty"`
	PerMaterial  []CapacityLine `json:"per_material"`
}

// ProcurementLine says how much of a material must be procured to reach a
// production target.
type ProcurementLine struct {
	MaterialID   uuid.UUID       `json:"material_id"`
	MaterialCode string          `json:"material_code"`
	NeededQty    decimal.Decimal `json:"needed_qty"`
}

// ComputeCapacity derives max producible units and the bottleneck material
// from BOM items and current stock. Items with qty_per_unit <= 0 are
// skipped. On ties the first item in BOM order is the bottleneck.
func ComputeCapacity(modelCode string, items []model.BomItem, stockByMaterial map[uuid.UUID]model.Material) CapacityReport {
	report := CapacityReport{
		Model:      modelCode,
		Bottleneck: NoBomDefined,
	}

	for _, item := range items {
		if item.QtyPerUnit.Sign() <= 0 {
			continue
		}
		mat, ok := stockByMaterial[item.MaterialID]
		if !ok {
			continue
		}
		possible := mat.CurrentStock.Div(item.QtyPerUnit).Floor().IntPart()
		if possible < 0 {
			possible = 0
		}
		report.PerMaterial = append(report.PerMaterial, CapacityLine{
			MaterialID:    mat.ID,
			MaterialCode:  mat.Code,
			MaterialName:  mat.Name,
			QtyPerUnit:    item.QtyPerUnit,
			CurrentStock:  mat.CurrentStock,
			PossibleUnits: possible,
		})
	}

	if len(report.PerMaterial) == 0 {
		return report
	}

	minUnits := report.PerMaterial[0].PossibleUnits
	for _, line := range report.PerMaterial[1:] {
		if line.PossibleUnits < minUnits {
			minUnits = line.PossibleUnits
		}
	}
	report.MaxUnits = minUnits
	for _, line := range report.PerMaterial {
		if line.PossibleUnits == minUnits {
			report.Bottleneck = line.MaterialCode
			id := line.MaterialID
			report.BottleneckID = &id
			break
		}
	}
	return report
}

// ComputeProcurementNeeds projects how much of each material is missing to
// produce extraUnits more than the current capacity allows:
// max(0, ceil((maxUnits+extra)*qty_per_unit - current_stock)).
func ComputeProcurementNeeds(items []model.BomItem, stockByMaterial map[uuid.UUID]model.Material, maxUnits, extraUnits int64) []ProcurementLine {
	target := decimal.NewFromInt(maxUnits + extraUnits)
	var needs []ProcurementLine
	for _, item := range items {
		if item.QtyPerUnit.Sign() <= 0 {
			continue
		}
		mat, ok := stockByMaterial[item.MaterialID]
		if !ok {
			continue
		}
		needed := target.Mul(item.QtyPerUnit).Sub(mat.CurrentStock).Ceil()
		if needed.Sign() < 0 {
			needed = decimal.Zero
		}
		needs = append(needs, ProcurementLine{
			MaterialID:   mat.ID,
			MaterialCode: mat.Code,
			NeededQty:    needed,
		})
	}
	return needs
}
