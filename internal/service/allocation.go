package service

import (
	"go-gearbox-mes/internal/apperr"
	"go-gearbox-mes/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComputeShortages re-runs the capacity check for exactly one unit: every
// material whose stock does not cover qty_per_unit is listed, not just the
// first one found. An empty result means the build can proceed.
func ComputeShortages(items []model.BomItem, stockByMaterial map[uuid.UUID]model.Material) []apperr.ShortageItem {
	var shortages []apperr.ShortageItem
	for _, item := range items {
		if item.QtyPerUnit.Sign() <= 0 {
			continue
		}
		mat, ok := stockByMaterial[item.MaterialID]
		if !ok {
			shortages = append(shortages, apperr.ShortageItem{
				MaterialID: item.MaterialID,
				Required:   item.QtyPerUnit,
				Available:  decimal.Zero,
				Shortfall:  item.QtyPerUnit,
			})
			continue
		}
		if mat.CurrentStock.LessThan(item.QtyPerUnit) {
			shortages = append(shortages, apperr.ShortageItem{
				MaterialID:   mat.ID,
				MaterialCode: mat.Code,
				Required:     item.QtyPerUnit,
				Available:    mat.CurrentStock,
				Shortfall:    item.QtyPerUnit.Sub(mat.CurrentStock),
			})
		}
	}
	return shortages
}

// LotDraw is one planned deduction from a lot.
type LotDraw struct {
	Lot model.StockLot
	Qty decimal.Decimal
}

// PlanLotDraws walks lots in the order given (callers pass them
// oldest-entry-date-first) and plans deductions until required is covered.
// The second return value is the uncovered remainder; it is zero whenever
// the aggregate check passed, because current_stock equals the sum of lot
// remainders.
func PlanLotDraws(required decimal.Decimal, lots []model.StockLot) ([]LotDraw, decimal.Decimal) {
	var draws []LotDraw
	remaining := required
	for _, lot := range lots {
		if remaining.Sign() <= 0 {
			break
		}
		if lot.Remaining.Sign() <= 0 {
			continue
		}
		take := lot.Remaining
		if take.GreaterThan(remaining) {
			take = remaining
		}
		draws = append(draws, LotDraw{Lot: lot, Qty: take})
		remaining = remaining.Sub(take)
	}
	return draws, remaining
}
