package service

import (
	"strings"

	"go-gearbox-mes/internal/model"

	"github.com/shopspring/decimal"
)

// EvaluateMeasurement scores one measured value against its control-plan
// item. An absent value (nil numeric, nil or blank text) is pending.
func EvaluateMeasurement(item model.ControlPlanItem, value *decimal.Decimal, text *string) model.MeasurementResult {
	switch item.Spec {
	case model.SpecTextual:
		if text == nil || strings.TrimSpace(*text) == "" {
			return model.ResultPending
		}
		if strings.EqualFold(strings.TrimSpace(*text), strings.TrimSpace(item.Expected)) {
			return model.ResultOK
		}
		return model.ResultRet
	default: // numeric
		if value == nil {
			return model.ResultPending
		}
		if item.LowerLimit != nil && value.LessThan(*item.LowerLimit) {
			return model.ResultRet
		}
		if item.UpperLimit != nil && value.GreaterThan(*item.UpperLimit) {
			return model.ResultRet
		}
		return model.ResultOK
	}
}

// EvaluatedItem pairs a per-item result with the item's criticality for
// aggregation.
type EvaluatedItem struct {
	Critical bool
	Result   model.MeasurementResult
}

// AggregateOverall folds per-item verdicts into the inspection verdict.
// Priority: any pending wins (cannot finalize), then a critical ret vetoes
// everything else, then any ret, otherwise ok.
func AggregateOverall(items []EvaluatedItem) model.MeasurementResult {
	hasRet := false
	for _, it := range items {
		if it.Result == model.ResultPending {
			return model.ResultPending
		}
	}
	for _, it := range items {
		if it.Result == model.ResultRet {
			if it.Critical {
				return model.ResultRet
			}
			hasRet = true
		}
	}
	if hasRet {
		return model.ResultRet
	}
	return model.ResultOK
}
