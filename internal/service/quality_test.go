package service

import (
	"testing"

	"go-gearbox-mes/internal/model"

	"github.com/shopspring/decimal"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func str(s string) *string { return &s }

func numericItem(lower, upper string) model.ControlPlanItem {
	item := model.ControlPlanItem{Spec: model.SpecNumeric}
	if lower != "" {
		item.LowerLimit = dec(lower)
	}
	if upper != "" {
		item.UpperLimit = dec(upper)
	}
	return item
}

func TestEvaluateMeasurementNumeric(t *testing.T) {
	item := numericItem("9.95", "10.05")

	cases := []struct {
		name  string
		value *decimal.Decimal
		want  model.MeasurementResult
	}{
		{"inside bounds", dec("10.00"), model.ResultOK},
		{"on lower bound", dec("9.95"), model.ResultOK},
		{"on upper bound", dec("10.05"), model.ResultOK},
		{"below lower", dec("9.94"), model.ResultRet},
		{"above upper", dec("10.06"), model.ResultRet},
		{"missing value", nil, model.ResultPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EvaluateMeasurement(item, tc.value, nil); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestEvaluateMeasurementNumericOneSidedLimit(t *testing.T) {
	item := numericItem("", "0.2")

	if got := EvaluateMeasurement(item, dec("0.1"), nil); got != model.ResultOK {
		t.Errorf("below upper-only limit: got %s, want ok", got)
	}
	if got := EvaluateMeasurement(item, dec("0.3"), nil); got != model.ResultRet {
		t.Errorf("above upper-only limit: got %s, want ret", got)
	}
}

func TestEvaluateMeasurementTextual(t *testing.T) {
	item := model.ControlPlanItem{Spec: model.SpecTextual, Expected: "PASS"}

	cases := []struct {
		name string
		text *string
		want model.MeasurementResult
	}{
		{"exact match", str("PASS"), model.ResultOK},
		{"case insensitive", str("pass"), model.ResultOK},
		{"surrounding whitespace", str("  Pass "), model.ResultOK},
		{"mismatch", str("FAIL"), model.ResultRet},
		{"blank", str("   "), model.ResultPending},
		{"missing", nil, model.ResultPending},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EvaluateMeasurement(item, nil, tc.text); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}

func TestAggregateOverall(t *testing.T) {
	cases := []struct {
		name  string
		items []EvaluatedItem
		want  model.MeasurementResult
	}{
		{
			"all ok",
			[]EvaluatedItem{{false, model.ResultOK}, {true, model.ResultOK}},
			model.ResultOK,
		},
		{
			"non-critical ret",
			[]EvaluatedItem{{false, model.ResultRet}, {true, model.ResultOK}},
			model.ResultRet,
		},
		{
			"critical ret vetoes",
			[]EvaluatedItem{{true, model.ResultRet}, {false, model.ResultOK}},
			model.ResultRet,
		},
		{
			"pending beats ret",
			[]EvaluatedItem{{true, model.ResultRet}, {false, model.ResultPending}},
			model.ResultPending,
		},
		{
			"empty is ok",
			nil,
			model.ResultOK,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AggregateOverall(tc.items); got != tc.want {
				t.Errorf("got %s, want %s", got, tc.want)
			}
		})
	}
}
