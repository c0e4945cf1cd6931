package service

import (
	"testing"

	"go-gearbox-mes/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func mat(code string, stock string) model.Material {
	m := model.Material{
		Code:         code,
		Name:         code,
		CurrentStock: decimal.RequireFromString(stock),
	}
	m.ID = uuid.New()
	return m
}

func bomItem(materialID uuid.UUID, qty string) model.BomItem {
	return model.BomItem{
		MaterialID: materialID,
		QtyPerUnit: decimal.RequireFromString(qty),
	}
}

func TestComputeCapacityBottleneck(t *testing.T) {
	x := mat("X", "10")
	y := mat("Y", "12")
	items := []model.BomItem{
		bomItem(x.ID, "2"),
		bomItem(y.ID, "5"),
	}
	stock := map[uuid.UUID]model.Material{x.ID: x, y.ID: y}

	report := ComputeCapacity("GB-200", items, stock)

	if report.MaxUnits != 2 {
		t.Errorf("MaxUnits = %d, want 2", report.MaxUnits)
	}
	if report.Bottleneck != "Y" {
		t.Errorf("Bottleneck = %q, want Y", report.Bottleneck)
	}
	if len(report.PerMaterial) != 2 {
		t.Fatalf("PerMaterial has %d lines, want 2", len(report.PerMaterial))
	}
	if report.PerMaterial[0].PossibleUnits != 5 {
		t.Errorf("X possible = %d, want 5", report.PerMaterial[0].PossibleUnits)
	}
	if report.PerMaterial[1].PossibleUnits != 2 {
		t.Errorf("Y possible = %d, want 2", report.PerMaterial[1].PossibleUnits)
	}
}

func TestComputeCapacityTieTakesFirstBomItem(t *testing.T) {
	a := mat("A", "4")
	b := mat("B", "2")
	items := []model.BomItem{
		bomItem(a.ID, "2"),
		bomItem(b.ID, "1"),
	}
	stock := map[uuid.UUID]model.Material{a.ID: a, b.ID: b}

	report := ComputeCapacity("GB-200", items, stock)

	if report.MaxUnits != 2 {
		t.Errorf("MaxUnits = %d, want 2", report.MaxUnits)
	}
	if report.Bottleneck != "A" {
		t.Errorf("Bottleneck = %q, want first tied material A", report.Bottleneck)
	}
}

func TestComputeCapacityFractionalStockFloors(t *testing.T) {
	a := mat("A", "7.5")
	items := []model.BomItem{bomItem(a.ID, "2")}
	stock := map[uuid.UUID]model.Material{a.ID: a}

	report := ComputeCapacity("GB-200", items, stock)

	if report.MaxUnits != 3 {
		t.Errorf("MaxUnits = %d, want 3 (floor of 3.75)", report.MaxUnits)
	}
}

func TestComputeCapacityNoBom(t *testing.T) {
	report := ComputeCapacity("GB-200", nil, nil)

	if report.MaxUnits != 0 {
		t.Errorf("MaxUnits = %d, want 0", report.MaxUnits)
	}
	if report.Bottleneck != NoBomDefined {
		t.Errorf("Bottleneck = %q, want %q", report.Bottleneck, NoBomDefined)
	}
}

func TestComputeCapacitySkipsNonPositiveQty(t *testing.T) {
	a := mat("A", "10")
	b := mat("B", "10")
	items := []model.BomItem{
		bomItem(a.ID, "0"),
		bomItem(b.ID, "5"),
	}
	stock := map[uuid.UUID]model.Material{a.ID: a, b.ID: b}

	report := ComputeCapacity("GB-200", items, stock)

	if len(report.PerMaterial) != 1 {
		t.Fatalf("PerMaterial has %d lines, want 1", len(report.PerMaterial))
	}
	if report.Bottleneck != "B" {
		t.Errorf("Bottleneck = %q, want B", report.Bottleneck)
	}
}

func TestComputeProcurementNeeds(t *testing.T) {
	a := mat("A", "10")
	b := mat("B", "100")
	items := []model.BomItem{
		bomItem(a.ID, "2"),
		bomItem(b.ID, "5"),
	}
	stock := map[uuid.UUID]model.Material{a.ID: a, b.ID: b}

	// capacity is 5 (A binds); targeting 3 extra units means 8 total
	needs := ComputeProcurementNeeds(items, stock, 5, 3)

	if len(needs) != 2 {
		t.Fatalf("got %d lines, want 2", len(needs))
	}
	// A: 8*2 - 10 = 6
	if !needs[0].NeededQty.Equal(decimal.NewFromInt(6)) {
		t.Errorf("A needed = %s, want 6", needs[0].NeededQty)
	}
	// B: 8*5 - 100 = -60, clamped to 0
	if !needs[1].NeededQty.Equal(decimal.Zero) {
		t.Errorf("B needed = %s, want 0", needs[1].NeededQty)
	}
}

func TestComputeProcurementNeedsCeilsFractions(t *testing.T) {
	a := mat("A", "10")
	items := []model.BomItem{bomItem(a.ID, "1.5")}
	stock := map[uuid.UUID]model.Material{a.ID: a}

	// 9 units need 13.5, stock 10 -> 3.5 short, ceiled to 4
	needs := ComputeProcurementNeeds(items, stock, 6, 3)

	if len(needs) != 1 {
		t.Fatalf("got %d lines, want 1", len(needs))
	}
	if !needs[0].NeededQty.Equal(decimal.NewFromInt(4)) {
		t.Errorf("needed = %s, want 4", needs[0].NeededQty)
	}
}
