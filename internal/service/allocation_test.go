package service

import (
	"testing"
	"time"

	"go-gearbox-mes/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestComputeShortagesListsEveryShortMaterial(t *testing.T) {
	a := mat("A", "1")
	b := mat("B", "10")
	c := mat("C", "0")
	items := []model.BomItem{
		bomItem(a.ID, "2"),
		bomItem(b.ID, "5"),
		bomItem(c.ID, "1"),
	}
	stock := map[uuid.UUID]model.Material{a.ID: a, b.ID: b, c.ID: c}

	shortages := ComputeShortages(items, stock)

	if len(shortages) != 2 {
		t.Fatalf("got %d shortages, want 2", len(shortages))
	}
	if shortages[0].MaterialCode != "A" {
		t.Errorf("first shortage = %q, want A", shortages[0].MaterialCode)
	}
	if !shortages[0].Shortfall.Equal(decimal.NewFromInt(1)) {
		t.Errorf("A shortfall = %s, want 1", shortages[0].Shortfall)
	}
	if shortages[1].MaterialCode != "C" {
		t.Errorf("second shortage = %q, want C", shortages[1].MaterialCode)
	}
}

func TestComputeShortagesUnknownMaterial(t *testing.T) {
	missing := uuid.New()
	items := []model.BomItem{bomItem(missing, "3")}

	shortages := ComputeShortages(items, map[uuid.UUID]model.Material{})

	if len(shortages) != 1 {
		t.Fatalf("got %d shortages, want 1", len(shortages))
	}
	if !shortages[0].Shortfall.Equal(decimal.NewFromInt(3)) {
		t.Errorf("shortfall = %s, want full requirement 3", shortages[0].Shortfall)
	}
}

func TestComputeShortagesEmptyWhenCovered(t *testing.T) {
	a := mat("A", "2")
	items := []model.BomItem{bomItem(a.ID, "2")}

	if shortages := ComputeShortages(items, map[uuid.UUID]model.Material{a.ID: a}); len(shortages) != 0 {
		t.Errorf("got %d shortages, want none", len(shortages))
	}
}

func lot(lotNo, remaining string, entry time.Time) model.StockLot {
	l := model.StockLot{
		LotNo:     lotNo,
		Remaining: decimal.RequireFromString(remaining),
		EntryDate: entry,
	}
	l.ID = uuid.New()
	return l
}

func TestPlanLotDrawsSpansLotsOldestFirst(t *testing.T) {
	day := 24 * time.Hour
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lots := []model.StockLot{
		lot("L1", "2", base),
		lot("L2", "5", base.Add(day)),
		lot("L3", "5", base.Add(2*day)),
	}

	draws, uncovered := PlanLotDraws(decimal.NewFromInt(4), lots)

	if !uncovered.IsZero() {
		t.Fatalf("uncovered = %s, want 0", uncovered)
	}
	if len(draws) != 2 {
		t.Fatalf("got %d draws, want 2", len(draws))
	}
	if draws[0].Lot.LotNo != "L1" || !draws[0].Qty.Equal(decimal.NewFromInt(2)) {
		t.Errorf("first draw = %s/%s, want L1/2", draws[0].Lot.LotNo, draws[0].Qty)
	}
	if draws[1].Lot.LotNo != "L2" || !draws[1].Qty.Equal(decimal.NewFromInt(2)) {
		t.Errorf("second draw = %s/%s, want L2/2", draws[1].Lot.LotNo, draws[1].Qty)
	}
}

func TestPlanLotDrawsSkipsEmptyLots(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lots := []model.StockLot{
		lot("L1", "0", base),
		lot("L2", "3", base.Add(time.Hour)),
	}

	draws, uncovered := PlanLotDraws(decimal.NewFromInt(3), lots)

	if !uncovered.IsZero() {
		t.Fatalf("uncovered = %s, want 0", uncovered)
	}
	if len(draws) != 1 || draws[0].Lot.LotNo != "L2" {
		t.Fatalf("draws = %+v, want single draw from L2", draws)
	}
}

// Three sequential builds of a model needing 2 of one material against 7 in
// stock: three succeed drawing oldest lots first, the fourth is short.
func TestSequentialBuildsDrainStockOldestFirst(t *testing.T) {
	z := mat("Z", "7")
	items := []model.BomItem{bomItem(z.ID, "2")}
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lots := []model.StockLot{
		lot("L1", "3", base),
		lot("L2", "4", base.Add(time.Hour)),
	}

	for build := 1; build <= 3; build++ {
		stock := map[uuid.UUID]model.Material{z.ID: z}
		if shortages := ComputeShortages(items, stock); len(shortages) != 0 {
			t.Fatalf("build %d: unexpected shortages %+v", build, shortages)
		}
		draws, uncovered := PlanLotDraws(items[0].QtyPerUnit, lots)
		if !uncovered.IsZero() {
			t.Fatalf("build %d: uncovered = %s", build, uncovered)
		}
		for _, d := range draws {
			for i := range lots {
				if lots[i].ID == d.Lot.ID {
					lots[i].Remaining = lots[i].Remaining.Sub(d.Qty)
				}
			}
			z.CurrentStock = z.CurrentStock.Sub(d.Qty)
		}

		// ledger invariant: aggregate stock equals the sum of lot remainders
		sum := decimal.Zero
		for _, l := range lots {
			sum = sum.Add(l.Remaining)
		}
		if !z.CurrentStock.Equal(sum) {
			t.Fatalf("build %d: stock %s != lot sum %s", build, z.CurrentStock, sum)
		}
	}

	if !z.CurrentStock.Equal(decimal.NewFromInt(1)) {
		t.Errorf("stock after three builds = %s, want 1", z.CurrentStock)
	}
	stock := map[uuid.UUID]model.Material{z.ID: z}
	shortages := ComputeShortages(items, stock)
	if len(shortages) != 1 || !shortages[0].Shortfall.Equal(decimal.NewFromInt(1)) {
		t.Errorf("fourth build shortages = %+v, want Z short by 1", shortages)
	}
}

func TestPlanLotDrawsReportsUncovered(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lots := []model.StockLot{lot("L1", "1.5", base)}

	draws, uncovered := PlanLotDraws(decimal.NewFromInt(4), lots)

	if len(draws) != 1 {
		t.Fatalf("got %d draws, want 1", len(draws))
	}
	if !uncovered.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("uncovered = %s, want 2.5", uncovered)
	}
}
