package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go-gearbox-mes/internal/apperr"
	"go-gearbox-mes/internal/metrics"
	"go-gearbox-mes/internal/model"
	"go-gearbox-mes/internal/ws"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
)

func TestCreateUnitAbortsOnShortage(t *testing.T) {
	caseMat := mat("GB-CASE", "1")
	gearMat := mat("GB-GEAR", "3")
	rev := &model.BomRevision{
		Model:    "GB-200",
		IsActive: true,
		Items: []model.BomItem{
			bomItem(caseMat.ID, "2"),
			bomItem(gearMat.ID, "5"),
		},
	}
	matRepo := newFakeMaterialRepo(&caseMat, &gearMat)
	unitRepo := newFakeUnitRepo()
	svc := &unitService{
		unitRepo:     unitRepo,
		bomRepo:      newFakeBomRepo(rev),
		materialRepo: matRepo,
		db:           fakeTxRunner{},
		wsHub:        ws.NewHub(),
	}

	_, err := svc.CreateUnit(CreateUnitRequest{Model: "GB-200"}, "operator")

	var se *apperr.ShortageError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want shortage error", err)
	}
	if len(se.Items) != 2 {
		t.Errorf("shortage items = %d, want both short materials listed", len(se.Items))
	}
	if unitRepo.serialCalls != 0 {
		t.Errorf("serial allocated despite shortage")
	}
	if unitRepo.created != 0 {
		t.Errorf("unit persisted despite shortage")
	}
	if len(matRepo.movements) != 0 || matRepo.lotRemainingUpdates != 0 {
		t.Errorf("stock consumed despite shortage")
	}
}

func TestCreateUnitCountsOneMovementPerLotDraw(t *testing.T) {
	caseMat := mat("GB-CASE", "6")
	gearMat := mat("GB-GEAR", "2")
	rev := &model.BomRevision{
		Model:    "GB-200",
		IsActive: true,
		Items: []model.BomItem{
			bomItem(caseMat.ID, "4"), // spans two lots of 3
			bomItem(gearMat.ID, "1"),
		},
	}
	matRepo := newFakeMaterialRepo(&caseMat, &gearMat)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	older := matRepo.addLot(caseMat.ID, "L1", "3", base)
	newer := matRepo.addLot(caseMat.ID, "L2", "3", base.Add(24*time.Hour))
	matRepo.addLot(gearMat.ID, "L3", "2", base)
	unitRepo := newFakeUnitRepo()
	svc := &unitService{
		unitRepo:     unitRepo,
		bomRepo:      newFakeBomRepo(rev),
		materialRepo: matRepo,
		db:           fakeTxRunner{},
		wsHub:        ws.NewHub(),
	}

	consumeCounter := metrics.StockMovements.WithLabelValues(string(model.MovementConsume))
	before := testutil.ToFloat64(consumeCounter)

	unit, err := svc.CreateUnit(CreateUnitRequest{Model: "GB-200"}, "operator")
	if err != nil {
		t.Fatalf("CreateUnit: %v", err)
	}

	if len(matRepo.movements) != 3 {
		t.Fatalf("movements = %d, want 3 (two case draws, one gear draw)", len(matRepo.movements))
	}
	if got := testutil.ToFloat64(consumeCounter) - before; got != 3 {
		t.Errorf("consume counter advanced by %v, want one per movement row (3)", got)
	}
	if len(unitRepo.mappings) != 3 {
		t.Errorf("part mappings = %d, want 3", len(unitRepo.mappings))
	}
	if !strings.HasSuffix(unit.SerialNo, "-001") {
		t.Errorf("serial = %q, want first sequence of the day", unit.SerialNo)
	}

	// Oldest lot drains first; aggregate stock stays the sum of remainders.
	if !older.Remaining.Equal(decimal.Zero) {
		t.Errorf("oldest lot remaining = %s, want 0", older.Remaining)
	}
	if !newer.Remaining.Equal(decimal.RequireFromString("2")) {
		t.Errorf("newer lot remaining = %s, want 2", newer.Remaining)
	}
	if got := matRepo.materials[caseMat.ID].CurrentStock; !got.Equal(decimal.RequireFromString("2")) {
		t.Errorf("case stock = %s, want 2", got)
	}
	if got := matRepo.materials[gearMat.ID].CurrentStock; !got.Equal(decimal.RequireFromString("1")) {
		t.Errorf("gear stock = %s, want 1", got)
	}
}
