package service

import (
	"errors"
	"testing"

	"go-gearbox-mes/internal/apperr"
	"go-gearbox-mes/internal/model"
	"go-gearbox-mes/internal/ws"

	"github.com/google/uuid"
)

type qualityFixture struct {
	svc       *qualityService
	planRepo  *fakePlanRepo
	insRepo   *fakeInspectionRepo
	unitRepo  *fakeUnitRepo
	matRepo   *fakeMaterialRepo
	quarRepo  *fakeQuarantineRepo
	lifecycle *fakeLifecycle
}

func newQualityFixture(plan *model.ControlPlanRevision, units ...*model.Unit) *qualityFixture {
	f := &qualityFixture{
		planRepo:  newFakePlanRepo(plan),
		insRepo:   newFakeInspectionRepo(),
		unitRepo:  newFakeUnitRepo(units...),
		matRepo:   newFakeMaterialRepo(),
		quarRepo:  newFakeQuarantineRepo(),
		lifecycle: &fakeLifecycle{},
	}
	f.svc = &qualityService{
		planRepo:       f.planRepo,
		inspectionRepo: f.insRepo,
		unitRepo:       f.unitRepo,
		materialRepo:   f.matRepo,
		quarantineRepo: f.quarRepo,
		lifecycle:      f.lifecycle,
		db:             fakeTxRunner{},
		wsHub:          ws.NewHub(),
	}
	return f
}

func finalInspectionPlan(modelCode string) *model.ControlPlanRevision {
	plan := &model.ControlPlanRevision{
		Scope:    model.PlanScopeModel,
		Model:    modelCode,
		IsActive: true,
		Items: []model.ControlPlanItem{
			{Name: "backlash", Spec: model.SpecNumeric, LowerLimit: dec("0.1"), UpperLimit: dec("0.3"), IsCritical: true},
			{Name: "surface", Spec: model.SpecTextual, Expected: "pass"},
		},
	}
	return plan
}

func pendingUnit(modelCode string) *model.Unit {
	u := &model.Unit{Model: modelCode, Status: model.StatusPendingFinalInspection}
	u.ID = uuid.New()
	return u
}

func TestSubmitInspectionRejectsPlanForDifferentModel(t *testing.T) {
	plan := finalInspectionPlan("GB-200")
	unit := pendingUnit("GB-300")
	f := newQualityFixture(plan, unit)

	_, err := f.svc.SubmitInspection(SubmitInspectionRequest{
		PlanRevisionID: plan.ID,
		TargetType:     model.TargetUnit,
		UnitID:         &unit.ID,
		Measurements: []MeasurementInput{
			{PlanItemID: plan.Items[0].ID, Value: dec("0.2")},
			{PlanItemID: plan.Items[1].ID, TextValue: str("pass")},
		},
	}, "qc")

	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if unit.Status != model.StatusPendingFinalInspection {
		t.Errorf("unit status = %s, want unchanged", unit.Status)
	}
	if len(f.lifecycle.transitions) != 0 {
		t.Errorf("unit transitioned despite rejected submission")
	}
	if len(f.insRepo.inspections) != 0 {
		t.Errorf("inspection persisted despite rejected submission")
	}
}

func TestSubmitInspectionRejectsDraftForMissingUnit(t *testing.T) {
	plan := finalInspectionPlan("GB-200")
	f := newQualityFixture(plan) // no units at all
	ghost := uuid.New()

	_, err := f.svc.SubmitInspection(SubmitInspectionRequest{
		PlanRevisionID: plan.ID,
		TargetType:     model.TargetUnit,
		UnitID:         &ghost,
		Draft:          true,
	}, "qc")

	var nf *apperr.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want not-found error", err)
	}
	if len(f.insRepo.inspections) != 0 {
		t.Errorf("draft persisted against nonexistent unit")
	}
}

func TestSubmitInspectionRejectsPlanForDifferentMaterial(t *testing.T) {
	covered := mat("GB-BOLT", "0")
	other := mat("GB-SEAL", "0")
	plan := &model.ControlPlanRevision{
		Scope:      model.PlanScopeMaterial,
		MaterialID: &covered.ID,
		IsActive:   true,
		Items: []model.ControlPlanItem{
			{Name: "hardness", Spec: model.SpecNumeric, LowerLimit: dec("55"), UpperLimit: dec("62")},
		},
	}
	f := newQualityFixture(plan)
	f.matRepo.Create(&covered)
	f.matRepo.Create(&other)

	_, err := f.svc.SubmitInspection(SubmitInspectionRequest{
		PlanRevisionID: plan.ID,
		TargetType:     model.TargetMaterial,
		MaterialID:     &other.ID,
		LotNo:          "INV-12",
		Quantity:       dec("50"),
		Measurements: []MeasurementInput{
			{PlanItemID: plan.Items[0].ID, Value: dec("58")},
		},
	}, "qc")

	var verr *apperr.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if len(f.matRepo.lots) != 0 || len(f.matRepo.movements) != 0 {
		t.Errorf("ledger touched despite rejected submission")
	}
	if n, _ := f.quarRepo.CountOpen(); n != 0 {
		t.Errorf("quarantine opened despite rejected submission")
	}
}

func TestSubmitInspectionDraftHasNoDownstreamEffects(t *testing.T) {
	plan := finalInspectionPlan("GB-200")
	unit := pendingUnit("GB-200")
	f := newQualityFixture(plan, unit)

	req := SubmitInspectionRequest{
		PlanRevisionID: plan.ID,
		TargetType:     model.TargetUnit,
		UnitID:         &unit.ID,
		Draft:          true,
		Measurements: []MeasurementInput{
			// Critical item out of spec: a finalization would send the unit
			// to revision_return, a draft must not.
			{PlanItemID: plan.Items[0].ID, Value: dec("0.9")},
		},
	}
	first, err := f.svc.SubmitInspection(req, "qc")
	if err != nil {
		t.Fatalf("SubmitInspection draft: %v", err)
	}
	if !first.IsDraft || first.Overall != model.ResultPending {
		t.Errorf("draft stored overall %s (draft=%v), want pending draft", first.Overall, first.IsDraft)
	}
	if unit.Status != model.StatusPendingFinalInspection {
		t.Errorf("unit status = %s, want unchanged by draft", unit.Status)
	}
	if len(f.lifecycle.transitions) != 0 {
		t.Errorf("draft triggered %d lifecycle transitions", len(f.lifecycle.transitions))
	}
	if len(f.matRepo.movements) != 0 || len(f.matRepo.lots) != 0 {
		t.Errorf("draft touched the stock ledger")
	}
	if len(f.insRepo.nonconformances) != 0 {
		t.Errorf("draft opened a nonconformance")
	}

	// Resubmitting replaces the prior draft instead of piling up.
	second, err := f.svc.SubmitInspection(req, "qc")
	if err != nil {
		t.Fatalf("SubmitInspection resubmitted draft: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("resubmitted draft got a new identity %s, want %s", second.ID, first.ID)
	}
	if len(f.insRepo.inspections) != 1 {
		t.Errorf("draft count = %d after resubmission, want 1", len(f.insRepo.inspections))
	}
	if f.insRepo.deletedMeasurements != 1 {
		t.Errorf("prior draft measurements deleted %d times, want 1", f.insRepo.deletedMeasurements)
	}
	if unit.Status != model.StatusPendingFinalInspection || len(f.lifecycle.transitions) != 0 {
		t.Errorf("resubmitted draft changed unit state")
	}
}

func TestSubmitInspectionFinalizeRetReturnsUnitForRevision(t *testing.T) {
	plan := finalInspectionPlan("GB-200")
	unit := pendingUnit("GB-200")
	f := newQualityFixture(plan, unit)

	insp, err := f.svc.SubmitInspection(SubmitInspectionRequest{
		PlanRevisionID: plan.ID,
		TargetType:     model.TargetUnit,
		UnitID:         &unit.ID,
		Measurements: []MeasurementInput{
			{PlanItemID: plan.Items[0].ID, Value: dec("0.9")},
			{PlanItemID: plan.Items[1].ID, TextValue: str("pass")},
		},
	}, "qc")
	if err != nil {
		t.Fatalf("SubmitInspection: %v", err)
	}
	if insp.Overall != model.ResultRet {
		t.Errorf("overall = %s, want ret", insp.Overall)
	}
	if unit.Status != model.StatusRevisionReturn {
		t.Errorf("unit status = %s, want revision_return", unit.Status)
	}
	if len(f.insRepo.nonconformances) != 1 {
		t.Fatalf("nonconformances = %d, want 1", len(f.insRepo.nonconformances))
	}
	if f.insRepo.nonconformances[0].UnitID != unit.ID {
		t.Errorf("nonconformance bound to wrong unit")
	}
}
