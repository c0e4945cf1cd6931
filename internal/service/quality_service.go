package service

import (
	"errors"
	"fmt"
	"strings"

	"go-gearbox-mes/internal/apperr"
	"go-gearbox-mes/internal/metrics"
	"go-gearbox-mes/internal/model"
	"go-gearbox-mes/internal/repository"
	"go-gearbox-mes/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QualityService evaluates submitted measurements against a control plan
// and applies the downstream effects of a finalized verdict: stock intake
// for passed material, quarantine for rejected material, lifecycle moves
// and nonconformance records for units. Drafts never have effects.
type QualityService interface {
	SubmitInspection(req SubmitInspectionRequest, actor string) (*model.Inspection, error)
	GetInspection(id uuid.UUID) (*model.Inspection, error)
	GetUnitInspections(unitID uuid.UUID) ([]model.Inspection, error)
	ActivateControlPlan(req ActivateControlPlanRequest, actor string) (*model.ControlPlanRevision, error)
}

type MeasurementInput struct {
	PlanItemID uuid.UUID        `json:"plan_item_id"`
	Value      *decimal.Decimal `json:"value,omitempty"`
	TextValue  *string          `json:"text_value,omitempty"`
}

type SubmitInspectionRequest struct {
	PlanRevisionID uuid.UUID        `json:"plan_revision_id"`
	TargetType     model.TargetType `json:"target_type"`
	UnitID         *uuid.UUID       `json:"unit_id,omitempty"`
	MaterialID     *uuid.UUID       `json:"material_id,omitempty"`
	SupplierID     *uuid.UUID       `json:"supplier_id,omitempty"`
	InvoiceNo      string           `json:"invoice_no,omitempty"`
	LotNo          string           `json:"lot_no,omitempty"`
	Quantity       *decimal.Decimal `json:"quantity,omitempty"`
	Draft          bool             `json:"draft"`
	Measurements   []MeasurementInput `json:"measurements"`
}

type ControlPlanItemRequest struct {
	Name       string           `json:"name"`
	Spec       model.SpecType   `json:"spec"`
	LowerLimit *decimal.Decimal `json:"lower_limit,omitempty"`
	UpperLimit *decimal.Decimal `json:"upper_limit,omitempty"`
	Expected   string           `json:"expected,omitempty"`
	IsCritical bool             `json:"is_critical"`
}

type ActivateControlPlanRequest struct {
	Scope      model.PlanScope          `json:"scope"`
	Model      string                   `json:"model,omitempty"`
	MaterialID *uuid.UUID               `json:"material_id,omitempty"`
	Items      []ControlPlanItemRequest `json:"items"`
}

type qualityService struct {
	planRepo       repository.ControlPlanRepository
	inspectionRepo repository.InspectionRepository
	unitRepo       repository.UnitRepository
	materialRepo   repository.MaterialRepository
	quarantineRepo repository.QuarantineRepository
	lifecycle      LifecycleService
	db             txRunner
	wsHub          *ws.Hub
}

func NewQualityService(planRepo repository.ControlPlanRepository, inspectionRepo repository.InspectionRepository, unitRepo repository.UnitRepository, materialRepo repository.MaterialRepository, quarantineRepo repository.QuarantineRepository, lifecycle LifecycleService, db *gorm.DB, hub *ws.Hub) QualityService {
	return &qualityService{
		planRepo:       planRepo,
		inspectionRepo: inspectionRepo,
		unitRepo:       unitRepo,
		materialRepo:   materialRepo,
		quarantineRepo: quarantineRepo,
		lifecycle:      lifecycle,
		db:             db,
		wsHub:          hub,
	}
}

func (s *qualityService) SubmitInspection(req SubmitInspectionRequest, actor string) (*model.Inspection, error) {
	plan, err := s.planRepo.FindByID(req.PlanRevisionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("control plan revision", req.PlanRevisionID.String())
		}
		return nil, err
	}

	switch req.TargetType {
	case model.TargetUnit:
		if req.UnitID == nil {
			return nil, apperr.Validation("unit_id", "required for unit inspections")
		}
		if plan.Scope != model.PlanScopeModel {
			return nil, apperr.Validation("plan_revision_id", "plan is not a final-inspection plan")
		}
		// The plan must cover the unit's model, and the unit must exist even
		// for drafts, which otherwise never touch it.
		unit, unitErr := s.unitRepo.FindByID(*req.UnitID)
		if errors.Is(unitErr, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("unit", req.UnitID.String())
		}
		if unitErr != nil {
			return nil, unitErr
		}
		if unit.Model != plan.Model {
			return nil, apperr.Validation("plan_revision_id", fmt.Sprintf("plan covers model %s, unit is model %s", plan.Model, unit.Model))
		}
	case model.TargetMaterial:
		if req.MaterialID == nil {
			return nil, apperr.Validation("material_id", "required for material inspections")
		}
		if plan.Scope != model.PlanScopeMaterial {
			return nil, apperr.Validation("plan_revision_id", "plan is not an incoming-material plan")
		}
		if plan.MaterialID == nil || *plan.MaterialID != *req.MaterialID {
			return nil, apperr.Validation("plan_revision_id", "plan does not cover the inspected material")
		}
		if req.Quantity == nil || req.Quantity.Sign() <= 0 {
			return nil, apperr.Validation("quantity", "inspected quantity must be positive")
		}
	default:
		return nil, apperr.Validation("target_type", "must be UNIT or MATERIAL")
	}

	itemsByID := make(map[uuid.UUID]model.ControlPlanItem, len(plan.Items))
	for _, item := range plan.Items {
		itemsByID[item.ID] = item
	}
	inputByItem := make(map[uuid.UUID]MeasurementInput, len(req.Measurements))
	for _, in := range req.Measurements {
		if _, ok := itemsByID[in.PlanItemID]; !ok {
			return nil, apperr.Validation("measurements", "unknown plan item "+in.PlanItemID.String())
		}
		inputByItem[in.PlanItemID] = in
	}

	// Evaluate every plan item; ones without a submitted value stay pending.
	measurements := make([]model.Measurement, 0, len(plan.Items))
	evaluated := make([]EvaluatedItem, 0, len(plan.Items))
	var failedNames []string
	for _, item := range plan.Items {
		in := inputByItem[item.ID]
		result := EvaluateMeasurement(item, in.Value, in.TextValue)
		measurements = append(measurements, model.Measurement{
			PlanItemID: item.ID,
			Value:      in.Value,
			TextValue:  in.TextValue,
			Result:     result,
		})
		evaluated = append(evaluated, EvaluatedItem{Critical: item.IsCritical, Result: result})
		if result == model.ResultRet {
			failedNames = append(failedNames, item.Name)
		}
	}
	overall := AggregateOverall(evaluated)

	if !req.Draft && overall == model.ResultPending {
		return nil, apperr.Validation("measurements", "cannot finalize with pending measurements")
	}

	var inspection *model.Inspection
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// A resubmitted draft replaces the prior one for the same target.
		existing, findErr := s.inspectionRepo.FindDraft(tx, plan.ID, req.UnitID, req.MaterialID)
		if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}
		if existing != nil {
			if delErr := s.inspectionRepo.DeleteMeasurements(tx, existing.ID); delErr != nil {
				return delErr
			}
			inspection = existing
		} else {
			inspection = &model.Inspection{
				PlanRevisionID: plan.ID,
				TargetType:     req.TargetType,
				UnitID:         req.UnitID,
				MaterialID:     req.MaterialID,
			}
			inspection.CreatedBy = actor
		}
		inspection.SupplierID = req.SupplierID
		inspection.InvoiceNo = req.InvoiceNo
		inspection.LotNo = req.LotNo
		inspection.Quantity = req.Quantity
		inspection.UpdatedBy = actor
		inspection.IsDraft = req.Draft
		if req.Draft {
			// Drafts always persist pending, whatever was computed.
			inspection.Overall = model.ResultPending
		} else {
			inspection.Overall = overall
		}
		inspection.Measurements = measurements

		if saveErr := s.inspectionRepo.Save(tx, inspection); saveErr != nil {
			return saveErr
		}
		if req.Draft {
			return nil // no downstream effects, ever
		}

		switch req.TargetType {
		case model.TargetUnit:
			return s.finalizeUnit(tx, inspection, overall, failedNames, actor)
		case model.TargetMaterial:
			return s.finalizeMaterial(tx, req, inspection, overall, failedNames, actor)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !req.Draft {
		metrics.InspectionsFinalized.WithLabelValues(string(overall)).Inc()
		s.wsHub.Publish(ws.Event{
			Type:    "quality",
			Action:  "inspection_finalized",
			Payload: inspection,
			Actor:   actor,
			Message: fmt.Sprintf("inspection finalized with result %s", overall),
		})
	}
	return inspection, nil
}

func (s *qualityService) finalizeUnit(tx *gorm.DB, inspection *model.Inspection, overall model.MeasurementResult, failedNames []string, actor string) error {
	unit, err := s.unitRepo.LockByID(tx, *inspection.UnitID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound("unit", inspection.UnitID.String())
	}
	if err != nil {
		return err
	}

	if overall == model.ResultOK {
		return s.lifecycle.TransitionTx(tx, unit, model.StatusInStock, "final inspection passed", actor)
	}

	if err := s.lifecycle.TransitionTx(tx, unit, model.StatusRevisionReturn, "final inspection failed", actor); err != nil {
		return err
	}
	nc := &model.Nonconformance{
		UnitID:       unit.ID,
		InspectionID: inspection.ID,
		Description:  "failed items: " + strings.Join(failedNames, ", "),
		IsOpen:       true,
	}
	nc.CreatedBy = actor
	nc.UpdatedBy = actor
	return s.inspectionRepo.CreateNonconformance(tx, nc)
}

func (s *qualityService) finalizeMaterial(tx *gorm.DB, req SubmitInspectionRequest, inspection *model.Inspection, overall model.MeasurementResult, failedNames []string, actor string) error {
	if overall == model.ResultOK {
		// Verified receipt: the inspected quantity enters stock as a new lot.
		_, err := receiveLotTx(tx, s.materialRepo, receiveLotParams{
			MaterialID: *req.MaterialID,
			SupplierID: req.SupplierID,
			InvoiceNo:  req.InvoiceNo,
			LotNo:      req.LotNo,
			Quantity:   *req.Quantity,
			Actor:      actor,
			Reference:  "inspection " + inspection.ID.String(),
		})
		if err != nil {
			return err
		}
		metrics.StockMovements.WithLabelValues(string(model.MovementReceive)).Inc()
		return nil
	}

	item := &model.QuarantineItem{
		MaterialID: *req.MaterialID,
		SupplierID: req.SupplierID,
		InvoiceNo:  req.InvoiceNo,
		LotNo:      req.LotNo,
		Quantity:   *req.Quantity,
		Reason:     "failed items: " + strings.Join(failedNames, ", "),
		State:      model.QuarantineOpen,
	}
	item.CreatedBy = actor
	item.UpdatedBy = actor
	return s.quarantineRepo.Create(tx, item)
}

func (s *qualityService) GetInspection(id uuid.UUID) (*model.Inspection, error) {
	inspection, err := s.inspectionRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("inspection", id.String())
	}
	return inspection, err
}

func (s *qualityService) GetUnitInspections(unitID uuid.UUID) ([]model.Inspection, error) {
	return s.inspectionRepo.ListByUnit(unitID)
}

func (s *qualityService) ActivateControlPlan(req ActivateControlPlanRequest, actor string) (*model.ControlPlanRevision, error) {
	if len(req.Items) == 0 {
		return nil, apperr.Validation("items", "a control plan needs at least one item")
	}
	switch req.Scope {
	case model.PlanScopeModel:
		if req.Model == "" {
			return nil, apperr.Validation("model", "required for model-scoped plans")
		}
	case model.PlanScopeMaterial:
		if req.MaterialID == nil {
			return nil, apperr.Validation("material_id", "required for material-scoped plans")
		}
	default:
		return nil, apperr.Validation("scope", "must be MODEL or MATERIAL")
	}
	for i, item := range req.Items {
		if item.Name == "" {
			return nil, apperr.Validation(fmt.Sprintf("items[%d].name", i), "must not be empty")
		}
		switch item.Spec {
		case model.SpecNumeric:
			if item.LowerLimit == nil && item.UpperLimit == nil {
				return nil, apperr.Validation(fmt.Sprintf("items[%d]", i), "numeric item needs at least one limit")
			}
		case model.SpecTextual:
			if strings.TrimSpace(item.Expected) == "" {
				return nil, apperr.Validation(fmt.Sprintf("items[%d].expected", i), "textual item needs an expected token")
			}
		default:
			return nil, apperr.Validation(fmt.Sprintf("items[%d].spec", i), "must be NUMERIC or TEXTUAL")
		}
	}

	rev := &model.ControlPlanRevision{
		Scope:      req.Scope,
		Model:      req.Model,
		MaterialID: req.MaterialID,
	}
	rev.CreatedBy = actor
	rev.UpdatedBy = actor
	for _, item := range req.Items {
		pi := model.ControlPlanItem{
			Name:       item.Name,
			Spec:       item.Spec,
			LowerLimit: item.LowerLimit,
			UpperLimit: item.UpperLimit,
			Expected:   item.Expected,
			IsCritical: item.IsCritical,
		}
		pi.CreatedBy = actor
		pi.UpdatedBy = actor
		rev.Items = append(rev.Items, pi)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		return s.planRepo.ActivateRevision(tx, rev)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &apperr.ConcurrencyConflictError{Op: "control plan activation"}
		}
		return nil, err
	}
	return rev, nil
}
