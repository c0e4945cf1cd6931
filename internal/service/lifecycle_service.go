package service

import (
	"errors"
	"fmt"
	"time"

	"go-gearbox-mes/internal/apperr"
	"go-gearbox-mes/internal/metrics"
	"go-gearbox-mes/internal/model"
	"go-gearbox-mes/internal/repository"
	"go-gearbox-mes/internal/ws"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LifecycleService runs guarded status transitions. Every accepted
// transition is appended to the unit's status log; every rejected one
// surfaces as GuardViolationError.
type LifecycleService interface {
	Transition(unitID uuid.UUID, to model.UnitStatus, reason, actor string) (*model.Unit, error)
	// TransitionTx applies a transition on an existing transaction. Used by
	// the quality and shipment services whose effects must commit atomically
	// with the status change.
	TransitionTx(tx *gorm.DB, unit *model.Unit, to model.UnitStatus, reason, actor string) error
}

type lifecycleService struct {
	unitRepo       repository.UnitRepository
	inspectionRepo repository.InspectionRepository
	shipmentRepo   repository.ShipmentRepository
	db             txRunner
	wsHub          *ws.Hub
}

func NewLifecycleService(unitRepo repository.UnitRepository, inspectionRepo repository.InspectionRepository, shipmentRepo repository.ShipmentRepository, db *gorm.DB, hub *ws.Hub) LifecycleService {
	return &lifecycleService{
		unitRepo:       unitRepo,
		inspectionRepo: inspectionRepo,
		shipmentRepo:   shipmentRepo,
		db:             db,
		wsHub:          hub,
	}
}

func (s *lifecycleService) Transition(unitID uuid.UUID, to model.UnitStatus, reason, actor string) (*model.Unit, error) {
	var unit *model.Unit
	err := s.db.Transaction(func(tx *gorm.DB) error {
		locked, err := s.unitRepo.LockByID(tx, unitID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("unit", unitID.String())
		}
		if err != nil {
			return err
		}
		unit = locked
		return s.TransitionTx(tx, unit, to, reason, actor)
	})
	if err != nil {
		return nil, err
	}

	s.wsHub.Publish(ws.Event{
		Type:    "unit_status",
		Action:  "unit_transitioned",
		Payload: unit,
		Actor:   actor,
		Message: fmt.Sprintf("unit %s -> %s", unit.SerialNo, to),
	})
	return unit, nil
}

func (s *lifecycleService) TransitionTx(tx *gorm.DB, unit *model.Unit, to model.UnitStatus, reason, actor string) error {
	from := unit.Status

	if !TransitionAllowed(from, to) {
		metrics.GuardViolations.Inc()
		return &apperr.GuardViolationError{From: string(from), To: string(to)}
	}
	if err := s.checkGuard(tx, unit, to, reason); err != nil {
		if errors.As(err, new(*apperr.GuardViolationError)) {
			metrics.GuardViolations.Inc()
		}
		return err
	}

	unit.Status = to
	unit.UpdatedBy = actor
	if from == model.StatusProducing && to == model.StatusPendingFinalInspection {
		now := time.Now()
		unit.ProducedAt = &now
	}
	if err := s.unitRepo.Save(tx, unit); err != nil {
		return err
	}

	log := &model.UnitStatusLog{
		UnitID: unit.ID,
		From:   from,
		To:     to,
		Reason: reason,
		Actor:  actor,
	}
	return s.unitRepo.CreateStatusLog(tx, log)
}

// checkGuard enforces the target-specific conditions on top of the table.
func (s *lifecycleService) checkGuard(tx *gorm.DB, unit *model.Unit, to model.UnitStatus, reason string) error {
	switch to {
	case model.StatusInStock:
		insp, err := s.inspectionRepo.LatestFinalized(tx, unit.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperr.GuardViolationError{
				From: string(unit.Status), To: string(to),
				Reason: "no finalized final inspection",
			}
		}
		if err != nil {
			return err
		}
		if insp.Overall != model.ResultOK {
			return &apperr.GuardViolationError{
				From: string(unit.Status), To: string(to),
				Reason: "final inspection result is " + string(insp.Overall),
			}
		}
	case model.StatusRevisionReturn:
		insp, err := s.inspectionRepo.LatestFinalized(tx, unit.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &apperr.GuardViolationError{
				From: string(unit.Status), To: string(to),
				Reason: "no finalized final inspection",
			}
		}
		if err != nil {
			return err
		}
		if insp.Overall != model.ResultRet {
			return &apperr.GuardViolationError{
				From: string(unit.Status), To: string(to),
				Reason: "final inspection result is " + string(insp.Overall),
			}
		}
	case model.StatusShipped:
		in, err := s.shipmentRepo.UnitInBatch(tx, unit.ID)
		if err != nil {
			return err
		}
		if !in {
			return &apperr.GuardViolationError{
				From: string(unit.Status), To: string(to),
				Reason: "unit is not part of a shipment batch",
			}
		}
	case model.StatusInstalled:
		has, err := s.shipmentRepo.HasAssembly(tx, unit.ID)
		if err != nil {
			return err
		}
		if !has {
			return &apperr.GuardViolationError{
				From: string(unit.Status), To: string(to),
				Reason: "no vehicle assembly record for unit",
			}
		}
	case model.StatusScrapped:
		if reason == "" {
			return apperr.Validation("reason", "scrapping requires a reason")
		}
	}
	return nil
}
