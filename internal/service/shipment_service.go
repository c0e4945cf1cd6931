package service

import (
	"errors"
	"fmt"
	"time"

	"go-gearbox-mes/internal/apperr"
	"go-gearbox-mes/internal/model"
	"go-gearbox-mes/internal/repository"
	"go-gearbox-mes/internal/ws"
	"go-gearbox-mes/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShipmentService interface {
	CreateShipment(req CreateShipmentRequest, actor string) (*model.ShipmentBatch, error)
	GetBatch(id uuid.UUID) (*model.ShipmentBatch, error)
	GetBatches() ([]model.ShipmentBatch, error)
	RecordAssembly(req RecordAssemblyRequest, actor string) (*model.VehicleAssembly, error)
}

type CreateShipmentRequest struct {
	BatchNo     string      `json:"batch_no"`
	Destination string      `json:"destination"`
	Note        string      `json:"note,omitempty"`
	UnitIDs     []uuid.UUID `json:"unit_ids"`
}

type RecordAssemblyRequest struct {
	UnitID    uuid.UUID `json:"unit_id"`
	VehicleNo string    `json:"vehicle_no"`
	Note      string    `json:"note,omitempty"`
}

type shipmentService struct {
	shipmentRepo repository.ShipmentRepository
	unitRepo     repository.UnitRepository
	lifecycle    LifecycleService
	db           txRunner
	wsHub        *ws.Hub
}

func NewShipmentService(shipmentRepo repository.ShipmentRepository, unitRepo repository.UnitRepository, lifecycle LifecycleService, db *gorm.DB, hub *ws.Hub) ShipmentService {
	return &shipmentService{
		shipmentRepo: shipmentRepo,
		unitRepo:     unitRepo,
		lifecycle:    lifecycle,
		db:           db,
		wsHub:        hub,
	}
}

// CreateShipment creates the batch and moves every listed unit to shipped in
// a single transaction. One unit that is not in stock fails the whole batch.
func (s *shipmentService) CreateShipment(req CreateShipmentRequest, actor string) (*model.ShipmentBatch, error) {
	if req.BatchNo == "" {
		return nil, apperr.Validation("batch_no", "must not be empty")
	}
	if len(req.UnitIDs) == 0 {
		return nil, apperr.Validation("unit_ids", "a shipment needs at least one unit")
	}
	seen := make(map[uuid.UUID]bool, len(req.UnitIDs))
	for _, id := range req.UnitIDs {
		if seen[id] {
			return nil, apperr.Validation("unit_ids", "duplicate unit "+id.String())
		}
		seen[id] = true
	}

	batch := &model.ShipmentBatch{
		BatchNo:     req.BatchNo,
		Destination: req.Destination,
		ShippedAt:   time.Now(),
		Note:        req.Note,
	}
	batch.CreatedBy = actor
	batch.UpdatedBy = actor

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, unitID := range req.UnitIDs {
			item := model.ShipmentItem{UnitID: unitID}
			item.CreatedBy = actor
			item.UpdatedBy = actor
			batch.Items = append(batch.Items, item)
		}
		if err := s.shipmentRepo.CreateBatch(tx, batch); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &apperr.ConcurrencyConflictError{Op: "shipment batch " + req.BatchNo}
			}
			return err
		}
		// Membership is persisted above, so the shipped guard sees it.
		for _, unitID := range req.UnitIDs {
			unit, err := s.unitRepo.LockByID(tx, unitID)
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("unit", unitID.String())
			}
			if err != nil {
				return err
			}
			if err := s.lifecycle.TransitionTx(tx, unit, model.StatusShipped, "shipment "+req.BatchNo, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.wsHub.Publish(ws.Event{
		Type:    "shipment",
		Action:  "created",
		Payload: batch,
		Actor:   actor,
		Message: fmt.Sprintf("batch %s shipped with %d units", batch.BatchNo, len(batch.Items)),
	})
	return batch, nil
}

func (s *shipmentService) GetBatch(id uuid.UUID) (*model.ShipmentBatch, error) {
	batch, err := s.shipmentRepo.FindBatchByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("shipment batch", id.String())
	}
	return batch, err
}

func (s *shipmentService) GetBatches() ([]model.ShipmentBatch, error) {
	return s.shipmentRepo.ListBatches()
}

// RecordAssembly stores the vehicle-assembly record and moves the unit from
// shipped to installed in the same transaction.
func (s *shipmentService) RecordAssembly(req RecordAssemblyRequest, actor string) (*model.VehicleAssembly, error) {
	assembly := &model.VehicleAssembly{
		UnitID:      req.UnitID,
		VehicleNo:   req.VehicleNo,
		AssembledAt: time.Now(),
		Note:        req.Note,
	}
	if errs := validator.ValidateStruct(assembly); len(errs) > 0 {
		return nil, apperr.Validation(errs[0].FailedField, "failed "+errs[0].Tag+" validation")
	}
	assembly.CreatedBy = actor
	assembly.UpdatedBy = actor

	err := s.db.Transaction(func(tx *gorm.DB) error {
		unit, err := s.unitRepo.LockByID(tx, req.UnitID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("unit", req.UnitID.String())
		}
		if err != nil {
			return err
		}
		if err := s.shipmentRepo.CreateAssembly(tx, assembly); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &apperr.ConcurrencyConflictError{Op: "assembly for unit " + req.UnitID.String()}
			}
			return err
		}
		return s.lifecycle.TransitionTx(tx, unit, model.StatusInstalled, "assembled into "+req.VehicleNo, actor)
	})
	if err != nil {
		return nil, err
	}

	s.wsHub.Publish(ws.Event{
		Type:    "shipment",
		Action:  "assembly_recorded",
		Payload: assembly,
		Actor:   actor,
		Message: fmt.Sprintf("unit %s assembled into vehicle %s", req.UnitID, req.VehicleNo),
	})
	return assembly, nil
}
