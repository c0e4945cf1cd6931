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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UnitService creates gearbox units with bulk BOM allocation and handles
// manual part kitting. All mutations are single transactions: a shortage
// aborts everything, nothing is consumed.
type UnitService interface {
	CreateUnit(req CreateUnitRequest, actor string) (*model.Unit, error)
	MapPart(req MapPartRequest, actor string) (*model.PartMapping, error)
	GetUnit(id uuid.UUID) (*model.Unit, error)
	GetUnits(status *model.UnitStatus) ([]model.Unit, error)
	GetMappings(unitID uuid.UUID) ([]model.PartMapping, error)
	GetStatusLogs(unitID uuid.UUID) ([]model.UnitStatusLog, error)
}

type CreateUnitRequest struct {
	Model       string     `json:"model"`
	Date        *time.Time `json:"date,omitempty"` // production date for the serial; defaults to today
	Responsible string     `json:"responsible,omitempty"`
}

type MapPartRequest struct {
	UnitID     uuid.UUID       `json:"unit_id"`
	MaterialID uuid.UUID       `json:"material_id"`
	LotID      uuid.UUID       `json:"lot_id"`
	Quantity   decimal.Decimal `json:"quantity"`
}

type unitService struct {
	unitRepo     repository.UnitRepository
	bomRepo      repository.BomRepository
	materialRepo repository.MaterialRepository
	db           txRunner
	wsHub        *ws.Hub
}

func NewUnitService(unitRepo repository.UnitRepository, bomRepo repository.BomRepository, materialRepo repository.MaterialRepository, db *gorm.DB, hub *ws.Hub) UnitService {
	return &unitService{
		unitRepo:     unitRepo,
		bomRepo:      bomRepo,
		materialRepo: materialRepo,
		db:           db,
		wsHub:        hub,
	}
}

func (s *unitService) CreateUnit(req CreateUnitRequest, actor string) (*model.Unit, error) {
	if req.Model == "" {
		return nil, apperr.Validation("model", "must not be empty")
	}
	prodDate := time.Now()
	if req.Date != nil {
		prodDate = *req.Date
	}

	rev, err := s.bomRepo.GetActive(req.Model)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("active BOM revision", req.Model)
	}
	if err != nil {
		return nil, err
	}

	var unit *model.Unit
	var drawCount int
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Authoritative shortage check: lock every BOM material, then
		// re-validate against locked stock. The standalone capacity query
		// may have said yes moments ago; only this check counts.
		ids := make([]uuid.UUID, 0, len(rev.Items))
		for _, item := range rev.Items {
			ids = append(ids, item.MaterialID)
		}
		mats, lockErr := s.materialRepo.LockByIDs(tx, ids)
		if lockErr != nil {
			return lockErr
		}
		stockByID := make(map[uuid.UUID]model.Material, len(mats))
		for _, m := range mats {
			stockByID[m.ID] = m
		}

		if shortages := ComputeShortages(rev.Items, stockByID); len(shortages) > 0 {
			return &apperr.ShortageError{Items: shortages}
		}

		seq, serialErr := s.unitRepo.NextSerial(tx, prodDate.Format("20060102"), req.Model)
		if serialErr != nil {
			return serialErr
		}

		unit = &model.Unit{
			SerialNo:             model.FormatSerial(req.Model, prodDate, seq),
			Model:                req.Model,
			Status:               model.StatusProducing,
			BomRevisionID:        rev.ID,
			PartsMappingComplete: true, // bulk allocation covers every BOM item
			Responsible:          req.Responsible,
		}
		unit.CreatedBy = actor
		unit.UpdatedBy = actor
		if createErr := s.unitRepo.Create(tx, unit); createErr != nil {
			if errors.Is(createErr, gorm.ErrDuplicatedKey) {
				return &apperr.ConcurrencyConflictError{Op: "serial number allocation"}
			}
			return createErr
		}

		// Deduct per BOM item, oldest lots first.
		for _, item := range rev.Items {
			if item.QtyPerUnit.Sign() <= 0 {
				continue
			}
			mat := stockByID[item.MaterialID]
			lots, lotErr := s.materialRepo.LockLotsFIFO(tx, item.MaterialID)
			if lotErr != nil {
				return lotErr
			}
			draws, uncovered := PlanLotDraws(item.QtyPerUnit, lots)
			if uncovered.Sign() > 0 {
				// Aggregate said enough but the lots disagree: the ledger
				// invariant was broken by a concurrent writer.
				return &apperr.ConcurrencyConflictError{Op: "lot allocation for " + mat.Code}
			}
			for _, draw := range draws {
				lot := draw.Lot
				if _, consumeErr := consumeLotTx(tx, s.materialRepo, &mat, &lot, draw.Qty, actor, unit.SerialNo); consumeErr != nil {
					return consumeErr
				}
				mapping := &model.PartMapping{
					UnitID:     unit.ID,
					MaterialID: item.MaterialID,
					LotID:      lot.ID,
					Quantity:   draw.Qty,
				}
				mapping.CreatedBy = actor
				mapping.UpdatedBy = actor
				if mapErr := s.unitRepo.CreateMapping(tx, mapping); mapErr != nil {
					return mapErr
				}
				drawCount++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.UnitsCreated.WithLabelValues(req.Model).Inc()
	// One movement row per lot draw, so count the draws, not the unit.
	metrics.StockMovements.WithLabelValues(string(model.MovementConsume)).Add(float64(drawCount))
	s.wsHub.Publish(ws.Event{
		Type:    "unit_status",
		Action:  "unit_created",
		Payload: unit,
		Actor:   actor,
		Message: fmt.Sprintf("unit %s created (model %s)", unit.SerialNo, unit.Model),
	})
	return unit, nil
}

func (s *unitService) MapPart(req MapPartRequest, actor string) (*model.PartMapping, error) {
	if req.Quantity.Sign() <= 0 {
		return nil, apperr.Validation("quantity", "must be positive")
	}

	var mapping *model.PartMapping
	err := s.db.Transaction(func(tx *gorm.DB) error {
		unit, err := s.unitRepo.LockByID(tx, req.UnitID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("unit", req.UnitID.String())
		}
		if err != nil {
			return err
		}
		if unit.Status != model.StatusProducing && unit.Status != model.StatusRevisionReturn {
			return &apperr.GuardViolationError{
				From:   string(unit.Status),
				To:     string(unit.Status),
				Reason: "parts can only be mapped while producing or in rework",
			}
		}

		mats, err := s.materialRepo.LockByIDs(tx, []uuid.UUID{req.MaterialID})
		if err != nil {
			return err
		}
		if len(mats) == 0 {
			return apperr.NotFound("material", req.MaterialID.String())
		}
		mat := mats[0]

		lot, err := s.materialRepo.LockLot(tx, req.LotID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("lot", req.LotID.String())
		}
		if err != nil {
			return err
		}
		if lot.MaterialID != mat.ID {
			return apperr.Validation("lot_id", "lot does not belong to the given material")
		}

		if _, err := consumeLotTx(tx, s.materialRepo, &mat, lot, req.Quantity, actor, unit.SerialNo); err != nil {
			return err
		}

		mapping = &model.PartMapping{
			UnitID:     unit.ID,
			MaterialID: mat.ID,
			LotID:      lot.ID,
			Quantity:   req.Quantity,
		}
		mapping.CreatedBy = actor
		mapping.UpdatedBy = actor
		if err := s.unitRepo.CreateMapping(tx, mapping); err != nil {
			return err
		}

		complete, err := s.mappingComplete(tx, unit)
		if err != nil {
			return err
		}
		if complete != unit.PartsMappingComplete {
			unit.PartsMappingComplete = complete
			unit.UpdatedBy = actor
			if err := s.unitRepo.Save(tx, unit); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.StockMovements.WithLabelValues(string(model.MovementConsume)).Inc()
	s.wsHub.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "part_mapped",
		Payload: mapping,
		Actor:   actor,
	})
	return mapping, nil
}

// mappingComplete checks whether every BOM item of the unit's bound revision
// is covered by mapped quantities. Over-allocation is not capped.
func (s *unitService) mappingComplete(tx *gorm.DB, unit *model.Unit) (bool, error) {
	rev, err := s.bomRepo.FindByID(unit.BomRevisionID)
	if err != nil {
		return false, err
	}
	sums, err := s.unitRepo.SumMappedByMaterial(tx, unit.ID)
	if err != nil {
		return false, err
	}
	for _, item := range rev.Items {
		if item.QtyPerUnit.Sign() <= 0 {
			continue
		}
		if sums[item.MaterialID].LessThan(item.QtyPerUnit) {
			return false, nil
		}
	}
	return true, nil
}

func (s *unitService) GetUnit(id uuid.UUID) (*model.Unit, error) {
	unit, err := s.unitRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("unit", id.String())
	}
	return unit, err
}

func (s *unitService) GetUnits(status *model.UnitStatus) ([]model.Unit, error) {
	return s.unitRepo.FindAll(status)
}

func (s *unitService) GetMappings(unitID uuid.UUID) ([]model.PartMapping, error) {
	return s.unitRepo.FindMappings(unitID)
}

func (s *unitService) GetStatusLogs(unitID uuid.UUID) ([]model.UnitStatusLog, error) {
	return s.unitRepo.ListStatusLogs(unitID)
}
