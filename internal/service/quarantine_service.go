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

type QuarantineService interface {
	GetItems(state *model.QuarantineState) ([]model.QuarantineItem, error)
	GetItem(id uuid.UUID) (*model.QuarantineItem, error)
	Decide(id uuid.UUID, req DecideQuarantineRequest, actor string) (*model.QuarantineItem, error)
}

type DecideQuarantineRequest struct {
	Disposition model.QuarantineState `json:"disposition"`
	Note        string                `json:"note,omitempty"`
}

type quarantineService struct {
	quarantineRepo repository.QuarantineRepository
	materialRepo   repository.MaterialRepository
	db             txRunner
	wsHub          *ws.Hub
}

func NewQuarantineService(quarantineRepo repository.QuarantineRepository, materialRepo repository.MaterialRepository, db *gorm.DB, hub *ws.Hub) QuarantineService {
	return &quarantineService{
		quarantineRepo: quarantineRepo,
		materialRepo:   materialRepo,
		db:             db,
		wsHub:          hub,
	}
}

func (s *quarantineService) GetItems(state *model.QuarantineState) ([]model.QuarantineItem, error) {
	return s.quarantineRepo.FindAll(state)
}

func (s *quarantineService) GetItem(id uuid.UUID) (*model.QuarantineItem, error) {
	item, err := s.quarantineRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("quarantine item", id.String())
	}
	return item, err
}

// Decide closes a quarantine item. A release receives the held quantity as a
// fresh lot; the originally rejected delivery never re-enters stock under its
// own identity. A return records the disposition and nothing else.
func (s *quarantineService) Decide(id uuid.UUID, req DecideQuarantineRequest, actor string) (*model.QuarantineItem, error) {
	if req.Disposition != model.QuarantineReturned && req.Disposition != model.QuarantineReleased {
		return nil, apperr.Validation("disposition", "must be returned or released")
	}

	var item *model.QuarantineItem
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var lockErr error
		item, lockErr = s.quarantineRepo.LockByID(tx, id)
		if errors.Is(lockErr, gorm.ErrRecordNotFound) {
			return apperr.NotFound("quarantine item", id.String())
		}
		if lockErr != nil {
			return lockErr
		}
		if item.State != model.QuarantineOpen {
			return &apperr.GuardViolationError{
				From:   string(item.State),
				To:     string(req.Disposition),
				Reason: "quarantine item already decided",
			}
		}

		if req.Disposition == model.QuarantineReleased {
			lot, err := receiveLotTx(tx, s.materialRepo, receiveLotParams{
				MaterialID: item.MaterialID,
				SupplierID: item.SupplierID,
				InvoiceNo:  item.InvoiceNo,
				LotNo:      fmt.Sprintf("%s-REL-%s", item.LotNo, time.Now().Format("20060102")),
				Quantity:   item.Quantity,
				Actor:      actor,
				Reference:  "quarantine release " + item.ID.String(),
			})
			if err != nil {
				return err
			}
			item.ReleasedLotID = &lot.ID
		}

		now := time.Now()
		item.State = req.Disposition
		item.DecisionNote = req.Note
		item.DecidedBy = actor
		item.DecidedAt = &now
		item.UpdatedBy = actor
		return s.quarantineRepo.Save(tx, item)
	})
	if err != nil {
		return nil, err
	}

	metrics.QuarantineDecisions.WithLabelValues(string(req.Disposition)).Inc()
	s.wsHub.Publish(ws.Event{
		Type:    "quarantine",
		Action:  "decided",
		Payload: item,
		Actor:   actor,
		Message: fmt.Sprintf("quarantine item %s %s", item.ID, req.Disposition),
	})
	return item, nil
}
