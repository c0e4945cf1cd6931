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
	"go-gearbox-mes/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService owns material master data and the stock ledger: aggregate
// stock, individual lots, and the immutable movement journal.
type LedgerService interface {
	CreateMaterial(req *model.Material, actor string) error
	GetMaterials() ([]model.Material, error)
	GetMaterial(id uuid.UUID) (*model.Material, error)
	GetMaterialLots(id uuid.UUID) ([]model.StockLot, error)
	ReceiveStock(req ReceiveStockRequest, actor string) (*model.StockLot, error)
	GetMovements(materialID *uuid.UUID, limit int) ([]model.StockMovement, error)
}

// ReceiveStockRequest describes a verified goods receipt.
type ReceiveStockRequest struct {
	MaterialID uuid.UUID       `json:"material_id"`
	SupplierID *uuid.UUID      `json:"supplier_id,omitempty"`
	InvoiceNo  string          `json:"invoice_no"`
	LotNo      string          `json:"lot_no"`
	Quantity   decimal.Decimal `json:"quantity"`
	EntryDate  *time.Time      `json:"entry_date,omitempty"`
}

type ledgerService struct {
	materialRepo repository.MaterialRepository
	db           txRunner
	wsHub        *ws.Hub
}

func NewLedgerService(materialRepo repository.MaterialRepository, db *gorm.DB, hub *ws.Hub) LedgerService {
	return &ledgerService{
		materialRepo: materialRepo,
		db:           db,
		wsHub:        hub,
	}
}

func (s *ledgerService) CreateMaterial(req *model.Material, actor string) error {
	if errs := validator.ValidateStruct(req); len(errs) > 0 {
		first := errs[0]
		return apperr.Validation(first.FailedField, "failed on tag '"+first.Tag+"'")
	}
	if req.CurrentStock.Sign() != 0 {
		return apperr.Validation("current_stock", "initial stock must be received as a lot, not set directly")
	}

	existing, _ := s.materialRepo.FindByCode(req.Code)
	if existing != nil && existing.ID != uuid.Nil {
		return apperr.Validation("code", "material code already exists")
	}

	req.CreatedBy = actor
	req.UpdatedBy = actor
	return s.materialRepo.Create(req)
}

func (s *ledgerService) GetMaterials() ([]model.Material, error) {
	return s.materialRepo.FindAll()
}

func (s *ledgerService) GetMaterial(id uuid.UUID) (*model.Material, error) {
	mat, err := s.materialRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("material", id.String())
	}
	return mat, err
}

func (s *ledgerService) GetMaterialLots(id uuid.UUID) ([]model.StockLot, error) {
	if _, err := s.GetMaterial(id); err != nil {
		return nil, err
	}
	return s.materialRepo.FindLotsByMaterial(id)
}

func (s *ledgerService) ReceiveStock(req ReceiveStockRequest, actor string) (*model.StockLot, error) {
	if req.Quantity.Sign() <= 0 {
		return nil, apperr.Validation("quantity", "must be positive")
	}

	var lot *model.StockLot
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		lot, txErr = receiveLotTx(tx, s.materialRepo, receiveLotParams{
			MaterialID: req.MaterialID,
			SupplierID: req.SupplierID,
			InvoiceNo:  req.InvoiceNo,
			LotNo:      req.LotNo,
			Quantity:   req.Quantity,
			EntryDate:  req.EntryDate,
			Actor:      actor,
			Reference:  "goods receipt",
		})
		return txErr
	})
	if err != nil {
		return nil, err
	}

	metrics.StockMovements.WithLabelValues(string(model.MovementReceive)).Inc()
	s.wsHub.Publish(ws.Event{
		Type:    "stock_update",
		Action:  "stock_received",
		Payload: lot,
		Actor:   actor,
		Message: fmt.Sprintf("received %s of material %s (lot %s)", req.Quantity, req.MaterialID, lot.LotNo),
	})
	return lot, nil
}

func (s *ledgerService) GetMovements(materialID *uuid.UUID, limit int) ([]model.StockMovement, error) {
	return s.materialRepo.ListMovements(materialID, limit)
}

type receiveLotParams struct {
	MaterialID uuid.UUID
	SupplierID *uuid.UUID
	InvoiceNo  string
	LotNo      string
	Quantity   decimal.Decimal
	EntryDate  *time.Time
	Actor      string
	Reference  string
}

// receiveLotTx creates a lot with remaining = quantity, bumps the aggregate
// stock and appends the movement, all on the caller's transaction. Shared by
// goods receipt, passed material inspections and quarantine release.
func receiveLotTx(tx *gorm.DB, materialRepo repository.MaterialRepository, p receiveLotParams) (*model.StockLot, error) {
	mats, err := materialRepo.LockByIDs(tx, []uuid.UUID{p.MaterialID})
	if err != nil {
		return nil, err
	}
	if len(mats) == 0 {
		return nil, apperr.NotFound("material", p.MaterialID.String())
	}
	mat := mats[0]

	entry := time.Now()
	if p.EntryDate != nil {
		entry = *p.EntryDate
	}
	lot := &model.StockLot{
		MaterialID: p.MaterialID,
		SupplierID: p.SupplierID,
		InvoiceNo:  p.InvoiceNo,
		LotNo:      p.LotNo,
		Quantity:   p.Quantity,
		Remaining:  p.Quantity,
		EntryDate:  entry,
	}
	lot.CreatedBy = p.Actor
	lot.UpdatedBy = p.Actor
	if err := materialRepo.CreateLot(tx, lot); err != nil {
		return nil, err
	}

	if err := materialRepo.UpdateStock(tx, mat.ID, mat.CurrentStock.Add(p.Quantity), p.Actor); err != nil {
		return nil, err
	}

	mv := &model.StockMovement{
		Type:       model.MovementReceive,
		MaterialID: mat.ID,
		LotID:      lot.ID,
		Quantity:   p.Quantity,
		Actor:      p.Actor,
		Reference:  p.Reference,
	}
	if err := materialRepo.CreateMovement(tx, mv); err != nil {
		return nil, err
	}
	return lot, nil
}

// consumeLotTx deducts qty from a locked lot, bumps the aggregate stock down
// and appends the movement. The caller must have locked both the lot and its
// material rows; mat and lot are updated in place so chained deductions in
// the same transaction see the running values.
func consumeLotTx(tx *gorm.DB, materialRepo repository.MaterialRepository, mat *model.Material, lot *model.StockLot, qty decimal.Decimal, actor, reference string) (decimal.Decimal, error) {
	if qty.Sign() <= 0 {
		return mat.CurrentStock, apperr.Validation("quantity", "must be positive")
	}
	if qty.GreaterThan(lot.Remaining) {
		return mat.CurrentStock, &apperr.InsufficientStockError{
			MaterialCode: mat.Code,
			Requested:    qty,
			Available:    lot.Remaining,
		}
	}

	if err := materialRepo.UpdateLotRemaining(tx, lot.ID, lot.Remaining.Sub(qty)); err != nil {
		return mat.CurrentStock, err
	}
	newStock := mat.CurrentStock.Sub(qty)
	if err := materialRepo.UpdateStock(tx, mat.ID, newStock, actor); err != nil {
		return mat.CurrentStock, err
	}

	mv := &model.StockMovement{
		Type:       model.MovementConsume,
		MaterialID: mat.ID,
		LotID:      lot.ID,
		Quantity:   qty,
		Actor:      actor,
		Reference:  reference,
	}
	if err := materialRepo.CreateMovement(tx, mv); err != nil {
		return mat.CurrentStock, err
	}

	lot.Remaining = lot.Remaining.Sub(qty)
	mat.CurrentStock = newStock
	return newStock, nil
}
