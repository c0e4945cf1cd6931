package service

import (
	"database/sql"
	"errors"
	"sort"
	"time"

	"go-gearbox-mes/internal/model"
	"go-gearbox-mes/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory fakes for driving the transactional services without Postgres.
// Only behavior a test observes is implemented with care; the rest returns
// zero values.

type fakeTxRunner struct{}

func (fakeTxRunner) Transaction(fc func(tx *gorm.DB) error, _ ...*sql.TxOptions) error {
	return fc(nil)
}

func uuidPtrEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type fakeMaterialRepo struct {
	materials map[uuid.UUID]*model.Material
	lots      []*model.StockLot
	movements []*model.StockMovement

	lotRemainingUpdates int
}

func newFakeMaterialRepo(mats ...*model.Material) *fakeMaterialRepo {
	r := &fakeMaterialRepo{materials: make(map[uuid.UUID]*model.Material)}
	for _, m := range mats {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		r.materials[m.ID] = m
	}
	return r
}

func (r *fakeMaterialRepo) addLot(materialID uuid.UUID, lotNo, remaining string, entry time.Time) *model.StockLot {
	qty := decimal.RequireFromString(remaining)
	l := &model.StockLot{
		MaterialID: materialID,
		LotNo:      lotNo,
		Quantity:   qty,
		Remaining:  qty,
		EntryDate:  entry,
	}
	l.ID = uuid.New()
	r.lots = append(r.lots, l)
	return l
}

func (r *fakeMaterialRepo) Create(m *model.Material) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	r.materials[m.ID] = m
	return nil
}

func (r *fakeMaterialRepo) FindAll() ([]model.Material, error) {
	out := make([]model.Material, 0, len(r.materials))
	for _, m := range r.materials {
		out = append(out, *m)
	}
	return out, nil
}

func (r *fakeMaterialRepo) FindByID(id uuid.UUID) (*model.Material, error) {
	if m, ok := r.materials[id]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMaterialRepo) FindByCode(code string) (*model.Material, error) {
	for _, m := range r.materials {
		if m.Code == code {
			cp := *m
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMaterialRepo) FindByIDs(ids []uuid.UUID) ([]model.Material, error) {
	out := make([]model.Material, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.materials[id]; ok {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMaterialRepo) LockByIDs(_ *gorm.DB, ids []uuid.UUID) ([]model.Material, error) {
	return r.FindByIDs(ids)
}

func (r *fakeMaterialRepo) UpdateStock(_ *gorm.DB, id uuid.UUID, newStock decimal.Decimal, updatedBy string) error {
	m, ok := r.materials[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.CurrentStock = newStock
	m.UpdatedBy = updatedBy
	return nil
}

func (r *fakeMaterialRepo) CountBelowMin() (int64, error) { return 0, nil }

func (r *fakeMaterialRepo) CreateLot(_ *gorm.DB, lot *model.StockLot) error {
	if lot.ID == uuid.Nil {
		lot.ID = uuid.New()
	}
	cp := *lot
	r.lots = append(r.lots, &cp)
	return nil
}

func (r *fakeMaterialRepo) FindLotByID(id uuid.UUID) (*model.StockLot, error) {
	for _, l := range r.lots {
		if l.ID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMaterialRepo) LockLot(tx *gorm.DB, id uuid.UUID) (*model.StockLot, error) {
	return r.FindLotByID(id)
}

func (r *fakeMaterialRepo) LockLotsFIFO(_ *gorm.DB, materialID uuid.UUID) ([]model.StockLot, error) {
	var out []model.StockLot
	for _, l := range r.lots {
		if l.MaterialID == materialID && l.Remaining.Sign() > 0 {
			out = append(out, *l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].EntryDate.Before(out[j].EntryDate) })
	return out, nil
}

func (r *fakeMaterialRepo) UpdateLotRemaining(_ *gorm.DB, id uuid.UUID, remaining decimal.Decimal) error {
	for _, l := range r.lots {
		if l.ID == id {
			l.Remaining = remaining
			r.lotRemainingUpdates++
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeMaterialRepo) FindLotsByMaterial(materialID uuid.UUID) ([]model.StockLot, error) {
	var out []model.StockLot
	for _, l := range r.lots {
		if l.MaterialID == materialID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *fakeMaterialRepo) CreateMovement(_ *gorm.DB, mv *model.StockMovement) error {
	if mv.ID == uuid.Nil {
		mv.ID = uuid.New()
	}
	cp := *mv
	r.movements = append(r.movements, &cp)
	return nil
}

func (r *fakeMaterialRepo) ListMovements(materialID *uuid.UUID, _ int) ([]model.StockMovement, error) {
	var out []model.StockMovement
	for _, mv := range r.movements {
		if materialID == nil || mv.MaterialID == *materialID {
			out = append(out, *mv)
		}
	}
	return out, nil
}

func (r *fakeMaterialRepo) GetMovementSeries(_, _ time.Time) ([]repository.MovementSeriesPoint, error) {
	return nil, nil
}

type fakeUnitRepo struct {
	units      map[uuid.UUID]*model.Unit
	mappings   []*model.PartMapping
	statusLogs []*model.UnitStatusLog

	serial      int
	serialCalls int
	created     int
}

func newFakeUnitRepo(units ...*model.Unit) *fakeUnitRepo {
	r := &fakeUnitRepo{units: make(map[uuid.UUID]*model.Unit)}
	for _, u := range units {
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		r.units[u.ID] = u
	}
	return r
}

func (r *fakeUnitRepo) Create(_ *gorm.DB, unit *model.Unit) error {
	if unit.ID == uuid.Nil {
		unit.ID = uuid.New()
	}
	r.units[unit.ID] = unit
	r.created++
	return nil
}

func (r *fakeUnitRepo) FindByID(id uuid.UUID) (*model.Unit, error) {
	if u, ok := r.units[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUnitRepo) FindBySerial(serial string) (*model.Unit, error) {
	for _, u := range r.units {
		if u.SerialNo == serial {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUnitRepo) LockByID(_ *gorm.DB, id uuid.UUID) (*model.Unit, error) {
	return r.FindByID(id)
}

func (r *fakeUnitRepo) FindAll(status *model.UnitStatus) ([]model.Unit, error) {
	var out []model.Unit
	for _, u := range r.units {
		if status == nil || u.Status == *status {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUnitRepo) UpdateStatus(_ *gorm.DB, id uuid.UUID, status model.UnitStatus, updatedBy string) error {
	u, ok := r.units[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Status = status
	u.UpdatedBy = updatedBy
	return nil
}

func (r *fakeUnitRepo) Save(_ *gorm.DB, unit *model.Unit) error {
	r.units[unit.ID] = unit
	return nil
}

func (r *fakeUnitRepo) CountByStatus() (map[model.UnitStatus]int64, error) {
	out := make(map[model.UnitStatus]int64)
	for _, u := range r.units {
		out[u.Status]++
	}
	return out, nil
}

func (r *fakeUnitRepo) NextSerial(_ *gorm.DB, _, _ string) (int, error) {
	r.serialCalls++
	r.serial++
	return r.serial, nil
}

func (r *fakeUnitRepo) CreateMapping(_ *gorm.DB, mapping *model.PartMapping) error {
	if mapping.ID == uuid.Nil {
		mapping.ID = uuid.New()
	}
	cp := *mapping
	r.mappings = append(r.mappings, &cp)
	return nil
}

func (r *fakeUnitRepo) FindMappings(unitID uuid.UUID) ([]model.PartMapping, error) {
	var out []model.PartMapping
	for _, m := range r.mappings {
		if m.UnitID == unitID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeUnitRepo) SumMappedByMaterial(_ *gorm.DB, unitID uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal)
	for _, m := range r.mappings {
		if m.UnitID == unitID {
			out[m.MaterialID] = out[m.MaterialID].Add(m.Quantity)
		}
	}
	return out, nil
}

func (r *fakeUnitRepo) CreateStatusLog(_ *gorm.DB, log *model.UnitStatusLog) error {
	cp := *log
	r.statusLogs = append(r.statusLogs, &cp)
	return nil
}

func (r *fakeUnitRepo) ListStatusLogs(unitID uuid.UUID) ([]model.UnitStatusLog, error) {
	var out []model.UnitStatusLog
	for _, l := range r.statusLogs {
		if l.UnitID == unitID {
			out = append(out, *l)
		}
	}
	return out, nil
}

type fakeInspectionRepo struct {
	inspections     map[uuid.UUID]*model.Inspection
	nonconformances []*model.Nonconformance

	deletedMeasurements int
}

func newFakeInspectionRepo() *fakeInspectionRepo {
	return &fakeInspectionRepo{inspections: make(map[uuid.UUID]*model.Inspection)}
}

func (r *fakeInspectionRepo) Create(_ *gorm.DB, inspection *model.Inspection) error {
	return r.Save(nil, inspection)
}

func (r *fakeInspectionRepo) Save(_ *gorm.DB, inspection *model.Inspection) error {
	if inspection.ID == uuid.Nil {
		inspection.ID = uuid.New()
	}
	r.inspections[inspection.ID] = inspection
	return nil
}

func (r *fakeInspectionRepo) FindByID(id uuid.UUID) (*model.Inspection, error) {
	if in, ok := r.inspections[id]; ok {
		return in, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeInspectionRepo) FindDraft(_ *gorm.DB, planRevisionID uuid.UUID, unitID, materialID *uuid.UUID) (*model.Inspection, error) {
	for _, in := range r.inspections {
		if in.IsDraft && in.PlanRevisionID == planRevisionID &&
			uuidPtrEqual(in.UnitID, unitID) && uuidPtrEqual(in.MaterialID, materialID) {
			return in, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeInspectionRepo) DeleteMeasurements(_ *gorm.DB, inspectionID uuid.UUID) error {
	r.deletedMeasurements++
	if in, ok := r.inspections[inspectionID]; ok {
		in.Measurements = nil
	}
	return nil
}

func (r *fakeInspectionRepo) LatestFinalized(_ *gorm.DB, unitID uuid.UUID) (*model.Inspection, error) {
	var latest *model.Inspection
	for _, in := range r.inspections {
		if !in.IsDraft && in.UnitID != nil && *in.UnitID == unitID {
			if latest == nil || in.CreatedAt.After(latest.CreatedAt) {
				latest = in
			}
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (r *fakeInspectionRepo) ListByUnit(unitID uuid.UUID) ([]model.Inspection, error) {
	var out []model.Inspection
	for _, in := range r.inspections {
		if in.UnitID != nil && *in.UnitID == unitID {
			out = append(out, *in)
		}
	}
	return out, nil
}

func (r *fakeInspectionRepo) CreateNonconformance(_ *gorm.DB, nc *model.Nonconformance) error {
	if nc.ID == uuid.Nil {
		nc.ID = uuid.New()
	}
	r.nonconformances = append(r.nonconformances, nc)
	return nil
}

type fakeQuarantineRepo struct {
	items map[uuid.UUID]*model.QuarantineItem
}

func newFakeQuarantineRepo(items ...*model.QuarantineItem) *fakeQuarantineRepo {
	r := &fakeQuarantineRepo{items: make(map[uuid.UUID]*model.QuarantineItem)}
	for _, it := range items {
		if it.ID == uuid.Nil {
			it.ID = uuid.New()
		}
		r.items[it.ID] = it
	}
	return r
}

func (r *fakeQuarantineRepo) Create(_ *gorm.DB, item *model.QuarantineItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	r.items[item.ID] = item
	return nil
}

func (r *fakeQuarantineRepo) FindByID(id uuid.UUID) (*model.QuarantineItem, error) {
	if it, ok := r.items[id]; ok {
		return it, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeQuarantineRepo) LockByID(_ *gorm.DB, id uuid.UUID) (*model.QuarantineItem, error) {
	return r.FindByID(id)
}

func (r *fakeQuarantineRepo) Save(_ *gorm.DB, item *model.QuarantineItem) error {
	r.items[item.ID] = item
	return nil
}

func (r *fakeQuarantineRepo) FindAll(state *model.QuarantineState) ([]model.QuarantineItem, error) {
	var out []model.QuarantineItem
	for _, it := range r.items {
		if state == nil || it.State == *state {
			out = append(out, *it)
		}
	}
	return out, nil
}

func (r *fakeQuarantineRepo) CountOpen() (int64, error) {
	var n int64
	for _, it := range r.items {
		if it.State == model.QuarantineOpen {
			n++
		}
	}
	return n, nil
}

type fakeBomRepo struct {
	active map[string]*model.BomRevision
}

func newFakeBomRepo(revs ...*model.BomRevision) *fakeBomRepo {
	r := &fakeBomRepo{active: make(map[string]*model.BomRevision)}
	for _, rev := range revs {
		if rev.ID == uuid.Nil {
			rev.ID = uuid.New()
		}
		r.active[rev.Model] = rev
	}
	return r
}

func (r *fakeBomRepo) GetActive(modelCode string) (*model.BomRevision, error) {
	if rev, ok := r.active[modelCode]; ok {
		return rev, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBomRepo) FindByID(id uuid.UUID) (*model.BomRevision, error) {
	for _, rev := range r.active {
		if rev.ID == id {
			return rev, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeBomRepo) ListByModel(modelCode string) ([]model.BomRevision, error) {
	if rev, ok := r.active[modelCode]; ok {
		return []model.BomRevision{*rev}, nil
	}
	return nil, nil
}

func (r *fakeBomRepo) ActivateRevision(_ *gorm.DB, rev *model.BomRevision) error {
	if rev.ID == uuid.Nil {
		rev.ID = uuid.New()
	}
	rev.IsActive = true
	r.active[rev.Model] = rev
	return nil
}

type fakePlanRepo struct {
	revisions map[uuid.UUID]*model.ControlPlanRevision
}

func newFakePlanRepo(revs ...*model.ControlPlanRevision) *fakePlanRepo {
	r := &fakePlanRepo{revisions: make(map[uuid.UUID]*model.ControlPlanRevision)}
	for _, rev := range revs {
		if rev.ID == uuid.Nil {
			rev.ID = uuid.New()
		}
		for i := range rev.Items {
			if rev.Items[i].ID == uuid.Nil {
				rev.Items[i].ID = uuid.New()
			}
		}
		r.revisions[rev.ID] = rev
	}
	return r
}

func (r *fakePlanRepo) GetActiveForModel(modelCode string) (*model.ControlPlanRevision, error) {
	for _, rev := range r.revisions {
		if rev.IsActive && rev.Scope == model.PlanScopeModel && rev.Model == modelCode {
			return rev, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePlanRepo) GetActiveForMaterial(materialID uuid.UUID) (*model.ControlPlanRevision, error) {
	for _, rev := range r.revisions {
		if rev.IsActive && rev.Scope == model.PlanScopeMaterial && rev.MaterialID != nil && *rev.MaterialID == materialID {
			return rev, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePlanRepo) FindByID(id uuid.UUID) (*model.ControlPlanRevision, error) {
	if rev, ok := r.revisions[id]; ok {
		return rev, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakePlanRepo) ActivateRevision(_ *gorm.DB, rev *model.ControlPlanRevision) error {
	if rev.ID == uuid.Nil {
		rev.ID = uuid.New()
	}
	rev.IsActive = true
	r.revisions[rev.ID] = rev
	return nil
}

type fakeLifecycle struct {
	transitions []model.UnitStatus
}

func (f *fakeLifecycle) Transition(_ uuid.UUID, _ model.UnitStatus, _, _ string) (*model.Unit, error) {
	return nil, errors.New("not supported by fake")
}

func (f *fakeLifecycle) TransitionTx(_ *gorm.DB, unit *model.Unit, to model.UnitStatus, _, _ string) error {
	unit.Status = to
	f.transitions = append(f.transitions, to)
	return nil
}
