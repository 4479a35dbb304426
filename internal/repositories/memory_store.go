package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

// memoryState is the whole dataset. Transactions work on a clone and swap it
// in on commit.
type memoryState struct {
	properties map[uuid.UUID]models.Property
	roomTypes  map[uuid.UUID]models.RoomType
	rooms      map[uuid.UUID]models.Room
	tenants    map[uuid.UUID]*models.Tenant
	notices    map[uuid.UUID]models.Notice
	auditLogs  []models.OwnerAuditLog
}

func newMemoryState() *memoryState {
	return &memoryState{
		properties: make(map[uuid.UUID]models.Property),
		roomTypes:  make(map[uuid.UUID]models.RoomType),
		rooms:      make(map[uuid.UUID]models.Room),
		tenants:    make(map[uuid.UUID]*models.Tenant),
		notices:    make(map[uuid.UUID]models.Notice),
	}
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		properties: make(map[uuid.UUID]models.Property, len(s.properties)),
		roomTypes:  make(map[uuid.UUID]models.RoomType, len(s.roomTypes)),
		rooms:      make(map[uuid.UUID]models.Room, len(s.rooms)),
		tenants:    make(map[uuid.UUID]*models.Tenant, len(s.tenants)),
		notices:    make(map[uuid.UUID]models.Notice, len(s.notices)),
		auditLogs:  append([]models.OwnerAuditLog(nil), s.auditLogs...),
	}
	for k, v := range s.properties {
		c.properties[k] = v
	}
	for k, v := range s.roomTypes {
		c.roomTypes[k] = v
	}
	for k, v := range s.rooms {
		c.rooms[k] = v
	}
	for k, v := range s.tenants {
		c.tenants[k] = v.Clone()
	}
	for k, v := range s.notices {
		c.notices[k] = v
	}
	return c
}

// MemoryStore keeps everything in process. Transactions are serialized by a
// single writer lock, which also gives every GetForUpdate its lock semantics.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memoryState
	now   utils.Clock
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState(), now: time.Now}
}

func (s *MemoryStore) Repos() Repos {
	return (&memView{store: s}).repos()
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, (&memView{store: s, tx: work}).repos()); err != nil {
		return err
	}
	s.state = work
	return nil
}

// WithinReadTx holds the read lock for the whole call, so fn sees no
// commit that lands meanwhile.
func (s *MemoryStore) WithinReadTx(ctx context.Context, fn TxFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, (&memView{store: s, tx: s.state, readOnly: true}).repos())
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) Close() {}

/* ------------------------------------------------------------------
   View: either the committed state (locked per call) or a tx clone
------------------------------------------------------------------ */

type memView struct {
	store    *MemoryStore
	tx       *memoryState
	readOnly bool
}

var errReadOnlyTx = errors.New("write attempted in read-only transaction")

func (v *memView) repos() Repos {
	return Repos{
		Properties: &memPropertyRepo{v},
		RoomTypes:  &memRoomTypeRepo{v},
		Rooms:      &memRoomRepo{v},
		Tenants:    &memTenantRepo{v},
		Notices:    &memNoticeRepo{v},
		AuditLogs:  &memAuditLogRepo{v},
	}
}

func (v *memView) read(fn func(st *memoryState)) {
	if v.tx != nil {
		fn(v.tx)
		return
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	fn(v.store.state)
}

func (v *memView) write(fn func(st *memoryState) error) error {
	if v.readOnly {
		return errReadOnlyTx
	}
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.state)
}

func (v *memView) now() time.Time {
	return v.store.now()
}

func cloneIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

/* ---------- properties ---------- */

type memPropertyRepo struct{ v *memView }

func copyProperty(p models.Property) *models.Property {
	p.NoticeWindowLastDay = cloneIntPtr(p.NoticeWindowLastDay)
	p.RoomTypes = nil
	return &p
}

func (r *memPropertyRepo) Create(ctx context.Context, p *models.Property) error {
	return r.v.write(func(st *memoryState) error {
		if _, ok := st.properties[p.ID]; ok {
			return fmt.Errorf("property %s already exists", p.ID)
		}
		now := r.v.now()
		p.CreatedAt, p.UpdatedAt, p.RowVersion = now, now, 1
		st.properties[p.ID] = *copyProperty(*p)
		return nil
	})
}

func (r *memPropertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var out *models.Property
	r.v.read(func(st *memoryState) {
		if p, ok := st.properties[id]; ok {
			out = copyProperty(p)
		}
	})
	return out, nil
}

func (r *memPropertyRepo) list(filter func(models.Property) bool) []*models.Property {
	var out []*models.Property
	r.v.read(func(st *memoryState) {
		for _, p := range st.properties {
			if filter(p) {
				out = append(out, copyProperty(p))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *memPropertyRepo) ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.Property, error) {
	return r.list(func(p models.Property) bool { return p.OwnerID == ownerID }), nil
}

func (r *memPropertyRepo) ListAll(ctx context.Context) ([]*models.Property, error) {
	return r.list(func(models.Property) bool { return true }), nil
}

func (r *memPropertyRepo) UpdateIfVersion(ctx context.Context, p *models.Property, expected int64) (pgconn.CommandTag, error) {
	tag := updatedNone
	err := r.v.write(func(st *memoryState) error {
		cur, ok := st.properties[p.ID]
		if !ok || cur.RowVersion != expected {
			return nil
		}
		next := *copyProperty(*p)
		next.OwnerID, next.CreatedAt = cur.OwnerID, cur.CreatedAt
		next.UpdatedAt = r.v.now()
		next.RowVersion = expected + 1
		st.properties[p.ID] = next
		tag = updatedOne
		return nil
	})
	return tag, err
}

func (r *memPropertyRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Property) error) error {
	return WithRetry(ctx, defaultMaxRetries, id, r.GetByID, r.UpdateIfVersion, mutate)
}

/* ---------- room types ---------- */

type memRoomTypeRepo struct{ v *memView }

func (r *memRoomTypeRepo) Create(ctx context.Context, rt *models.RoomType) error {
	return r.v.write(func(st *memoryState) error {
		for _, other := range st.roomTypes {
			if other.PropertyID == rt.PropertyID && other.Category == rt.Category {
				return fmt.Errorf("%w: %s", utils.ErrDuplicateRoomType, rt.Category)
			}
		}
		now := r.v.now()
		rt.CreatedAt, rt.UpdatedAt, rt.RowVersion = now, now, 1
		st.roomTypes[rt.ID] = *rt
		return nil
	})
}

func (r *memRoomTypeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.RoomType, error) {
	var out *models.RoomType
	r.v.read(func(st *memoryState) {
		if rt, ok := st.roomTypes[id]; ok {
			out = &rt
		}
	})
	return out, nil
}

func (r *memRoomTypeRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.RoomType, error) {
	return r.GetByID(ctx, id)
}

func (r *memRoomTypeRepo) ListByPropertyID(ctx context.Context, propID uuid.UUID) ([]*models.RoomType, error) {
	var out []*models.RoomType
	r.v.read(func(st *memoryState) {
		for _, rt := range st.roomTypes {
			if rt.PropertyID == propID {
				rt := rt
				out = append(out, &rt)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return bedsOf(out[i].Category) < bedsOf(out[j].Category) })
	return out, nil
}

func bedsOf(c models.SharingCategory) int {
	n, _ := models.BedsPerRoom(c)
	return n
}

func (r *memRoomTypeRepo) Update(ctx context.Context, rt *models.RoomType) error {
	return r.v.write(func(st *memoryState) error {
		cur, ok := st.roomTypes[rt.ID]
		if !ok {
			return utils.ErrNoRowsUpdated
		}
		cur.BasePrice, cur.RoomCount, cur.OccupiedBeds = rt.BasePrice, rt.RoomCount, rt.OccupiedBeds
		cur.UpdatedAt = r.v.now()
		cur.RowVersion++
		st.roomTypes[rt.ID] = cur
		rt.RowVersion, rt.UpdatedAt = cur.RowVersion, cur.UpdatedAt
		return nil
	})
}

/* ---------- rooms ---------- */

type memRoomRepo struct{ v *memView }

func numberTaken(st *memoryState, propID, self uuid.UUID, number string) bool {
	for id, other := range st.rooms {
		if id != self && other.PropertyID == propID && other.RoomNumber == number {
			return true
		}
	}
	return false
}

func (r *memRoomRepo) Create(ctx context.Context, rm *models.Room) error {
	return r.v.write(func(st *memoryState) error {
		if numberTaken(st, rm.PropertyID, rm.ID, rm.RoomNumber) {
			return fmt.Errorf("%w: %s", utils.ErrDuplicateRoomNumber, rm.RoomNumber)
		}
		now := r.v.now()
		rm.CreatedAt, rm.UpdatedAt, rm.RowVersion = now, now, 1
		st.rooms[rm.ID] = *rm
		return nil
	})
}

func (r *memRoomRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	var out *models.Room
	r.v.read(func(st *memoryState) {
		if rm, ok := st.rooms[id]; ok {
			out = &rm
		}
	})
	return out, nil
}

func (r *memRoomRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	return r.GetByID(ctx, id)
}

func (r *memRoomRepo) GetByNumber(ctx context.Context, propID uuid.UUID, number string) (*models.Room, error) {
	var out *models.Room
	r.v.read(func(st *memoryState) {
		for _, rm := range st.rooms {
			if rm.PropertyID == propID && rm.RoomNumber == number {
				rm := rm
				out = &rm
				return
			}
		}
	})
	return out, nil
}

func (r *memRoomRepo) list(filter func(models.Room) bool) []*models.Room {
	var out []*models.Room
	r.v.read(func(st *memoryState) {
		for _, rm := range st.rooms {
			if filter(rm) {
				rm := rm
				out = append(out, &rm)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].RoomNumber < out[j].RoomNumber })
	return out
}

func (r *memRoomRepo) ListByPropertyID(ctx context.Context, propID uuid.UUID) ([]*models.Room, error) {
	return r.list(func(rm models.Room) bool { return rm.PropertyID == propID }), nil
}

func (r *memRoomRepo) ListByRoomTypeID(ctx context.Context, roomTypeID uuid.UUID) ([]*models.Room, error) {
	return r.list(func(rm models.Room) bool { return rm.RoomTypeID == roomTypeID }), nil
}

func (r *memRoomRepo) Update(ctx context.Context, rm *models.Room) error {
	return r.v.write(func(st *memoryState) error {
		cur, ok := st.rooms[rm.ID]
		if !ok {
			return utils.ErrNoRowsUpdated
		}
		if numberTaken(st, cur.PropertyID, cur.ID, rm.RoomNumber) {
			return fmt.Errorf("%w: %s", utils.ErrDuplicateRoomNumber, rm.RoomNumber)
		}
		if rm.OccupiedBeds < 0 || rm.OccupiedBeds > cur.MaxBeds {
			return fmt.Errorf("%w: room %s occupancy %d outside 0..%d",
				utils.ErrInvariantBreach, cur.RoomNumber, rm.OccupiedBeds, cur.MaxBeds)
		}
		cur.RoomNumber, cur.OccupiedBeds = rm.RoomNumber, rm.OccupiedBeds
		cur.UpdatedAt = r.v.now()
		cur.RowVersion++
		st.rooms[rm.ID] = cur
		rm.RowVersion, rm.UpdatedAt = cur.RowVersion, cur.UpdatedAt
		return nil
	})
}

func (r *memRoomRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.v.write(func(st *memoryState) error {
		if _, ok := st.rooms[id]; !ok {
			return pgx.ErrNoRows
		}
		delete(st.rooms, id)
		return nil
	})
}

/* ---------- tenants ---------- */

type memTenantRepo struct{ v *memView }

func bedHeld(st *memoryState, t *models.Tenant) bool {
	if !t.IsOccupying() {
		return false
	}
	for id, other := range st.tenants {
		if id != t.ID && other.RoomID == t.RoomID && other.BedIndex == t.BedIndex && other.IsOccupying() {
			return true
		}
	}
	return false
}

func (r *memTenantRepo) Create(ctx context.Context, t *models.Tenant) error {
	return r.v.write(func(st *memoryState) error {
		if bedHeld(st, t) {
			return fmt.Errorf("%w: bed %s already held", utils.ErrInvariantBreach, t.BedID)
		}
		now := r.v.now()
		t.CreatedAt, t.UpdatedAt, t.RowVersion = now, now, 1
		st.tenants[t.ID] = t.Clone()
		return nil
	})
}

func (r *memTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	var out *models.Tenant
	r.v.read(func(st *memoryState) {
		if t, ok := st.tenants[id]; ok {
			out = t.Clone()
		}
	})
	return out, nil
}

func (r *memTenantRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return r.GetByID(ctx, id)
}

func (r *memTenantRepo) GetCurrentByUserID(ctx context.Context, userID uuid.UUID) (*models.Tenant, error) {
	var out *models.Tenant
	r.v.read(func(st *memoryState) {
		for _, t := range st.tenants {
			if t.UserID != userID {
				continue
			}
			if out == nil ||
				(t.IsOccupying() && !out.IsOccupying()) ||
				(t.IsOccupying() == out.IsOccupying() && t.JoinDate.After(out.JoinDate)) {
				out = t
			}
		}
		if out != nil {
			out = out.Clone()
		}
	})
	return out, nil
}

func (r *memTenantRepo) list(filter func(*models.Tenant) bool, less func(a, b *models.Tenant) bool) []*models.Tenant {
	var out []*models.Tenant
	r.v.read(func(st *memoryState) {
		for _, t := range st.tenants {
			if filter(t) {
				out = append(out, t.Clone())
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (r *memTenantRepo) ListByRoomID(ctx context.Context, roomID uuid.UUID) ([]*models.Tenant, error) {
	return r.list(
		func(t *models.Tenant) bool { return t.RoomID == roomID },
		func(a, b *models.Tenant) bool {
			if a.BedIndex != b.BedIndex {
				return a.BedIndex < b.BedIndex
			}
			return a.JoinDate.Before(b.JoinDate)
		},
	), nil
}

func (r *memTenantRepo) ListByPropertyID(ctx context.Context, propID uuid.UUID) ([]*models.Tenant, error) {
	return r.list(
		func(t *models.Tenant) bool { return t.PropertyID == propID },
		func(a, b *models.Tenant) bool { return a.JoinDate.Before(b.JoinDate) },
	), nil
}

// put copies the scalar fields of t over the stored record; histories are
// only ever extended through the Append methods.
func (r *memTenantRepo) put(st *memoryState, t *models.Tenant) (int64, error) {
	cur, ok := st.tenants[t.ID]
	if !ok {
		return 0, nil
	}
	if bedHeld(st, t) {
		return 0, fmt.Errorf("%w: bed %s already held", utils.ErrInvariantBreach, t.BedID)
	}
	next := t.Clone()
	next.PropertyID, next.RoomID, next.UserID, next.BedIndex = cur.PropertyID, cur.RoomID, cur.UserID, cur.BedIndex
	next.JoinDate, next.CreatedAt = cur.JoinDate, cur.CreatedAt
	next.RentHistory, next.StatusHistory = cur.RentHistory, cur.StatusHistory
	next.UpdatedAt = r.v.now()
	next.RowVersion = cur.RowVersion + 1
	st.tenants[t.ID] = next
	return next.RowVersion, nil
}

func (r *memTenantRepo) Update(ctx context.Context, t *models.Tenant) error {
	return r.v.write(func(st *memoryState) error {
		v, err := r.put(st, t)
		if err != nil {
			return err
		}
		if v == 0 {
			return utils.ErrNoRowsUpdated
		}
		t.RowVersion = v
		return nil
	})
}

func (r *memTenantRepo) UpdateIfVersion(ctx context.Context, t *models.Tenant, expected int64) (pgconn.CommandTag, error) {
	tag := updatedNone
	err := r.v.write(func(st *memoryState) error {
		cur, ok := st.tenants[t.ID]
		if !ok || cur.RowVersion != expected {
			return nil
		}
		if _, err := r.put(st, t); err != nil {
			return err
		}
		tag = updatedOne
		return nil
	})
	return tag, err
}

func (r *memTenantRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Tenant) error) error {
	return WithRetry(ctx, defaultMaxRetries, id, r.GetByID, r.UpdateIfVersion, mutate)
}

func (r *memTenantRepo) AppendRentChange(ctx context.Context, tenantID uuid.UUID, rc models.RentChange) error {
	return r.v.write(func(st *memoryState) error {
		t, ok := st.tenants[tenantID]
		if !ok {
			return utils.ErrTenantNotFound
		}
		t.RentHistory = append(t.RentHistory, rc)
		return nil
	})
}

func (r *memTenantRepo) AppendStatusChange(ctx context.Context, tenantID uuid.UUID, sc models.StatusChange) error {
	return r.v.write(func(st *memoryState) error {
		t, ok := st.tenants[tenantID]
		if !ok {
			return utils.ErrTenantNotFound
		}
		t.StatusHistory = append(t.StatusHistory, sc)
		return nil
	})
}

/* ---------- notices ---------- */

type memNoticeRepo struct{ v *memView }

func copyNotice(n models.Notice) *models.Notice {
	if n.OwnerResponse != nil {
		s := *n.OwnerResponse
		n.OwnerResponse = &s
	}
	if n.DecidedAt != nil {
		d := *n.DecidedAt
		n.DecidedAt = &d
	}
	return &n
}

func (r *memNoticeRepo) Create(ctx context.Context, n *models.Notice) error {
	return r.v.write(func(st *memoryState) error {
		if n.Status == models.NoticeStatusPending {
			for _, other := range st.notices {
				if other.TenantID == n.TenantID && other.Status == models.NoticeStatusPending {
					return fmt.Errorf("%w: tenant %s", utils.ErrNoticeAlreadyPending, n.TenantID)
				}
			}
		}
		now := r.v.now()
		n.CreatedAt, n.UpdatedAt, n.RowVersion = now, now, 1
		st.notices[n.ID] = *copyNotice(*n)
		return nil
	})
}

func (r *memNoticeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Notice, error) {
	var out *models.Notice
	r.v.read(func(st *memoryState) {
		if n, ok := st.notices[id]; ok {
			out = copyNotice(n)
		}
	})
	return out, nil
}

func (r *memNoticeRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Notice, error) {
	return r.GetByID(ctx, id)
}

func (r *memNoticeRepo) list(filter func(models.Notice) bool) []*models.Notice {
	var out []*models.Notice
	r.v.read(func(st *memoryState) {
		for _, n := range st.notices {
			if filter(n) {
				out = append(out, copyNotice(n))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out
}

func (r *memNoticeRepo) GetPendingByTenantID(ctx context.Context, tenantID uuid.UUID) (*models.Notice, error) {
	found := r.list(func(n models.Notice) bool {
		return n.TenantID == tenantID && n.Status == models.NoticeStatusPending
	})
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *memNoticeRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Notice, error) {
	var out []*models.Notice
	r.v.read(func(st *memoryState) {
		for _, n := range st.notices {
			if t, ok := st.tenants[n.TenantID]; ok && t.UserID == userID {
				out = append(out, copyNotice(n))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (r *memNoticeRepo) ListByPropertyID(ctx context.Context, propID uuid.UUID, status *models.NoticeStatus) ([]*models.Notice, error) {
	return r.list(func(n models.Notice) bool {
		return n.PropertyID == propID && (status == nil || n.Status == *status)
	}), nil
}

func (r *memNoticeRepo) ListApprovedVacatingBetween(ctx context.Context, from, to time.Time) ([]*models.Notice, error) {
	out := r.list(func(n models.Notice) bool {
		return n.Status == models.NoticeStatusApproved && !n.VacateDate.Before(from) && !n.VacateDate.After(to)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].VacateDate.Before(out[j].VacateDate) })
	return out, nil
}

func (r *memNoticeRepo) Update(ctx context.Context, n *models.Notice) error {
	return r.v.write(func(st *memoryState) error {
		cur, ok := st.notices[n.ID]
		if !ok {
			return utils.ErrNoRowsUpdated
		}
		upd := copyNotice(*n)
		cur.Status, cur.OwnerResponse, cur.DecidedAt = upd.Status, upd.OwnerResponse, upd.DecidedAt
		cur.UpdatedAt = r.v.now()
		cur.RowVersion++
		st.notices[n.ID] = cur
		n.RowVersion, n.UpdatedAt = cur.RowVersion, cur.UpdatedAt
		return nil
	})
}

/* ---------- audit logs ---------- */

type memAuditLogRepo struct{ v *memView }

func (r *memAuditLogRepo) Create(ctx context.Context, logEntry *models.OwnerAuditLog) error {
	return r.v.write(func(st *memoryState) error {
		entry := *logEntry
		entry.CreatedAt = r.v.now()
		if logEntry.Details != nil {
			d := append(json.RawMessage(nil), (*logEntry.Details)...)
			entry.Details = &d
		}
		st.auditLogs = append(st.auditLogs, entry)
		return nil
	})
}

func (r *memAuditLogRepo) list(match func(models.OwnerAuditLog) bool) []*models.OwnerAuditLog {
	var out []*models.OwnerAuditLog
	r.v.read(func(st *memoryState) {
		for _, l := range st.auditLogs {
			if match(l) {
				l := l
				out = append(out, &l)
			}
		}
	})
	return out
}

func (r *memAuditLogRepo) ListByTargetID(ctx context.Context, targetID uuid.UUID) ([]*models.OwnerAuditLog, error) {
	return r.list(func(l models.OwnerAuditLog) bool { return l.TargetID == targetID }), nil
}

func (r *memAuditLogRepo) ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.OwnerAuditLog, error) {
	return r.list(func(l models.OwnerAuditLog) bool { return l.OwnerID == ownerID }), nil
}
