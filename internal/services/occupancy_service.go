package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/config"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/repositories"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
	"github.com/sirupsen/logrus"
)

// OccupancyService is the single writer of room, room type and tenant
// occupancy. Every mutation that touches more than one of them runs in one
// store transaction with the rows locked in the order
// notice → room → tenant → room type.
type OccupancyService struct {
	cfg        *config.Config
	store      repositories.Store
	guard      *OwnershipGuard
	dispatcher *Dispatcher
	now        utils.Clock
}

func NewOccupancyService(
	cfg *config.Config,
	store repositories.Store,
	guard *OwnershipGuard,
	dispatcher *Dispatcher,
) *OccupancyService {
	return &OccupancyService{
		cfg:        cfg,
		store:      store,
		guard:      guard,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// SetClock replaces the wall clock, e.g. to pin the notice window in tests.
func (s *OccupancyService) SetClock(c utils.Clock) {
	s.now = c
}

func (s *OccupancyService) logAudit(
	ctx context.Context,
	tx repositories.Repos,
	ownerID, targetID uuid.UUID,
	action models.AuditAction,
	targetType models.AuditTargetType,
	details any,
) error {
	var raw *json.RawMessage
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return err
		}
		msg := json.RawMessage(b)
		raw = &msg
	}
	return tx.AuditLogs.Create(ctx, &models.OwnerAuditLog{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Action:     action,
		TargetID:   targetID,
		TargetType: targetType,
		Details:    raw,
	})
}

// roomForOwner resolves a room and checks the caller owns its property.
// A room's property never changes, so reading it outside the transaction
// is safe.
func (s *OccupancyService) roomForOwner(ctx context.Context, ownerID, roomID uuid.UUID) (*models.Room, error) {
	room, err := s.store.Repos().Rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, utils.ErrRoomNotFound
	}
	if err := s.guard.Authorize(ctx, ownerID, room.PropertyID); err != nil {
		if errors.Is(err, utils.ErrForbidden) {
			return nil, err
		}
		return nil, utils.ErrRoomNotFound
	}
	return room, nil
}

func (s *OccupancyService) tenantForOwner(ctx context.Context, ownerID, tenantID uuid.UUID) (*models.Tenant, error) {
	t, err := s.store.Repos().Tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, utils.ErrTenantNotFound
	}
	if err := s.guard.Authorize(ctx, ownerID, t.PropertyID); err != nil {
		if errors.Is(err, utils.ErrForbidden) {
			return nil, err
		}
		return nil, utils.ErrTenantNotFound
	}
	return t, nil
}

func breach(format string, args ...any) error {
	err := fmt.Errorf("%w: "+format, append([]any{utils.ErrInvariantBreach}, args...)...)
	utils.Logger.WithField("alert", "invariant_breach").Error(err.Error())
	return err
}

/* ------------------------------------------------------------------
   Room registry
------------------------------------------------------------------ */

// materializeRoomType creates rooms until the type has RoomCount of them.
// Numbers already used anywhere in the property are skipped, so re-running
// never duplicates a room number.
func materializeRoomType(
	ctx context.Context,
	tx repositories.Repos,
	rt *models.RoomType,
	propertyRooms []*models.Room,
) ([]*models.Room, error) {
	perRoom, err := rt.BedsPerRoom()
	if err != nil {
		return nil, err
	}
	used := make(map[string]bool, len(propertyRooms))
	existing := 0
	for _, r := range propertyRooms {
		used[r.RoomNumber] = true
		if r.RoomTypeID == rt.ID {
			existing++
		}
	}

	var created []*models.Room
	for idx := 1; existing+len(created) < rt.RoomCount; idx++ {
		number, err := models.RoomNumberFor(rt.Category, idx)
		if err != nil {
			return nil, err
		}
		if used[number] {
			continue
		}
		room := &models.Room{
			ID:           uuid.New(),
			PropertyID:   rt.PropertyID,
			RoomTypeID:   rt.ID,
			RoomNumber:   number,
			Category:     rt.Category,
			MaxBeds:      perRoom,
			OccupiedBeds: 0,
		}
		if err := tx.Rooms.Create(ctx, room); err != nil {
			return nil, err
		}
		used[number] = true
		created = append(created, room)
	}
	return created, nil
}

// MaterializeRooms brings every room type of the property up to its
// configured room count and returns how many rooms were created.
func (s *OccupancyService) MaterializeRooms(ctx context.Context, ownerID, propertyID uuid.UUID) (*dtos.MaterializeRoomsResponse, error) {
	if err := s.guard.Authorize(ctx, ownerID, propertyID); err != nil {
		return nil, err
	}

	var created int
	var rooms []*models.Room
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Repos) error {
		created = 0
		types, err := tx.RoomTypes.ListByPropertyID(ctx, propertyID)
		if err != nil {
			return err
		}
		for _, t := range types {
			rt, err := tx.RoomTypes.GetForUpdate(ctx, t.ID)
			if err != nil {
				return err
			}
			current, err := tx.Rooms.ListByPropertyID(ctx, propertyID)
			if err != nil {
				return err
			}
			made, err := materializeRoomType(ctx, tx, rt, current)
			if err != nil {
				return err
			}
			created += len(made)
		}
		if created > 0 {
			if err := s.logAudit(ctx, tx, ownerID, propertyID, models.AuditCreate, models.TargetRoom,
				map[string]any{"materialized": created}); err != nil {
				return err
			}
		}
		rooms, err = tx.Rooms.ListByPropertyID(ctx, propertyID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &dtos.MaterializeRoomsResponse{Created: created, Rooms: dtos.NewRoomDTOs(rooms)}, nil
}

// RenameRoom changes a room number and rewrites the bed ids of everyone
// still occupying the room.
func (s *OccupancyService) RenameRoom(ctx context.Context, ownerID, roomID uuid.UUID, newNumber string) (*dtos.RenameRoomResponse, error) {
	if _, err := s.roomForOwner(ctx, ownerID, roomID); err != nil {
		return nil, err
	}

	var room *models.Room
	var rewritten []*models.Tenant
	var oldNumber string
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Repos) error {
		var err error
		rewritten = nil
		room, err = tx.Rooms.GetForUpdate(ctx, roomID)
		if err != nil {
			return err
		}
		if room == nil {
			return utils.ErrRoomNotFound
		}
		oldNumber = room.RoomNumber
		if newNumber == room.RoomNumber {
			return nil
		}
		clash, err := tx.Rooms.GetByNumber(ctx, room.PropertyID, newNumber)
		if err != nil {
			return err
		}
		if clash != nil && clash.ID != room.ID {
			return fmt.Errorf("%w: %s", utils.ErrDuplicateRoomNumber, newNumber)
		}

		room.RoomNumber = newNumber
		if err := tx.Rooms.Update(ctx, room); err != nil {
			return err
		}

		occupants, err := tx.Tenants.ListByRoomID(ctx, room.ID)
		if err != nil {
			return err
		}
		for _, o := range occupants {
			if !o.IsOccupying() {
				continue
			}
			t, err := tx.Tenants.GetForUpdate(ctx, o.ID)
			if err != nil {
				return err
			}
			t.BedID = models.BedID(newNumber, t.BedIndex)
			if err := tx.Tenants.Update(ctx, t); err != nil {
				return err
			}
			rewritten = append(rewritten, t)
		}

		return s.logAudit(ctx, tx, ownerID, room.ID, models.AuditUpdate, models.TargetRoom,
			map[string]any{"from": oldNumber, "to": newNumber, "bedsRewritten": len(rewritten)})
	})
	if err != nil {
		return nil, err
	}

	if oldNumber != newNumber {
		utils.Logger.WithFields(logrus.Fields{
			"roomID": room.ID, "from": oldNumber, "to": newNumber,
		}).Info("Room renamed")
		s.dispatcher.Dispatch(Event{
			Name:       EventRoomRenamed,
			OccurredAt: s.now(),
			PropertyID: room.PropertyID,
			RoomID:     &room.ID,
			Subject:    "Room renamed",
			Message:    fmt.Sprintf("Room %s is now %s.", oldNumber, newNumber),
			Data:       map[string]any{"from": oldNumber, "to": newNumber},
		})
	}
	if rewritten == nil {
		rewritten = []*models.Tenant{}
	}
	return &dtos.RenameRoomResponse{Room: dtos.NewRoomDTO(room), Tenants: rewritten}, nil
}

// DeleteRoom removes an empty room and shrinks its room type by one.
func (s *OccupancyService) DeleteRoom(ctx context.Context, ownerID, roomID uuid.UUID) error {
	if _, err := s.roomForOwner(ctx, ownerID, roomID); err != nil {
		return err
	}

	return s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Repos) error {
		room, err := tx.Rooms.GetForUpdate(ctx, roomID)
		if err != nil {
			return err
		}
		if room == nil {
			return utils.ErrRoomNotFound
		}
		if room.OccupiedBeds > 0 {
			return fmt.Errorf("%w: %s has %d occupied beds", utils.ErrRoomNotEmpty, room.RoomNumber, room.OccupiedBeds)
		}
		occupants, err := tx.Tenants.ListByRoomID(ctx, room.ID)
		if err != nil {
			return err
		}
		for _, t := range occupants {
			if t.IsOccupying() {
				return breach("room %s counter is 0 but tenant %s still occupies %s", room.RoomNumber, t.ID, t.BedID)
			}
		}

		rt, err := tx.RoomTypes.GetForUpdate(ctx, room.RoomTypeID)
		if err != nil {
			return err
		}
		if rt == nil {
			return breach("room %s references missing room type %s", room.RoomNumber, room.RoomTypeID)
		}
		rt.RoomCount--
		if rt.RoomCount < 0 {
			return breach("room type %s room count would go negative", rt.ID)
		}
		if _, err := rt.AvailableBeds(); err != nil {
			return err
		}

		if err := tx.Rooms.Delete(ctx, room.ID); err != nil {
			return err
		}
		if err := tx.RoomTypes.Update(ctx, rt); err != nil {
			return err
		}
		return s.logAudit(ctx, tx, ownerID, room.ID, models.AuditDelete, models.TargetRoom,
			map[string]any{"roomNumber": room.RoomNumber, "roomTypeID": rt.ID, "roomCount": rt.RoomCount})
	})
}

/* ------------------------------------------------------------------
   Occupancy coordinator
------------------------------------------------------------------ */

// freeBedIndex returns the lowest slot in 1..maxBeds nobody occupies.
func freeBedIndex(maxBeds int, occupants []*models.Tenant) int {
	taken := make(map[int]bool, len(occupants))
	for _, t := range occupants {
		taken[t.BedIndex] = true
	}
	for i := 1; i <= maxBeds; i++ {
		if !taken[i] {
			return i
		}
	}
	return 0
}

func occupying(all []*models.Tenant) []*models.Tenant {
	var out []*models.Tenant
	for _, t := range all {
		if t.IsOccupying() {
			out = append(out, t)
		}
	}
	return out
}

// AssignTenant places a new tenant on the room's lowest free bed. The
// tenant row, both occupancy counters and the histories commit together.
func (s *OccupancyService) AssignTenant(ctx context.Context, ownerID, roomID uuid.UUID, req dtos.AssignTenantRequest) (*dtos.AssignTenantResponse, error) {
	if _, err := s.roomForOwner(ctx, ownerID, roomID); err != nil {
		return nil, err
	}

	now := s.now()
	joinDate := now
	if req.JoinDate != nil {
		joinDate = *req.JoinDate
	}
	userID := uuid.New()
	if req.UserID != nil && *req.UserID != uuid.Nil {
		userID = *req.UserID
	}

	var tenant *models.Tenant
	var room *models.Room
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Repos) error {
		var err error
		room, err = tx.Rooms.GetForUpdate(ctx, roomID)
		if err != nil {
			return err
		}
		if room == nil {
			return utils.ErrRoomNotFound
		}
		if room.IsFull() {
			return fmt.Errorf("%w: %s has %d of %d beds taken", utils.ErrRoomFull, room.RoomNumber, room.OccupiedBeds, room.MaxBeds)
		}

		all, err := tx.Tenants.ListByRoomID(ctx, room.ID)
		if err != nil {
			return err
		}
		current := occupying(all)
		if len(current) != room.OccupiedBeds {
			return breach("room %s counter %d disagrees with %d occupying tenants", room.RoomNumber, room.OccupiedBeds, len(current))
		}
		if req.UserID != nil {
			held, err := tx.Tenants.GetCurrentByUserID(ctx, userID)
			if err != nil {
				return err
			}
			if held != nil && held.IsOccupying() {
				return fmt.Errorf("%w: user already holds bed %s", utils.ErrInvalidTransition, held.BedID)
			}
		}
		bedIndex := freeBedIndex(room.MaxBeds, current)
		if bedIndex == 0 {
			return breach("room %s has no free bed slot at %d/%d", room.RoomNumber, room.OccupiedBeds, room.MaxBeds)
		}

		rt, err := tx.RoomTypes.GetForUpdate(ctx, room.RoomTypeID)
		if err != nil {
			return err
		}
		if rt == nil {
			return breach("room %s references missing room type %s", room.RoomNumber, room.RoomTypeID)
		}
		avail, err := rt.AvailableBeds()
		if err != nil {
			return err
		}
		if avail < 1 {
			return breach("room type %s has no available beds while room %s has a free bed", rt.ID, room.RoomNumber)
		}

		tenant = &models.Tenant{
			ID:         uuid.New(),
			PropertyID: room.PropertyID,
			RoomID:     room.ID,
			UserID:     userID,
			BedIndex:   bedIndex,
			BedID:      room.BedID(bedIndex),
			Name:       req.Name,
			Email:      req.Email,
			Phone:      req.Phone,
			Rent:       req.Rent,
			Status:     models.TenantStatusActive,
			JoinDate:   joinDate,
			RentHistory: []models.RentChange{{
				Amount: req.Rent, EffectiveDate: joinDate, Reason: "initial rent",
			}},
			StatusHistory: []models.StatusChange{{
				Status: models.TenantStatusActive, Date: now, Reason: "assigned to bed " + room.BedID(bedIndex),
			}},
		}
		if err := tx.Tenants.Create(ctx, tenant); err != nil {
			return err
		}

		room.OccupiedBeds++
		if err := tx.Rooms.Update(ctx, room); err != nil {
			return err
		}
		rt.OccupiedBeds++
		if err := tx.RoomTypes.Update(ctx, rt); err != nil {
			return err
		}
		return s.logAudit(ctx, tx, ownerID, tenant.ID, models.AuditAssign, models.TargetTenant,
			map[string]any{"roomID": room.ID, "bedID": tenant.BedID, "rent": tenant.Rent})
	})
	if err != nil {
		return nil, err
	}

	utils.Logger.WithFields(logrus.Fields{
		"tenantID": tenant.ID, "roomID": room.ID, "bedID": tenant.BedID, "status": room.Status(),
	}).Info("Tenant assigned")
	s.dispatcher.Dispatch(Event{
		Name:       EventTenantAssigned,
		OccurredAt: now,
		PropertyID: room.PropertyID,
		RoomID:     &room.ID,
		TenantID:   &tenant.ID,
		Subject:    "Welcome to your new room",
		Message: fmt.Sprintf(
			"You have been assigned bed %s. Sign in with %s to manage your tenancy.",
			tenant.BedID, tenant.Email,
		),
		Data:      map[string]any{"bedID": tenant.BedID, "userID": tenant.UserID, "rent": tenant.Rent},
		Recipient: &Recipient{Name: tenant.Name, Email: tenant.Email, Phone: tenant.Phone},
	})
	return &dtos.AssignTenantResponse{Tenant: tenant, Room: dtos.NewRoomDTO(room)}, nil
}

// RemoveTenant moves the tenant out and frees their bed.
func (s *OccupancyService) RemoveTenant(ctx context.Context, ownerID, tenantID uuid.UUID, req dtos.RemoveTenantRequest) (*dtos.RemoveTenantResponse, error) {
	found, err := s.tenantForOwner(ctx, ownerID, tenantID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	moveOut := now
	if req.MoveOutDate != nil {
		moveOut = *req.MoveOutDate
	}

	var tenant *models.Tenant
	var room *models.Room
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Repos) error {
		var err error
		room, err = tx.Rooms.GetForUpdate(ctx, found.RoomID)
		if err != nil {
			return err
		}
		tenant, err = tx.Tenants.GetForUpdate(ctx, tenantID)
		if err != nil {
			return err
		}
		if tenant == nil || room == nil || tenant.RoomID != room.ID || !tenant.IsOccupying() {
			return fmt.Errorf("%w: %s is not occupying a bed", utils.ErrTenantNotFound, tenantID)
		}
		if room.OccupiedBeds < 1 {
			return breach("room %s counter is 0 but tenant %s occupies %s", room.RoomNumber, tenant.ID, tenant.BedID)
		}
		rt, err := tx.RoomTypes.GetForUpdate(ctx, room.RoomTypeID)
		if err != nil {
			return err
		}
		if rt == nil || rt.OccupiedBeds < 1 {
			return breach("room type %s counter cannot be decremented", room.RoomTypeID)
		}

		tenant.MoveOutDate = &moveOut
		if err := recordStatusChange(ctx, tx, tenant, models.TenantStatusMovedOut, req.Reason, now); err != nil {
			return err
		}

		room.OccupiedBeds--
		if err := tx.Rooms.Update(ctx, room); err != nil {
			return err
		}
		rt.OccupiedBeds--
		if err := tx.RoomTypes.Update(ctx, rt); err != nil {
			return err
		}
		return s.logAudit(ctx, tx, ownerID, tenant.ID, models.AuditRemove, models.TargetTenant,
			map[string]any{"roomID": room.ID, "bedID": tenant.BedID, "reason": req.Reason, "moveOutDate": moveOut})
	})
	if err != nil {
		return nil, err
	}

	utils.Logger.WithFields(logrus.Fields{
		"tenantID": tenant.ID, "roomID": room.ID, "bedID": tenant.BedID, "status": room.Status(),
	}).Info("Tenant moved out")
	s.dispatcher.Dispatch(Event{
		Name:       EventTenantRemoved,
		OccurredAt: now,
		PropertyID: room.PropertyID,
		RoomID:     &room.ID,
		TenantID:   &tenant.ID,
		Subject:    "Your move-out is recorded",
		Message:    fmt.Sprintf("Your stay in bed %s ended on %s.", tenant.BedID, moveOut.Format(dtos.DateLayout)),
		Data:       map[string]any{"bedID": tenant.BedID, "reason": req.Reason},
		Recipient:  &Recipient{Name: tenant.Name, Email: tenant.Email, Phone: tenant.Phone},
	})
	return &dtos.RemoveTenantResponse{Tenant: tenant, Room: dtos.NewRoomDTO(room)}, nil
}

// EditRoomPricing is the owner correction path for a room type: price,
// room count (growing materializes rooms) and an occupancy override.
func (s *OccupancyService) EditRoomPricing(
	ctx context.Context,
	ownerID, propertyID, roomTypeID uuid.UUID,
	req dtos.EditRoomPricingRequest,
) (*dtos.EditRoomPricingResponse, error) {
	if err := s.guard.Authorize(ctx, ownerID, propertyID); err != nil {
		return nil, err
	}

	var rt *models.RoomType
	var rooms []*models.Room
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Repos) error {
		var err error
		rt, err = tx.RoomTypes.GetForUpdate(ctx, roomTypeID)
		if err != nil {
			return err
		}
		if rt == nil || rt.PropertyID != propertyID {
			return utils.ErrRoomTypeNotFound
		}
		before := *rt

		propertyRooms, err := tx.Rooms.ListByPropertyID(ctx, propertyID)
		if err != nil {
			return err
		}
		materialized := 0
		for _, r := range propertyRooms {
			if r.RoomTypeID == rt.ID {
				materialized++
			}
		}

		if req.BasePrice != nil {
			rt.BasePrice = *req.BasePrice
		}
		if req.RoomCount != nil {
			if *req.RoomCount < materialized {
				return fmt.Errorf("%w: %d rooms exist, delete rooms before lowering the count to %d",
					utils.ErrInvalidRoomCount, materialized, *req.RoomCount)
			}
			rt.RoomCount = *req.RoomCount
		}
		total, err := rt.TotalBeds()
		if err != nil {
			return err
		}
		if req.OccupiedBedsOverride != nil {
			o := *req.OccupiedBedsOverride
			if o < 0 || o > total {
				return fmt.Errorf("%w: %d not within 0..%d", utils.ErrInvalidOccupancyOverride, o, total)
			}
			rt.OccupiedBeds = o
		}
		if rt.OccupiedBeds > total {
			return fmt.Errorf("%w: %d occupied exceeds %d total beds", utils.ErrInvalidOccupancyOverride, rt.OccupiedBeds, total)
		}

		if err := tx.RoomTypes.Update(ctx, rt); err != nil {
			return err
		}
		if _, err := materializeRoomType(ctx, tx, rt, propertyRooms); err != nil {
			return err
		}
		rooms, err = tx.Rooms.ListByRoomTypeID(ctx, rt.ID)
		if err != nil {
			return err
		}

		if req.OccupiedBedsOverride != nil {
			ledger := 0
			for _, r := range rooms {
				ledger += r.OccupiedBeds
			}
			if ledger != rt.OccupiedBeds {
				utils.Logger.WithFields(logrus.Fields{
					"roomTypeID": rt.ID, "override": rt.OccupiedBeds, "roomCounters": ledger,
				}).Warn("Occupancy override disagrees with room counters")
			}
		}

		return s.logAudit(ctx, tx, ownerID, rt.ID, models.AuditUpdate, models.TargetRoomType, map[string]any{
			"before": map[string]any{"basePrice": before.BasePrice, "roomCount": before.RoomCount, "occupiedBeds": before.OccupiedBeds},
			"after":  map[string]any{"basePrice": rt.BasePrice, "roomCount": rt.RoomCount, "occupiedBeds": rt.OccupiedBeds},
		})
	})
	if err != nil {
		return nil, err
	}

	dto, err := dtos.NewRoomTypeDTO(rt)
	if err != nil {
		return nil, err
	}
	return &dtos.EditRoomPricingResponse{RoomType: dto, Rooms: dtos.NewRoomDTOs(rooms)}, nil
}
