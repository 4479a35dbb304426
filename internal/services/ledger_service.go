package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/repositories"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

// recordStatusChange moves t to next and appends the history entry. The
// caller holds t's row lock.
func recordStatusChange(
	ctx context.Context,
	tx repositories.Repos,
	t *models.Tenant,
	next models.TenantStatus,
	reason string,
	at time.Time,
) error {
	if !t.CanTransitionTo(next) {
		return fmt.Errorf("%w: tenant %s cannot go from %s to %s", utils.ErrInvalidTransition, t.ID, t.Status, next)
	}
	t.Status = next
	if err := tx.Tenants.Update(ctx, t); err != nil {
		return err
	}
	sc := models.StatusChange{Status: next, Date: at, Reason: reason}
	if err := tx.Tenants.AppendStatusChange(ctx, t.ID, sc); err != nil {
		return err
	}
	t.StatusHistory = append(t.StatusHistory, sc)
	return nil
}

// RecordRentChange updates the current rent and appends to the rent history.
// Occupancy counters are untouched.
func (s *OccupancyService) RecordRentChange(ctx context.Context, ownerID, tenantID uuid.UUID, req dtos.RentChangeRequest) (*models.Tenant, error) {
	if _, err := s.tenantForOwner(ctx, ownerID, tenantID); err != nil {
		return nil, err
	}
	effective := s.now()
	if req.EffectiveDate != nil {
		effective = *req.EffectiveDate
	}

	var tenant *models.Tenant
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Repos) error {
		var err error
		tenant, err = tx.Tenants.GetForUpdate(ctx, tenantID)
		if err != nil {
			return err
		}
		if tenant == nil {
			return utils.ErrTenantNotFound
		}
		if !tenant.IsOccupying() {
			return fmt.Errorf("%w: tenant %s has moved out", utils.ErrInvalidTransition, tenant.ID)
		}
		previous := tenant.Rent
		tenant.Rent = req.Amount
		if err := tx.Tenants.Update(ctx, tenant); err != nil {
			return err
		}
		rc := models.RentChange{Amount: req.Amount, EffectiveDate: effective, Reason: req.Reason}
		if err := tx.Tenants.AppendRentChange(ctx, tenant.ID, rc); err != nil {
			return err
		}
		tenant.RentHistory = append(tenant.RentHistory, rc)
		return s.logAudit(ctx, tx, ownerID, tenant.ID, models.AuditUpdate, models.TargetTenant,
			map[string]any{"rentFrom": previous, "rentTo": req.Amount, "reason": req.Reason})
	})
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (s *OccupancyService) GetTenant(ctx context.Context, ownerID, tenantID uuid.UUID) (*models.Tenant, error) {
	return s.tenantForOwner(ctx, ownerID, tenantID)
}

// ListTenants filters a property's ledger by status and room.
func (s *OccupancyService) ListTenants(
	ctx context.Context,
	ownerID, propertyID uuid.UUID,
	status *models.TenantStatus,
	roomID *uuid.UUID,
) (*dtos.ListTenantsResponse, error) {
	if err := s.guard.Authorize(ctx, ownerID, propertyID); err != nil {
		return nil, err
	}
	repos := s.store.Repos()

	var all []*models.Tenant
	var err error
	if roomID != nil {
		all, err = repos.Tenants.ListByRoomID(ctx, *roomID)
	} else {
		all, err = repos.Tenants.ListByPropertyID(ctx, propertyID)
	}
	if err != nil {
		return nil, err
	}

	out := make([]*models.Tenant, 0, len(all))
	for _, t := range all {
		if t.PropertyID != propertyID {
			continue
		}
		if status != nil && t.Status != *status {
			continue
		}
		out = append(out, t)
	}
	return &dtos.ListTenantsResponse{Results: out, Total: len(out)}, nil
}

// UpdateTenantContact edits name, email and phone with optimistic locking.
func (s *OccupancyService) UpdateTenantContact(ctx context.Context, ownerID, tenantID uuid.UUID, req dtos.UpdateTenantContactRequest) (*models.Tenant, error) {
	if _, err := s.tenantForOwner(ctx, ownerID, tenantID); err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	err := repos.Tenants.UpdateWithRetry(ctx, tenantID, func(t *models.Tenant) error {
		if req.Name != nil {
			t.Name = *req.Name
		}
		if req.Email != nil {
			t.Email = *req.Email
		}
		if req.Phone != nil {
			t.Phone = req.Phone
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.logAudit(ctx, repos, ownerID, tenantID, models.AuditUpdate, models.TargetTenant, req); err != nil {
		utils.Logger.WithError(err).Warn("Failed to write tenant contact audit log")
	}
	return repos.Tenants.GetByID(ctx, tenantID)
}

// GetRoster projects rooms and occupants grouped by room type. It reads
// only; nothing here writes.
func (s *OccupancyService) GetRoster(ctx context.Context, ownerID, propertyID uuid.UUID) (*dtos.RosterResponse, error) {
	if err := s.guard.Authorize(ctx, ownerID, propertyID); err != nil {
		return nil, err
	}
	var (
		prop    *models.Property
		types   []*models.RoomType
		rooms   []*models.Room
		tenants []*models.Tenant
	)
	err := s.store.WithinReadTx(ctx, func(ctx context.Context, repos repositories.Repos) error {
		var err error
		if prop, err = repos.Properties.GetByID(ctx, propertyID); err != nil {
			return err
		}
		if prop == nil {
			return utils.ErrPropertyNotFound
		}
		if types, err = repos.RoomTypes.ListByPropertyID(ctx, propertyID); err != nil {
			return err
		}
		if rooms, err = repos.Rooms.ListByPropertyID(ctx, propertyID); err != nil {
			return err
		}
		tenants, err = repos.Tenants.ListByPropertyID(ctx, propertyID)
		return err
	})
	if err != nil {
		return nil, err
	}

	byRoomBed := map[uuid.UUID]map[int]*models.Tenant{}
	for _, t := range tenants {
		if !t.IsOccupying() {
			continue
		}
		if byRoomBed[t.RoomID] == nil {
			byRoomBed[t.RoomID] = map[int]*models.Tenant{}
		}
		byRoomBed[t.RoomID][t.BedIndex] = t
	}

	roster := &dtos.RosterResponse{PropertyID: prop.ID, PropertyName: prop.Name, RoomTypes: []dtos.RosterRoomType{}}
	for _, rt := range types {
		rtDTO, err := dtos.NewRoomTypeDTO(rt)
		if err != nil {
			return nil, err
		}
		group := dtos.RosterRoomType{RoomTypeDTO: rtDTO, Rooms: []dtos.RosterRoom{}}
		for _, r := range rooms {
			if r.RoomTypeID != rt.ID {
				continue
			}
			rr := dtos.RosterRoom{
				RoomID:       r.ID,
				RoomNumber:   r.RoomNumber,
				MaxBeds:      r.MaxBeds,
				OccupiedBeds: r.OccupiedBeds,
				Status:       r.Status(),
				Beds:         make([]dtos.RosterBed, 0, r.MaxBeds),
			}
			for i := 1; i <= r.MaxBeds; i++ {
				bed := dtos.RosterBed{BedID: r.BedID(i), BedIndex: i}
				if t := byRoomBed[r.ID][i]; t != nil {
					bed.Occupied = true
					bed.Tenant = &dtos.RosterTenant{
						ID:                t.ID,
						Name:              t.Name,
						Email:             t.Email,
						Phone:             t.Phone,
						Rent:              t.Rent,
						Status:            t.Status,
						JoinDate:          t.JoinDate,
						PlannedVacateDate: t.PlannedVacateDate,
					}
				}
				rr.Beds = append(rr.Beds, bed)
			}
			group.Rooms = append(group.Rooms, rr)
		}
		roster.RoomTypes = append(roster.RoomTypes, group)
	}
	return roster, nil
}

// GetMyTenancy is the tenant's own view of their current stay.
func (s *OccupancyService) GetMyTenancy(ctx context.Context, userID uuid.UUID) (*dtos.MyTenancyResponse, error) {
	repos := s.store.Repos()
	t, err := repos.Tenants.GetCurrentByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, utils.ErrTenantNotFound
	}
	room, err := repos.Rooms.GetByID(ctx, t.RoomID)
	if err != nil {
		return nil, err
	}
	prop, err := repos.Properties.GetByID(ctx, t.PropertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, utils.ErrPropertyNotFound
	}
	pending, err := repos.Notices.GetPendingByTenantID(ctx, t.ID)
	if err != nil {
		return nil, err
	}

	resp := &dtos.MyTenancyResponse{
		Tenant:              t,
		PropertyName:        prop.Name,
		NoticeWindowLastDay: s.noticeWindowFor(prop),
		PendingNotice:       pending,
	}
	if room != nil {
		resp.Room = dtos.NewRoomDTO(room)
	}
	return resp, nil
}
