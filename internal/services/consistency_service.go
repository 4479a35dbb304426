package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/repositories"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	IssueRoomCounter        = "room_counter"
	IssueRoomOverCapacity   = "room_over_capacity"
	IssueRoomTypeCounter    = "room_type_counter"
	IssueRoomTypeOverbooked = "room_type_over_capacity"
	IssueRoomCount          = "room_count"
	IssueDuplicateBed       = "duplicate_bed"
	IssueBedIDMismatch      = "bed_id_mismatch"
	IssueOrphanTenant       = "orphan_tenant"
	IssueRoomMaxBeds        = "room_max_beds"
)

// VerifyProperty recomputes occupancy from the tenant ledger and compares it
// with the room and room type counters. An inconsistent property returns the
// full report together with an error wrapping ErrInvariantBreach.
func (s *OccupancyService) VerifyProperty(ctx context.Context, propertyID uuid.UUID) (*dtos.ConsistencyReport, error) {
	var (
		types   []*models.RoomType
		rooms   []*models.Room
		tenants []*models.Tenant
	)
	err := s.store.WithinReadTx(ctx, func(ctx context.Context, repos repositories.Repos) error {
		prop, err := repos.Properties.GetByID(ctx, propertyID)
		if err != nil {
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

	report := &dtos.ConsistencyReport{
		PropertyID: propertyID,
		CheckedAt:  s.now(),
		Issues:     []dtos.ConsistencyIssue{},
	}
	add := func(kind string, id uuid.UUID, expected, actual int, format string, args ...any) {
		report.Issues = append(report.Issues, dtos.ConsistencyIssue{
			Kind:     kind,
			TargetID: id,
			Message:  fmt.Sprintf(format, args...),
			Expected: expected,
			Actual:   actual,
		})
	}

	roomsByID := make(map[uuid.UUID]*models.Room, len(rooms))
	for _, r := range rooms {
		roomsByID[r.ID] = r
	}

	ledger := make(map[uuid.UUID]int, len(rooms))
	beds := make(map[string]uuid.UUID)
	for _, t := range occupying(tenants) {
		room, ok := roomsByID[t.RoomID]
		if !ok {
			add(IssueOrphanTenant, t.ID, 0, 1, "tenant %s occupies bed %s in a room that does not exist", t.Name, t.BedID)
			continue
		}
		ledger[room.ID]++
		if want := room.BedID(t.BedIndex); t.BedID != want {
			add(IssueBedIDMismatch, t.ID, 0, 0, "tenant %s holds bed %s but room %s names it %s", t.Name, t.BedID, room.RoomNumber, want)
		}
		key := fmt.Sprintf("%s/%d", room.ID, t.BedIndex)
		if other, dup := beds[key]; dup {
			add(IssueDuplicateBed, t.ID, 1, 2, "bed %s is held by tenants %s and %s", t.BedID, other, t.ID)
		}
		beds[key] = t.ID
	}

	roomsPerType := make(map[uuid.UUID]int, len(types))
	ledgerPerType := make(map[uuid.UUID]int, len(types))
	for _, r := range rooms {
		roomsPerType[r.RoomTypeID]++
		ledgerPerType[r.RoomTypeID] += ledger[r.ID]
		if r.OccupiedBeds != ledger[r.ID] {
			add(IssueRoomCounter, r.ID, ledger[r.ID], r.OccupiedBeds,
				"room %s counts %d occupied beds, ledger has %d", r.RoomNumber, r.OccupiedBeds, ledger[r.ID])
		}
		if ledger[r.ID] > r.MaxBeds || r.OccupiedBeds > r.MaxBeds {
			add(IssueRoomOverCapacity, r.ID, r.MaxBeds, max(ledger[r.ID], r.OccupiedBeds),
				"room %s holds more tenants than its %d beds", r.RoomNumber, r.MaxBeds)
		}
		if n, err := models.BedsPerRoom(r.Category); err == nil && n != r.MaxBeds {
			add(IssueRoomMaxBeds, r.ID, n, r.MaxBeds,
				"room %s is %s but has %d beds", r.RoomNumber, r.Category, r.MaxBeds)
		}
	}

	for _, rt := range types {
		if roomsPerType[rt.ID] != rt.RoomCount {
			add(IssueRoomCount, rt.ID, rt.RoomCount, roomsPerType[rt.ID],
				"%s room type declares %d rooms, %d exist", rt.Category, rt.RoomCount, roomsPerType[rt.ID])
		}
		if rt.OccupiedBeds != ledgerPerType[rt.ID] {
			add(IssueRoomTypeCounter, rt.ID, ledgerPerType[rt.ID], rt.OccupiedBeds,
				"%s room type counts %d occupied beds, ledger has %d", rt.Category, rt.OccupiedBeds, ledgerPerType[rt.ID])
		}
		if _, err := rt.AvailableBeds(); err != nil {
			total, _ := rt.TotalBeds()
			add(IssueRoomTypeOverbooked, rt.ID, total, rt.OccupiedBeds, "%v", err)
		}
	}

	report.Consistent = len(report.Issues) == 0
	if report.Consistent {
		return report, nil
	}

	utils.Logger.WithFields(logrus.Fields{
		"alert":      "invariant_breach",
		"propertyID": propertyID,
		"issues":     len(report.Issues),
	}).Error("Occupancy counters diverged from the tenant ledger")
	return report, fmt.Errorf("%w: property %s has %d consistency issues",
		utils.ErrInvariantBreach, propertyID, len(report.Issues))
}

func (s *OccupancyService) VerifyPropertyForOwner(ctx context.Context, ownerID, propertyID uuid.UUID) (*dtos.ConsistencyReport, error) {
	if err := s.guard.Authorize(ctx, ownerID, propertyID); err != nil {
		return nil, err
	}
	return s.VerifyProperty(ctx, propertyID)
}

// RunConsistencySweep verifies every property and returns how many are
// inconsistent. Only store failures are returned as errors.
func (s *OccupancyService) RunConsistencySweep(ctx context.Context) (int, error) {
	props, err := s.store.Repos().Properties.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	bad := 0
	for _, p := range props {
		if err := ctx.Err(); err != nil {
			return bad, err
		}
		if _, err := s.VerifyProperty(ctx, p.ID); err != nil {
			if errors.Is(err, utils.ErrInvariantBreach) {
				bad++
				continue
			}
			return bad, err
		}
	}
	utils.Logger.WithFields(logrus.Fields{
		"properties":   len(props),
		"inconsistent": bad,
	}).Info("Consistency sweep finished")
	return bad, nil
}

// SendVacateReminders notifies tenants whose approved vacate date falls
// within the configured lead window. It returns the number of reminders sent.
func (s *OccupancyService) SendVacateReminders(ctx context.Context) (int, error) {
	repos := s.store.Repos()
	today := utils.DateOnly(s.now().UTC())
	until := today.AddDate(0, 0, s.cfg.VacateReminderLeadDays)

	notices, err := repos.Notices.ListApprovedVacatingBetween(ctx, today, until)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, n := range notices {
		t, err := repos.Tenants.GetByID(ctx, n.TenantID)
		if err != nil {
			return sent, err
		}
		if t == nil || !t.IsOccupying() {
			continue
		}
		date := n.VacateDate.Format(dtos.DateLayout)
		s.dispatcher.Dispatch(Event{
			Name:       EventTenantVacateDue,
			OccurredAt: s.now(),
			PropertyID: n.PropertyID,
			RoomID:     &n.RoomID,
			TenantID:   &t.ID,
			NoticeID:   &n.ID,
			Subject:    "Your move-out date is coming up",
			Message:    fmt.Sprintf("Reminder: you are due to vacate bed %s on %s.", t.BedID, date),
			Data:       map[string]any{"vacateDate": date, "bedID": t.BedID},
			Recipient:  &Recipient{Name: t.Name, Email: t.Email, Phone: t.Phone},
		})
		sent++
	}
	utils.Logger.WithField("reminders", sent).Info("Vacate reminders dispatched")
	return sent, nil
}
