package services_test

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/services"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/testhelpers"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignTenant_FillsRoomThenRejects(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 1})
	room := f.RoomNumbered(prop, "D01")

	first := f.Assign(room.ID, "asha")
	assert.Equal(t, "D01-B1", first.BedID)
	assert.Equal(t, models.RoomStatusPartial, f.Room(room.ID).Status())

	second := f.Assign(room.ID, "vikram")
	assert.Equal(t, "D01-B2", second.BedID)
	full := f.Room(room.ID)
	assert.Equal(t, 2, full.OccupiedBeds)
	assert.Equal(t, models.RoomStatusFull, full.Status())

	_, err := f.Service.AssignTenant(f.Ctx, f.OwnerID, room.ID, dtos.AssignTenantRequest{
		Name: "late", Email: "late@example.com", Rent: 4000,
	})
	require.ErrorIs(t, err, utils.ErrRoomFull)
	assert.Equal(t, 2, f.Room(room.ID).OccupiedBeds)
	assert.Equal(t, 2, f.RoomType(room.RoomTypeID).OccupiedBeds)

	f.RequireConsistent(prop.ID)
}

func TestAssignTenant_RecordsInitialHistories(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingSingle: 1})
	room := f.RoomNumbered(prop, "S01")

	tenant := f.Assign(room.ID, "meera")
	stored := f.Tenant(tenant.ID)
	assert.Equal(t, models.TenantStatusActive, stored.Status)
	require.Len(t, stored.RentHistory, 1)
	assert.Equal(t, 5000.0, stored.RentHistory[0].Amount)
	require.Len(t, stored.StatusHistory, 1)
	assert.Equal(t, models.TenantStatusActive, stored.StatusHistory[0].Status)
	assert.Equal(t, 1, f.RoomType(room.RoomTypeID).OccupiedBeds)

	f.Dispatcher.Wait()
	assigned := f.Notifier.Named(services.EventTenantAssigned)
	require.Len(t, assigned, 1)
	require.NotNil(t, assigned[0].Recipient)
	assert.Equal(t, "meera@example.com", assigned[0].Recipient.Email)
}

func TestAssignTenant_UnknownRoomAndForeignOwner(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 1})
	room := f.RoomNumbered(prop, "D01")
	req := dtos.AssignTenantRequest{Name: "x", Email: "x@example.com"}

	_, err := f.Service.AssignTenant(f.Ctx, f.OwnerID, uuid.New(), req)
	assert.ErrorIs(t, err, utils.ErrRoomNotFound)

	_, err = f.Service.AssignTenant(f.Ctx, uuid.New(), room.ID, req)
	assert.ErrorIs(t, err, utils.ErrForbidden)
	assert.Equal(t, 0, f.Room(room.ID).OccupiedBeds)
}

func TestAssignTenant_UserCannotHoldTwoBeds(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 2})
	first := f.Assign(f.RoomNumbered(prop, "D01").ID, "asha")

	_, err := f.Service.AssignTenant(f.Ctx, f.OwnerID, f.RoomNumbered(prop, "D02").ID, dtos.AssignTenantRequest{
		Name: "asha", Email: "asha@example.com", UserID: &first.UserID,
	})
	require.ErrorIs(t, err, utils.ErrInvalidTransition)
	assert.Equal(t, 0, f.Room(f.RoomNumbered(prop, "D02").ID).OccupiedBeds)
}

func TestAssignTenant_ReusesLowestFreeBed(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingTriple: 1})
	room := f.RoomNumbered(prop, "T01")

	a := f.Assign(room.ID, "a")
	f.Assign(room.ID, "b")
	f.Assign(room.ID, "c")

	_, err := f.Service.RemoveTenant(f.Ctx, f.OwnerID, a.ID, dtos.RemoveTenantRequest{Reason: "left"})
	require.NoError(t, err)

	d := f.Assign(room.ID, "d")
	assert.Equal(t, 1, d.BedIndex)
	assert.Equal(t, "T01-B1", d.BedID)
	f.RequireConsistent(prop.ID)
}

func TestAssignTenant_ConcurrentLastBed(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingTriple: 1})
	room := f.RoomNumbered(prop, "T01")
	f.Assign(room.ID, "a")
	f.Assign(room.ID, "b")

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		full      int
		other     []error
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.Service.AssignTenant(f.Ctx, f.OwnerID, room.ID, dtos.AssignTenantRequest{
				Name: "racer", Email: "racer@example.com", Rent: 3000,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, utils.ErrRoomFull):
				full++
			default:
				other = append(other, err)
			}
		}()
	}
	close(start)
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 1, successes)
	assert.Equal(t, n-1, full)
	assert.Equal(t, 3, f.Room(room.ID).OccupiedBeds)
	f.RequireConsistent(prop.ID)
}

func TestRemoveTenant_FreesBed(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 1})
	room := f.RoomNumbered(prop, "D01")
	a := f.Assign(room.ID, "a")
	f.Assign(room.ID, "b")
	require.Equal(t, models.RoomStatusFull, f.Room(room.ID).Status())

	resp, err := f.Service.RemoveTenant(f.Ctx, f.OwnerID, a.ID, dtos.RemoveTenantRequest{Reason: "relocating"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Room.OccupiedBeds)
	assert.Equal(t, models.RoomStatusPartial, resp.Room.Status)

	gone := f.Tenant(a.ID)
	assert.Equal(t, models.TenantStatusMovedOut, gone.Status)
	require.NotNil(t, gone.MoveOutDate)
	assert.True(t, gone.MoveOutDate.Equal(f.Now()))
	require.Len(t, gone.StatusHistory, 2)
	assert.Equal(t, models.TenantStatusMovedOut, gone.StatusHistory[1].Status)
	assert.Equal(t, "relocating", gone.StatusHistory[1].Reason)
	assert.Equal(t, 1, f.RoomType(room.RoomTypeID).OccupiedBeds)
	f.RequireConsistent(prop.ID)
}

func TestRemoveTenant_AlreadyMovedOut(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 1})
	a := f.Assign(f.RoomNumbered(prop, "D01").ID, "a")

	_, err := f.Service.RemoveTenant(f.Ctx, f.OwnerID, a.ID, dtos.RemoveTenantRequest{Reason: "left"})
	require.NoError(t, err)

	_, err = f.Service.RemoveTenant(f.Ctx, f.OwnerID, a.ID, dtos.RemoveTenantRequest{Reason: "again"})
	require.ErrorIs(t, err, utils.ErrTenantNotFound)
	assert.Len(t, f.Tenant(a.ID).StatusHistory, 2)
	f.RequireConsistent(prop.ID)

	_, err = f.Service.RemoveTenant(f.Ctx, f.OwnerID, uuid.New(), dtos.RemoveTenantRequest{Reason: "ghost"})
	assert.ErrorIs(t, err, utils.ErrTenantNotFound)
}

func TestRenameRoom_RewritesBedIDs(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 1})
	room := f.RoomNumbered(prop, "D01")
	a := f.Assign(room.ID, "a")
	b := f.Assign(room.ID, "b")

	resp, err := f.Service.RenameRoom(f.Ctx, f.OwnerID, room.ID, "D02")
	require.NoError(t, err)
	assert.Equal(t, "D02", resp.Room.RoomNumber)
	assert.Len(t, resp.Tenants, 2)
	assert.Equal(t, "D02-B1", f.Tenant(a.ID).BedID)
	assert.Equal(t, "D02-B2", f.Tenant(b.ID).BedID)
	f.RequireConsistent(prop.ID)
}

func TestRenameRoom_LeavesMovedOutHistoryAlone(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 1})
	room := f.RoomNumbered(prop, "D01")
	a := f.Assign(room.ID, "a")
	_, err := f.Service.RemoveTenant(f.Ctx, f.OwnerID, a.ID, dtos.RemoveTenantRequest{Reason: "left"})
	require.NoError(t, err)

	_, err = f.Service.RenameRoom(f.Ctx, f.OwnerID, room.ID, "D10")
	require.NoError(t, err)
	assert.Equal(t, "D01-B1", f.Tenant(a.ID).BedID)
}

func TestRenameRoom_DuplicateNumber(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 2})
	d1 := f.RoomNumbered(prop, "D01")
	a := f.Assign(d1.ID, "a")

	_, err := f.Service.RenameRoom(f.Ctx, f.OwnerID, d1.ID, "D02")
	require.ErrorIs(t, err, utils.ErrDuplicateRoomNumber)
	assert.Equal(t, "D01", f.Room(d1.ID).RoomNumber)
	assert.Equal(t, "D01-B1", f.Tenant(a.ID).BedID)

	resp, err := f.Service.RenameRoom(f.Ctx, f.OwnerID, d1.ID, "D01")
	require.NoError(t, err, "renaming to the current number is a no-op")
	assert.Equal(t, "D01", resp.Room.RoomNumber)
}

func TestDeleteRoom(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 2})
	d1 := f.RoomNumbered(prop, "D01")
	d2 := f.RoomNumbered(prop, "D02")
	a := f.Assign(d1.ID, "a")

	err := f.Service.DeleteRoom(f.Ctx, f.OwnerID, d1.ID)
	require.ErrorIs(t, err, utils.ErrRoomNotEmpty)
	assert.Equal(t, 1, f.Room(d1.ID).OccupiedBeds)
	assert.Equal(t, models.TenantStatusActive, f.Tenant(a.ID).Status)
	assert.Equal(t, 2, f.RoomType(d1.RoomTypeID).RoomCount)

	require.NoError(t, f.Service.DeleteRoom(f.Ctx, f.OwnerID, d2.ID))
	rt := f.RoomType(d2.RoomTypeID)
	assert.Equal(t, 1, rt.RoomCount)
	total, err := rt.TotalBeds()
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	f.RequireConsistent(prop.ID)

	err = f.Service.DeleteRoom(f.Ctx, f.OwnerID, d2.ID)
	assert.ErrorIs(t, err, utils.ErrRoomNotFound)
}

func TestDeleteRoom_AfterTenantsMovedOut(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingSingle: 1})
	room := f.RoomNumbered(prop, "S01")
	a := f.Assign(room.ID, "a")
	_, err := f.Service.RemoveTenant(f.Ctx, f.OwnerID, a.ID, dtos.RemoveTenantRequest{Reason: "left"})
	require.NoError(t, err)

	require.NoError(t, f.Service.DeleteRoom(f.Ctx, f.OwnerID, room.ID))
	assert.Equal(t, models.TenantStatusMovedOut, f.Tenant(a.ID).Status)
}

func TestMaterializeRooms_Idempotent(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{
		models.SharingSingle: 1,
		models.SharingDouble: 2,
	})
	require.Len(t, prop.Rooms, 3)

	resp, err := f.Service.MaterializeRooms(f.Ctx, f.OwnerID, prop.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Created)
	assert.Len(t, resp.Rooms, 3)

	numbers := map[string]bool{}
	for _, r := range resp.Rooms {
		assert.False(t, numbers[r.RoomNumber], "duplicate room number %s", r.RoomNumber)
		numbers[r.RoomNumber] = true
		assert.Equal(t, models.RoomStatusEmpty, r.Status)
	}
	assert.True(t, numbers["S01"])
	assert.True(t, numbers["D01"])
	assert.True(t, numbers["D02"])
}

func TestMaterializeRooms_SkipsRenamedNumbers(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 1})
	d1 := f.RoomNumbered(prop, "D01")

	_, err := f.Service.RenameRoom(f.Ctx, f.OwnerID, d1.ID, "D02")
	require.NoError(t, err)
	_, err = f.Service.EditRoomPricing(f.Ctx, f.OwnerID, prop.ID, d1.RoomTypeID, dtos.EditRoomPricingRequest{
		RoomCount: utils.Ptr(2),
	})
	require.NoError(t, err)

	resp, err := f.Service.MaterializeRooms(f.Ctx, f.OwnerID, prop.ID)
	require.NoError(t, err)
	var got []string
	for _, r := range resp.Rooms {
		got = append(got, r.RoomNumber)
	}
	assert.ElementsMatch(t, []string{"D01", "D02"}, got)
	f.RequireConsistent(prop.ID)
}

func TestEditRoomPricing(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 2})
	d1 := f.RoomNumbered(prop, "D01")
	f.Assign(d1.ID, "a")
	rtID := d1.RoomTypeID

	t.Run("price and growth", func(t *testing.T) {
		resp, err := f.Service.EditRoomPricing(f.Ctx, f.OwnerID, prop.ID, rtID, dtos.EditRoomPricingRequest{
			BasePrice: utils.Ptr(9000.0),
			RoomCount: utils.Ptr(3),
		})
		require.NoError(t, err)
		assert.Equal(t, 9000.0, resp.RoomType.BasePrice)
		assert.Equal(t, 6, resp.RoomType.TotalBeds)
		assert.Equal(t, 5, resp.RoomType.AvailableBeds)
		assert.Len(t, resp.Rooms, 3)
		f.RequireConsistent(prop.ID)
	})

	t.Run("override above total is rejected", func(t *testing.T) {
		_, err := f.Service.EditRoomPricing(f.Ctx, f.OwnerID, prop.ID, rtID, dtos.EditRoomPricingRequest{
			OccupiedBedsOverride: utils.Ptr(7),
		})
		require.ErrorIs(t, err, utils.ErrInvalidOccupancyOverride)
		assert.Equal(t, 1, f.RoomType(rtID).OccupiedBeds)
	})

	t.Run("negative override is rejected", func(t *testing.T) {
		_, err := f.Service.EditRoomPricing(f.Ctx, f.OwnerID, prop.ID, rtID, dtos.EditRoomPricingRequest{
			OccupiedBedsOverride: utils.Ptr(-1),
		})
		require.ErrorIs(t, err, utils.ErrInvalidOccupancyOverride)
	})

	t.Run("shrinking below materialized rooms is rejected", func(t *testing.T) {
		_, err := f.Service.EditRoomPricing(f.Ctx, f.OwnerID, prop.ID, rtID, dtos.EditRoomPricingRequest{
			RoomCount: utils.Ptr(1),
		})
		require.ErrorIs(t, err, utils.ErrInvalidRoomCount)
		assert.Equal(t, 3, f.RoomType(rtID).RoomCount)
	})

	t.Run("unknown room type", func(t *testing.T) {
		_, err := f.Service.EditRoomPricing(f.Ctx, f.OwnerID, prop.ID, uuid.New(), dtos.EditRoomPricingRequest{})
		require.ErrorIs(t, err, utils.ErrRoomTypeNotFound)
	})
}

func TestRoomStatusAlwaysDerived(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingQuad: 1})
	room := f.RoomNumbered(prop, "Q01")

	var tenants []*models.Tenant
	for i := 0; i < 4; i++ {
		tenants = append(tenants, f.Assign(room.ID, string(rune('a'+i))))
		r := f.Room(room.ID)
		assert.Equal(t, models.DeriveRoomStatus(r.OccupiedBeds, r.MaxBeds), r.Status())
		assert.LessOrEqual(t, r.OccupiedBeds, r.MaxBeds)
	}
	for _, tn := range tenants {
		_, err := f.Service.RemoveTenant(f.Ctx, f.OwnerID, tn.ID, dtos.RemoveTenantRequest{Reason: "done"})
		require.NoError(t, err)
		r := f.Room(room.ID)
		assert.GreaterOrEqual(t, r.OccupiedBeds, 0)
	}
	assert.Equal(t, models.RoomStatusEmpty, f.Room(room.ID).Status())
	f.RequireConsistent(prop.ID)
}

func TestOwnerAuditTrail(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 1})
	room := f.RoomNumbered(prop, "D01")
	assert.Equal(t, []models.AuditAction{models.AuditCreate}, f.AuditActions(prop.ID))

	a := f.Assign(room.ID, "a")
	b := f.Assign(room.ID, "b")
	assert.Equal(t, []models.AuditAction{models.AuditAssign}, f.AuditActions(a.ID))

	rows := f.AuditCount()
	_, err := f.Service.AssignTenant(f.Ctx, f.OwnerID, room.ID, dtos.AssignTenantRequest{Name: "c", Email: "c@example.com"})
	require.ErrorIs(t, err, utils.ErrRoomFull)
	require.ErrorIs(t, f.Service.DeleteRoom(f.Ctx, f.OwnerID, room.ID), utils.ErrRoomNotEmpty)
	assert.Equal(t, rows, f.AuditCount(), "failed operations leave no audit rows")

	_, err = f.Service.RenameRoom(f.Ctx, f.OwnerID, room.ID, "D09")
	require.NoError(t, err)
	logs, err := f.Store.Repos().AuditLogs.ListByTargetID(f.Ctx, room.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditUpdate, logs[0].Action)
	assert.Equal(t, models.TargetRoom, logs[0].TargetType)
	require.NotNil(t, logs[0].Details)
	var rename map[string]any
	require.NoError(t, json.Unmarshal(*logs[0].Details, &rename))
	assert.Equal(t, "D01", rename["from"])
	assert.Equal(t, "D09", rename["to"])

	_, err = f.Service.RemoveTenant(f.Ctx, f.OwnerID, a.ID, dtos.RemoveTenantRequest{Reason: "left"})
	require.NoError(t, err)
	assert.Equal(t, []models.AuditAction{models.AuditAssign, models.AuditRemove}, f.AuditActions(a.ID))

	notice := f.SubmitNotice(b, "2025-03-31")
	_, err = f.Service.DecideNotice(f.Ctx, f.OwnerID, notice.ID, dtos.DecideNoticeRequest{Status: models.NoticeStatusApproved})
	require.NoError(t, err)
	assert.Equal(t, []models.AuditAction{models.AuditDecide}, f.AuditActions(notice.ID))
	assert.Equal(t, rows+3, f.AuditCount())
}
