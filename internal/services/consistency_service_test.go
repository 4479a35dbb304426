package services_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/services"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/testhelpers"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueKinds(r *dtos.ConsistencyReport) []string {
	var kinds []string
	for _, i := range r.Issues {
		kinds = append(kinds, i.Kind)
	}
	return kinds
}

func TestVerifyProperty_CleanAfterMixedOperations(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{
		models.SharingSingle: 2,
		models.SharingDouble: 3,
		models.SharingTriple: 1,
	})
	var tenants []*models.Tenant
	for _, number := range []string{"S01", "D01", "D01", "D02", "T01", "T01"} {
		tenants = append(tenants, f.Assign(f.RoomNumbered(prop, number).ID, "t"+number))
	}
	_, err := f.Service.RemoveTenant(f.Ctx, f.OwnerID, tenants[2].ID, dtos.RemoveTenantRequest{Reason: "left"})
	require.NoError(t, err)
	_, err = f.Service.RenameRoom(f.Ctx, f.OwnerID, f.RoomNumbered(prop, "T01").ID, "T-A")
	require.NoError(t, err)
	require.NoError(t, f.Service.DeleteRoom(f.Ctx, f.OwnerID, f.RoomNumbered(prop, "D03").ID))

	report, err := f.Service.VerifyProperty(f.Ctx, prop.ID)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Empty(t, report.Issues)
	assert.True(t, report.CheckedAt.Equal(f.Now()))

	tenantsByRoomType := map[uuid.UUID]int{}
	list, err := f.Service.ListTenants(f.Ctx, f.OwnerID, prop.ID, nil, nil)
	require.NoError(t, err)
	for _, tn := range list.Results {
		if tn.IsOccupying() {
			tenantsByRoomType[f.Room(tn.RoomID).RoomTypeID]++
		}
	}
	for _, rt := range prop.RoomTypes {
		assert.Equal(t, tenantsByRoomType[rt.ID], f.RoomType(rt.ID).OccupiedBeds, "%s ledger", rt.Category)
	}
}

func TestVerifyProperty_ReadsOneSnapshotUnderLoad(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingQuad: 2})
	roomIDs := []uuid.UUID{f.RoomNumbered(prop, "Q01").ID, f.RoomNumbered(prop, "Q02").ID}

	const workers, rounds = 4, 40
	var wg sync.WaitGroup
	var running atomic.Int32
	errCh := make(chan error, workers)
	running.Store(workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			defer running.Add(-1)
			for i := 0; i < rounds; i++ {
				userID := uuid.New()
				resp, err := f.Service.AssignTenant(f.Ctx, f.OwnerID, roomIDs[(w+i)%2], dtos.AssignTenantRequest{
					Name: "load", Email: "load@example.com", UserID: &userID, Rent: 4000,
				})
				if err != nil {
					errCh <- err
					return
				}
				if _, err := f.Service.RemoveTenant(f.Ctx, f.OwnerID, resp.Tenant.ID, dtos.RemoveTenantRequest{Reason: "churn"}); err != nil {
					errCh <- err
					return
				}
			}
		}(w)
	}

	checks := 0
	for {
		done := running.Load() == 0
		report, err := f.Service.VerifyProperty(f.Ctx, prop.ID)
		require.NoError(t, err, "issues seen mid-traffic: %v", report)
		require.True(t, report.Consistent)

		roster, err := f.Service.GetRoster(f.Ctx, f.OwnerID, prop.ID)
		require.NoError(t, err)
		for _, group := range roster.RoomTypes {
			for _, room := range group.Rooms {
				held := 0
				for _, bed := range room.Beds {
					if bed.Occupied {
						held++
					}
				}
				require.Equal(t, room.OccupiedBeds, held, "roster room %s", room.RoomNumber)
			}
		}
		checks++
		if done {
			break
		}
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}
	assert.Positive(t, checks)
	f.RequireConsistent(prop.ID)
	assert.Equal(t, 0, f.Room(roomIDs[0]).OccupiedBeds+f.Room(roomIDs[1]).OccupiedBeds)
}

func TestVerifyProperty_DetectsDivergedCounters(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 2})
	d1 := f.RoomNumbered(prop, "D01")
	f.Assign(d1.ID, "a")

	repos := f.Store.Repos()
	d2 := f.Room(f.RoomNumbered(prop, "D02").ID)
	d2.OccupiedBeds = 1
	require.NoError(t, repos.Rooms.Update(f.Ctx, d2))

	rt := f.RoomType(d1.RoomTypeID)
	rt.OccupiedBeds = 3
	require.NoError(t, repos.RoomTypes.Update(f.Ctx, rt))

	report, err := f.Service.VerifyProperty(f.Ctx, prop.ID)
	require.ErrorIs(t, err, utils.ErrInvariantBreach)
	require.NotNil(t, report)
	assert.False(t, report.Consistent)
	assert.ElementsMatch(t, []string{services.IssueRoomCounter, services.IssueRoomTypeCounter}, issueKinds(report))

	for _, issue := range report.Issues {
		switch issue.Kind {
		case services.IssueRoomCounter:
			assert.Equal(t, d2.ID, issue.TargetID)
			assert.Equal(t, 0, issue.Expected)
			assert.Equal(t, 1, issue.Actual)
		case services.IssueRoomTypeCounter:
			assert.Equal(t, 1, issue.Expected)
			assert.Equal(t, 3, issue.Actual)
		}
	}
}

func TestVerifyProperty_DetectsRoomCountDrift(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingSingle: 1})
	rt := f.RoomType(prop.RoomTypes[0].ID)
	rt.RoomCount = 4
	require.NoError(t, f.Store.Repos().RoomTypes.Update(f.Ctx, rt))

	report, err := f.Service.VerifyProperty(f.Ctx, prop.ID)
	require.ErrorIs(t, err, utils.ErrInvariantBreach)
	assert.Equal(t, []string{services.IssueRoomCount}, issueKinds(report))
}

func TestVerifyProperty_UnknownProperty(t *testing.T) {
	f := testhelpers.NewFixture(t)
	_, err := f.Service.VerifyProperty(f.Ctx, uuid.New())
	assert.ErrorIs(t, err, utils.ErrPropertyNotFound)

	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingSingle: 1})
	_, err = f.Service.VerifyPropertyForOwner(f.Ctx, uuid.New(), prop.ID)
	assert.ErrorIs(t, err, utils.ErrForbidden)
}

func TestRunConsistencySweep(t *testing.T) {
	f := testhelpers.NewFixture(t)
	good := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 1})
	bad := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 1})
	f.Assign(f.RoomNumbered(good, "D01").ID, "a")

	n, err := f.Service.RunConsistencySweep(f.Ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	room := f.Room(f.RoomNumbered(bad, "D01").ID)
	room.OccupiedBeds = 2
	require.NoError(t, f.Store.Repos().Rooms.Update(f.Ctx, room))

	n, err = f.Service.RunConsistencySweep(f.Ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSendVacateReminders(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 1})
	room := f.RoomNumbered(prop, "D01")
	soon := f.Assign(room.ID, "soon")
	later := f.Assign(room.ID, "later")

	for tenant, date := range map[*models.Tenant]string{soon: "2025-03-05", later: "2025-03-31"} {
		n, err := submit(f, tenant, date)
		require.NoError(t, err)
		_, err = f.Service.DecideNotice(f.Ctx, f.OwnerID, n.ID, dtos.DecideNoticeRequest{Status: models.NoticeStatusApproved})
		require.NoError(t, err)
	}

	sent, err := f.Service.SendVacateReminders(f.Ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	f.Dispatcher.Wait()
	due := f.Notifier.Named(services.EventTenantVacateDue)
	require.Len(t, due, 1)
	require.NotNil(t, due[0].TenantID)
	assert.Equal(t, soon.ID, *due[0].TenantID)
	assert.Contains(t, due[0].Message, "D01-B1")

	_, err = f.Service.RemoveTenant(f.Ctx, f.OwnerID, soon.ID, dtos.RemoveTenantRequest{Reason: "vacated"})
	require.NoError(t, err)
	sent, err = f.Service.SendVacateReminders(f.Ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent, "moved out tenants get no reminder")

	f.SetNow(time.Date(2025, time.March, 29, 8, 0, 0, 0, time.UTC))
	sent, err = f.Service.SendVacateReminders(f.Ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}
