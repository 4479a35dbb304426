//go:build (dev_test || staging_test) && integration

package integration

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/testhelpers"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPg_AssignRemoveRoundTrip(t *testing.T) {
	f := testhelpers.NewFixtureWithStore(t, store)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 1, models.SharingTriple: 1})
	room := f.RoomNumbered(prop, "D01")

	a := f.Assign(room.ID, "pg_a_"+uuid.NewString()[:8])
	f.Assign(room.ID, "pg_b_"+uuid.NewString()[:8])
	assert.Equal(t, models.RoomStatusFull, f.Room(room.ID).Status())

	_, err := f.Service.RemoveTenant(f.Ctx, f.OwnerID, a.ID, dtos.RemoveTenantRequest{Reason: "integration"})
	require.NoError(t, err)
	gone := f.Tenant(a.ID)
	assert.Equal(t, models.TenantStatusMovedOut, gone.Status)
	require.Len(t, gone.StatusHistory, 2)
	require.Len(t, gone.RentHistory, 1)

	_, err = f.Service.RenameRoom(f.Ctx, f.OwnerID, room.ID, "D-"+uuid.NewString()[:4])
	require.NoError(t, err)
	f.RequireConsistent(prop.ID)
}

// Row locks must serialize the last-bed race across pool connections.
func TestPg_ConcurrentLastBed(t *testing.T) {
	f := testhelpers.NewFixtureWithStore(t, store)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 1})
	room := f.RoomNumbered(prop, "D01")
	f.Assign(room.ID, "first")

	const concurrency = 8
	var wg sync.WaitGroup
	errCh := make(chan error, concurrency)
	start := make(chan struct{})
	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.Service.AssignTenant(f.Ctx, f.OwnerID, room.ID, dtos.AssignTenantRequest{
				Name: "racer", Email: "racer@example.com", Rent: 1,
			})
			errCh <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errCh)

	wins := 0
	for err := range errCh {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, utils.ErrRoomFull):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 2, f.Room(room.ID).OccupiedBeds)
	assert.Equal(t, 2, f.RoomType(room.RoomTypeID).OccupiedBeds)
	f.RequireConsistent(prop.ID)
}

func TestPg_NoticeFlow(t *testing.T) {
	f := testhelpers.NewFixtureWithStore(t, store)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingSingle: 1})
	tenant := f.Assign(f.RoomNumbered(prop, "S01").ID, "notice")

	n, err := f.Service.SubmitNotice(f.Ctx, tenant.UserID, dtos.SubmitNoticeRequest{VacateDate: "2025-03-31", Reason: "pg"})
	require.NoError(t, err)

	dup := &models.Notice{
		ID: uuid.New(), TenantID: tenant.ID, PropertyID: prop.ID, RoomID: tenant.RoomID, OwnerID: f.OwnerID,
		SubmittedAt: f.Now(), VacateDate: n.VacateDate, Reason: "dup", Status: models.NoticeStatusPending,
	}
	err = f.Store.Repos().Notices.Create(f.Ctx, dup)
	require.ErrorIs(t, err, utils.ErrNoticeAlreadyPending, "partial unique index backs the pending check")

	_, err = f.Service.DecideNotice(f.Ctx, f.OwnerID, n.ID, dtos.DecideNoticeRequest{Status: models.NoticeStatusApproved})
	require.NoError(t, err)
	stored := f.Tenant(tenant.ID)
	assert.Equal(t, models.TenantStatusNotice, stored.Status)
	require.NotNil(t, stored.PlannedVacateDate)
	f.RequireConsistent(prop.ID)
}

func TestPg_UpdateWithRetry(t *testing.T) {
	f := testhelpers.NewFixtureWithStore(t, store)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingSingle: 1})

	const concurrency = 3
	var wg sync.WaitGroup
	errCh := make(chan error, concurrency)
	for i := range concurrency {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errCh <- store.Repos().Properties.UpdateWithRetry(f.Ctx, prop.ID, func(p *models.Property) error {
				p.City = "city_" + string(rune('a'+n))
				return nil
			})
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	got, err := store.Repos().Properties.GetByID(f.Ctx, prop.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1+concurrency), got.RowVersion)
}

// Tenant row locks must keep a move-out and an approval from both writing
// the tenant's status.
func TestPg_MoveOutRacingApproval(t *testing.T) {
	f := testhelpers.NewFixtureWithStore(t, store)
	for i := 0; i < 10; i++ {
		prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 1})
		tenant := f.Assign(f.RoomNumbered(prop, "D01").ID, "pg_race_"+uuid.NewString()[:8])
		notice := f.SubmitNotice(tenant, "2025-03-31")
		f.RaceMoveOutAgainstApproval(tenant, notice.ID)
	}
}
