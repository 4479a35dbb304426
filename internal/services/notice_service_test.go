package services_test

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/services"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/testhelpers"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noticeFixture(t *testing.T) (*testhelpers.Fixture, *dtos.PropertyResponse, *models.Tenant) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 1})
	tenant := f.Assign(f.RoomNumbered(prop, "D01").ID, "asha")
	return f, prop, tenant
}

func submit(f *testhelpers.Fixture, tenant *models.Tenant, date string) (*models.Notice, error) {
	return f.Service.SubmitNotice(f.Ctx, tenant.UserID, dtos.SubmitNoticeRequest{
		VacateDate: date,
		Reason:     "moving cities",
	})
}

func TestSubmitNotice_CreatesPendingNotice(t *testing.T) {
	f, prop, tenant := noticeFixture(t)

	notice, err := submit(f, tenant, "2025-03-31")
	require.NoError(t, err)
	assert.Equal(t, models.NoticeStatusPending, notice.Status)
	assert.Equal(t, tenant.ID, notice.TenantID)
	assert.Equal(t, prop.ID, notice.PropertyID)
	assert.Equal(t, f.OwnerID, notice.OwnerID)
	assert.Equal(t, "2025-03-31", notice.VacateDate.Format(dtos.DateLayout))
	assert.True(t, notice.SubmittedAt.Equal(f.Now()))

	assert.Equal(t, models.TenantStatusActive, f.Tenant(tenant.ID).Status, "submitting alone changes nothing")

	f.Dispatcher.Wait()
	assert.Len(t, f.Notifier.Named(services.EventNoticeSubmitted), 1)
}

func TestSubmitNotice_Window(t *testing.T) {
	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{"first of month", time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC), nil},
		{"last open day", time.Date(2025, time.April, 5, 23, 59, 0, 0, time.UTC), nil},
		{"day after window", time.Date(2025, time.April, 6, 0, 0, 0, 0, time.UTC), utils.ErrSubmissionWindowClosed},
		{"end of month", time.Date(2025, time.April, 30, 12, 0, 0, 0, time.UTC), utils.ErrSubmissionWindowClosed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, _, tenant := noticeFixture(t)
			f.SetNow(tt.now)

			_, err := submit(f, tenant, "2025-05-31")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				list, err := f.Service.ListMyNotices(f.Ctx, tenant.UserID)
				require.NoError(t, err)
				assert.Empty(t, list.Results)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSubmitNotice_WindowUsesPropertyTimeZone(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop, err := f.Service.CreateProperty(f.Ctx, f.OwnerID, dtos.CreatePropertyRequest{
		Name:     "Kolkata PG",
		TimeZone: "Asia/Kolkata",
		RoomTypes: []dtos.RoomTypeInput{
			{Category: models.SharingSingle, BasePrice: 4000, RoomCount: 1},
		},
	})
	require.NoError(t, err)
	tenant := f.Assign(f.RoomNumbered(prop, "S01").ID, "ravi")

	// 20:00 UTC on the 5th is already the 6th in India.
	f.SetNow(time.Date(2025, time.April, 5, 20, 0, 0, 0, time.UTC))
	_, err = submit(f, tenant, "2025-04-30")
	require.ErrorIs(t, err, utils.ErrSubmissionWindowClosed)

	f.SetNow(time.Date(2025, time.April, 5, 18, 0, 0, 0, time.UTC))
	_, err = submit(f, tenant, "2025-04-30")
	require.NoError(t, err)
}

func TestSubmitNotice_PropertyWindowOverride(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop, err := f.Service.CreateProperty(f.Ctx, f.OwnerID, dtos.CreatePropertyRequest{
		Name:                "Late Window PG",
		NoticeWindowLastDay: utils.Ptr(10),
		RoomTypes: []dtos.RoomTypeInput{
			{Category: models.SharingSingle, BasePrice: 4000, RoomCount: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, prop.NoticeWindowLastDay)
	tenant := f.Assign(f.RoomNumbered(prop, "S01").ID, "ravi")

	f.SetNow(time.Date(2025, time.April, 8, 9, 0, 0, 0, time.UTC))
	_, err = submit(f, tenant, "2025-04-30")
	require.NoError(t, err)
}

func TestSubmitNotice_Rejections(t *testing.T) {
	t.Run("past vacate date", func(t *testing.T) {
		f, _, tenant := noticeFixture(t)
		_, err := submit(f, tenant, "2025-03-02")
		require.ErrorIs(t, err, utils.ErrInvalidVacateDate)
	})

	t.Run("today is allowed", func(t *testing.T) {
		f, _, tenant := noticeFixture(t)
		_, err := submit(f, tenant, "2025-03-03")
		require.NoError(t, err)
	})

	t.Run("malformed date", func(t *testing.T) {
		f, _, tenant := noticeFixture(t)
		_, err := submit(f, tenant, "31/03/2025")
		require.ErrorIs(t, err, utils.ErrInvalidVacateDate)
	})

	t.Run("second pending notice", func(t *testing.T) {
		f, _, tenant := noticeFixture(t)
		_, err := submit(f, tenant, "2025-03-31")
		require.NoError(t, err)
		_, err = submit(f, tenant, "2025-04-15")
		require.ErrorIs(t, err, utils.ErrNoticeAlreadyPending)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := testhelpers.NewFixture(t)
		_, err := f.Service.SubmitNotice(f.Ctx, uuid.New(), dtos.SubmitNoticeRequest{VacateDate: "2025-03-31", Reason: "x"})
		require.ErrorIs(t, err, utils.ErrTenantNotFound)
	})

	t.Run("moved out tenant", func(t *testing.T) {
		f, _, tenant := noticeFixture(t)
		_, err := f.Service.RemoveTenant(f.Ctx, f.OwnerID, tenant.ID, dtos.RemoveTenantRequest{Reason: "left"})
		require.NoError(t, err)
		_, err = submit(f, tenant, "2025-03-31")
		require.ErrorIs(t, err, utils.ErrTenantNotFound)
	})
}

func TestDecideNotice_ApproveKeepsBedOccupied(t *testing.T) {
	f, prop, tenant := noticeFixture(t)
	room := f.RoomNumbered(prop, "D01")
	notice, err := submit(f, tenant, "2025-03-31")
	require.NoError(t, err)

	decided, err := f.Service.DecideNotice(f.Ctx, f.OwnerID, notice.ID, dtos.DecideNoticeRequest{
		Status:        models.NoticeStatusApproved,
		OwnerResponse: utils.Ptr("see you at checkout"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.NoticeStatusApproved, decided.Status)
	require.NotNil(t, decided.DecidedAt)
	assert.Equal(t, "see you at checkout", utils.Val(decided.OwnerResponse))

	stored := f.Tenant(tenant.ID)
	assert.Equal(t, models.TenantStatusNotice, stored.Status)
	require.NotNil(t, stored.PlannedVacateDate)
	assert.Equal(t, "2025-03-31", stored.PlannedVacateDate.Format(dtos.DateLayout))
	require.Len(t, stored.StatusHistory, 2)
	assert.Equal(t, models.TenantStatusNotice, stored.StatusHistory[1].Status)

	assert.Equal(t, 1, f.Room(room.ID).OccupiedBeds)
	assert.Equal(t, 1, f.RoomType(room.RoomTypeID).OccupiedBeds)
	f.RequireConsistent(prop.ID)

	f.Dispatcher.Wait()
	decidedEvents := f.Notifier.Named(services.EventNoticeDecided)
	require.Len(t, decidedEvents, 1)
	require.NotNil(t, decidedEvents[0].Recipient)
	assert.Equal(t, "asha@example.com", decidedEvents[0].Recipient.Email)
	assert.Contains(t, decidedEvents[0].Message, "see you at checkout")
}

func TestDecideNotice_NoticeTenantCanStillBeRemoved(t *testing.T) {
	f, prop, tenant := noticeFixture(t)
	notice, err := submit(f, tenant, "2025-03-31")
	require.NoError(t, err)
	_, err = f.Service.DecideNotice(f.Ctx, f.OwnerID, notice.ID, dtos.DecideNoticeRequest{Status: models.NoticeStatusApproved})
	require.NoError(t, err)

	resp, err := f.Service.RemoveTenant(f.Ctx, f.OwnerID, tenant.ID, dtos.RemoveTenantRequest{Reason: "notice served"})
	require.NoError(t, err)
	assert.Equal(t, models.TenantStatusMovedOut, resp.Tenant.Status)
	assert.Equal(t, models.RoomStatusEmpty, resp.Room.Status)
	assert.Len(t, f.Tenant(tenant.ID).StatusHistory, 3)
	f.RequireConsistent(prop.ID)
}

func TestDecideNotice_RacingMoveOutIsSerialized(t *testing.T) {
	for i := 0; i < 30; i++ {
		f, _, tenant := noticeFixture(t)
		notice := f.SubmitNotice(tenant, "2025-03-31")
		f.RaceMoveOutAgainstApproval(tenant, notice.ID)
	}
}

func TestDecideNotice_Reject(t *testing.T) {
	f, _, tenant := noticeFixture(t)
	notice, err := submit(f, tenant, "2025-03-31")
	require.NoError(t, err)

	decided, err := f.Service.DecideNotice(f.Ctx, f.OwnerID, notice.ID, dtos.DecideNoticeRequest{Status: models.NoticeStatusRejected})
	require.NoError(t, err)
	assert.Equal(t, models.NoticeStatusRejected, decided.Status)
	assert.Equal(t, models.TenantStatusActive, f.Tenant(tenant.ID).Status)

	_, err = submit(f, tenant, "2025-04-15")
	require.NoError(t, err, "a rejected notice does not block a new one")
}

func TestDecideNotice_Errors(t *testing.T) {
	f, _, tenant := noticeFixture(t)
	notice, err := submit(f, tenant, "2025-03-31")
	require.NoError(t, err)

	_, err = f.Service.DecideNotice(f.Ctx, f.OwnerID, notice.ID, dtos.DecideNoticeRequest{Status: models.NoticeStatusRevoked})
	assert.ErrorIs(t, err, utils.ErrInvalidTransition)

	_, err = f.Service.DecideNotice(f.Ctx, uuid.New(), notice.ID, dtos.DecideNoticeRequest{Status: models.NoticeStatusApproved})
	assert.ErrorIs(t, err, utils.ErrForbidden)

	_, err = f.Service.DecideNotice(f.Ctx, f.OwnerID, uuid.New(), dtos.DecideNoticeRequest{Status: models.NoticeStatusApproved})
	assert.ErrorIs(t, err, utils.ErrNoticeNotFound)

	_, err = f.Service.DecideNotice(f.Ctx, f.OwnerID, notice.ID, dtos.DecideNoticeRequest{Status: models.NoticeStatusRejected})
	require.NoError(t, err)
	_, err = f.Service.DecideNotice(f.Ctx, f.OwnerID, notice.ID, dtos.DecideNoticeRequest{Status: models.NoticeStatusApproved})
	assert.ErrorIs(t, err, utils.ErrInvalidTransition, "decisions are final")
	assert.Equal(t, models.TenantStatusActive, f.Tenant(tenant.ID).Status)
}

func TestRevokeNotice(t *testing.T) {
	f, _, tenant := noticeFixture(t)
	notice, err := submit(f, tenant, "2025-03-31")
	require.NoError(t, err)

	_, err = f.Service.RevokeNotice(f.Ctx, uuid.New(), notice.ID)
	require.ErrorIs(t, err, utils.ErrNoticeNotFound, "other users cannot see the notice")

	revoked, err := f.Service.RevokeNotice(f.Ctx, tenant.UserID, notice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.NoticeStatusRevoked, revoked.Status)

	_, err = f.Service.RevokeNotice(f.Ctx, tenant.UserID, notice.ID)
	require.ErrorIs(t, err, utils.ErrInvalidTransition)

	_, err = f.Service.DecideNotice(f.Ctx, f.OwnerID, notice.ID, dtos.DecideNoticeRequest{Status: models.NoticeStatusApproved})
	require.ErrorIs(t, err, utils.ErrInvalidTransition)

	_, err = submit(f, tenant, "2025-04-01")
	require.NoError(t, err)

	f.Dispatcher.Wait()
	assert.Len(t, f.Notifier.Named(services.EventNoticeRevoked), 1)
}

func TestTenantOnNoticeCannotResubmit(t *testing.T) {
	f, _, tenant := noticeFixture(t)
	notice, err := submit(f, tenant, "2025-03-31")
	require.NoError(t, err)
	_, err = f.Service.DecideNotice(f.Ctx, f.OwnerID, notice.ID, dtos.DecideNoticeRequest{Status: models.NoticeStatusApproved})
	require.NoError(t, err)

	_, err = submit(f, tenant, "2025-04-10")
	require.ErrorIs(t, err, utils.ErrInvalidTransition)
}

func TestListNotices(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 1})
	room := f.RoomNumbered(prop, "D01")
	a := f.Assign(room.ID, "a")
	b := f.Assign(room.ID, "b")

	na, err := submit(f, a, "2025-03-31")
	require.NoError(t, err)
	f.SetNow(f.Now().Add(time.Hour))
	_, err = submit(f, b, "2025-04-30")
	require.NoError(t, err)
	_, err = f.Service.DecideNotice(f.Ctx, f.OwnerID, na.ID, dtos.DecideNoticeRequest{Status: models.NoticeStatusApproved})
	require.NoError(t, err)

	all, err := f.Service.ListNotices(f.Ctx, f.OwnerID, prop.ID, nil)
	require.NoError(t, err)
	require.Equal(t, 2, all.Total)
	assert.Equal(t, b.ID, all.Results[0].TenantID, "newest first")

	pending := models.NoticeStatusPending
	only, err := f.Service.ListNotices(f.Ctx, f.OwnerID, prop.ID, &pending)
	require.NoError(t, err)
	require.Len(t, only.Results, 1)
	assert.Equal(t, b.ID, only.Results[0].TenantID)

	_, err = f.Service.ListNotices(f.Ctx, uuid.New(), prop.ID, nil)
	assert.ErrorIs(t, err, utils.ErrForbidden)

	mine, err := f.Service.ListMyNotices(f.Ctx, a.UserID)
	require.NoError(t, err)
	require.Len(t, mine.Results, 1)
	assert.Equal(t, models.NoticeStatusApproved, mine.Results[0].Status)

	none, err := f.Service.ListMyNotices(f.Ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, none.Results)
	assert.Empty(t, none.Results)
}

func TestListMyNotices_SpansTenancies(t *testing.T) {
	f := testhelpers.NewFixture(t)
	prop := f.CreateProperty(map[models.SharingCategory]int{models.SharingDouble: 2})
	first := f.Assign(f.RoomNumbered(prop, "D01").ID, "asha")
	old := f.SubmitNotice(first, "2025-03-10")
	_, err := f.Service.DecideNotice(f.Ctx, f.OwnerID, old.ID, dtos.DecideNoticeRequest{Status: models.NoticeStatusApproved})
	require.NoError(t, err)
	_, err = f.Service.RemoveTenant(f.Ctx, f.OwnerID, first.ID, dtos.RemoveTenantRequest{Reason: "switching rooms"})
	require.NoError(t, err)

	f.SetNow(f.Now().Add(24 * time.Hour))
	resp, err := f.Service.AssignTenant(f.Ctx, f.OwnerID, f.RoomNumbered(prop, "D02").ID, dtos.AssignTenantRequest{
		Name: "asha", Email: "asha@example.com", UserID: &first.UserID, Rent: 5200,
	})
	require.NoError(t, err)
	current := f.SubmitNotice(resp.Tenant, "2025-04-30")

	mine, err := f.Service.ListMyNotices(f.Ctx, first.UserID)
	require.NoError(t, err)
	require.Equal(t, 2, mine.Total)
	assert.Equal(t, current.ID, mine.Results[0].ID, "newest first")
	assert.Equal(t, old.ID, mine.Results[1].ID)
	assert.Equal(t, models.NoticeStatusApproved, mine.Results[1].Status)
}
