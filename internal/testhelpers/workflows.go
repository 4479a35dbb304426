package testhelpers

import (
	"sync"

	"github.com/google/uuid"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SubmitNotice files a notice for tenant as its own user.
func (f *Fixture) SubmitNotice(tenant *models.Tenant, vacateDate string) *models.Notice {
	n, err := f.Service.SubmitNotice(f.Ctx, tenant.UserID, dtos.SubmitNoticeRequest{
		VacateDate: vacateDate,
		Reason:     "moving out",
	})
	require.NoError(f.T, err)
	return n
}

// RaceMoveOutAgainstApproval fires RemoveTenant and an approving DecideNotice
// for the same tenant at once. The result must match one of the two serial
// orders; it reports whether the approval went first.
func (f *Fixture) RaceMoveOutAgainstApproval(tenant *models.Tenant, noticeID uuid.UUID) (approvedFirst bool) {
	t := f.T
	before := f.Room(tenant.RoomID).OccupiedBeds

	var wg sync.WaitGroup
	var removeErr, approveErr error
	start := make(chan struct{})
	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		_, removeErr = f.Service.RemoveTenant(f.Ctx, f.OwnerID, tenant.ID, dtos.RemoveTenantRequest{Reason: "evicted"})
	}()
	go func() {
		defer wg.Done()
		<-start
		_, approveErr = f.Service.DecideNotice(f.Ctx, f.OwnerID, noticeID, dtos.DecideNoticeRequest{
			Status: models.NoticeStatusApproved,
		})
	}()
	close(start)
	wg.Wait()

	require.NoError(t, removeErr, "move-out succeeds from active and from notice")

	stored := f.Tenant(tenant.ID)
	assert.Equal(t, models.TenantStatusMovedOut, stored.Status)
	notice, err := f.Store.Repos().Notices.GetByID(f.Ctx, noticeID)
	require.NoError(t, err)
	require.NotNil(t, notice)

	var history []models.TenantStatus
	for _, sc := range stored.StatusHistory {
		history = append(history, sc.Status)
	}

	if approveErr == nil {
		assert.Equal(t, models.NoticeStatusApproved, notice.Status)
		assert.Equal(t, []models.TenantStatus{
			models.TenantStatusActive, models.TenantStatusNotice, models.TenantStatusMovedOut,
		}, history)
		assert.NotNil(t, stored.PlannedVacateDate)
	} else {
		require.ErrorIs(t, approveErr, utils.ErrInvalidTransition)
		assert.Equal(t, models.NoticeStatusPending, notice.Status)
		assert.Equal(t, []models.TenantStatus{models.TenantStatusActive, models.TenantStatusMovedOut}, history)
		assert.Nil(t, stored.PlannedVacateDate)
	}

	assert.Equal(t, before-1, f.Room(tenant.RoomID).OccupiedBeds, "the bed is freed exactly once")
	f.RequireConsistent(tenant.PropertyID)
	return approveErr == nil
}

// AuditActions lists the audit actions recorded against targetID, oldest first.
func (f *Fixture) AuditActions(targetID uuid.UUID) []models.AuditAction {
	logs, err := f.Store.Repos().AuditLogs.ListByTargetID(f.Ctx, targetID)
	require.NoError(f.T, err)
	actions := []models.AuditAction{}
	for _, l := range logs {
		require.Equal(f.T, f.OwnerID, l.OwnerID)
		actions = append(actions, l.Action)
	}
	return actions
}

// AuditCount is the number of audit rows written for f.OwnerID.
func (f *Fixture) AuditCount() int {
	logs, err := f.Store.Repos().AuditLogs.ListByOwnerID(f.Ctx, f.OwnerID)
	require.NoError(f.T, err)
	return len(logs)
}
