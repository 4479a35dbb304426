package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/repositories"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
	"github.com/sirupsen/logrus"
)

// SubmitNotice files a vacate request for the caller's current tenancy.
// Submissions are only accepted from the 1st through the property's window
// day of the month, in the property's time zone.
func (s *OccupancyService) SubmitNotice(ctx context.Context, userID uuid.UUID, req dtos.SubmitNoticeRequest) (*models.Notice, error) {
	repos := s.store.Repos()
	current, err := repos.Tenants.GetCurrentByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current == nil || !current.IsOccupying() {
		return nil, utils.ErrTenantNotFound
	}
	prop, err := repos.Properties.GetByID(ctx, current.PropertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, utils.ErrPropertyNotFound
	}

	loc := utils.LoadLocation(prop.TimeZone)
	now := s.now()
	local := now.In(loc)
	lastDay := s.noticeWindowFor(prop)
	if local.Day() > lastDay {
		utils.Logger.WithFields(logrus.Fields{
			"tenantID": current.ID, "day": local.Day(), "lastDay": lastDay,
		}).Info("Notice rejected outside submission window")
		return nil, fmt.Errorf("%w: notices are accepted on days 1-%d of the month", utils.ErrSubmissionWindowClosed, lastDay)
	}

	vacate, err := time.ParseInLocation(dtos.DateLayout, req.VacateDate, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", utils.ErrInvalidVacateDate, req.VacateDate)
	}
	if vacate.Before(utils.DateOnly(local)) {
		return nil, fmt.Errorf("%w: %s is in the past", utils.ErrInvalidVacateDate, req.VacateDate)
	}

	var notice *models.Notice
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Repos) error {
		tenant, err := tx.Tenants.GetForUpdate(ctx, current.ID)
		if err != nil {
			return err
		}
		if tenant == nil || !tenant.IsOccupying() {
			return utils.ErrTenantNotFound
		}
		pending, err := tx.Notices.GetPendingByTenantID(ctx, tenant.ID)
		if err != nil {
			return err
		}
		if pending != nil {
			return fmt.Errorf("%w: notice %s", utils.ErrNoticeAlreadyPending, pending.ID)
		}
		if tenant.Status != models.TenantStatusActive {
			return fmt.Errorf("%w: tenant is already serving notice", utils.ErrInvalidTransition)
		}

		notice = &models.Notice{
			ID:          uuid.New(),
			TenantID:    tenant.ID,
			PropertyID:  tenant.PropertyID,
			RoomID:      tenant.RoomID,
			OwnerID:     prop.OwnerID,
			SubmittedAt: now,
			VacateDate:  vacate,
			Reason:      req.Reason,
			Status:      models.NoticeStatusPending,
		}
		return tx.Notices.Create(ctx, notice)
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(Event{
		Name:       EventNoticeSubmitted,
		OccurredAt: now,
		PropertyID: notice.PropertyID,
		RoomID:     &notice.RoomID,
		TenantID:   &notice.TenantID,
		NoticeID:   &notice.ID,
		Subject:    "Notice submitted",
		Message:    fmt.Sprintf("A notice to vacate on %s is awaiting your decision.", req.VacateDate),
		Data:       map[string]any{"vacateDate": req.VacateDate, "ownerID": notice.OwnerID},
	})
	return notice, nil
}

// DecideNotice approves or rejects a pending notice. Approval puts the
// tenant on notice with a planned vacate date; the bed stays occupied until
// RemoveTenant.
func (s *OccupancyService) DecideNotice(ctx context.Context, ownerID, noticeID uuid.UUID, req dtos.DecideNoticeRequest) (*models.Notice, error) {
	if req.Status != models.NoticeStatusApproved && req.Status != models.NoticeStatusRejected {
		return nil, fmt.Errorf("%w: owners may only approve or reject", utils.ErrInvalidTransition)
	}
	found, err := s.store.Repos().Notices.GetByID(ctx, noticeID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, utils.ErrNoticeNotFound
	}
	if err := s.guard.Authorize(ctx, ownerID, found.PropertyID); err != nil {
		if errors.Is(err, utils.ErrForbidden) {
			return nil, err
		}
		return nil, utils.ErrNoticeNotFound
	}

	now := s.now()
	var notice *models.Notice
	var tenant *models.Tenant
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Repos) error {
		var err error
		notice, err = tx.Notices.GetForUpdate(ctx, noticeID)
		if err != nil {
			return err
		}
		if notice == nil {
			return utils.ErrNoticeNotFound
		}
		if !notice.CanTransitionTo(req.Status) {
			return fmt.Errorf("%w: notice is %s", utils.ErrInvalidTransition, notice.Status)
		}
		tenant, err = tx.Tenants.GetForUpdate(ctx, notice.TenantID)
		if err != nil {
			return err
		}
		if tenant == nil {
			return breach("notice %s references missing tenant %s", notice.ID, notice.TenantID)
		}

		if req.Status == models.NoticeStatusApproved {
			vacate := notice.VacateDate
			tenant.PlannedVacateDate = &vacate
			reason := fmt.Sprintf("notice approved, vacating %s", vacate.Format(dtos.DateLayout))
			if err := recordStatusChange(ctx, tx, tenant, models.TenantStatusNotice, reason, now); err != nil {
				return err
			}
		}

		notice.Status = req.Status
		notice.OwnerResponse = req.OwnerResponse
		notice.DecidedAt = &now
		if err := tx.Notices.Update(ctx, notice); err != nil {
			return err
		}
		return s.logAudit(ctx, tx, ownerID, notice.ID, models.AuditDecide, models.TargetNotice,
			map[string]any{"status": req.Status, "tenantID": tenant.ID})
	})
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Your notice to vacate on %s was %s.", notice.VacateDate.Format(dtos.DateLayout), notice.Status)
	if notice.OwnerResponse != nil && *notice.OwnerResponse != "" {
		msg += " Owner says: " + *notice.OwnerResponse
	}
	s.dispatcher.Dispatch(Event{
		Name:       EventNoticeDecided,
		OccurredAt: now,
		PropertyID: notice.PropertyID,
		RoomID:     &notice.RoomID,
		TenantID:   &notice.TenantID,
		NoticeID:   &notice.ID,
		Subject:    "Your notice was " + string(notice.Status),
		Message:    msg,
		Data:       map[string]any{"status": notice.Status},
		Recipient:  &Recipient{Name: tenant.Name, Email: tenant.Email, Phone: tenant.Phone},
	})
	return notice, nil
}

// RevokeNotice lets a tenant withdraw their own pending notice.
func (s *OccupancyService) RevokeNotice(ctx context.Context, userID, noticeID uuid.UUID) (*models.Notice, error) {
	repos := s.store.Repos()
	found, err := repos.Notices.GetByID(ctx, noticeID)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, utils.ErrNoticeNotFound
	}
	owner, err := repos.Tenants.GetByID(ctx, found.TenantID)
	if err != nil {
		return nil, err
	}
	if owner == nil || owner.UserID != userID {
		return nil, utils.ErrNoticeNotFound
	}

	var notice *models.Notice
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Repos) error {
		var err error
		notice, err = tx.Notices.GetForUpdate(ctx, noticeID)
		if err != nil {
			return err
		}
		if notice == nil {
			return utils.ErrNoticeNotFound
		}
		if !notice.CanTransitionTo(models.NoticeStatusRevoked) {
			return fmt.Errorf("%w: notice is %s", utils.ErrInvalidTransition, notice.Status)
		}
		notice.Status = models.NoticeStatusRevoked
		return tx.Notices.Update(ctx, notice)
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(Event{
		Name:       EventNoticeRevoked,
		OccurredAt: s.now(),
		PropertyID: notice.PropertyID,
		RoomID:     &notice.RoomID,
		TenantID:   &notice.TenantID,
		NoticeID:   &notice.ID,
		Subject:    "Notice revoked",
		Message:    "The tenant withdrew their notice to vacate.",
		Data:       map[string]any{"ownerID": notice.OwnerID},
	})
	return notice, nil
}

func (s *OccupancyService) ListNotices(ctx context.Context, ownerID, propertyID uuid.UUID, status *models.NoticeStatus) (*dtos.ListNoticesResponse, error) {
	if err := s.guard.Authorize(ctx, ownerID, propertyID); err != nil {
		return nil, err
	}
	list, err := s.store.Repos().Notices.ListByPropertyID(ctx, propertyID, status)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Notice{}
	}
	return &dtos.ListNoticesResponse{Results: list, Total: len(list)}, nil
}

// ListMyNotices returns every notice across the user's tenancies, newest
// first.
func (s *OccupancyService) ListMyNotices(ctx context.Context, userID uuid.UUID) (*dtos.ListNoticesResponse, error) {
	list, err := s.store.Repos().Notices.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*models.Notice{}
	}
	return &dtos.ListNoticesResponse{Results: list, Total: len(list)}, nil
}
