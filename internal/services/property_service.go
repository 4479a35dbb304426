package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/dtos"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/repositories"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
	"github.com/sirupsen/logrus"
)

// noticeWindowFor is the last day of the month a notice may be submitted
// at this property.
func (s *OccupancyService) noticeWindowFor(p *models.Property) int {
	if p.NoticeWindowLastDay != nil {
		return *p.NoticeWindowLastDay
	}
	return s.cfg.NoticeWindowLastDay
}

// CreateProperty stores the property with its room types and materializes
// every room in one transaction.
func (s *OccupancyService) CreateProperty(ctx context.Context, ownerID uuid.UUID, req dtos.CreatePropertyRequest) (*dtos.PropertyResponse, error) {
	seen := map[models.SharingCategory]bool{}
	for _, in := range req.RoomTypes {
		if _, err := models.BedsPerRoom(in.Category); err != nil {
			return nil, err
		}
		if seen[in.Category] {
			return nil, fmt.Errorf("%w: %s", utils.ErrDuplicateRoomType, in.Category)
		}
		if in.RoomCount < 0 {
			return nil, fmt.Errorf("%w: %d", utils.ErrInvalidRoomCount, in.RoomCount)
		}
		seen[in.Category] = true
	}
	tz := req.TimeZone
	if tz == "" {
		tz = "UTC"
	}

	prop := &models.Property{
		ID:                  uuid.New(),
		OwnerID:             ownerID,
		Name:                req.Name,
		Address:             req.Address,
		City:                req.City,
		TimeZone:            tz,
		NoticeWindowLastDay: req.NoticeWindowLastDay,
	}

	var resp *dtos.PropertyResponse
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repositories.Repos) error {
		if err := tx.Properties.Create(ctx, prop); err != nil {
			return err
		}
		var rooms []*models.Room
		for _, in := range req.RoomTypes {
			rt := &models.RoomType{
				ID:         uuid.New(),
				PropertyID: prop.ID,
				Category:   in.Category,
				BasePrice:  in.BasePrice,
				RoomCount:  in.RoomCount,
			}
			if err := tx.RoomTypes.Create(ctx, rt); err != nil {
				return err
			}
			made, err := materializeRoomType(ctx, tx, rt, rooms)
			if err != nil {
				return err
			}
			rooms = append(rooms, made...)
		}
		if err := s.logAudit(ctx, tx, ownerID, prop.ID, models.AuditCreate, models.TargetProperty, req); err != nil {
			return err
		}
		stored, err := tx.Properties.GetByID(ctx, prop.ID)
		if err != nil {
			return err
		}
		resp, err = s.buildPropertyResponse(ctx, tx, stored)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.guard.Remember(prop.ID, ownerID)
	utils.Logger.WithFields(logrus.Fields{
		"propertyID": prop.ID, "ownerID": ownerID, "rooms": len(resp.Rooms),
	}).Info("Property created")
	return resp, nil
}

func (s *OccupancyService) GetProperty(ctx context.Context, ownerID, propertyID uuid.UUID) (*dtos.PropertyResponse, error) {
	if err := s.guard.Authorize(ctx, ownerID, propertyID); err != nil {
		return nil, err
	}
	repos := s.store.Repos()
	prop, err := repos.Properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, utils.ErrPropertyNotFound
	}
	return s.buildPropertyResponse(ctx, repos, prop)
}

func (s *OccupancyService) ListProperties(ctx context.Context, ownerID uuid.UUID) (*dtos.ListPropertiesResponse, error) {
	repos := s.store.Repos()
	props, err := repos.Properties.ListByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]dtos.PropertyResponse, 0, len(props))
	for _, p := range props {
		resp, err := s.buildPropertyResponse(ctx, repos, p)
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return &dtos.ListPropertiesResponse{Results: out, Total: len(out)}, nil
}

// UpdateProperty edits the property profile with optimistic row versioning.
func (s *OccupancyService) UpdateProperty(ctx context.Context, ownerID, propertyID uuid.UUID, req dtos.UpdatePropertyRequest) (*dtos.PropertyResponse, error) {
	if err := s.guard.Authorize(ctx, ownerID, propertyID); err != nil {
		return nil, err
	}
	repos := s.store.Repos()

	err := repos.Properties.UpdateWithRetry(ctx, propertyID, func(p *models.Property) error {
		if req.Name != nil {
			p.Name = *req.Name
		}
		if req.Address != nil {
			p.Address = *req.Address
		}
		if req.City != nil {
			p.City = *req.City
		}
		if req.TimeZone != nil {
			p.TimeZone = *req.TimeZone
		}
		if req.ClearNoticeWindow {
			p.NoticeWindowLastDay = nil
		} else if req.NoticeWindowLastDay != nil {
			p.NoticeWindowLastDay = req.NoticeWindowLastDay
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.logAudit(ctx, repos, ownerID, propertyID, models.AuditUpdate, models.TargetProperty, req); err != nil {
		utils.Logger.WithError(err).Warn("Failed to write property audit log")
	}

	prop, err := repos.Properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil {
		return nil, utils.ErrPropertyNotFound
	}
	return s.buildPropertyResponse(ctx, repos, prop)
}

func (s *OccupancyService) buildPropertyResponse(ctx context.Context, repos repositories.Repos, p *models.Property) (*dtos.PropertyResponse, error) {
	types, err := repos.RoomTypes.ListByPropertyID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	rooms, err := repos.Rooms.ListByPropertyID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	rtDTOs := make([]dtos.RoomTypeDTO, 0, len(types))
	for _, rt := range types {
		dto, err := dtos.NewRoomTypeDTO(rt)
		if err != nil {
			utils.Logger.WithField("alert", "invariant_breach").WithError(err).Error("Room type counters inconsistent")
			return nil, err
		}
		rtDTOs = append(rtDTOs, dto)
	}
	return &dtos.PropertyResponse{
		ID:                  p.ID,
		OwnerID:             p.OwnerID,
		Name:                p.Name,
		Address:             p.Address,
		City:                p.City,
		TimeZone:            p.TimeZone,
		NoticeWindowLastDay: s.noticeWindowFor(p),
		RoomTypes:           rtDTOs,
		Rooms:               dtos.NewRoomDTOs(rooms),
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}, nil
}
