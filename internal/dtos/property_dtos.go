package dtos

import (
	"time"

	"github.com/google/uuid"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
)

type RoomTypeInput struct {
	Category  models.SharingCategory `json:"category" validate:"required,oneof=single double triple quad"`
	BasePrice float64                `json:"base_price" validate:"gte=0"`
	RoomCount int                    `json:"room_count" validate:"gte=0,lte=500"`
}

type CreatePropertyRequest struct {
	Name                string          `json:"name" validate:"required,min=1,max=255"`
	Address             string          `json:"address" validate:"max=1000"`
	City                string          `json:"city" validate:"max=255"`
	TimeZone            string          `json:"timezone" validate:"omitempty,timezone"`
	NoticeWindowLastDay *int            `json:"notice_window_last_day,omitempty" validate:"omitempty,min=1,max=31"`
	RoomTypes           []RoomTypeInput `json:"room_types" validate:"required,min=1,max=4,dive"`
}

type UpdatePropertyRequest struct {
	Name                *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Address             *string `json:"address,omitempty" validate:"omitempty,max=1000"`
	City                *string `json:"city,omitempty" validate:"omitempty,max=255"`
	TimeZone            *string `json:"timezone,omitempty" validate:"omitempty,timezone"`
	NoticeWindowLastDay *int    `json:"notice_window_last_day,omitempty" validate:"omitempty,min=1,max=31"`
	// ClearNoticeWindow drops the property override and falls back to the
	// platform default.
	ClearNoticeWindow bool `json:"clear_notice_window,omitempty"`
}

// EditRoomPricingRequest is the owner correction path for one room type.
type EditRoomPricingRequest struct {
	BasePrice            *float64 `json:"base_price,omitempty" validate:"omitempty,gte=0"`
	RoomCount            *int     `json:"room_count,omitempty" validate:"omitempty,lte=500"`
	OccupiedBedsOverride *int     `json:"occupied_beds_override,omitempty"`
}

type RoomTypeDTO struct {
	ID            uuid.UUID              `json:"id"`
	Category      models.SharingCategory `json:"category"`
	BasePrice     float64                `json:"base_price"`
	RoomCount     int                    `json:"room_count"`
	BedsPerRoom   int                    `json:"beds_per_room"`
	TotalBeds     int                    `json:"total_beds"`
	OccupiedBeds  int                    `json:"occupied_beds"`
	AvailableBeds int                    `json:"available_beds"`
}

type RoomDTO struct {
	ID           uuid.UUID              `json:"id"`
	PropertyID   uuid.UUID              `json:"property_id"`
	RoomTypeID   uuid.UUID              `json:"room_type_id"`
	RoomNumber   string                 `json:"room_number"`
	Category     models.SharingCategory `json:"category"`
	MaxBeds      int                    `json:"max_beds"`
	OccupiedBeds int                    `json:"occupied_beds"`
	Status       models.RoomStatus      `json:"status"`
}

type PropertyResponse struct {
	ID                  uuid.UUID     `json:"id"`
	OwnerID             uuid.UUID     `json:"owner_id"`
	Name                string        `json:"name"`
	Address             string        `json:"address"`
	City                string        `json:"city"`
	TimeZone            string        `json:"timezone"`
	NoticeWindowLastDay int           `json:"notice_window_last_day"`
	RoomTypes           []RoomTypeDTO `json:"room_types"`
	Rooms               []RoomDTO     `json:"rooms"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

type ListPropertiesResponse struct {
	Results []PropertyResponse `json:"results"`
	Total   int                `json:"total"`
}

type EditRoomPricingResponse struct {
	RoomType RoomTypeDTO `json:"room_type"`
	Rooms    []RoomDTO   `json:"rooms"`
}

type MaterializeRoomsResponse struct {
	Created int       `json:"created"`
	Rooms   []RoomDTO `json:"rooms"`
}

func NewRoomDTO(r *models.Room) RoomDTO {
	return RoomDTO{
		ID:           r.ID,
		PropertyID:   r.PropertyID,
		RoomTypeID:   r.RoomTypeID,
		RoomNumber:   r.RoomNumber,
		Category:     r.Category,
		MaxBeds:      r.MaxBeds,
		OccupiedBeds: r.OccupiedBeds,
		Status:       r.Status(),
	}
}

func NewRoomDTOs(rooms []*models.Room) []RoomDTO {
	out := make([]RoomDTO, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, NewRoomDTO(r))
	}
	return out
}

// NewRoomTypeDTO fails when the stored counters are already inconsistent.
func NewRoomTypeDTO(rt *models.RoomType) (RoomTypeDTO, error) {
	perRoom, err := rt.BedsPerRoom()
	if err != nil {
		return RoomTypeDTO{}, err
	}
	avail, err := rt.AvailableBeds()
	if err != nil {
		return RoomTypeDTO{}, err
	}
	return RoomTypeDTO{
		ID:            rt.ID,
		Category:      rt.Category,
		BasePrice:     rt.BasePrice,
		RoomCount:     rt.RoomCount,
		BedsPerRoom:   perRoom,
		TotalBeds:     rt.RoomCount * perRoom,
		OccupiedBeds:  rt.OccupiedBeds,
		AvailableBeds: avail,
	}, nil
}
