package dtos

import (
	"time"

	"github.com/google/uuid"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
)

type AssignTenantRequest struct {
	Name  string  `json:"name" validate:"required,min=1,max=255"`
	Email string  `json:"email" validate:"required,email"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,e164"`
	// UserID links an existing tenant login; a new one is minted otherwise.
	UserID   *uuid.UUID `json:"user_id,omitempty"`
	Rent     float64    `json:"rent" validate:"gte=0"`
	JoinDate *time.Time `json:"join_date,omitempty"`
}

type AssignTenantResponse struct {
	Tenant *models.Tenant `json:"tenant"`
	Room   RoomDTO        `json:"room"`
}

type RemoveTenantRequest struct {
	Reason      string     `json:"reason" validate:"required,max=500"`
	MoveOutDate *time.Time `json:"move_out_date,omitempty"`
}

type RemoveTenantResponse struct {
	Tenant *models.Tenant `json:"tenant"`
	Room   RoomDTO        `json:"room"`
}

type RentChangeRequest struct {
	Amount        float64    `json:"amount" validate:"gte=0"`
	Reason        string     `json:"reason" validate:"required,max=500"`
	EffectiveDate *time.Time `json:"effective_date,omitempty"`
}

type UpdateTenantContactRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Email *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,e164"`
}

type RenameRoomRequest struct {
	RoomNumber string `json:"room_number" validate:"required,min=1,max=32,excludesall=/"`
}

type RenameRoomResponse struct {
	Room    RoomDTO          `json:"room"`
	Tenants []*models.Tenant `json:"tenants"`
}

type ListTenantsResponse struct {
	Results []*models.Tenant `json:"results"`
	Total   int              `json:"total"`
}

type MyTenancyResponse struct {
	Tenant              *models.Tenant `json:"tenant"`
	Room                RoomDTO        `json:"room"`
	PropertyName        string         `json:"property_name"`
	NoticeWindowLastDay int            `json:"notice_window_last_day"`
	PendingNotice       *models.Notice `json:"pending_notice,omitempty"`
}

/* ---------- roster projection ---------- */

type RosterTenant struct {
	ID                uuid.UUID           `json:"id"`
	Name              string              `json:"name"`
	Email             string              `json:"email"`
	Phone             *string             `json:"phone,omitempty"`
	Rent              float64             `json:"rent"`
	Status            models.TenantStatus `json:"status"`
	JoinDate          time.Time           `json:"join_date"`
	PlannedVacateDate *time.Time          `json:"planned_vacate_date,omitempty"`
}

type RosterBed struct {
	BedID    string        `json:"bed_id"`
	BedIndex int           `json:"bed_index"`
	Occupied bool          `json:"occupied"`
	Tenant   *RosterTenant `json:"tenant,omitempty"`
}

type RosterRoom struct {
	RoomID       uuid.UUID         `json:"room_id"`
	RoomNumber   string            `json:"room_number"`
	MaxBeds      int               `json:"max_beds"`
	OccupiedBeds int               `json:"occupied_beds"`
	Status       models.RoomStatus `json:"status"`
	Beds         []RosterBed       `json:"beds"`
}

type RosterRoomType struct {
	RoomTypeDTO
	Rooms []RosterRoom `json:"rooms"`
}

type RosterResponse struct {
	PropertyID   uuid.UUID        `json:"property_id"`
	PropertyName string           `json:"property_name"`
	RoomTypes    []RosterRoomType `json:"room_types"`
}
