package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type RoomStatus string

const (
	RoomStatusEmpty   RoomStatus = "empty"
	RoomStatusPartial RoomStatus = "partial"
	RoomStatusFull    RoomStatus = "full"
)

// Room is a physical room materialized from a RoomType. Its status is
// never stored; it is always derived from OccupiedBeds.
type Room struct {
	Versioned

	ID           uuid.UUID       `json:"id"`
	PropertyID   uuid.UUID       `json:"property_id"`
	RoomTypeID   uuid.UUID       `json:"room_type_id"`
	RoomNumber   string          `json:"room_number"`
	Category     SharingCategory `json:"category"`
	MaxBeds      int             `json:"max_beds"`
	OccupiedBeds int             `json:"occupied_beds"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (r *Room) GetID() uuid.UUID {
	return r.ID
}

// DeriveRoomStatus is the only place a room status comes from.
func DeriveRoomStatus(occupied, max int) RoomStatus {
	switch {
	case occupied <= 0:
		return RoomStatusEmpty
	case occupied >= max:
		return RoomStatusFull
	default:
		return RoomStatusPartial
	}
}

func (r *Room) Status() RoomStatus {
	return DeriveRoomStatus(r.OccupiedBeds, r.MaxBeds)
}

func (r *Room) IsFull() bool {
	return r.OccupiedBeds >= r.MaxBeds
}

// BedID formats the identifier of slot index (1-based) in this room.
func (r *Room) BedID(index int) string {
	return BedID(r.RoomNumber, index)
}

func BedID(roomNumber string, index int) string {
	return fmt.Sprintf("%s-B%d", roomNumber, index)
}
