package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

type SharingCategory string

const (
	SharingSingle SharingCategory = "single"
	SharingDouble SharingCategory = "double"
	SharingTriple SharingCategory = "triple"
	SharingQuad   SharingCategory = "quad"
)

var bedsPerRoom = map[SharingCategory]int{
	SharingSingle: 1,
	SharingDouble: 2,
	SharingTriple: 3,
	SharingQuad:   4,
}

var categoryInitial = map[SharingCategory]string{
	SharingSingle: "S",
	SharingDouble: "D",
	SharingTriple: "T",
	SharingQuad:   "Q",
}

// AllSharingCategories in ascending bed count.
var AllSharingCategories = []SharingCategory{SharingSingle, SharingDouble, SharingTriple, SharingQuad}

// BedsPerRoom is the closed category → bed count mapping.
func BedsPerRoom(c SharingCategory) (int, error) {
	n, ok := bedsPerRoom[c]
	if !ok {
		return 0, fmt.Errorf("%w: %q", utils.ErrUnknownCategory, c)
	}
	return n, nil
}

// RoomNumberFor builds the conventional room number, e.g. ("double", 1) → "D01".
func RoomNumberFor(c SharingCategory, index int) (string, error) {
	initial, ok := categoryInitial[c]
	if !ok {
		return "", fmt.Errorf("%w: %q", utils.ErrUnknownCategory, c)
	}
	return fmt.Sprintf("%s%02d", initial, index), nil
}

// RoomType is one sharing tier configured on a property.
type RoomType struct {
	Versioned

	ID           uuid.UUID       `json:"id"`
	PropertyID   uuid.UUID       `json:"property_id"`
	Category     SharingCategory `json:"category"`
	BasePrice    float64         `json:"base_price"`
	RoomCount    int             `json:"room_count"`
	OccupiedBeds int             `json:"occupied_beds"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (rt *RoomType) GetID() uuid.UUID {
	return rt.ID
}

func (rt *RoomType) BedsPerRoom() (int, error) {
	return BedsPerRoom(rt.Category)
}

// TotalBeds is roomCount × bedsPerRoom(category).
func (rt *RoomType) TotalBeds() (int, error) {
	n, err := rt.BedsPerRoom()
	if err != nil {
		return 0, err
	}
	return rt.RoomCount * n, nil
}

// AvailableBeds never clamps: a negative value means the counters were
// corrupted somewhere and is reported as an invariant breach.
func (rt *RoomType) AvailableBeds() (int, error) {
	total, err := rt.TotalBeds()
	if err != nil {
		return 0, err
	}
	avail := total - rt.OccupiedBeds
	if avail < 0 || rt.OccupiedBeds < 0 {
		return avail, fmt.Errorf(
			"%w: room type %s has %d occupied of %d total beds",
			utils.ErrInvariantBreach, rt.ID, rt.OccupiedBeds, total,
		)
	}
	return avail, nil
}
