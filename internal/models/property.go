package models

import (
	"time"

	"github.com/google/uuid"
)

type Property struct {
	Versioned

	ID       uuid.UUID `json:"id"`
	OwnerID  uuid.UUID `json:"owner_id"`
	Name     string    `json:"name"`
	Address  string    `json:"address"`
	City     string    `json:"city"`
	TimeZone string    `json:"timezone"`
	// NoticeWindowLastDay overrides the platform-wide notice window when set.
	NoticeWindowLastDay *int `json:"notice_window_last_day,omitempty"`

	RoomTypes []*RoomType `json:"room_types,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Property) GetID() uuid.UUID {
	return p.ID
}

// RoomType returns the property's tier for a category, or nil.
func (p *Property) RoomType(c SharingCategory) *RoomType {
	for _, rt := range p.RoomTypes {
		if rt.Category == c {
			return rt
		}
	}
	return nil
}
