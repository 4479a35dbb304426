package models

import (
	"time"

	"github.com/google/uuid"
)

type NoticeStatus string

const (
	NoticeStatusPending  NoticeStatus = "pending"
	NoticeStatusApproved NoticeStatus = "approved"
	NoticeStatusRejected NoticeStatus = "rejected"
	NoticeStatusRevoked  NoticeStatus = "revoked"
)

// Notice is a tenant's request to vacate. Property, room and owner are
// denormalized for querying.
type Notice struct {
	Versioned

	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	PropertyID uuid.UUID `json:"property_id"`
	RoomID     uuid.UUID `json:"room_id"`
	OwnerID    uuid.UUID `json:"owner_id"`

	SubmittedAt   time.Time    `json:"submitted_at"`
	VacateDate    time.Time    `json:"vacate_date"`
	Reason        string       `json:"reason"`
	Status        NoticeStatus `json:"status"`
	OwnerResponse *string      `json:"owner_response,omitempty"`
	DecidedAt     *time.Time   `json:"decided_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (n *Notice) GetID() uuid.UUID {
	return n.ID
}

// CanTransitionTo: only pending notices move, and only to a terminal state.
func (n *Notice) CanTransitionTo(next NoticeStatus) bool {
	if n.Status != NoticeStatusPending {
		return false
	}
	switch next {
	case NoticeStatusApproved, NoticeStatusRejected, NoticeStatusRevoked:
		return true
	}
	return false
}
