package models

import (
	"time"

	"github.com/google/uuid"
)

type TenantStatus string

const (
	TenantStatusActive   TenantStatus = "active"
	TenantStatusNotice   TenantStatus = "notice"
	TenantStatusMovedOut TenantStatus = "moved_out"
)

var tenantTransitions = map[TenantStatus][]TenantStatus{
	TenantStatusActive: {TenantStatusNotice, TenantStatusMovedOut},
	TenantStatusNotice: {TenantStatusMovedOut},
}

// Tenant is never hard-deleted; a departure is a transition to moved_out.
type Tenant struct {
	Versioned

	ID         uuid.UUID `json:"id"`
	PropertyID uuid.UUID `json:"property_id"`
	RoomID     uuid.UUID `json:"room_id"`
	// UserID links the tenant's self-service login.
	UserID   uuid.UUID `json:"user_id"`
	BedIndex int       `json:"bed_index"`
	BedID    string    `json:"bed_id"`

	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`

	Rent   float64      `json:"rent"`
	Status TenantStatus `json:"status"`

	JoinDate          time.Time  `json:"join_date"`
	MoveOutDate       *time.Time `json:"move_out_date,omitempty"`
	PlannedVacateDate *time.Time `json:"planned_vacate_date,omitempty"`

	RentHistory   []RentChange   `json:"rent_history"`
	StatusHistory []StatusChange `json:"status_history"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RentChange struct {
	Amount        float64   `json:"amount"`
	EffectiveDate time.Time `json:"effective_date"`
	Reason        string    `json:"reason"`
}

type StatusChange struct {
	Status TenantStatus `json:"status"`
	Date   time.Time    `json:"date"`
	Reason string       `json:"reason"`
}

func (t *Tenant) GetID() uuid.UUID {
	return t.ID
}

// IsOccupying reports whether the tenant still holds a bed.
func (t *Tenant) IsOccupying() bool {
	return t.Status == TenantStatusActive || t.Status == TenantStatusNotice
}

func (t *Tenant) CanTransitionTo(next TenantStatus) bool {
	for _, s := range tenantTransitions[t.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// Clone deep-copies the history slices.
func (t *Tenant) Clone() *Tenant {
	c := *t
	c.RentHistory = append([]RentChange(nil), t.RentHistory...)
	c.StatusHistory = append([]StatusChange(nil), t.StatusHistory...)
	if t.Phone != nil {
		p := *t.Phone
		c.Phone = &p
	}
	if t.MoveOutDate != nil {
		d := *t.MoveOutDate
		c.MoveOutDate = &d
	}
	if t.PlannedVacateDate != nil {
		d := *t.PlannedVacateDate
		c.PlannedVacateDate = &d
	}
	return &c
}
