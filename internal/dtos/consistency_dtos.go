package dtos

import (
	"time"

	"github.com/google/uuid"
)

type ConsistencyIssue struct {
	Kind     string    `json:"kind"`
	TargetID uuid.UUID `json:"target_id"`
	Message  string    `json:"message"`
	Expected int       `json:"expected"`
	Actual   int       `json:"actual"`
}

type ConsistencyReport struct {
	PropertyID uuid.UUID          `json:"property_id"`
	CheckedAt  time.Time          `json:"checked_at"`
	Consistent bool               `json:"consistent"`
	Issues     []ConsistencyIssue `json:"issues"`
}
