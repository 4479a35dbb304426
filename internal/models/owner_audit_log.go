package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditCreate AuditAction = "CREATE"
	AuditUpdate AuditAction = "UPDATE"
	AuditDelete AuditAction = "DELETE"
	AuditAssign AuditAction = "ASSIGN"
	AuditRemove AuditAction = "REMOVE"
	AuditDecide AuditAction = "DECIDE"
)

type AuditTargetType string

const (
	TargetProperty AuditTargetType = "PROPERTY"
	TargetRoomType AuditTargetType = "ROOM_TYPE"
	TargetRoom     AuditTargetType = "ROOM"
	TargetTenant   AuditTargetType = "TENANT"
	TargetNotice   AuditTargetType = "NOTICE"
)

// OwnerAuditLog records every owner-initiated mutation.
type OwnerAuditLog struct {
	ID         uuid.UUID        `json:"id"`
	OwnerID    uuid.UUID        `json:"owner_id"`
	Action     AuditAction      `json:"action"`
	TargetID   uuid.UUID        `json:"target_id"`
	TargetType AuditTargetType  `json:"target_type"`
	Details    *json.RawMessage `json:"details,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}
