package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
)

type OwnerAuditLogRepository interface {
	Create(ctx context.Context, logEntry *models.OwnerAuditLog) error
	ListByTargetID(ctx context.Context, targetID uuid.UUID) ([]*models.OwnerAuditLog, error)
	ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.OwnerAuditLog, error)
}

type ownerAuditLogRepo struct {
	db DB
}

func NewOwnerAuditLogRepository(db DB) OwnerAuditLogRepository {
	return &ownerAuditLogRepo{db: db}
}

func (r *ownerAuditLogRepo) Create(ctx context.Context, logEntry *models.OwnerAuditLog) error {
	q := `
        INSERT INTO owner_audit_logs (
            id, owner_id, action, target_id, target_type, details, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, NOW())
    `
	_, err := r.db.Exec(ctx, q,
		logEntry.ID,
		logEntry.OwnerID,
		logEntry.Action,
		logEntry.TargetID,
		logEntry.TargetType,
		logEntry.Details,
	)
	return err
}

func (r *ownerAuditLogRepo) ListByTargetID(ctx context.Context, targetID uuid.UUID) ([]*models.OwnerAuditLog, error) {
	rows, err := r.db.Query(ctx, baseSelectAuditLog()+`
        WHERE target_id=$1
        ORDER BY created_at
    `, targetID)
	if err != nil {
		return nil, err
	}
	return collectAuditLogs(rows)
}

func (r *ownerAuditLogRepo) ListByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]*models.OwnerAuditLog, error) {
	rows, err := r.db.Query(ctx, baseSelectAuditLog()+`
        WHERE owner_id=$1
        ORDER BY created_at
    `, ownerID)
	if err != nil {
		return nil, err
	}
	return collectAuditLogs(rows)
}

func baseSelectAuditLog() string {
	return `
        SELECT id, owner_id, action, target_id, target_type, details, created_at
        FROM owner_audit_logs
    `
}

func collectAuditLogs(rows pgx.Rows) ([]*models.OwnerAuditLog, error) {
	defer rows.Close()
	var out []*models.OwnerAuditLog
	for rows.Next() {
		var l models.OwnerAuditLog
		if err := rows.Scan(&l.ID, &l.OwnerID, &l.Action, &l.TargetID, &l.TargetType, &l.Details, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}
