package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

type NoticeRepository interface {
	Create(ctx context.Context, n *models.Notice) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Notice, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Notice, error)
	GetPendingByTenantID(ctx context.Context, tenantID uuid.UUID) (*models.Notice, error)
	// ListByUserID spans every tenancy the user has held.
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Notice, error)
	// ListByPropertyID filters by status unless status is nil.
	ListByPropertyID(ctx context.Context, propID uuid.UUID, status *models.NoticeStatus) ([]*models.Notice, error)
	// ListApprovedVacatingBetween returns approved notices whose vacate date
	// falls in [from, to].
	ListApprovedVacatingBetween(ctx context.Context, from, to time.Time) ([]*models.Notice, error)

	Update(ctx context.Context, n *models.Notice) error
}

const pendingNoticeConstraint = "notices_tenant_pending_key"

type noticeRepo struct {
	*BaseVersionedRepo[*models.Notice]
	db DB
}

func NewNoticeRepository(db DB) NoticeRepository {
	r := &noticeRepo{db: db}
	r.BaseVersionedRepo = NewBaseRepo(db, baseSelectNotice()+" WHERE id=$1", scanNotice)
	return r
}

func (r *noticeRepo) Create(ctx context.Context, n *models.Notice) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO notices (
            id, tenant_id, property_id, room_id, owner_id,
            submitted_at, vacate_date, reason, status, owner_response, decided_at,
            created_at, updated_at, row_version
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11, NOW(), NOW(), 1)
    `,
		n.ID, n.TenantID, n.PropertyID, n.RoomID, n.OwnerID,
		n.SubmittedAt, n.VacateDate, n.Reason, n.Status, n.OwnerResponse, n.DecidedAt,
	)
	if uniqueViolation(err, pendingNoticeConstraint) {
		return fmt.Errorf("%w: tenant %s", utils.ErrNoticeAlreadyPending, n.TenantID)
	}
	return err
}

func (r *noticeRepo) GetPendingByTenantID(ctx context.Context, tenantID uuid.UUID) (*models.Notice, error) {
	row := r.db.QueryRow(ctx, baseSelectNotice()+" WHERE tenant_id=$1 AND status='pending'", tenantID)
	return scanNotice(row)
}

func (r *noticeRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*models.Notice, error) {
	rows, err := r.db.Query(ctx, baseSelectNotice()+`
        WHERE tenant_id IN (SELECT id FROM tenants WHERE user_id=$1)
        ORDER BY submitted_at DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	return collectNotices(rows)
}

func (r *noticeRepo) ListByPropertyID(ctx context.Context, propID uuid.UUID, status *models.NoticeStatus) ([]*models.Notice, error) {
	q := baseSelectNotice() + " WHERE property_id=$1"
	args := []any{propID}
	if status != nil {
		q += " AND status=$2"
		args = append(args, *status)
	}
	rows, err := r.db.Query(ctx, q+" ORDER BY submitted_at DESC", args...)
	if err != nil {
		return nil, err
	}
	return collectNotices(rows)
}

func (r *noticeRepo) ListApprovedVacatingBetween(ctx context.Context, from, to time.Time) ([]*models.Notice, error) {
	rows, err := r.db.Query(ctx, baseSelectNotice()+`
        WHERE status='approved' AND vacate_date BETWEEN $1 AND $2
        ORDER BY vacate_date
    `, from, to)
	if err != nil {
		return nil, err
	}
	return collectNotices(rows)
}

func (r *noticeRepo) Update(ctx context.Context, n *models.Notice) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE notices SET
            status=$1, owner_response=$2, decided_at=$3,
            updated_at=NOW(), row_version=row_version+1
        WHERE id=$4
    `, n.Status, n.OwnerResponse, n.DecidedAt, n.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNoRowsUpdated
	}
	n.RowVersion++
	return nil
}

func collectNotices(rows pgx.Rows) ([]*models.Notice, error) {
	defer rows.Close()

	var out []*models.Notice
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func baseSelectNotice() string {
	return `
        SELECT
            id, tenant_id, property_id, room_id, owner_id,
            submitted_at, vacate_date, reason, status, owner_response, decided_at,
            created_at, updated_at, row_version
        FROM notices
    `
}

func scanNotice(row pgx.Row) (*models.Notice, error) {
	var n models.Notice
	err := row.Scan(
		&n.ID,
		&n.TenantID,
		&n.PropertyID,
		&n.RoomID,
		&n.OwnerID,
		&n.SubmittedAt,
		&n.VacateDate,
		&n.Reason,
		&n.Status,
		&n.OwnerResponse,
		&n.DecidedAt,
		&n.CreatedAt,
		&n.UpdatedAt,
		&n.RowVersion,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}
