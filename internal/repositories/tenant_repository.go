package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

/* ------------------------------------------------------------------
   Public interface
------------------------------------------------------------------ */

type TenantRepository interface {
	// Create inserts the tenant together with whatever history entries it
	// already carries.
	Create(ctx context.Context, t *models.Tenant) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	// GetCurrentByUserID returns the user's most recent tenancy, preferring
	// one that still holds a bed.
	GetCurrentByUserID(ctx context.Context, userID uuid.UUID) (*models.Tenant, error)
	ListByRoomID(ctx context.Context, roomID uuid.UUID) ([]*models.Tenant, error)
	ListByPropertyID(ctx context.Context, propID uuid.UUID) ([]*models.Tenant, error)

	Update(ctx context.Context, t *models.Tenant) error
	UpdateIfVersion(ctx context.Context, t *models.Tenant, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Tenant) error) error

	AppendRentChange(ctx context.Context, tenantID uuid.UUID, rc models.RentChange) error
	AppendStatusChange(ctx context.Context, tenantID uuid.UUID, sc models.StatusChange) error
}

/* ------------------------------------------------------------------
   Implementation
------------------------------------------------------------------ */

const tenantBedConstraint = "tenants_room_bed_occupying_key"

type tenantRepo struct {
	*BaseVersionedRepo[*models.Tenant]
	db DB
}

func NewTenantRepository(db DB) TenantRepository {
	r := &tenantRepo{db: db}
	r.BaseVersionedRepo = NewBaseRepo(db, baseSelectTenant()+" WHERE id=$1", scanTenant)
	return r
}

func (r *tenantRepo) Create(ctx context.Context, t *models.Tenant) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO tenants (
            id, property_id, room_id, user_id, bed_index, bed_id,
            name, email, phone, rent, status,
            join_date, move_out_date, planned_vacate_date,
            created_at, updated_at, row_version
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14, NOW(), NOW(), 1)
    `,
		t.ID, t.PropertyID, t.RoomID, t.UserID, t.BedIndex, t.BedID,
		t.Name, t.Email, t.Phone, t.Rent, t.Status,
		t.JoinDate, t.MoveOutDate, t.PlannedVacateDate,
	)
	if uniqueViolation(err, tenantBedConstraint) {
		return fmt.Errorf("%w: bed %s already held", utils.ErrInvariantBreach, t.BedID)
	}
	if err != nil {
		return err
	}
	for _, rc := range t.RentHistory {
		if err := r.AppendRentChange(ctx, t.ID, rc); err != nil {
			return err
		}
	}
	for _, sc := range t.StatusHistory {
		if err := r.AppendStatusChange(ctx, t.ID, sc); err != nil {
			return err
		}
	}
	return nil
}

func (r *tenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	t, err := r.BaseVersionedRepo.GetByID(ctx, id)
	if err != nil || t == nil {
		return t, err
	}
	return t, r.loadHistories(ctx, []*models.Tenant{t})
}

func (r *tenantRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	t, err := r.BaseVersionedRepo.GetForUpdate(ctx, id)
	if err != nil || t == nil {
		return t, err
	}
	return t, r.loadHistories(ctx, []*models.Tenant{t})
}

func (r *tenantRepo) GetCurrentByUserID(ctx context.Context, userID uuid.UUID) (*models.Tenant, error) {
	row := r.db.QueryRow(ctx, baseSelectTenant()+`
        WHERE user_id=$1
        ORDER BY (status <> 'moved_out') DESC, join_date DESC
        LIMIT 1
    `, userID)
	t, err := scanTenant(row)
	if err != nil || t == nil {
		return t, err
	}
	return t, r.loadHistories(ctx, []*models.Tenant{t})
}

func (r *tenantRepo) ListByRoomID(ctx context.Context, roomID uuid.UUID) ([]*models.Tenant, error) {
	rows, err := r.db.Query(ctx, baseSelectTenant()+" WHERE room_id=$1 ORDER BY bed_index, join_date", roomID)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

func (r *tenantRepo) ListByPropertyID(ctx context.Context, propID uuid.UUID) ([]*models.Tenant, error) {
	rows, err := r.db.Query(ctx, baseSelectTenant()+" WHERE property_id=$1 ORDER BY join_date", propID)
	if err != nil {
		return nil, err
	}
	return r.collect(ctx, rows)
}

func (r *tenantRepo) Update(ctx context.Context, t *models.Tenant) error {
	tag, err := r.update(ctx, t, false, 0)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNoRowsUpdated
	}
	t.RowVersion++
	return nil
}

func (r *tenantRepo) UpdateIfVersion(ctx context.Context, t *models.Tenant, expected int64) (pgconn.CommandTag, error) {
	return r.update(ctx, t, true, expected)
}

func (r *tenantRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Tenant) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id, mutate, r.UpdateIfVersion)
}

func (r *tenantRepo) update(ctx context.Context, t *models.Tenant, check bool, expected int64) (pgconn.CommandTag, error) {
	sql := `
        UPDATE tenants SET
            bed_id=$1, name=$2, email=$3, phone=$4, rent=$5, status=$6,
            move_out_date=$7, planned_vacate_date=$8,
            updated_at=NOW(), row_version=row_version+1
    `
	args := []any{
		t.BedID, t.Name, t.Email, t.Phone, t.Rent, t.Status,
		t.MoveOutDate, t.PlannedVacateDate,
	}
	if check {
		sql += ` WHERE id=$9 AND row_version=$10`
		args = append(args, t.ID, expected)
	} else {
		sql += ` WHERE id=$9`
		args = append(args, t.ID)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if uniqueViolation(err, tenantBedConstraint) {
		return tag, fmt.Errorf("%w: bed %s already held", utils.ErrInvariantBreach, t.BedID)
	}
	return tag, err
}

func (r *tenantRepo) AppendRentChange(ctx context.Context, tenantID uuid.UUID, rc models.RentChange) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO tenant_rent_history (tenant_id, amount, effective_date, reason)
        VALUES ($1,$2,$3,$4)
    `, tenantID, rc.Amount, rc.EffectiveDate, rc.Reason)
	return err
}

func (r *tenantRepo) AppendStatusChange(ctx context.Context, tenantID uuid.UUID, sc models.StatusChange) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO tenant_status_history (tenant_id, status, changed_at, reason)
        VALUES ($1,$2,$3,$4)
    `, tenantID, sc.Status, sc.Date, sc.Reason)
	return err
}

/* ------------------------------------------------------------------
   Helpers
------------------------------------------------------------------ */

func (r *tenantRepo) collect(ctx context.Context, rows pgx.Rows) ([]*models.Tenant, error) {
	var out []*models.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, r.loadHistories(ctx, out)
}

// loadHistories fills both append-only histories in two round trips.
func (r *tenantRepo) loadHistories(ctx context.Context, tenants []*models.Tenant) error {
	if len(tenants) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*models.Tenant, len(tenants))
	ids := make([]string, 0, len(tenants))
	for _, t := range tenants {
		t.RentHistory = []models.RentChange{}
		t.StatusHistory = []models.StatusChange{}
		byID[t.ID] = t
		ids = append(ids, t.ID.String())
	}

	rows, err := r.db.Query(ctx, `
        SELECT tenant_id, amount, effective_date, reason
        FROM tenant_rent_history
        WHERE tenant_id = ANY($1::uuid[])
        ORDER BY seq
    `, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var id uuid.UUID
		var rc models.RentChange
		if err := rows.Scan(&id, &rc.Amount, &rc.EffectiveDate, &rc.Reason); err != nil {
			rows.Close()
			return err
		}
		byID[id].RentHistory = append(byID[id].RentHistory, rc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Query(ctx, `
        SELECT tenant_id, status, changed_at, reason
        FROM tenant_status_history
        WHERE tenant_id = ANY($1::uuid[])
        ORDER BY seq
    `, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		var sc models.StatusChange
		if err := rows.Scan(&id, &sc.Status, &sc.Date, &sc.Reason); err != nil {
			return err
		}
		byID[id].StatusHistory = append(byID[id].StatusHistory, sc)
	}
	return rows.Err()
}

func baseSelectTenant() string {
	return `
        SELECT
            id, property_id, room_id, user_id, bed_index, bed_id,
            name, email, phone, rent, status,
            join_date, move_out_date, planned_vacate_date,
            created_at, updated_at, row_version
        FROM tenants
    `
}

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var t models.Tenant
	err := row.Scan(
		&t.ID,
		&t.PropertyID,
		&t.RoomID,
		&t.UserID,
		&t.BedIndex,
		&t.BedID,
		&t.Name,
		&t.Email,
		&t.Phone,
		&t.Rent,
		&t.Status,
		&t.JoinDate,
		&t.MoveOutDate,
		&t.PlannedVacateDate,
		&t.CreatedAt,
		&t.UpdatedAt,
		&t.RowVersion,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}
