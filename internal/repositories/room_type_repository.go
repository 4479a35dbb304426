package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

type RoomTypeRepository interface {
	Create(ctx context.Context, rt *models.RoomType) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.RoomType, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.RoomType, error)
	ListByPropertyID(ctx context.Context, propID uuid.UUID) ([]*models.RoomType, error)

	// Update writes price, count and occupancy counter. Callers hold the row
	// lock from GetForUpdate.
	Update(ctx context.Context, rt *models.RoomType) error
}

type roomTypeRepo struct {
	*BaseVersionedRepo[*models.RoomType]
	db DB
}

func NewRoomTypeRepository(db DB) RoomTypeRepository {
	r := &roomTypeRepo{db: db}
	r.BaseVersionedRepo = NewBaseRepo(db, baseSelectRoomType()+" WHERE id=$1", scanRoomType)
	return r
}

func (r *roomTypeRepo) Create(ctx context.Context, rt *models.RoomType) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO room_types (
            id, property_id, category, base_price, room_count, occupied_beds,
            created_at, updated_at, row_version
        ) VALUES ($1,$2,$3,$4,$5,$6, NOW(), NOW(), 1)
    `, rt.ID, rt.PropertyID, rt.Category, rt.BasePrice, rt.RoomCount, rt.OccupiedBeds)
	if uniqueViolation(err, "room_types_property_category_key") {
		return fmt.Errorf("%w: %s", utils.ErrDuplicateRoomType, rt.Category)
	}
	return err
}

func (r *roomTypeRepo) ListByPropertyID(ctx context.Context, propID uuid.UUID) ([]*models.RoomType, error) {
	rows, err := r.db.Query(ctx, baseSelectRoomType()+`
        WHERE property_id=$1
        ORDER BY CASE category
            WHEN 'single' THEN 1 WHEN 'double' THEN 2
            WHEN 'triple' THEN 3 WHEN 'quad' THEN 4 END
    `, propID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.RoomType
	for rows.Next() {
		rt, err := scanRoomType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, rows.Err()
}

func (r *roomTypeRepo) Update(ctx context.Context, rt *models.RoomType) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE room_types SET
            base_price=$1, room_count=$2, occupied_beds=$3,
            updated_at=NOW(), row_version=row_version+1
        WHERE id=$4
    `, rt.BasePrice, rt.RoomCount, rt.OccupiedBeds, rt.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNoRowsUpdated
	}
	rt.RowVersion++
	return nil
}

func baseSelectRoomType() string {
	return `
        SELECT
            id, property_id, category, base_price, room_count, occupied_beds,
            created_at, updated_at, row_version
        FROM room_types
    `
}

func scanRoomType(row pgx.Row) (*models.RoomType, error) {
	var rt models.RoomType
	err := row.Scan(
		&rt.ID,
		&rt.PropertyID,
		&rt.Category,
		&rt.BasePrice,
		&rt.RoomCount,
		&rt.OccupiedBeds,
		&rt.CreatedAt,
		&rt.UpdatedAt,
		&rt.RowVersion,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rt, nil
}
