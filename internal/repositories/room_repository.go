package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/models"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

/* ───────────── public interface ───────────── */

type RoomRepository interface {
	Create(ctx context.Context, rm *models.Room) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Room, error)
	GetByNumber(ctx context.Context, propID uuid.UUID, number string) (*models.Room, error)
	ListByPropertyID(ctx context.Context, propID uuid.UUID) ([]*models.Room, error)
	ListByRoomTypeID(ctx context.Context, roomTypeID uuid.UUID) ([]*models.Room, error)

	// Update writes room number and occupancy. Callers hold the row lock.
	Update(ctx context.Context, rm *models.Room) error
	Delete(ctx context.Context, id uuid.UUID) error
}

/* ───────────── implementation ───────────── */

const roomNumberConstraint = "rooms_property_room_number_key"

type roomRepo struct {
	*BaseVersionedRepo[*models.Room]
	db DB
}

func NewRoomRepository(db DB) RoomRepository {
	r := &roomRepo{db: db}
	r.BaseVersionedRepo = NewBaseRepo(db, baseSelectRoom()+" WHERE id=$1", scanRoom)
	return r
}

/* ---------- create ---------- */

func (r *roomRepo) Create(ctx context.Context, rm *models.Room) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO rooms (
			id, property_id, room_type_id, room_number, category, max_beds, occupied_beds,
			created_at, updated_at, row_version
		) VALUES ($1,$2,$3,$4,$5,$6,$7, NOW(), NOW(), 1)
	`, rm.ID, rm.PropertyID, rm.RoomTypeID, rm.RoomNumber, rm.Category, rm.MaxBeds, rm.OccupiedBeds)
	if uniqueViolation(err, roomNumberConstraint) {
		return fmt.Errorf("%w: %s", utils.ErrDuplicateRoomNumber, rm.RoomNumber)
	}
	return err
}

/* ---------- reads ---------- */

func (r *roomRepo) GetByNumber(ctx context.Context, propID uuid.UUID, number string) (*models.Room, error) {
	row := r.db.QueryRow(ctx, baseSelectRoom()+" WHERE property_id=$1 AND room_number=$2", propID, number)
	return scanRoom(row)
}

func (r *roomRepo) ListByPropertyID(ctx context.Context, propID uuid.UUID) ([]*models.Room, error) {
	rows, err := r.db.Query(ctx, baseSelectRoom()+" WHERE property_id=$1 ORDER BY room_number", propID)
	if err != nil {
		return nil, err
	}
	return collectRooms(rows)
}

func (r *roomRepo) ListByRoomTypeID(ctx context.Context, roomTypeID uuid.UUID) ([]*models.Room, error) {
	rows, err := r.db.Query(ctx, baseSelectRoom()+" WHERE room_type_id=$1 ORDER BY room_number", roomTypeID)
	if err != nil {
		return nil, err
	}
	return collectRooms(rows)
}

/* ---------- writes ---------- */

func (r *roomRepo) Update(ctx context.Context, rm *models.Room) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE rooms SET
			room_number=$1, occupied_beds=$2,
			updated_at=NOW(), row_version=row_version+1
		WHERE id=$3
	`, rm.RoomNumber, rm.OccupiedBeds, rm.ID)
	if uniqueViolation(err, roomNumberConstraint) {
		return fmt.Errorf("%w: %s", utils.ErrDuplicateRoomNumber, rm.RoomNumber)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNoRowsUpdated
	}
	rm.RowVersion++
	return nil
}

func (r *roomRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM rooms WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

/* ---------- helpers ---------- */

func collectRooms(rows pgx.Rows) ([]*models.Room, error) {
	defer rows.Close()

	var out []*models.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

func baseSelectRoom() string {
	return `
		SELECT
			id, property_id, room_type_id, room_number, category, max_beds, occupied_beds,
			created_at, updated_at, row_version
		FROM rooms
	`
}

func scanRoom(row pgx.Row) (*models.Room, error) {
	var rm models.Room
	err := row.Scan(
		&rm.ID,
		&rm.PropertyID,
		&rm.RoomTypeID,
		&rm.RoomNumber,
		&rm.Category,
		&rm.MaxBeds,
		&rm.OccupiedBeds,
		&rm.CreatedAt,
		&rm.UpdatedAt,
		&rm.RowVersion,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &rm, nil
}
