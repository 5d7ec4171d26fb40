package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// ScheduleRepo manages persistence for train schedules.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo constructs a ScheduleRepo with the given DB handle.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

// Create inserts a new schedule and assigns the generated ID back to
// the struct. Seat capacity is fixed here and never changes afterwards.
// The freshly inserted row is read back to populate DB-default
// timestamps.
func (r *ScheduleRepo) Create(ctx context.Context, s *model.Schedule) error {
	const q = `INSERT INTO schedules (train_id, origin_station, destination_station, departs_at, arrives_at, seat_capacity)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.TrainID, s.Origin, s.Destination, s.DepartsAt.UTC(), s.ArrivesAt.UTC(), s.SeatCapacity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	const sel = `SELECT id, train_id, origin_station, destination_station, departs_at, arrives_at, seat_capacity, created_at, updated_at
	             FROM schedules WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, s.ID).Scan(
		&s.ID, &s.TrainID, &s.Origin, &s.Destination,
		&s.DepartsAt, &s.ArrivesAt, &s.SeatCapacity,
		&s.CreatedAt, &s.UpdatedAt,
	)
}

// GetByID retrieves a schedule by its ID. It returns
// ErrScheduleNotFound when there is no matching row.
func (r *ScheduleRepo) GetByID(ctx context.Context, id uint64) (*model.Schedule, error) {
	const q = `SELECT id, train_id, origin_station, destination_station, departs_at, arrives_at, seat_capacity, created_at, updated_at
	           FROM schedules WHERE id = ?`
	var s model.Schedule
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&s.ID, &s.TrainID, &s.Origin, &s.Destination,
		&s.DepartsAt, &s.ArrivesAt, &s.SeatCapacity,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrScheduleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns schedules ordered by departure time. When destination is
// non-empty only schedules arriving at a matching station are returned;
// the match is a case-insensitive substring, mirroring how passengers
// search by where they want to go.
func (r *ScheduleRepo) List(ctx context.Context, destination string) ([]model.Schedule, error) {
	q := `SELECT id, train_id, origin_station, destination_station, departs_at, arrives_at, seat_capacity, created_at, updated_at
	      FROM schedules`
	args := []interface{}{}
	if destination != "" {
		q += ` WHERE LOWER(destination_station) LIKE LOWER(?)`
		args = append(args, "%"+destination+"%")
	}
	q += ` ORDER BY departs_at`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Schedule, 0)
	for rows.Next() {
		var s model.Schedule
		if err := rows.Scan(
			&s.ID, &s.TrainID, &s.Origin, &s.Destination,
			&s.DepartsAt, &s.ArrivesAt, &s.SeatCapacity,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
