package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// ReservationRepo manages persistence for seat reservations. A
// reservation binds one seat on one schedule to one passenger; the
// unique (schedule_id, seat_number) index over confirmed rows is the
// database-level backstop for the engine's no-double-booking guarantee.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the given
// database.
func NewReservationRepo(db *sql.DB) *ReservationRepo {
	return &ReservationRepo{db: db}
}

// CreateTx inserts one reservation within an existing transaction and
// populates the generated ID on the record. The caller must commit or
// roll back the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	const q = `INSERT INTO reservations (booking_ref, schedule_id, passenger_id, seat_number, status)
	           VALUES (?, ?, ?, ?, ?)`
	result, err := tx.ExecContext(ctx, q, res.BookingRef, res.ScheduleID, res.PassengerID, res.SeatNumber, model.ReservationConfirmed)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	res.Status = model.ReservationConfirmed
	return nil
}

// GetConfirmedByID returns a confirmed reservation by ID. Cancelled or
// missing rows yield ErrReservationNotFound.
func (r *ReservationRepo) GetConfirmedByID(ctx context.Context, id uint64) (*model.Reservation, error) {
	const q = `SELECT id, booking_ref, schedule_id, passenger_id, seat_number, status, created_at, updated_at
	           FROM reservations WHERE id = ? AND status = ?`
	var res model.Reservation
	err := r.db.QueryRowContext(ctx, q, id, model.ReservationConfirmed).Scan(
		&res.ID, &res.BookingRef, &res.ScheduleID, &res.PassengerID,
		&res.SeatNumber, &res.Status, &res.CreatedAt, &res.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Cancel flips a confirmed reservation to CANCELLED. It returns
// ErrReservationNotFound when no confirmed row matched, so cancelling
// twice fails rather than silently succeeding.
func (r *ReservationRepo) Cancel(ctx context.Context, id uint64) error {
	const q = `UPDATE reservations SET status = ? WHERE id = ? AND status = ?`
	result, err := r.db.ExecContext(ctx, q, model.ReservationCancelled, id, model.ReservationConfirmed)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrReservationNotFound
	}
	return nil
}

// ListConfirmedBySchedule returns every confirmed reservation on the
// schedule ordered by seat number. The engine hydrates its seat pool
// from this view.
func (r *ReservationRepo) ListConfirmedBySchedule(ctx context.Context, scheduleID uint64) ([]model.Reservation, error) {
	const q = `SELECT id, booking_ref, schedule_id, passenger_id, seat_number, status, created_at, updated_at
	           FROM reservations WHERE schedule_id = ? AND status = ?
	           ORDER BY seat_number`
	rows, err := r.db.QueryContext(ctx, q, scheduleID, model.ReservationConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Reservation, 0)
	for rows.Next() {
		var res model.Reservation
		if err := rows.Scan(
			&res.ID, &res.BookingRef, &res.ScheduleID, &res.PassengerID,
			&res.SeatNumber, &res.Status, &res.CreatedAt, &res.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, rows.Err()
}

// ReservationDetail is a reservation joined with its schedule for "my
// bookings" style listings.
type ReservationDetail struct {
	ID          uint64 `json:"id"`
	BookingRef  string `json:"booking_ref"`
	ScheduleID  uint64 `json:"schedule_id"`
	SeatNumber  uint32 `json:"seat_number"`
	Status      string `json:"status"`
	TrainID     string `json:"train_id"`
	Origin      string `json:"origin_station"`
	Destination string `json:"destination_station"`
	DepartsAt   string `json:"departs_at"`
	ArrivesAt   string `json:"arrives_at"`
}

// ListByPassenger returns all of a passenger's reservations, newest
// first, with schedule details attached. Cancelled reservations are
// included so history screens can show them.
func (r *ReservationRepo) ListByPassenger(ctx context.Context, passengerID uint64) ([]ReservationDetail, error) {
	const q = `SELECT r.id, r.booking_ref, r.schedule_id, r.seat_number, r.status,
	                  s.train_id, s.origin_station, s.destination_station, s.departs_at, s.arrives_at
	           FROM reservations r
	           JOIN schedules s ON s.id = r.schedule_id
	           WHERE r.passenger_id = ?
	           ORDER BY r.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, passengerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ReservationDetail, 0)
	for rows.Next() {
		var d ReservationDetail
		var departs, arrives sql.NullTime
		if err := rows.Scan(
			&d.ID, &d.BookingRef, &d.ScheduleID, &d.SeatNumber, &d.Status,
			&d.TrainID, &d.Origin, &d.Destination, &departs, &arrives,
		); err != nil {
			return nil, err
		}
		if departs.Valid {
			d.DepartsAt = departs.Time.UTC().Format(time.RFC3339)
		}
		if arrives.Valid {
			d.ArrivesAt = arrives.Time.UTC().Format(time.RFC3339)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
