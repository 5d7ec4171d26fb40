package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// WaitlistRepo manages persistence for waitlist entries. Positions are
// assigned by the engine from an append-only counter; the unique
// (schedule_id, position) index guards against two entries ever sharing
// a position.
type WaitlistRepo struct {
	db *sql.DB
}

// NewWaitlistRepo constructs a WaitlistRepo with the given DB handle.
func NewWaitlistRepo(db *sql.DB) *WaitlistRepo {
	return &WaitlistRepo{db: db}
}

// Create inserts a new entry and assigns the generated ID back to the
// struct.
func (r *WaitlistRepo) Create(ctx context.Context, e *model.WaitlistEntry) error {
	const q = `INSERT INTO waitlist_entries (schedule_id, passenger_id, position, status)
	           VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, e.ScheduleID, e.PassengerID, e.Position, e.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	return nil
}

// UpdateStatus records a terminal transition on an entry. It returns
// ErrWaitlistEntryNotFound when no row matched.
func (r *WaitlistRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	const q = `UPDATE waitlist_entries SET status = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, status, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrWaitlistEntryNotFound
	}
	return nil
}

// ListBySchedule returns every entry for the schedule, terminal ones
// included, in ascending position order. The engine hydrates its
// waitlist from this view and resumes the position counter past the
// highest position ever assigned.
func (r *WaitlistRepo) ListBySchedule(ctx context.Context, scheduleID uint64) ([]model.WaitlistEntry, error) {
	const q = `SELECT id, schedule_id, passenger_id, position, status, created_at, updated_at
	           FROM waitlist_entries WHERE schedule_id = ?
	           ORDER BY position`
	rows, err := r.db.QueryContext(ctx, q, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.WaitlistEntry, 0)
	for rows.Next() {
		var e model.WaitlistEntry
		if err := rows.Scan(
			&e.ID, &e.ScheduleID, &e.PassengerID, &e.Position,
			&e.Status, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
