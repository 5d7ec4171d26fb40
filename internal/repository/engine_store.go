package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/train-seat-reservation/internal/engine"
	"github.com/iliyamo/train-seat-reservation/internal/model"
)

// EngineStore implements engine.Store on top of the MySQL repositories.
// It translates between the engine's in-memory types and the persistent
// row types, and maps repository sentinels onto the engine's error
// taxonomy so the engine never sees driver-level errors it cannot
// classify.
type EngineStore struct {
	db           *sql.DB
	schedules    *ScheduleRepo
	reservations *ReservationRepo
	waitlist     *WaitlistRepo
}

// NewEngineStore wires the repositories into a single engine.Store.
func NewEngineStore(db *sql.DB, schedules *ScheduleRepo, reservations *ReservationRepo, waitlist *WaitlistRepo) *EngineStore {
	return &EngineStore{
		db:           db,
		schedules:    schedules,
		reservations: reservations,
		waitlist:     waitlist,
	}
}

// ScheduleCapacity returns the fixed seat capacity of the schedule.
func (s *EngineStore) ScheduleCapacity(ctx context.Context, scheduleID uint64) (uint32, error) {
	sched, err := s.schedules.GetByID(ctx, scheduleID)
	if errors.Is(err, ErrScheduleNotFound) {
		return 0, engine.ErrScheduleNotFound
	}
	if err != nil {
		return 0, err
	}
	return sched.SeatCapacity, nil
}

// ConfirmedReservations loads the committed seat claims the engine
// hydrates its pool from.
func (s *EngineStore) ConfirmedReservations(ctx context.Context, scheduleID uint64) ([]engine.Reservation, error) {
	rows, err := s.reservations.ListConfirmedBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	out := make([]engine.Reservation, len(rows))
	for i, r := range rows {
		out[i] = engine.Reservation{
			ID:          r.ID,
			BookingRef:  r.BookingRef,
			ScheduleID:  r.ScheduleID,
			PassengerID: r.PassengerID,
			SeatNumber:  r.SeatNumber,
		}
	}
	return out, nil
}

// CreateReservations persists a batch of freshly claimed seats in one
// transaction and fills in the generated IDs. Either all rows commit or
// none do, matching the engine's all-or-nothing claim semantics.
func (s *EngineStore) CreateReservations(ctx context.Context, res []*engine.Reservation) error {
	if len(res) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, r := range res {
		row := &model.Reservation{
			BookingRef:  r.BookingRef,
			ScheduleID:  r.ScheduleID,
			PassengerID: r.PassengerID,
			SeatNumber:  r.SeatNumber,
		}
		if err := s.reservations.CreateTx(ctx, tx, row); err != nil {
			return err
		}
		r.ID = row.ID
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ReservationByID returns a confirmed reservation or
// engine.ErrReservationNotFound.
func (s *EngineStore) ReservationByID(ctx context.Context, reservationID uint64) (*engine.Reservation, error) {
	row, err := s.reservations.GetConfirmedByID(ctx, reservationID)
	if errors.Is(err, ErrReservationNotFound) {
		return nil, engine.ErrReservationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &engine.Reservation{
		ID:          row.ID,
		BookingRef:  row.BookingRef,
		ScheduleID:  row.ScheduleID,
		PassengerID: row.PassengerID,
		SeatNumber:  row.SeatNumber,
	}, nil
}

// CancelReservation marks the reservation cancelled.
func (s *EngineStore) CancelReservation(ctx context.Context, reservationID uint64) error {
	err := s.reservations.Cancel(ctx, reservationID)
	if errors.Is(err, ErrReservationNotFound) {
		return engine.ErrReservationNotFound
	}
	return err
}

// WaitlistEntries loads the full waitlist history of the schedule in
// position order.
func (s *EngineStore) WaitlistEntries(ctx context.Context, scheduleID uint64) ([]engine.WaitlistEntry, error) {
	rows, err := s.waitlist.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	out := make([]engine.WaitlistEntry, len(rows))
	for i, e := range rows {
		out[i] = engine.WaitlistEntry{
			ID:          e.ID,
			ScheduleID:  e.ScheduleID,
			PassengerID: e.PassengerID,
			Position:    e.Position,
			Status:      e.Status,
		}
	}
	return out, nil
}

// CreateWaitlistEntry persists a new entry and fills in its ID.
func (s *EngineStore) CreateWaitlistEntry(ctx context.Context, e *engine.WaitlistEntry) error {
	row := &model.WaitlistEntry{
		ScheduleID:  e.ScheduleID,
		PassengerID: e.PassengerID,
		Position:    e.Position,
		Status:      e.Status,
	}
	if err := s.waitlist.Create(ctx, row); err != nil {
		return err
	}
	e.ID = row.ID
	return nil
}

// UpdateWaitlistEntryStatus records a terminal transition.
func (s *EngineStore) UpdateWaitlistEntryStatus(ctx context.Context, entryID uint64, status string) error {
	return s.waitlist.UpdateStatus(ctx, entryID, status)
}
