package engine

import (
	"context"
	"time"
)

// Store is the durability port of the engine. The engine keeps the
// authoritative seat and waitlist state in memory and writes committed
// changes through under the owning schedule's lock; on first touch of a
// schedule the in-memory state is hydrated from the store. The MySQL
// implementation lives in internal/repository.
type Store interface {
	// ScheduleCapacity returns the fixed seat capacity of the schedule
	// or ErrScheduleNotFound.
	ScheduleCapacity(ctx context.Context, scheduleID uint64) (uint32, error)

	// ConfirmedReservations returns every committed, uncancelled
	// reservation for the schedule.
	ConfirmedReservations(ctx context.Context, scheduleID uint64) ([]Reservation, error)

	// CreateReservations persists freshly claimed reservations in one
	// transaction and fills in their IDs. Either all rows commit or
	// none do.
	CreateReservations(ctx context.Context, res []*Reservation) error

	// ReservationByID returns a confirmed reservation or
	// ErrReservationNotFound.
	ReservationByID(ctx context.Context, reservationID uint64) (*Reservation, error)

	// CancelReservation marks a confirmed reservation cancelled.
	CancelReservation(ctx context.Context, reservationID uint64) error

	// WaitlistEntries returns every waitlist entry for the schedule,
	// terminal ones included, in ascending position order.
	WaitlistEntries(ctx context.Context, scheduleID uint64) ([]WaitlistEntry, error)

	// CreateWaitlistEntry persists a new entry and fills in its ID.
	CreateWaitlistEntry(ctx context.Context, e *WaitlistEntry) error

	// UpdateWaitlistEntryStatus records a terminal transition.
	UpdateWaitlistEntryStatus(ctx context.Context, entryID uint64, status string) error
}

// Event kinds emitted on reservation state changes so notification and
// email components can react without polling the database.
const (
	EventReservationClaimed  = "reservation.claimed"
	EventReservationReleased = "reservation.released"
	EventWaitlistPromoted    = "waitlist.promoted"
)

// Event describes one reservation state change.
type Event struct {
	Kind        string
	ScheduleID  uint64
	PassengerID uint64
	SeatNumbers []uint32
	BookingRef  string
	OccurredAt  time.Time
}

// EventSink receives reservation lifecycle events. Publishing is best
// effort: implementations log failures and never block or fail the
// booking that produced the event.
type EventSink interface {
	Publish(ctx context.Context, ev Event)
}
