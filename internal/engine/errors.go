// Package engine implements the seat inventory and waitlist engine for
// scheduled train runs. Each schedule owns a fixed pool of numbered seats
// and an arrival-ordered waitlist; the engine guarantees that no two
// passengers ever hold the same seat and that freed seats are offered to
// waitlisted passengers in strict enrollment order.
package engine

import "errors"

// ErrInsufficientCapacity is returned by a claim when fewer free seats
// remain than were requested. It is recoverable: the caller may retry
// later or enroll the passenger on the schedule's waitlist.
var ErrInsufficientCapacity = errors.New("insufficient capacity")

// ErrUnknownSeat indicates a seat number outside the schedule's [1, C]
// range. This is a data-integrity violation, never expected in normal
// operation.
var ErrUnknownSeat = errors.New("unknown seat")

// ErrSeatNotOccupied indicates an attempt to release a seat that is
// already free. Like ErrUnknownSeat it signals an integrity problem and
// is never silently ignored.
var ErrSeatNotOccupied = errors.New("seat not occupied")

// ErrAlreadyWaiting is returned by Enroll when the passenger already has
// a waiting entry on the schedule. Surfaced immediately, never retried.
var ErrAlreadyWaiting = errors.New("passenger already waitlisted")

// ErrAlreadyTerminal is returned when a promoted or cancelled waitlist
// entry is transitioned again. Callers rely on it to detect
// double-promotion bugs, so the transition methods fail loudly instead
// of succeeding idempotently.
var ErrAlreadyTerminal = errors.New("waitlist entry already terminal")

// ErrNotWaiting is returned when a withdrawal or position query refers
// to a passenger with no waiting entry on the schedule.
var ErrNotWaiting = errors.New("passenger not waitlisted")

// ErrScheduleNotFound indicates the schedule does not exist.
var ErrScheduleNotFound = errors.New("schedule not found")

// ErrReservationNotFound indicates the reservation does not exist or was
// already cancelled.
var ErrReservationNotFound = errors.New("reservation not found")
