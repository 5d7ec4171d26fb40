package engine

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidSeatCount rejects booking requests for zero or negative
// seat counts before they reach the Coordinator.
var ErrInvalidSeatCount = errors.New("seat count must be at least 1")

// BookingService drives a single passenger's booking attempt end to
// end. It is the layer that decides what happens around the
// Coordinator's hard answers: a full schedule becomes an explicit
// waitlist offer for the caller to accept, never an automatic
// enrollment.
type BookingService struct {
	coord *Coordinator
}

// NewBookingService returns a BookingService on top of coord.
func NewBookingService(coord *Coordinator) *BookingService {
	return &BookingService{coord: coord}
}

// BookingOutcome is the result of a completed booking session.
type BookingOutcome struct {
	Reservations []Reservation
}

// InitiateBooking attempts to claim seats seats on the schedule for the
// passenger. On success the committed reservations are returned and the
// caller proceeds to payment. On ErrInsufficientCapacity no seat is
// left claimed and the caller may offer waitlist enrollment; every
// other error is terminal for the attempt. Any seats provisionally
// claimed by a failed attempt are released before this returns.
func (s *BookingService) InitiateBooking(ctx context.Context, scheduleID, passengerID uint64, seats int) (*BookingOutcome, error) {
	if seats <= 0 {
		return nil, ErrInvalidSeatCount
	}
	reservations, err := s.coord.Reserve(ctx, scheduleID, passengerID, seats)
	if err != nil {
		return nil, fmt.Errorf("book %d seat(s) on schedule %d: %w", seats, scheduleID, err)
	}
	return &BookingOutcome{Reservations: reservations}, nil
}

// CancelReservation reverses a committed reservation and lets the
// freed seat flow to the waitlist.
func (s *BookingService) CancelReservation(ctx context.Context, reservationID uint64) error {
	return s.coord.Cancel(ctx, reservationID)
}

// JoinWaitlist enrolls the passenger after an insufficient-capacity
// answer. Enrollment is always this explicit call, made by the caller
// once the passenger agrees to wait.
func (s *BookingService) JoinWaitlist(ctx context.Context, scheduleID, passengerID uint64) (WaitlistEntry, error) {
	return s.coord.Enroll(ctx, scheduleID, passengerID)
}

// LeaveWaitlist withdraws the passenger's waiting entry.
func (s *BookingService) LeaveWaitlist(ctx context.Context, scheduleID, passengerID uint64) error {
	return s.coord.Withdraw(ctx, scheduleID, passengerID)
}

// WaitlistPosition reports the passenger's place in line for "my
// bookings" style screens.
func (s *BookingService) WaitlistPosition(ctx context.Context, scheduleID, passengerID uint64) (WaitlistStatus, error) {
	return s.coord.WaitlistPosition(ctx, scheduleID, passengerID)
}
