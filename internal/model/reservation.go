package model

import "time"

// Reservation statuses. A confirmed reservation occupies its seat;
// cancellation keeps the row for history but frees the seat.
const (
	ReservationConfirmed = "CONFIRMED"
	ReservationCancelled = "CANCELLED"
)

// Reservation records a committed claim of one specific seat by one
// passenger on one schedule.  Rows are only ever created through a
// successful booking session; cancellation flips the status rather than
// deleting the row so past bookings stay visible to the passenger.
//
// Fields:
//  ID          – primary key identifier.
//  BookingRef  – opaque reference shown to the passenger (uuid).
//  ScheduleID  – schedule the seat belongs to.
//  PassengerID – passenger who holds the seat.
//  SeatNumber  – seat number in [1, schedule capacity].
//  Status      – CONFIRMED or CANCELLED.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Reservation struct {
	ID          uint64    // reservations.id
	BookingRef  string    // reservations.booking_ref
	ScheduleID  uint64    // reservations.schedule_id
	PassengerID uint64    // reservations.passenger_id
	SeatNumber  uint32    // reservations.seat_number
	Status      string    // reservations.status
	CreatedAt   time.Time // reservations.created_at
	UpdatedAt   time.Time // reservations.updated_at
}
