// Package queue defines message payloads exchanged over the message broker.
package queue

// ReservationEvent is published whenever the seat engine commits a
// state change: seats claimed, a seat released, or a waitlisted
// passenger promoted. It carries enough information for downstream
// consumers to log, notify, or trigger analytics without querying the
// primary database.
type ReservationEvent struct {
	Kind        string   `json:"kind"`
	ScheduleID  uint64   `json:"schedule_id"`
	PassengerID uint64   `json:"passenger_id"`
	SeatNumbers []uint32 `json:"seat_numbers"`
	BookingRef  string   `json:"booking_ref,omitempty"`
	OccurredAt  string   `json:"occurred_at"`
}
