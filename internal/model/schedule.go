package model

import "time"

// Schedule represents one scheduled train run between two stations.
// Seat capacity is fixed when the schedule is created; once seats have
// been claimed against it the schedule is immutable except by explicit
// administrative override.  This struct corresponds to a row in the
// `schedules` table.
//
// Fields:
//  ID           – primary key identifier.
//  TrainID      – identifier of the physical train making the run.
//  Origin       – departure station name.
//  Destination  – arrival station name.
//  DepartsAt    – departure timestamp (UTC).
//  ArrivesAt    – arrival timestamp (UTC).
//  SeatCapacity – total number of seats, numbered 1..SeatCapacity.
//  CreatedAt    – timestamp when the schedule was created.
//  UpdatedAt    – timestamp of last update.
type Schedule struct {
	ID           uint64    // schedules.id
	TrainID      string    // schedules.train_id
	Origin       string    // schedules.origin_station
	Destination  string    // schedules.destination_station
	DepartsAt    time.Time // schedules.departs_at
	ArrivesAt    time.Time // schedules.arrives_at
	SeatCapacity uint32    // schedules.seat_capacity
	CreatedAt    time.Time // schedules.created_at
	UpdatedAt    time.Time // schedules.updated_at
}
