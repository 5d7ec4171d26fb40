package model

import "time"

// WaitlistEntry records one passenger waiting for a seat on a specific
// schedule.  Position is assigned from an append-only per-schedule
// counter at enrollment time and never reused, so entries sorted by
// position reflect true arrival order even after cancellations.
//
// Fields:
//  ID          – primary key identifier.
//  ScheduleID  – schedule being waited on.
//  PassengerID – waiting passenger.
//  Position    – strictly increasing enrollment position per schedule.
//  Status      – WAITING, PROMOTED or CANCELLED; terminal states are
//                never revisited.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type WaitlistEntry struct {
	ID          uint64    // waitlist_entries.id
	ScheduleID  uint64    // waitlist_entries.schedule_id
	PassengerID uint64    // waitlist_entries.passenger_id
	Position    uint64    // waitlist_entries.position
	Status      string    // waitlist_entries.status
	CreatedAt   time.Time // waitlist_entries.created_at
	UpdatedAt   time.Time // waitlist_entries.updated_at
}
