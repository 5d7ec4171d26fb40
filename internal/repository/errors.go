// Package repository contains the MySQL data access layer for
// schedules, reservations and waitlist entries. Sentinel errors defined
// here let higher layers distinguish failure scenarios without
// inspecting driver errors.
package repository

import "errors"

// ErrScheduleNotFound indicates that no schedule row matched the
// requested ID.
var ErrScheduleNotFound = errors.New("schedule not found")

// ErrReservationNotFound indicates that no confirmed reservation row
// matched the requested ID. Cancelled rows are treated as not found so
// a reservation cannot be cancelled twice.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrWaitlistEntryNotFound indicates that no waitlist entry row matched
// the requested ID.
var ErrWaitlistEntryNotFound = errors.New("waitlist entry not found")
