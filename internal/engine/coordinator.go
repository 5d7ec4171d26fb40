package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Coordinator is the single choke point through which every seat claim
// and release passes. Operations on the same schedule are serialized
// under that schedule's lock so the count-then-claim sequence is atomic
// and immune to double booking; operations on different schedules share
// no locks and run fully in parallel.
type Coordinator struct {
	store    Store
	events   EventSink
	promoter *Promoter

	mu        sync.Mutex
	schedules map[uint64]*scheduleState
}

// scheduleState bundles the seat pool and waitlist of one schedule
// behind a single mutex. Holding mu is what makes claim, release,
// enrollment and promotion on the schedule mutually exclusive.
type scheduleState struct {
	mu       sync.Mutex
	pool     *SeatPool
	waitlist *Waitlist
	hydrated bool
}

// NewCoordinator returns a Coordinator persisting through store and
// emitting reservation lifecycle events to events. A nil sink disables
// publishing.
func NewCoordinator(store Store, events EventSink) *Coordinator {
	return &Coordinator{
		store:     store,
		events:    events,
		promoter:  NewPromoter(store),
		schedules: make(map[uint64]*scheduleState),
	}
}

// state returns the in-memory state for a schedule, hydrating it from
// the store on first touch. Hydration runs under the schedule lock so
// concurrent first requests observe a single consistent load.
func (c *Coordinator) state(ctx context.Context, scheduleID uint64) (*scheduleState, error) {
	c.mu.Lock()
	st, ok := c.schedules[scheduleID]
	if !ok {
		st = &scheduleState{}
		c.schedules[scheduleID] = st
	}
	c.mu.Unlock()

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.hydrated {
		return st, nil
	}
	capacity, err := c.store.ScheduleCapacity(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	pool := NewSeatPool(scheduleID, capacity)
	reservations, err := c.store.ConfirmedReservations(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}
	for _, r := range reservations {
		if err := pool.Restore(r); err != nil {
			return nil, fmt.Errorf("restore seat %d: %w", r.SeatNumber, err)
		}
	}
	waitlist := NewWaitlist(scheduleID)
	entries, err := c.store.WaitlistEntries(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("load waitlist: %w", err)
	}
	for _, e := range entries {
		waitlist.Restore(e)
	}
	st.pool = pool
	st.waitlist = waitlist
	st.hydrated = true
	return st, nil
}

// Reserve atomically claims count seats on the schedule for the
// passenger and persists the resulting reservations. On
// ErrInsufficientCapacity nothing is claimed; on a persistence failure
// every provisionally claimed seat is released before returning, so a
// failed reserve never leaves the pool and the store disagreeing.
// Insufficient capacity is reported to the caller and never retried
// here; waitlist decisions belong to the booking session.
func (c *Coordinator) Reserve(ctx context.Context, scheduleID, passengerID uint64, count int) ([]Reservation, error) {
	st, err := c.state(ctx, scheduleID)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	claimed, err := st.pool.TryClaim(passengerID, count)
	if err != nil {
		st.mu.Unlock()
		return nil, err
	}
	for _, r := range claimed {
		r.BookingRef = uuid.NewString()
	}
	if err := c.store.CreateReservations(ctx, claimed); err != nil {
		// Compensating release: undo every provisional claim.
		for _, r := range claimed {
			if _, relErr := st.pool.Release(r.SeatNumber); relErr != nil {
				log.Printf("engine: release of provisional seat %d failed: %v", r.SeatNumber, relErr)
			}
		}
		st.mu.Unlock()
		return nil, fmt.Errorf("persist reservations: %w", err)
	}
	out := make([]Reservation, len(claimed))
	seats := make([]uint32, len(claimed))
	for i, r := range claimed {
		out[i] = *r
		seats[i] = r.SeatNumber
	}
	st.mu.Unlock()

	c.emit(ctx, Event{
		Kind:        EventReservationClaimed,
		ScheduleID:  scheduleID,
		PassengerID: passengerID,
		SeatNumbers: seats,
		BookingRef:  out[0].BookingRef,
		OccurredAt:  time.Now().UTC(),
	})
	return out, nil
}

// Cancel reverses a committed reservation: the seat returns to the pool,
// the store records the cancellation, and the freed seat is offered to
// the head of the schedule's waitlist. Exactly one promotion attempt
// runs per release, under the same schedule lock as the release itself.
func (c *Coordinator) Cancel(ctx context.Context, reservationID uint64) error {
	res, err := c.store.ReservationByID(ctx, reservationID)
	if err != nil {
		return err
	}
	st, err := c.state(ctx, res.ScheduleID)
	if err != nil {
		return err
	}

	st.mu.Lock()
	held, err := st.pool.Release(res.SeatNumber)
	if err != nil {
		st.mu.Unlock()
		return err
	}
	if held.ID != reservationID {
		// The seat changed hands since the lookup (cancel racing a
		// cancel-then-rebook). Put it back and report the stale ID.
		if restErr := st.pool.Restore(*held); restErr != nil {
			log.Printf("engine: restore of seat %d failed: %v", held.SeatNumber, restErr)
		}
		st.mu.Unlock()
		return ErrReservationNotFound
	}
	if err := c.store.CancelReservation(ctx, reservationID); err != nil {
		if restErr := st.pool.Restore(*held); restErr != nil {
			log.Printf("engine: restore of seat %d failed: %v", held.SeatNumber, restErr)
		}
		st.mu.Unlock()
		return fmt.Errorf("persist cancellation: %w", err)
	}
	promoted, promoErr := c.promoter.Promote(ctx, st)
	st.mu.Unlock()

	if promoErr != nil {
		// The cancellation itself committed; the head entry stays
		// waiting and will be retried on the next release.
		log.Printf("engine: promotion after cancel of %d failed: %v", reservationID, promoErr)
	}
	c.emit(ctx, Event{
		Kind:        EventReservationReleased,
		ScheduleID:  held.ScheduleID,
		PassengerID: held.PassengerID,
		SeatNumbers: []uint32{held.SeatNumber},
		BookingRef:  held.BookingRef,
		OccurredAt:  time.Now().UTC(),
	})
	if promoted != nil {
		c.emit(ctx, Event{
			Kind:        EventWaitlistPromoted,
			ScheduleID:  promoted.ScheduleID,
			PassengerID: promoted.PassengerID,
			SeatNumbers: []uint32{promoted.SeatNumber},
			BookingRef:  promoted.BookingRef,
			OccurredAt:  time.Now().UTC(),
		})
	}
	return nil
}

// Availability returns an advisory snapshot of the schedule's seat map.
func (c *Coordinator) Availability(ctx context.Context, scheduleID uint64) (Availability, error) {
	st, err := c.state(ctx, scheduleID)
	if err != nil {
		return Availability{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.pool.Snapshot(), nil
}

// Enroll appends the passenger to the schedule's waitlist and persists
// the entry. Positions are assigned under the schedule lock so they are
// strictly increasing in arrival order.
func (c *Coordinator) Enroll(ctx context.Context, scheduleID, passengerID uint64) (WaitlistEntry, error) {
	st, err := c.state(ctx, scheduleID)
	if err != nil {
		return WaitlistEntry{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	e, err := st.waitlist.Enroll(passengerID)
	if err != nil {
		return WaitlistEntry{}, err
	}
	if err := c.store.CreateWaitlistEntry(ctx, e); err != nil {
		st.waitlist.rollbackEnroll(e)
		return WaitlistEntry{}, fmt.Errorf("persist waitlist entry: %w", err)
	}
	return *e, nil
}

// Withdraw cancels the passenger's waiting entry on the schedule.
func (c *Coordinator) Withdraw(ctx context.Context, scheduleID, passengerID uint64) error {
	st, err := c.state(ctx, scheduleID)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	e, _, err := st.waitlist.Waiting(passengerID)
	if err != nil {
		return err
	}
	if err := st.waitlist.MarkCancelled(e.ID); err != nil {
		return err
	}
	if err := c.store.UpdateWaitlistEntryStatus(ctx, e.ID, StatusCancelled); err != nil {
		e.Status = StatusWaiting
		return fmt.Errorf("persist withdrawal: %w", err)
	}
	return nil
}

// WaitlistStatus reports a passenger's current place in line.
type WaitlistStatus struct {
	Entry WaitlistEntry `json:"entry"`
	Ahead int           `json:"ahead"` // waiting entries in front
}

// WaitlistPosition returns the passenger's waiting entry and how many
// waiting entries precede it, or ErrNotWaiting.
func (c *Coordinator) WaitlistPosition(ctx context.Context, scheduleID, passengerID uint64) (WaitlistStatus, error) {
	st, err := c.state(ctx, scheduleID)
	if err != nil {
		return WaitlistStatus{}, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ahead, err := st.waitlist.Waiting(passengerID)
	if err != nil {
		return WaitlistStatus{}, err
	}
	return WaitlistStatus{Entry: *e, Ahead: ahead}, nil
}

func (c *Coordinator) emit(ctx context.Context, ev Event) {
	if c.events == nil {
		return
	}
	go c.events.Publish(context.WithoutCancel(ctx), ev)
}
