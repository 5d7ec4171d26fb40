package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store used to exercise the engine without a
// database. Failure flags let tests force persistence errors on
// specific operations.
type memStore struct {
	mu           sync.Mutex
	capacities   map[uint64]uint32
	reservations map[uint64]Reservation
	cancelled    map[uint64]bool
	entries      map[uint64]WaitlistEntry
	nextResID    uint64
	nextEntryID  uint64

	failCreateReservations  bool
	failCreateWaitlistEntry bool
	failCancelReservation   bool
	failUpdateEntryStatus   bool
}

var errStoreDown = errors.New("store down")

func newMemStore(capacities map[uint64]uint32) *memStore {
	return &memStore{
		capacities:   capacities,
		reservations: make(map[uint64]Reservation),
		cancelled:    make(map[uint64]bool),
		entries:      make(map[uint64]WaitlistEntry),
	}
}

func (s *memStore) ScheduleCapacity(_ context.Context, scheduleID uint64) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.capacities[scheduleID]
	if !ok {
		return 0, ErrScheduleNotFound
	}
	return c, nil
}

func (s *memStore) ConfirmedReservations(_ context.Context, scheduleID uint64) ([]Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Reservation
	for id, r := range s.reservations {
		if r.ScheduleID == scheduleID && !s.cancelled[id] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) CreateReservations(_ context.Context, res []*Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreateReservations {
		return errStoreDown
	}
	for _, r := range res {
		s.nextResID++
		r.ID = s.nextResID
		s.reservations[r.ID] = *r
	}
	return nil
}

func (s *memStore) ReservationByID(_ context.Context, reservationID uint64) (*Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[reservationID]
	if !ok || s.cancelled[reservationID] {
		return nil, ErrReservationNotFound
	}
	return &r, nil
}

func (s *memStore) CancelReservation(_ context.Context, reservationID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCancelReservation {
		return errStoreDown
	}
	if _, ok := s.reservations[reservationID]; !ok || s.cancelled[reservationID] {
		return ErrReservationNotFound
	}
	s.cancelled[reservationID] = true
	return nil
}

func (s *memStore) WaitlistEntries(_ context.Context, scheduleID uint64) ([]WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []WaitlistEntry
	for _, e := range s.entries {
		if e.ScheduleID == scheduleID {
			out = append(out, e)
		}
	}
	// Ascending position order, as the SQL implementation guarantees.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Position < out[j-1].Position; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (s *memStore) CreateWaitlistEntry(_ context.Context, e *WaitlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreateWaitlistEntry {
		return errStoreDown
	}
	s.nextEntryID++
	e.ID = s.nextEntryID
	s.entries[e.ID] = *e
	return nil
}

func (s *memStore) UpdateWaitlistEntryStatus(_ context.Context, entryID uint64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdateEntryStatus {
		return errStoreDown
	}
	e, ok := s.entries[entryID]
	if !ok {
		return ErrNotWaiting
	}
	e.Status = status
	s.entries[entryID] = e
	return nil
}

// chanSink delivers published events to a channel so tests can wait on
// the async emit goroutines.
type chanSink struct{ ch chan Event }

func newChanSink() *chanSink { return &chanSink{ch: make(chan Event, 16)} }

func (s *chanSink) Publish(_ context.Context, ev Event) { s.ch <- ev }

func (s *chanSink) next(t *testing.T) Event {
	t.Helper()
	select {
	case ev := <-s.ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestCoordinator_Reserve_PersistsAndAssignsRefs(t *testing.T) {
	store := newMemStore(map[uint64]uint32{1: 5})
	c := NewCoordinator(store, nil)

	res, err := c.Reserve(context.Background(), 1, 42, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)

	for _, r := range res {
		assert.NotZero(t, r.ID)
		assert.NotEmpty(t, r.BookingRef)
		assert.Equal(t, uint64(42), r.PassengerID)
	}
	assert.Equal(t, uint32(1), res[0].SeatNumber)
	assert.Equal(t, uint32(2), res[1].SeatNumber)

	stored, err := store.ConfirmedReservations(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestCoordinator_Reserve_UnknownSchedule(t *testing.T) {
	c := NewCoordinator(newMemStore(map[uint64]uint32{}), nil)

	_, err := c.Reserve(context.Background(), 9, 42, 1)
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestCoordinator_Reserve_InsufficientCapacityLeavesStateUntouched(t *testing.T) {
	store := newMemStore(map[uint64]uint32{1: 2})
	c := NewCoordinator(store, nil)

	_, err := c.Reserve(context.Background(), 1, 1, 3)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)

	av, err := c.Availability(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2}, av.Free)
	assert.Empty(t, av.Occupied)

	// The passenger may then enroll and, with an empty waitlist, takes
	// position 1.
	entry, err := c.Enroll(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), entry.Position)
}

func TestCoordinator_Reserve_UnwindsOnStoreFailure(t *testing.T) {
	store := newMemStore(map[uint64]uint32{1: 3})
	c := NewCoordinator(store, nil)

	store.failCreateReservations = true
	_, err := c.Reserve(context.Background(), 1, 42, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)

	// Every provisionally claimed seat must be free again.
	store.failCreateReservations = false
	av, err := c.Availability(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2, 3}, av.Free)

	res, err := c.Reserve(context.Background(), 1, 43, 3)
	require.NoError(t, err)
	assert.Len(t, res, 3)
}

func TestCoordinator_ConcurrentReserve_LastSeatHasOneWinner(t *testing.T) {
	store := newMemStore(map[uint64]uint32{1: 1})
	c := NewCoordinator(store, nil)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Reserve(context.Background(), 1, uint64(i+1), 1)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrInsufficientCapacity)
		}
	}
	assert.Equal(t, 1, winners)

	stored, err := store.ConfirmedReservations(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestCoordinator_ConcurrentReserve_NoSeatAssignedTwice(t *testing.T) {
	// Twice as many claimants as seats; every seat must be handed out
	// exactly once.
	const capacity = 16
	store := newMemStore(map[uint64]uint32{1: capacity})
	c := NewCoordinator(store, nil)

	var wg sync.WaitGroup
	seats := make(chan uint32, capacity)
	for i := 0; i < 2*capacity; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.Reserve(context.Background(), 1, uint64(i+1), 1)
			if err == nil {
				seats <- res[0].SeatNumber
			}
		}(i)
	}
	wg.Wait()
	close(seats)

	seen := make(map[uint32]bool)
	for s := range seats {
		assert.False(t, seen[s], "seat %d assigned twice", s)
		seen[s] = true
	}
	assert.Len(t, seen, capacity)
}

func TestCoordinator_CrossScheduleIndependence(t *testing.T) {
	store := newMemStore(map[uint64]uint32{1: 1, 2: 1})
	c := NewCoordinator(store, nil)

	_, err := c.Reserve(context.Background(), 1, 10, 1)
	require.NoError(t, err)

	// Exhausting schedule 1 must not affect schedule 2.
	res, err := c.Reserve(context.Background(), 2, 10, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res[0].ScheduleID)
}

func TestCoordinator_Cancel_ReleasesSeatWithEmptyWaitlist(t *testing.T) {
	store := newMemStore(map[uint64]uint32{1: 2})
	c := NewCoordinator(store, nil)

	res, err := c.Reserve(context.Background(), 1, 10, 1)
	require.NoError(t, err)

	require.NoError(t, c.Cancel(context.Background(), res[0].ID))

	av, err := c.Availability(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 2}, av.Free)

	// A second cancel of the same reservation must fail.
	assert.ErrorIs(t, c.Cancel(context.Background(), res[0].ID), ErrReservationNotFound)
}

func TestCoordinator_Cancel_UnknownReservation(t *testing.T) {
	c := NewCoordinator(newMemStore(map[uint64]uint32{1: 1}), nil)
	assert.ErrorIs(t, c.Cancel(context.Background(), 99), ErrReservationNotFound)
}

func TestCoordinator_Cancel_PromotesWaitlistHead(t *testing.T) {
	store := newMemStore(map[uint64]uint32{1: 1})
	c := NewCoordinator(store, nil)

	res, err := c.Reserve(context.Background(), 1, 10, 1)
	require.NoError(t, err)

	entry, err := c.Enroll(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), entry.Position)

	require.NoError(t, c.Cancel(context.Background(), res[0].ID))

	// The freed seat belongs to the promoted passenger, not the pool.
	av, err := c.Availability(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, av.Free)
	require.Len(t, av.Occupied, 1)
	assert.Equal(t, uint64(20), av.Occupied[0].PassengerID)

	// Promotion is terminal for the waitlist entry.
	_, err = c.WaitlistPosition(context.Background(), 1, 20)
	assert.ErrorIs(t, err, ErrNotWaiting)
	store.mu.Lock()
	assert.Equal(t, StatusPromoted, store.entries[entry.ID].Status)
	store.mu.Unlock()
}

func TestCoordinator_Cancel_PromotedPassengerTakesFreedSeat(t *testing.T) {
	store := newMemStore(map[uint64]uint32{1: 2})
	c := NewCoordinator(store, nil)

	first, err := c.Reserve(context.Background(), 1, 10, 1) // seat 1
	require.NoError(t, err)
	_, err = c.Reserve(context.Background(), 1, 11, 1) // seat 2
	require.NoError(t, err)

	_, err = c.Enroll(context.Background(), 1, 20)
	require.NoError(t, err)

	require.NoError(t, c.Cancel(context.Background(), first[0].ID))

	// Seat 1 now belongs to the promoted passenger; seat 2 is unchanged.
	av, err := c.Availability(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, av.Free)
	require.Len(t, av.Occupied, 2)
	assert.Equal(t, uint32(1), av.Occupied[0].SeatNumber)
	assert.Equal(t, uint64(20), av.Occupied[0].PassengerID)
	assert.Equal(t, uint32(2), av.Occupied[1].SeatNumber)
	assert.Equal(t, uint64(11), av.Occupied[1].PassengerID)
}

func TestCoordinator_Cancel_PromotesInArrivalOrder(t *testing.T) {
	store := newMemStore(map[uint64]uint32{1: 2})
	c := NewCoordinator(store, nil)

	first, err := c.Reserve(context.Background(), 1, 10, 1)
	require.NoError(t, err)
	second, err := c.Reserve(context.Background(), 1, 11, 1)
	require.NoError(t, err)

	_, err = c.Enroll(context.Background(), 1, 20)
	require.NoError(t, err)
	_, err = c.Enroll(context.Background(), 1, 21)
	require.NoError(t, err)

	require.NoError(t, c.Cancel(context.Background(), first[0].ID))
	av, _ := c.Availability(context.Background(), 1)
	passengers := []uint64{av.Occupied[0].PassengerID, av.Occupied[1].PassengerID}
	assert.Contains(t, passengers, uint64(20))
	assert.NotContains(t, passengers, uint64(21))

	require.NoError(t, c.Cancel(context.Background(), second[0].ID))
	av, _ = c.Availability(context.Background(), 1)
	passengers = []uint64{av.Occupied[0].PassengerID, av.Occupied[1].PassengerID}
	assert.Contains(t, passengers, uint64(21))
}

func TestCoordinator_Cancel_SkipsWithdrawnHead(t *testing.T) {
	store := newMemStore(map[uint64]uint32{1: 1})
	c := NewCoordinator(store, nil)

	res, err := c.Reserve(context.Background(), 1, 10, 1)
	require.NoError(t, err)

	_, err = c.Enroll(context.Background(), 1, 20)
	require.NoError(t, err)
	_, err = c.Enroll(context.Background(), 1, 21)
	require.NoError(t, err)
	require.NoError(t, c.Withdraw(context.Background(), 1, 20))

	require.NoError(t, c.Cancel(context.Background(), res[0].ID))

	av, _ := c.Availability(context.Background(), 1)
	require.Len(t, av.Occupied, 1)
	assert.Equal(t, uint64(21), av.Occupied[0].PassengerID)
}

func TestCoordinator_Cancel_RestoresSeatOnStoreFailure(t *testing.T) {
	store := newMemStore(map[uint64]uint32{1: 1})
	c := NewCoordinator(store, nil)

	res, err := c.Reserve(context.Background(), 1, 10, 1)
	require.NoError(t, err)

	store.failCancelReservation = true
	err = c.Cancel(context.Background(), res[0].ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, errStoreDown)

	// The seat must still belong to its original holder.
	av, _ := c.Availability(context.Background(), 1)
	require.Len(t, av.Occupied, 1)
	assert.Equal(t, uint64(10), av.Occupied[0].PassengerID)

	store.failCancelReservation = false
	require.NoError(t, c.Cancel(context.Background(), res[0].ID))
}

func TestCoordinator_Enroll_RollsBackOnStoreFailure(t *testing.T) {
	store := newMemStore(map[uint64]uint32{1: 1})
	c := NewCoordinator(store, nil)

	store.failCreateWaitlistEntry = true
	_, err := c.Enroll(context.Background(), 1, 20)
	require.Error(t, err)

	// The uncommitted position is handed out again.
	store.failCreateWaitlistEntry = false
	entry, err := c.Enroll(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), entry.Position)
}

func TestCoordinator_Enroll_RejectsDuplicate(t *testing.T) {
	c := NewCoordinator(newMemStore(map[uint64]uint32{1: 1}), nil)

	_, err := c.Enroll(context.Background(), 1, 20)
	require.NoError(t, err)
	_, err = c.Enroll(context.Background(), 1, 20)
	assert.ErrorIs(t, err, ErrAlreadyWaiting)
}

func TestCoordinator_WaitlistPosition(t *testing.T) {
	c := NewCoordinator(newMemStore(map[uint64]uint32{1: 1}), nil)

	_, err := c.Enroll(context.Background(), 1, 20)
	require.NoError(t, err)
	_, err = c.Enroll(context.Background(), 1, 21)
	require.NoError(t, err)

	status, err := c.WaitlistPosition(context.Background(), 1, 21)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), status.Entry.Position)
	assert.Equal(t, 1, status.Ahead)

	require.NoError(t, c.Withdraw(context.Background(), 1, 20))
	status, err = c.WaitlistPosition(context.Background(), 1, 21)
	require.NoError(t, err)
	assert.Equal(t, 0, status.Ahead)
}

func TestCoordinator_Withdraw_NotWaiting(t *testing.T) {
	c := NewCoordinator(newMemStore(map[uint64]uint32{1: 1}), nil)
	assert.ErrorIs(t, c.Withdraw(context.Background(), 1, 20), ErrNotWaiting)
}

func TestCoordinator_HydratesFromStore(t *testing.T) {
	store := newMemStore(map[uint64]uint32{1: 3})
	seed := NewCoordinator(store, nil)

	res, err := seed.Reserve(context.Background(), 1, 10, 2)
	require.NoError(t, err)
	_, err = seed.Enroll(context.Background(), 1, 20)
	require.NoError(t, err)

	// A fresh coordinator over the same store must rebuild the exact
	// seat map and waitlist.
	c := NewCoordinator(store, nil)
	av, err := c.Availability(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{3}, av.Free)
	assert.Len(t, av.Occupied, 2)

	status, err := c.WaitlistPosition(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), status.Entry.Position)

	// Cancelling through the fresh instance promotes the hydrated head.
	require.NoError(t, c.Cancel(context.Background(), res[0].ID))
	av, _ = c.Availability(context.Background(), 1)
	require.Len(t, av.Occupied, 2)
}

func TestCoordinator_EmitsLifecycleEvents(t *testing.T) {
	store := newMemStore(map[uint64]uint32{1: 1})
	sink := newChanSink()
	c := NewCoordinator(store, sink)

	res, err := c.Reserve(context.Background(), 1, 10, 1)
	require.NoError(t, err)

	ev := sink.next(t)
	assert.Equal(t, EventReservationClaimed, ev.Kind)
	assert.Equal(t, uint64(10), ev.PassengerID)
	assert.Equal(t, []uint32{1}, ev.SeatNumbers)

	_, err = c.Enroll(context.Background(), 1, 20)
	require.NoError(t, err)
	require.NoError(t, c.Cancel(context.Background(), res[0].ID))

	kinds := map[string]Event{}
	for i := 0; i < 2; i++ {
		ev := sink.next(t)
		kinds[ev.Kind] = ev
	}
	released, ok := kinds[EventReservationReleased]
	require.True(t, ok)
	assert.Equal(t, uint64(10), released.PassengerID)
	promoted, ok := kinds[EventWaitlistPromoted]
	require.True(t, ok)
	assert.Equal(t, uint64(20), promoted.PassengerID)
	assert.NotEmpty(t, promoted.BookingRef)
}
