package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/train-seat-reservation/internal/engine"
)

// fakeStore backs the engine with plain maps so handler tests run
// without MySQL.
type fakeStore struct {
	mu           sync.Mutex
	capacities   map[uint64]uint32
	reservations map[uint64]engine.Reservation
	cancelled    map[uint64]bool
	entries      map[uint64]engine.WaitlistEntry
	nextResID    uint64
	nextEntryID  uint64
}

func newFakeStore(capacities map[uint64]uint32) *fakeStore {
	return &fakeStore{
		capacities:   capacities,
		reservations: make(map[uint64]engine.Reservation),
		cancelled:    make(map[uint64]bool),
		entries:      make(map[uint64]engine.WaitlistEntry),
	}
}

func (s *fakeStore) ScheduleCapacity(_ context.Context, scheduleID uint64) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.capacities[scheduleID]
	if !ok {
		return 0, engine.ErrScheduleNotFound
	}
	return c, nil
}

func (s *fakeStore) ConfirmedReservations(_ context.Context, scheduleID uint64) ([]engine.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []engine.Reservation
	for id, r := range s.reservations {
		if r.ScheduleID == scheduleID && !s.cancelled[id] {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateReservations(_ context.Context, res []*engine.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range res {
		s.nextResID++
		r.ID = s.nextResID
		s.reservations[r.ID] = *r
	}
	return nil
}

func (s *fakeStore) ReservationByID(_ context.Context, reservationID uint64) (*engine.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[reservationID]
	if !ok || s.cancelled[reservationID] {
		return nil, engine.ErrReservationNotFound
	}
	return &r, nil
}

func (s *fakeStore) CancelReservation(_ context.Context, reservationID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled[reservationID] = true
	return nil
}

func (s *fakeStore) WaitlistEntries(_ context.Context, scheduleID uint64) ([]engine.WaitlistEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []engine.WaitlistEntry
	for _, e := range s.entries {
		if e.ScheduleID == scheduleID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateWaitlistEntry(_ context.Context, e *engine.WaitlistEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextEntryID++
	e.ID = s.nextEntryID
	s.entries[e.ID] = *e
	return nil
}

func (s *fakeStore) UpdateWaitlistEntryStatus(_ context.Context, entryID uint64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[entryID]
	e.Status = status
	s.entries[entryID] = e
	return nil
}

func newBookingService(capacities map[uint64]uint32) *engine.BookingService {
	return engine.NewBookingService(engine.NewCoordinator(newFakeStore(capacities), nil))
}

// newBookingContext builds an echo context for a booking request with
// the passenger identity already resolved, as the middleware would.
func newBookingContext(t *testing.T, method, body string, passengerID uint64, paramName, paramValue string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if passengerID != 0 {
		c.Set("passenger_id", passengerID)
	}
	if paramName != "" {
		c.SetParamNames(paramName)
		c.SetParamValues(paramValue)
	}
	return c, rec
}

func TestBookingHandler_InitiateBooking_Created(t *testing.T) {
	h := &BookingHandler{Bookings: newBookingService(map[uint64]uint32{1: 3})}

	c, rec := newBookingContext(t, http.MethodPost, `{"seats":2}`, 42, "id", "1")
	require.NoError(t, h.InitiateBooking(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Reservations []struct {
			SeatNumber uint32 `json:"seat_number"`
			BookingRef string `json:"booking_ref"`
		} `json:"reservations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Reservations, 2)
	assert.Equal(t, uint32(1), resp.Reservations[0].SeatNumber)
	assert.NotEmpty(t, resp.Reservations[0].BookingRef)
}

func TestBookingHandler_InitiateBooking_FullScheduleOffersWaitlist(t *testing.T) {
	svc := newBookingService(map[uint64]uint32{1: 1})
	h := &BookingHandler{Bookings: svc}

	c, rec := newBookingContext(t, http.MethodPost, `{"seats":1}`, 42, "id", "1")
	require.NoError(t, h.InitiateBooking(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	c, rec = newBookingContext(t, http.MethodPost, `{"seats":1}`, 43, "id", "1")
	require.NoError(t, h.InitiateBooking(c))
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["waitlist_available"])
}

func TestBookingHandler_InitiateBooking_BadRequests(t *testing.T) {
	h := &BookingHandler{Bookings: newBookingService(map[uint64]uint32{1: 3})}

	c, rec := newBookingContext(t, http.MethodPost, `{"seats":0}`, 42, "id", "1")
	require.NoError(t, h.InitiateBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newBookingContext(t, http.MethodPost, `{"seats":1}`, 42, "id", "abc")
	require.NoError(t, h.InitiateBooking(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBookingHandler_InitiateBooking_UnknownSchedule(t *testing.T) {
	h := &BookingHandler{Bookings: newBookingService(map[uint64]uint32{})}

	c, rec := newBookingContext(t, http.MethodPost, `{"seats":1}`, 42, "id", "9")
	require.NoError(t, h.InitiateBooking(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBookingHandler_InitiateBooking_NoIdentity(t *testing.T) {
	h := &BookingHandler{Bookings: newBookingService(map[uint64]uint32{1: 3})}

	c, rec := newBookingContext(t, http.MethodPost, `{"seats":1}`, 0, "id", "1")
	require.NoError(t, h.InitiateBooking(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookingHandler_CancelReservation(t *testing.T) {
	svc := newBookingService(map[uint64]uint32{1: 1})
	h := &BookingHandler{Bookings: svc}

	c, rec := newBookingContext(t, http.MethodPost, `{"seats":1}`, 42, "id", "1")
	require.NoError(t, h.InitiateBooking(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Reservations []struct {
			ID uint64 `json:"id"`
		} `json:"reservations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Reservations, 1)
	resID := strconv.FormatUint(resp.Reservations[0].ID, 10)

	c, rec = newBookingContext(t, http.MethodDelete, "", 42, "id", resID)
	require.NoError(t, h.CancelReservation(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// Cancelling again reports the reservation gone.
	c, rec = newBookingContext(t, http.MethodDelete, "", 42, "id", resID)
	require.NoError(t, h.CancelReservation(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
