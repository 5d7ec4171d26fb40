package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-seat-reservation/internal/engine"
	"github.com/iliyamo/train-seat-reservation/internal/repository"
)

// BookingHandler exposes the booking entry points of the seat engine:
// initiating a booking, cancelling a reservation and listing a
// passenger's reservation history.  Passenger identity is assumed to
// have been placed in the context by the identity middleware.
type BookingHandler struct {
	Bookings     *engine.BookingService      // drives claims, cancellations and waitlist offers
	Reservations *repository.ReservationRepo // read-only history listing
}

// NewBookingHandler constructs a BookingHandler.  Both dependencies
// must be non-nil.
func NewBookingHandler(bookings *engine.BookingService, reservations *repository.ReservationRepo) *BookingHandler {
	if bookings == nil || reservations == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: bookings, Reservations: reservations}
}

// reservationResponse is the JSON shape of one committed reservation.
type reservationResponse struct {
	ID          uint64 `json:"id"`
	BookingRef  string `json:"booking_ref"`
	ScheduleID  uint64 `json:"schedule_id"`
	PassengerID uint64 `json:"passenger_id"`
	SeatNumber  uint32 `json:"seat_number"`
}

// InitiateBooking handles POST /v1/schedules/:id/bookings.  The request
// body carries a JSON object with a positive "seats" count.  On success
// it returns 201 with the committed reservations.  When the schedule is
// full it returns 409 with waitlist_available=true so the client can
// offer enrollment — joining the waitlist is always an explicit
// follow-up call, never an automatic side effect of a failed claim.
func (h *BookingHandler) InitiateBooking(c echo.Context) error {
	passengerID, err := getPassengerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	scheduleID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	var body struct {
		Seats int `json:"seats"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	outcome, err := h.Bookings.InitiateBooking(c.Request().Context(), scheduleID, passengerID, body.Seats)
	switch {
	case err == nil:
	case errors.Is(err, engine.ErrInvalidSeatCount):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats must be at least 1"})
	case errors.Is(err, engine.ErrScheduleNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
	case errors.Is(err, engine.ErrInsufficientCapacity):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":              "not enough seats available",
			"waitlist_available": true,
		})
	default:
		log.Printf("booking: initiate failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}
	items := make([]reservationResponse, 0, len(outcome.Reservations))
	for _, r := range outcome.Reservations {
		items = append(items, reservationResponse{
			ID:          r.ID,
			BookingRef:  r.BookingRef,
			ScheduleID:  r.ScheduleID,
			PassengerID: r.PassengerID,
			SeatNumber:  r.SeatNumber,
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{"reservations": items})
}

// CancelReservation handles DELETE /v1/reservations/:id.  Releasing the
// seat automatically triggers a waitlist promotion attempt inside the
// engine.  Returns 204 on success and 404 when the reservation does not
// exist or was already cancelled.
func (h *BookingHandler) CancelReservation(c echo.Context) error {
	if _, err := getPassengerID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	reservationID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	err = h.Bookings.CancelReservation(c.Request().Context(), reservationID)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, engine.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case errors.Is(err, engine.ErrUnknownSeat), errors.Is(err, engine.ErrSeatNotOccupied):
		// Integrity violation between pool and store; logged, never
		// silently ignored, surfaced as a generic transient failure.
		log.Printf("booking: cancel integrity failure for %d: %v", reservationID, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancellation failed"})
	default:
		log.Printf("booking: cancel failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancellation failed"})
	}
}

// ListReservations handles GET /v1/my-reservations.  It returns the
// passenger's reservations, newest first, with schedule details.
func (h *BookingHandler) ListReservations(c echo.Context) error {
	passengerID, err := getPassengerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Reservations.ListByPassenger(c.Request().Context(), passengerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
