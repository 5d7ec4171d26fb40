package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-seat-reservation/internal/engine"
)

// WaitlistHandler exposes waitlist enrollment, withdrawal and the
// position feed used by "my bookings" screens.
type WaitlistHandler struct {
	Bookings *engine.BookingService
}

// NewWaitlistHandler constructs a WaitlistHandler.
func NewWaitlistHandler(bookings *engine.BookingService) *WaitlistHandler {
	if bookings == nil {
		panic("nil booking service passed to NewWaitlistHandler")
	}
	return &WaitlistHandler{Bookings: bookings}
}

// Enroll handles POST /v1/schedules/:id/waitlist.  Clients call it
// after an insufficient-capacity booking answer, once the passenger has
// agreed to wait.  Returns 201 with the assigned position, or 409 when
// the passenger already has a waiting entry.
func (h *WaitlistHandler) Enroll(c echo.Context) error {
	passengerID, err := getPassengerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	scheduleID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	entry, err := h.Bookings.JoinWaitlist(c.Request().Context(), scheduleID, passengerID)
	switch {
	case err == nil:
		return c.JSON(http.StatusCreated, echo.Map{
			"entry_id": entry.ID,
			"position": entry.Position,
		})
	case errors.Is(err, engine.ErrScheduleNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
	case errors.Is(err, engine.ErrAlreadyWaiting):
		return c.JSON(http.StatusConflict, echo.Map{"error": "already on the waitlist"})
	default:
		log.Printf("waitlist: enroll failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "enrollment failed"})
	}
}

// Withdraw handles DELETE /v1/schedules/:id/waitlist.  It cancels the
// passenger's waiting entry.  Returns 204, or 404 when the passenger
// has no waiting entry on the schedule.
func (h *WaitlistHandler) Withdraw(c echo.Context) error {
	passengerID, err := getPassengerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	scheduleID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	err = h.Bookings.LeaveWaitlist(c.Request().Context(), scheduleID, passengerID)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, engine.ErrScheduleNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
	case errors.Is(err, engine.ErrNotWaiting):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not on the waitlist"})
	default:
		log.Printf("waitlist: withdraw failed: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "withdrawal failed"})
	}
}

// Position handles GET /v1/schedules/:id/waitlist/position.  It reports
// the passenger's enrollment position and how many waiting passengers
// are ahead.
func (h *WaitlistHandler) Position(c echo.Context) error {
	passengerID, err := getPassengerID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	scheduleID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	status, err := h.Bookings.WaitlistPosition(c.Request().Context(), scheduleID, passengerID)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{
			"position": status.Entry.Position,
			"ahead":    status.Ahead,
			"status":   status.Entry.Status,
		})
	case errors.Is(err, engine.ErrScheduleNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
	case errors.Is(err, engine.ErrNotWaiting):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not on the waitlist"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load waitlist position"})
	}
}
