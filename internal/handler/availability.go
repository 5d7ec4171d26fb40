package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-seat-reservation/internal/engine"
)

// AvailabilityHandler serves the read-only seat-map feed.  The snapshot
// is advisory and may be stale by the time the client acts on it; only
// a claim through the booking endpoint is authoritative.  The route is
// a natural fit for the Redis response cache middleware.
type AvailabilityHandler struct {
	Coord *engine.Coordinator
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(coord *engine.Coordinator) *AvailabilityHandler {
	if coord == nil {
		panic("nil coordinator passed to NewAvailabilityHandler")
	}
	return &AvailabilityHandler{Coord: coord}
}

// GetScheduleSeats handles GET /v1/schedules/:id/seats.  It returns the
// schedule's capacity, free seat numbers and occupied seats.
func (h *AvailabilityHandler) GetScheduleSeats(c echo.Context) error {
	scheduleID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	av, err := h.Coord.Availability(c.Request().Context(), scheduleID)
	if err != nil {
		if errors.Is(err, engine.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load seat map"})
	}
	return c.JSON(http.StatusOK, av)
}
