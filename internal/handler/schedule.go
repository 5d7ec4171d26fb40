package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-seat-reservation/internal/model"
	"github.com/iliyamo/train-seat-reservation/internal/repository"
)

// ScheduleHandler exposes the schedule plumbing the engine books
// against: creating a run (which fixes its seat capacity forever),
// fetching one, and listing with an optional destination filter.
type ScheduleHandler struct {
	Schedules *repository.ScheduleRepo
}

// NewScheduleHandler constructs a ScheduleHandler.
func NewScheduleHandler(schedules *repository.ScheduleRepo) *ScheduleHandler {
	if schedules == nil {
		panic("nil schedule repo passed to NewScheduleHandler")
	}
	return &ScheduleHandler{Schedules: schedules}
}

// scheduleResponse is the JSON shape of a schedule.
type scheduleResponse struct {
	ID           uint64    `json:"id"`
	TrainID      string    `json:"train_id"`
	Origin       string    `json:"origin_station"`
	Destination  string    `json:"destination_station"`
	DepartsAt    time.Time `json:"departs_at"`
	ArrivesAt    time.Time `json:"arrives_at"`
	SeatCapacity uint32    `json:"seat_capacity"`
}

func toScheduleResponse(s model.Schedule) scheduleResponse {
	return scheduleResponse{
		ID:           s.ID,
		TrainID:      s.TrainID,
		Origin:       s.Origin,
		Destination:  s.Destination,
		DepartsAt:    s.DepartsAt,
		ArrivesAt:    s.ArrivesAt,
		SeatCapacity: s.SeatCapacity,
	}
}

// Create handles POST /v1/schedules.  Capacity must be positive and is
// immutable once set; arrival must follow departure.
func (h *ScheduleHandler) Create(c echo.Context) error {
	var body struct {
		TrainID      string    `json:"train_id"`
		Origin       string    `json:"origin_station"`
		Destination  string    `json:"destination_station"`
		DepartsAt    time.Time `json:"departs_at"`
		ArrivesAt    time.Time `json:"arrives_at"`
		SeatCapacity uint32    `json:"seat_capacity"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.TrainID == "" || body.Origin == "" || body.Destination == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "train_id, origin_station and destination_station are required"})
	}
	if body.SeatCapacity == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_capacity must be at least 1"})
	}
	if !body.ArrivesAt.After(body.DepartsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrives_at must be after departs_at"})
	}
	s := model.Schedule{
		TrainID:      body.TrainID,
		Origin:       body.Origin,
		Destination:  body.Destination,
		DepartsAt:    body.DepartsAt.UTC(),
		ArrivesAt:    body.ArrivesAt.UTC(),
		SeatCapacity: body.SeatCapacity,
	}
	if err := h.Schedules.Create(c.Request().Context(), &s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create schedule"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"item": toScheduleResponse(s)})
}

// Get handles GET /v1/schedules/:id.
func (h *ScheduleHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	s, err := h.Schedules.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrScheduleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "schedule not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"item": toScheduleResponse(*s)})
}

// List handles GET /v1/schedules.  The optional ?destination= query
// narrows the result to runs arriving at a matching station, which is
// all the search the booking UI needs from this service.
func (h *ScheduleHandler) List(c echo.Context) error {
	schedules, err := h.Schedules.List(c.Request().Context(), c.QueryParam("destination"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	items := make([]scheduleResponse, 0, len(schedules))
	for _, s := range schedules {
		items = append(items, toScheduleResponse(s))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
