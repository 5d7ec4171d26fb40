package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/train-seat-reservation/internal/config"
	"github.com/iliyamo/train-seat-reservation/internal/handler"
	"github.com/iliyamo/train-seat-reservation/internal/middleware"
)

// Handlers bundles every handler the API mounts so RegisterRoutes keeps
// a single signature as endpoints are added.
type Handlers struct {
	Schedule     *handler.ScheduleHandler
	Availability *handler.AvailabilityHandler
	Booking      *handler.BookingHandler
	Waitlist     *handler.WaitlistHandler
}

// RegisterRoutes registers all routes on the provided Echo instance.
//
// Browse endpoints (schedule listing and the seat map) are public: the
// seat map only serves an advisory snapshot, so there is no reason to
// demand identity for it. The seat-map route additionally sits behind
// the Redis response cache. Everything that mutates booking state runs
// behind the passenger identity middleware and the token-bucket rate
// limiter, keyed by IP, passenger and route so one aggressive client
// cannot starve a schedule for everyone else.
func RegisterRoutes(e *echo.Echo, h Handlers, rdb *redis.Client) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()

	// Public browse surface.
	e.GET("/v1/schedules", h.Schedule.List)
	e.GET("/v1/schedules/:id", h.Schedule.Get)
	e.GET("/v1/schedules/:id/seats", h.Availability.GetScheduleSeats, middleware.NewRedisCache(cacheCfg, rdb))

	// Schedule administration. Operations tooling creates runs; there is
	// no passenger identity on this path.
	e.POST("/v1/schedules", h.Schedule.Create)

	// Booking surface: identity first, then the rate limiter so buckets
	// can key on the resolved passenger.
	b := e.Group("/v1")
	b.Use(middleware.PassengerIdentity())
	b.Use(middleware.NewTokenBucket(rateCfg, rdb))

	b.POST("/schedules/:id/bookings", h.Booking.InitiateBooking)
	b.DELETE("/reservations/:id", h.Booking.CancelReservation)
	b.GET("/my-reservations", h.Booking.ListReservations)

	b.POST("/schedules/:id/waitlist", h.Waitlist.Enroll)
	b.DELETE("/schedules/:id/waitlist", h.Waitlist.Withdraw)
	b.GET("/schedules/:id/waitlist/position", h.Waitlist.Position)
}
