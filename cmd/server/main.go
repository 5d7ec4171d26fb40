package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-seat-reservation/internal/config"
	"github.com/iliyamo/train-seat-reservation/internal/database"
	"github.com/iliyamo/train-seat-reservation/internal/engine"
	"github.com/iliyamo/train-seat-reservation/internal/handler"
	"github.com/iliyamo/train-seat-reservation/internal/queue"
	"github.com/iliyamo/train-seat-reservation/internal/repository"
	"github.com/iliyamo/train-seat-reservation/internal/router"
	queue_publisher "github.com/iliyamo/train-seat-reservation/internal/service"
)

func main() {
	// Load .env in development; real deployments set the environment
	// directly, so a missing file is not an error.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the rate limiter and the seat-map response cache.
	// Both fail open, so a nil client only disables them.
	rdb := config.NewRedisClient()

	schedules := repository.NewScheduleRepo(db)
	reservations := repository.NewReservationRepo(db)
	waitlist := repository.NewWaitlistRepo(db)

	store := repository.NewEngineStore(db, schedules, reservations, waitlist)
	coord := engine.NewCoordinator(store, queue_publisher.BrokerSink{})
	bookings := engine.NewBookingService(coord)

	h := router.Handlers{
		Schedule:     handler.NewScheduleHandler(schedules),
		Availability: handler.NewAvailabilityHandler(coord),
		Booking:      handler.NewBookingHandler(bookings, reservations),
		Waitlist:     handler.NewWaitlistHandler(bookings),
	}

	e := echo.New()
	router.RegisterRoutes(e, h, rdb)

	// Background consumer that mirrors reservation events into
	// logs/reservations.log. Runs its own reconnect loop.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation-consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
