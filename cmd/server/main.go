package main // Entry point package

import (
	"context" // context for the startup schema probe
	"log"     // Logging library
	"time"    // timeout for startup operations

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/event-booking/internal/config"     // Internal config loader
	"github.com/iliyamo/event-booking/internal/database"   // MySQL connection
	"github.com/iliyamo/event-booking/internal/handler"    // HTTP handlers
	"github.com/iliyamo/event-booking/internal/queue"      // RabbitMQ consumer
	"github.com/iliyamo/event-booking/internal/repository" // DB repositories
	"github.com/iliyamo/event-booking/internal/router"     // Route registration
	"github.com/iliyamo/event-booking/internal/service"    // Reservation coordinator
)

func main() {
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// The schema capability probe runs once here, not per request.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events := repository.NewEventRepo(db)
	bookings, err := repository.NewBookingRepo(ctx, db)
	if err != nil {
		log.Fatalf("bookings schema probe: %v", err)
	}
	if !bookings.SupportsSeatList() {
		log.Printf("bookings.seats column missing: per-seat conflict checks disabled")
	}
	users := repository.NewUserRepo(db)

	store := repository.NewStore(db, events, bookings, users)
	reservations := service.NewReservationService(store)

	rdb := config.NewRedisClient() // nil disables caching and rate limiting
	if rdb == nil {
		log.Printf("redis unavailable: response cache and rate limiting disabled")
	}

	// Background consumer for booking confirmations.  It reconnects on
	// its own; a missing broker only disables notifications.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("rabbitmq consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e, router.Deps{
		Cfg:      cfg,
		Auth:     handler.NewAuthHandler(cfg, users),
		Events:   handler.NewEventHandler(events),
		Bookings: handler.NewBookingHandler(reservations, bookings, events, cfg.Env),
		Users:    users,
		EventsDB: events,
		Redis:    rdb,
	})

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
