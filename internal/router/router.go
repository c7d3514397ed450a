// Package router wires handlers and middleware onto the Echo instance.
// Route layout:
//
//	GET  /healthz                     liveness probe
//	POST /v1/auth/register            create account
//	POST /v1/auth/login               obtain access token
//	GET  /v1/events                   list events (cached)
//	GET  /v1/events/:id               event details (cached)
//	GET  /v1/me                       authenticated profile
//	POST /v1/bookings                 reserve seats (guarded, rate limited)
//	GET  /v1/bookings                 list bookings (filters: userId, eventId)
//	GET  /v1/bookings/:id             booking details
//	PUT  /v1/bookings/:id/status      change booking status
//	GET  /v1/bookings/user/:userId    bookings of one user
//	POST /v1/events                   create event (admin)
//	PUT  /v1/events/:id               update event (admin)
//	DELETE /v1/events/:id             delete event (admin)
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-booking/internal/config"
	"github.com/iliyamo/event-booking/internal/handler"
	"github.com/iliyamo/event-booking/internal/middleware"
	"github.com/iliyamo/event-booking/internal/model"
	"github.com/iliyamo/event-booking/internal/repository"
)

// Deps collects everything route registration needs.  The Redis client
// may be nil, in which case caching and rate limiting are disabled.
type Deps struct {
	Cfg      config.Config
	Auth     *handler.AuthHandler
	Events   *handler.EventHandler
	Bookings *handler.BookingHandler
	Users    *repository.UserRepo
	EventsDB *repository.EventRepo
	Redis    *redis.Client
}

// RegisterRoutes registers every route on the provided Echo instance.
func RegisterRoutes(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	// Unauthenticated routes.
	authGroup := e.Group("/v1/auth")
	authGroup.POST("/register", d.Auth.Register)
	authGroup.POST("/login", d.Auth.Login)

	cache := middleware.NewRedisCache(config.LoadCacheConfig(), d.Redis)
	e.GET("/v1/events", d.Events.List, cache)
	e.GET("/v1/events/:id", d.Events.Get, cache)

	// Everything below requires a valid access token.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(d.Cfg.JWTSecret))

	auth.GET("/me", d.Auth.Me)

	// Booking creation is rate limited and pre-screened by the booking
	// guard; the reservation service repeats the guard's checks inside
	// the transaction.
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), d.Redis)
	guard := middleware.BookingGuard(d.Users, d.EventsDB)
	auth.POST("/bookings", d.Bookings.Create, limiter, guard)

	auth.GET("/bookings", d.Bookings.List)
	auth.GET("/bookings/:id", d.Bookings.Get)
	auth.GET("/bookings/user/:userId", d.Bookings.ListByUser)
	auth.PUT("/bookings/:id/status", d.Bookings.UpdateStatus)

	// Event administration.
	admin := auth.Group("/events", middleware.RequireRole(model.RoleAdmin))
	admin.POST("", d.Events.Create)
	admin.PUT("/:id", d.Events.Update)
	admin.DELETE("/:id", d.Events.Delete)
}
