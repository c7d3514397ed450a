// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// reservation service and HTTP handlers to distinguish between different
// failure scenarios without inspecting driver error strings.
package repository

import "errors"

// ErrEventNotFound is returned when an event lookup (plain or locking)
// matches no row. Handlers should translate this into an HTTP 404.
var ErrEventNotFound = errors.New("event not found")

// ErrBookingNotFound is returned when a booking lookup matches no row.
// Handlers should translate this into an HTTP 404.
var ErrBookingNotFound = errors.New("booking not found")

// ErrEmailExists is returned when user creation violates the unique
// constraint on users.email. Handlers should translate this into an
// HTTP 409.
var ErrEmailExists = errors.New("email already exists")
