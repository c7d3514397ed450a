package model

import "time"

// Event status values as stored in events.status.  An event accepts
// bookings while it is upcoming; once closed no further bookings may
// be created against it regardless of remaining capacity.
const (
	EventStatusUpcoming = "upcoming"
	EventStatusClosed   = "closed"
)

// Event represents a row in the `events` table.  TotalSeats is fixed at
// creation time while AvailableSeats is decremented by the reservation
// service as bookings are committed.  AvailableSeats is signed so that
// the defensive post-decrement check can observe a negative value if the
// counter was ever driven below zero.
//
// Invariant: 0 <= AvailableSeats <= TotalSeats for every committed row.
type Event struct {
	ID             uint64    // events.id
	Title          string    // events.title
	Description    string    // events.description (nullable, empty when unset)
	Location       string    // events.location (nullable, empty when unset)
	Date           time.Time // events.date
	TotalSeats     uint32    // events.total_seats
	AvailableSeats int32     // events.available_seats
	Price          float64   // events.price
	Image          string    // events.img (nullable, empty when unset)
	Status         string    // events.status ("upcoming" or "closed")
}
