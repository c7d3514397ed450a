package model

import "time"

// Booking status values as stored in bookings.status.  A booking is
// created as confirmed; cancellation is a status transition performed
// outside the reservation path.
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking represents a row in the `bookings` table.  Seats holds the
// seat numbers committed under this booking; it is persisted as a JSON
// array in the optional bookings.seats text column.  On legacy schemas
// without that column the slice is empty after a read and omitted on
// insert.  A booking row is append-only apart from status transitions.
//
// Fields:
//  ID          – primary key identifier.
//  EventID     – event the seats belong to.
//  UserID      – user who made the booking.
//  Name        – contact name snapshot (nullable, empty when unset).
//  Email       – contact email snapshot (nullable, empty when unset).
//  Mobile      – contact phone (nullable, empty when unset).
//  Seats       – seat numbers, each in [1, event.TotalSeats].
//  Quantity    – number of seats; equals len(Seats) when seats are stored.
//  TotalAmount – total price paid for the booking, always > 0.
//  Status      – "confirmed" or "cancelled".
//  CreatedAt   – bookings.booking_date.
type Booking struct {
	ID          uint64
	EventID     uint64
	UserID      uint64
	Name        string
	Email       string
	Mobile      string
	Seats       []uint32
	Quantity    uint32
	TotalAmount float64
	Status      string
	CreatedAt   time.Time
}
