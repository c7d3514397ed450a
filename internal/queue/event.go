// Package queue defines message payloads exchanged over the message
// broker and the background consumer that processes them.
package queue

// BookingConfirmedEvent is published when a booking is successfully
// committed.  It carries enough information for downstream consumers to
// log, notify or feed analytics without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   uint64   `json:"booking_id"`
	EventID     uint64   `json:"event_id"`
	UserID      uint64   `json:"user_id"`
	EventTitle  string   `json:"event_title"`
	Seats       []uint32 `json:"seats"`
	Quantity    uint32   `json:"quantity"`
	TotalAmount float64  `json:"total_amount"`
	ConfirmedAt string   `json:"confirmed_at"`
}
