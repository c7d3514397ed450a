// Package service implements the reservation coordinator: the single
// component allowed to turn requested seats into committed seats.  All
// expected booking failures are expressed as Rejection values so that
// handlers can map them to HTTP responses without string matching;
// anything else escaping Reserve is a store failure.
package service

import "errors"

// RejectReason identifies why a reservation attempt was refused.  The
// values are stable and machine-readable; the accompanying message is
// for humans.
type RejectReason string

const (
	// ReasonInvalidInput covers missing or malformed request fields:
	// absent ids, an empty seat list, a non-positive amount, or a
	// quantity that does not match the seat list.
	ReasonInvalidInput RejectReason = "InvalidInput"
	// ReasonForbidden is returned when the requester's role may not
	// hold bookings (administrative accounts).
	ReasonForbidden RejectReason = "Forbidden"
	// ReasonDuplicateSeatRequest means the requester already holds one
	// or more of the requested seats on this event.
	ReasonDuplicateSeatRequest RejectReason = "DuplicateSeatRequest"
	// ReasonEventNotFound means the event does not exist.
	ReasonEventNotFound RejectReason = "EventNotFound"
	// ReasonEventClosed means the event no longer accepts bookings.
	ReasonEventClosed RejectReason = "EventClosed"
	// ReasonEventFull means the event has no remaining seats at all.
	ReasonEventFull RejectReason = "EventFull"
	// ReasonSeatConflict means one or more requested seats are already
	// booked by someone.
	ReasonSeatConflict RejectReason = "SeatConflict"
	// ReasonInvalidSeatRange means a requested seat number lies outside
	// [1, total seats].
	ReasonInvalidSeatRange RejectReason = "InvalidSeatRange"
	// ReasonInsufficientCapacity means fewer seats remain than were
	// requested.
	ReasonInsufficientCapacity RejectReason = "InsufficientCapacity"
	// ReasonCapacityRaceDetected means the post-decrement re-read saw a
	// negative remaining count.  Unreachable while the event row lock
	// is held; kept as a guard against lock-scope bugs.
	ReasonCapacityRaceDetected RejectReason = "CapacityRaceDetected"
)

// Rejection is an expected, locally generated refusal of a reservation
// attempt.  Seats lists the offending seat numbers for the reasons
// where that applies (duplicates, conflicts, out-of-range).
type Rejection struct {
	Reason  RejectReason
	Message string
	Seats   []uint32
}

// Error implements the error interface; the message is safe to show to
// callers.
func (r *Rejection) Error() string { return r.Message }

// reject is a shorthand constructor used throughout the coordinator.
func reject(reason RejectReason, msg string, seats ...uint32) *Rejection {
	return &Rejection{Reason: reason, Message: msg, Seats: seats}
}

// AsRejection unwraps err into a *Rejection when it is one.  Any error
// for which this returns false is a store failure and must be treated
// as opaque by callers.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
