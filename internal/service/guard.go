package service

import "github.com/iliyamo/event-booking/internal/model"

// CheckBookingAllowed is the single authorization predicate for
// creating bookings: administrative accounts may not hold bookings, and
// closed events accept none.  It is invoked twice per request, once by
// the booking guard middleware before the handler runs and again inside
// the coordinator's own precondition chain, so neither layer is a
// single point of failure for either rule.  Pass an empty string for a
// dimension the caller has not resolved yet.
func CheckBookingAllowed(role, eventStatus string) *Rejection {
	if role == model.RoleAdmin {
		return reject(ReasonForbidden,
			"Admins cannot book tickets. Please sign in as a user to make bookings.")
	}
	if eventStatus == model.EventStatusClosed {
		return reject(ReasonEventClosed,
			"This event is closed. Bookings are no longer available.")
	}
	return nil
}
