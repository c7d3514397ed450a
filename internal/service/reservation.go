package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/event-booking/internal/model"
	"github.com/iliyamo/event-booking/internal/repository"
)

// ReservationStore is the coordinator's view of the durable store.  The
// production implementation is *repository.Store; tests substitute an
// in-memory fake.  Methods documented as requiring a transaction are
// only called between WithTx's begin and commit, after
// GetEventForUpdate has locked the event row.
type ReservationStore interface {
	// WithTx runs fn inside one atomic unit of work, rolling back when
	// fn returns an error.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	// GetUser looks up a requester; sql.ErrNoRows when absent.
	GetUser(ctx context.Context, id uint64) (model.User, error)
	// GetEventForUpdate locks the event row for the transaction and
	// returns it; repository.ErrEventNotFound when absent.
	GetEventForUpdate(ctx context.Context, id uint64) (model.Event, error)
	// BookedSeats returns all seats committed on the event.
	BookedSeats(ctx context.Context, eventID uint64) ([]uint32, error)
	// BookedSeatsByUser returns the seats one user holds on the event.
	BookedSeatsByUser(ctx context.Context, eventID, userID uint64) ([]uint32, error)
	// DecrementAvailableSeats subtracts qty from the remaining count.
	DecrementAvailableSeats(ctx context.Context, eventID uint64, qty uint32) error
	// AvailableSeats re-reads the remaining count.
	AvailableSeats(ctx context.Context, eventID uint64) (int32, error)
	// InsertBooking appends the booking row, populating ID/status/time.
	InsertBooking(ctx context.Context, b *model.Booking) error
	// SupportsSeatList reports whether per-seat conflict detection is
	// possible on the current schema.
	SupportsSeatList() bool
}

// ReservationService is the reservation coordinator.  It owns the
// transition from "seats requested" to "seats committed": every check
// and every capacity mutation happens inside one transaction holding
// the event row lock, so concurrent attempts on the same event
// serialize and attempts on different events proceed independently.
// The service keeps no state between calls; every attempt re-reads
// authoritative capacity inside the lock.
type ReservationService struct {
	store ReservationStore
}

// NewReservationService constructs a ReservationService.
func NewReservationService(store ReservationStore) *ReservationService {
	if store == nil {
		panic("nil store passed to NewReservationService")
	}
	return &ReservationService{store: store}
}

// ReserveInput carries one reservation attempt.  Quantity may be zero,
// in which case it defaults to the number of distinct seats requested.
// Name, Email and Mobile are optional contact overrides; missing name
// and email are resolved from the requester record before the booking
// is written.
type ReserveInput struct {
	EventID     uint64
	UserID      uint64
	Seats       []uint32
	Quantity    uint32
	TotalAmount float64
	Name        string
	Email       string
	Mobile      string
}

// Reserve atomically books the requested seats.  On success it returns
// the committed booking.  Expected refusals come back as *Rejection
// (check with AsRejection); any other error means the store failed and
// nothing was committed.
//
// Precondition order is significant: structural checks (existence,
// status) precede capacity checks, which precede the authoritative
// decrement, so a rejected request never partially mutates state.  On
// schemas without a seat-list column the per-seat checks are skipped
// and only aggregate capacity is enforced.
func (s *ReservationService) Reserve(ctx context.Context, in ReserveInput) (model.Booking, error) {
	seats, rej := normalizeSeats(in)
	if rej != nil {
		return model.Booking{}, rej
	}
	qty := in.Quantity
	if qty == 0 {
		qty = uint32(len(seats))
	}

	// Requester role check, duplicating the booking guard middleware.
	// A failed lookup is tolerated here: the middleware is the primary
	// gate and the store will reject an orphan user_id on insert.
	if u, err := s.store.GetUser(ctx, in.UserID); err == nil {
		if rej := CheckBookingAllowed(u.Role, ""); rej != nil {
			return model.Booking{}, rej
		}
	} else if !errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, fmt.Errorf("reserve: requester lookup: %w", err)
	}

	var booking model.Booking
	err := s.store.WithTx(ctx, func(ctx context.Context) error {
		// Duplicate-seat check: the requester may not hold overlapping
		// seats on this event across bookings.
		if s.store.SupportsSeatList() {
			held, err := s.store.BookedSeatsByUser(ctx, in.EventID, in.UserID)
			if err != nil {
				return fmt.Errorf("reserve: scan user seats: %w", err)
			}
			if dups := intersect(seats, held); len(dups) > 0 {
				return reject(ReasonDuplicateSeatRequest,
					fmt.Sprintf("You have already booked seats %s for this event.", joinSeats(dups)),
					dups...)
			}
		}

		// Lock the event row; this serializes all further checks and
		// the capacity mutation against concurrent attempts.
		ev, err := s.store.GetEventForUpdate(ctx, in.EventID)
		if err != nil {
			if errors.Is(err, repository.ErrEventNotFound) {
				return reject(ReasonEventNotFound, "Event not found")
			}
			return fmt.Errorf("reserve: lock event: %w", err)
		}
		if rej := CheckBookingAllowed("", ev.Status); rej != nil {
			return rej
		}
		if ev.AvailableSeats <= 0 {
			return reject(ReasonEventFull, "Event is fully booked. Registration is closed.")
		}

		// Seat conflicts against every requester's committed seats.
		if s.store.SupportsSeatList() {
			taken, err := s.store.BookedSeats(ctx, in.EventID)
			if err != nil {
				return fmt.Errorf("reserve: scan event seats: %w", err)
			}
			if conflicts := intersect(seats, taken); len(conflicts) > 0 {
				return reject(ReasonSeatConflict,
					fmt.Sprintf("Seats %s are already booked. Please select different seats.", joinSeats(conflicts)),
					conflicts...)
			}
		}

		if invalid := outOfRange(seats, ev.TotalSeats); len(invalid) > 0 {
			return reject(ReasonInvalidSeatRange,
				fmt.Sprintf("Invalid seat numbers: %s. Seats must be between 1 and %d.", joinSeats(invalid), ev.TotalSeats),
				invalid...)
		}
		if ev.AvailableSeats < int32(qty) {
			return reject(ReasonInsufficientCapacity, "Not enough seats available")
		}

		// All checks passed: mutate the counter, then verify it.
		if err := s.store.DecrementAvailableSeats(ctx, in.EventID, qty); err != nil {
			return fmt.Errorf("reserve: decrement capacity: %w", err)
		}
		remaining, err := s.store.AvailableSeats(ctx, in.EventID)
		if err != nil {
			return fmt.Errorf("reserve: re-read capacity: %w", err)
		}
		if remaining < 0 {
			return reject(ReasonCapacityRaceDetected, "Seat count validation failed. Please try again.")
		}

		name, email := in.Name, in.Email
		if name == "" || email == "" {
			// Best effort: fall back to the requester record, keeping
			// whatever the caller supplied explicitly.
			if u, err := s.store.GetUser(ctx, in.UserID); err == nil {
				if name == "" {
					name = u.Name
				}
				if email == "" {
					email = u.Email
				}
			}
		}

		booking = model.Booking{
			EventID:     in.EventID,
			UserID:      in.UserID,
			Name:        name,
			Email:       email,
			Mobile:      in.Mobile,
			Seats:       seats,
			Quantity:    qty,
			TotalAmount: in.TotalAmount,
			Status:      model.BookingStatusConfirmed,
		}
		if err := s.store.InsertBooking(ctx, &booking); err != nil {
			return fmt.Errorf("reserve: insert booking: %w", err)
		}
		return nil
	})
	if err != nil {
		return model.Booking{}, err
	}
	return booking, nil
}

// normalizeSeats validates the structural parts of the input and
// returns the de-duplicated seat list in request order.  Everything
// here fails before any store access, so rejections have no side
// effects.
func normalizeSeats(in ReserveInput) ([]uint32, *Rejection) {
	if in.EventID == 0 || in.UserID == 0 || len(in.Seats) == 0 {
		return nil, reject(ReasonInvalidInput,
			"Missing required fields: eventId, userId, and seats are required")
	}
	if in.TotalAmount <= 0 {
		return nil, reject(ReasonInvalidInput,
			"Total amount is required and must be greater than 0")
	}
	seen := make(map[uint32]struct{}, len(in.Seats))
	seats := make([]uint32, 0, len(in.Seats))
	for _, s := range in.Seats {
		if s == 0 {
			// Seat 0 can never be valid; keep it so the range check
			// reports it instead of silently dropping it.
			seats = append(seats, s)
			continue
		}
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			seats = append(seats, s)
		}
	}
	if in.Quantity != 0 && int(in.Quantity) != len(seats) {
		return nil, reject(ReasonInvalidInput,
			"Quantity must match the number of requested seats")
	}
	return seats, nil
}

// intersect returns the members of want that appear in have, preserving
// the order of want.
func intersect(want, have []uint32) []uint32 {
	if len(want) == 0 || len(have) == 0 {
		return nil
	}
	set := make(map[uint32]struct{}, len(have))
	for _, h := range have {
		set[h] = struct{}{}
	}
	var out []uint32
	for _, w := range want {
		if _, ok := set[w]; ok {
			out = append(out, w)
		}
	}
	return out
}

// outOfRange returns the seats outside [1, total].
func outOfRange(seats []uint32, total uint32) []uint32 {
	var out []uint32
	for _, s := range seats {
		if s < 1 || s > total {
			out = append(out, s)
		}
	}
	return out
}

// joinSeats renders seat numbers as "1, 2, 3" for rejection messages.
func joinSeats(seats []uint32) string {
	parts := make([]string, len(seats))
	for i, s := range seats {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return strings.Join(parts, ", ")
}
