package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/iliyamo/event-booking/internal/model"
)

// txKey is the context key under which WithTx stores the active
// transaction.
type txKey struct{}

// Store bundles the repositories behind the reservation service's view
// of the database and scopes transactions to a context.  It is the only
// place a reservation transaction is begun, committed or rolled back;
// the service layer just returns an error to abort.
type Store struct {
	db       *sql.DB
	Events   *EventRepo
	Bookings *BookingRepo
	Users    *UserRepo
}

// NewStore constructs a Store.  All dependencies must be non-nil.
func NewStore(db *sql.DB, events *EventRepo, bookings *BookingRepo, users *UserRepo) *Store {
	if db == nil || events == nil || bookings == nil || users == nil {
		panic("nil dependency passed to NewStore")
	}
	return &Store{db: db, Events: events, Bookings: bookings, Users: users}
}

// WithTx runs fn inside a database transaction carried on the context.
// If the context already carries a transaction, fn joins it.  When fn
// returns an error the transaction is rolled back and the original
// error is returned; a failure of the rollback itself is logged, never
// propagated, so the cause that aborted the transaction reaches the
// caller.  No partial mutation is visible outside a committed
// transaction.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if txFromContext(ctx) != nil {
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	txCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Printf("store: rollback failed: %v", rbErr)
		}
		return err
	}
	return tx.Commit()
}

// txFromContext returns the transaction stored by WithTx, or nil.
func txFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// conn returns the active transaction when present, otherwise the pool.
func (s *Store) conn(ctx context.Context) DBTX {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return s.db
}

// errNoTransaction is returned when a locking operation is attempted
// outside WithTx.  The event row lock is the sole serialization point
// of the reservation path, so acquiring it on the bare pool would be a
// programming error rather than a recoverable condition.
var errNoTransaction = errors.New("store: operation requires a transaction")

// GetUser implements service.ReservationStore.
func (s *Store) GetUser(ctx context.Context, id uint64) (model.User, error) {
	return s.Users.GetByID(ctx, id)
}

// GetEventForUpdate locks and returns the event row.  Must run inside
// WithTx.
func (s *Store) GetEventForUpdate(ctx context.Context, id uint64) (model.Event, error) {
	tx := txFromContext(ctx)
	if tx == nil {
		return model.Event{}, errNoTransaction
	}
	return s.Events.GetForUpdate(ctx, tx, id)
}

// BookedSeats implements service.ReservationStore.
func (s *Store) BookedSeats(ctx context.Context, eventID uint64) ([]uint32, error) {
	return s.Bookings.SeatsByEvent(ctx, s.conn(ctx), eventID)
}

// BookedSeatsByUser implements service.ReservationStore.
func (s *Store) BookedSeatsByUser(ctx context.Context, eventID, userID uint64) ([]uint32, error) {
	return s.Bookings.SeatsByEventAndUser(ctx, s.conn(ctx), eventID, userID)
}

// DecrementAvailableSeats implements service.ReservationStore.  Must
// run inside WithTx with the event row already locked.
func (s *Store) DecrementAvailableSeats(ctx context.Context, eventID uint64, qty uint32) error {
	tx := txFromContext(ctx)
	if tx == nil {
		return errNoTransaction
	}
	return s.Events.DecrementAvailable(ctx, tx, eventID, qty)
}

// AvailableSeats implements service.ReservationStore.
func (s *Store) AvailableSeats(ctx context.Context, eventID uint64) (int32, error) {
	return s.Events.Available(ctx, s.conn(ctx), eventID)
}

// InsertBooking implements service.ReservationStore.
func (s *Store) InsertBooking(ctx context.Context, b *model.Booking) error {
	return s.Bookings.Create(ctx, s.conn(ctx), b)
}

// SupportsSeatList implements service.ReservationStore.
func (s *Store) SupportsSeatList() bool {
	return s.Bookings.SupportsSeatList()
}
