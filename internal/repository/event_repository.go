package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/event-booking/internal/model"
)

// DBTX is the subset of database/sql operations shared by *sql.DB and
// *sql.Tx.  Repository methods that must be usable both inside and
// outside a transaction accept it instead of a concrete handle.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// EventRepo provides CRUD operations for events and the capacity counter
// mutations performed during a reservation.  The available_seats column
// is only ever decremented through DecrementAvailable within a
// transaction that holds the event row lock.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventCols = `id, title, description, location, date, total_seats, available_seats, price, img, status`

// scanEvent reads one events row from a row scanner, normalising
// nullable columns to empty strings and defaulting a missing status to
// "upcoming" the way the legacy data did.
func scanEvent(row *sql.Row) (model.Event, error) {
	var ev model.Event
	var desc, loc, img, status sql.NullString
	err := row.Scan(&ev.ID, &ev.Title, &desc, &loc, &ev.Date,
		&ev.TotalSeats, &ev.AvailableSeats, &ev.Price, &img, &status)
	if err != nil {
		return model.Event{}, err
	}
	ev.Description = desc.String
	ev.Location = loc.String
	ev.Image = img.String
	ev.Status = status.String
	if ev.Status == "" {
		ev.Status = model.EventStatusUpcoming
	}
	return ev, nil
}

// GetByID fetches a single event by id.  It returns ErrEventNotFound
// when no row matches.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events WHERE id = ?`
	ev, err := scanEvent(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrEventNotFound
	}
	return ev, err
}

// GetForUpdate fetches an event and acquires an exclusive row lock on it
// for the remainder of the enclosing transaction.  Concurrent
// reservation attempts on the same event serialize on this lock;
// attempts on different events proceed independently.  It returns
// ErrEventNotFound when no row matches.
func (r *EventRepo) GetForUpdate(ctx context.Context, q DBTX, id uint64) (model.Event, error) {
	const sel = `SELECT ` + eventCols + ` FROM events WHERE id = ? FOR UPDATE`
	ev, err := scanEvent(q.QueryRowContext(ctx, sel, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Event{}, ErrEventNotFound
	}
	return ev, err
}

// GetStatus returns only the status flag of an event.  The booking guard
// middleware uses it to reject bookings on closed events before the
// reservation transaction is opened.  Returns ErrEventNotFound when the
// event does not exist.
func (r *EventRepo) GetStatus(ctx context.Context, id uint64) (string, error) {
	var status sql.NullString
	err := r.db.QueryRowContext(ctx, `SELECT status FROM events WHERE id = ?`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrEventNotFound
	}
	if err != nil {
		return "", err
	}
	if status.String == "" {
		return model.EventStatusUpcoming, nil
	}
	return status.String, nil
}

// DecrementAvailable subtracts qty from the event's remaining seat
// count.  The caller must hold the event row lock via GetForUpdate in
// the same transaction.
func (r *EventRepo) DecrementAvailable(ctx context.Context, q DBTX, id uint64, qty uint32) error {
	_, err := q.ExecContext(ctx,
		`UPDATE events SET available_seats = available_seats - ? WHERE id = ?`, qty, id)
	return err
}

// Available re-reads the remaining seat count.  The reservation service
// calls it after DecrementAvailable as a defensive invariant check; a
// negative value means the counter was driven below zero.
func (r *EventRepo) Available(ctx context.Context, q DBTX, id uint64) (int32, error) {
	var n int32
	err := q.QueryRowContext(ctx, `SELECT available_seats FROM events WHERE id = ?`, id).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrEventNotFound
	}
	return n, err
}

// List returns all events ordered by date ascending.
func (r *EventRepo) List(ctx context.Context) ([]model.Event, error) {
	const q = `SELECT ` + eventCols + ` FROM events ORDER BY date ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]model.Event, 0)
	for rows.Next() {
		var ev model.Event
		var desc, loc, img, status sql.NullString
		if err := rows.Scan(&ev.ID, &ev.Title, &desc, &loc, &ev.Date,
			&ev.TotalSeats, &ev.AvailableSeats, &ev.Price, &img, &status); err != nil {
			return nil, err
		}
		ev.Description = desc.String
		ev.Location = loc.String
		ev.Image = img.String
		ev.Status = status.String
		if ev.Status == "" {
			ev.Status = model.EventStatusUpcoming
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Create inserts a new event with available_seats initialised to
// total_seats and populates the generated ID and stored defaults on the
// provided struct.
func (r *EventRepo) Create(ctx context.Context, ev *model.Event) error {
	if ev.Status == "" {
		ev.Status = model.EventStatusUpcoming
	}
	const ins = `INSERT INTO events (title, description, location, date, total_seats, available_seats, price, img, status)
	             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, ins,
		ev.Title, nullable(ev.Description), nullable(ev.Location), ev.Date,
		ev.TotalSeats, ev.TotalSeats, ev.Price, nullable(ev.Image), ev.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	// Query back the full row to populate defaults.
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*ev = stored
	return nil
}

// Update replaces the mutable fields of an event.  The remaining seat
// counter is intentionally excluded: only the reservation service may
// decrement it.  The refreshed row is written back to ev.
func (r *EventRepo) Update(ctx context.Context, ev *model.Event) error {
	const upd = `UPDATE events SET title = ?, description = ?, location = ?, date = ?, total_seats = ?, price = ?, status = ?, img = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, upd,
		ev.Title, nullable(ev.Description), nullable(ev.Location), ev.Date,
		ev.TotalSeats, ev.Price, ev.Status, nullable(ev.Image), ev.ID); err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, ev.ID)
	if err != nil {
		return err
	}
	*ev = stored
	return nil
}

// Delete removes an event by id.  It returns ErrEventNotFound when no
// row was deleted.
func (r *EventRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrEventNotFound
	}
	return nil
}

// nullable maps empty strings to SQL NULL so optional text columns are
// stored the same way the legacy rows were.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
