package repository

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/iliyamo/event-booking/internal/model"
	"github.com/iliyamo/event-booking/internal/utils"
)

// BookingRepo provides access to the bookings table: inserting new
// bookings, listing them, and scanning the seat ledger (the union of
// seat lists across existing bookings for an event).
//
// The seats column is optional.  Databases migrated from the earliest
// schema do not have it; on those, bookings carry only a quantity and
// per-seat conflict detection is impossible.  The capability is probed
// once at construction time against INFORMATION_SCHEMA rather than
// per request.
type BookingRepo struct {
	db          *sql.DB
	hasSeatList bool
}

// NewBookingRepo constructs a BookingRepo and resolves the seat-list
// schema capability.  The probe only fails on connectivity errors; a
// missing column simply disables per-seat storage.
func NewBookingRepo(ctx context.Context, db *sql.DB) (*BookingRepo, error) {
	const probe = `SELECT COUNT(*) FROM INFORMATION_SCHEMA.COLUMNS
	               WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = 'bookings' AND COLUMN_NAME = 'seats'`
	var n int
	if err := db.QueryRowContext(ctx, probe).Scan(&n); err != nil {
		return nil, err
	}
	return &BookingRepo{db: db, hasSeatList: n > 0}, nil
}

// SupportsSeatList reports whether the bookings table has a seats
// column.  When false the reservation service skips per-seat conflict
// checks and enforces only aggregate capacity.
func (r *BookingRepo) SupportsSeatList() bool { return r.hasSeatList }

// Create inserts a new booking within the scope of an existing
// transaction and populates the generated ID, status and timestamp on
// the provided record.  The seat list is serialized as a JSON array.
// When the schema lacks the seats column the insert omits it; the
// driver-level retry also covers a column dropped after startup, since
// MySQL reports an unknown column as error 1054.
func (r *BookingRepo) Create(ctx context.Context, q DBTX, b *model.Booking) error {
	var (
		res sql.Result
		err error
	)
	if r.hasSeatList {
		const ins = `INSERT INTO bookings (event_id, user_id, name, email, mobile, quantity, total_amount, seats)
		             VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		res, err = q.ExecContext(ctx, ins, b.EventID, b.UserID,
			nullable(b.Name), nullable(b.Email), nullable(b.Mobile),
			b.Quantity, b.TotalAmount, utils.EncodeSeatList(b.Seats))
		if err != nil && strings.Contains(err.Error(), "1054") {
			res, err = r.insertWithoutSeats(ctx, q, b)
		}
	} else {
		res, err = r.insertWithoutSeats(ctx, q, b)
	}
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	// Query back status and booking_date to populate defaults.
	var status sql.NullString
	err = q.QueryRowContext(ctx,
		`SELECT status, booking_date FROM bookings WHERE id = ?`, b.ID).
		Scan(&status, &b.CreatedAt)
	if err != nil {
		return err
	}
	b.Status = status.String
	if b.Status == "" {
		b.Status = model.BookingStatusConfirmed
	}
	return nil
}

func (r *BookingRepo) insertWithoutSeats(ctx context.Context, q DBTX, b *model.Booking) (sql.Result, error) {
	const ins = `INSERT INTO bookings (event_id, user_id, name, email, mobile, quantity, total_amount)
	             VALUES (?, ?, ?, ?, ?, ?, ?)`
	return q.ExecContext(ctx, ins, b.EventID, b.UserID,
		nullable(b.Name), nullable(b.Email), nullable(b.Mobile),
		b.Quantity, b.TotalAmount)
}

// SeatsByEvent returns the set of seat numbers committed for an event,
// i.e. the union of seat lists across all non-cancelled bookings.  Rows
// whose seat list cannot be parsed contribute nothing (see
// utils.DecodeSeatList).  The result is sorted ascending so repeated
// resolutions over unchanged data are identical.  On schemas without
// the seats column it returns an empty set.
func (r *BookingRepo) SeatsByEvent(ctx context.Context, q DBTX, eventID uint64) ([]uint32, error) {
	if !r.hasSeatList {
		return []uint32{}, nil
	}
	const sel = `SELECT seats FROM bookings WHERE event_id = ? AND seats IS NOT NULL AND status <> ?`
	return r.scanSeatSets(ctx, q, sel, eventID, model.BookingStatusCancelled)
}

// SeatsByEventAndUser returns the seats a single user already holds on
// an event across all their non-cancelled bookings.  Used for the
// duplicate-seat check in the reservation service.
func (r *BookingRepo) SeatsByEventAndUser(ctx context.Context, q DBTX, eventID, userID uint64) ([]uint32, error) {
	if !r.hasSeatList {
		return []uint32{}, nil
	}
	const sel = `SELECT seats FROM bookings WHERE event_id = ? AND user_id = ? AND seats IS NOT NULL AND status <> ?`
	return r.scanSeatSets(ctx, q, sel, eventID, userID, model.BookingStatusCancelled)
}

// scanSeatSets runs a query returning seat-list strings and unions the
// decoded seat numbers into a sorted, de-duplicated slice.
func (r *BookingRepo) scanSeatSets(ctx context.Context, q DBTX, query string, args ...interface{}) ([]uint32, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	set := make(map[uint32]struct{})
	for rows.Next() {
		var raw sql.NullString
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		for _, seat := range utils.DecodeSeatList(raw.String) {
			set[seat] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	seats := make([]uint32, 0, len(set))
	for s := range set {
		seats = append(seats, s)
	}
	sort.Slice(seats, func(i, j int) bool { return seats[i] < seats[j] })
	return seats, nil
}

// BookingFilter narrows listing queries.  Zero values mean "no filter".
type BookingFilter struct {
	EventID uint64
	UserID  uint64
}

// List returns bookings matching the filter, newest first.  On legacy
// schemas the seats column is excluded from the query and every booking
// has an empty seat list.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter) ([]model.Booking, error) {
	cols := `id, event_id, user_id, name, email, mobile, quantity, total_amount, status, booking_date`
	if r.hasSeatList {
		cols += `, seats`
	}
	query := `SELECT ` + cols + ` FROM bookings`
	conds := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)
	if f.UserID != 0 {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.EventID != 0 {
		conds = append(conds, "event_id = ?")
		args = append(args, f.EventID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY booking_date DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// GetByID fetches a single booking.  It returns ErrBookingNotFound when
// no row matches.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	cols := `id, event_id, user_id, name, email, mobile, quantity, total_amount, status, booking_date`
	if r.hasSeatList {
		cols += `, seats`
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+cols+` FROM bookings WHERE id = ?`, id)
	if err != nil {
		return model.Booking{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return model.Booking{}, err
		}
		return model.Booking{}, ErrBookingNotFound
	}
	return r.scanBooking(rows)
}

// UpdateStatus transitions a booking's status (e.g. to cancelled) and
// returns the refreshed row.  Bookings are otherwise immutable.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status string) (model.Booking, error) {
	if _, err := r.db.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, status, id); err != nil {
		return model.Booking{}, err
	}
	return r.GetByID(ctx, id)
}

// scanBooking reads one bookings row, including the seats column only
// when the schema carries it.
func (r *BookingRepo) scanBooking(rows *sql.Rows) (model.Booking, error) {
	var b model.Booking
	var name, email, mobile, status sql.NullString
	dest := []interface{}{&b.ID, &b.EventID, &b.UserID, &name, &email, &mobile,
		&b.Quantity, &b.TotalAmount, &status, &b.CreatedAt}
	var seats sql.NullString
	if r.hasSeatList {
		dest = append(dest, &seats)
	}
	if err := rows.Scan(dest...); err != nil {
		return model.Booking{}, err
	}
	b.Name = name.String
	b.Email = email.String
	b.Mobile = mobile.String
	b.Status = status.String
	if b.Status == "" {
		b.Status = model.BookingStatusConfirmed
	}
	b.Seats = utils.DecodeSeatList(seats.String)
	return b, nil
}
