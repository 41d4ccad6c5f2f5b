package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
)

// BookingRepo stores bookings in the bookings table and implements the
// slot-path BookSlot unit of work, which spans bookings and time_slots.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to db.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, name, email, phone, service, booking_date, booking_time,
	participants, message, selected_game, status, created_at`

// Create inserts b outside of any transaction.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
	return r.createTx(ctx, r.db, b)
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *BookingRepo) createTx(ctx context.Context, ex execer, b *model.Booking) error {
	q := `INSERT INTO bookings (` + bookingColumns + `) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`
	_, err := ex.ExecContext(ctx, q, b.ID, b.Name, b.Email, b.Phone, b.Service, b.Date, b.Time,
		b.Participants, b.Message, b.SelectedGame, b.Status, b.CreatedAt)
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

// BookSlot inserts b and flips the slot to booked in one transaction.  The
// UPDATE only matches while the slot is still available; a zero row count
// rolls the booking insert back and yields ErrSlotTaken.
func (r *BookingRepo) BookSlot(ctx context.Context, slotID string, b *model.Booking, now time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := r.createTx(ctx, tx, b); err != nil {
		return err
	}

	const q = `UPDATE time_slots
		SET status = 'booked', booking_id = ?, customer_name = ?, customer_email = ?, customer_phone = ?, updated_at = ?
		WHERE id = ? AND status = 'available'`
	res, err := tx.ExecContext(ctx, q, b.ID, b.Name, b.Email, b.Phone, now, slotID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSlotTaken
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID returns the booking with the given id or ErrNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// ListByDate returns all bookings of a date regardless of service or status.
func (r *BookingRepo) ListByDate(ctx context.Context, date string) ([]model.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE booking_date = ? ORDER BY booking_time, created_at`, date)
}

// ListRecent returns up to limit bookings, newest first.
func (r *BookingRepo) ListRecent(ctx context.Context, limit int) ([]model.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC LIMIT ?`, limit)
}

// ListByEmailDomain returns the bookings made with an address at domain.
func (r *BookingRepo) ListByEmailDomain(ctx context.Context, domain string) ([]model.Booking, error) {
	return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE email LIKE ? ORDER BY created_at`, "%@"+domain)
}

// UpdateStatus sets the status of one booking and returns the matched count.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id, status string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteMany deletes the bookings with the given ids.
func (r *BookingRepo) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *BookingRepo) list(ctx context.Context, q string, args ...any) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var b model.Booking
	if err := row.Scan(&b.ID, &b.Name, &b.Email, &b.Phone, &b.Service, &b.Date, &b.Time,
		&b.Participants, &b.Message, &b.SelectedGame, &b.Status, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
