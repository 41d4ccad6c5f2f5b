package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
)

// SlotRepo stores time slots in the time_slots table.  The table carries a
// unique key on (slot_date, slot_time, service_type) which backs the
// one-slot-per-tuple rule even when two generators race.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo returns a SlotRepo bound to db.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

const slotColumns = `id, slot_date, slot_time, service_type, status, booking_id,
	customer_name, customer_email, customer_phone, created_at, updated_at`

// InsertMany writes all slots in a single INSERT IGNORE statement.  Rows
// that collide with an existing tuple are skipped by MySQL and do not count
// towards the returned total.
func (r *SlotRepo) InsertMany(ctx context.Context, slots []model.TimeSlot) (int64, error) {
	if len(slots) == 0 {
		return 0, nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT IGNORE INTO time_slots (` + slotColumns + `) VALUES `)
	args := make([]any, 0, len(slots)*11)
	for i, s := range slots {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args, slotArgs(&s)...)
	}
	res, err := r.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Create inserts one slot.  A tuple collision is reported as ErrDuplicate.
func (r *SlotRepo) Create(ctx context.Context, s *model.TimeSlot) error {
	q := `INSERT INTO time_slots (` + slotColumns + `) VALUES (?,?,?,?,?,?,?,?,?,?,?)`
	if _, err := r.db.ExecContext(ctx, q, slotArgs(s)...); err != nil {
		if isDuplicateKey(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByID returns the slot with the given id or ErrNotFound.
func (r *SlotRepo) GetByID(ctx context.Context, id string) (*model.TimeSlot, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM time_slots WHERE id = ?`, id)
	s, err := scanSlot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

// ListByDate returns every slot of a date ordered by time, then service.
func (r *SlotRepo) ListByDate(ctx context.Context, date string) ([]model.TimeSlot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+slotColumns+` FROM time_slots WHERE slot_date = ? ORDER BY slot_time, service_type`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.TimeSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// ExistsForDate reports whether at least one slot exists for date.
func (r *SlotRepo) ExistsForDate(ctx context.Context, date string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM time_slots WHERE slot_date = ? LIMIT 1`, date).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Update overwrites the mutable fields of s if the row still holds expect.
// The DSN enables clientFoundRows, so the result is the matched count even
// when no column actually changes.
func (r *SlotRepo) Update(ctx context.Context, s *model.TimeSlot, expect SlotState) (int64, error) {
	const q = `UPDATE time_slots
		SET status = ?, booking_id = ?, customer_name = ?, customer_email = ?, customer_phone = ?, updated_at = ?
		WHERE id = ? AND status = ? AND booking_id <=> ?`
	name, email, phone := customerArgs(s.CustomerInfo)
	res, err := r.db.ExecContext(ctx, q,
		string(s.Status), nullable(s.BookingID), name, email, phone, s.UpdatedAt,
		s.ID, string(expect.Status), nullable(expect.BookingID))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes the slot and returns the deleted row count.
func (r *SlotRepo) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_slots WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReleaseByBookingIDs resets every slot held by one of ids.
func (r *SlotRepo) ReleaseByBookingIDs(ctx context.Context, ids []string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := `UPDATE time_slots
		SET status = 'available', booking_id = NULL, customer_name = NULL, customer_email = NULL, customer_phone = NULL, updated_at = ?
		WHERE booking_id IN (` + placeholders(len(ids)) + `)`
	args := make([]any, 0, len(ids)+1)
	args = append(args, now)
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Ping checks the underlying connection pool.
func (r *SlotRepo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner) (*model.TimeSlot, error) {
	var (
		s                  model.TimeSlot
		status             string
		bookingID          sql.NullString
		name, email, phone sql.NullString
	)
	if err := row.Scan(&s.ID, &s.Date, &s.Time, &s.ServiceType, &status, &bookingID,
		&name, &email, &phone, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Status = model.SlotStatus(status)
	if bookingID.Valid {
		id := bookingID.String
		s.BookingID = &id
	}
	if name.Valid || email.Valid || phone.Valid {
		s.CustomerInfo = &model.CustomerInfo{Name: name.String, Email: email.String, Phone: phone.String}
	}
	return &s, nil
}

func slotArgs(s *model.TimeSlot) []any {
	name, email, phone := customerArgs(s.CustomerInfo)
	return []any{s.ID, s.Date, s.Time, s.ServiceType, string(s.Status), nullable(s.BookingID),
		name, email, phone, s.CreatedAt, s.UpdatedAt}
}

func customerArgs(ci *model.CustomerInfo) (name, email, phone any) {
	if ci == nil {
		return nil, nil, nil
	}
	return ci.Name, ci.Email, ci.Phone
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// isDuplicateKey reports whether err is MySQL error 1062 (ER_DUP_ENTRY).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
