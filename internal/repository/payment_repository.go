package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
)

// PaymentRepo stores checkout sessions in payment_transactions, keyed by the
// provider's session id.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to db.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

func (r *PaymentRepo) Create(ctx context.Context, p *model.PaymentTransaction) error {
	const q = `INSERT INTO payment_transactions
		(session_id, booking_id, amount_cents, currency, status, payment_status, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?)`
	_, err := r.db.ExecContext(ctx, q, p.SessionID, p.BookingID, p.AmountCents, p.Currency,
		p.Status, p.PaymentStatus, p.CreatedAt, p.UpdatedAt)
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

func (r *PaymentRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.PaymentTransaction, error) {
	const q = `SELECT session_id, booking_id, amount_cents, currency, status, payment_status, created_at, updated_at
		FROM payment_transactions WHERE session_id = ?`
	var p model.PaymentTransaction
	err := r.db.QueryRowContext(ctx, q, sessionID).Scan(&p.SessionID, &p.BookingID, &p.AmountCents,
		&p.Currency, &p.Status, &p.PaymentStatus, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepo) UpdateStatus(ctx context.Context, sessionID, status, paymentStatus string, now time.Time) (int64, error) {
	const q = `UPDATE payment_transactions SET status = ?, payment_status = ?, updated_at = ? WHERE session_id = ?`
	res, err := r.db.ExecContext(ctx, q, status, paymentStatus, now, sessionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
