package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
)

// ContactRepo stores contact form messages.
type ContactRepo struct {
	db *sql.DB
}

// NewContactRepo returns a ContactRepo bound to db.
func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{db: db} }

func (r *ContactRepo) Create(ctx context.Context, m *model.ContactMessage) error {
	const q = `INSERT INTO contact_messages (id, name, email, subject, message, created_at) VALUES (?,?,?,?,?,?)`
	_, err := r.db.ExecContext(ctx, q, m.ID, m.Name, m.Email, m.Subject, m.Message, m.CreatedAt)
	return err
}

func (r *ContactRepo) ListRecent(ctx context.Context, limit int) ([]model.ContactMessage, error) {
	const q = `SELECT id, name, email, subject, message, created_at FROM contact_messages ORDER BY created_at DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ContactMessage{}
	for rows.Next() {
		var m model.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
