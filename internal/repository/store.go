package repository

import (
	"context"
	"time"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
)

// SlotState is the part of a slot a conditional update is checked against.
type SlotState struct {
	Status    model.SlotStatus
	BookingID *string
}

// StateOf returns the current SlotState of s.
func StateOf(s model.TimeSlot) SlotState {
	st := SlotState{Status: s.Status}
	if s.BookingID != nil {
		id := *s.BookingID
		st.BookingID = &id
	}
	return st
}

// SlotStore persists TimeSlot records.  Methods returning an int64 report the
// number of matched (update) or deleted rows so callers can detect a missing
// id without a second read.
type SlotStore interface {
	// InsertMany stores slots, silently skipping any whose (date, time,
	// service_type) already exists, and returns how many were written.
	InsertMany(ctx context.Context, slots []model.TimeSlot) (int64, error)
	// Create stores one slot and returns ErrDuplicate on a tuple collision.
	Create(ctx context.Context, slot *model.TimeSlot) error
	GetByID(ctx context.Context, id string) (*model.TimeSlot, error)
	ListByDate(ctx context.Context, date string) ([]model.TimeSlot, error)
	ExistsForDate(ctx context.Context, date string) (bool, error)
	// Update overwrites status, booking_id, customer_info and updated_at of
	// the slot with slot.ID, but only while its stored status and booking_id
	// still equal expect.  Zero means the slot is missing or has changed.
	Update(ctx context.Context, slot *model.TimeSlot, expect SlotState) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
	// ReleaseByBookingIDs puts every slot held by one of ids back to
	// available and clears its booking reference.
	ReleaseByBookingIDs(ctx context.Context, ids []string, now time.Time) (int64, error)
}

// BookingStore persists Booking records.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListByDate(ctx context.Context, date string) ([]model.Booking, error)
	// ListRecent returns up to limit bookings, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.Booking, error)
	// ListByEmailDomain returns bookings whose email ends in "@"+domain.
	ListByEmailDomain(ctx context.Context, domain string) ([]model.Booking, error)
	UpdateStatus(ctx context.Context, id, status string) (int64, error)
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

// SlotBooker performs the slot-path booking as one unit of work: insert b
// and move slot slotID from available to booked, pointing at b.  When the
// conditional transition matches nothing the insert is undone and
// ErrSlotTaken is returned.
type SlotBooker interface {
	BookSlot(ctx context.Context, slotID string, b *model.Booking, now time.Time) error
}

// ContactStore persists contact form messages.
type ContactStore interface {
	Create(ctx context.Context, m *model.ContactMessage) error
	ListRecent(ctx context.Context, limit int) ([]model.ContactMessage, error)
}

// PaymentStore persists checkout sessions.
type PaymentStore interface {
	Create(ctx context.Context, p *model.PaymentTransaction) error
	GetBySessionID(ctx context.Context, sessionID string) (*model.PaymentTransaction, error)
	// UpdateStatus sets status and payment_status and returns the matched
	// row count.
	UpdateStatus(ctx context.Context, sessionID, status, paymentStatus string, now time.Time) (int64, error)
}

// Pinger is implemented by backends that can report their own health.
type Pinger interface {
	Ping(ctx context.Context) error
}
