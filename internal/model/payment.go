package model

import "time"

// Payment transaction statuses as tracked locally.  PaymentStatus mirrors the
// provider's own value ("paid", "unpaid", "no_payment_required").
const (
	PaymentInitiated = "initiated"
	PaymentCompleted = "completed"
	PaymentExpired   = "expired"
)

// PaymentTransaction tracks one hosted checkout session for a booking.
type PaymentTransaction struct {
	SessionID     string    `json:"session_id"`
	BookingID     string    `json:"booking_id"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
