package model

import "time"

// Booking statuses.  Status is the only field that changes after creation.
const (
	BookingPending   = "pending"
	BookingConfirmed = "confirmed"
	BookingCancelled = "cancelled"
)

// Booking is a customer's request for a service at a date and time.  It is
// linked to at most one TimeSlot through that slot's BookingID; bookings
// created through the direct path have no slot at all.
type Booking struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Service      string    `json:"service"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	Participants int       `json:"participants"`
	Message      string    `json:"message,omitempty"`
	SelectedGame string    `json:"selectedGame,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Customer returns the snapshot stored on a slot booked for b.
func (b Booking) Customer() CustomerInfo {
	return CustomerInfo{Name: b.Name, Email: b.Email, Phone: b.Phone}
}
