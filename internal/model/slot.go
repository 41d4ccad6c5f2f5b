package model

import "time"

// SlotStatus is the lifecycle state of a TimeSlot.
type SlotStatus string

const (
	SlotAvailable   SlotStatus = "available"
	SlotBooked      SlotStatus = "booked"
	SlotMaintenance SlotStatus = "maintenance"
	SlotBlocked     SlotStatus = "blocked"
)

// Valid reports whether s is one of the four known slot states.
func (s SlotStatus) Valid() bool {
	switch s {
	case SlotAvailable, SlotBooked, SlotMaintenance, SlotBlocked:
		return true
	}
	return false
}

// CustomerInfo is the denormalised snapshot of the customer stored on a
// booked slot so the calendar view can show who holds it without a join.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// TimeSlot is one bookable unit: a service type at a wall-clock time on a
// calendar date.  At most one slot exists per (Date, Time, ServiceType).
//
// Fields:
//
//	ID           – opaque identifier assigned at creation.
//	Date         – calendar date, "YYYY-MM-DD".
//	Time         – start time of day, zero padded "HH:MM".
//	ServiceType  – offering label, e.g. "KAT VR Gaming Session".
//	Status       – available, booked, maintenance or blocked.
//	BookingID    – back reference, set when Status is booked.
//	CustomerInfo – customer snapshot, set when Status is booked.
type TimeSlot struct {
	ID           string        `json:"id"`
	Date         string        `json:"date"`
	Time         string        `json:"time"`
	ServiceType  string        `json:"service_type"`
	Status       SlotStatus    `json:"status"`
	BookingID    *string       `json:"booking_id,omitempty"`
	CustomerInfo *CustomerInfo `json:"customer_info,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// CalendarDay is the derived, never persisted view of one date.
type CalendarDay struct {
	Date           string     `json:"date"`
	Slots          []TimeSlot `json:"slots"`
	TotalSlots     int        `json:"total_slots"`
	AvailableSlots int        `json:"available_slots"`
	BookedSlots    int        `json:"booked_slots"`
}

// AvailabilitySlot is one canonical time in an availability view.
type AvailabilitySlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	Status    string `json:"status"`
}

// Availability answers "what is open on Date for Service".
type Availability struct {
	Date            string             `json:"date"`
	Service         string             `json:"service,omitempty"`
	IntervalMinutes int                `json:"interval_minutes"`
	Duration        string             `json:"duration"`
	Slots           []AvailabilitySlot `json:"slots"`
	TotalSlots      int                `json:"total_slots"`
	AvailableCount  int                `json:"available_count"`
	BookedCount     int                `json:"booked_count"`
}
