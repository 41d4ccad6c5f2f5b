// Package calendar is the slot availability engine: it generates the daily
// slot grid, answers availability queries, books slots without double
// booking and aggregates calendar days.
package calendar

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
	"github.com/iliyamo/qnova-vr-booking/internal/repository"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

//go:generate mockgen -source=service.go -destination=dispatcher_mock.go -package=calendar

// Dispatcher receives confirmed bookings for asynchronous notification.
// Enqueue must not block on delivery.
type Dispatcher interface {
	Enqueue(ctx context.Context, b model.Booking) error
}

// Deps are the collaborators of a Service.  Slots, Bookings and Booker are
// required; the rest default to no-op or standard values.
type Deps struct {
	Slots      repository.SlotStore
	Bookings   repository.BookingStore
	Booker     repository.SlotBooker
	Dispatcher Dispatcher
	Policy     Policy
	Logger     *slog.Logger
	Now        func() time.Time
	NewID      func() string
}

// Service exposes the calendar operations.  It is safe for concurrent use;
// all shared state lives in the stores.
type Service struct {
	slots    repository.SlotStore
	bookings repository.BookingStore
	booker   repository.SlotBooker
	dispatch Dispatcher
	policy   Policy
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
	tracer   trace.Tracer
}

// NewService wires a Service.  It panics when a required store is missing,
// which is a programming error at startup.
func NewService(d Deps) *Service {
	if d.Slots == nil || d.Bookings == nil || d.Booker == nil {
		panic("calendar: nil store passed to NewService")
	}
	if len(d.Policy.Offerings) == 0 {
		d.Policy = DefaultPolicy()
	}
	if d.Logger == nil {
		d.Logger = slog.New(slog.DiscardHandler)
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}
	if d.NewID == nil {
		d.NewID = newUUID
	}
	return &Service{
		slots:    d.Slots,
		bookings: d.Bookings,
		booker:   d.Booker,
		dispatch: d.Dispatcher,
		policy:   d.Policy,
		logger:   d.Logger,
		now:      d.Now,
		newID:    d.NewID,
		tracer:   otel.Tracer("github.com/iliyamo/qnova-vr-booking/internal/calendar"),
	}
}

// Policy returns the scheduling policy in effect.
func (s *Service) Policy() Policy { return s.policy }

// parseDate validates a "YYYY-MM-DD" calendar date.
func parseDate(date string) (time.Time, error) {
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return time.Time{}, Validation("invalid date %q, expected YYYY-MM-DD", date)
	}
	return t, nil
}

// parseClock validates a zero padded "HH:MM" time of day.
func parseClock(clock string) error {
	if len(clock) != len(timeLayout) {
		return Validation("invalid time %q, expected HH:MM", clock)
	}
	if _, err := time.Parse(timeLayout, clock); err != nil {
		return Validation("invalid time %q, expected HH:MM", clock)
	}
	return nil
}

// ValidDate reports whether date is a well formed calendar date.
func ValidDate(date string) error {
	_, err := parseDate(date)
	return err
}

// ValidClock reports whether clock is a well formed "HH:MM" time.
func ValidClock(clock string) error { return parseClock(clock) }
