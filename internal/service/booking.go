// Package service implements the booking flows around the calendar engine:
// direct bookings, contact messages, hosted checkout payments and the admin
// test mode.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/qnova-vr-booking/internal/calendar"
	"github.com/iliyamo/qnova-vr-booking/internal/model"
	"github.com/iliyamo/qnova-vr-booking/internal/repository"
)

// listLimit caps the admin listings.
const listLimit = 1000

// DirectBookingRequest is a booking that names its own service, date and
// time instead of pointing at a slot.
type DirectBookingRequest struct {
	calendar.BookingRequest
	Service string `json:"service"`
	Date    string `json:"date"`
	Time    string `json:"time"`
}

// Normalize validates the customer fields and the requested date and time.
func (r *DirectBookingRequest) Normalize() error {
	if err := r.BookingRequest.Normalize(); err != nil {
		return err
	}
	r.Service = strings.TrimSpace(r.Service)
	r.Date = strings.TrimSpace(r.Date)
	r.Time = strings.TrimSpace(r.Time)
	if r.Service == "" {
		return calendar.Validation("service is required")
	}
	if err := calendar.ValidDate(r.Date); err != nil {
		return err
	}
	return calendar.ValidClock(r.Time)
}

// BookingService handles bookings created outside the slot grid and the
// admin views over all bookings.
type BookingService struct {
	bookings repository.BookingStore
	dispatch calendar.Dispatcher
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string
}

// NewBookingService returns a BookingService.  dispatch may be nil.  loc is
// the studio's time zone and decides what "today" means.
func NewBookingService(bookings repository.BookingStore, dispatch calendar.Dispatcher, loc *time.Location, logger *slog.Logger) *BookingService {
	if bookings == nil {
		panic("service: nil booking store")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &BookingService{
		bookings: bookings,
		dispatch: dispatch,
		loc:      loc,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
	}
}

// Create stores a pending booking and queues its notification.  The time
// is not checked against the slot grid and no slot changes state.
func (s *BookingService) Create(ctx context.Context, req DirectBookingRequest) (model.Booking, error) {
	if err := req.Normalize(); err != nil {
		return model.Booking{}, err
	}
	b := model.Booking{
		ID:           s.newID(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Service:      req.Service,
		Date:         req.Date,
		Time:         req.Time,
		Participants: req.Participants,
		Message:      req.Message,
		SelectedGame: req.SelectedGame,
		Status:       model.BookingPending,
		CreatedAt:    s.now(),
	}
	if err := s.bookings.Create(ctx, &b); err != nil {
		return model.Booking{}, calendar.Upstream("create booking", err)
	}
	s.logger.InfoContext(ctx, "booking created",
		"booking_id", b.ID, "service", b.Service, "date", b.Date, "time", b.Time)

	if s.dispatch != nil {
		if err := s.dispatch.Enqueue(ctx, b); err != nil {
			s.logger.WarnContext(ctx, "booking notification not queued", "booking_id", b.ID, "err", err)
		}
	}
	return b, nil
}

// List returns the most recent bookings, newest first.
func (s *BookingService) List(ctx context.Context) ([]model.Booking, error) {
	list, err := s.bookings.ListRecent(ctx, listLimit)
	if err != nil {
		return nil, calendar.Upstream("list bookings", err)
	}
	return list, nil
}

// Get returns one booking.
func (s *BookingService) Get(ctx context.Context, id string) (model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Booking{}, calendar.NotFound("booking %s not found", id)
	}
	if err != nil {
		return model.Booking{}, calendar.Upstream("load booking", err)
	}
	return *b, nil
}

// Today returns the studio's current date and the bookings made for it.
func (s *BookingService) Today(ctx context.Context) (string, []model.Booking, error) {
	date := s.now().In(s.loc).Format("2006-01-02")
	list, err := s.bookings.ListByDate(ctx, date)
	if err != nil {
		return date, nil, calendar.Upstream("list bookings", err)
	}
	return date, list, nil
}
