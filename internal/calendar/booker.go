package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
	"github.com/iliyamo/qnova-vr-booking/internal/repository"
)

// BookingRequest carries the customer details of a booking.
type BookingRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Participants int    `json:"participants"`
	Message      string `json:"message"`
	SelectedGame string `json:"selectedGame"`
}

// Normalize trims the request and validates the customer fields.  A zero
// participant count means one participant.
func (r *BookingRequest) Normalize() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Message = strings.TrimSpace(r.Message)
	r.SelectedGame = strings.TrimSpace(r.SelectedGame)
	if r.Name == "" {
		return Validation("name is required")
	}
	if r.Email == "" {
		return Validation("email is required")
	}
	if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
		return Validation("invalid email %q", r.Email)
	}
	if r.Participants == 0 {
		r.Participants = 1
	}
	if r.Participants < 1 {
		return Validation("participants must be at least 1")
	}
	return nil
}

// BookSlot turns a slot reservation into a confirmed booking.  The slot
// must exist (ErrNotFound) and be available (ErrInvalidState).  The booking
// insert and the available -> booked transition commit together; losing the
// transition to a concurrent caller yields ErrConflict.  The notification is
// enqueued after commit and its failure is only logged.
func (s *Service) BookSlot(ctx context.Context, slotID string, req BookingRequest) (model.Booking, error) {
	ctx, span := s.tracer.Start(ctx, "calendar.BookSlot")
	defer span.End()
	span.SetAttributes(attribute.String("slot.id", slotID))

	if err := req.Normalize(); err != nil {
		return model.Booking{}, err
	}
	slot, err := s.slots.GetByID(ctx, slotID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Booking{}, NotFound("slot %s not found", slotID)
	}
	if err != nil {
		return model.Booking{}, Upstream("load slot", err)
	}
	if slot.Status != model.SlotAvailable {
		return model.Booking{}, fmt.Errorf("%w: slot is %s, not available", ErrInvalidState, slot.Status)
	}

	now := s.now()
	b := model.Booking{
		ID:           s.newID(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Service:      slot.ServiceType,
		Date:         slot.Date,
		Time:         slot.Time,
		Participants: req.Participants,
		Message:      req.Message,
		SelectedGame: req.SelectedGame,
		Status:       model.BookingConfirmed,
		CreatedAt:    now,
	}
	if err := s.booker.BookSlot(ctx, slot.ID, &b, now); err != nil {
		if errors.Is(err, repository.ErrSlotTaken) {
			span.SetStatus(codes.Error, "slot taken")
			return model.Booking{}, ErrSlotTaken
		}
		span.RecordError(err)
		return model.Booking{}, Upstream("book slot", err)
	}
	span.SetAttributes(attribute.String("booking.id", b.ID))
	s.logger.InfoContext(ctx, "slot booked",
		"slot_id", slot.ID, "booking_id", b.ID, "date", b.Date, "time", b.Time, "service", b.Service)

	s.Notify(ctx, b)
	return b, nil
}

// ErrSlotTaken is returned to the loser of a booking race.
var ErrSlotTaken = fmt.Errorf("%w: slot no longer available, please pick another time", ErrConflict)

// Notify hands b to the dispatcher.  It never fails the caller.
func (s *Service) Notify(ctx context.Context, b model.Booking) {
	if s.dispatch == nil {
		return
	}
	if err := s.dispatch.Enqueue(ctx, b); err != nil {
		s.logger.WarnContext(ctx, "booking notification not queued", "booking_id", b.ID, "err", err)
	}
}
