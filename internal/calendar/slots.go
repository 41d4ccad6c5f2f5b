package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
	"github.com/iliyamo/qnova-vr-booking/internal/repository"
)

// SlotInput describes an ad hoc slot created by an administrator.
type SlotInput struct {
	Date         string              `json:"date"`
	Time         string              `json:"time"`
	ServiceType  string              `json:"service_type"`
	Status       model.SlotStatus    `json:"status"`
	BookingID    *string             `json:"booking_id"`
	CustomerInfo *model.CustomerInfo `json:"customer_info"`
}

// SlotPatch lists the mutable fields of a slot; nil fields are kept.
type SlotPatch struct {
	Status       *model.SlotStatus   `json:"status"`
	BookingID    *string             `json:"booking_id"`
	CustomerInfo *model.CustomerInfo `json:"customer_info"`
}

// CreateSlot stores a single slot.  Status defaults to available; a booked
// slot needs a booking id.  A slot for an existing (date, time, service)
// tuple is rejected with ErrConflict.
func (s *Service) CreateSlot(ctx context.Context, in SlotInput) (model.TimeSlot, error) {
	ctx, span := s.tracer.Start(ctx, "calendar.CreateSlot")
	defer span.End()

	if _, err := parseDate(in.Date); err != nil {
		return model.TimeSlot{}, err
	}
	if err := parseClock(in.Time); err != nil {
		return model.TimeSlot{}, err
	}
	in.ServiceType = strings.TrimSpace(in.ServiceType)
	if in.ServiceType == "" {
		return model.TimeSlot{}, Validation("service_type is required")
	}
	if in.Status == "" {
		in.Status = model.SlotAvailable
	}
	now := s.now()
	slot := model.TimeSlot{
		ID:           s.newID(),
		Date:         in.Date,
		Time:         in.Time,
		ServiceType:  in.ServiceType,
		Status:       in.Status,
		BookingID:    in.BookingID,
		CustomerInfo: in.CustomerInfo,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.checkSlot(ctx, &slot); err != nil {
		return model.TimeSlot{}, err
	}
	if err := s.slots.Create(ctx, &slot); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.TimeSlot{}, fmt.Errorf("%w: a slot for %s %s %s already exists",
				ErrConflict, slot.Date, slot.Time, slot.ServiceType)
		}
		return model.TimeSlot{}, Upstream("create slot", err)
	}
	span.SetAttributes(attribute.String("slot.id", slot.ID))
	return slot, nil
}

// UpdateSlot applies patch to the slot with id.  Any status transition is
// allowed; leaving booked clears the booking reference and customer.  The
// write only lands if the slot still has the status and booking it had when
// read, so a booking committed in between is never overwritten; that case
// yields ErrConflict.
func (s *Service) UpdateSlot(ctx context.Context, id string, patch SlotPatch) (model.TimeSlot, error) {
	ctx, span := s.tracer.Start(ctx, "calendar.UpdateSlot")
	defer span.End()
	span.SetAttributes(attribute.String("slot.id", id))

	slot, err := s.slots.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.TimeSlot{}, NotFound("slot %s not found", id)
	}
	if err != nil {
		return model.TimeSlot{}, Upstream("load slot", err)
	}
	read := repository.StateOf(*slot)
	if patch.Status != nil {
		slot.Status = *patch.Status
	}
	if patch.BookingID != nil {
		slot.BookingID = patch.BookingID
	}
	if patch.CustomerInfo != nil {
		slot.CustomerInfo = patch.CustomerInfo
	}
	if err := s.checkSlot(ctx, slot); err != nil {
		return model.TimeSlot{}, err
	}
	slot.UpdatedAt = s.now()

	n, err := s.slots.Update(ctx, slot, read)
	if err != nil {
		return model.TimeSlot{}, Upstream("update slot", err)
	}
	if n == 0 {
		_, err := s.slots.GetByID(ctx, id)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return model.TimeSlot{}, NotFound("slot %s not found", id)
		case err != nil:
			return model.TimeSlot{}, Upstream("load slot", err)
		}
		return model.TimeSlot{}, fmt.Errorf("%w: slot %s changed while updating, reload and retry", ErrConflict, id)
	}
	return *slot, nil
}

// DeleteSlot removes the slot with id.
func (s *Service) DeleteSlot(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "calendar.DeleteSlot")
	defer span.End()
	span.SetAttributes(attribute.String("slot.id", id))

	n, err := s.slots.Delete(ctx, id)
	if err != nil {
		return Upstream("delete slot", err)
	}
	if n == 0 {
		return NotFound("slot %s not found", id)
	}
	return nil
}

// checkSlot enforces the status invariants and normalises the booking
// fields of slot in place: a booked slot references an existing booking,
// any other status carries no booking fields.
func (s *Service) checkSlot(ctx context.Context, slot *model.TimeSlot) error {
	if !slot.Status.Valid() {
		return Validation("invalid status %q", slot.Status)
	}
	if slot.BookingID != nil && strings.TrimSpace(*slot.BookingID) == "" {
		slot.BookingID = nil
	}
	if slot.Status != model.SlotBooked {
		slot.BookingID = nil
		slot.CustomerInfo = nil
		return nil
	}
	if slot.BookingID == nil {
		return Validation("a booked slot requires booking_id")
	}
	b, err := s.bookings.GetByID(ctx, *slot.BookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return Validation("booking %s does not exist", *slot.BookingID)
	}
	if err != nil {
		return Upstream("load booking", err)
	}
	if slot.CustomerInfo == nil {
		ci := b.Customer()
		slot.CustomerInfo = &ci
	}
	return nil
}
