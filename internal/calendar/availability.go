package calendar

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
)

// Availability derives the open and closed canonical times of date for the
// granularity selected by service.  It reads bookings only and never writes
// slots.  Every booking of the date counts against the grid, whatever its
// service; a booking whose time is not on the grid is not reported.
func (s *Service) Availability(ctx context.Context, date, service string) (model.Availability, error) {
	ctx, span := s.tracer.Start(ctx, "calendar.Availability")
	defer span.End()
	service = strings.TrimSpace(service)
	span.SetAttributes(attribute.String("slot.date", date), attribute.String("slot.service", service))

	if _, err := parseDate(date); err != nil {
		return model.Availability{}, err
	}
	bookings, err := s.bookings.ListByDate(ctx, date)
	if err != nil {
		return model.Availability{}, Upstream("list bookings", err)
	}
	booked := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		booked[b.Time] = true
	}

	family := FamilyFor(service)
	times := s.policy.Times(family)
	out := model.Availability{
		Date:            date,
		Service:         service,
		IntervalMinutes: family.Minutes(),
		Duration:        family.Label.English,
		Slots:           make([]model.AvailabilitySlot, 0, len(times)),
		TotalSlots:      len(times),
	}
	for _, clock := range times {
		slot := model.AvailabilitySlot{Time: clock, Available: !booked[clock]}
		if slot.Available {
			slot.Status = string(model.SlotAvailable)
			out.AvailableCount++
		} else {
			slot.Status = string(model.SlotBooked)
			out.BookedCount++
		}
		out.Slots = append(out.Slots, slot)
	}
	return out, nil
}
