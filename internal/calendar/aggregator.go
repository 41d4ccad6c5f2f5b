package calendar

import (
	"context"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
)

// MaxRangeDays bounds a range query, counted inclusively.
const MaxRangeDays = 93

// Day returns the slots of date with summary counts, generating the default
// grid first when the date has none.
func (s *Service) Day(ctx context.Context, date string) (model.CalendarDay, error) {
	ctx, span := s.tracer.Start(ctx, "calendar.Day")
	defer span.End()
	span.SetAttributes(attribute.String("slot.date", date))

	if _, err := parseDate(date); err != nil {
		return model.CalendarDay{}, err
	}
	return s.day(ctx, date)
}

func (s *Service) day(ctx context.Context, date string) (model.CalendarDay, error) {
	slots, err := s.slots.ListByDate(ctx, date)
	if err != nil {
		return model.CalendarDay{}, Upstream("list slots", err)
	}
	if len(slots) == 0 {
		if _, err := s.Generate(ctx, date); err != nil {
			return model.CalendarDay{}, err
		}
		if slots, err = s.slots.ListByDate(ctx, date); err != nil {
			return model.CalendarDay{}, Upstream("list slots", err)
		}
	}
	return summarize(date, slots), nil
}

// Range returns one CalendarDay per date from start to end inclusive, in
// ascending order.  Both bounds are validated before any day is loaded.
func (s *Service) Range(ctx context.Context, start, end string) ([]model.CalendarDay, error) {
	ctx, span := s.tracer.Start(ctx, "calendar.Range")
	defer span.End()
	span.SetAttributes(attribute.String("range.start", start), attribute.String("range.end", end))

	from, err := parseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := parseDate(end)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, Validation("invalid range: end date %s is before start date %s", end, start)
	}
	days := int(to.Sub(from).Hours()/24) + 1
	if days > MaxRangeDays {
		return nil, Validation("invalid range: %d days requested, at most %d allowed", days, MaxRangeDays)
	}

	out := make([]model.CalendarDay, 0, days)
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		day, err := s.day(ctx, d.Format(dateLayout))
		if err != nil {
			return nil, err
		}
		out = append(out, day)
	}
	return out, nil
}

// summarize sorts slots by time, then service, and counts them.
func summarize(date string, slots []model.TimeSlot) model.CalendarDay {
	sort.SliceStable(slots, func(i, j int) bool {
		if slots[i].Time != slots[j].Time {
			return slots[i].Time < slots[j].Time
		}
		return slots[i].ServiceType < slots[j].ServiceType
	})
	day := model.CalendarDay{Date: date, Slots: slots, TotalSlots: len(slots)}
	for _, sl := range slots {
		switch sl.Status {
		case model.SlotAvailable:
			day.AvailableSlots++
		case model.SlotBooked:
			day.BookedSlots++
		}
	}
	if day.Slots == nil {
		day.Slots = []model.TimeSlot{}
	}
	return day
}
