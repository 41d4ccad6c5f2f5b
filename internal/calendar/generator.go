package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
)

func newUUID() string { return uuid.NewString() }

// GenerateResult reports what Generate did for a date.
type GenerateResult struct {
	Date    string `json:"date"`
	Created int    `json:"created"`
	Total   int    `json:"total_slots"`
	// Existing is true when the date already had slots and nothing was
	// written.
	Existing bool `json:"existing"`
}

// BuildGrid returns the default slots of date for every offering of p, all
// available and stamped with now.  It performs no I/O.
func BuildGrid(p Policy, date string, now time.Time, newID func() string) []model.TimeSlot {
	var out []model.TimeSlot
	for _, o := range p.Offerings {
		for _, clock := range p.Times(o.Family()) {
			out = append(out, model.TimeSlot{
				ID:          newID(),
				Date:        date,
				Time:        clock,
				ServiceType: o.ServiceType,
				Status:      model.SlotAvailable,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		}
	}
	return out
}

// Generate populates the default grid for date unless the date already has
// slots.  Concurrent calls for the same date may both pass the existence
// check; the stores skip tuple duplicates so the grid is still written once.
func (s *Service) Generate(ctx context.Context, date string) (GenerateResult, error) {
	ctx, span := s.tracer.Start(ctx, "calendar.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("slot.date", date))

	if _, err := parseDate(date); err != nil {
		return GenerateResult{}, err
	}
	exists, err := s.slots.ExistsForDate(ctx, date)
	if err != nil {
		return GenerateResult{}, Upstream("check existing slots", err)
	}
	if exists {
		return GenerateResult{Date: date, Existing: true, Total: s.countDate(ctx, date)}, nil
	}

	grid := BuildGrid(s.policy, date, s.now(), s.newID)
	n, err := s.slots.InsertMany(ctx, grid)
	if err != nil {
		return GenerateResult{}, Upstream("insert slots", err)
	}
	s.logger.InfoContext(ctx, "slots generated", "date", date, "created", n)
	return GenerateResult{Date: date, Created: int(n), Total: s.countDate(ctx, date)}, nil
}

// countDate is informational; a read failure reports zero.
func (s *Service) countDate(ctx context.Context, date string) int {
	slots, err := s.slots.ListByDate(ctx, date)
	if err != nil {
		return 0
	}
	return len(slots)
}
