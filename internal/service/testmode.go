package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/qnova-vr-booking/internal/calendar"
	"github.com/iliyamo/qnova-vr-booking/internal/model"
	"github.com/iliyamo/qnova-vr-booking/internal/repository"
)

// TestEmailDomain marks bookings made by the admin test mode.
const TestEmailDomain = "test.qnova.local"

// maxTestBookings is how many slots one test mode run books.
const maxTestBookings = 3

var testCustomers = []struct{ name, phone string }{
	{"Test Kunde Eins", "+49 30 0000001"},
	{"Test Kunde Zwei", "+49 30 0000002"},
	{"Test Kunde Drei", "+49 30 0000003"},
}

// TestModeResult is the outcome of a test mode run.
type TestModeResult struct {
	Date     string          `json:"date"`
	Bookings []model.Booking `json:"bookings"`
}

// ClearResult counts what ClearTestData undid.
type ClearResult struct {
	ReleasedSlots   int64 `json:"released_slots"`
	DeletedBookings int64 `json:"deleted_bookings"`
}

// TestModeService fills today's calendar with recognisable test bookings
// and removes them again.
type TestModeService struct {
	calendar *calendar.Service
	slots    repository.SlotStore
	bookings repository.BookingStore
	loc      *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

func NewTestModeService(cal *calendar.Service, slots repository.SlotStore, bookings repository.BookingStore, loc *time.Location, logger *slog.Logger) *TestModeService {
	if cal == nil || slots == nil || bookings == nil {
		panic("service: nil dependency passed to NewTestModeService")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &TestModeService{
		calendar: cal,
		slots:    slots,
		bookings: bookings,
		loc:      loc,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateTestBookings books up to three available slots of today through the
// regular slot booking path.  Slots lost to a concurrent booking are
// skipped.
func (s *TestModeService) CreateTestBookings(ctx context.Context) (TestModeResult, error) {
	date := s.now().In(s.loc).Format("2006-01-02")
	day, err := s.calendar.Day(ctx, date)
	if err != nil {
		return TestModeResult{}, err
	}

	res := TestModeResult{Date: date, Bookings: []model.Booking{}}
	for _, slot := range day.Slots {
		if len(res.Bookings) == maxTestBookings {
			break
		}
		if slot.Status != model.SlotAvailable {
			continue
		}
		c := testCustomers[len(res.Bookings)]
		b, err := s.calendar.BookSlot(ctx, slot.ID, calendar.BookingRequest{
			Name:         c.name,
			Email:        fmt.Sprintf("test%d@%s", len(res.Bookings)+1, TestEmailDomain),
			Phone:        c.phone,
			Participants: len(res.Bookings) + 1,
			Message:      "Testbuchung",
		})
		if errors.Is(err, calendar.ErrConflict) || errors.Is(err, calendar.ErrInvalidState) {
			continue
		}
		if err != nil {
			return TestModeResult{}, err
		}
		res.Bookings = append(res.Bookings, b)
	}
	s.logger.InfoContext(ctx, "test bookings created", "date", date, "count", len(res.Bookings))
	return res, nil
}

// ClearTestData releases every slot held by a test booking and deletes
// those bookings.
func (s *TestModeService) ClearTestData(ctx context.Context) (ClearResult, error) {
	list, err := s.bookings.ListByEmailDomain(ctx, TestEmailDomain)
	if err != nil {
		return ClearResult{}, calendar.Upstream("list test bookings", err)
	}
	if len(list) == 0 {
		return ClearResult{}, nil
	}
	ids := make([]string, 0, len(list))
	for _, b := range list {
		ids = append(ids, b.ID)
	}

	released, err := s.slots.ReleaseByBookingIDs(ctx, ids, s.now())
	if err != nil {
		return ClearResult{}, calendar.Upstream("release test slots", err)
	}
	deleted, err := s.bookings.DeleteMany(ctx, ids)
	if err != nil {
		return ClearResult{ReleasedSlots: released}, calendar.Upstream("delete test bookings", err)
	}
	s.logger.InfoContext(ctx, "test data cleared", "released_slots", released, "deleted_bookings", deleted)
	return ClearResult{ReleasedSlots: released, DeletedBookings: deleted}, nil
}
