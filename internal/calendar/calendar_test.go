package calendar

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
	"github.com/iliyamo/qnova-vr-booking/internal/repository"
	"github.com/iliyamo/qnova-vr-booking/internal/repository/memory"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, d Dispatcher) (*Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	svc := NewService(Deps{
		Slots:      st.Slots(),
		Bookings:   st.Bookings(),
		Booker:     st.Bookings(),
		Dispatcher: d,
		Now:        func() time.Time { return fixedNow },
	})
	return svc, st
}

func validRequest() BookingRequest {
	return BookingRequest{Name: "Max Mustermann", Email: "max@example.com", Phone: "+49 30 1234"}
}

func findSlot(t *testing.T, day model.CalendarDay, clock, service string) model.TimeSlot {
	t.Helper()
	for _, s := range day.Slots {
		if s.Time == clock && s.ServiceType == service {
			return s
		}
	}
	t.Fatalf("no slot %s %s on %s", clock, service, day.Date)
	return model.TimeSlot{}
}

func TestPolicyFamilies(t *testing.T) {
	tests := []struct {
		service string
		minutes int
	}{
		{"PlayStation 5 VR Experience", 60},
		{"playstation x", 60},
		{"PS5 Racing", 60},
		{"psvr2 session", 60},
		{"MyPS5Session", 60},
		{"PS-Party", 60},
		{"Upside Down Arcade", 30},
		{"KAT VR Gaming Session", 30},
		{"Group KAT VR Party", 30},
		{"Pspspsps", 30},
		{"", 30},
	}
	for _, tt := range tests {
		t.Run(tt.service, func(t *testing.T) {
			if got := FamilyFor(tt.service).Minutes(); got != tt.minutes {
				t.Fatalf("FamilyFor(%q) = %d minutes, want %d", tt.service, got, tt.minutes)
			}
		})
	}
}

func TestPolicyTimes(t *testing.T) {
	p := DefaultPolicy()
	half := p.Times(HalfHour)
	if len(half) != 20 || half[0] != "12:00" || half[19] != "21:30" {
		t.Fatalf("half hour grid = %v", half)
	}
	hourly := p.Times(PlayStation)
	if len(hourly) != 10 || hourly[0] != "12:00" || hourly[9] != "21:00" {
		t.Fatalf("hourly grid = %v", hourly)
	}
	if got := p.SlotsPerDay(); got != 50 {
		t.Fatalf("SlotsPerDay = %d, want 50", got)
	}
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	res, err := svc.Generate(ctx, "2025-03-01")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Created != 50 || res.Total != 50 || res.Existing {
		t.Fatalf("first Generate = %+v", res)
	}

	again, err := svc.Generate(ctx, "2025-03-01")
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if again.Created != 0 || again.Total != 50 || !again.Existing {
		t.Fatalf("second Generate = %+v", again)
	}

	day, err := svc.Day(ctx, "2025-03-01")
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	for _, s := range day.Slots {
		if s.Status != model.SlotAvailable {
			t.Fatalf("slot %s %s has status %s", s.Time, s.ServiceType, s.Status)
		}
	}
}

func TestGenerateConcurrent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Generate(ctx, "2025-03-05"); err != nil {
				t.Errorf("Generate: %v", err)
			}
		}()
	}
	wg.Wait()

	day, err := svc.Day(ctx, "2025-03-05")
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if day.TotalSlots != 50 {
		t.Fatalf("TotalSlots = %d after concurrent generation, want 50", day.TotalSlots)
	}
}

func TestGenerateInvalidDate(t *testing.T) {
	svc, _ := newTestService(t, nil)
	for _, date := range []string{"", "2025-13-01", "01.03.2025", "2025-02-30"} {
		if _, err := svc.Generate(context.Background(), date); !errors.Is(err, ErrValidation) {
			t.Errorf("Generate(%q) err = %v, want ErrValidation", date, err)
		}
	}
}

func TestDayGeneratesAndCounts(t *testing.T) {
	svc, _ := newTestService(t, nil)
	day, err := svc.Day(context.Background(), "2025-03-01")
	if err != nil {
		t.Fatalf("Day: %v", err)
	}
	if day.TotalSlots != 50 || day.AvailableSlots != 50 || day.BookedSlots != 0 {
		t.Fatalf("counts = %d/%d/%d", day.TotalSlots, day.AvailableSlots, day.BookedSlots)
	}
	if day.AvailableSlots+day.BookedSlots != day.TotalSlots {
		t.Fatal("available + booked != total")
	}
	for i := 1; i < len(day.Slots); i++ {
		if day.Slots[i-1].Time > day.Slots[i].Time {
			t.Fatalf("slots not sorted by time at %d", i)
		}
	}
}

func TestBookSlot(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	disp := NewMockDispatcher(ctrl)
	svc, st := newTestService(t, disp)

	day, err := svc.Day(ctx, "2025-03-01")
	if err != nil {
		t.Fatal(err)
	}
	slot := findSlot(t, day, "14:00", "KAT VR Gaming Session")

	disp.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	b, err := svc.BookSlot(ctx, slot.ID, validRequest())
	if err != nil {
		t.Fatalf("BookSlot: %v", err)
	}
	if b.Date != "2025-03-01" || b.Time != "14:00" || b.Service != "KAT VR Gaming Session" ||
		b.Status != model.BookingConfirmed || b.Participants != 1 {
		t.Fatalf("booking = %+v", b)
	}

	got, err := st.Slots().GetByID(ctx, slot.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.SlotBooked || got.BookingID == nil || *got.BookingID != b.ID {
		t.Fatalf("slot after booking = %+v", got)
	}
	if got.CustomerInfo == nil || got.CustomerInfo.Email != "max@example.com" {
		t.Fatalf("customer info = %+v", got.CustomerInfo)
	}
	if _, err := st.Bookings().GetByID(ctx, b.ID); err != nil {
		t.Fatalf("booking not persisted: %v", err)
	}

	after, err := svc.Day(ctx, "2025-03-01")
	if err != nil {
		t.Fatal(err)
	}
	if after.BookedSlots != 1 || after.AvailableSlots != 49 {
		t.Fatalf("counts after booking = %d booked, %d available", after.BookedSlots, after.AvailableSlots)
	}
}

func TestBookSlotErrors(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, nil)
	day, err := svc.Day(ctx, "2025-03-01")
	if err != nil {
		t.Fatal(err)
	}
	booked := findSlot(t, day, "15:00", "KAT VR Gaming Session")
	first, err := svc.BookSlot(ctx, booked.ID, validRequest())
	if err != nil {
		t.Fatal(err)
	}
	blocked := findSlot(t, day, "16:00", "KAT VR Gaming Session")
	status := model.SlotMaintenance
	if _, err := svc.UpdateSlot(ctx, blocked.ID, SlotPatch{Status: &status}); err != nil {
		t.Fatal(err)
	}
	free := findSlot(t, day, "17:00", "KAT VR Gaming Session")

	tests := []struct {
		name   string
		slotID string
		req    BookingRequest
		want   error
	}{
		{"already booked", booked.ID, validRequest(), ErrInvalidState},
		{"maintenance", blocked.ID, validRequest(), ErrInvalidState},
		{"unknown slot", "missing", validRequest(), ErrNotFound},
		{"missing name", free.ID, BookingRequest{Email: "a@b.de"}, ErrValidation},
		{"bad email", free.ID, BookingRequest{Name: "A", Email: "nope"}, ErrValidation},
		{"negative participants", free.ID, BookingRequest{Name: "A", Email: "a@b.de", Participants: -2}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.BookSlot(ctx, tt.slotID, tt.req); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}

	got, err := st.Slots().GetByID(ctx, booked.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.BookingID == nil || *got.BookingID != first.ID {
		t.Fatal("failed booking changed the booked slot")
	}
	if got, _ := st.Slots().GetByID(ctx, free.ID); got.Status != model.SlotAvailable {
		t.Fatal("rejected request changed a free slot")
	}
}

func TestBookSlotConcurrent(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, nil)
	day, err := svc.Day(ctx, "2025-03-01")
	if err != nil {
		t.Fatal(err)
	}
	slot := findSlot(t, day, "18:00", "PlayStation 5 VR Experience")

	const callers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.BookSlot(ctx, slot.ID, validRequest())
			switch {
			case err == nil:
				mu.Lock()
				succeeded++
				mu.Unlock()
			case errors.Is(err, ErrInvalidState), errors.Is(err, ErrConflict):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("%d successful bookings, want exactly 1", succeeded)
	}
	list, err := st.Bookings().ListByDate(ctx, "2025-03-01")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("%d bookings persisted, want 1", len(list))
	}
}

func TestBookSlotDispatchFailureIgnored(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	disp := NewMockDispatcher(ctrl)
	svc, _ := newTestService(t, disp)
	day, err := svc.Day(ctx, "2025-03-01")
	if err != nil {
		t.Fatal(err)
	}
	slot := findSlot(t, day, "12:30", "Group KAT VR Party")

	disp.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(errors.New("queue full"))
	if _, err := svc.BookSlot(ctx, slot.ID, validRequest()); err != nil {
		t.Fatalf("dispatch failure leaked into BookSlot: %v", err)
	}
}

func TestAvailability(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, nil)
	if err := st.Bookings().Create(ctx, &model.Booking{
		ID: "b1", Name: "A", Email: "a@b.de", Service: "PlayStation X",
		Date: "2025-03-01", Time: "14:00", Participants: 1, Status: model.BookingPending,
	}); err != nil {
		t.Fatal(err)
	}

	av, err := svc.Availability(ctx, "2025-03-01", "PlayStation")
	if err != nil {
		t.Fatalf("Availability: %v", err)
	}
	if av.IntervalMinutes != 60 || av.TotalSlots != 10 || av.Duration != "1 hour" {
		t.Fatalf("availability header = %+v", av)
	}
	for _, s := range av.Slots {
		wantAvailable := s.Time != "14:00"
		if s.Available != wantAvailable {
			t.Errorf("%s available = %v, want %v", s.Time, s.Available, wantAvailable)
		}
	}
	if av.BookedCount != 1 || av.AvailableCount != 9 {
		t.Fatalf("counts = %d booked, %d available", av.BookedCount, av.AvailableCount)
	}

	def, err := svc.Availability(ctx, "2025-03-01", "")
	if err != nil {
		t.Fatal(err)
	}
	if def.IntervalMinutes != 30 || def.TotalSlots != 20 || def.Duration != "30 minutes" {
		t.Fatalf("default availability = %+v", def)
	}

	if exists, _ := st.Slots().ExistsForDate(ctx, "2025-03-01"); exists {
		t.Fatal("Availability wrote slots")
	}
}

func TestAvailabilityOffGridIgnored(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, nil)
	if err := st.Bookings().Create(ctx, &model.Booking{
		ID: "b1", Name: "A", Email: "a@b.de", Service: "PlayStation X",
		Date: "2025-03-01", Time: "14:30", Participants: 1, Status: model.BookingPending,
	}); err != nil {
		t.Fatal(err)
	}
	av, err := svc.Availability(ctx, "2025-03-01", "PlayStation")
	if err != nil {
		t.Fatal(err)
	}
	if av.BookedCount != 0 {
		t.Fatalf("off grid booking counted: %+v", av)
	}
}

func TestRange(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, nil)

	days, err := svc.Range(ctx, "2025-03-01", "2025-03-02")
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(days) != 2 || days[0].Date != "2025-03-01" || days[1].Date != "2025-03-02" {
		t.Fatalf("Range returned %d days", len(days))
	}

	tests := []struct {
		name, start, end string
	}{
		{"end before start", "2025-03-02", "2025-03-01"},
		{"bad start", "2025-3-1", "2025-03-02"},
		{"bad end", "2025-03-01", "tomorrow"},
		{"too long", "2025-01-01", "2025-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, err := svc.Range(ctx, tt.start, tt.end)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			if days != nil {
				t.Fatal("partial result returned with error")
			}
		})
	}
}

func TestSlotMutation(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, nil)

	slot, err := svc.CreateSlot(ctx, SlotInput{Date: "2025-03-10", Time: "23:00", ServiceType: "Private Event"})
	if err != nil {
		t.Fatalf("CreateSlot: %v", err)
	}
	if slot.Status != model.SlotAvailable {
		t.Fatalf("default status = %s", slot.Status)
	}
	if _, err := svc.CreateSlot(ctx, SlotInput{Date: "2025-03-10", Time: "23:00", ServiceType: "Private Event"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate CreateSlot err = %v, want ErrConflict", err)
	}
	booked := model.SlotBooked
	if _, err := svc.CreateSlot(ctx, SlotInput{Date: "2025-03-10", Time: "22:00", ServiceType: "Private Event", Status: booked}); !errors.Is(err, ErrValidation) {
		t.Fatalf("booked without booking_id err = %v, want ErrValidation", err)
	}
	if _, err := svc.CreateSlot(ctx, SlotInput{Date: "2025-03-10", Time: "9:00", ServiceType: "Private Event"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("unpadded time err = %v, want ErrValidation", err)
	}

	if err := st.Bookings().Create(ctx, &model.Booking{ID: "b7", Name: "Eva", Email: "eva@example.com", Status: model.BookingConfirmed}); err != nil {
		t.Fatal(err)
	}
	id := "b7"
	updated, err := svc.UpdateSlot(ctx, slot.ID, SlotPatch{Status: &booked, BookingID: &id})
	if err != nil {
		t.Fatalf("UpdateSlot to booked: %v", err)
	}
	if updated.CustomerInfo == nil || updated.CustomerInfo.Name != "Eva" {
		t.Fatalf("customer info not filled from booking: %+v", updated.CustomerInfo)
	}

	blocked := model.SlotBlocked
	updated, err = svc.UpdateSlot(ctx, slot.ID, SlotPatch{Status: &blocked})
	if err != nil {
		t.Fatalf("UpdateSlot to blocked: %v", err)
	}
	if updated.BookingID != nil || updated.CustomerInfo != nil {
		t.Fatalf("leaving booked kept booking fields: %+v", updated)
	}

	bogus := model.SlotStatus("sold")
	if _, err := svc.UpdateSlot(ctx, slot.ID, SlotPatch{Status: &bogus}); !errors.Is(err, ErrValidation) {
		t.Fatalf("invalid status err = %v, want ErrValidation", err)
	}
	if _, err := svc.UpdateSlot(ctx, "missing", SlotPatch{Status: &blocked}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateSlot missing err = %v, want ErrNotFound", err)
	}

	if err := svc.DeleteSlot(ctx, slot.ID); err != nil {
		t.Fatalf("DeleteSlot: %v", err)
	}
	if err := svc.DeleteSlot(ctx, slot.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second DeleteSlot err = %v, want ErrNotFound", err)
	}
}

// racingSlots commits a competing booking right after the first read of a
// slot, before the caller gets to write it back.
type racingSlots struct {
	repository.SlotStore
	booker  repository.SlotBooker
	booking model.Booking
	once    sync.Once
	err     error
}

func (r *racingSlots) GetByID(ctx context.Context, id string) (*model.TimeSlot, error) {
	slot, err := r.SlotStore.GetByID(ctx, id)
	if err == nil {
		r.once.Do(func() { r.err = r.booker.BookSlot(ctx, id, &r.booking, fixedNow) })
	}
	return slot, err
}

func TestUpdateSlotKeepsConcurrentBooking(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	slot := model.TimeSlot{
		ID: "s1", Date: "2025-03-11", Time: "15:00", ServiceType: "KAT VR Gaming Session",
		Status: model.SlotAvailable, CreatedAt: fixedNow, UpdatedAt: fixedNow,
	}
	if err := st.Slots().Create(ctx, &slot); err != nil {
		t.Fatal(err)
	}
	race := &racingSlots{
		SlotStore: st.Slots(),
		booker:    st.Bookings(),
		booking: model.Booking{
			ID: "winner", Name: "Max Mustermann", Email: "max@example.com",
			Service: slot.ServiceType, Date: slot.Date, Time: slot.Time, Participants: 1,
			Status: model.BookingConfirmed, CreatedAt: fixedNow,
		},
	}
	svc := NewService(Deps{
		Slots:    race,
		Bookings: st.Bookings(),
		Booker:   st.Bookings(),
		Now:      func() time.Time { return fixedNow },
	})

	note := SlotPatch{CustomerInfo: &model.CustomerInfo{Name: "Walk-in"}}
	if _, err := svc.UpdateSlot(ctx, slot.ID, note); !errors.Is(err, ErrConflict) {
		t.Fatalf("UpdateSlot err = %v, want ErrConflict", err)
	}
	if race.err != nil {
		t.Fatalf("competing BookSlot: %v", race.err)
	}
	got, err := st.Slots().GetByID(ctx, slot.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.SlotBooked || got.BookingID == nil || *got.BookingID != "winner" {
		t.Fatalf("concurrent booking overwritten: %+v", got)
	}

	// a retry sees the booking and keeps it
	updated, err := svc.UpdateSlot(ctx, slot.ID, note)
	if err != nil {
		t.Fatalf("retried UpdateSlot: %v", err)
	}
	if updated.Status != model.SlotBooked || *updated.BookingID != "winner" || updated.CustomerInfo.Name != "Walk-in" {
		t.Fatalf("retried update = %+v", updated)
	}
}
