package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/qnova-vr-booking/internal/model"
	"github.com/iliyamo/qnova-vr-booking/internal/testutil"
)

func newSlot(date, clock, service string, now time.Time) model.TimeSlot {
	return model.TimeSlot{
		ID: uuid.NewString(), Date: date, Time: clock, ServiceType: service,
		Status: model.SlotAvailable, CreatedAt: now, UpdatedAt: now,
	}
}

func TestMySQLStores(t *testing.T) {
	ctx := context.Background()
	db, cleanup := testutil.SetupMySQLContainer(ctx, t)
	defer cleanup()

	slots := NewSlotRepo(db)
	bookings := NewBookingRepo(db)
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("insert many skips duplicate tuples", func(t *testing.T) {
		n, err := slots.InsertMany(ctx, []model.TimeSlot{
			newSlot("2025-03-01", "12:00", "KAT VR Gaming Session", now),
			newSlot("2025-03-01", "12:00", "KAT VR Gaming Session", now),
			newSlot("2025-03-01", "12:30", "KAT VR Gaming Session", now),
		})
		if err != nil {
			t.Fatal(err)
		}
		if n != 2 {
			t.Fatalf("InsertMany = %d, want 2", n)
		}
		dup := newSlot("2025-03-01", "12:30", "KAT VR Gaming Session", now)
		if err := slots.Create(ctx, &dup); !errors.Is(err, ErrDuplicate) {
			t.Fatalf("Create duplicate err = %v", err)
		}
		exists, err := slots.ExistsForDate(ctx, "2025-03-01")
		if err != nil || !exists {
			t.Fatalf("ExistsForDate = %v, %v", exists, err)
		}
		list, err := slots.ListByDate(ctx, "2025-03-01")
		if err != nil || len(list) != 2 || list[0].Time != "12:00" {
			t.Fatalf("ListByDate = %+v, %v", list, err)
		}
	})

	t.Run("service tuple ignores case", func(t *testing.T) {
		dup := newSlot("2025-03-01", "12:00", "kat vr gaming session", now)
		if err := slots.Create(ctx, &dup); !errors.Is(err, ErrDuplicate) {
			t.Fatalf("Create with different case err = %v, want ErrDuplicate", err)
		}
	})

	t.Run("update only lands on the state that was read", func(t *testing.T) {
		s := newSlot("2025-03-04", "16:00", "KAT VR Gaming Session", now)
		if err := slots.Create(ctx, &s); err != nil {
			t.Fatal(err)
		}
		read := StateOf(s)
		b := model.Booking{
			ID: uuid.NewString(), Name: "Max Mustermann", Email: "max@example.com",
			Service: s.ServiceType, Date: s.Date, Time: s.Time, Participants: 1,
			Status: model.BookingConfirmed, CreatedAt: now,
		}
		if err := bookings.BookSlot(ctx, s.ID, &b, now); err != nil {
			t.Fatal(err)
		}

		stale := s
		stale.UpdatedAt = now.Add(time.Minute)
		n, err := slots.Update(ctx, &stale, read)
		if err != nil || n != 0 {
			t.Fatalf("stale Update = %d, %v; want 0", n, err)
		}
		got, err := slots.GetByID(ctx, s.ID)
		if err != nil || got.Status != model.SlotBooked || got.BookingID == nil || *got.BookingID != b.ID {
			t.Fatalf("booking overwritten: %+v, %v", got, err)
		}

		// null-safe comparison matches the booked row
		n, err = slots.Update(ctx, got, StateOf(*got))
		if err != nil || n != 1 {
			t.Fatalf("current Update = %d, %v; want 1", n, err)
		}
	})

	t.Run("concurrent book slot has one winner", func(t *testing.T) {
		s := newSlot("2025-03-02", "14:00", "PlayStation 5 VR Experience", now)
		if err := slots.Create(ctx, &s); err != nil {
			t.Fatal(err)
		}

		const callers = 8
		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			wins   int
			losses int
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				b := model.Booking{
					ID: uuid.NewString(), Name: fmt.Sprintf("Kunde %d", i), Email: fmt.Sprintf("k%d@example.com", i),
					Service: s.ServiceType, Date: s.Date, Time: s.Time, Participants: 1,
					Status: model.BookingConfirmed, CreatedAt: now,
				}
				err := bookings.BookSlot(ctx, s.ID, &b, now)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case errors.Is(err, ErrSlotTaken):
					losses++
				default:
					t.Errorf("BookSlot: %v", err)
				}
			}(i)
		}
		wg.Wait()
		if wins != 1 || losses != callers-1 {
			t.Fatalf("wins %d losses %d", wins, losses)
		}

		got, err := slots.GetByID(ctx, s.ID)
		if err != nil || got.Status != model.SlotBooked || got.BookingID == nil {
			t.Fatalf("slot = %+v, %v", got, err)
		}
		stored, err := bookings.ListByDate(ctx, "2025-03-02")
		if err != nil || len(stored) != 1 || stored[0].ID != *got.BookingID {
			t.Fatalf("losing bookings were kept: %+v, %v", stored, err)
		}
	})

	t.Run("release and delete test bookings", func(t *testing.T) {
		s := newSlot("2025-03-03", "15:00", "Group KAT VR Party", now)
		if err := slots.Create(ctx, &s); err != nil {
			t.Fatal(err)
		}
		b := model.Booking{
			ID: uuid.NewString(), Name: "Test Kunde Eins", Email: "test1@TEST.qnova.local",
			Service: s.ServiceType, Date: s.Date, Time: s.Time, Participants: 1,
			Status: model.BookingConfirmed, CreatedAt: now,
		}
		if err := bookings.BookSlot(ctx, s.ID, &b, now); err != nil {
			t.Fatal(err)
		}

		test, err := bookings.ListByEmailDomain(ctx, "test.qnova.local")
		if err != nil || len(test) != 1 {
			t.Fatalf("ListByEmailDomain = %+v, %v", test, err)
		}
		n, err := slots.ReleaseByBookingIDs(ctx, []string{b.ID}, now.Add(time.Minute))
		if err != nil || n != 1 {
			t.Fatalf("ReleaseByBookingIDs = %d, %v", n, err)
		}
		got, _ := slots.GetByID(ctx, s.ID)
		if got.Status != model.SlotAvailable || got.BookingID != nil || got.CustomerInfo != nil {
			t.Fatalf("released slot = %+v", got)
		}
		if n, err := bookings.DeleteMany(ctx, []string{b.ID}); err != nil || n != 1 {
			t.Fatalf("DeleteMany = %d, %v", n, err)
		}
		if _, err := bookings.GetByID(ctx, b.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("deleted booking lookup err = %v", err)
		}
	})
}
